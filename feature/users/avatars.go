package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admin-backend/core/apperr"
	"admin-backend/core/reconcile"
	"admin-backend/core/retry"
	"admin-backend/feature/auth"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const avatarDir = "avatars"

// avatarGrace keeps recently written objects out of a reconciliation, together with
// any reference to them, since their upload may still be in progress.
const avatarGrace = 10 * time.Minute

// AvatarReport is the outcome of an avatar reconciliation.
type AvatarReport struct {
	Plan     *reconcile.Plan `json:"plan"`
	Executed int             `json:"executed"`
}

// PlanAvatars compares users.image with the avatar objects in storage and returns
// the repair actions without running them.
func (s *Service) PlanAvatars(ctx context.Context) (*reconcile.Plan, error) {
	if s.storage == nil {
		return nil, apperr.New(apperr.KindUnavailable, "object storage is not configured")
	}
	plan, err := reconcile.BuildPlan(ctx, s.avatarAdapter())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Avatars reconciled",
		zap.Int("total", plan.Summary.TotalItems),
		zap.Int("missing_storage", plan.Summary.MissingStorage),
		zap.Int("orphaned", plan.Summary.Orphaned),
		zap.Int("skipped", plan.Summary.Skipped))
	return plan, nil
}

// ApplyAvatarPlan runs the actions of a plan built by PlanAvatars: orphaned objects
// are deleted and dangling references cleared.
func (s *Service) ApplyAvatarPlan(ctx context.Context, plan *reconcile.Plan) (int, error) {
	if s.storage == nil {
		return 0, apperr.New(apperr.KindUnavailable, "object storage is not configured")
	}
	n, err := reconcile.ApplyPlan(ctx, s.avatarAdapter(), plan, reconcile.Options{Confirmed: true})
	if err != nil {
		return n, err
	}
	s.logger.Info("Avatar plan applied", zap.Int("executed", n))
	return n, nil
}

// ReconcileAvatars plans and, with apply set, immediately applies the plan.
func (s *Service) ReconcileAvatars(ctx context.Context, apply bool) (*AvatarReport, error) {
	plan, err := s.PlanAvatars(ctx)
	if err != nil {
		return nil, err
	}
	report := &AvatarReport{Plan: plan}
	if !apply {
		return report, nil
	}
	report.Executed, err = s.ApplyAvatarPlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) avatarAdapter() *avatarAdapter {
	return &avatarAdapter{svc: s, now: time.Now, recent: map[string]struct{}{}}
}

type avatarAdapter struct {
	svc    *Service
	now    func() time.Time
	recent map[string]struct{}
}

func (a *avatarAdapter) Name() string {
	return "avatars"
}

// LoadDBIndex includes soft-deleted users, a restore must find its avatar again.
func (a *avatarAdapter) LoadDBIndex(ctx context.Context) (map[string]string, error) {
	type row struct {
		ID    string
		Image string
	}
	rows, err := retry.Do(ctx, a.svc.retry, func(ctx context.Context) ([]row, error) {
		var rows []row
		err := a.svc.db.WithContext(ctx).Unscoped().Model(&auth.User{}).
			Select("id", "image").
			Where("image LIKE ?", avatarDir+"/%").
			Find(&rows).Error
		return rows, err
	})
	if err != nil {
		return nil, err
	}

	index := make(map[string]string, len(rows))
	for _, r := range rows {
		index[r.Image] = r.ID
	}
	return index, nil
}

func (a *avatarAdapter) LoadStorageSet(ctx context.Context) (map[string]struct{}, error) {
	cutoff := a.now().Add(-avatarGrace)
	set := make(map[string]struct{})
	objects := a.svc.storage.ListObjects(ctx, a.svc.bucket, minio.ListObjectsOptions{
		Prefix:    avatarDir + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.LastModified.After(cutoff) {
			a.recent[obj.Key] = struct{}{}
		}
		set[obj.Key] = struct{}{}
	}
	return set, nil
}

func (a *avatarAdapter) Excluded(key string) bool {
	_, ok := a.recent[key]
	return ok
}

func (a *avatarAdapter) DeleteStorage(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		err := retry.Run(ctx, a.svc.retry, func(ctx context.Context) error {
			return a.svc.storage.RemoveObject(ctx, a.svc.bucket, key, minio.RemoveObjectOptions{})
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (a *avatarAdapter) ClearReferences(ctx context.Context, keys []string) error {
	var ids []string
	err := retry.Run(ctx, a.svc.retry, func(ctx context.Context) error {
		tx := a.svc.db.WithContext(ctx).Unscoped().Model(&auth.User{}).Where("image IN ?", keys)
		if err := tx.Pluck("id", &ids).Error; err != nil {
			return err
		}
		return a.svc.db.WithContext(ctx).Unscoped().Model(&auth.User{}).
			Where("image IN ?", keys).
			Update("image", "").Error
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		a.svc.invalidate(ctx, id)
		a.svc.auth.ForgetUser(ctx, id)
	}
	return nil
}
