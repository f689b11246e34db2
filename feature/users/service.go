package users

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"admin-backend/core/apperr"
	"admin-backend/core/cache"
	"admin-backend/core/database"
	"admin-backend/core/retry"
	"admin-backend/core/storage"
	"admin-backend/feature/auth"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// MaxAvatarBytes is the largest accepted avatar upload.
	MaxAvatarBytes = 2 << 20
)

var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ListQuery filters and paginates the user list.
type ListQuery struct {
	Page           int    `query:"page" json:"page" validate:"omitempty,gte=1"`
	PageSize       int    `query:"page_size" json:"page_size" validate:"omitempty,gte=1,lte=100"`
	Search         string `query:"search" json:"search" validate:"max=255"`
	IncludeDeleted bool   `query:"include_deleted" json:"include_deleted"`
}

func (q ListQuery) normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	return q
}

// ListResult is one page of users.
type ListResult struct {
	Items      []auth.User `json:"items"`
	Total      int64       `json:"total" example:"42"`
	Page       int         `json:"page" example:"1"`
	PageSize   int         `json:"page_size" example:"20"`
	TotalPages int         `json:"total_pages" example:"3"`
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email         *string `json:"email" validate:"omitempty,email,max=255"`
	Role          *string `json:"role" validate:"omitempty,oneof=admin user"`
	EmailVerified *bool   `json:"email_verified"`
	Password      *string `json:"password" validate:"omitempty,max=72"`
}

// BanInput is the body of the ban endpoint.
type BanInput struct {
	Reason string `json:"reason" validate:"max=255"`
}

// Avatar is an uploaded profile picture.
// ContentType is what the client declared; the stored type is sniffed from Body.
type Avatar struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service implements the admin user management operations.
type Service struct {
	db      *gorm.DB
	auth    *auth.Service
	users   *cache.Cache
	lists   *cache.Cache
	storage storage.Client
	bucket  string
	retry   retry.Config
	logger  *zap.Logger
}

// NewService creates the users service. store may be nil when object storage is disabled.
func NewService(db *gorm.DB, authSvc *auth.Service, c *cache.Cache, store storage.Client, bucket string, rcfg retry.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	users := c.Namespace("users")
	return &Service{
		db:      db,
		auth:    authSvc,
		users:   users,
		lists:   users.Namespace("list"),
		storage: store,
		bucket:  bucket,
		retry:   rcfg,
		logger:  logger,
	}
}

// List returns one page of users, newest first. Soft-deleted users are only
// included when asked for.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if err := apperr.ValidateStruct(q); err != nil {
		return nil, err
	}
	q = q.normalize()

	res, err := cache.GetOrSet(ctx, s.lists, q, 0, func(ctx context.Context) (ListResult, error) {
		return retry.Do(ctx, s.retry, func(ctx context.Context) (ListResult, error) {
			return s.queryList(ctx, q)
		})
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list users: %w", err))
	}
	return &res, nil
}

func (s *Service) queryList(ctx context.Context, q ListQuery) (ListResult, error) {
	tx := s.db.WithContext(ctx).Model(&auth.User{})
	if q.IncludeDeleted {
		tx = tx.Unscoped()
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	items := make([]auth.User, 0, q.PageSize)
	err := tx.Order("created_at DESC").Order("id").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

// Get returns a user by ID. Soft-deleted users are reported as not found unless
// includeDeleted is set.
func (s *Service) Get(ctx context.Context, id string, includeDeleted bool) (*auth.User, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, apperr.NotFound("user not found")
	}

	user, err := cache.GetOrSet(ctx, s.users, id, 0, func(ctx context.Context) (auth.User, error) {
		return retry.Do(ctx, s.retry, func(ctx context.Context) (auth.User, error) {
			var u auth.User
			err := s.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&u).Error
			return u, database.Classify(err)
		})
	})
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get user: %w", err))
	}
	if user.IsDeleted() && !includeDeleted {
		return nil, apperr.NotFound("user not found")
	}
	return &user, nil
}

// Create adds an account on behalf of an admin.
func (s *Service) Create(ctx context.Context, in auth.CreateUserInput) (*auth.User, error) {
	user, err := s.auth.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.lists.Clear(ctx)
	s.logger.Info("User created", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

// Update applies a partial update. Changing the password signs the user out everywhere.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*auth.User, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Name != nil {
		changes["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		changes["email"] = auth.NormalizeEmail(*in.Email)
	}
	if in.Role != nil {
		changes["role"] = *in.Role
	}
	if in.EmailVerified != nil {
		changes["email_verified"] = *in.EmailVerified
	}
	if in.Password != nil {
		hash, err := s.auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		changes["password_hash"] = hash
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := s.update(ctx, id, changes); err != nil {
		return nil, err
	}
	if in.Password != nil {
		if _, err := s.auth.RevokeUserSessions(ctx, id); err != nil {
			return nil, err
		}
	} else {
		s.auth.ForgetUser(ctx, id)
	}
	return s.Get(ctx, id, false)
}

// Delete soft deletes a user and revokes their sessions.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return apperr.Validation("you cannot delete your own account", nil)
	}
	rows, err := retry.Do(ctx, s.retry, func(ctx context.Context) (int64, error) {
		res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&auth.User{})
		return res.RowsAffected, res.Error
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete user: %w", err))
	}
	if rows == 0 {
		return apperr.NotFound("user not found")
	}

	s.invalidate(ctx, id)
	if _, err := s.auth.RevokeUserSessions(ctx, id); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.String("user_id", id), zap.String("actor_id", actorID))
	return nil
}

// Restore undoes a soft delete.
func (s *Service) Restore(ctx context.Context, id string) (*auth.User, error) {
	rows, err := retry.Do(ctx, s.retry, func(ctx context.Context) (int64, error) {
		return database.Restore(ctx, s.db, &auth.User{}, id)
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("restore user: %w", err))
	}
	if rows == 0 {
		return nil, apperr.NotFound("deleted user not found")
	}

	s.invalidate(ctx, id)
	s.logger.Info("User restored", zap.String("user_id", id))
	return s.Get(ctx, id, false)
}

// Ban blocks a user from signing in and revokes their sessions.
func (s *Service) Ban(ctx context.Context, id, actorID string, in BanInput) (*auth.User, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	if id == actorID {
		return nil, apperr.Validation("you cannot ban your own account", nil)
	}
	if _, err := s.Get(ctx, id, false); err != nil {
		return nil, err
	}
	if err := s.update(ctx, id, map[string]any{"banned": true, "ban_reason": strings.TrimSpace(in.Reason)}); err != nil {
		return nil, err
	}
	if _, err := s.auth.RevokeUserSessions(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("User banned", zap.String("user_id", id), zap.String("actor_id", actorID))
	return s.Get(ctx, id, false)
}

// Unban lifts a ban.
func (s *Service) Unban(ctx context.Context, id string) (*auth.User, error) {
	if _, err := s.Get(ctx, id, false); err != nil {
		return nil, err
	}
	if err := s.update(ctx, id, map[string]any{"banned": false, "ban_reason": ""}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id, false)
}

// SetAvatar stores a new profile picture and removes the previous one.
func (s *Service) SetAvatar(ctx context.Context, id string, avatar Avatar) (*auth.User, error) {
	if s.storage == nil {
		return nil, apperr.New(apperr.KindUnavailable, "object storage is not configured")
	}
	if avatar.Size > MaxAvatarBytes {
		return nil, apperr.Validation("avatar too large", map[string]string{"avatar": "must be at most 2 MiB"})
	}

	user, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(avatar.Body, MaxAvatarBytes+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "failed to read avatar", err)
	}
	if len(data) > MaxAvatarBytes {
		return nil, apperr.Validation("avatar too large", map[string]string{"avatar": "must be at most 2 MiB"})
	}

	// The declared Content-Type is client input; the stored type comes from the bytes.
	contentType := mimetype.Detect(data).String()
	ext, ok := avatarTypes[contentType]
	if !ok {
		return nil, apperr.Validation("unsupported avatar type", map[string]string{"avatar": "must be a PNG, JPEG, WebP or GIF image"})
	}
	if avatar.ContentType != "" && avatar.ContentType != contentType {
		s.logger.Debug("Avatar type differs from declared type",
			zap.String("declared", avatar.ContentType), zap.String("detected", contentType))
	}

	object := path.Join(avatarDir, id, uuid.NewString()+ext)
	_, err = retry.Do(ctx, s.retry, func(ctx context.Context) (minio.UploadInfo, error) {
		return s.storage.PutObject(ctx, s.bucket, object, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to store avatar", err)
	}

	if err := s.update(ctx, id, map[string]any{"image": object}); err != nil {
		return nil, err
	}

	if user.Image != "" {
		if err := s.storage.RemoveObject(ctx, s.bucket, user.Image, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warn("Failed to remove previous avatar", zap.String("object", user.Image), zap.Error(err))
		}
	}
	s.auth.ForgetUser(ctx, id)
	s.logger.Info("Avatar updated", zap.String("user_id", id), zap.String("object", object))
	return s.Get(ctx, id, false)
}

// OpenAvatar streams the stored avatar of a user.
func (s *Service) OpenAvatar(ctx context.Context, id string) (io.ReadCloser, string, error) {
	if s.storage == nil {
		return nil, "", apperr.New(apperr.KindUnavailable, "object storage is not configured")
	}
	user, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, "", err
	}
	if user.Image == "" {
		return nil, "", apperr.NotFound("user has no avatar")
	}

	obj, err := s.storage.GetObject(ctx, s.bucket, user.Image, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindUnavailable, "failed to read avatar", err)
	}
	return obj, contentTypeFor(user.Image), nil
}

func contentTypeFor(object string) string {
	ext := path.Ext(object)
	for ct, e := range avatarTypes {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

func (s *Service) update(ctx context.Context, id string, changes map[string]any) error {
	err := retry.Run(ctx, s.retry, func(ctx context.Context) error {
		return database.Classify(s.db.WithContext(ctx).Model(&auth.User{}).Where("id = ?", id).Updates(changes).Error)
	})
	if database.IsDuplicate(err) {
		return apperr.Conflict("a user with this email already exists")
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("update user: %w", err))
	}
	s.invalidate(ctx, id)
	return nil
}

// invalidate drops the cached user and every cached list page.
func (s *Service) invalidate(ctx context.Context, id string) {
	s.users.Delete(ctx, id)
	s.lists.Clear(ctx)
}
