package health

import (
	"context"
	"time"

	"admin-backend/core/cache"
	"admin-backend/core/database"
	"admin-backend/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Check statuses.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDisabled = "disabled"
	StatusDegraded = "degraded"
)

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status    string `json:"status" example:"ok"`
	LatencyMs int64  `json:"latency_ms" example:"3"`
	Error     string `json:"error,omitempty"`
}

// Report is the readiness report.
type Report struct {
	Status string                 `json:"status" example:"ok"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service checks the dependencies of the application.
type Service struct {
	db      *gorm.DB
	cache   cache.Backend
	storage storage.Client
	bucket  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewService creates a health service. store may be nil when object storage is disabled.
func NewService(db *gorm.DB, backend cache.Backend, store storage.Client, bucket string, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{db: db, cache: backend, storage: store, bucket: bucket, timeout: timeout, logger: logger}
}

func (s *Service) run(ctx context.Context, check func(ctx context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	res := CheckResult{Status: StatusOK, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
	}
	return res
}

// CheckDatabase pings the database.
func (s *Service) CheckDatabase(ctx context.Context) CheckResult {
	return s.run(ctx, func(ctx context.Context) error {
		return database.Ping(ctx, s.db)
	})
}

// CheckCache pings the cache backend.
func (s *Service) CheckCache(ctx context.Context) CheckResult {
	if s.cache == nil {
		return CheckResult{Status: StatusDisabled}
	}
	return s.run(ctx, s.cache.Ping)
}

// CheckStorage verifies the upload bucket exists.
func (s *Service) CheckStorage(ctx context.Context) CheckResult {
	if s.storage == nil {
		return CheckResult{Status: StatusDisabled}
	}
	return s.run(ctx, func(ctx context.Context) error {
		exists, err := s.storage.BucketExists(ctx, s.bucket)
		if err != nil {
			return err
		}
		if !exists {
			return errBucketMissing(s.bucket)
		}
		return nil
	})
}

// Ready runs every check. A database failure makes the report "error"; a cache or
// storage failure makes it "degraded".
func (s *Service) Ready(ctx context.Context) Report {
	report := Report{
		Status: StatusOK,
		Checks: map[string]CheckResult{
			"database": s.CheckDatabase(ctx),
			"cache":    s.CheckCache(ctx),
			"storage":  s.CheckStorage(ctx),
		},
	}

	for name, res := range report.Checks {
		if res.Status != StatusError {
			continue
		}
		s.logger.Warn("Readiness check failed", zap.String("check", name), zap.String("error", res.Error))
		if name == "database" {
			report.Status = StatusError
		} else if report.Status == StatusOK {
			report.Status = StatusDegraded
		}
	}
	return report
}

type errBucketMissing string

func (e errBucketMissing) Error() string {
	return "bucket " + string(e) + " does not exist"
}
