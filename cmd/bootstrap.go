package cmd

import (
	"context"
	"fmt"

	"admin-backend/core/cache"
	"admin-backend/core/config"
	"admin-backend/core/database"
	"admin-backend/core/logger"
	"admin-backend/core/metrics"
	"admin-backend/core/retry"
	"admin-backend/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// loadConfig loads and validates the configuration from the working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the root logger and installs it globally.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)
	return logg, nil
}

// connectDatabase opens the database, retrying while it is not reachable yet.
func connectDatabase(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*gorm.DB, error) {
	attempt := 0
	db, err := retry.Do(ctx, cfg.Retry, func(context.Context) (*gorm.DB, error) {
		attempt++
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Warn("Database connection attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return db, err
	})
	if err != nil {
		return nil, err
	}
	logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	return db, nil
}

// newCache builds the root cache over the configured backend. A Redis server that
// cannot be reached at startup is logged, not fatal: the cache fails open.
func newCache(ctx context.Context, cfg *config.Config, logg *zap.Logger, m *metrics.Metrics) *cache.Cache {
	var backend cache.Backend
	switch cfg.Cache.Backend {
	case "memory":
		backend = cache.NewMemoryBackend()
	default:
		backend = cache.NewRedisBackend(cache.NewRedisClient(cfg.Redis))
		err := retry.Run(ctx, cfg.Retry, backend.Ping)
		if err != nil {
			logg.Warn("Redis is not reachable, cache calls will miss until it is", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}
	logg.Info("Cache initialized", zap.String("backend", cfg.Cache.Backend), zap.String("prefix", cfg.Cache.Prefix))
	return cache.New(backend, cfg.Cache, logg, m)
}

// newStorage returns the object storage client, or nil when storage is disabled.
func newStorage(ctx context.Context, cfg *config.Config, logg *zap.Logger) storage.Client {
	if !cfg.Storage.Enabled {
		logg.Info("Object storage disabled")
		return nil
	}
	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		logg.Warn("Failed to create storage client", zap.Error(err))
		return nil
	}
	err = retry.Run(ctx, cfg.Retry, func(ctx context.Context) error {
		return storage.EnsureBucket(ctx, store, cfg.Storage.Bucket, cfg.Storage.Region)
	})
	if err != nil {
		logg.Warn("Upload bucket is not available", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
	}
	return store
}
