// Package retry applies one fixed exponential retry schedule to outbound calls
// (database, cache, object storage).
//
// It wraps cenkalti/backoff so callers only deal with a context and a Config:
//
//	db, err := retry.Do(ctx, cfg.Retry, func(ctx context.Context) (*gorm.DB, error) {
//	    return database.Connect(cfg.Database)
//	})
package retry
