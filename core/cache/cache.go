package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"admin-backend/core/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache is a namespaced view over a Backend.
//
// Keys are JSON encoded and prefixed with the namespace path, for example
// Namespace("users").Get(ctx, []any{"page", 1}, &v) reads `admin:users:["page",1]`.
// None of its operations fail: backend and encoding errors are logged and reported
// as a miss or as false.
type Cache struct {
	backend    Backend
	prefix     string
	namespace  string
	defaultTTL time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
	sf         *singleflight.Group
}

// New creates the root cache. Use Namespace to derive per-feature caches.
func New(backend Backend, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "admin"
	}
	return &Cache{
		backend:    backend,
		prefix:     prefix,
		defaultTTL: cfg.DefaultTTL(),
		logger:     logger,
		metrics:    m,
		sf:         &singleflight.Group{},
	}
}

// Namespace returns a cache whose keys live under name, nested below the receiver's namespace.
func (c *Cache) Namespace(name string) *Cache {
	ns := *c
	ns.prefix = c.prefix + ":" + name
	if c.namespace == "" {
		ns.namespace = name
	} else {
		ns.namespace = c.namespace + ":" + name
	}
	return &ns
}

// Name returns the namespace path, empty for the root cache.
func (c *Cache) Name() string {
	return c.namespace
}

// Backend exposes the underlying store, for health checks.
func (c *Cache) Backend() Backend {
	return c.backend
}

func (c *Cache) fullKey(key any) (string, error) {
	raw, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	return c.prefix + ":" + string(raw), nil
}

func (c *Cache) metricName() string {
	if c.namespace == "" {
		return "root"
	}
	return c.namespace
}

func (c *Cache) warn(msg string, key any, err error) {
	c.logger.Warn(msg,
		zap.String("namespace", c.metricName()),
		zap.Any("key", key),
		zap.Error(err))
}

// Get decodes the value stored under key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key any, dest any) bool {
	full, err := c.fullKey(key)
	if err != nil {
		c.warn("Cache key encoding failed", key, err)
		c.metrics.CacheResult(c.metricName(), "error")
		return false
	}
	return c.get(ctx, full, key, dest)
}

func (c *Cache) get(ctx context.Context, full string, key any, dest any) bool {
	raw, err := c.backend.Get(ctx, full)
	if errors.Is(err, ErrNotFound) {
		c.metrics.CacheResult(c.metricName(), "miss")
		return false
	}
	if err != nil {
		c.warn("Cache get failed", key, err)
		c.metrics.CacheResult(c.metricName(), "error")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.warn("Cache value decoding failed", key, err)
		c.metrics.CacheResult(c.metricName(), "error")
		return false
	}
	c.metrics.CacheResult(c.metricName(), "hit")
	return true
}

// Set stores value under key for ttl (the default TTL when ttl is zero) and
// reports whether the write succeeded.
func (c *Cache) Set(ctx context.Context, key any, value any, ttl time.Duration) bool {
	full, err := c.fullKey(key)
	if err != nil {
		c.warn("Cache key encoding failed", key, err)
		return false
	}
	return c.set(ctx, full, key, value, ttl)
}

func (c *Cache) set(ctx context.Context, full string, key any, value any, ttl time.Duration) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		c.warn("Cache value encoding failed", key, err)
		return false
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.backend.Set(ctx, full, raw, ttl); err != nil {
		c.warn("Cache set failed", key, err)
		return false
	}
	return true
}

// Delete removes key and reports whether the backend accepted the delete.
func (c *Cache) Delete(ctx context.Context, key any) bool {
	full, err := c.fullKey(key)
	if err != nil {
		c.warn("Cache key encoding failed", key, err)
		return false
	}
	if err := c.backend.Delete(ctx, full); err != nil {
		c.warn("Cache delete failed", key, err)
		return false
	}
	return true
}

// Clear removes every key of the namespace, nested namespaces included.
func (c *Cache) Clear(ctx context.Context) bool {
	if err := c.backend.DeletePrefix(ctx, c.prefix+":"); err != nil {
		c.warn("Cache clear failed", c.prefix, err)
		return false
	}
	return true
}

// computeTimeout bounds a shared compute once it is detached from the caller that started it.
const computeTimeout = 30 * time.Second

// GetOrSet implements cache-aside reads.
//
// A warm key is returned without calling compute. On a miss, compute runs once per key
// even when many callers miss concurrently, and its result is stored for ttl.
// Errors from compute are returned and nothing is cached.
//
// The shared compute does not inherit the cancellation of the caller that started it.
// Each caller stops waiting when its own ctx is done.
func GetOrSet[T any](ctx context.Context, c *Cache, key any, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	full, err := c.fullKey(key)
	if err != nil {
		c.warn("Cache key encoding failed", key, err)
		return compute(ctx)
	}

	var cached T
	if c.get(ctx, full, key, &cached) {
		return cached, nil
	}

	flight := c.sf.DoChan(full, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		// Another caller may have filled the key while we waited for the flight.
		var again T
		if raw, err := c.backend.Get(fctx, full); err == nil && json.Unmarshal(raw, &again) == nil {
			return again, nil
		}

		val, err := compute(fctx)
		if err != nil {
			return nil, err
		}
		c.set(fctx, full, key, val, ttl)
		return val, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return zero, res.Err
		}
		val, _ := res.Val.(T)
		return val, nil
	}
}
