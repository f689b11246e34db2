package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Backend when a key does not exist or has expired.
var ErrNotFound = errors.New("cache: key not found")

// Backend is the key-value store behind Cache. Unlike Cache, backends report errors.
type Backend interface {
	// Get returns the raw value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Ping verifies connectivity to the store.
	Ping(ctx context.Context) error
	// Close releases the resources of the backend.
	Close() error
}
