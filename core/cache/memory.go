package cache

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryBackend implements Backend in process memory. It is used when no Redis server
// is configured (single instance deployments, tests, the CLI).
type MemoryBackend struct {
	c *ttlcache.Cache[string, []byte]
}

// NewMemoryBackend creates a backend and starts its expiry loop.
func NewMemoryBackend() *MemoryBackend {
	c := ttlcache.New[string, []byte](
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go c.Start()
	return &MemoryBackend{c: c}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	item := b.c.Get(key)
	if item == nil || item.IsExpired() {
		return nil, ErrNotFound
	}
	val := item.Value()
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	b.c.Set(key, cp, ttl)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		b.c.Delete(k)
	}
	return nil
}

func (b *MemoryBackend) DeletePrefix(_ context.Context, prefix string) error {
	for _, k := range b.c.Keys() {
		if strings.HasPrefix(k, prefix) {
			b.c.Delete(k)
		}
	}
	return nil
}

func (b *MemoryBackend) Ping(context.Context) error { return nil }

func (b *MemoryBackend) Close() error {
	b.c.Stop()
	return nil
}
