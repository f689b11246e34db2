package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"admin-backend/core/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, max int, window time.Duration) (*Limiter, *clock) {
	t.Helper()
	b := cache.NewMemoryBackend()
	t.Cleanup(func() { b.Close() })
	store := cache.New(b, cache.Config{Prefix: "test"}, zap.NewNop(), nil).Namespace("ratelimit")

	clk := &clock{t: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	return NewLimiter(store, max, window, WithClock(clk.now)), clk
}

func TestLimiter_CountsWithinWindow(t *testing.T) {
	l, clk := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()
	start := clk.t

	for i := 1; i <= 4; i++ {
		res := l.Hit(ctx, "1.2.3.4")
		assert.Equal(t, i, res.Count)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, start.Add(time.Minute), res.ResetAt)
		assert.Equal(t, i > 3, res.Exceeded())
		clk.advance(time.Second)
	}

	res := l.Hit(ctx, "1.2.3.4")
	assert.Equal(t, 0, res.Remaining)
}

func TestLimiter_ResetsExactlyAtWindowBoundary(t *testing.T) {
	l, clk := newTestLimiter(t, 10, time.Minute)
	ctx := context.Background()
	start := clk.t

	l.Hit(ctx, "k")
	clk.advance(time.Minute - time.Nanosecond)
	res := l.Hit(ctx, "k")
	assert.Equal(t, 2, res.Count, "one nanosecond before the boundary the window is still open")

	clk.t = start.Add(time.Minute)
	res = l.Hit(ctx, "k")
	assert.Equal(t, 1, res.Count, "the window restarts at the boundary")
	assert.Equal(t, start.Add(2*time.Minute), res.ResetAt)
	assert.Equal(t, 9, res.Remaining)
}

func TestLimiter_RecordExpiresAtResetAt(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := cache.New(cache.NewRedisBackend(client), cache.Config{Prefix: "test"}, zap.NewNop(), nil).Namespace("ratelimit")

	clk := &clock{t: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(store, 10, time.Minute, WithClock(clk.now))
	ctx := context.Background()

	l.Hit(ctx, "k")
	assert.Equal(t, time.Minute, mr.TTL(`test:ratelimit:"k"`))

	clk.advance(20 * time.Second)
	res := l.Hit(ctx, "k")
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 40*time.Second, mr.TTL(`test:ratelimit:"k"`))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	assert.False(t, l.Hit(ctx, "a").Exceeded())
	assert.True(t, l.Hit(ctx, "a").Exceeded())
	assert.False(t, l.Hit(ctx, "b").Exceeded())

	l.Reset(ctx, "a")
	assert.Equal(t, 1, l.Hit(ctx, "a").Count)
}

type downBackend struct{}

func (downBackend) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (downBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (downBackend) Delete(context.Context, ...string) error { return errors.New("down") }
func (downBackend) DeletePrefix(context.Context, string) error { return errors.New("down") }
func (downBackend) Ping(context.Context) error { return errors.New("down") }
func (downBackend) Close() error { return nil }

func TestLimiter_StoreFailureAllows(t *testing.T) {
	store := cache.New(downBackend{}, cache.Config{Prefix: "test"}, zap.NewNop(), nil)
	l := NewLimiter(store, 1, time.Minute)

	for i := 0; i < 5; i++ {
		assert.False(t, l.Hit(context.Background(), "k").Exceeded())
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Unix(1000, 0)
	assert.Equal(t, 30, retryAfterSeconds(now.Add(30*time.Second), now))
	assert.Equal(t, 1, retryAfterSeconds(now.Add(200*time.Millisecond), now))
	assert.Equal(t, 2, retryAfterSeconds(now.Add(1500*time.Millisecond), now))
	assert.Equal(t, 1, retryAfterSeconds(now.Add(-time.Second), now))
}

func TestIsSkipped(t *testing.T) {
	skip := Config{SkipPaths: "/health, /swagger/*"}.skipList()

	assert.True(t, isSkipped("/health", skip))
	assert.True(t, isSkipped("/swagger/index.html", skip))
	assert.False(t, isSkipped("/healthz", skip))
	assert.False(t, isSkipped("/api/users", skip))
}
