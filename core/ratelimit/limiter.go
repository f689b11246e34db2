package ratelimit

import (
	"context"
	"time"

	"admin-backend/core/cache"
)

// Record is the counter stored per client for the current window.
type Record struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"resetAt"`
}

// Result describes the state of a client's window after a hit.
type Result struct {
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Exceeded reports whether the hit went over the limit.
func (r Result) Exceeded() bool {
	return r.Count > r.Limit
}

// Limiter is a fixed-window counter kept in a cache namespace.
//
// Hit is a plain read-modify-write against the store, not an atomic increment:
// concurrent requests from one client may under-count. The cache wrapper never
// fails, so an unreachable store makes every hit look like the first of a window
// and the request is allowed.
type Limiter struct {
	store  *cache.Cache
	max    int
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a limiter allowing max hits per window and key.
func NewLimiter(store *cache.Cache, max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		max:    max,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Hit counts one request for key.
//
// A stored record whose ResetAt is still in the future is incremented. Otherwise,
// including the instant ResetAt is reached, the window restarts at 1. The record
// expires from the store when its window ends.
func (l *Limiter) Hit(ctx context.Context, key string) Result {
	now := l.now()

	var rec Record
	if l.store.Get(ctx, key, &rec) && now.Before(rec.ResetAt) {
		rec.Count++
	} else {
		rec = Record{Count: 1, ResetAt: now.Add(l.window)}
	}
	l.store.Set(ctx, key, rec, rec.ResetAt.Sub(now))

	remaining := l.max - rec.Count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Count:     rec.Count,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   rec.ResetAt,
	}
}

// Reset forgets the window of key.
func (l *Limiter) Reset(ctx context.Context, key string) {
	l.store.Delete(ctx, key)
}
