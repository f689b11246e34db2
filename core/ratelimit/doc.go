// Package ratelimit implements the per-IP request rate limiter.
//
// # Algorithm
//
// A fixed window counter: the first request of a client stores {count: 1, resetAt:
// now+window} in the "ratelimit" cache namespace with a TTL of one window. Later requests
// increment the count until resetAt, at which point the window restarts.
//
// # Middleware
//
// Middleware keys the limiter on the client IP, sets X-RateLimit-Limit,
// X-RateLimit-Remaining and X-RateLimit-Reset, and rejects requests over the limit
// with 429 and Retry-After. Paths listed in SkipPaths (health checks, metrics,
// Swagger) are never counted.
//
// # Failure mode
//
// The store is the cache wrapper, which never fails. When Redis is unreachable every
// request is treated as the first of its window, so the limiter fails open.
package ratelimit
