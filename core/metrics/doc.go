// Package metrics exposes Prometheus counters for the HTTP layer, the cache
// wrapper and the rate limiter, served on GET /metrics.
package metrics
