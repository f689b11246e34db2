// Package cache provides a namespaced cache wrapper that never fails its callers.
//
// # Backends
//
// A Backend is the raw store: RedisBackend (go-redis) for shared deployments and
// MemoryBackend (ttlcache) for single instances and tests. Backends return errors.
//
// # Cache
//
// Cache sits on top of a Backend. Keys are JSON encoded and prefixed with the
// namespace path, values are JSON encoded. Store or encoding failures are logged,
// counted and turned into a miss (Get) or false (Set, Delete, Clear), so a broken
// cache degrades to reading the database instead of failing the request.
//
// # Cache-aside
//
// GetOrSet reads through the cache and computes missing values once per key, using
// singleflight to collapse concurrent misses:
//
//	user, err := cache.GetOrSet(ctx, users, id, time.Minute, func(ctx context.Context) (*User, error) {
//	    return repo.FindByID(ctx, id)
//	})
//
// Invalidation is explicit: writers call Delete for single entries and Clear for
// whole namespaces such as list pages.
package cache
