// Package health exposes liveness and readiness probes.
//
//   - GET /health answers as long as the process serves requests.
//   - GET /health/ready checks the database, the cache backend and the upload bucket.
//
// Readiness fails with 503 only when the database is down. The cache degrades to
// misses and avatar uploads are optional, so their failures are reported as "degraded".
package health
