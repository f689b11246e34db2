// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - RequestID: Assigns a unique request ID to every incoming request (or keeps the one
//     set by a proxy), injecting it into the context and response headers for tracing.
//   - NoCache: Sets response headers that forbid browsers and proxies from caching
//     API responses.
//
// Rate limiting lives in core/ratelimit and session checks in feature/auth; both
// are registered in the same chain by the start command.
package middleware
