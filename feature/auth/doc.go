// Package auth implements email and password accounts with cookie sessions.
//
// Passwords are hashed with bcrypt. A session is identified by a random 32-byte
// token sent to the browser in an HttpOnly cookie; the database only stores the
// token's SHA-256. Session lookups go through the "session" cache namespace, and
// a session older than the configured update age is extended on use.
//
// # Endpoints
//
// Mounted under /api/auth:
//   - POST /sign-up/email
//   - POST /sign-in/email
//   - POST /sign-out
//   - GET  /get-session
//
// RequireSession and RequireRole protect routes of other features.
package auth
