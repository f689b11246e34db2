// Package apperr defines tagged failure values and their mapping to HTTP responses.
//
// Services return *Error values carrying a Kind (validation, not_found, conflict, ...).
// Handlers simply return them, and ErrorHandler, installed as the Fiber error handler,
// maps each Kind to one fixed status code and a JSON body:
//
//	{"error": "not_found", "message": "user not found"}
//
// Untagged errors are treated as internal failures: they are logged with the request ID
// and answered with a generic 500 message.
package apperr
