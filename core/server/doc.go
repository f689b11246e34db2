// Package server holds the HTTP server configuration and constants.
//
// While the main application entry point handles the server startup, this package
// defines the configuration structures and valid values for server settings,
// such as the deployment environment and the CORS origins of the admin frontend.
//
// # Configuration
//
// The Config struct defines the HTTP port, the environment, the allowed origins and
// the per-request timeout applied to outbound calls made by handlers.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server settings
// and by the start command to configure Fiber.
package server
