// Package config provides configuration management for the admin backend.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file (loaded with godotenv). Every key is declared once, on the
// partial config struct that owns it, through `mapstructure` and `default` tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP port, environment, CORS origins, timeouts
//   - Database: driver (postgres, mysql, sqlite) and connection details
//   - Redis / Cache: cache store address and namespacing
//   - RateLimit: fixed window size, request budget and skipped paths
//   - Auth: session cookie and password settings
//   - Storage: S3/MinIO credentials and bucket settings
//   - Retry: backoff schedule for outbound calls
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
