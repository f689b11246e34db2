package server

import (
	"strings"
	"time"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080" validate:"required,numeric"`
	// Environment is the deployment environment (development, production, test).
	Environment string `mapstructure:"environment" default:"development" validate:"oneof=development production test"`
	// AllowedOrigins is a comma separated list of origins allowed by CORS (the admin frontend).
	AllowedOrigins string `mapstructure:"allowed_origins" default:"http://localhost:3000"`
	// RequestTimeoutSeconds bounds the time a handler may spend on outbound calls.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" default:"15" validate:"gte=1"`
	// BodyLimitMB is the maximum accepted request body size.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"8" validate:"gte=1"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Origins splits AllowedOrigins into a trimmed list, skipping empty entries.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// RequestTimeout returns the per-request deadline.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
