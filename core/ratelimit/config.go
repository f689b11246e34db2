package ratelimit

import (
	"strings"
	"time"
)

// Config holds configuration for the request rate limiter.
type Config struct {
	// Enabled toggles the middleware.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Max is the number of requests a client may make per window.
	Max int `mapstructure:"max" default:"100" validate:"gte=1"`
	// WindowSeconds is the length of the fixed window.
	WindowSeconds int `mapstructure:"window_seconds" default:"60" validate:"gte=1"`
	// SkipPaths is a comma separated list of paths that are never limited.
	// Entries ending in "/*" match by prefix.
	SkipPaths string `mapstructure:"skip_paths" default:"/health,/health/ready,/metrics,/swagger/*"`
	// TrustProxy makes the limiter key on X-Forwarded-For / X-Real-IP.
	TrustProxy bool `mapstructure:"trust_proxy" default:"true"`
}

// Window returns the window duration.
func (c Config) Window() time.Duration {
	if c.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.WindowSeconds) * time.Second
}

func (c Config) skipList() []string {
	var out []string
	for _, p := range strings.Split(c.SkipPaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
