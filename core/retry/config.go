package retry

import "time"

// Config holds the retry schedule applied to outbound calls.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int `mapstructure:"max_attempts" default:"3" validate:"gte=1,lte=10"`
	// InitialIntervalMs is the delay before the first retry.
	InitialIntervalMs int `mapstructure:"initial_interval_ms" default:"100" validate:"gte=1"`
	// MaxIntervalMs caps the delay between retries.
	MaxIntervalMs int `mapstructure:"max_interval_ms" default:"2000" validate:"gte=1"`
	// TimeoutSeconds bounds every single attempt.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"5" validate:"gte=1"`
}

func (c Config) attempts() uint {
	if c.MaxAttempts <= 0 {
		return 1
	}
	return uint(c.MaxAttempts)
}

func (c Config) initialInterval() time.Duration {
	if c.InitialIntervalMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.InitialIntervalMs) * time.Millisecond
}

func (c Config) maxInterval() time.Duration {
	if c.MaxIntervalMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.MaxIntervalMs) * time.Millisecond
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
