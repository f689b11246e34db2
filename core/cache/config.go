package cache

import "time"

// Config holds configuration for the cache wrapper.
type Config struct {
	// Backend selects the store (redis, memory).
	Backend string `mapstructure:"backend" default:"redis" validate:"oneof=redis memory"`
	// Prefix namespaces every key written by this service.
	Prefix string `mapstructure:"prefix" default:"admin" validate:"required"`
	// DefaultTTLSeconds is used when a caller passes a zero TTL.
	DefaultTTLSeconds int `mapstructure:"default_ttl_seconds" default:"300" validate:"gte=1"`
}

// RedisConfig holds configuration for the Redis connection.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password is the Redis AUTH password.
	Password string `mapstructure:"password" default:""`
	// DB is the logical database number.
	DB int `mapstructure:"db" default:"0" validate:"gte=0"`
	// TimeoutSeconds bounds dial, read and write operations.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"2" validate:"gte=1"`
}

// DefaultTTL returns the configured default TTL.
func (c Config) DefaultTTL() time.Duration {
	if c.DefaultTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}
