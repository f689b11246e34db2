package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"admin-backend/core/cache"
	"admin-backend/core/database"
	"admin-backend/core/logger"
	"admin-backend/core/ratelimit"
	"admin-backend/core/retry"
	"admin-backend/core/server"
	"admin-backend/core/storage"
	"admin-backend/feature/auth"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Redis holds the connection settings of the cache store.
	Redis cache.RedisConfig `mapstructure:"redis"`
	// Cache holds the cache wrapper settings.
	Cache cache.Config `mapstructure:"cache"`
	// RateLimit holds the fixed-window limiter settings.
	RateLimit ratelimit.Config `mapstructure:"ratelimit"`
	// Auth holds session and cookie settings.
	Auth auth.Config `mapstructure:"auth"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Retry holds the backoff schedule for outbound calls.
	Retry retry.Config `mapstructure:"retry"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks every `validate` tag and reports all failing keys at once.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s (%s)", envKey(fe.Namespace()), describe(fe)))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
}

// envKey turns "Config.server.port" into "SERVER_PORT".
func envKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.ToUpper(strings.ReplaceAll(namespace, ".", "_"))
}

func describe(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv.
		// Viper decodes weakly, so "true" and "10" land in bool and int fields.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
