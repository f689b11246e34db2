package auth

import "time"

// Config holds session and cookie settings.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `mapstructure:"cookie_name" default:"admin_session" validate:"required"`
	// SessionTTLHours is the lifetime of a session.
	SessionTTLHours int `mapstructure:"session_ttl_hours" default:"168" validate:"gte=1"`
	// UpdateAgeHours is how old a session must be before a request extends it.
	UpdateAgeHours int `mapstructure:"update_age_hours" default:"24" validate:"gte=0"`
	// SecureCookie sets the Secure attribute on the session cookie.
	SecureCookie bool `mapstructure:"secure_cookie" default:"false"`
	// AllowSignUp enables the public sign-up endpoint.
	AllowSignUp bool `mapstructure:"allow_sign_up" default:"true"`
	// MinPasswordLength is enforced on sign-up and on admin-created accounts.
	MinPasswordLength int `mapstructure:"min_password_length" default:"8" validate:"gte=6,lte=72"`
	// BcryptCost is the bcrypt work factor.
	BcryptCost int `mapstructure:"bcrypt_cost" default:"10" validate:"gte=4,lte=31"`
}

// SessionTTL returns the session lifetime.
func (c Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// UpdateAge returns the minimum session age before it gets extended.
func (c Config) UpdateAge() time.Duration {
	return time.Duration(c.UpdateAgeHours) * time.Hour
}
