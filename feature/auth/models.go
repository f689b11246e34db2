package auth

import (
	"time"

	"admin-backend/core/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles understood by RequireRole.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account that can sign in.
type User struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	Email         string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name          string `gorm:"size:255;not null" json:"name"`
	Role          string `gorm:"size:16;not null;default:user" json:"role"`
	PasswordHash  string `gorm:"size:255;not null" json:"-"`
	Image         string `gorm:"size:512" json:"image,omitempty"`
	EmailVerified bool   `gorm:"not null;default:false" json:"email_verified"`
	Banned        bool   `gorm:"not null;default:false" json:"banned"`
	BanReason     string `gorm:"size:255" json:"ban_reason,omitempty"`
	database.Model
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is a signed-in browser. Only the SHA-256 of the token is stored.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TokenHash string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	UserID    string    `gorm:"index;size:36;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	IPAddress string    `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent string    `gorm:"size:512" json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Models lists the tables owned by this feature, in migration order.
func Models() []any {
	return []any{&User{}, &Session{}}
}
