package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"admin-backend/core/apperr"
	"admin-backend/core/cache"
	"admin-backend/core/database"
	"admin-backend/core/retry"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenBytes = 32

var errInvalidCredentials = apperr.Unauthorized("invalid email or password")

// SignUpInput is the body of the email sign-up endpoint.
type SignUpInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// SignInInput is the body of the email sign-in endpoint.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUserInput describes a new account. Used by sign-up, the admin API and the CLI.
type CreateUserInput struct {
	Email         string `json:"email" validate:"required,email,max=255"`
	Name          string `json:"name" validate:"required,max=255"`
	Password      string `json:"password" validate:"required,max=72"`
	Role          string `json:"role" validate:"omitempty,oneof=admin user"`
	EmailVerified bool   `json:"email_verified"`
}

// Client identifies the browser creating a session.
type Client struct {
	IPAddress string
	UserAgent string
}

// SessionView is an authenticated session together with its user.
type SessionView struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
	// Refreshed is set when the request extended the session expiry.
	Refreshed bool `json:"-"`
}

// SignInResult is returned on a successful sign-in or sign-up.
type SignInResult struct {
	Token string
	SessionView
}

// Service implements accounts and cookie sessions.
type Service struct {
	db       *gorm.DB
	sessions *cache.Cache
	cfg      Config
	retry    retry.Config
	logger   *zap.Logger
	now      func() time.Time
	// dummyHash keeps failed sign-ins for unknown emails as slow as wrong passwords.
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the auth service. Session lookups are cached in the "session"
// namespace of c.
func NewService(db *gorm.DB, c *cache.Cache, cfg Config, rcfg retry.Config, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		db:       db,
		sessions: c.Namespace("session"),
		cfg:      cfg,
		retry:    rcfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("invalid-password-placeholder"), s.cost())
	return s
}

// Config returns the settings the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) cost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.BcryptCost
}

// maxPasswordBytes is the bcrypt input limit. It counts bytes, not characters.
const maxPasswordBytes = 72

// HashPassword returns the bcrypt hash of password.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < s.cfg.MinPasswordLength {
		return "", apperr.Validation("request validation failed", map[string]string{
			"password": fmt.Sprintf("must be at least %d characters", s.cfg.MinPasswordLength),
		})
	}
	if len(password) > maxPasswordBytes {
		return "", apperr.Validation("request validation failed", map[string]string{
			"password": fmt.Sprintf("must be at most %d bytes", maxPasswordBytes),
		})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(hash), nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new account. Emails are unique across live and soft-deleted users.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = RoleUser
	}
	user := &User{
		Email:         NormalizeEmail(in.Email),
		Name:          strings.TrimSpace(in.Name),
		Role:          role,
		PasswordHash:  hash,
		EmailVerified: in.EmailVerified,
	}

	err = retry.Run(ctx, s.retry, func(ctx context.Context) error {
		var count int64
		if err := s.db.WithContext(ctx).Unscoped().Model(&User{}).
			Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return database.Classify(err)
		}
		if count > 0 {
			return retry.Permanent(gorm.ErrDuplicatedKey)
		}
		return database.Classify(s.db.WithContext(ctx).Create(user).Error)
	})
	if database.IsDuplicate(err) {
		return nil, apperr.Conflict("a user with this email already exists")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	return user, nil
}

// SignUp creates a regular user and signs them in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput, client Client) (*SignInResult, error) {
	if !s.cfg.AllowSignUp {
		return nil, apperr.Forbidden("sign-up is disabled")
	}
	user, err := s.CreateUser(ctx, CreateUserInput{
		Email:    in.Email,
		Name:     in.Name,
		Password: in.Password,
		Role:     RoleUser,
	})
	if err != nil {
		return nil, err
	}
	return s.createSession(ctx, *user, client)
}

// SignIn checks the credentials and opens a session.
//
// Unknown emails and wrong passwords fail with the same error.
func (s *Service) SignIn(ctx context.Context, in SignInInput, client Client) (*SignInResult, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}

	user, err := retry.Do(ctx, s.retry, func(ctx context.Context) (User, error) {
		var u User
		err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(in.Email)).First(&u).Error
		return u, database.Classify(err)
	})
	if database.IsNotFound(err) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, errInvalidCredentials
	}
	if user.Banned {
		return nil, apperr.Forbidden("this account has been banned")
	}

	return s.createSession(ctx, user, client)
}

func (s *Service) createSession(ctx context.Context, user User, client Client) (*SignInResult, error) {
	token, err := newToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now()
	session := Session{
		TokenHash: HashToken(token),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.SessionTTL()),
		IPAddress: client.IPAddress,
		UserAgent: truncate(client.UserAgent, 512),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = retry.Run(ctx, s.retry, func(ctx context.Context) error {
		return database.Classify(s.db.WithContext(ctx).Create(&session).Error)
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create session: %w", err))
	}

	s.logger.Info("Session created", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	return &SignInResult{Token: token, SessionView: SessionView{Session: session, User: user}}, nil
}

// GetSession resolves a session token.
//
// Expired sessions are deleted and rejected. A session older than the configured
// update age is extended to a full TTL and reported as Refreshed.
func (s *Service) GetSession(ctx context.Context, token string) (*SessionView, error) {
	if token == "" {
		return nil, apperr.Unauthorized("not signed in")
	}
	hash := HashToken(token)

	view, err := cache.GetOrSet(ctx, s.sessions, hash, 0, func(ctx context.Context) (SessionView, error) {
		return s.loadSession(ctx, hash)
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !now.Before(view.Session.ExpiresAt) {
		s.deleteSessions(ctx, []string{hash}, "token_hash = ?", hash)
		return nil, apperr.Unauthorized("session expired")
	}
	if view.User.Banned {
		return nil, apperr.Unauthorized("not signed in")
	}

	ttl := s.cfg.SessionTTL()
	issuedAt := view.Session.ExpiresAt.Add(-ttl)
	if !now.Before(issuedAt.Add(s.cfg.UpdateAge())) {
		s.extend(ctx, hash, &view, now.Add(ttl), now)
	}
	return &view, nil
}

func (s *Service) loadSession(ctx context.Context, hash string) (SessionView, error) {
	return retry.Do(ctx, s.retry, func(ctx context.Context) (SessionView, error) {
		var view SessionView
		err := s.db.WithContext(ctx).Where("token_hash = ?", hash).First(&view.Session).Error
		if database.IsNotFound(err) {
			return view, retry.Permanent(apperr.Unauthorized("not signed in"))
		}
		if err != nil {
			return view, err
		}
		err = s.db.WithContext(ctx).Where("id = ?", view.Session.UserID).First(&view.User).Error
		if database.IsNotFound(err) {
			return view, retry.Permanent(apperr.Unauthorized("not signed in"))
		}
		return view, err
	})
}

func (s *Service) extend(ctx context.Context, hash string, view *SessionView, expiresAt, now time.Time) {
	err := retry.Run(ctx, s.retry, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Model(&Session{}).
			Where("id = ?", view.Session.ID).
			Updates(map[string]any{"expires_at": expiresAt, "updated_at": now}).Error
	})
	if err != nil {
		s.logger.Warn("Session extension failed", zap.String("session_id", view.Session.ID), zap.Error(err))
		return
	}
	view.Session.ExpiresAt = expiresAt
	view.Session.UpdatedAt = now
	view.Refreshed = true
	s.sessions.Set(ctx, hash, view, 0)
}

// SignOut deletes the session identified by token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	hash := HashToken(token)
	if err := s.deleteSessions(ctx, []string{hash}, "token_hash = ?", hash); err != nil {
		return apperr.Internal(fmt.Errorf("delete session: %w", err))
	}
	return nil
}

// RevokeUserSessions signs a user out everywhere and returns the number of sessions removed.
func (s *Service) RevokeUserSessions(ctx context.Context, userID string) (int, error) {
	hashes, err := s.sessionHashes(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("list sessions: %w", err))
	}
	if err := s.deleteSessions(ctx, hashes, "user_id = ?", userID); err != nil {
		return 0, apperr.Internal(fmt.Errorf("delete sessions: %w", err))
	}
	if len(hashes) > 0 {
		s.logger.Info("User sessions revoked", zap.String("user_id", userID), zap.Int("count", len(hashes)))
	}
	return len(hashes), nil
}

// ForgetUser drops the cached copies of a user's sessions so the next request
// reloads the user row. Call it after changing the user.
func (s *Service) ForgetUser(ctx context.Context, userID string) {
	hashes, err := s.sessionHashes(ctx, userID)
	if err != nil {
		s.logger.Warn("Session cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	for _, h := range hashes {
		s.sessions.Delete(ctx, h)
	}
}

func (s *Service) sessionHashes(ctx context.Context, userID string) ([]string, error) {
	return retry.Do(ctx, s.retry, func(ctx context.Context) ([]string, error) {
		var hashes []string
		err := s.db.WithContext(ctx).Model(&Session{}).Where("user_id = ?", userID).Pluck("token_hash", &hashes).Error
		return hashes, err
	})
}

func (s *Service) deleteSessions(ctx context.Context, hashes []string, query string, args ...any) error {
	err := retry.Run(ctx, s.retry, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Where(query, args...).Delete(&Session{}).Error
	})
	for _, h := range hashes {
		s.sessions.Delete(ctx, h)
	}
	return err
}

// PurgeExpired deletes sessions whose expiry has passed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// HashToken returns the hex SHA-256 of a session token. Only hashes are stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
