package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"admin-backend/core/apperr"
	"admin-backend/core/cache"
	"admin-backend/core/database"
	"admin-backend/core/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() Config {
	return Config{
		CookieName:        "admin_session",
		SessionTTLHours:   24,
		UpdateAgeHours:    1,
		AllowSignUp:       true,
		MinPasswordLength: 8,
		BcryptCost:        bcrypt.MinCost,
	}
}

func testRetry() retry.Config {
	return retry.Config{MaxAttempts: 1, InitialIntervalMs: 1, MaxIntervalMs: 1, TimeoutSeconds: 5}
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, Models()...))
	return db
}

func setupCache(t *testing.T) *cache.Cache {
	t.Helper()
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })
	return cache.New(backend, cache.Config{Prefix: "test", DefaultTTLSeconds: 300}, nil, nil)
}

func setupService(t *testing.T, cfg Config) (*Service, *gorm.DB, *clock) {
	t.Helper()
	db := setupDB(t)
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(db, setupCache(t), cfg, testRetry(), nil, WithClock(clk.now))
	return svc, db, clk
}

func createUser(t *testing.T, svc *Service, email, role string) *User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    email,
		Name:     "Test User",
		Password: "correct-horse",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func signIn(t *testing.T, svc *Service, email string) *SignInResult {
	t.Helper()
	res, err := svc.SignIn(context.Background(), SignInInput{Email: email, Password: "correct-horse"}, Client{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	return res
}

func TestCreateUser(t *testing.T) {
	svc, db, _ := setupService(t, testConfig())
	ctx := context.Background()

	u := createUser(t, svc, "  Ann@Example.COM ", "")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")))

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, CreateUserInput{Email: "ANN@example.com", Name: "Other", Password: "another-pass"})
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("SoftDeletedEmailStaysTaken", func(t *testing.T) {
		gone := createUser(t, svc, "gone@example.com", "")
		require.NoError(t, db.Delete(&User{}, "id = ?", gone.ID).Error)

		_, err := svc.CreateUser(ctx, CreateUserInput{Email: "gone@example.com", Name: "Again", Password: "another-pass"})
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("ShortPassword", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, CreateUserInput{Email: "bob@example.com", Name: "Bob", Password: "short"})
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Contains(t, appErr.Fields, "password")
	})

	t.Run("InvalidRole", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, CreateUserInput{Email: "eve@example.com", Name: "Eve", Password: "long-enough", Role: "root"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestSignUp(t *testing.T) {
	t.Run("OpensSession", func(t *testing.T) {
		svc, _, _ := setupService(t, testConfig())
		res, err := svc.SignUp(context.Background(), SignUpInput{Email: "new@example.com", Name: "New", Password: "long-enough"}, Client{})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, RoleUser, res.User.Role)
	})

	t.Run("Disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.AllowSignUp = false
		svc, _, _ := setupService(t, cfg)

		_, err := svc.SignUp(context.Background(), SignUpInput{Email: "new@example.com", Name: "New", Password: "long-enough"}, Client{})
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
	})

	t.Run("MultibytePasswordOverBcryptLimit", func(t *testing.T) {
		svc, _, _ := setupService(t, testConfig())
		// 40 characters, 80 bytes.
		_, err := svc.SignUp(context.Background(), SignUpInput{Email: "new@example.com", Name: "New", Password: strings.Repeat("é", 40)}, Client{})
		require.True(t, apperr.Is(err, apperr.KindValidation))

		var appErr *apperr.Error
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Fields, "password")
	})
}

func TestHashPassword(t *testing.T) {
	svc, _, _ := setupService(t, testConfig())

	_, err := svc.HashPassword(strings.Repeat("a", maxPasswordBytes))
	assert.NoError(t, err)

	_, err = svc.HashPassword(strings.Repeat("a", maxPasswordBytes+1))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.HashPassword("short")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSignIn(t *testing.T) {
	svc, db, clk := setupService(t, testConfig())
	ctx := context.Background()
	createUser(t, svc, "ann@example.com", RoleAdmin)

	t.Run("StoresOnlyTokenHash", func(t *testing.T) {
		res := signIn(t, svc, "ANN@example.com")
		assert.Len(t, res.Token, 43)
		assert.True(t, res.Session.ExpiresAt.Equal(clk.t.Add(24*time.Hour)))

		var stored Session
		require.NoError(t, db.First(&stored, "id = ?", res.Session.ID).Error)
		assert.Equal(t, HashToken(res.Token), stored.TokenHash)
		assert.NotEqual(t, res.Token, stored.TokenHash)
		assert.Equal(t, "10.0.0.1", stored.IPAddress)
	})

	t.Run("SameErrorForUnknownEmailAndWrongPassword", func(t *testing.T) {
		_, errWrong := svc.SignIn(ctx, SignInInput{Email: "ann@example.com", Password: "nope-nope"}, Client{})
		_, errUnknown := svc.SignIn(ctx, SignInInput{Email: "who@example.com", Password: "nope-nope"}, Client{})

		require.Error(t, errWrong)
		require.Error(t, errUnknown)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
		assert.True(t, apperr.Is(errWrong, apperr.KindUnauthorized))
	})

	t.Run("Banned", func(t *testing.T) {
		u := createUser(t, svc, "banned@example.com", "")
		require.NoError(t, db.Model(&User{}).Where("id = ?", u.ID).Update("banned", true).Error)

		_, err := svc.SignIn(ctx, SignInInput{Email: "banned@example.com", Password: "correct-horse"}, Client{})
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
	})

	t.Run("SoftDeleted", func(t *testing.T) {
		u := createUser(t, svc, "deleted@example.com", "")
		require.NoError(t, db.Delete(&User{}, "id = ?", u.ID).Error)

		_, err := svc.SignIn(ctx, SignInInput{Email: "deleted@example.com", Password: "correct-horse"}, Client{})
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})
}

func TestGetSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		svc, _, _ := setupService(t, testConfig())
		u := createUser(t, svc, "ann@example.com", "")
		res := signIn(t, svc, "ann@example.com")

		view, err := svc.GetSession(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, view.User.ID)
		assert.Equal(t, res.Session.ID, view.Session.ID)
		assert.False(t, view.Refreshed)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		svc, _, _ := setupService(t, testConfig())
		_, err := svc.GetSession(ctx, "not-a-token")
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

		_, err = svc.GetSession(ctx, "")
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})

	t.Run("ServedFromCache", func(t *testing.T) {
		svc, db, _ := setupService(t, testConfig())
		createUser(t, svc, "ann@example.com", "")
		res := signIn(t, svc, "ann@example.com")

		_, err := svc.GetSession(ctx, res.Token)
		require.NoError(t, err)

		// Remove the row behind the cache's back: the cached view still answers.
		require.NoError(t, db.Where("id = ?", res.Session.ID).Delete(&Session{}).Error)
		_, err = svc.GetSession(ctx, res.Token)
		assert.NoError(t, err)
	})

	t.Run("ExpiredIsDeleted", func(t *testing.T) {
		svc, db, clk := setupService(t, testConfig())
		createUser(t, svc, "ann@example.com", "")
		res := signIn(t, svc, "ann@example.com")

		clk.advance(24 * time.Hour)
		_, err := svc.GetSession(ctx, res.Token)
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

		var count int64
		require.NoError(t, db.Model(&Session{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("SlidingExpiry", func(t *testing.T) {
		svc, db, clk := setupService(t, testConfig())
		createUser(t, svc, "ann@example.com", "")
		res := signIn(t, svc, "ann@example.com")

		clk.advance(30 * time.Minute)
		view, err := svc.GetSession(ctx, res.Token)
		require.NoError(t, err)
		assert.False(t, view.Refreshed)
		assert.True(t, view.Session.ExpiresAt.Equal(res.Session.ExpiresAt))

		clk.advance(time.Hour)
		view, err = svc.GetSession(ctx, res.Token)
		require.NoError(t, err)
		assert.True(t, view.Refreshed)
		assert.True(t, view.Session.ExpiresAt.Equal(clk.t.Add(24*time.Hour)))

		var stored Session
		require.NoError(t, db.First(&stored, "id = ?", res.Session.ID).Error)
		assert.True(t, stored.ExpiresAt.Equal(clk.t.Add(24*time.Hour)))

		// The extension is cached too, so the next request does not extend again.
		view, err = svc.GetSession(ctx, res.Token)
		require.NoError(t, err)
		assert.False(t, view.Refreshed)
	})
}

func TestSignOut(t *testing.T) {
	svc, _, _ := setupService(t, testConfig())
	ctx := context.Background()
	createUser(t, svc, "ann@example.com", "")
	res := signIn(t, svc, "ann@example.com")

	_, err := svc.GetSession(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, res.Token))
	_, err = svc.GetSession(ctx, res.Token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	assert.NoError(t, svc.SignOut(ctx, ""))
	assert.NoError(t, svc.SignOut(ctx, "unknown"))
}

func TestRevokeUserSessions(t *testing.T) {
	svc, _, _ := setupService(t, testConfig())
	ctx := context.Background()
	u := createUser(t, svc, "ann@example.com", "")
	first := signIn(t, svc, "ann@example.com")
	second := signIn(t, svc, "ann@example.com")

	_, err := svc.GetSession(ctx, first.Token)
	require.NoError(t, err)

	n, err := svc.RevokeUserSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, tok := range []string{first.Token, second.Token} {
		_, err := svc.GetSession(ctx, tok)
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	}
}

func TestForgetUser(t *testing.T) {
	svc, db, _ := setupService(t, testConfig())
	ctx := context.Background()
	u := createUser(t, svc, "ann@example.com", "")
	res := signIn(t, svc, "ann@example.com")

	_, err := svc.GetSession(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, db.Model(&User{}).Where("id = ?", u.ID).Update("role", RoleAdmin).Error)
	svc.ForgetUser(ctx, u.ID)

	view, err := svc.GetSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, view.User.Role)
}

func TestPurgeExpired(t *testing.T) {
	svc, db, clk := setupService(t, testConfig())
	ctx := context.Background()
	createUser(t, svc, "ann@example.com", "")
	signIn(t, svc, "ann@example.com")

	clk.advance(12 * time.Hour)
	signIn(t, svc, "ann@example.com")

	clk.advance(13 * time.Hour)
	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int64
	require.NoError(t, db.Model(&Session{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
