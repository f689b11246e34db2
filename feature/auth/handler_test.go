package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"admin-backend/core/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, cfg Config) (*fiber.App, *Service) {
	t.Helper()
	svc, _, _ := setupService(t, cfg)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zap.NewNop())})
	feature := NewFeature(svc, zap.NewNop(), true)
	require.NoError(t, feature.Load(app))

	admin := app.Group("/admin", RequireSession(svc), RequireRole(RoleAdmin))
	admin.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(UserFromCtx(c).Email + " " + SessionFromCtx(c).ID)
	})
	return app, svc
}

func postJSON(t *testing.T, app *fiber.App, path, body string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func getWithCookie(t *testing.T, app *fiber.App, path string, cookie *http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "admin_session" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestHandleSignUp(t *testing.T) {
	app, svc := setupTestApp(t, testConfig())

	resp := postJSON(t, app, "/api/auth/sign-up/email", `{"email":"ann@example.com","name":"Ann","password":"correct-horse"}`, nil)
	require.Equal(t, 200, resp.StatusCode)

	raw := resp.Header.Get("Set-Cookie")
	assert.Contains(t, raw, "HttpOnly")
	assert.Contains(t, strings.ToLower(raw), "samesite=lax")
	assert.Contains(t, raw, "path=/")
	assert.Contains(t, raw, "max-age=86400")

	view, err := svc.GetSession(t.Context(), sessionCookie(t, resp).Value)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", view.User.Email)
	assert.Equal(t, "203.0.113.7", view.Session.IPAddress)

	t.Run("Duplicate", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/sign-up/email", `{"email":"ann@example.com","name":"Ann","password":"correct-horse"}`, nil)
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("Invalid", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/sign-up/email", `{"email":"not-an-email","name":"","password":"x"}`, nil)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandleSignIn(t *testing.T) {
	app, svc := setupTestApp(t, testConfig())
	createUser(t, svc, "ann@example.com", RoleUser)

	t.Run("WrongPassword", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/sign-in/email", `{"email":"ann@example.com","password":"wrong-one"}`, nil)
		assert.Equal(t, 401, resp.StatusCode)
		assert.Empty(t, resp.Cookies())
	})

	t.Run("Success", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/sign-in/email", `{"email":"ann@example.com","password":"correct-horse"}`, nil)
		assert.Equal(t, 200, resp.StatusCode)
		assert.NotEmpty(t, sessionCookie(t, resp).Value)
	})
}

func TestHandleGetSessionAndSignOut(t *testing.T) {
	app, svc := setupTestApp(t, testConfig())
	createUser(t, svc, "ann@example.com", RoleUser)

	_, body := getWithCookie(t, app, "/api/auth/get-session", nil)
	assert.Equal(t, "null", body)

	resp := postJSON(t, app, "/api/auth/sign-in/email", `{"email":"ann@example.com","password":"correct-horse"}`, nil)
	cookie := sessionCookie(t, resp)

	resp, body = getWithCookie(t, app, "/api/auth/get-session", cookie)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, body, `"email":"ann@example.com"`)
	assert.NotContains(t, body, "password")

	resp = postJSON(t, app, "/api/auth/sign-out", "", cookie)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, sessionCookie(t, resp).Value)

	_, body = getWithCookie(t, app, "/api/auth/get-session", cookie)
	assert.Equal(t, "null", body)
}

func TestRequireSessionAndRole(t *testing.T) {
	app, svc := setupTestApp(t, testConfig())
	createUser(t, svc, "admin@example.com", RoleAdmin)
	createUser(t, svc, "user@example.com", RoleUser)

	resp, _ := getWithCookie(t, app, "/admin/whoami", nil)
	assert.Equal(t, 401, resp.StatusCode)

	resp, _ = getWithCookie(t, app, "/admin/whoami", &http.Cookie{Name: "admin_session", Value: "forged"})
	assert.Equal(t, 401, resp.StatusCode)

	userCookie := sessionCookie(t, postJSON(t, app, "/api/auth/sign-in/email", `{"email":"user@example.com","password":"correct-horse"}`, nil))
	resp, _ = getWithCookie(t, app, "/admin/whoami", userCookie)
	assert.Equal(t, 403, resp.StatusCode)

	adminCookie := sessionCookie(t, postJSON(t, app, "/api/auth/sign-in/email", `{"email":"admin@example.com","password":"correct-horse"}`, nil))
	resp, body := getWithCookie(t, app, "/admin/whoami", adminCookie)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "admin@example.com "))
}

func TestLoader(t *testing.T) {
	svc, _, _ := setupService(t, testConfig())
	feature := NewFeature(svc, nil, false)

	assert.Equal(t, "auth", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}
