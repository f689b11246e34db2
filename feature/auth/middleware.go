package auth

import (
	"admin-backend/core/apperr"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireSession.
const (
	LocalsUser    = "user"
	LocalsSession = "session"
)

// RequireSession rejects requests without a valid session cookie with 401.
// On success the user and session are stored in locals.
func RequireSession(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.GetSession(c.UserContext(), c.Cookies(svc.cfg.CookieName))
		if err != nil {
			if apperr.Is(err, apperr.KindUnauthorized) {
				clearCookie(c, svc.cfg)
			}
			return err
		}
		if view.Refreshed {
			setCookie(c, svc.cfg, c.Cookies(svc.cfg.CookieName), view.Session.ExpiresAt)
		}
		c.Locals(LocalsUser, &view.User)
		c.Locals(LocalsSession, &view.Session)
		return c.Next()
	}
}

// RequireRole rejects signed-in users without one of the given roles with 403.
// It must run after RequireSession.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := UserFromCtx(c)
		if user == nil {
			return apperr.Unauthorized("not signed in")
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return apperr.Forbidden("insufficient permissions")
	}
}

// UserFromCtx returns the signed-in user, or nil outside RequireSession.
func UserFromCtx(c *fiber.Ctx) *User {
	u, _ := c.Locals(LocalsUser).(*User)
	return u
}

// SessionFromCtx returns the current session, or nil outside RequireSession.
func SessionFromCtx(c *fiber.Ctx) *Session {
	s, _ := c.Locals(LocalsSession).(*Session)
	return s
}
