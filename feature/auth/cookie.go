package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func setCookie(c *fiber.Ctx, cfg Config, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(cfg.SessionTTL().Seconds()),
		HTTPOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearCookie(c *fiber.Ctx, cfg Config) {
	if c.Cookies(cfg.CookieName) == "" {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
