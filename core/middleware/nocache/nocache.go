package nocache

import "github.com/gofiber/fiber/v2"

// New returns a middleware that marks every response as non-cacheable for browsers
// and intermediaries. Session-bound API responses must never be served from a cache.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		c.Set("Surrogate-Control", "no-store")
		return c.Next()
	}
}
