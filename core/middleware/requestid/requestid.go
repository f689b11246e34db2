package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// HeaderName is the request and response header carrying the ID.
	HeaderName = "X-Request-ID"
	// LocalsKey is the Fiber locals key the ID is stored under.
	LocalsKey = "request_id"

	maxInboundLength = 128
)

// New returns a middleware that tags every request with an ID.
//
// An inbound X-Request-ID is reused when it looks like a token (so IDs assigned by a
// proxy survive), otherwise a random UUID is generated.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderName)
		if !valid(id) {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(HeaderName, id)
		return c.Next()
	}
}

// FromCtx returns the request ID, or an empty string outside the middleware.
func FromCtx(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalsKey).(string); ok {
		return id
	}
	return ""
}

func valid(id string) bool {
	if id == "" || len(id) > maxInboundLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		if ch < 0x21 || ch > 0x7e {
			return false
		}
	}
	return true
}
