package nocache_test

import (
	"net/http/httptest"
	"testing"

	"admin-backend/core/middleware/nocache"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoCache(t *testing.T) {
	app := fiber.New()
	api := app.Group("/api", nocache.New())
	api.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/public", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/api/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, "no-store, no-cache, must-revalidate, proxy-revalidate", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, "0", resp.Header.Get("Expires"))
	assert.Equal(t, "no-store", resp.Header.Get("Surrogate-Control"))

	resp, err = app.Test(httptest.NewRequest("GET", "/public", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Cache-Control"))
}
