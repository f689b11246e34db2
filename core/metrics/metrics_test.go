package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"admin-backend/core/apperr"
	"admin-backend/core/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.CacheResult("users", "hit")
		m.RateLimitDecision(false)
	})

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(204) })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestMetrics_Middleware(t *testing.T) {
	m := metrics.New()

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/users/:id", func(c *fiber.Ctx) error { return c.SendString(c.Params("id")) })
	app.Get("/metrics", m.Handler())

	for _, id := range []string{"1", "2", "3"} {
		_, err := app.Test(httptest.NewRequest("GET", "/users/"+id, nil))
		require.NoError(t, err)
	}
	m.CacheResult("users", "hit")
	m.RateLimitDecision(true)

	count, err := testutil.GatherAndCount(m.Registry, "admin_cache_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `admin_http_requests_total{method="GET",route="/users/:id",status="200"} 3`)
	assert.Contains(t, string(body), `admin_rate_limit_decisions_total{decision="allowed"} 1`)
}

func TestMetrics_MiddlewareRecordsErrorStatus(t *testing.T) {
	m := metrics.New()

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(nil)})
	app.Use(m.Middleware())
	app.Get("/missing", func(c *fiber.Ctx) error { return apperr.NotFound("nope") })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `admin_http_requests_total{method="GET",route="/missing",status="404"} 1`)
}
