package apperr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"admin-backend/core/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKind_Status(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, 400},
		{apperr.KindUnauthorized, 401},
		{apperr.KindForbidden, 403},
		{apperr.KindNotFound, 404},
		{apperr.KindConflict, 409},
		{apperr.KindRateLimited, 429},
		{apperr.KindUnavailable, 503},
		{apperr.KindInternal, 500},
		{apperr.Kind("unknown"), 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("loading user: %w", apperr.NotFound("user not found"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(wrapped))
	assert.True(t, apperr.Is(wrapped, apperr.KindNotFound))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zap.NewNop())})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperr.NotFound("user not found")
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return apperr.Validation("invalid request", map[string]string{"email": "must be a valid email"})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("database exploded")
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusForbidden, "nope")
	})

	tests := []struct {
		path    string
		status  int
		kind    apperr.Kind
		message string
	}{
		{"/missing", 404, apperr.KindNotFound, "user not found"},
		{"/invalid", 400, apperr.KindValidation, "invalid request"},
		{"/boom", 500, apperr.KindInternal, "internal server error"},
		{"/fiber", 403, apperr.KindForbidden, "nope"},
		{"/no-route", 404, apperr.KindNotFound, "Cannot GET /no-route"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body apperr.Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.kind, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestErrorHandler_Fields(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zap.NewNop())})
	app.Post("/", func(c *fiber.Ctx) error {
		return apperr.Validation("invalid request", map[string]string{"email": "is required"})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	require.NoError(t, err)

	var body apperr.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "is required", body.Fields["email"])
}
