package apperr

import (
	"errors"

	"admin-backend/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Response is the JSON body of every failed request.
type Response struct {
	Error   Kind              `json:"error" example:"not_found"`
	Message string            `json:"message" example:"user not found"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorHandler maps errors returned by handlers to their fixed HTTP status.
// Internal failures are logged and answered with a generic message.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		resp := Response{Error: KindInternal, Message: "internal server error"}
		status := fiber.StatusInternalServerError

		var appErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.Kind.Status()
			resp.Error = appErr.Kind
			if appErr.Kind != KindInternal {
				resp.Message = appErr.Message
				resp.Fields = appErr.Fields
			}
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			resp.Error = kindForStatus(fiberErr.Code)
			resp.Message = fiberErr.Message
		}

		l := logger.WithRequestID(log, c)
		if status >= fiber.StatusInternalServerError {
			l.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err))
		} else {
			l.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
		}

		return c.Status(status).JSON(resp)
	}
}

func kindForStatus(status int) Kind {
	for k, s := range statusByKind {
		if s == status {
			return k
		}
	}
	if status >= fiber.StatusInternalServerError {
		return KindInternal
	}
	switch status {
	case fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
		return KindValidation
	}
	return Kind("error")
}
