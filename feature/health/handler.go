package health

import (
	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for health checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// LivenessResponse is returned by the liveness probe.
type LivenessResponse struct {
	Status string `json:"status" example:"ok"`
}

// RegisterRoutes registers the health routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleLiveness)
	app.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness reports that the process is serving requests.
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} LivenessResponse
// @Router /health [get]
func (h *Handler) HandleLiveness(c *fiber.Ctx) error {
	return c.JSON(LivenessResponse{Status: StatusOK})
}

// HandleReadiness checks the database, cache and object storage.
// @Summary Readiness probe
// @Description Checks every dependency. Responds 503 when the database is unreachable; cache or storage failures only mark the report as degraded.
// @Tags health
// @Produce json
// @Success 200 {object} Report
// @Failure 503 {object} Report
// @Router /health/ready [get]
func (h *Handler) HandleReadiness(c *fiber.Ctx) error {
	report := h.service.Ready(c.UserContext())
	if report.Status == StatusError {
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}
