package auth

import (
	"admin-backend/core/apperr"
	"admin-backend/core/logger"
	"admin-backend/core/ratelimit"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for authentication.
type Handler struct {
	service    *Service
	logger     *zap.Logger
	trustProxy bool
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger, trustProxy bool) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger, trustProxy: trustProxy}
}

// SessionResponse is returned by sign-in, sign-up and get-session.
type SessionResponse struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}

// SuccessResponse acknowledges an action without a payload.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// RegisterRoutes registers the auth routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/api/auth")
	group.Post("/sign-up/email", h.HandleSignUp)
	group.Post("/sign-in/email", h.HandleSignIn)
	group.Post("/sign-out", h.HandleSignOut)
	group.Get("/get-session", h.HandleGetSession)
}

func (h *Handler) client(c *fiber.Ctx) Client {
	return Client{
		IPAddress: ratelimit.ClientIP(c, h.trustProxy),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

// HandleSignUp creates an account and signs it in.
// @Summary Sign up with email
// @Description Creates a regular user account and sets the session cookie. Disabled unless AUTH_ALLOW_SIGN_UP is true.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignUpInput true "Account"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} apperr.Response "Validation failed"
// @Failure 403 {object} apperr.Response "Sign-up disabled"
// @Failure 409 {object} apperr.Response "Email already registered"
// @Router /api/auth/sign-up/email [post]
func (h *Handler) HandleSignUp(c *fiber.Ctx) error {
	var in SignUpInput
	if err := apperr.BindJSON(c, &in); err != nil {
		return err
	}

	res, err := h.service.SignUp(c.UserContext(), in, h.client(c))
	if err != nil {
		return err
	}

	logger.WithRequestID(h.logger, c).Info("User signed up", zap.String("user_id", res.User.ID))
	setCookie(c, h.service.cfg, res.Token, res.Session.ExpiresAt)
	return c.JSON(SessionResponse{User: res.User, Session: res.Session})
}

// HandleSignIn checks credentials and sets the session cookie.
// @Summary Sign in with email
// @Description Verifies email and password and sets an HttpOnly session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignInInput true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} apperr.Response "Validation failed"
// @Failure 401 {object} apperr.Response "Invalid email or password"
// @Failure 403 {object} apperr.Response "Account banned"
// @Router /api/auth/sign-in/email [post]
func (h *Handler) HandleSignIn(c *fiber.Ctx) error {
	var in SignInInput
	if err := apperr.BindJSON(c, &in); err != nil {
		return err
	}

	res, err := h.service.SignIn(c.UserContext(), in, h.client(c))
	if err != nil {
		return err
	}

	setCookie(c, h.service.cfg, res.Token, res.Session.ExpiresAt)
	return c.JSON(SessionResponse{User: res.User, Session: res.Session})
}

// HandleSignOut deletes the current session and clears the cookie.
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/auth/sign-out [post]
func (h *Handler) HandleSignOut(c *fiber.Ctx) error {
	if err := h.service.SignOut(c.UserContext(), c.Cookies(h.service.cfg.CookieName)); err != nil {
		return err
	}
	clearCookie(c, h.service.cfg)
	return c.JSON(SuccessResponse{Success: true})
}

// HandleGetSession returns the current session, or null when signed out.
// @Summary Get current session
// @Description Returns the signed-in user and session. Responds with null when there is no valid session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /api/auth/get-session [get]
func (h *Handler) HandleGetSession(c *fiber.Ctx) error {
	token := c.Cookies(h.service.cfg.CookieName)
	if token == "" {
		return c.JSON(nil)
	}

	view, err := h.service.GetSession(c.UserContext(), token)
	if apperr.Is(err, apperr.KindUnauthorized) {
		clearCookie(c, h.service.cfg)
		return c.JSON(nil)
	}
	if err != nil {
		return err
	}

	if view.Refreshed {
		setCookie(c, h.service.cfg, token, view.Session.ExpiresAt)
	}
	return c.JSON(SessionResponse{User: view.User, Session: view.Session})
}
