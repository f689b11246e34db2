package users

import (
	"admin-backend/core/apperr"
	"admin-backend/feature/auth"

	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for user management.
type Handler struct {
	service *Service
	auth    *auth.Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, authSvc *auth.Service) *Handler {
	return &Handler{service: service, auth: authSvc}
}

// RegisterRoutes registers the user routes. Every route requires an admin session.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/api/users", auth.RequireSession(h.auth), auth.RequireRole(auth.RoleAdmin))
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleCreate)
	group.Get("/:id", h.HandleGet)
	group.Patch("/:id", h.HandleUpdate)
	group.Delete("/:id", h.HandleDelete)
	group.Post("/:id/restore", h.HandleRestore)
	group.Post("/:id/ban", h.HandleBan)
	group.Post("/:id/unban", h.HandleUnban)
	group.Put("/:id/avatar", h.HandleUploadAvatar)
	group.Get("/:id/avatar", h.HandleGetAvatar)
}

func actorID(c *fiber.Ctx) string {
	if u := auth.UserFromCtx(c); u != nil {
		return u.ID
	}
	return ""
}

// HandleList returns a page of users.
// @Summary List users
// @Description Lists users newest first. Soft-deleted users are hidden unless include_deleted is true.
// @Tags users
// @Produce json
// @Param page query int false "Page number" minimum(1)
// @Param page_size query int false "Page size" minimum(1) maximum(100)
// @Param search query string false "Case-insensitive match on email or name"
// @Param include_deleted query boolean false "Include soft-deleted users"
// @Success 200 {object} ListResult
// @Failure 400 {object} apperr.Response
// @Failure 401 {object} apperr.Response
// @Failure 403 {object} apperr.Response
// @Router /api/users [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	var q ListQuery
	if err := apperr.BindQuery(c, &q); err != nil {
		return err
	}
	res, err := h.service.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// HandleGet returns one user.
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Param include_deleted query boolean false "Also return a soft-deleted user"
// @Success 200 {object} auth.User
// @Failure 404 {object} apperr.Response
// @Router /api/users/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("id"), c.QueryBool("include_deleted"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleCreate creates a user.
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param body body auth.CreateUserInput true "New user"
// @Success 201 {object} auth.User
// @Failure 400 {object} apperr.Response
// @Failure 409 {object} apperr.Response
// @Router /api/users [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var in auth.CreateUserInput
	if err := apperr.BindJSON(c, &in); err != nil {
		return err
	}
	user, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleUpdate applies a partial update.
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body UpdateInput true "Fields to change"
// @Success 200 {object} auth.User
// @Failure 400 {object} apperr.Response
// @Failure 404 {object} apperr.Response
// @Failure 409 {object} apperr.Response
// @Router /api/users/{id} [patch]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	var in UpdateInput
	if err := apperr.BindJSON(c, &in); err != nil {
		return err
	}
	user, err := h.service.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleDelete soft deletes a user.
// @Summary Delete user
// @Description Soft deletes the user and revokes their sessions. The row stays restorable.
// @Tags users
// @Param id path string true "User ID"
// @Success 204
// @Failure 400 {object} apperr.Response "Cannot delete yourself"
// @Failure 404 {object} apperr.Response
// @Router /api/users/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id"), actorID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRestore restores a soft-deleted user.
// @Summary Restore user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} auth.User
// @Failure 404 {object} apperr.Response
// @Router /api/users/{id}/restore [post]
func (h *Handler) HandleRestore(c *fiber.Ctx) error {
	user, err := h.service.Restore(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleBan bans a user.
// @Summary Ban user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body BanInput false "Reason"
// @Success 200 {object} auth.User
// @Failure 400 {object} apperr.Response
// @Failure 404 {object} apperr.Response
// @Router /api/users/{id}/ban [post]
func (h *Handler) HandleBan(c *fiber.Ctx) error {
	var in BanInput
	if len(c.Body()) > 0 {
		if err := apperr.BindJSON(c, &in); err != nil {
			return err
		}
	}
	user, err := h.service.Ban(c.UserContext(), c.Params("id"), actorID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleUnban lifts a ban.
// @Summary Unban user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} auth.User
// @Failure 404 {object} apperr.Response
// @Router /api/users/{id}/unban [post]
func (h *Handler) HandleUnban(c *fiber.Ctx) error {
	user, err := h.service.Unban(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleUploadAvatar replaces the avatar of a user.
// @Summary Upload avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "User ID"
// @Param avatar formData file true "PNG, JPEG, WebP or GIF, at most 2 MiB"
// @Success 200 {object} auth.User
// @Failure 400 {object} apperr.Response
// @Failure 503 {object} apperr.Response "Object storage unavailable"
// @Router /api/users/{id}/avatar [put]
func (h *Handler) HandleUploadAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return apperr.Validation("missing avatar file", map[string]string{"avatar": "is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "failed to read avatar", err)
	}
	defer f.Close()

	user, err := h.service.SetAvatar(c.UserContext(), c.Params("id"), Avatar{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleGetAvatar streams the avatar of a user.
// @Summary Get avatar
// @Tags users
// @Produce image/png,image/jpeg,image/webp,image/gif
// @Param id path string true "User ID"
// @Success 200 {file} binary
// @Failure 404 {object} apperr.Response
// @Router /api/users/{id}/avatar [get]
func (h *Handler) HandleGetAvatar(c *fiber.Ctx) error {
	obj, contentType, err := h.service.OpenAvatar(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.SendStream(obj)
}
