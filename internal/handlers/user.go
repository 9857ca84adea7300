package handlers

import (
	"github.com/basicblog/gateway/internal/config"
	"github.com/basicblog/gateway/internal/middleware"
	"github.com/basicblog/gateway/internal/services"
	"github.com/basicblog/gateway/internal/types"
	"github.com/basicblog/gateway/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserHandler handles user administration routes
type UserHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type createUserInput struct {
	Username string                 `json:"username"`
	Password string                 `json:"password"`
	Roles    types.FlexList[string] `json:"roles"`
}

// Me handles GET /Users/me
// @Summary Describe the calling user
// @Tags Users
// @Produce json
// @Success 200 {object} types.Principal
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /Users/me [get]
func (h *UserHandler) Me(c *fiber.Ctx) error {
	return c.JSON(getPrincipal(c))
}

// Create handles POST /Users (admin only), creating a user with roles.
// @Summary Create a user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body createUserInput true "User"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /Users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input createUserInput
	if err := c.BodyParser(&input); err != nil {
		return types.NewValidationError("invalid request body: %v", err)
	}

	user, err := services.RegisterUser(h.DB, input.Username, input.Password, input.Roles)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"roles":    user.Roles,
	}, fiber.StatusCreated)
}

// Delete handles DELETE /Users/:id. A user may delete themselves, an admin
// may delete anyone. Deleting a user also removes their blogs, the comments
// on those blogs, and their sessions.
// @Summary Delete a user and all owned content
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /Users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	principal := getPrincipal(c)
	if principal.UserID != id && !principal.HasRole("admin") {
		return types.NewForbiddenError("not allowed to delete this user")
	}
	if err := services.DeleteUser(h.DB, id); err != nil {
		return err
	}
	if principal.UserID == id {
		middleware.ClearSessionCookie(c, h.Cfg.CookieSecure())
	}
	return utils.MutationSuccessResponse(c, 1)
}
