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

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type registerInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /auth/register
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body registerInput true "Credentials"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input registerInput
	if err := c.BodyParser(&input); err != nil {
		return types.NewValidationError("invalid request body: %v", err)
	}

	// Self-registration never grants roles; claims are assigned by admins.
	user, err := services.RegisterUser(h.DB, input.Username, input.Password, nil)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, fiber.Map{
		"id":       user.ID,
		"username": user.Username,
	}, fiber.StatusCreated)
}

// Login handles POST /auth/login
// @Summary Authenticate and issue a session cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body loginInput true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input loginInput
	if err := c.BodyParser(&input); err != nil {
		return types.NewValidationError("invalid request body: %v", err)
	}

	principal, err := services.Authenticate(h.DB, input.Username, input.Password)
	if err != nil {
		return err
	}

	token, err := services.CreateSession(h.DB, principal.UserID, h.Cfg.SessionTTL)
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, token, h.Cfg.SessionTTL, h.Cfg.CookieSecure())

	return utils.SuccessResponse(c, fiber.Map{
		"ok":       true,
		"userId":   principal.UserID,
		"username": principal.Username,
	}, fiber.StatusOK)
}

// Logout handles POST /auth/logout
// @Summary Revoke the current session
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Cookies(middleware.SessionCookieName)
	if token != "" {
		if err := services.RevokeSession(h.DB, token); err != nil {
			return err
		}
	}
	middleware.ClearSessionCookie(c, h.Cfg.CookieSecure())

	return utils.SuccessResponse(c, fiber.Map{"ok": true}, fiber.StatusOK)
}
