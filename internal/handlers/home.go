package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HomeHandler serves the gateway's small set of local pages.
type HomeHandler struct{}

// Index handles GET / by redirecting to the blog listing.
func (h *HomeHandler) Index(c *fiber.Ctx) error {
	return c.Redirect("/Blog", fiber.StatusFound)
}

// About handles GET /About
// @Summary About page
// @Tags Home
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /About [get]
func (h *HomeHandler) About(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":    "About",
		"message": "Your application description page.",
	})
}

// Contact handles GET /Contact
// @Summary Contact page
// @Tags Home
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /Contact [get]
func (h *HomeHandler) Contact(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page":    "Contact",
		"message": "Your contact page.",
	})
}
