package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ctxsearch/backend/internal/pkg/usercontext"
)

// RequireUser ensures a logged-in session for API routes and returns a
// JSON 401 instead of a redirect.
func RequireUser(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Not authenticated",
		})
	}
	return c.Next()
}
