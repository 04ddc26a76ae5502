package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// jsonError renders the error shape shared by every v1 endpoint. The code
// is a stable machine-readable tag, the message is for humans.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
