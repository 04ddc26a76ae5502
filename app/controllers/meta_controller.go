package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ctxsearch/backend/internal/pkg/config"
)

// HandleHealth is the liveness probe for load balancers and uptime checks.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleEnv reports which secrets reached the process, masked to presence
// and length. It reads the live environment instead of the cached snapshot
// so it can probe vault-to-env wiring after a deploy.
func HandleEnv(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"env": config.Load().MaskedEnv()})
}
