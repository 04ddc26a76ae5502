package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ctxsearch/backend/app/controllers"
	"github.com/ctxsearch/backend/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	v1 := app.Group("/v1")

	v1.Get("/health", controllers.HandleHealth)
	v1.Get("/env", controllers.HandleEnv)

	v1.Get("/auth/:provider/login", controllers.HandleAuthLogin)
	v1.Get("/auth/:provider/callback", controllers.HandleAuthCallback)
	v1.Get("/auth/me", middleware.RequireUser, controllers.HandleAuthMe)
	v1.Post("/auth/logout", controllers.HandleAuthLogout)

	// Public search carries a rate limit to protect the upstream quota.
	v1.Get("/search", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 30 * time.Second,
	}), controllers.HandleSearch)

	admin := v1.Group("/search/admin", middleware.RequireUser)
	admin.Post("/bootstrap", controllers.HandleSearchBootstrap)
	admin.Post("/add-doc", controllers.HandleSearchAddDocument)

	// Deliberately unlimited: the provider retries on non-2xx and throttling
	// its deliveries would turn bursts into replay storms.
	v1.Post("/billing/webhook", controllers.HandleStripeWebhook)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
