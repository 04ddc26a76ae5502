package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ctxsearch/backend/app/controllers"
	"github.com/ctxsearch/backend/internal/pkg/config"
	"github.com/ctxsearch/backend/internal/pkg/middleware"
	"github.com/ctxsearch/backend/internal/pkg/oauth"
	"github.com/ctxsearch/backend/internal/pkg/session"
)

type HttpRouter struct {
	cfg *config.Settings
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup(h.cfg)

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Root-level liveness probe; the versioned alias lives in the API router.
	app.Get("/health", controllers.HandleHealth)
}

func NewHttpRouter(cfg *config.Settings) *HttpRouter {
	return &HttpRouter{cfg: cfg}
}
