package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ctxsearch/backend/internal/pkg/config"
)

// Router installs one family of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, cfg *config.Settings) {
	// Install HttpRouter first to initialize session store, oauth providers,
	// and the global UserContext middleware. Then register API routes which
	// depend on that middleware (e.g., the auth gate).
	setup(app, NewHttpRouter(cfg), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
