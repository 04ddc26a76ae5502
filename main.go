package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ctxsearch/backend/internal/pkg/billing"
	"github.com/ctxsearch/backend/internal/pkg/cache"
	"github.com/ctxsearch/backend/internal/pkg/config"
	"github.com/ctxsearch/backend/internal/pkg/database"
	"github.com/ctxsearch/backend/internal/pkg/env"
	"github.com/ctxsearch/backend/internal/pkg/metrics"
	"github.com/ctxsearch/backend/internal/pkg/router"
	"github.com/ctxsearch/backend/internal/pkg/search"
)

func main() {
	app := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		_ = app.Shutdown()
	}()

	if err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "8080"))); err != nil {
		log.Fatal(err)
	}

	// Listen returned after Shutdown; drain in-flight webhook handlers
	// before the process exits.
	billing.Shutdown()
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	cfg := config.Get()

	database.SetupDatabase()
	cache.SetupCache()
	metrics.Setup()
	search.Setup(cfg)
	billing.Setup(cfg)

	app := fiber.New(fiber.Config{
		AppName:   cfg.AppName,
		BodyLimit: 1 << 20, // webhook and ingest bodies are small JSON
	})
	app.Use(recover.New(), logger.New())

	corsCfg := cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
	}
	// Fiber refuses credentials combined with a wildcard origin.
	if cfg.AllowAllOrigins() {
		corsCfg.AllowOrigins = "*"
		corsCfg.AllowCredentials = false
	}
	app.Use(cors.New(corsCfg))

	// fiber metrics, basic-auth protected when credentials are configured
	if user := env.GetEnv("METRICS_USER", ""); user != "" {
		guard := basicauth.New(basicauth.Config{
			Users: map[string]string{user: env.GetEnv("METRICS_PASSWORD", "")},
		})
		app.Get("/metrics", guard, monitor.New())
		app.Get("/metrics/prometheus", guard, metrics.Handler)
	} else {
		app.Get("/metrics", monitor.New())
		app.Get("/metrics/prometheus", metrics.Handler)
	}

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, cfg)

	return app
}
