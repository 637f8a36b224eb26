// Package app assembles the web front-end: middleware, routes and errors.
package app

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"pdfgen/internal/access"
	"pdfgen/internal/handlers"
	u "pdfgen/internal/utils"
)

// Deps are the collaborators of the front-end. Redis and Tokens may be nil;
// a nil LimitStore gets in-memory storage.
type Deps struct {
	Fetcher    handlers.PDFFetcher
	Redis      *redis.Client
	Tokens     *access.TokenStore
	LimitStore fiber.Storage
}

// SetupApp creates and configures a new Fiber app instance.
func SetupApp(cfg u.Config, deps Deps) *fiber.App {
	if deps.LimitStore == nil {
		deps.LimitStore = NewLimiterStorage(u.Config{})
	}

	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimitBytes(),
		ErrorHandler:          handlers.NewErrorHandler(cfg.Server.BodyLimitMB),
	})

	RegisterMiddleware(app, cfg, deps)
	RegisterRoutes(app, cfg, deps)

	// Unknown routes answer JSON like every other error.
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app.
func RegisterRoutes(app *fiber.App, cfg u.Config, deps Deps) {
	svc := handlers.NewPDFService(cfg, deps.Fetcher, deps.Redis)

	app.Get("/", svc.HandleIndex)
	app.Post("/generate-pdf", svc.HandleGenerate)
	app.Get("/download/:filename", svc.HandleDownload)

	app.Get("/monitor", monitor.New(monitor.Config{Title: "pdfgen"}))
}
