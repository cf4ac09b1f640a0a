// Package router wires middlewares, handlers and routes into the fiber app.
package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/config"
	"github.com/kwf-energie/energiemonitor/internal/handlers"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/middleware"
	"github.com/kwf-energie/energiemonitor/internal/storage"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, buf *buffer.PointBuffer, store storage.Store, cfg config.Config) *handlers.Handler {
	// Create handler instance
	h := handlers.New(logger, buf, store, cfg)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,KWF-Device-Key,KWF-Device-Id,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check and buffer diagnostics (no auth required)
	app.Get("/health", h.Health)
	app.Get("/buffer/stats", h.BufferStats)

	// Device-key authentication middleware
	authMiddleware := middleware.DeviceKeyAuth(logger, cfg.Auth.DeviceKeys, cfg.Auth.Enabled)

	// Telemetry ingestion
	app.Post("/telemetry", authMiddleware, h.Ingest)

	// XLSX export
	app.Get("/export", authMiddleware, h.Export)

	// Manual buffer flush
	app.Post("/buffer/flush", authMiddleware, h.FlushBuffer)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, buf *buffer.PointBuffer, store storage.Store, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Energiemonitor API",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, buf, store, cfg)

	return app
}
