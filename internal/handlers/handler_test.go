package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/config"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/middleware"
	"github.com/kwf-energie/energiemonitor/internal/storage"
)

// baseTs is 2025-06-15T00:00:00Z in epoch milliseconds
const baseTs int64 = 1749945600000

// newTestApp builds a fiber app around a fresh handler. The auth middleware
// is replaced with a stub that pins the device id.
func newTestApp(t *testing.T, device string) (*fiber.App, *buffer.PointBuffer, *storage.MemoryStore) {
	t.Helper()
	logger := logging.NewDevelopment()
	buf := buffer.New(2000, logger)
	store := storage.NewMemoryStore(logger)
	cfg := config.Config{
		Export: config.ExportConfig{
			MaxRangeDays: 31,
			DownloadDir:  t.TempDir(),
		},
	}
	h := New(logger, buf, store, cfg)

	asDevice := func(c *fiber.Ctx) error {
		c.Locals(middleware.DeviceIDLocal, device)
		return c.Next()
	}

	app := fiber.New()
	app.Post("/telemetry", asDevice, h.Ingest)
	app.Get("/export", asDevice, h.Export)
	app.Get("/buffer/stats", h.BufferStats)
	app.Post("/buffer/flush", asDevice, h.FlushBuffer)
	app.Get("/health", h.Health)

	return app, buf, store
}
