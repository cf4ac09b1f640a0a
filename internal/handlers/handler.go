// Package handlers contains the HTTP handlers for telemetry ingestion,
// export, buffer administration and health.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/config"
	"github.com/kwf-energie/energiemonitor/internal/export"
	"github.com/kwf-energie/energiemonitor/internal/ingest"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/middleware"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/query"
	"github.com/kwf-energie/energiemonitor/internal/services"
	"github.com/kwf-energie/energiemonitor/internal/storage"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger *logging.Logger
	// Services
	telemetryService *services.TelemetryService
	exportService    *services.ExportService
	bufferService    *services.BufferService
}

// New creates a new handler instance and wires the service layer on top of
// the shared buffer and store
func New(logger *logging.Logger, buf *buffer.PointBuffer, store storage.Store, cfg config.Config) *Handler {
	coordinator := ingest.NewCoordinator(buf, store, logger)
	reconstructor := query.NewReconstructor(store, logger)
	writer := export.NewWriter(cfg.Export.DownloadDir, logger)

	return &Handler{
		logger:           logger,
		telemetryService: services.NewTelemetryService(buf, coordinator, logger),
		exportService:    services.NewExportService(reconstructor, writer, cfg.Export.MaxRangeDays, logger),
		bufferService:    services.NewBufferService(buf, coordinator, logger),
	}
}

// deviceID returns the device resolved by the auth middleware
func deviceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.DeviceIDLocal).(string); ok {
		return id
	}
	return ""
}

// serviceErrorResponse translates a service error into the HTTP envelope
func serviceErrorResponse(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: err.Error(),
			},
		})
	}

	status := fiber.StatusInternalServerError
	switch svcErr.Code {
	case "EMPTY_BATCH", "INVALID_DATE", "INVALID_RANGE", "RANGE_TOO_LARGE":
		status = fiber.StatusBadRequest
	case "NO_DATA":
		status = fiber.StatusNotFound
	}

	return c.Status(status).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
		},
	})
}
