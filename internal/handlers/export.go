package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kwf-energie/energiemonitor/internal/models"
)

// Export generates an XLSX workbook for the requested date range and streams
// it back as an attachment
func (h *Handler) Export(c *fiber.Ctx) error {
	device := deviceID(c)
	if device == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "UNAUTHORIZED",
				Message: "No authenticated device on request.",
			},
		})
	}

	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	sensorID := c.Query("sensor_id")
	meteringPoint := c.Query("metering_point")

	result, err := h.exportService.Export(c.UserContext(), device, startDate, endDate, sensorID, meteringPoint)
	if err != nil {
		return serviceErrorResponse(c, err)
	}

	h.logger.Info("Export download",
		"device_id", device,
		"file", result.Filename,
		"readings", result.Readings)

	return c.Download(result.FilePath, result.Filename)
}
