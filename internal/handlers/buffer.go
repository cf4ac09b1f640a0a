package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kwf-energie/energiemonitor/internal/models"
)

// BufferStats returns a diagnostics snapshot of the point buffer. Between
// requests a healthy deployment reports zero buffered points.
func (h *Handler) BufferStats(c *fiber.Ctx) error {
	return c.JSON(h.bufferService.Stats())
}

// FlushBuffer manually drains the authenticated device's buffered partitions.
// An optional date query parameter restricts the drain to one day.
func (h *Handler) FlushBuffer(c *fiber.Ctx) error {
	device := deviceID(c)
	if device == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "UNAUTHORIZED",
				Message: "No authenticated device on request.",
			},
		})
	}

	resp, err := h.bufferService.Flush(c.UserContext(), device, c.Query("date"))
	if err != nil {
		return serviceErrorResponse(c, err)
	}

	return c.JSON(resp)
}
