package handlers

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/kwf-energie/energiemonitor/internal/models"
)

// Ingest handles telemetry submission. The body is either one reading object
// or an array of readings; devices commonly batch a few minutes of samples
// per request.
func (h *Handler) Ingest(c *fiber.Ctx) error {
	device := deviceID(c)
	if device == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "UNAUTHORIZED",
				Message: "No authenticated device on request.",
			},
		})
	}

	readings, err := parseReadings(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "Failed to parse request body: " + err.Error(),
			},
		})
	}

	resp, err := h.telemetryService.Ingest(c.UserContext(), device, readings)
	if err != nil {
		return serviceErrorResponse(c, err)
	}

	// Per-record validation outcome decides the status: everything stored,
	// nothing stored, or a mix
	switch {
	case resp.StoredCount == 0:
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case resp.FailedCount > 0:
		return c.Status(fiber.StatusMultiStatus).JSON(resp)
	default:
		return c.JSON(resp)
	}
}

// parseReadings decodes a single reading or an array of readings
func parseReadings(body []byte) ([]models.Reading, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var readings []models.Reading
		if err := json.Unmarshal(body, &readings); err != nil {
			return nil, err
		}
		return readings, nil
	}

	var r models.Reading
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return []models.Reading{r}, nil
}
