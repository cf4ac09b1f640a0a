package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
)

// HeaderDeviceKey carries the per-device API key on every protected request
const HeaderDeviceKey = "KWF-Device-Key"

// DeviceIDLocal is the fiber locals key holding the authenticated device id
const DeviceIDLocal = "device_id"

// DeviceKeyAuth creates the device-key authentication middleware. Config maps
// device id to key; the middleware resolves the presented key back to its
// device and stores the id in locals and the request context. Handlers never
// see raw keys.
func DeviceKeyAuth(logger *logging.Logger, deviceKeys map[string]string, enabled bool) fiber.Handler {
	// If auth is disabled, trust the declared device id (development only)
	if !enabled {
		return func(c *fiber.Ctx) error {
			deviceID := c.Get("KWF-Device-Id")
			if deviceID == "" {
				deviceID = "dev-device"
			}
			c.Locals(DeviceIDLocal, deviceID)
			c.SetUserContext(logging.WithDeviceID(c.UserContext(), deviceID))
			return c.Next()
		}
	}

	// Reverse map for O(1) key lookup
	keyToDevice := make(map[string]string, len(deviceKeys))
	for deviceID, key := range deviceKeys {
		if key == "" {
			logger.Warn("Device configured without key, skipping", "device_id", deviceID)
			continue
		}
		keyToDevice[key] = deviceID
	}

	if len(keyToDevice) == 0 {
		logger.Error("Device-key auth enabled but no device keys configured")
	}

	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderDeviceKey)
		if key == "" {
			logger.Warn("Device key missing",
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "UNAUTHORIZED",
					Message: "Device key is required. Provide it via the KWF-Device-Key header.",
				},
			})
		}

		deviceID, ok := keyToDevice[key]
		if !ok {
			logger.Warn("Unknown device key",
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
				"key_prefix", maskDeviceKey(key),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "UNAUTHORIZED",
					Message: "Unknown device key.",
				},
			})
		}

		c.Locals(DeviceIDLocal, deviceID)
		c.SetUserContext(logging.WithDeviceID(c.UserContext(), deviceID))

		logger.Debug("Device authenticated",
			"device_id", deviceID,
			"path", c.Path(),
		)

		return c.Next()
	}
}

// maskDeviceKey masks a key for logging (show only first 4 chars)
func maskDeviceKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
