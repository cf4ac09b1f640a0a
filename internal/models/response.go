package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// IngestResponse represents the outcome of a telemetry submission
type IngestResponse struct {
	Message     string   `json:"message"`
	DeviceID    string   `json:"device_id"`
	StoredCount int      `json:"stored_count"`
	FailedCount int      `json:"failed_count,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// FlushResponse represents the outcome of a manual buffer flush
type FlushResponse struct {
	Message       string `json:"message"`
	DeviceID      string `json:"device_id"`
	Date          string `json:"date,omitempty"`
	DocumentCount int    `json:"document_count"`
	PointCount    int    `json:"point_count"`
}

// BufferStatsResponse represents the diagnostics snapshot of the point buffer
type BufferStatsResponse struct {
	TotalDevices int                          `json:"total_devices"`
	TotalPoints  int                          `json:"total_points"`
	Devices      map[string]DeviceBufferStats `json:"devices"`
}

// DeviceBufferStats breaks buffered points down for one device
type DeviceBufferStats struct {
	Dates       int            `json:"dates"`
	TotalPoints int            `json:"total_points"`
	Partitions  map[string]int `json:"partitions"` // "sensor_point@date" -> point count
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
