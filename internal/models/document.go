package models

// DocumentPayload is the persisted body of one telemetry batch. Documents are
// immutable once written; every field is set at assembly time.
type DocumentPayload struct {
	DeviceID       string      `json:"device_id" firestore:"device_id"`
	SensorID       string      `json:"sensor_id" firestore:"sensor_id"`
	MeteringPoint  string      `json:"metering_point" firestore:"metering_point"`
	Date           string      `json:"date" firestore:"date"` // YYYY-MM-DD (UTC)
	Day            int         `json:"day" firestore:"day"`   // day-of-month, for store-side filtering
	StartTimestamp int64       `json:"start_timestamp" firestore:"start_timestamp"`
	EndTimestamp   int64       `json:"end_timestamp" firestore:"end_timestamp"`
	DataPoints     []DataPoint `json:"data_points" firestore:"data_points"`
	Count          int         `json:"count" firestore:"count"`
	CreatedAt      string      `json:"created_at" firestore:"created_at"` // RFC3339
}

// Document pairs a payload with its storage coordinates
type Document struct {
	// Path is the collection path, derived from device id, year and
	// zero-padded month
	Path string `json:"path"`
	// ID is a random UUID; uniqueness across concurrent writers is
	// probabilistic by construction
	ID      string          `json:"document_id"`
	Payload DocumentPayload `json:"data"`
}
