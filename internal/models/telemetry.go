package models

import (
	"fmt"

	"github.com/kwf-energie/energiemonitor/internal/utils"
)

// Reading represents one timestamped sensor sample
type Reading struct {
	Timestamp     int64                  `json:"timestamp"`
	Values        map[string]interface{} `json:"values"`
	SensorID      string                 `json:"sensor_id"`
	MeteringPoint string                 `json:"metering_point"`
	// DeviceID is assigned by the auth middleware, never by the caller
	DeviceID string `json:"device_id,omitempty"`
}

// DataPoint is the per-reading payload stored inside a telemetry document.
// Sensor, metering point and device are document-level fields and are not
// repeated per point.
type DataPoint struct {
	Timestamp int64                  `json:"timestamp" firestore:"timestamp"`
	Values    map[string]interface{} `json:"values" firestore:"values"`
}

// validMeteringPoints is the fixed vocabulary of physical metering locations
var validMeteringPoints = map[string]bool{
	"E1": true, "E2": true, "E3": true, // electrical
	"M1": true, "M2": true, // materials (gas, wood)
	"A1": true, // deduction (monitor consumption)
	"I1": true, "I2": true, // internal (hot water, heating)
	"K0": true, "K1": true, "K2": true, "K3": true, "K4": true, // comfort
	"D1": true, // water
}

// IsValidMeteringPoint reports whether the identifier is a known metering point
func IsValidMeteringPoint(p string) bool {
	return validMeteringPoints[p]
}

// ValidateReading checks a reading before it may enter the point buffer.
// The buffer trusts readings that passed this check.
func ValidateReading(r *Reading) error {
	if len(r.Values) == 0 {
		return fmt.Errorf("field 'values' must be a non-empty object")
	}
	if r.SensorID == "" {
		return fmt.Errorf("field 'sensor_id' must be a non-empty string")
	}
	if r.MeteringPoint == "" {
		return fmt.Errorf("field 'metering_point' must be a non-empty string")
	}
	if !IsValidMeteringPoint(r.MeteringPoint) {
		return fmt.Errorf("field 'metering_point' has unknown value %q", r.MeteringPoint)
	}
	if r.Timestamp < utils.MinTimestampMs || r.Timestamp > utils.MaxTimestampMs {
		return fmt.Errorf("field 'timestamp' %d is outside the accepted range", r.Timestamp)
	}
	return nil
}
