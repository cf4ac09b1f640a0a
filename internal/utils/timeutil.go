package utils

import (
	"fmt"
	"time"
)

// DateFormat is the canonical date layout used in partition keys and documents
const DateFormat = "2006-01-02"

// TimeFromMillis converts epoch milliseconds to a UTC time
func TimeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// DateStringFromMillis returns the UTC calendar date (YYYY-MM-DD) for a
// millisecond timestamp
func DateStringFromMillis(ms int64) string {
	return TimeFromMillis(ms).Format(DateFormat)
}

// TelemetryPath builds the document-store collection path for a device and a
// point in time. Documents are grouped by year and zero-padded month; the day
// lives inside the document so day-level filtering never touches the path.
func TelemetryPath(deviceID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("devices/%s/telemetry/%d/%02d", deviceID, t.Year(), int(t.Month()))
}

// MeteringPointPath builds the document-store collection path for per-point
// metadata records of a device
func MeteringPointPath(deviceID string) string {
	return fmt.Sprintf("devices/%s/metering_points", deviceID)
}

// ParseDate parses a YYYY-MM-DD string as a UTC date
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}
