package models

// MeteringPointMetadata is the per (device, metering point) aggregate record.
// Created on first flush touching the point, updated in place afterwards.
// LastSeen only advances and the sensor/value-field sets only grow.
type MeteringPointMetadata struct {
	MeteringPoint string   `json:"metering_point" firestore:"metering_point"`
	DeviceID      string   `json:"device_id" firestore:"device_id"`
	FirstSeen     int64    `json:"first_seen" firestore:"first_seen"`
	LastSeen      int64    `json:"last_seen" firestore:"last_seen"`
	SensorIDs     []string `json:"sensor_ids" firestore:"sensor_ids"`
	ValueFields   []string `json:"value_fields" firestore:"value_fields"`
}

// HasSensor reports whether the sensor is already recorded at this point
func (m *MeteringPointMetadata) HasSensor(sensorID string) bool {
	for _, s := range m.SensorIDs {
		if s == sensorID {
			return true
		}
	}
	return false
}

// HasValueField reports whether the field name was already observed
func (m *MeteringPointMetadata) HasValueField(field string) bool {
	for _, f := range m.ValueFields {
		if f == field {
			return true
		}
	}
	return false
}
