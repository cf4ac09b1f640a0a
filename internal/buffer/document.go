package buffer

import (
	"time"

	"github.com/google/uuid"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/utils"
)

// AssembleDocument builds an immutable telemetry document from an extracted
// partition. Points are carried over verbatim in append order. The document
// gets a random UUID; collision avoidance is probabilistic by construction,
// there is no reuse detection.
func AssembleDocument(p *Partition) models.Document {
	return models.Document{
		Path: utils.TelemetryPath(p.Key.DeviceID, utils.TimeFromMillis(p.StartTimestamp)),
		ID:   uuid.New().String(),
		Payload: models.DocumentPayload{
			DeviceID:       p.Key.DeviceID,
			SensorID:       p.Key.SensorID,
			MeteringPoint:  p.Key.MeteringPoint,
			Date:           p.Key.Date,
			Day:            dayOfMonth(p.Key.Date),
			StartTimestamp: p.StartTimestamp,
			EndTimestamp:   p.EndTimestamp,
			DataPoints:     p.Points,
			Count:          len(p.Points),
			CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// dayOfMonth extracts the numeric day from a YYYY-MM-DD partition date
func dayOfMonth(date string) int {
	t, err := utils.ParseDate(date)
	if err != nil {
		return 0
	}
	return t.Day()
}
