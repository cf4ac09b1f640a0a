// Package query rebuilds flat reading streams from the partitioned document
// layout. The write path scatters one logical stream across day/sensor/point
// documents; the reconstructor fans out over the covered calendar days and
// merges the pieces back into timestamp order.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/storage"
	"github.com/kwf-energie/energiemonitor/internal/utils"
)

// Reconstructor reads telemetry documents back as flat reading slices
type Reconstructor struct {
	store  storage.Store
	logger *logging.Logger
}

// NewReconstructor creates a range reconstructor
func NewReconstructor(store storage.Store, logger *logging.Logger) *Reconstructor {
	return &Reconstructor{
		store:  store,
		logger: logger,
	}
}

// Query returns every reading for the device whose timestamp lies in the
// inclusive range [startTs, endTs], ascending by timestamp. Empty sensorID or
// meteringPoint match any value. Points whose document overlaps the range but
// which fall outside it themselves are filtered out here; the store only
// filters at document granularity.
func (r *Reconstructor) Query(ctx context.Context, deviceID string, startTs, endTs int64, sensorID, meteringPoint string) ([]models.Reading, error) {
	if endTs < startTs {
		return nil, fmt.Errorf("end timestamp %d precedes start timestamp %d", endTs, startTs)
	}

	readings := []models.Reading{}
	start := utils.TimeFromMillis(startTs)
	end := utils.TimeFromMillis(endTs)

	// One store query per covered UTC calendar day, inclusive on both ends
	for day := startOfDay(start); !day.After(end); day = day.AddDate(0, 0, 1) {
		path := utils.TelemetryPath(deviceID, day)
		payloads, err := r.store.QueryDocumentsByDay(ctx, path, day.Day(), sensorID, meteringPoint)
		if err != nil {
			return nil, fmt.Errorf("query day %s: %w", day.Format(utils.DateFormat), err)
		}

		for _, payload := range payloads {
			for _, dp := range payload.DataPoints {
				if dp.Timestamp < startTs || dp.Timestamp > endTs {
					continue
				}
				readings = append(readings, models.Reading{
					Timestamp:     dp.Timestamp,
					Values:        dp.Values,
					SensorID:      payload.SensorID,
					MeteringPoint: payload.MeteringPoint,
					DeviceID:      payload.DeviceID,
				})
			}
		}
	}

	// Documents preserve append order, not timestamp order, so the merged
	// stream must be sorted here. The sort is stable to keep same-timestamp
	// readings in document order.
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp < readings[j].Timestamp
	})

	r.logger.Debug("Range reconstructed",
		"device_id", deviceID,
		"start_ts", startTs,
		"end_ts", endTs,
		"readings", len(readings))

	return readings, nil
}

// QueryDay returns all readings of one UTC calendar day
func (r *Reconstructor) QueryDay(ctx context.Context, deviceID, date string, sensorID, meteringPoint string) ([]models.Reading, error) {
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	startTs := day.UnixMilli()
	return r.Query(ctx, deviceID, startTs, startTs+utils.MillisPerDay-1, sensorID, meteringPoint)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
