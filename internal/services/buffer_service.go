package services

import (
	"context"
	"fmt"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/ingest"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/utils"
)

// BufferService exposes buffer diagnostics and the manual flush escape hatch
type BufferService struct {
	buffer      *buffer.PointBuffer
	coordinator *ingest.Coordinator
	logger      *logging.Logger
}

// NewBufferService creates a new BufferService
func NewBufferService(buf *buffer.PointBuffer, coordinator *ingest.Coordinator, logger *logging.Logger) *BufferService {
	return &BufferService{
		buffer:      buf,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Stats returns a snapshot of currently buffered points. Between requests the
// snapshot is empty unless a flush was missed.
func (s *BufferService) Stats() models.BufferStatsResponse {
	return s.buffer.Stats()
}

// Flush drains the device's buffered partitions to the store. With a date it
// targets only that day's partitions; without, everything the device has.
func (s *BufferService) Flush(ctx context.Context, deviceID, date string) (*models.FlushResponse, error) {
	cache := ingest.NewRequestCache()

	var result ingest.FlushResult
	var err error
	if date != "" {
		if _, perr := utils.ParseDate(date); perr != nil {
			return nil, NewServiceError("INVALID_DATE", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
		}
		result, err = s.coordinator.FlushDay(ctx, deviceID, date, cache)
	} else {
		result, err = s.coordinator.FlushDevice(ctx, deviceID, cache)
	}
	if err != nil {
		s.logger.Error("Manual flush failed",
			"device_id", deviceID,
			"date", date,
			"error", err)
		return nil, NewServiceError("STORE_UNAVAILABLE", "failed to persist telemetry documents")
	}

	return &models.FlushResponse{
		Message:       "buffer flushed",
		DeviceID:      deviceID,
		Date:          date,
		DocumentCount: result.Documents,
		PointCount:    result.Points,
	}, nil
}
