package services

import (
	"context"
	"fmt"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/ingest"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
)

// TelemetryService handles ingestion of device readings into the point buffer
// and their durable flush at the end of every request
type TelemetryService struct {
	buffer      *buffer.PointBuffer
	coordinator *ingest.Coordinator
	logger      *logging.Logger
}

// NewTelemetryService creates a new TelemetryService
func NewTelemetryService(buf *buffer.PointBuffer, coordinator *ingest.Coordinator, logger *logging.Logger) *TelemetryService {
	return &TelemetryService{
		buffer:      buf,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Ingest validates and buffers a batch of readings for one device, then
// drains the device's partitions to the store. Validation is per record:
// invalid readings are reported by index and skipped, valid ones proceed.
// A store failure during any flush fails the whole call.
func (s *TelemetryService) Ingest(ctx context.Context, deviceID string, readings []models.Reading) (*models.IngestResponse, error) {
	if len(readings) == 0 {
		return nil, NewServiceError("EMPTY_BATCH", "request contains no readings")
	}

	resp := &models.IngestResponse{DeviceID: deviceID}
	cache := ingest.NewRequestCache()

	for i := range readings {
		r := &readings[i]
		if err := models.ValidateReading(r); err != nil {
			resp.FailedCount++
			resp.Errors = append(resp.Errors, fmt.Sprintf("record %d: %s", i, err.Error()))
			continue
		}

		mustFlush, docs := s.buffer.Add(deviceID, *r)
		if mustFlush {
			// A partition hit its ceiling mid-request; persist the extracted
			// documents before accepting more points
			if _, err := s.coordinator.PersistDocuments(ctx, docs, cache); err != nil {
				return nil, s.storeError(deviceID, err)
			}
		}
		resp.StoredCount++
	}

	// End-of-request drain: nothing of this device survives in the buffer
	if _, err := s.coordinator.FlushDevice(ctx, deviceID, cache); err != nil {
		return nil, s.storeError(deviceID, err)
	}

	switch {
	case resp.FailedCount == 0:
		resp.Message = "telemetry stored"
	case resp.StoredCount == 0:
		resp.Message = "no valid readings in batch"
	default:
		resp.Message = "telemetry partially stored"
	}

	s.logger.Info("Telemetry batch processed",
		"device_id", deviceID,
		"stored", resp.StoredCount,
		"failed", resp.FailedCount)

	return resp, nil
}

func (s *TelemetryService) storeError(deviceID string, err error) *ServiceError {
	s.logger.Error("Telemetry flush failed",
		"device_id", deviceID,
		"error", err)
	return NewServiceError("STORE_UNAVAILABLE", "failed to persist telemetry documents")
}
