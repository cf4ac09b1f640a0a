package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/ingest"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/storage"
)

func newBufferFixture() (*BufferService, *buffer.PointBuffer, *storage.MemoryStore) {
	logger := logging.NewDevelopment()
	buf := buffer.New(2000, logger)
	store := storage.NewMemoryStore(logger)
	coord := ingest.NewCoordinator(buf, store, logger)
	return NewBufferService(buf, coord, logger), buf, store
}

func TestBufferStats(t *testing.T) {
	svc, buf, _ := newBufferFixture()

	stats := svc.Stats()
	if stats.TotalPoints != 0 || stats.TotalDevices != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	buf.Add("emon01", validReading(baseTs))
	buf.Add("emon01", validReading(baseTs+1000))

	stats = svc.Stats()
	if stats.TotalPoints != 2 || stats.TotalDevices != 1 {
		t.Errorf("Expected 2 points on 1 device, got %+v", stats)
	}
}

func TestBufferFlush_AllDates(t *testing.T) {
	svc, buf, store := newBufferFixture()

	buf.Add("emon01", validReading(baseTs))

	resp, err := svc.Flush(context.Background(), "emon01", "")
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if resp.DocumentCount != 1 || resp.PointCount != 1 {
		t.Errorf("Unexpected flush response %+v", resp)
	}
	if store.DocumentCount("devices/emon01/telemetry/2025/06") != 1 {
		t.Error("Expected persisted document")
	}
	if buf.Stats().TotalPoints != 0 {
		t.Error("Expected buffer drained")
	}
}

func TestBufferFlush_TargetedDate(t *testing.T) {
	svc, buf, _ := newBufferFixture()

	dayMs := int64(24 * 60 * 60 * 1000)
	buf.Add("emon01", validReading(baseTs))
	buf.Add("emon01", validReading(baseTs+dayMs))

	resp, err := svc.Flush(context.Background(), "emon01", "2025-06-15")
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if resp.DocumentCount != 1 {
		t.Errorf("Expected 1 document for the day, got %d", resp.DocumentCount)
	}
	if buf.Stats().TotalPoints != 1 {
		t.Errorf("Expected next-day point retained, got %d", buf.Stats().TotalPoints)
	}
}

func TestBufferFlush_InvalidDate(t *testing.T) {
	svc, _, _ := newBufferFixture()

	_, err := svc.Flush(context.Background(), "emon01", "15.06.2025")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.Code != "INVALID_DATE" {
		t.Errorf("Expected INVALID_DATE error, got %v", err)
	}
}
