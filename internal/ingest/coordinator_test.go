package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/storage"
)

// baseTs is 2025-06-15T00:00:00Z in epoch milliseconds
const baseTs int64 = 1749945600000

func newTestCoordinator(maxPoints int) (*Coordinator, *buffer.PointBuffer, *storage.MemoryStore) {
	logger := logging.NewDevelopment()
	buf := buffer.New(maxPoints, logger)
	store := storage.NewMemoryStore(logger)
	return NewCoordinator(buf, store, logger), buf, store
}

func reading(ts int64, sensorID, point string, values map[string]interface{}) models.Reading {
	if values == nil {
		values = map[string]interface{}{"act_power": 12.3}
	}
	return models.Reading{
		Timestamp:     ts,
		Values:        values,
		SensorID:      sensorID,
		MeteringPoint: point,
	}
}

func TestFlushDevice_EmptyBufferIsNoop(t *testing.T) {
	c, _, _ := newTestCoordinator(2000)

	result, err := c.FlushDevice(context.Background(), "emon01", NewRequestCache())
	if err != nil {
		t.Fatalf("Expected no-op success, got %v", err)
	}
	if result.Documents != 0 || result.Points != 0 {
		t.Errorf("Expected zero result, got %+v", result)
	}
}

func TestFlushDevice_PersistsAndEmptiesBuffer(t *testing.T) {
	c, buf, store := newTestCoordinator(2000)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		buf.Add("emon01", reading(baseTs+int64(i), "shelly-3em-pro", "E1", nil))
	}

	result, err := c.FlushDevice(ctx, "emon01", NewRequestCache())
	if err != nil {
		t.Fatalf("FlushDevice failed: %v", err)
	}
	if result.Documents != 1 || result.Points != 10 {
		t.Errorf("Expected 1 document / 10 points, got %+v", result)
	}

	if buf.Stats().TotalPoints != 0 {
		t.Error("Expected buffer drained after flush")
	}
	if store.DocumentCount("devices/emon01/telemetry/2025/06") != 1 {
		t.Error("Expected 1 stored document")
	}
}

func TestFlushDevice_CreatesMetadata(t *testing.T) {
	c, buf, store := newTestCoordinator(2000)
	ctx := context.Background()

	values := map[string]interface{}{"voltage": 231.2, "act_power": 14.5}
	buf.Add("emon01", reading(baseTs, "shelly-3em-pro", "E1", values))
	buf.Add("emon01", reading(baseTs+1000, "shelly-3em-pro", "E1", map[string]interface{}{"current": 0.4}))

	if _, err := c.FlushDevice(ctx, "emon01", NewRequestCache()); err != nil {
		t.Fatalf("FlushDevice failed: %v", err)
	}

	meta, err := store.GetMeteringPointMetadata(ctx, "emon01", "E1")
	if err != nil {
		t.Fatalf("Get metadata failed: %v", err)
	}
	if meta == nil {
		t.Fatal("Expected metadata record after first flush")
	}
	if meta.FirstSeen != baseTs {
		t.Errorf("Expected first_seen %d, got %d", baseTs, meta.FirstSeen)
	}
	if meta.LastSeen != baseTs+1000 {
		t.Errorf("Expected last_seen %d, got %d", baseTs+1000, meta.LastSeen)
	}
	if !meta.HasSensor("shelly-3em-pro") {
		t.Error("Expected sensor recorded")
	}
	// Field union across all points, not just the first
	for _, f := range []string{"voltage", "act_power", "current"} {
		if !meta.HasValueField(f) {
			t.Errorf("Expected value field %q recorded", f)
		}
	}
}

// Metadata monotonicity: last_seen never regresses and the sensor set never
// loses a member across flush sequences.
func TestMetadata_Monotonicity(t *testing.T) {
	c, buf, store := newTestCoordinator(2000)
	ctx := context.Background()

	// Request 1: later timestamps, sensor A
	buf.Add("emon01", reading(baseTs+5000, "shelly-3em-pro", "E1", nil))
	if _, err := c.FlushDevice(ctx, "emon01", NewRequestCache()); err != nil {
		t.Fatal(err)
	}

	// Request 2: earlier timestamps, different sensor
	buf.Add("emon01", reading(baseTs+1000, "victron", "E1", nil))
	if _, err := c.FlushDevice(ctx, "emon01", NewRequestCache()); err != nil {
		t.Fatal(err)
	}

	meta, _ := store.GetMeteringPointMetadata(ctx, "emon01", "E1")
	if meta.LastSeen != baseTs+5000 {
		t.Errorf("Expected last_seen to stay at %d, got %d", baseTs+5000, meta.LastSeen)
	}
	if !meta.HasSensor("shelly-3em-pro") || !meta.HasSensor("victron") {
		t.Errorf("Expected both sensors recorded, got %v", meta.SensorIDs)
	}
	if meta.FirstSeen != baseTs+5000 {
		t.Errorf("Expected first_seen unchanged, got %d", meta.FirstSeen)
	}
}

func TestRequestCache_SuppressesWithinRequest(t *testing.T) {
	c, buf, store := newTestCoordinator(2000)
	ctx := context.Background()
	cache := NewRequestCache()

	// Early flush followed by an end-of-request flush in the same request
	buf.Add("emon01", reading(baseTs, "shelly-3em-pro", "E1", nil))
	docs := buf.FlushAll("emon01")
	if _, err := c.PersistDocuments(ctx, docs, cache); err != nil {
		t.Fatal(err)
	}

	buf.Add("emon01", reading(baseTs+9000, "shelly-3em-pro", "E1", nil))
	if _, err := c.FlushDevice(ctx, "emon01", cache); err != nil {
		t.Fatal(err)
	}

	// Second update in the same request was suppressed
	meta, _ := store.GetMeteringPointMetadata(ctx, "emon01", "E1")
	if meta.LastSeen != baseTs {
		t.Errorf("Expected last_seen %d (second update suppressed), got %d", baseTs, meta.LastSeen)
	}

	// A new request with a fresh cache must update again
	buf.Add("emon01", reading(baseTs+9000, "shelly-3em-pro", "E1", nil))
	if _, err := c.FlushDevice(ctx, "emon01", NewRequestCache()); err != nil {
		t.Fatal(err)
	}
	meta, _ = store.GetMeteringPointMetadata(ctx, "emon01", "E1")
	if meta.LastSeen != baseTs+9000 {
		t.Errorf("Expected fresh request to advance last_seen, got %d", meta.LastSeen)
	}
}

func TestPersistDocuments_MergesSamePointWithinFlushSet(t *testing.T) {
	c, buf, store := newTestCoordinator(3)
	ctx := context.Background()
	cache := NewRequestCache()

	// Two ceiling extractions for the same point, persisted together
	var docs []models.Document
	for i := 0; i < 6; i++ {
		if must, d := buf.Add("emon01", reading(baseTs+int64(i), "shelly-3em-pro", "E1", nil)); must {
			docs = append(docs, d...)
		}
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 ceiling documents, got %d", len(docs))
	}

	if _, err := c.PersistDocuments(ctx, docs, cache); err != nil {
		t.Fatal(err)
	}

	// The merged update must carry the max end timestamp of both documents
	meta, _ := store.GetMeteringPointMetadata(ctx, "emon01", "E1")
	if meta.LastSeen != baseTs+5 {
		t.Errorf("Expected merged last_seen %d, got %d", baseTs+5, meta.LastSeen)
	}
}

// failingStore wraps a Store and fails document writes after a threshold
type failingStore struct {
	storage.Store
	failAfter int
	writes    int
}

func (f *failingStore) PutDocument(ctx context.Context, doc models.Document) error {
	if f.writes >= f.failAfter {
		return errors.New("store unavailable")
	}
	f.writes++
	return f.Store.PutDocument(ctx, doc)
}

func TestPersistDocuments_FailureFailsFlush(t *testing.T) {
	logger := logging.NewDevelopment()
	buf := buffer.New(2000, logger)
	mem := storage.NewMemoryStore(logger)
	store := &failingStore{Store: mem, failAfter: 1}
	c := NewCoordinator(buf, store, logger)
	ctx := context.Background()

	// Two partitions: first persists, second fails
	buf.Add("emon01", reading(baseTs, "shelly-3em-pro", "E1", nil))
	buf.Add("emon01", reading(baseTs, "shelly-3em-pro", "E2", nil))

	_, err := c.FlushDevice(ctx, "emon01", NewRequestCache())
	if err == nil {
		t.Fatal("Expected flush failure when a document write fails")
	}

	// No rollback of the already-written document (at-least-once)
	if mem.DocumentCount("devices/emon01/telemetry/2025/06") != 1 {
		t.Errorf("Expected 1 persisted document, got %d",
			mem.DocumentCount("devices/emon01/telemetry/2025/06"))
	}

	// Metadata must not have been touched after a failed flush
	meta, _ := mem.GetMeteringPointMetadata(ctx, "emon01", "E1")
	if meta != nil {
		t.Error("Expected no metadata update after failed flush")
	}
}

// failingMetaStore fails all metadata writes
type failingMetaStore struct {
	storage.Store
}

func (f *failingMetaStore) SetMeteringPointMetadata(ctx context.Context, meta *models.MeteringPointMetadata) error {
	return errors.New("metadata collection unavailable")
}

func TestPersistDocuments_MetadataFailureIsBestEffort(t *testing.T) {
	logger := logging.NewDevelopment()
	buf := buffer.New(2000, logger)
	store := &failingMetaStore{Store: storage.NewMemoryStore(logger)}
	c := NewCoordinator(buf, store, logger)

	buf.Add("emon01", reading(baseTs, "shelly-3em-pro", "E1", nil))

	result, err := c.FlushDevice(context.Background(), "emon01", NewRequestCache())
	if err != nil {
		t.Fatalf("Expected flush to succeed despite metadata failure, got %v", err)
	}
	if result.Documents != 1 {
		t.Errorf("Expected 1 document, got %d", result.Documents)
	}
}

func TestFlushDay_TargetsDateOnly(t *testing.T) {
	c, buf, _ := newTestCoordinator(2000)
	ctx := context.Background()

	dayMs := int64(24 * 60 * 60 * 1000)
	buf.Add("emon01", reading(baseTs, "shelly-3em-pro", "E1", nil))
	buf.Add("emon01", reading(baseTs+dayMs, "shelly-3em-pro", "E1", nil))

	result, err := c.FlushDay(ctx, "emon01", "2025-06-15", NewRequestCache())
	if err != nil {
		t.Fatal(err)
	}
	if result.Documents != 1 {
		t.Errorf("Expected 1 document for the day, got %d", result.Documents)
	}
	if buf.Stats().TotalPoints != 1 {
		t.Errorf("Expected next-day point to remain, got %d", buf.Stats().TotalPoints)
	}
}

func TestRequestCache_MarkOnce(t *testing.T) {
	cache := NewRequestCache()

	if !cache.MarkOnce("emon01", "E1") {
		t.Error("Expected first mark to report true")
	}
	if cache.MarkOnce("emon01", "E1") {
		t.Error("Expected second mark to report false")
	}
	if !cache.MarkOnce("emon01", "E2") {
		t.Error("Expected different point to be unmarked")
	}
	if !cache.MarkOnce("emon02", "E1") {
		t.Error("Expected different device to be unmarked")
	}
}
