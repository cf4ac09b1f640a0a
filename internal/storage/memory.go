package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
)

// MemoryStore implements Store with in-process maps. It exists for
// development and tests; it mirrors the Firestore backend's filter semantics
// so the read path behaves identically against either.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]map[string]models.DocumentPayload // path -> id -> payload
	metering  map[string]models.MeteringPointMetadata      // deviceID|point -> record
	logger    *logging.Logger
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]map[string]models.DocumentPayload),
		metering:  make(map[string]models.MeteringPointMetadata),
		logger:    logger,
	}
}

func meteringKey(deviceID, meteringPoint string) string {
	return fmt.Sprintf("%s|%s", deviceID, meteringPoint)
}

// PutDocument persists one telemetry document
func (s *MemoryStore) PutDocument(_ context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.documents[doc.Path]
	if !ok {
		col = make(map[string]models.DocumentPayload)
		s.documents[doc.Path] = col
	}
	col[doc.ID] = clonePayload(doc.Payload)
	return nil
}

// GetDocument fetches one document payload by path and id
func (s *MemoryStore) GetDocument(_ context.Context, path, id string) (*models.DocumentPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.documents[path]
	if !ok {
		return nil, nil
	}
	payload, ok := col[id]
	if !ok {
		return nil, nil
	}
	out := clonePayload(payload)
	return &out, nil
}

// QueryDocumentsByDay returns all documents for one day under the path
func (s *MemoryStore) QueryDocumentsByDay(_ context.Context, path string, day int, sensorID, meteringPoint string) ([]models.DocumentPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payloads []models.DocumentPayload
	for _, payload := range s.documents[path] {
		if payload.Day != day {
			continue
		}
		if sensorID != "" && payload.SensorID != sensorID {
			continue
		}
		if meteringPoint != "" && payload.MeteringPoint != meteringPoint {
			continue
		}
		payloads = append(payloads, clonePayload(payload))
	}

	return payloads, nil
}

// GetMeteringPointMetadata returns the metadata record, or nil when absent
func (s *MemoryStore) GetMeteringPointMetadata(_ context.Context, deviceID, meteringPoint string) (*models.MeteringPointMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.metering[meteringKey(deviceID, meteringPoint)]
	if !ok {
		return nil, nil
	}
	out := cloneMetadata(meta)
	return &out, nil
}

// SetMeteringPointMetadata creates or replaces the metadata record
func (s *MemoryStore) SetMeteringPointMetadata(_ context.Context, meta *models.MeteringPointMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metering[meteringKey(meta.DeviceID, meta.MeteringPoint)] = cloneMetadata(*meta)
	return nil
}

// Close is a no-op for the memory backend
func (s *MemoryStore) Close() error {
	return nil
}

// DocumentCount returns the number of stored documents under a path.
// Test helper.
func (s *MemoryStore) DocumentCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents[path])
}

// clonePayload copies a payload so callers never alias stored state
func clonePayload(p models.DocumentPayload) models.DocumentPayload {
	points := make([]models.DataPoint, len(p.DataPoints))
	for i, dp := range p.DataPoints {
		values := make(map[string]interface{}, len(dp.Values))
		for k, v := range dp.Values {
			values[k] = v
		}
		points[i] = models.DataPoint{Timestamp: dp.Timestamp, Values: values}
	}
	p.DataPoints = points
	return p
}

// cloneMetadata copies a metadata record including its slices
func cloneMetadata(m models.MeteringPointMetadata) models.MeteringPointMetadata {
	m.SensorIDs = append([]string(nil), m.SensorIDs...)
	m.ValueFields = append([]string(nil), m.ValueFields...)
	return m
}
