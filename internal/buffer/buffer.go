// Package buffer implements the request-scoped batching engine: readings are
// accumulated per (device, day, sensor, metering point) partition and drained
// into size-bounded, immutable telemetry documents.
package buffer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/utils"
)

// PartitionKey identifies one buffer partition and, later, the documents
// produced from it. Date is the UTC calendar day of the reading timestamp.
type PartitionKey struct {
	DeviceID      string
	Date          string // YYYY-MM-DD
	SensorID      string
	MeteringPoint string
}

// KeyForReading derives the partition key for a reading
func KeyForReading(deviceID string, r models.Reading) PartitionKey {
	return PartitionKey{
		DeviceID:      deviceID,
		Date:          utils.DateStringFromMillis(r.Timestamp),
		SensorID:      r.SensorID,
		MeteringPoint: r.MeteringPoint,
	}
}

// Partition accumulates points for one key. Points keep append order, which
// is not necessarily timestamp order; EndTimestamp tracks the maximum seen.
type Partition struct {
	Key            PartitionKey
	Points         []models.DataPoint
	StartTimestamp int64
	EndTimestamp   int64
}

// Count returns the number of buffered points in the partition
func (p *Partition) Count() int {
	return len(p.Points)
}

// PointBuffer is the shared in-memory accumulator. All mutating operations
// are serialized by one coarse mutex; the buffer only touches memory, never
// the store, so the lock is never held across I/O.
type PointBuffer struct {
	mu         sync.Mutex
	partitions map[PartitionKey]*Partition
	maxPoints  int
	logger     *logging.Logger
}

// New creates a point buffer with the given batch-size ceiling. A ceiling of
// zero or less falls back to the default.
func New(maxPoints int, logger *logging.Logger) *PointBuffer {
	if maxPoints <= 0 {
		maxPoints = utils.DefaultMaxPointsPerBatch
	}
	return &PointBuffer{
		partitions: make(map[PartitionKey]*Partition),
		maxPoints:  maxPoints,
		logger:     logger,
	}
}

// MaxPoints returns the configured batch-size ceiling
func (b *PointBuffer) MaxPoints() int {
	return b.maxPoints
}

// Add appends a reading to its partition, creating the partition on first
// use. When the partition reaches the ceiling it is extracted into exactly
// one document, removed from the buffer, and returned with mustFlush=true.
// The caller must persist returned documents immediately.
func (b *PointBuffer) Add(deviceID string, r models.Reading) (bool, []models.Document) {
	key := KeyForReading(deviceID, r)

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.partitions[key]
	if !ok {
		p = &Partition{
			Key:            key,
			Points:         make([]models.DataPoint, 0, 64),
			StartTimestamp: r.Timestamp,
			EndTimestamp:   r.Timestamp,
		}
		b.partitions[key] = p
	}

	p.Points = append(p.Points, models.DataPoint{
		Timestamp: r.Timestamp,
		Values:    r.Values,
	})
	if r.Timestamp > p.EndTimestamp {
		p.EndTimestamp = r.Timestamp
	}

	if len(p.Points) >= b.maxPoints {
		delete(b.partitions, key)
		b.logger.Debug("Partition reached ceiling, extracting",
			"device_id", key.DeviceID,
			"date", key.Date,
			"sensor_id", key.SensorID,
			"metering_point", key.MeteringPoint,
			"points", len(p.Points))
		return true, []models.Document{AssembleDocument(p)}
	}

	return false, nil
}

// FlushDay extracts every partition for the device and date, regardless of
// fill level, and returns one document per partition.
func (b *PointBuffer) FlushDay(deviceID, date string) []models.Document {
	b.mu.Lock()
	extracted := b.extractLocked(func(key PartitionKey) bool {
		return key.DeviceID == deviceID && key.Date == date
	})
	b.mu.Unlock()

	return assembleAll(extracted)
}

// FlushAll extracts every partition for the device, emptying its share of the
// buffer. An empty deviceID drains the buffer for all devices. This must run
// at the end of every ingestion request; no partition may survive a request.
func (b *PointBuffer) FlushAll(deviceID string) []models.Document {
	b.mu.Lock()
	extracted := b.extractLocked(func(key PartitionKey) bool {
		return deviceID == "" || key.DeviceID == deviceID
	})
	b.mu.Unlock()

	return assembleAll(extracted)
}

// extractLocked removes and returns all partitions matching the predicate.
// Caller holds the mutex.
func (b *PointBuffer) extractLocked(match func(PartitionKey) bool) []*Partition {
	var extracted []*Partition
	for key, p := range b.partitions {
		if match(key) {
			extracted = append(extracted, p)
			delete(b.partitions, key)
		}
	}
	return extracted
}

// assembleAll turns extracted partitions into documents in a deterministic
// order (by date, sensor, metering point) so flush logs and responses are
// stable across runs.
func assembleAll(partitions []*Partition) []models.Document {
	sort.Slice(partitions, func(i, j int) bool {
		a, b := partitions[i].Key, partitions[j].Key
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.SensorID != b.SensorID {
			return a.SensorID < b.SensorID
		}
		return a.MeteringPoint < b.MeteringPoint
	})

	docs := make([]models.Document, 0, len(partitions))
	for _, p := range partitions {
		docs = append(docs, AssembleDocument(p))
	}
	return docs
}

// Stats returns a read-only snapshot of buffered points. Between requests a
// healthy system reports zero points; anything else signals a missed flush.
func (b *PointBuffer) Stats() models.BufferStatsResponse {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := models.BufferStatsResponse{
		Devices: make(map[string]models.DeviceBufferStats),
	}

	dates := make(map[string]map[string]bool) // device -> set of dates
	for key, p := range b.partitions {
		dev, ok := stats.Devices[key.DeviceID]
		if !ok {
			dev = models.DeviceBufferStats{Partitions: make(map[string]int)}
			dates[key.DeviceID] = make(map[string]bool)
		}

		partKey := fmt.Sprintf("%s_%s@%s", key.SensorID, key.MeteringPoint, key.Date)
		dev.Partitions[partKey] = len(p.Points)
		dev.TotalPoints += len(p.Points)
		dates[key.DeviceID][key.Date] = true
		dev.Dates = len(dates[key.DeviceID])

		stats.Devices[key.DeviceID] = dev
		stats.TotalPoints += len(p.Points)
	}
	stats.TotalDevices = len(stats.Devices)

	return stats
}
