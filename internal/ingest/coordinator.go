// Package ingest orchestrates end-of-request draining: documents extracted
// from the point buffer are persisted through the store collaborator, then
// per-metering-point metadata is advanced once per request.
package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/storage"
)

// Coordinator drains the point buffer into the document store
type Coordinator struct {
	buffer *buffer.PointBuffer
	store  storage.Store
	logger *logging.Logger
}

// FlushResult summarizes one flush operation
type FlushResult struct {
	Documents int
	Points    int
}

// NewCoordinator creates a flush coordinator
func NewCoordinator(buf *buffer.PointBuffer, store storage.Store, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		buffer: buf,
		store:  store,
		logger: logger,
	}
}

// FlushDevice drains every partition for the device and persists the
// resulting documents. It must run at the end of every ingestion request,
// even for a single buffered reading. Zero documents is a no-op success.
func (c *Coordinator) FlushDevice(ctx context.Context, deviceID string, cache *RequestCache) (FlushResult, error) {
	docs := c.buffer.FlushAll(deviceID)
	return c.PersistDocuments(ctx, docs, cache)
}

// FlushDay drains only the partitions for the device and date. Used by the
// targeted manual flush endpoint.
func (c *Coordinator) FlushDay(ctx context.Context, deviceID, date string, cache *RequestCache) (FlushResult, error) {
	docs := c.buffer.FlushDay(deviceID, date)
	return c.PersistDocuments(ctx, docs, cache)
}

// PersistDocuments writes each document to the store, then advances
// metering-point metadata once per (device, point) not yet handled in this
// request. Telemetry durability comes first: any document write failure
// fails the whole flush (already-written documents stay — at-least-once),
// while metadata failures are logged and swallowed.
func (c *Coordinator) PersistDocuments(ctx context.Context, docs []models.Document, cache *RequestCache) (FlushResult, error) {
	result := FlushResult{}
	if len(docs) == 0 {
		return result, nil
	}

	for _, doc := range docs {
		if err := c.store.PutDocument(ctx, doc); err != nil {
			c.logger.Error("Failed to persist telemetry document",
				"path", doc.Path,
				"doc_id", doc.ID,
				"device_id", doc.Payload.DeviceID,
				"metering_point", doc.Payload.MeteringPoint,
				"error", err)
			return result, fmt.Errorf("persist document %s/%s: %w", doc.Path, doc.ID, err)
		}
		result.Documents++
		result.Points += doc.Payload.Count

		c.logger.Debug("Telemetry document persisted",
			"path", doc.Path,
			"doc_id", doc.ID,
			"points", doc.Payload.Count)
	}

	c.updateMetadata(ctx, docs, cache)

	return result, nil
}

// pointUpdate is the merged metadata contribution of all documents for one
// (device, metering point) within a single flush set
type pointUpdate struct {
	deviceID      string
	meteringPoint string
	start         int64
	end           int64
	sensors       map[string]bool
	fields        map[string]bool
}

// updateMetadata advances the per-point records. Documents of the same point
// in one flush set are merged into a single update before the cache marks
// the point handled, so dedup never discards a later timestamp.
func (c *Coordinator) updateMetadata(ctx context.Context, docs []models.Document, cache *RequestCache) {
	updates := make(map[string]*pointUpdate)
	var order []string

	for _, doc := range docs {
		p := doc.Payload
		if cache.Seen(p.DeviceID, p.MeteringPoint) {
			continue
		}

		key := cacheKey(p.DeviceID, p.MeteringPoint)
		u, ok := updates[key]
		if !ok {
			u = &pointUpdate{
				deviceID:      p.DeviceID,
				meteringPoint: p.MeteringPoint,
				start:         p.StartTimestamp,
				end:           p.EndTimestamp,
				sensors:       make(map[string]bool),
				fields:        make(map[string]bool),
			}
			updates[key] = u
			order = append(order, key)
		}

		if p.StartTimestamp < u.start {
			u.start = p.StartTimestamp
		}
		if p.EndTimestamp > u.end {
			u.end = p.EndTimestamp
		}
		u.sensors[p.SensorID] = true
		// Union across all points; the first point of a partition may not
		// carry every field the sensor reports
		for _, dp := range p.DataPoints {
			for field := range dp.Values {
				u.fields[field] = true
			}
		}
	}

	for _, key := range order {
		u := updates[key]
		if err := c.applyPointUpdate(ctx, u); err != nil {
			// Best effort: aggregate metadata never fails the request
			c.logger.Warn("Failed to update metering-point metadata",
				"device_id", u.deviceID,
				"metering_point", u.meteringPoint,
				"error", err)
			continue
		}
		cache.MarkOnce(u.deviceID, u.meteringPoint)
	}
}

// applyPointUpdate creates the record on first contact or merges into the
// existing one. LastSeen only advances, the sets only grow.
func (c *Coordinator) applyPointUpdate(ctx context.Context, u *pointUpdate) error {
	meta, err := c.store.GetMeteringPointMetadata(ctx, u.deviceID, u.meteringPoint)
	if err != nil {
		return err
	}

	if meta == nil {
		meta = &models.MeteringPointMetadata{
			MeteringPoint: u.meteringPoint,
			DeviceID:      u.deviceID,
			FirstSeen:     u.start,
			LastSeen:      u.end,
			SensorIDs:     sortedKeys(u.sensors),
			ValueFields:   sortedKeys(u.fields),
		}
		c.logger.Info("Metering point first seen",
			"device_id", u.deviceID,
			"metering_point", u.meteringPoint,
			"sensors", meta.SensorIDs)
		return c.store.SetMeteringPointMetadata(ctx, meta)
	}

	if u.end > meta.LastSeen {
		meta.LastSeen = u.end
	}
	for sensor := range u.sensors {
		if !meta.HasSensor(sensor) {
			meta.SensorIDs = append(meta.SensorIDs, sensor)
		}
	}
	for field := range u.fields {
		if !meta.HasValueField(field) {
			meta.ValueFields = append(meta.ValueFields, field)
		}
	}

	return c.store.SetMeteringPointMetadata(ctx, meta)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
