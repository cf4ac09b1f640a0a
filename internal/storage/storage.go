// Package storage provides the document-store collaborator behind a narrow
// interface: telemetry documents are written once and queried by day,
// metering-point metadata records are read-modify-written.
package storage

import (
	"context"
	"fmt"

	"github.com/kwf-energie/energiemonitor/internal/config"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
)

// Store is the document-store interface consumed by the flush and query
// paths. Implementations must support server-side equality filters on the
// day, sensor and metering-point fields; result ordering is not assumed,
// the read path sorts client-side.
type Store interface {
	// PutDocument persists one immutable telemetry document
	PutDocument(ctx context.Context, doc models.Document) error

	// GetDocument fetches one document payload by path and id
	GetDocument(ctx context.Context, path, id string) (*models.DocumentPayload, error)

	// QueryDocumentsByDay returns all document payloads under the path whose
	// day field matches, optionally narrowed by sensor and metering point.
	// Empty filter strings mean "any".
	QueryDocumentsByDay(ctx context.Context, path string, day int, sensorID, meteringPoint string) ([]models.DocumentPayload, error)

	// GetMeteringPointMetadata returns the metadata record for the device and
	// metering point, or (nil, nil) when none exists yet
	GetMeteringPointMetadata(ctx context.Context, deviceID, meteringPoint string) (*models.MeteringPointMetadata, error)

	// SetMeteringPointMetadata creates or replaces the metadata record
	SetMeteringPointMetadata(ctx context.Context, meta *models.MeteringPointMetadata) error

	// Close releases the underlying client
	Close() error
}

// NewStore creates a store from configuration
func NewStore(ctx context.Context, cfg config.StoreConfig, logger *logging.Logger) (Store, error) {
	switch cfg.Backend {
	case "firestore":
		return newFirestoreStore(ctx, cfg, logger)
	case "memory":
		return NewMemoryStore(logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
