package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/kwf-energie/energiemonitor/internal/config"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/utils"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store against Google Cloud Firestore.
// Telemetry documents live under devices/{device}/telemetry/{year}/{MM},
// metering-point metadata under devices/{device}/metering_points.
type FirestoreStore struct {
	client *firestore.Client
	logger *logging.Logger
}

// newFirestoreStore creates a Firestore-backed store
func newFirestoreStore(ctx context.Context, cfg config.StoreConfig, logger *logging.Logger) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	logger.Info("Firestore store initialized", "project_id", cfg.ProjectID)

	return &FirestoreStore{
		client: client,
		logger: logger,
	}, nil
}

// PutDocument persists one telemetry document
func (s *FirestoreStore) PutDocument(ctx context.Context, doc models.Document) error {
	_, err := s.client.Collection(doc.Path).Doc(doc.ID).Set(ctx, doc.Payload)
	if err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", doc.Path, doc.ID, err)
	}
	return nil
}

// GetDocument fetches one document payload by path and id
func (s *FirestoreStore) GetDocument(ctx context.Context, path, id string) (*models.DocumentPayload, error) {
	snap, err := s.client.Collection(path).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document %s/%s: %w", path, id, err)
	}

	var payload models.DocumentPayload
	if err := snap.DataTo(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", path, id, err)
	}
	return &payload, nil
}

// QueryDocumentsByDay returns all documents under the path for one day,
// with optional sensor and metering-point pushdown filters
func (s *FirestoreStore) QueryDocumentsByDay(ctx context.Context, path string, day int, sensorID, meteringPoint string) ([]models.DocumentPayload, error) {
	q := s.client.Collection(path).Query.Where("day", "==", day)
	if sensorID != "" {
		q = q.Where("sensor_id", "==", sensorID)
	}
	if meteringPoint != "" {
		q = q.Where("metering_point", "==", meteringPoint)
	}

	var payloads []models.DocumentPayload

	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s day %d: %w", path, day, err)
		}

		var payload models.DocumentPayload
		if err := snap.DataTo(&payload); err != nil {
			s.logger.Warn("Skipping undecodable telemetry document",
				"path", path, "doc_id", snap.Ref.ID, "error", err)
			continue
		}
		payloads = append(payloads, payload)
	}

	return payloads, nil
}

// GetMeteringPointMetadata returns the metadata record, or nil when absent
func (s *FirestoreStore) GetMeteringPointMetadata(ctx context.Context, deviceID, meteringPoint string) (*models.MeteringPointMetadata, error) {
	path := utils.MeteringPointPath(deviceID)
	snap, err := s.client.Collection(path).Doc(meteringPoint).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get metering point %s/%s: %w", deviceID, meteringPoint, err)
	}

	var meta models.MeteringPointMetadata
	if err := snap.DataTo(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metering point %s/%s: %w", deviceID, meteringPoint, err)
	}
	return &meta, nil
}

// SetMeteringPointMetadata creates or replaces the metadata record
func (s *FirestoreStore) SetMeteringPointMetadata(ctx context.Context, meta *models.MeteringPointMetadata) error {
	path := utils.MeteringPointPath(meta.DeviceID)
	_, err := s.client.Collection(path).Doc(meta.MeteringPoint).Set(ctx, meta)
	if err != nil {
		return fmt.Errorf("failed to write metering point %s/%s: %w", meta.DeviceID, meta.MeteringPoint, err)
	}
	return nil
}

// Close releases the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
