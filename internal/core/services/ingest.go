package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/core/ports/driving"
	"github.com/parchment-labs/quarry/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// ConnectorFactory opens a connector for a source path. Injected so
// the core never imports a concrete connector package.
type ConnectorFactory func(path string) (driven.Connector, error)

// IngestService feeds documents from a connector through normalisation
// and into the indexing pipeline.
type IngestService struct {
	docStore   driven.DocumentStore
	chunkStore driven.ChunkStore
	indexer    driving.Indexer
	registry   driven.NormaliserRegistry
	connect    ConnectorFactory
}

// NewIngestService creates an ingestor.
func NewIngestService(
	docStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	indexer driving.Indexer,
	registry driven.NormaliserRegistry,
	connect ConnectorFactory,
) *IngestService {
	return &IngestService{
		docStore:   docStore,
		chunkStore: chunkStore,
		indexer:    indexer,
		registry:   registry,
		connect:    connect,
	}
}

// IngestDirectory syncs every readable text file under path, returning
// the number of documents indexed. Individual file failures are logged
// and skipped.
func (s *IngestService) IngestDirectory(ctx context.Context, path, projectID string) (int, error) {
	connector, err := s.connect(path)
	if err != nil {
		return 0, fmt.Errorf("opening connector for %s: %w", path, err)
	}
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return 0, fmt.Errorf("validating %s: %w", path, err)
	}

	logger.Section("Ingesting " + path)
	docs, errs := connector.FullSync(ctx)

	count := 0
	for raw := range docs {
		if s.ingestOne(ctx, &raw, projectID) {
			count++
		}
	}
	for err := range errs {
		logger.Warn("ingest: %v", err)
	}

	logger.Info("ingest: indexed %d documents from %s", count, path)
	return count, nil
}

// WatchDirectory ingests path, then blocks processing change events
// until ctx is cancelled.
func (s *IngestService) WatchDirectory(ctx context.Context, path, projectID string) error {
	if _, err := s.IngestDirectory(ctx, path, projectID); err != nil {
		return err
	}

	connector, err := s.connect(path)
	if err != nil {
		return fmt.Errorf("opening connector for %s: %w", path, err)
	}
	defer connector.Close()

	if !connector.Capabilities().SupportsWatch {
		return fmt.Errorf("%w: connector %s cannot watch", domain.ErrInvalidInput, connector.Type())
	}

	changes, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	logger.Info("watching %s for changes", path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			s.applyChange(ctx, change, projectID)
		}
	}
}

// applyChange processes one watch event. Failures are logged, never
// fatal to the watch loop.
func (s *IngestService) applyChange(ctx context.Context, change domain.RawDocumentChange, projectID string) {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		if s.ingestOne(ctx, &change.Document, projectID) {
			logger.Info("reindexed %s", change.Document.URI)
		}

	case domain.ChangeDeleted:
		doc, err := s.docStore.FindByURI(ctx, change.Document.URI)
		if err != nil {
			if !errors.Is(err, domain.ErrDocumentNotFound) && !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("watch: looking up deleted %s: %v", change.Document.URI, err)
			}
			return
		}
		if err := s.chunkStore.DeleteByDocument(ctx, doc.ID); err != nil {
			logger.Warn("watch: deleting chunks of %s: %v", doc.ID, err)
		}
		if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
			logger.Warn("watch: deleting document %s: %v", doc.ID, err)
		}
		logger.Info("removed %s", change.Document.URI)
	}
}

// ingestOne normalises, saves, and indexes a single raw document.
// Documents already known by URI keep their ID and are reindexed.
func (s *IngestService) ingestOne(ctx context.Context, raw *domain.RawDocument, projectID string) bool {
	normaliser, err := s.registry.ForMIMEType(raw.MIMEType)
	if err != nil {
		logger.Debug("ingest: skipping %s (%s): %v", raw.URI, raw.MIMEType, err)
		return false
	}

	doc, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		logger.Warn("ingest: normalising %s: %v", raw.URI, err)
		return false
	}
	doc.ProjectID = projectID

	existing, err := s.docStore.FindByURI(ctx, raw.URI)
	known := err == nil
	if known {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		logger.Warn("ingest: saving %s: %v", raw.URI, err)
		return false
	}

	if known {
		err = s.indexer.Reindex(ctx, doc)
	} else {
		err = s.indexer.Index(ctx, doc)
	}
	if err != nil {
		logger.Warn("ingest: indexing %s: %v", doc.ID, err)
		return false
	}
	return true
}
