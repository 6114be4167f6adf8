package driven

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// DocumentStore persists documents.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrDocumentNotFound when it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// FindByURI retrieves a document by its source location.
	// Returns domain.ErrDocumentNotFound when it does not exist. Used by
	// ingestion to keep document IDs stable across re-syncs.
	FindByURI(ctx context.Context, uri string) (*domain.Document, error)

	// ListDocuments returns all documents in storage order.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ProjectDocumentIDs returns the IDs of a project's documents.
	ProjectDocumentIDs(ctx context.Context, projectID string) ([]string, error)

	// DeleteDocument removes a document. Chunks are deleted separately
	// through the ChunkStore.
	DeleteDocument(ctx context.Context, id string) error
}
