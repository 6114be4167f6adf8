package driving

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// DocumentService exposes stored documents to external actors.
type DocumentService interface {
	// List returns all documents in storage order.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// ChunkCount reports how many chunks a document has indexed.
	ChunkCount(ctx context.Context, documentID string) (int, error)
}
