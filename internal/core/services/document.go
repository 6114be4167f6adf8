package services

import (
	"context"
	"fmt"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/core/ports/driving"
)

// Ensure DocService implements the interface.
var _ driving.DocumentService = (*DocService)(nil)

// DocService exposes stored documents to external actors.
type DocService struct {
	docStore   driven.DocumentStore
	chunkStore driven.ChunkStore
}

// NewDocService creates a document service.
func NewDocService(docStore driven.DocumentStore, chunkStore driven.ChunkStore) *DocService {
	return &DocService{docStore: docStore, chunkStore: chunkStore}
}

// List returns all documents in storage order.
func (s *DocService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("getting document %s: %w", documentID, err)
	}
	return doc, nil
}

// ChunkCount reports how many chunks a document has indexed.
func (s *DocService) ChunkCount(ctx context.Context, documentID string) (int, error) {
	count, err := s.chunkStore.CountByDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("counting chunks for %s: %w", documentID, err)
	}
	return count, nil
}
