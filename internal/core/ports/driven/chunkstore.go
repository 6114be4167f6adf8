package driven

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// ChunkFilter scopes a similarity match. Zero value means the whole
// corpus; DocumentID wins over DocumentIDs when both are set.
type ChunkFilter struct {
	// DocumentID restricts matching to one document.
	DocumentID string

	// DocumentIDs restricts matching to a set of documents (used for
	// project scope; the match RPC itself only understands a single
	// optional document, so set filtering may happen client-side).
	DocumentIDs []string
}

// ChunkStore persists document chunks and ranks them by similarity.
// The datastore owns all chunk rows; this core only computes and
// submits values.
type ChunkStore interface {
	// InsertChunks stores a batch of chunks. IDs are assigned by the
	// store when empty.
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// UpdateEmbedding attaches a vector to the chunk addressed by
	// (documentID, chunkIndex).
	UpdateEmbedding(ctx context.Context, documentID string, chunkIndex int, embedding []float32) error

	// DeleteByDocument removes every chunk belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// CountByDocument returns the number of chunks stored for a document.
	CountByDocument(ctx context.Context, documentID string) (int, error)

	// ByDocument returns a document's chunks in ascending index order.
	ByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ByDocuments returns all chunks of the given documents in storage
	// order.
	ByDocuments(ctx context.Context, documentIDs []string) ([]domain.Chunk, error)

	// All returns every stored chunk in storage order.
	All(ctx context.Context) ([]domain.Chunk, error)

	// MatchChunks ranks stored chunks against the query embedding and
	// returns those above the similarity threshold, best first, at most
	// limit rows.
	MatchChunks(ctx context.Context, embedding []float32, threshold float64, limit int, filter ChunkFilter) ([]domain.SearchResult, error)
}
