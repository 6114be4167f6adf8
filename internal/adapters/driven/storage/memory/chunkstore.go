package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
// Chunks are kept in insertion order, which doubles as the storage
// order the retrieval fallback relies on.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{}
}

// InsertChunks stores a batch of chunks, assigning IDs where empty.
func (s *ChunkStore) InsertChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		s.chunks = append(s.chunks, c)
	}
	return nil
}

// UpdateEmbedding attaches a vector to the chunk addressed by
// (documentID, chunkIndex).
func (s *ChunkStore) UpdateEmbedding(_ context.Context, documentID string, chunkIndex int, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chunks {
		if s.chunks[i].DocumentID == documentID && s.chunks[i].Index == chunkIndex {
			s.chunks[i].Embedding = embedding
			return nil
		}
	}
	return domain.ErrNotFound
}

// DeleteByDocument removes every chunk belonging to a document.
func (s *ChunkStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

// CountByDocument returns the number of chunks stored for a document.
func (s *ChunkStore) CountByDocument(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

// ByDocument returns a document's chunks in ascending index order.
func (s *ChunkStore) ByDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result, nil
}

// ByDocuments returns all chunks of the given documents in storage order.
func (s *ChunkStore) ByDocuments(_ context.Context, documentIDs []string) ([]domain.Chunk, error) {
	wanted := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		wanted[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, c := range s.chunks {
		if wanted[c.DocumentID] {
			result = append(result, c)
		}
	}
	return result, nil
}

// All returns every stored chunk in storage order.
func (s *ChunkStore) All(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Chunk, len(s.chunks))
	copy(result, s.chunks)
	return result, nil
}

// MatchChunks ranks embedded chunks against the query vector and
// returns those at or above the threshold, best first.
func (s *ChunkStore) MatchChunks(_ context.Context, embedding []float32, threshold float64, limit int, filter driven.ChunkFilter) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[string]bool
	if filter.DocumentID == "" && filter.DocumentIDs != nil {
		allowed = make(map[string]bool, len(filter.DocumentIDs))
		for _, id := range filter.DocumentIDs {
			allowed[id] = true
		}
	}

	var results []domain.SearchResult
	for _, c := range s.chunks {
		if filter.DocumentID != "" && c.DocumentID != filter.DocumentID {
			continue
		}
		if allowed != nil && !allowed[c.DocumentID] {
			continue
		}
		if !c.HasEmbedding() {
			continue
		}
		sim := domain.CosineSimilarity(embedding, c.Embedding)
		if sim < threshold {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			ChunkIndex: c.Index,
			Title:      c.Title,
			Content:    c.Content,
			Similarity: sim,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
