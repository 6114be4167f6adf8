package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/parchment-labs/quarry/internal/chunker"
	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/core/ports/driving"
	"github.com/parchment-labs/quarry/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// Indexing pipeline tuning.
const (
	// shortTextThreshold is the length under which a document is stored
	// as a single chunk without running the chunker.
	shortTextThreshold = 500

	// insertBatchSize bounds how many chunks go into one insert.
	insertBatchSize = 5

	// embedBatchSize groups background embedding work for logging.
	embedBatchSize = 3

	// embedInterval spaces individual embedding calls to respect
	// provider rate limits.
	embedInterval = 500 * time.Millisecond

	// synthesisedChunkLimit truncates a document that produced zero
	// chunks into one storable chunk.
	synthesisedChunkLimit = 10000

	// synthesisedExcerptLimit is the excerpt taken from oversized
	// documents when synthesising a chunk.
	synthesisedExcerptLimit = 5000
)

// IndexerService turns a document's text into persisted, searchable
// chunks. Chunks land without embeddings first so text search works
// immediately; a background worker attaches vectors afterwards.
type IndexerService struct {
	chunkStore driven.ChunkStore
	embedder   driven.EmbeddingService
	chunker    *chunker.Chunker
	limiter    *rate.Limiter
	background sync.WaitGroup
}

// NewIndexerService creates an indexer. The embedder is expected to be
// the provider chain, so embedding calls degrade rather than fail.
func NewIndexerService(
	chunkStore driven.ChunkStore,
	embedder driven.EmbeddingService,
	ck *chunker.Chunker,
) *IndexerService {
	if ck == nil {
		ck = chunker.New()
	}
	return &IndexerService{
		chunkStore: chunkStore,
		embedder:   embedder,
		chunker:    ck,
		limiter:    rate.NewLimiter(rate.Every(embedInterval), 1),
	}
}

// SetEmbedInterval overrides the spacing between embedding calls.
// Tests use this to avoid real delays.
func (s *IndexerService) SetEmbedInterval(d time.Duration) {
	if d > 0 {
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// Index chunks, persists, and (in the background) embeds a document.
// A document that already has chunks is left untouched; reprocessing
// goes through Reindex. Pipeline failures are logged and absorbed: at
// worst one fallback chunk is written so the document stays searchable.
func (s *IndexerService) Index(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	count, err := s.chunkStore.CountByDocument(ctx, doc.ID)
	if err != nil {
		logger.Warn("indexer: chunk count check for %s failed: %v", doc.ID, err)
	}
	if count > 0 {
		logger.Debug("indexer: document %s already has %d chunks, skipping", doc.ID, count)
		return nil
	}

	s.process(ctx, doc)
	return nil
}

// Reindex deletes a document's chunks and indexes it afresh. This is
// the only sanctioned way to reprocess a document.
func (s *IndexerService) Reindex(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.process(ctx, doc)
	return nil
}

// WaitBackground blocks until all background embedding started so far
// has finished.
func (s *IndexerService) WaitBackground() {
	s.background.Wait()
}

// process runs the full pipeline: defensive delete, chunk, persist,
// then background embedding. Errors never escape; the guaranteed
// fallback keeps the document minimally searchable.
func (s *IndexerService) process(ctx context.Context, doc *domain.Document) {
	logger.Section("Indexing " + doc.ID)

	// Clear stale chunks from any partial prior run.
	if err := s.chunkStore.DeleteByDocument(ctx, doc.ID); err != nil {
		logger.Warn("indexer: clearing stale chunks for %s: %v", doc.ID, err)
	}

	chunks := s.buildChunks(doc)
	if len(chunks) == 0 {
		logger.Warn("indexer: document %s produced no chunks", doc.ID)
		return
	}
	logger.Debug("indexer: document %s split into %d chunks", doc.ID, len(chunks))

	persisted := s.persistChunks(ctx, doc.ID, chunks)
	if len(persisted) == 0 {
		// Catastrophic failure: every batch was rejected. Write one
		// best-effort chunk so the document is never left unsearchable.
		fallback := chunks[0]
		fallback.Index = 0
		if err := s.chunkStore.InsertChunks(ctx, []domain.Chunk{fallback}); err != nil {
			logger.Error("indexer: fallback chunk for %s failed: %v", doc.ID, err)
			return
		}
		persisted = []domain.Chunk{fallback}
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.embedChunks(persisted)
	}()
}

// buildChunks produces the chunk set for a document. Short documents
// become one chunk directly; a zero-chunk outcome is repaired by
// synthesising a truncated chunk.
func (s *IndexerService) buildChunks(doc *domain.Document) []domain.Chunk {
	text := strings.TrimSpace(doc.Content)
	if text == "" {
		return nil
	}

	var pieces []string
	if len([]rune(text)) < shortTextThreshold {
		pieces = []string{text}
	} else {
		pieces = s.chunker.Split(text)
		if len(pieces) == 0 {
			pieces = []string{synthesiseChunk(text)}
		}
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Title:      doc.Title,
			Content:    piece,
		}
	}
	return chunks
}

// synthesiseChunk truncates text that defeated the chunker into one
// storable chunk.
func synthesiseChunk(text string) string {
	runes := []rune(text)
	if len(runes) <= synthesisedChunkLimit {
		return string(runes[:min(len(runes), synthesisedChunkLimit)])
	}
	return string(runes[:synthesisedExcerptLimit]) + "..."
}

// persistChunks stores chunks in batches. A failed batch is logged and
// skipped; later batches still run, so partial persistence beats none.
func (s *IndexerService) persistChunks(ctx context.Context, docID string, chunks []domain.Chunk) []domain.Chunk {
	var persisted []domain.Chunk

	for start := 0; start < len(chunks); start += insertBatchSize {
		end := min(start+insertBatchSize, len(chunks))
		batch := chunks[start:end]

		if err := s.chunkStore.InsertChunks(ctx, batch); err != nil {
			logger.Warn("indexer: batch %d-%d for %s failed: %v", start, end-1, docID, err)
			continue
		}
		persisted = append(persisted, batch...)
	}

	logger.Debug("indexer: persisted %d/%d chunks for %s", len(persisted), len(chunks), docID)
	return persisted
}

// embedChunks attaches vectors to persisted chunks, strictly in
// ascending index order with a fixed delay between calls. Individual
// failures are logged and skipped; they never abort the batch.
func (s *IndexerService) embedChunks(chunks []domain.Chunk) {
	ctx := context.Background()

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		logger.Debug("indexer: embedding chunks %d-%d of %d", start, end-1, len(chunks))

		for _, chunk := range chunks[start:end] {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}

			vec, err := s.embedder.Embed(ctx, chunk.Content)
			if err != nil {
				logger.Warn("indexer: embedding chunk %d of %s failed: %v",
					chunk.Index, chunk.DocumentID, err)
				continue
			}

			if err := s.chunkStore.UpdateEmbedding(ctx, chunk.DocumentID, chunk.Index, vec); err != nil {
				logger.Warn("indexer: storing embedding for chunk %d of %s failed: %v",
					chunk.Index, chunk.DocumentID, err)
			}
		}
	}
}
