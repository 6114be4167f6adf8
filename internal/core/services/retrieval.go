package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/core/ports/driving"
	"github.com/parchment-labs/quarry/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Searcher = (*RetrievalService)(nil)

// minTermLength filters query terms for lexical scoring; shorter terms
// are too common to discriminate.
const minTermLength = 2

// fallbackSimilarity is reported for storage-order results, where no
// meaningful score exists.
const fallbackSimilarity = 0.6

// RetrievalService ranks stored chunks against a query and assembles
// the context handed to response generation. Vector similarity is the
// primary path; lexical overlap and plain storage order are fallbacks,
// so any corpus with at least one chunk in scope yields results.
type RetrievalService struct {
	chunkStore driven.ChunkStore
	docStore   driven.DocumentStore
	embedder   driven.EmbeddingService
	indexer    driving.Indexer
}

// NewRetrievalService creates a retrieval engine. The indexer is
// optional; when present, a document-scoped search over an unindexed
// document triggers on-demand indexing.
func NewRetrievalService(
	chunkStore driven.ChunkStore,
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	indexer driving.Indexer,
) *RetrievalService {
	return &RetrievalService{
		chunkStore: chunkStore,
		docStore:   docStore,
		embedder:   embedder,
		indexer:    indexer,
	}
}

// Search ranks stored chunks against the query and assembles a
// RAGContext. Results are ordered by descending similarity with ties
// kept in storage order.
func (s *RetrievalService) Search(ctx context.Context, query domain.SearchQuery) (domain.RAGContext, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q scope=%s", query.Text, query.Scope)

	query.Text = strings.TrimSpace(query.Text)
	if query.Text == "" {
		return domain.RAGContext{}, domain.ErrInvalidInput
	}
	if !query.Scope.IsValid() {
		return domain.RAGContext{}, domain.ErrInvalidScope
	}
	if query.Scope == domain.ScopeDocument && query.DocumentID == "" {
		return domain.RAGContext{}, fmt.Errorf("%w: document scope needs a document ID", domain.ErrInvalidScope)
	}
	if query.Scope == domain.ScopeProject && query.ProjectID == "" {
		return domain.RAGContext{}, fmt.Errorf("%w: project scope needs a project ID", domain.ErrInvalidScope)
	}

	return s.search(ctx, query, true)
}

// search runs one retrieval pass. retryOnEmpty gates the on-demand
// indexing path so it fires at most once per query.
func (s *RetrievalService) search(ctx context.Context, query domain.SearchQuery, retryOnEmpty bool) (domain.RAGContext, error) {
	filter, err := s.scopeFilter(ctx, query)
	if err != nil {
		return domain.RAGContext{}, err
	}

	// Document scope over an unindexed document: index on demand and
	// retry the whole search once.
	if query.Scope == domain.ScopeDocument {
		count, countErr := s.chunkStore.CountByDocument(ctx, query.DocumentID)
		if countErr == nil && count == 0 {
			if retryOnEmpty && s.indexer != nil {
				if indexed := s.indexOnDemand(ctx, query.DocumentID); indexed {
					return s.search(ctx, query, false)
				}
			}
			return s.emptyContext(query,
				"This document has no searchable content yet. It may still be processing."), nil
		}
	}

	limit := query.EffectiveLimit()
	results := s.vectorSearch(ctx, query, filter, limit)
	if len(results) == 0 {
		results, err = s.lexicalSearch(ctx, query, filter, limit)
		if err != nil {
			return domain.RAGContext{}, err
		}
	}

	if len(results) == 0 {
		return s.emptyContext(query, "No relevant content was found for this query."), nil
	}

	// Descending similarity; the stable sort keeps storage order on ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}

	logger.Info("Search: %d results", len(results))
	return domain.RAGContext{
		Query:   query.Text,
		Results: results,
		Context: domain.Flatten(results),
	}, nil
}

// scopeFilter resolves the query scope into a chunk filter. Project
// scope expands to the project's document IDs client-side, since the
// match RPC only understands a single optional document.
func (s *RetrievalService) scopeFilter(ctx context.Context, query domain.SearchQuery) (driven.ChunkFilter, error) {
	switch query.Scope {
	case domain.ScopeDocument:
		return driven.ChunkFilter{DocumentID: query.DocumentID}, nil

	case domain.ScopeProject:
		ids, err := s.docStore.ProjectDocumentIDs(ctx, query.ProjectID)
		if err != nil {
			return driven.ChunkFilter{}, fmt.Errorf("resolving project %s: %w", query.ProjectID, err)
		}
		if len(ids) == 0 {
			// A filter with a non-existent ID matches nothing, which is
			// the correct result for an empty project.
			ids = []string{""}
		}
		return driven.ChunkFilter{DocumentIDs: ids}, nil

	default:
		return driven.ChunkFilter{}, nil
	}
}

// vectorSearch embeds the query and asks the store for nearest
// neighbours. Any failure or an empty result set returns nil so the
// caller falls through to lexical scoring.
func (s *RetrievalService) vectorSearch(
	ctx context.Context, query domain.SearchQuery, filter driven.ChunkFilter, limit int,
) []domain.SearchResult {
	embedding, err := s.embedder.Embed(ctx, query.Text)
	if err != nil {
		logger.Warn("query embedding failed: %v", err)
		return nil
	}

	results, err := s.chunkStore.MatchChunks(ctx, embedding, query.Scope.Threshold(), limit, filter)
	if err != nil {
		logger.Warn("vector match failed, falling back to lexical scoring: %v", err)
		return nil
	}
	logger.Debug("vector match: %d results above %.2f", len(results), query.Scope.Threshold())
	return results
}

// lexicalSearch scores chunks by query-term occurrence counts. When
// every candidate scores zero, the first limit chunks in storage order
// are returned with a fixed similarity instead.
func (s *RetrievalService) lexicalSearch(
	ctx context.Context, query domain.SearchQuery, filter driven.ChunkFilter, limit int,
) ([]domain.SearchResult, error) {
	chunks, err := s.scopeChunks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading chunks for lexical search: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	terms := queryTerms(query.Text)
	scored := make([]domain.SearchResult, 0, len(chunks))
	anyHit := false

	for _, chunk := range chunks {
		score := lexicalScore(chunk.Content, terms)
		if score > 0 {
			anyHit = true
		}
		scored = append(scored, domain.SearchResult{
			ID:         chunk.ID,
			DocumentID: chunk.DocumentID,
			ChunkIndex: chunk.Index,
			Title:      chunk.Title,
			Content:    chunk.Content,
			Similarity: lexicalSimilarity(score),
		})
	}

	if !anyHit {
		// Document-order fallback: some result beats none.
		logger.Debug("lexical search: no term matched, returning first %d chunks", limit)
		if len(scored) > limit {
			scored = scored[:limit]
		}
		for i := range scored {
			scored[i].Similarity = fallbackSimilarity
		}
		return scored, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	logger.Debug("lexical search: %d results", len(scored))
	return scored, nil
}

// scopeChunks loads the candidate chunks for a filter in storage order.
func (s *RetrievalService) scopeChunks(ctx context.Context, filter driven.ChunkFilter) ([]domain.Chunk, error) {
	switch {
	case filter.DocumentID != "":
		return s.chunkStore.ByDocument(ctx, filter.DocumentID)
	case len(filter.DocumentIDs) > 0:
		return s.chunkStore.ByDocuments(ctx, filter.DocumentIDs)
	default:
		return s.chunkStore.All(ctx)
	}
}

// indexOnDemand fetches the document's raw text and runs the indexer
// synchronously. Returns true when indexing produced chunks to retry
// against.
func (s *RetrievalService) indexOnDemand(ctx context.Context, documentID string) bool {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("on-demand indexing: loading document %s: %v", documentID, err)
		}
		return false
	}

	logger.Info("on-demand indexing of document %s", documentID)
	if err := s.indexer.Index(ctx, doc); err != nil {
		logger.Warn("on-demand indexing of %s failed: %v", documentID, err)
		return false
	}

	count, err := s.chunkStore.CountByDocument(ctx, documentID)
	return err == nil && count > 0
}

// emptyContext builds the explanatory result for a query that matched
// nothing.
func (s *RetrievalService) emptyContext(query domain.SearchQuery, explanation string) domain.RAGContext {
	return domain.RAGContext{
		Query:   query.Text,
		Context: explanation,
	}
}

// queryTerms lower-cases and splits the query, keeping terms long
// enough to discriminate.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}

// lexicalScore counts total term occurrences in the chunk content.
func lexicalScore(content string, terms []string) int {
	lower := strings.ToLower(content)
	score := 0
	for _, term := range terms {
		score += strings.Count(lower, term)
	}
	return score
}

// lexicalSimilarity maps an occurrence count onto the [0,1] scale.
// This scale is not comparable with cosine similarity from the vector
// path; it only orders results within one lexical pass.
func lexicalSimilarity(score int) float64 {
	if score <= 0 {
		return 0
	}
	sim := float64(score) / 10
	if sim > 1 {
		sim = 1
	}
	return sim
}
