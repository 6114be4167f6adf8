package cli

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// setupTestServices swaps the package service vars for stubs so
// commands execute without touching storage or providers. The returned
// cleanup restores the uninitialised state.
func setupTestServices() func() {
	searchService = &stubSearcher{
		result: domain.RAGContext{
			Query: "test query",
			Results: []domain.SearchResult{
				{ID: "c1", DocumentID: "doc-1", Title: "Q3 Report", Content: "Revenue grew in the third quarter.", Similarity: 0.91},
				{ID: "c2", DocumentID: "doc-2", Title: "Q4 Outlook", Content: "Margins expected to hold.", Similarity: 0.84},
			},
		},
	}
	responderSvc = &stubResponder{answer: "Revenue grew in Q3."}
	analyzerService = &stubAnalyzer{
		analysis: domain.Analysis{
			Summary:   "A quarterly report.",
			KeyPoints: []string{"Revenue grew."},
			Tags:      []string{"finance", "quarterly"},
		},
	}
	ingestService = &stubIngestor{count: 3}
	documentService = &stubDocService{
		docs: []domain.Document{
			{ID: "doc-1", Title: "Q3 Report", ProjectID: "acme"},
		},
	}
	servicesReady = true

	return func() {
		searchService = nil
		responderSvc = nil
		analyzerService = nil
		ingestService = nil
		documentService = nil
		servicesReady = false
	}
}

type stubSearcher struct {
	result    domain.RAGContext
	lastQuery domain.SearchQuery
}

func (s *stubSearcher) Search(_ context.Context, query domain.SearchQuery) (domain.RAGContext, error) {
	s.lastQuery = query
	return s.result, nil
}

type stubResponder struct {
	answer string
}

func (s *stubResponder) Respond(_ context.Context, _ domain.RAGContext) (string, error) {
	return s.answer, nil
}

type stubAnalyzer struct {
	analysis domain.Analysis
}

func (s *stubAnalyzer) Summarize(_ context.Context, _ *domain.Document) (string, error) {
	return s.analysis.Summary, nil
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ *domain.Document) (domain.Analysis, error) {
	return s.analysis, nil
}

func (s *stubAnalyzer) SuggestTags(_ context.Context, _ *domain.Document) ([]string, error) {
	return s.analysis.Tags, nil
}

type stubIngestor struct {
	count    int
	lastPath string
}

func (s *stubIngestor) IngestDirectory(_ context.Context, path, _ string) (int, error) {
	s.lastPath = path
	return s.count, nil
}

func (s *stubIngestor) WatchDirectory(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

type stubDocService struct {
	docs []domain.Document
}

func (s *stubDocService) List(_ context.Context) ([]domain.Document, error) {
	return s.docs, nil
}

func (s *stubDocService) Get(_ context.Context, documentID string) (*domain.Document, error) {
	for i := range s.docs {
		if s.docs[i].ID == documentID {
			return &s.docs[i], nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (s *stubDocService) ChunkCount(_ context.Context, _ string) (int, error) {
	return 4, nil
}
