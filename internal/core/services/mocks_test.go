package services

import (
	"context"
	"errors"
	"sync"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
)

var errInjected = errors.New("injected failure")

// --- Mock implementations ---

// fakeChunkStore is an in-memory chunk store with injectable failures.
type fakeChunkStore struct {
	mu     sync.Mutex
	chunks []domain.Chunk

	insertErr    error
	insertFails  int // fail this many InsertChunks calls before succeeding
	updateErr    error
	deleteErr    error
	countErr     error
	matchErr     error
	matchResults []domain.SearchResult

	insertCalls int
	matchCalls  int
}

var _ driven.ChunkStore = (*fakeChunkStore)(nil)

func (f *fakeChunkStore) InsertChunks(_ context.Context, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.insertFails > 0 {
		f.insertFails--
		return errInjected
	}
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = "chunk-" + c.DocumentID + "-" + itoa(c.Index)
		}
		f.chunks = append(f.chunks, c)
	}
	return nil
}

func (f *fakeChunkStore) UpdateEmbedding(_ context.Context, documentID string, chunkIndex int, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.chunks {
		if f.chunks[i].DocumentID == documentID && f.chunks[i].Index == chunkIndex {
			f.chunks[i].Embedding = embedding
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeChunkStore) DeleteByDocument(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.chunks[:0]
	for _, c := range f.chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
	return nil
}

func (f *fakeChunkStore) CountByDocument(_ context.Context, documentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, c := range f.chunks {
		if c.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeChunkStore) ByDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Chunk
	for _, c := range f.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChunkStore) ByDocuments(_ context.Context, documentIDs []string) ([]domain.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		wanted[id] = true
	}
	var out []domain.Chunk
	for _, c := range f.chunks {
		if wanted[c.DocumentID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChunkStore) All(_ context.Context) ([]domain.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Chunk, len(f.chunks))
	copy(out, f.chunks)
	return out, nil
}

func (f *fakeChunkStore) MatchChunks(
	_ context.Context, _ []float32, _ float64, limit int, _ driven.ChunkFilter,
) ([]domain.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchCalls++
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	if limit > len(f.matchResults) {
		return f.matchResults, nil
	}
	return f.matchResults[:limit], nil
}

// snapshot returns a copy of the stored chunks.
func (f *fakeChunkStore) snapshot() []domain.Chunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Chunk, len(f.chunks))
	copy(out, f.chunks)
	return out
}

// fakeDocStore is an in-memory document store.
type fakeDocStore struct {
	mu   sync.Mutex
	docs []domain.Document
}

var _ driven.DocumentStore = (*fakeDocStore)(nil)

func (f *fakeDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.docs {
		if f.docs[i].ID == doc.ID {
			f.docs[i] = *doc
			return nil
		}
	}
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.docs {
		if f.docs[i].ID == id {
			doc := f.docs[i]
			return &doc, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeDocStore) FindByURI(_ context.Context, uri string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.docs {
		if f.docs[i].URI == uri {
			doc := f.docs[i]
			return &doc, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeDocStore) ProjectDocumentIDs(_ context.Context, projectID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, d := range f.docs {
		if d.ProjectID == projectID {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

func (f *fakeDocStore) DeleteDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.docs {
		if f.docs[i].ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

// stubEmbedder implements driven.EmbeddingService with a fixed vector.
type stubEmbedder struct {
	mu        sync.Mutex
	embedding []float32
	err       error
	calls     int
	name      string
}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.embedding, nil
}

func (s *stubEmbedder) Dimensions() int { return len(s.embedding) }

func (s *stubEmbedder) ModelName() string {
	if s.name != "" {
		return s.name
	}
	return "stub-embed"
}

func (s *stubEmbedder) Ping(_ context.Context) error { return s.err }
func (s *stubEmbedder) Close() error                 { return nil }

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubLLM implements driven.LLMService with scripted replies.
type stubLLM struct {
	mu      sync.Mutex
	reply   string
	errs    []error // errors returned per call, in order; nil entry = success
	calls   int
	prompts []string
}

var _ driven.LLMService = (*stubLLM)(nil)

func (s *stubLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(messages) > 0 {
		s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	}
	call := s.calls
	s.calls++
	if call < len(s.errs) && s.errs[call] != nil {
		return "", s.errs[call]
	}
	return s.reply, nil
}

func (s *stubLLM) ModelName() string           { return "stub-llm" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                { return nil }

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// unitVec builds a unit vector of the given width with weight on one
// axis, handy for cosine assertions.
func unitVec(width, axis int) []float32 {
	v := make([]float32, width)
	v[axis] = 1
	return v
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
