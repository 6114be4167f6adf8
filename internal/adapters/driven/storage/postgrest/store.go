// Package postgrest provides the remote datastore, speaking PostgREST
// conventions against a Supabase project. Similarity ranking happens
// server-side through the match_document_chunks RPC.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
)

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 30 * time.Second

// Store is a PostgREST-backed storage that provides access to the
// document and chunk store interfaces through wrapper types.
type Store struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// Config holds configuration for the PostgREST store.
type Config struct {
	// URL is the Supabase project base URL (required).
	URL string

	// Key is the service or anon API key (required).
	Key string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// NewStore creates a new PostgREST store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("postgrest: URL and key are required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.URL,
		apiKey:  cfg.Key,
	}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// do sends a PostgREST request and decodes the JSON response into out
// when out is non-nil.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost && out == nil {
		// Upserts don't need the row echoed back.
		req.Header.Set("Prefer", "resolution=merge-duplicates")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("postgrest request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("postgrest: %s %s returned status %d: %s",
			method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("postgrest: malformed response: %w", err)
		}
	}
	return nil
}

// documentRow is the documents table wire format.
type documentRow struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	URI         string    `json:"uri"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r documentRow) toDomain() domain.Document {
	return domain.Document{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		URI:         r.URI,
		Title:       r.Title,
		Content:     r.Content,
		ContentType: r.ContentType,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	row := documentRow{
		ID:          doc.ID,
		ProjectID:   doc.ProjectID,
		URI:         doc.URI,
		Title:       doc.Title,
		Content:     doc.Content,
		ContentType: doc.ContentType,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if err := s.store.do(ctx, http.MethodPost, "/rest/v1/documents", []documentRow{row}, nil); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.findOne(ctx, "id=eq."+url.QueryEscape(id))
}

// FindByURI retrieves a document by its source location.
func (s *documentStore) FindByURI(ctx context.Context, uri string) (*domain.Document, error) {
	return s.findOne(ctx, "uri=eq."+url.QueryEscape(uri))
}

func (s *documentStore) findOne(ctx context.Context, filter string) (*domain.Document, error) {
	var rows []documentRow
	if err := s.store.do(ctx, http.MethodGet, "/rest/v1/documents?"+filter+"&limit=1", nil, &rows); err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	doc := rows[0].toDomain()
	return &doc, nil
}

// ListDocuments returns all documents in creation order.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var rows []documentRow
	if err := s.store.do(ctx, http.MethodGet, "/rest/v1/documents?order=created_at.asc", nil, &rows); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	docs := make([]domain.Document, len(rows))
	for i, r := range rows {
		docs[i] = r.toDomain()
	}
	return docs, nil
}

// ProjectDocumentIDs returns the IDs of a project's documents.
func (s *documentStore) ProjectDocumentIDs(ctx context.Context, projectID string) ([]string, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	path := "/rest/v1/documents?select=id&project_id=eq." + url.QueryEscape(projectID) + "&order=created_at.asc"
	if err := s.store.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, fmt.Errorf("listing project documents: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// DeleteDocument removes a document.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if err := s.store.do(ctx, http.MethodDelete, "/rest/v1/documents?id=eq."+url.QueryEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Chunk Store ====================

// chunkRow is the document_chunks table wire format. Embeddings ride
// as JSON float arrays; pgvector accepts them on insert.
type chunkRow struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// matchRow is the match_document_chunks RPC result format.
type matchRow struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// InsertChunks stores a batch of chunks, assigning IDs where empty.
func (s *chunkStore) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]chunkRow, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		rows[i] = chunkRow{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			ChunkIndex: c.Index,
			Title:      c.Title,
			Content:    c.Content,
			Embedding:  c.Embedding,
		}
	}

	if err := s.store.do(ctx, http.MethodPost, "/rest/v1/document_chunks", rows, nil); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}
	return nil
}

// UpdateEmbedding attaches a vector to the chunk addressed by
// (documentID, chunkIndex).
func (s *chunkStore) UpdateEmbedding(ctx context.Context, documentID string, chunkIndex int, embedding []float32) error {
	path := fmt.Sprintf("/rest/v1/document_chunks?document_id=eq.%s&chunk_index=eq.%d",
		url.QueryEscape(documentID), chunkIndex)
	body := map[string][]float32{"embedding": embedding}
	if err := s.store.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	return nil
}

// DeleteByDocument removes every chunk belonging to a document.
func (s *chunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	path := "/rest/v1/document_chunks?document_id=eq." + url.QueryEscape(documentID)
	if err := s.store.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// CountByDocument returns the number of chunks stored for a document.
func (s *chunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	path := "/rest/v1/document_chunks?select=id&document_id=eq." + url.QueryEscape(documentID)
	if err := s.store.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return len(rows), nil
}

// ByDocument returns a document's chunks in ascending index order.
func (s *chunkStore) ByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	path := "/rest/v1/document_chunks?document_id=eq." + url.QueryEscape(documentID) + "&order=chunk_index.asc"
	return s.queryChunks(ctx, path)
}

// ByDocuments returns all chunks of the given documents in storage order.
func (s *chunkStore) ByDocuments(ctx context.Context, documentIDs []string) ([]domain.Chunk, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	in := ""
	for i, id := range documentIDs {
		if i > 0 {
			in += ","
		}
		in += url.QueryEscape(id)
	}
	path := "/rest/v1/document_chunks?document_id=in.(" + in + ")"
	return s.queryChunks(ctx, path)
}

// All returns every stored chunk in storage order.
func (s *chunkStore) All(ctx context.Context) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, "/rest/v1/document_chunks?order=document_id.asc,chunk_index.asc")
}

// MatchChunks ranks stored chunks server-side through the
// match_document_chunks RPC. Set filtering falls back to client-side
// because the RPC only understands a single optional document.
func (s *chunkStore) MatchChunks(ctx context.Context, embedding []float32, threshold float64, limit int, filter driven.ChunkFilter) ([]domain.SearchResult, error) {
	args := map[string]any{
		"query_embedding": embedding,
		"match_threshold": threshold,
		"match_count":     limit,
	}
	if filter.DocumentID != "" {
		args["document_id"] = filter.DocumentID
	}

	var rows []matchRow
	if err := s.store.do(ctx, http.MethodPost, "/rest/v1/rpc/match_document_chunks", args, &rows); err != nil {
		return nil, fmt.Errorf("matching chunks: %w", err)
	}

	var allowed map[string]bool
	if filter.DocumentID == "" && filter.DocumentIDs != nil {
		allowed = make(map[string]bool, len(filter.DocumentIDs))
		for _, id := range filter.DocumentIDs {
			allowed[id] = true
		}
	}

	var results []domain.SearchResult
	for _, r := range rows {
		if allowed != nil && !allowed[r.DocumentID] {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			ChunkIndex: r.ChunkIndex,
			Title:      r.Title,
			Content:    r.Content,
			Similarity: r.Similarity,
		})
	}
	return results, nil
}

// queryChunks runs a chunk select and converts the rows.
func (s *chunkStore) queryChunks(ctx context.Context, path string) ([]domain.Chunk, error) {
	var rows []chunkRow
	if err := s.store.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}

	chunks := make([]domain.Chunk, len(rows))
	for i, r := range rows {
		chunks[i] = domain.Chunk{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Index:      r.ChunkIndex,
			Title:      r.Title,
			Content:    r.Content,
			Embedding:  r.Embedding,
		}
	}
	return chunks, nil
}
