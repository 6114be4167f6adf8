package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/parchment-labs/quarry/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// document and chunk store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified path.
// If path is empty, defaults to ~/.quarry/quarry.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".quarry", "quarry.db")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
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

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, project_id, uri, title, content, content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			uri = excluded.uri,
			title = excluded.title,
			content = excluded.content,
			content_type = excluded.content_type,
			updated_at = excluded.updated_at
	`, doc.ID, doc.ProjectID, doc.URI, doc.Title, doc.Content, doc.ContentType,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, project_id, uri, title, content, content_type, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// FindByURI retrieves a document by its source location.
func (s *documentStore) FindByURI(ctx context.Context, uri string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, project_id, uri, title, content, content_type, created_at, updated_at
		FROM documents WHERE uri = ?
	`, uri)
	return scanDocument(row)
}

// ListDocuments returns all documents in storage order.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, uri, title, content, content_type, created_at, updated_at
		FROM documents ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.ProjectID, &doc.URI, &doc.Title,
			&doc.Content, &doc.ContentType, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ProjectDocumentIDs returns the IDs of a project's documents.
func (s *documentStore) ProjectDocumentIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id FROM documents WHERE project_id = ? ORDER BY rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteDocument removes a document.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.ProjectID, &doc.URI, &doc.Title,
		&doc.Content, &doc.ContentType, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// InsertChunks stores a batch of chunks in a single transaction,
// assigning IDs where empty.
func (s *chunkStore) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (id, document_id, chunk_index, title, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.New().String()
		}
		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID,
			chunk.Index, chunk.Title, chunk.Content, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdateEmbedding attaches a vector to the chunk addressed by
// (documentID, chunkIndex).
func (s *chunkStore) UpdateEmbedding(ctx context.Context, documentID string, chunkIndex int, embedding []float32) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE document_chunks SET embedding = ?
		WHERE document_id = ? AND chunk_index = ?
	`, float32SliceToBytes(embedding), documentID, chunkIndex)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByDocument removes every chunk belonging to a document.
func (s *chunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// CountByDocument returns the number of chunks stored for a document.
func (s *chunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM document_chunks WHERE document_id = ?", documentID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// ByDocument returns a document's chunks in ascending index order.
func (s *chunkStore) ByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT id, document_id, chunk_index, title, content, embedding
		FROM document_chunks WHERE document_id = ? ORDER BY chunk_index
	`, documentID)
}

// ByDocuments returns all chunks of the given documents in storage order.
func (s *chunkStore) ByDocuments(ctx context.Context, documentIDs []string) ([]domain.Chunk, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(documentIDs)-1) + "?"
	args := make([]any, len(documentIDs))
	for i, id := range documentIDs {
		args[i] = id
	}

	return s.queryChunks(ctx, `
		SELECT id, document_id, chunk_index, title, content, embedding
		FROM document_chunks WHERE document_id IN (`+placeholders+`) ORDER BY rowid
	`, args...)
}

// All returns every stored chunk in storage order.
func (s *chunkStore) All(ctx context.Context) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT id, document_id, chunk_index, title, content, embedding
		FROM document_chunks ORDER BY rowid
	`)
}

// MatchChunks ranks stored chunks against the query embedding. The
// candidate rows are loaded and scored in Go; SQLite has no native
// vector type.
func (s *chunkStore) MatchChunks(ctx context.Context, embedding []float32, threshold float64, limit int, filter driven.ChunkFilter) ([]domain.SearchResult, error) {
	var (
		chunks []domain.Chunk
		err    error
	)
	switch {
	case filter.DocumentID != "":
		chunks, err = s.ByDocument(ctx, filter.DocumentID)
	case filter.DocumentIDs != nil:
		chunks, err = s.ByDocuments(ctx, filter.DocumentIDs)
	default:
		chunks, err = s.All(ctx)
	}
	if err != nil {
		return nil, err
	}

	var results []domain.SearchResult
	for _, c := range chunks {
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

// queryChunks runs a chunk select and scans the rows.
func (s *chunkStore) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index,
			&chunk.Title, &chunk.Content, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
