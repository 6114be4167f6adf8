package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
)

// newTestStore creates a store backed by a temp database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// testVec returns a unit vector along one axis at the system width.
func testVec(axis int) []float32 {
	v := make([]float32, domain.EmbeddingDimensions)
	v[axis] = 1
	return v
}

func saveDoc(t *testing.T, docs driven.DocumentStore, id, projectID, uri string) {
	t.Helper()
	err := docs.SaveDocument(context.Background(), &domain.Document{
		ID:        id,
		ProjectID: projectID,
		URI:       uri,
		Title:     "Title " + id,
		Content:   "Content of " + id,
	})
	require.NoError(t, err)
}

func TestNewStore_RunsMigrations(t *testing.T) {
	store := newTestStore(t)

	// Reopening the same database must be a no-op for migrations.
	reopened, err := NewStore(store.Path())
	require.NoError(t, err)
	defer reopened.Close()

	docs, err := reopened.DocumentStore().ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	saveDoc(t, docs, "doc-1", "p1", "/a.txt")

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ProjectID)
	assert.Equal(t, "/a.txt", got.URI)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestDocumentStore_SaveDocument_Upsert(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	saveDoc(t, docs, "doc-1", "p1", "/a.txt")
	first, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)

	err = docs.SaveDocument(ctx, &domain.Document{
		ID:        "doc-1",
		URI:       "/a.txt",
		Title:     "Revised",
		CreatedAt: first.CreatedAt,
	})
	require.NoError(t, err)

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Revised", got.Title)

	all, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.DocumentStore().GetDocument(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentStore_FindByURI(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	saveDoc(t, docs, "doc-1", "", "/a.txt")
	saveDoc(t, docs, "doc-2", "", "/b.txt")

	found, err := docs.FindByURI(ctx, "/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "doc-2", found.ID)

	_, err = docs.FindByURI(ctx, "/missing.txt")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentStore_ProjectDocumentIDs(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()

	saveDoc(t, docs, "doc-1", "p1", "/a.txt")
	saveDoc(t, docs, "doc-2", "p2", "/b.txt")
	saveDoc(t, docs, "doc-3", "p1", "/c.txt")

	ids, err := docs.ProjectDocumentIDs(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-3"}, ids)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	saveDoc(t, docs, "doc-1", "", "/a.txt")
	require.NoError(t, docs.DeleteDocument(ctx, "doc-1"))

	_, err := docs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestChunkStore_InsertAndRead(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	chunks := store.ChunkStore()
	ctx := context.Background()

	saveDoc(t, docs, "doc-1", "", "/a.txt")
	err := chunks.InsertChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-1", Index: 1, Title: "T", Content: "second"},
		{DocumentID: "doc-1", Index: 0, Title: "T", Content: "first", Embedding: testVec(0)},
	})
	require.NoError(t, err)

	got, err := chunks.ByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content, "chunks come back in index order")
	assert.NotEmpty(t, got[0].ID)
	assert.True(t, got[0].HasEmbedding())
	assert.Equal(t, testVec(0), got[0].Embedding, "embedding round-trips through the BLOB encoding")
	assert.False(t, got[1].HasEmbedding())

	count, err := chunks.CountByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChunkStore_UpdateEmbedding(t *testing.T) {
	store := newTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	saveDoc(t, store.DocumentStore(), "doc-1", "", "/a.txt")
	require.NoError(t, chunks.InsertChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-1", Index: 0, Content: "text"},
	}))

	require.NoError(t, chunks.UpdateEmbedding(ctx, "doc-1", 0, testVec(2)))

	got, err := chunks.ByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, testVec(2), got[0].Embedding)

	err = chunks.UpdateEmbedding(ctx, "doc-1", 7, testVec(0))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_DeleteByDocument(t *testing.T) {
	store := newTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	saveDoc(t, store.DocumentStore(), "doc-1", "", "/a.txt")
	saveDoc(t, store.DocumentStore(), "doc-2", "", "/b.txt")
	require.NoError(t, chunks.InsertChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-1", Index: 0, Content: "a"},
		{DocumentID: "doc-2", Index: 0, Content: "b"},
	}))

	require.NoError(t, chunks.DeleteByDocument(ctx, "doc-1"))

	all, err := chunks.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "doc-2", all[0].DocumentID)
}

func TestChunkStore_MatchChunks(t *testing.T) {
	store := newTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	saveDoc(t, store.DocumentStore(), "doc-1", "", "/a.txt")
	saveDoc(t, store.DocumentStore(), "doc-2", "", "/b.txt")
	require.NoError(t, chunks.InsertChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-1", Index: 0, Content: "on-axis", Embedding: testVec(0)},
		{DocumentID: "doc-1", Index: 1, Content: "orthogonal", Embedding: testVec(1)},
		{DocumentID: "doc-2", Index: 0, Content: "other doc", Embedding: testVec(0)},
		{DocumentID: "doc-2", Index: 1, Content: "unembedded"},
	}))

	t.Run("ranks above threshold", func(t *testing.T) {
		results, err := chunks.MatchChunks(ctx, testVec(0), 0.7, 10, driven.ChunkFilter{})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	})

	t.Run("single document filter", func(t *testing.T) {
		results, err := chunks.MatchChunks(ctx, testVec(0), 0.7, 10, driven.ChunkFilter{DocumentID: "doc-2"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "other doc", results[0].Content)
	})

	t.Run("document set filter", func(t *testing.T) {
		results, err := chunks.MatchChunks(ctx, testVec(0), 0.7, 10, driven.ChunkFilter{DocumentIDs: []string{"doc-1"}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-1", results[0].DocumentID)
	})

	t.Run("limit", func(t *testing.T) {
		results, err := chunks.MatchChunks(ctx, testVec(0), 0.7, 1, driven.ChunkFilter{})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestChunkStore_ByDocuments_Empty(t *testing.T) {
	store := newTestStore(t)

	chunks, err := store.ChunkStore().ByDocuments(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, chunks)
}
