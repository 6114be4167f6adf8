package driving

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// Indexer turns a document's text into persisted, searchable chunks.
type Indexer interface {
	// Index chunks, persists, and (in the background) embeds a
	// document. It is idempotent: a document that already has chunks is
	// left untouched. Pipeline failures are logged and absorbed - at
	// worst one fallback chunk is written so the document is never
	// unsearchable.
	Index(ctx context.Context, doc *domain.Document) error

	// Reindex deletes a document's chunks and indexes it afresh. This
	// is the only sanctioned way to reprocess a document.
	Reindex(ctx context.Context, doc *domain.Document) error

	// WaitBackground blocks until all background embedding started so
	// far has finished. Callers of Index never need this; it exists so
	// short-lived processes and tests can drain before exiting.
	WaitBackground()
}
