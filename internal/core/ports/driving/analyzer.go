package driving

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// Analyzer produces whole-document summaries, analyses, and tags.
// Unlike retrieval-backed responses, these operations read the full
// document text and require the chat-completion provider; transient
// provider failures are retried with exponential backoff before the
// error-shaped fallback is returned.
type Analyzer interface {
	// Summarize returns a short prose summary of the document.
	Summarize(ctx context.Context, doc *domain.Document) (string, error)

	// Analyze returns a structured analysis. Malformed model output or
	// an exhausted retry budget yields domain.FallbackAnalysis, never
	// an error the caller has to branch on.
	Analyze(ctx context.Context, doc *domain.Document) (domain.Analysis, error)

	// SuggestTags proposes classification labels for the document.
	SuggestTags(ctx context.Context, doc *domain.Document) ([]string, error)
}
