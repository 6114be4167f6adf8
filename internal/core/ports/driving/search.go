package driving

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// Searcher retrieves the chunks most relevant to a query.
type Searcher interface {
	// Search ranks stored chunks against the query and assembles a
	// RAGContext. Vector similarity is preferred; lexical overlap and
	// plain storage order serve as fallbacks, so any corpus with at
	// least one chunk in scope yields a non-empty context.
	Search(ctx context.Context, query domain.SearchQuery) (domain.RAGContext, error)
}
