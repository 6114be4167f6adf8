package driving

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// Responder generates a prose answer for a query over retrieved
// context.
type Responder interface {
	// Respond produces an answer grounded in ragCtx. The user always
	// receives prose: provider failures degrade to a templated local
	// answer and an empty context yields processing guidance. The only
	// returned error is ctx cancellation.
	Respond(ctx context.Context, ragCtx domain.RAGContext) (string, error)
}
