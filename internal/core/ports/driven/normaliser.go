package driven

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// Normaliser transforms raw documents into indexed form.
// Each normaliser handles specific MIME types (e.g., Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Generic MIME normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms a raw document into a domain document with
	// Content populated. Chunking happens later, in the indexer.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// NormaliserRegistry selects the appropriate normaliser for a MIME type.
type NormaliserRegistry interface {
	// ForMIMEType returns the highest-priority normaliser for the type.
	// Returns domain.ErrUnsupportedType when none is registered.
	ForMIMEType(mimeType string) (Normaliser, error)
}
