package normalisers

import (
	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/normalisers/html"
	"github.com/parchment-labs/quarry/internal/normalisers/markdown"
	"github.com/parchment-labs/quarry/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects the highest-priority normaliser for each MIME type.
type Registry struct {
	byMIME map[string]driven.Normaliser
}

// NewRegistry builds a registry over the given normalisers. When two
// claim the same MIME type, the higher priority wins.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	byMIME := make(map[string]driven.Normaliser)
	for _, n := range normalisers {
		for _, mimeType := range n.SupportedMIMETypes() {
			if existing, ok := byMIME[mimeType]; ok && existing.Priority() >= n.Priority() {
				continue
			}
			byMIME[mimeType] = n
		}
	}
	return &Registry{byMIME: byMIME}
}

// Default returns the registry with every built-in normaliser.
func Default() *Registry {
	return NewRegistry(plaintext.New(), markdown.New(), html.New())
}

// ForMIMEType returns the normaliser registered for the type.
func (r *Registry) ForMIMEType(mimeType string) (driven.Normaliser, error) {
	n, ok := r.byMIME[mimeType]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return n, nil
}
