package driven

import (
	"context"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

// Connector reads documents from a data source.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks the connector is properly configured.
	// For filesystem, this checks the path exists and is readable.
	Validate(ctx context.Context) error

	// FullSync reads all documents from the source.
	// Returns channels for documents and errors; both close when the
	// walk finishes or ctx is cancelled.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch listens for changes. Only available if SupportsWatch.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsWatch indicates the connector can push change events.
	SupportsWatch bool

	// SupportsBinary indicates the connector handles binary content.
	// False here means binary files are skipped during sync.
	SupportsBinary bool
}
