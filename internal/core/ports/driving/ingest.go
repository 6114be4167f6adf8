package driving

import "context"

// Ingestor feeds documents from a connector through normalisation and
// into the indexing pipeline.
type Ingestor interface {
	// IngestDirectory syncs every readable text file under path,
	// returning the number of documents indexed. Individual file
	// failures are logged and skipped.
	IngestDirectory(ctx context.Context, path, projectID string) (int, error)

	// WatchDirectory ingests path, then blocks processing change
	// events until ctx is cancelled.
	WatchDirectory(ctx context.Context, path, projectID string) error
}
