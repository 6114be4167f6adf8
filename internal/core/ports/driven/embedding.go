package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Every implementation must produce vectors of domain.EmbeddingDimensions
// width; the similarity math downstream never checks widths again.
//
// Implementations include:
//   - OpenAI (text-embedding-3-small, requested at 768 dimensions)
//   - Gemini (text-embedding-004, outputDimensionality 768)
//   - Local deterministic feature embedding (no network, never fails)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup to report which tiers are live.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
