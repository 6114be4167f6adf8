package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/logger"
)

// Ensure EmbeddingChain implements the interface.
var _ driven.EmbeddingService = (*EmbeddingChain)(nil)

// EmbeddingChain walks an ordered list of embedding tiers until one
// produces a valid vector. With the local embedder as the final tier,
// Embed never fails: a remote outage only costs embedding quality,
// never pipeline completion.
type EmbeddingChain struct {
	tiers []driven.EmbeddingService
}

// NewEmbeddingChain creates a chain over the given tiers, tried in
// order. The caller is expected to place the local embedder last.
func NewEmbeddingChain(tiers ...driven.EmbeddingService) *EmbeddingChain {
	return &EmbeddingChain{tiers: tiers}
}

// Embed tries each tier in order and returns the first valid vector.
// A tier fails by returning an error or a vector of the wrong width;
// both cases fall through to the next tier.
func (c *EmbeddingChain) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for _, tier := range c.tiers {
		vec, err := tier.Embed(ctx, text)
		if err != nil {
			logger.Debug("embedding tier %s failed: %v", tier.ModelName(), err)
			lastErr = err
			continue
		}
		if len(vec) != domain.EmbeddingDimensions {
			logger.Warn("embedding tier %s returned %d dimensions, want %d",
				tier.ModelName(), len(vec), domain.EmbeddingDimensions)
			lastErr = fmt.Errorf("%s: unexpected vector width %d", tier.ModelName(), len(vec))
			continue
		}
		return vec, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, lastErr)
	}
	return nil, errors.New("embedding chain has no tiers")
}

// Dimensions returns the fixed embedding width.
func (c *EmbeddingChain) Dimensions() int {
	return domain.EmbeddingDimensions
}

// ModelName identifies the first (preferred) tier.
func (c *EmbeddingChain) ModelName() string {
	if len(c.tiers) == 0 {
		return "none"
	}
	return c.tiers[0].ModelName()
}

// Ping succeeds if any tier is reachable.
func (c *EmbeddingChain) Ping(ctx context.Context) error {
	var lastErr error
	for _, tier := range c.tiers {
		if err := tier.Ping(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// Close releases every tier.
func (c *EmbeddingChain) Close() error {
	var firstErr error
	for _, tier := range c.tiers {
		if err := tier.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
