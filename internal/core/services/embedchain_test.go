package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/quarry/internal/adapters/driven/embedding/local"
	"github.com/parchment-labs/quarry/internal/core/domain"
)

func TestEmbeddingChain_Embed_FirstTierWins(t *testing.T) {
	primary := &stubEmbedder{embedding: unitVec(domain.EmbeddingDimensions, 0), name: "primary"}
	secondary := &stubEmbedder{embedding: unitVec(domain.EmbeddingDimensions, 1), name: "secondary"}
	chain := NewEmbeddingChain(primary, secondary)

	vec, err := chain.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, float32(1), vec[0])
	assert.Equal(t, 0, secondary.callCount())
}

func TestEmbeddingChain_Embed_FallsThroughOnError(t *testing.T) {
	primary := &stubEmbedder{err: errInjected, name: "primary"}
	secondary := &stubEmbedder{embedding: unitVec(domain.EmbeddingDimensions, 1), name: "secondary"}
	chain := NewEmbeddingChain(primary, secondary)

	vec, err := chain.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, float32(1), vec[1])
	assert.Equal(t, 1, primary.callCount())
}

func TestEmbeddingChain_Embed_RejectsWrongWidth(t *testing.T) {
	narrow := &stubEmbedder{embedding: unitVec(10, 0), name: "narrow"}
	wide := &stubEmbedder{embedding: unitVec(domain.EmbeddingDimensions, 2), name: "wide"}
	chain := NewEmbeddingChain(narrow, wide)

	vec, err := chain.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Len(t, vec, domain.EmbeddingDimensions)
	assert.Equal(t, float32(1), vec[2])
}

// Both remote tiers down: the local tier still produces a valid
// 768-wide vector, so embedding never fails.
func TestEmbeddingChain_Embed_LocalTierNeverFails(t *testing.T) {
	primary := &stubEmbedder{err: errInjected, name: "primary"}
	secondary := &stubEmbedder{err: errInjected, name: "secondary"}
	chain := NewEmbeddingChain(primary, secondary, local.New())

	vec, err := chain.Embed(context.Background(), "quarterly revenue grew by twelve percent")

	require.NoError(t, err)
	require.Len(t, vec, domain.EmbeddingDimensions)
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5, "local embedding should be unit length")
}

func TestEmbeddingChain_Embed_AllTiersFail(t *testing.T) {
	chain := NewEmbeddingChain(
		&stubEmbedder{err: errInjected, name: "a"},
		&stubEmbedder{err: errInjected, name: "b"},
	)

	_, err := chain.Embed(context.Background(), "hello")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbeddingChain_Ping_AnyTierSuffices(t *testing.T) {
	chain := NewEmbeddingChain(
		&stubEmbedder{err: errInjected, name: "down"},
		&stubEmbedder{embedding: unitVec(domain.EmbeddingDimensions, 0), name: "up"},
	)

	assert.NoError(t, chain.Ping(context.Background()))
}
