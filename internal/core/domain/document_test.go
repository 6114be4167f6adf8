package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk_HasEmbedding(t *testing.T) {
	t.Run("nil embedding", func(t *testing.T) {
		c := Chunk{ID: "c1", DocumentID: "d1", Index: 0, Content: "text"}
		assert.False(t, c.HasEmbedding())
	})

	t.Run("empty embedding", func(t *testing.T) {
		c := Chunk{Embedding: []float32{}}
		assert.False(t, c.HasEmbedding())
	})

	t.Run("populated embedding", func(t *testing.T) {
		c := Chunk{Embedding: make([]float32, EmbeddingDimensions)}
		assert.True(t, c.HasEmbedding())
	})
}

func TestEmbeddingDimensions(t *testing.T) {
	// The fixed width every provider and the local embedder agree on.
	assert.Equal(t, 768, EmbeddingDimensions)
}
