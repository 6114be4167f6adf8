package domain

import "time"

// EmbeddingDimensions is the fixed width of every embedding vector in
// the system. Remote providers are asked for this dimensionality
// explicitly and the local embedder produces it by construction, so
// similarity math never has to handle mixed widths.
const EmbeddingDimensions = 768

// Document represents a unit of ingested text with metadata.
// It is the canonical representation after normalisation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// ProjectID optionally groups the document into a project.
	// Empty means the document is unassigned.
	ProjectID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// ContentType is the MIME type of the original input.
	ContentType string

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk represents a searchable slice of a document.
// Documents are split into chunks for granular retrieval.
type Chunk struct {
	// ID is the unique identifier, assigned at persistence time.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the zero-based ordinal position within the document.
	// Indexes are gap-free from 0 for any fully indexed document.
	Index int

	// Title is the parent document's title, denormalised so results
	// can be displayed without a join.
	Title string

	// Content is the text content of this chunk.
	Content string

	// Embedding is the vector representation for semantic search.
	// Nil until background embedding completes.
	Embedding []float32
}

// HasEmbedding returns true once the chunk's vector has been attached.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
