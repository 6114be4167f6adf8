package domain

import "strings"

// DefaultSearchLimit is the number of chunks retrieved for a query
// when the caller does not ask for a specific count.
const DefaultSearchLimit = 5

// SearchScope restricts retrieval to a slice of the corpus.
type SearchScope string

// Available search scopes.
const (
	// ScopeCorpus searches every stored chunk.
	ScopeCorpus SearchScope = "corpus"

	// ScopeDocument searches a single document's chunks.
	ScopeDocument SearchScope = "document"

	// ScopeProject searches the chunks of a project's documents.
	ScopeProject SearchScope = "project"
)

// IsValid returns true if the scope is recognised.
func (s SearchScope) IsValid() bool {
	switch s {
	case ScopeCorpus, ScopeDocument, ScopeProject:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s SearchScope) String() string {
	return string(s)
}

// Threshold returns the minimum vector similarity for a chunk to be
// considered relevant under this scope. Single-document search is
// deliberately looser so sparse documents still yield results;
// corpus-wide search is stricter to control noise.
func (s SearchScope) Threshold() float64 {
	switch s {
	case ScopeDocument:
		return 0.5
	case ScopeProject:
		return 0.6
	default:
		return 0.7
	}
}

// Description returns a human-readable description of the scope.
func (s SearchScope) Description() string {
	switch s {
	case ScopeCorpus:
		return "Corpus (all documents)"
	case ScopeDocument:
		return "Document (single document)"
	case ScopeProject:
		return "Project (documents in one project)"
	default:
		return "Unknown"
	}
}

// SearchQuery carries a query and its scope through the retrieval
// engine.
type SearchQuery struct {
	// Text is the user's query.
	Text string

	// Scope selects the slice of the corpus to search.
	Scope SearchScope

	// DocumentID is required when Scope is ScopeDocument.
	DocumentID string

	// ProjectID is required when Scope is ScopeProject.
	ProjectID string

	// Limit caps the number of results. Zero means DefaultSearchLimit.
	Limit int
}

// EffectiveLimit resolves the result cap, applying the default.
func (q SearchQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultSearchLimit
	}
	return q.Limit
}

// SearchResult is a query-time projection of a chunk. It is never
// persisted.
type SearchResult struct {
	// ID mirrors the chunk's identifier.
	ID string

	// DocumentID is the owning document.
	DocumentID string

	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int

	// Title is the owning document's title.
	Title string

	// Content is the chunk text.
	Content string

	// Similarity is the relevance score in [0,1]. Vector results carry
	// cosine similarity; lexical-fallback results carry a keyword
	// overlap score. The two scales are not numerically comparable.
	Similarity float64
}

// RAGContext is the retrieval outcome handed to response generation.
// It lives for a single query and is never persisted.
type RAGContext struct {
	// Query is the original user text.
	Query string

	// Results holds the relevant chunks, most relevant first.
	Results []SearchResult

	// Context is a flattened text rendering of Results, used when no
	// structured prompt builder applies.
	Context string
}

// Empty reports whether retrieval produced no relevant chunks.
func (c RAGContext) Empty() bool {
	return len(c.Results) == 0
}

// Flatten renders results as a plain text block: each chunk's title
// followed by its content, separated by blank lines.
func Flatten(results []SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if r.Title != "" {
			b.WriteString("[" + r.Title + "]\n")
		}
		b.WriteString(r.Content)
	}
	return b.String()
}
