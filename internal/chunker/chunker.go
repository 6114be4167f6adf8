// Package chunker splits document text into overlapping,
// sentence-boundary-aware segments sized for independent retrieval.
package chunker

import "strings"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// DefaultMinChunkSize is the smallest chunk worth keeping; shorter
// fragments are discarded.
const DefaultMinChunkSize = 50

// DefaultMaxChunks caps chunks per document to bound embedding-call
// volume. Excess chunks are dropped from the tail.
const DefaultMaxChunks = 20

// shortDocumentThreshold is the length under which a document becomes
// a single chunk without entering the sliding-window path.
const shortDocumentThreshold = 500

// boundaryFraction is how far into the window a sentence break must
// sit to be preferred over the raw boundary.
const boundaryFraction = 0.7

// overlapMargin keeps the window advancing: overlap is clamped to
// chunkSize minus this margin.
const overlapMargin = 100

// Chunker splits text into overlapping segments. Lengths are measured
// in runes so multi-byte text never gets cut mid-character.
type Chunker struct {
	chunkSize    int
	overlap      int
	minChunkSize int
	maxChunks    int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChunkSize sets the minimum retained chunk length.
func WithMinChunkSize(size int) Option {
	return func(c *Chunker) {
		if size >= 0 {
			c.minChunkSize = size
		}
	}
}

// WithMaxChunks sets the chunk-count cap.
func WithMaxChunks(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChunks = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		overlap:      DefaultOverlap,
		minChunkSize: DefaultMinChunkSize,
		maxChunks:    DefaultMaxChunks,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Split divides text into ordered, overlapping segments.
//
// Short documents become exactly one chunk. Longer text is windowed:
// each window prefers to end at the last sentence terminator or
// newline past 70% of the window, falling back to the raw boundary.
// Windows advance by the effective window length minus the overlap,
// with overlap clamped so the scan always moves forward; a guard
// aborts rather than loops if it ever would not.
func (c *Chunker) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	if len(runes) < shortDocumentThreshold {
		return []string{trimmed}
	}

	overlap := c.overlap
	if limit := c.chunkSize - overlapMargin; overlap > limit {
		overlap = limit
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []string
	start := 0

	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if brk := lastBreak(runes[start:end]); float64(brk) > float64(c.chunkSize)*boundaryFraction {
			end = start + brk + 1
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(piece)) >= c.minChunkSize {
			chunks = append(chunks, piece)
			if len(chunks) >= c.maxChunks {
				break
			}
		}

		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			// Infinite-loop guard: bail out instead of re-scanning
			// the same window forever.
			break
		}
		start = next
	}

	return chunks
}

// lastBreak returns the index of the last sentence terminator or
// newline in the window, or -1.
func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
