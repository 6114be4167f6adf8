package chunker

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, c.overlap)
		}
		if c.minChunkSize != DefaultMinChunkSize {
			t.Errorf("expected minChunkSize %d, got %d", DefaultMinChunkSize, c.minChunkSize)
		}
		if c.maxChunks != DefaultMaxChunks {
			t.Errorf("expected maxChunks %d, got %d", DefaultMaxChunks, c.maxChunks)
		}
	})

	t.Run("custom options", func(t *testing.T) {
		c := New(WithChunkSize(500), WithOverlap(100), WithMinChunkSize(10), WithMaxChunks(5))
		if c.chunkSize != 500 || c.overlap != 100 || c.minChunkSize != 10 || c.maxChunks != 5 {
			t.Errorf("options not applied: %+v", c)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1), WithMaxChunks(0))
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.chunkSize)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
		if c.maxChunks != DefaultMaxChunks {
			t.Errorf("expected default maxChunks, got %d", c.maxChunks)
		}
	})
}

func TestChunker_Split_ShortDocument(t *testing.T) {
	c := New()

	t.Run("empty text produces no chunks", func(t *testing.T) {
		if got := c.Split(""); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("whitespace-only text produces no chunks", func(t *testing.T) {
		if got := c.Split("   \n\t  "); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("short document is a single chunk", func(t *testing.T) {
		text := strings.Repeat("short notes. ", 15) // ~195 chars
		chunks := c.Split(text)

		if len(chunks) != 1 {
			t.Fatalf("expected 1 chunk, got %d", len(chunks))
		}
		if chunks[0] != strings.TrimSpace(text) {
			t.Errorf("single chunk should be the trimmed input")
		}
	})

	t.Run("tiny document is kept even below the minimum chunk size", func(t *testing.T) {
		chunks := c.Split("just a line")

		if len(chunks) != 1 || chunks[0] != "just a line" {
			t.Errorf("expected the text back, got %v", chunks)
		}
	})

	t.Run("just under the threshold stays a single chunk", func(t *testing.T) {
		text := strings.Repeat("a", 499)
		if got := c.Split(text); len(got) != 1 {
			t.Errorf("expected 1 chunk, got %d", len(got))
		}
	})
}

func TestChunker_Split_Windowing(t *testing.T) {
	c := New()

	t.Run("long document produces multiple covering chunks", func(t *testing.T) {
		var b strings.Builder
		for i := 0; b.Len() < 6000; i++ {
			b.WriteString("The portfolio rebalanced toward fixed income in the third quarter. ")
		}
		text := b.String()

		chunks := c.Split(text)

		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(chunks))
		}
		for i, chunk := range chunks {
			if len([]rune(chunk)) < DefaultMinChunkSize {
				t.Errorf("chunk %d shorter than minimum: %d", i, len(chunk))
			}
			if !strings.Contains(text, chunk) {
				t.Errorf("chunk %d is not a substring of the input", i)
			}
		}
		// Adjacent chunks overlap, so in-order coverage means each
		// chunk starts no later than where the previous one ended.
		pos := 0
		for i, chunk := range chunks {
			idx := strings.Index(text[pos:], chunk[:40])
			if idx < 0 {
				t.Fatalf("chunk %d does not continue the document", i)
			}
			pos += idx
		}
	})

	t.Run("prefers sentence boundary past 70 percent of the window", func(t *testing.T) {
		text := strings.Repeat("a", 759) + "." + strings.Repeat("b", 1000)

		chunks := c.Split(text)

		if len(chunks) == 0 {
			t.Fatal("expected chunks")
		}
		want := strings.Repeat("a", 759) + "."
		if chunks[0] != want {
			t.Errorf("expected first chunk cut at the sentence boundary, got %d chars ending %q",
				len(chunks[0]), chunks[0][len(chunks[0])-5:])
		}
	})

	t.Run("ignores sentence boundary before 70 percent of the window", func(t *testing.T) {
		text := strings.Repeat("a", 300) + "." + strings.Repeat("b", 1500)

		chunks := c.Split(text)

		if len(chunks) == 0 {
			t.Fatal("expected chunks")
		}
		if len([]rune(chunks[0])) != DefaultChunkSize {
			t.Errorf("expected raw %d-char cut, got %d", DefaultChunkSize, len(chunks[0]))
		}
	})

	t.Run("drops trailing fragment shorter than the minimum", func(t *testing.T) {
		text := strings.Repeat("a", 1000) + strings.Repeat(" ", 990) + "."

		chunks := c.Split(text)

		for i, chunk := range chunks {
			if len([]rune(chunk)) < DefaultMinChunkSize {
				t.Errorf("chunk %d below minimum survived: %q", i, chunk)
			}
		}
	})

	t.Run("caps the chunk count and drops the tail", func(t *testing.T) {
		var b strings.Builder
		for b.Len() < 40000 {
			b.WriteString("Quarterly figures held steady across all segments this period. ")
		}

		chunks := c.Split(b.String())

		if len(chunks) != DefaultMaxChunks {
			t.Errorf("expected exactly %d chunks, got %d", DefaultMaxChunks, len(chunks))
		}
	})

	t.Run("multi-byte text never splits mid-rune", func(t *testing.T) {
		text := strings.Repeat("é", 1500)

		chunks := c.Split(text)

		if len(chunks) == 0 {
			t.Fatal("expected chunks")
		}
		for i, chunk := range chunks {
			if !utf8.ValidString(chunk) {
				t.Errorf("chunk %d contains invalid UTF-8", i)
			}
		}
	})
}

// TestChunker_Split_Termination feeds adversarial overlap values: the
// clamp plus the loop guard must always yield a finite sequence.
func TestChunker_Split_Termination(t *testing.T) {
	text := strings.Repeat("sentence here. ", 400) // ~6000 chars

	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{name: "overlap equals chunk size", chunkSize: 1000, overlap: 1000},
		{name: "overlap exceeds chunk size", chunkSize: 1000, overlap: 2500},
		{name: "overlap vastly exceeds chunk size", chunkSize: 200, overlap: 100000},
		{name: "tiny chunk size", chunkSize: 10, overlap: 10},
		{name: "chunk size below the overlap margin", chunkSize: 50, overlap: 49},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithChunkSize(tt.chunkSize), WithOverlap(tt.overlap))

			done := make(chan []string, 1)
			go func() { done <- c.Split(text) }()

			select {
			case chunks := <-done:
				if len(chunks) > c.maxChunks {
					t.Errorf("chunk count %d exceeds cap %d", len(chunks), c.maxChunks)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Split did not terminate")
			}
		})
	}
}
