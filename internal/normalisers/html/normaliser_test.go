package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

func normalise(t *testing.T, content string) *domain.Document {
	t.Helper()
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      "/site/about-us.html",
		MIMEType: "text/html",
		Content:  []byte(content),
	})
	require.NoError(t, err)
	return doc
}

func TestNormaliser_Normalise_TitleFromTag(t *testing.T) {
	doc := normalise(t, "<html><head><title>About &amp; Contact</title></head><body><p>Hello.</p></body></html>")

	assert.Equal(t, "About & Contact", doc.Title)
	assert.Equal(t, "Hello.", doc.Content)
}

func TestNormaliser_Normalise_TitleFromFilename(t *testing.T) {
	doc := normalise(t, "<p>No title tag.</p>")

	assert.Equal(t, "about us", doc.Title)
}

func TestNormaliser_Normalise_StripsScriptsAndStyles(t *testing.T) {
	doc := normalise(t, `<body>
		<script>alert("evil")</script>
		<style>body { color: red }</style>
		<p>Visible text.</p>
		<!-- a comment -->
	</body>`)

	assert.Equal(t, "Visible text.", doc.Content)
}

func TestNormaliser_Normalise_BlockElementsBecomeLines(t *testing.T) {
	doc := normalise(t, "<div>first</div><div>second</div><br>third")

	assert.Contains(t, doc.Content, "first\n")
	assert.Contains(t, doc.Content, "second\n")
	assert.Contains(t, doc.Content, "third")
}

func TestNormaliser_Normalise_NilInput(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
