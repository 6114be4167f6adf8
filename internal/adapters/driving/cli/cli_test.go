package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

// Search Command Tests

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestSearchCmd_PrintsRankedResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "revenue")

	assert.NoError(t, err)
	assert.Contains(t, out, "[1] Q3 Report (0.91)")
	assert.Contains(t, out, "[2] Q4 Outlook (0.84)")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchJSON = false }()

	out, err := execute(t, "search", "--json", "revenue")

	assert.NoError(t, err)
	assert.Contains(t, out, `"DocumentID": "doc-1"`)
	assert.Contains(t, out, `"Similarity": 0.91`)
}

func TestSearchCmd_DocFlagNarrowsScope(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchDocID = "" }()

	stub := searchService.(*stubSearcher)
	_, err := execute(t, "search", "--doc", "doc-1", "revenue")

	assert.NoError(t, err)
	assert.Equal(t, "doc-1", stub.lastQuery.DocumentID)
}

// Ask Command Tests

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ask", "how did revenue do?")

	assert.NoError(t, err)
	assert.Contains(t, out, "Revenue grew in Q3.")
}

// Index Command Tests

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "index [path]", indexCmd.Use)
}

func TestIndexCmd_ReportsCount(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "index", "/tmp/docs")

	assert.NoError(t, err)
	assert.Contains(t, out, "Indexed 3 document(s) from /tmp/docs")
}

// Analyze Command Tests

func TestAnalyzeCmd_PrintsAnalysis(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analyze", "doc-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "A quarterly report.")
	assert.Contains(t, out, "- Revenue grew.")
	assert.Contains(t, out, "Tags: finance, quarterly")
}

func TestAnalyzeCmd_TagsOnly(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { analyzeTags = false }()

	out, err := execute(t, "analyze", "--tags", "doc-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "finance, quarterly")
	assert.NotContains(t, out, "A quarterly report.")
}

func TestAnalyzeCmd_UnknownDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "analyze", "missing")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "loading document")
}

// Documents Command Tests

func TestDocumentsCmd_ListsDocuments(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "documents")

	assert.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Q3 Report")
	assert.Contains(t, out, "4 chunk(s)")
	assert.Contains(t, out, "[project: acme]")
}

// Version Command Tests

func TestVersionCmd_PrintsVersion(t *testing.T) {
	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "quarry version")
}
