package llmjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Run("plain JSON object passes through", func(t *testing.T) {
		res := Extract(`{"summary":"fine"}`)

		require.True(t, res.OK)
		assert.Equal(t, `{"summary":"fine"}`, res.JSON)
	})

	t.Run("strips code fence with language tag", func(t *testing.T) {
		raw := "```json\n{\"tags\":[\"finance\"]}\n```"

		res := Extract(raw)

		require.True(t, res.OK)
		assert.Equal(t, `{"tags":["finance"]}`, res.JSON)
		assert.Equal(t, raw, res.Raw)
	})

	t.Run("strips bare code fence", func(t *testing.T) {
		res := Extract("```\n[1, 2, 3]\n```")

		require.True(t, res.OK)
		assert.Equal(t, `[1, 2, 3]`, res.JSON)
	})

	t.Run("finds object surrounded by prose", func(t *testing.T) {
		res := Extract(`Here is the analysis you asked for: {"keyPoints":["a","b"]} — hope that helps!`)

		require.True(t, res.OK)
		assert.Equal(t, `{"keyPoints":["a","b"]}`, res.JSON)
	})

	t.Run("finds top-level array", func(t *testing.T) {
		res := Extract("The tags are:\n[\"research\", \"quarterly\"]\nas requested.")

		require.True(t, res.OK)
		assert.Equal(t, `["research", "quarterly"]`, res.JSON)
	})

	t.Run("object containing arrays keeps outer object span", func(t *testing.T) {
		res := Extract(`{"points":[1,2],"tags":["x"]}`)

		require.True(t, res.OK)
		assert.Equal(t, `{"points":[1,2],"tags":["x"]}`, res.JSON)
	})

	t.Run("malformed output keeps raw text", func(t *testing.T) {
		res := Extract("I could not produce JSON this time, sorry.")

		assert.False(t, res.OK)
		assert.Empty(t, res.JSON)
		assert.Equal(t, "I could not produce JSON this time, sorry.", res.Raw)
	})

	t.Run("truncated JSON is malformed", func(t *testing.T) {
		res := Extract(`{"summary":"cut off`)

		assert.False(t, res.OK)
	})

	t.Run("empty input is malformed", func(t *testing.T) {
		assert.False(t, Extract("").OK)
	})
}

func TestResult_Decode(t *testing.T) {
	t.Run("decodes extracted object", func(t *testing.T) {
		var out struct {
			Summary string   `json:"summary"`
			Tags    []string `json:"tags"`
		}

		res := Extract("```json\n{\"summary\":\"ok\",\"tags\":[\"a\"]}\n```")
		require.NoError(t, res.Decode(&out))

		assert.Equal(t, "ok", out.Summary)
		assert.Equal(t, []string{"a"}, out.Tags)
	})

	t.Run("fails on malformed result", func(t *testing.T) {
		var out map[string]any

		err := Extract("no json here").Decode(&out)

		assert.Error(t, err)
	})
}
