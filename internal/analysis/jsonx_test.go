package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractJSONBlock 测试从模型输出中提取JSON块
func TestExtractJSONBlock(t *testing.T) {
	t.Run("bare json object", func(t *testing.T) {
		block, found := ExtractJSONBlock(`{"a": 1}`)
		require.True(t, found)
		assert.Equal(t, `{"a": 1}`, block)
	})

	t.Run("json wrapped in prose", func(t *testing.T) {
		text := `Sure, here is the result you asked for:
{"1": "economy", "2": "polity"}
Hope this helps!`
		block, found := ExtractJSONBlock(text)
		require.True(t, found)
		assert.Equal(t, `{"1": "economy", "2": "polity"}`, block)
	})

	t.Run("json inside markdown fence", func(t *testing.T) {
		text := "```json\n{\"items\": []}\n```"
		block, found := ExtractJSONBlock(text)
		require.True(t, found)
		assert.Equal(t, `{"items": []}`, block)
	})

	t.Run("nested objects", func(t *testing.T) {
		text := `result: {"items": [{"title": "a", "refs": {"page": 1}}]} done`
		block, found := ExtractJSONBlock(text)
		require.True(t, found)
		assert.Equal(t, `{"items": [{"title": "a", "refs": {"page": 1}}]}`, block)
	})

	t.Run("braces inside string literals", func(t *testing.T) {
		text := `{"title": "budget {2024-25} highlights"}`
		block, found := ExtractJSONBlock(text)
		require.True(t, found)
		assert.Equal(t, text, block)
	})

	t.Run("escaped quotes inside strings", func(t *testing.T) {
		text := `{"title": "the \"special\" report}"}`
		block, found := ExtractJSONBlock(text)
		require.True(t, found)
		assert.Equal(t, text, block)
	})

	t.Run("top level array", func(t *testing.T) {
		text := `[{"title": "one"}, {"title": "two"}]`
		block, found := ExtractJSONBlock(text)
		require.True(t, found)
		assert.Equal(t, text, block)
	})

	t.Run("no json at all", func(t *testing.T) {
		_, found := ExtractJSONBlock("I could not find any relevant news items.")
		assert.False(t, found)
	})

	t.Run("unbalanced braces", func(t *testing.T) {
		_, found := ExtractJSONBlock(`{"truncated": [1, 2`)
		assert.False(t, found)
	})

	t.Run("empty input", func(t *testing.T) {
		_, found := ExtractJSONBlock("")
		assert.False(t, found)
	})
}

// TestStripCodeFence 测试剥离Markdown代码围栏
func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence(`{"a": 1}`))
}
