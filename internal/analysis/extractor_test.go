package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/news-analysis-system/internal/llm"
)

// TestExtract 测试按分类抽取新闻条目
func TestExtract(t *testing.T) {
	t.Run("valid items extracted", func(t *testing.T) {
		client := &fakeClient{response: `{
			"items": [
				{
					"title": "RBI raises repo rate",
					"confidence": 0.85,
					"points": ["The central bank raised the repo rate by 25 basis points"],
					"references": [{"page": 2, "excerpt": "RBI announced the hike on Friday"}]
				}
			]
		}`}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryEconomy, testChunks(), "news.pdf")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "RBI raises repo rate", items[0].Title)
		assert.Equal(t, 0.85, items[0].Confidence)
		require.Len(t, items[0].References, 1)
		assert.Equal(t, 2, items[0].References[0].Page)
	})

	t.Run("fenced output parsed", func(t *testing.T) {
		client := &fakeClient{response: "Here is the result:\n```json\n" +
			`{"items": [{"title": "Cabinet clears data protection rules", "confidence": 0.9, "points": ["New rules notified under the data protection act"], "references": []}]}` +
			"\n```"}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryPolity, testChunks(), "news.pdf")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("bare array accepted", func(t *testing.T) {
		client := &fakeClient{response: `[{"title": "Monsoon covers entire country", "confidence": 0.7, "points": ["The monsoon covered all states ahead of schedule"], "references": []}]`}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryGeography, testChunks(), "news.pdf")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("low confidence items dropped", func(t *testing.T) {
		client := &fakeClient{response: `{"items": [
			{"title": "Weak speculative item", "confidence": 0.3, "points": ["This claim has very little textual support"], "references": []},
			{"title": "Solid item", "confidence": 0.8, "points": ["This claim is well supported by the source text"], "references": []}
		]}`}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryEconomy, testChunks(), "news.pdf")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Solid item", items[0].Title)
	})

	t.Run("short points dropped and empty items discarded", func(t *testing.T) {
		client := &fakeClient{response: `{"items": [
			{"title": "Item with only stub points", "confidence": 0.9, "points": ["too short", "also tiny"], "references": []},
			{"title": "Item with one real point", "confidence": 0.9, "points": ["short one", "a genuine point with enough words to keep"], "references": []}
		]}`}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryPolity, testChunks(), "news.pdf")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Item with one real point", items[0].Title)
		assert.Len(t, items[0].Points, 1)
	})

	t.Run("point objects with confidence accepted", func(t *testing.T) {
		client := &fakeClient{response: `{"items": [
			{"title": "Mixed point formats", "confidence": 0.8, "points": [
				{"text": "an object formatted point with enough words", "confidence": 0.9},
				"a plain string point with enough words here"
			], "references": []}
		]}`}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryMisc, testChunks(), "news.pdf")
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Len(t, items[0].Points, 2)
		assert.Equal(t, 0.9, items[0].Points[0].Confidence)
	})

	t.Run("confidence clamped and fields truncated", func(t *testing.T) {
		longTitle := strings.Repeat("t", MaxTitleLen+50)
		longExcerpt := strings.Repeat("e", MaxRefExcerptLen+50)
		client := &fakeClient{response: `{"items": [
			{"title": "` + longTitle + `", "confidence": 1.7, "points": ["a valid point with plenty of words included"], "references": [{"page": 0, "excerpt": "` + longExcerpt + `"}]}
		]}`}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryEconomy, testChunks(), "news.pdf")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Len(t, items[0].Title, MaxTitleLen)
		assert.Equal(t, 1.0, items[0].Confidence)
		assert.Len(t, items[0].References[0].Excerpt, MaxRefExcerptLen)
		assert.Equal(t, 1, items[0].References[0].Page)
	})

	t.Run("numeric highlights computed", func(t *testing.T) {
		client := &fakeClient{response: `{"items": [
			{"title": "Allocation of ₹2,000 crore cleared", "confidence": 0.8, "points": ["The outlay grew 12% over the previous year"], "references": []}
		]}`}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryEconomy, testChunks(), "news.pdf")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, items[0].HasNumbers)
		assert.NotEmpty(t, items[0].NumericHighlights)
	})

	t.Run("unparseable output degrades to empty result", func(t *testing.T) {
		client := &fakeClient{response: "I could not find any news items in the provided text."}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategoryCulture, testChunks(), "news.pdf")
		require.NoError(t, err)
		assert.Empty(t, items)
		// 解析失败不重试模型
		assert.Equal(t, 1, client.calls)
	})

	t.Run("call failure returned to caller", func(t *testing.T) {
		client := &fakeClient{err: llm.NewLLMError(llm.ErrCodeRateLimited, llm.ErrMsgRateLimited)}
		extractor := NewExtractor(client, testLogger())

		_, err := extractor.Extract(context.Background(), CategoryEconomy, testChunks(), "news.pdf")
		require.Error(t, err)
		assert.True(t, llm.IsRateLimited(err))
	})

	t.Run("no chunks skips the model call", func(t *testing.T) {
		client := &fakeClient{response: `{"items": []}`}
		extractor := NewExtractor(client, testLogger())

		items, err := extractor.Extract(context.Background(), CategorySecurity, nil, "news.pdf")
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, 0, client.calls)
	})
}
