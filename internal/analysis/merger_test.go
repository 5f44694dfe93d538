package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMerge 测试结果合并
func TestMerge(t *testing.T) {
	t.Run("all category buckets always present", func(t *testing.T) {
		doc := Merge("empty.pdf", map[string][]NewsItem{}, 0, nil)

		require.NotNil(t, doc)
		assert.Equal(t, "empty.pdf", doc.SourceFile)
		assert.Len(t, doc.Categories, len(Categories()))
		for _, category := range Categories() {
			items, ok := doc.Categories[category]
			assert.True(t, ok, "category %s missing", category)
			assert.Empty(t, items)
		}
		assert.Equal(t, 0, doc.Summary.ItemCount)
	})

	t.Run("items sorted by priority score descending", func(t *testing.T) {
		results := map[string][]NewsItem{
			CategoryEconomy: {
				{Title: "Low priority item", Points: onePoint(), Confidence: 0.60},
				{Title: "High priority item", Points: onePoint(), Confidence: 0.95},
				{Title: "Mid priority item", Points: onePoint(), Confidence: 0.75},
			},
		}
		doc := Merge("news.pdf", results, 3, nil)

		items := doc.Categories[CategoryEconomy]
		require.Len(t, items, 3)
		assert.Equal(t, "High priority item", items[0].Title)
		assert.Equal(t, "Mid priority item", items[1].Title)
		assert.Equal(t, "Low priority item", items[2].Title)
		for i := 1; i < len(items); i++ {
			assert.GreaterOrEqual(t, items[i-1].PriorityScore, items[i].PriorityScore)
		}
	})

	t.Run("summary counts low confidence items", func(t *testing.T) {
		results := map[string][]NewsItem{
			CategoryPolity: {
				{Title: "Confident item", Points: onePoint(), Confidence: 0.90},
				{Title: "Borderline item", Points: onePoint(), Confidence: 0.60},
			},
			CategoryScienceTech: {
				{Title: "Another borderline item", Points: onePoint(), Confidence: 0.58},
			},
		}
		doc := Merge("news.pdf", results, 5, []string{CategoryCulture})

		assert.Equal(t, 3, doc.Summary.ItemCount)
		assert.Equal(t, 2, doc.Summary.LowConfidenceCount)
		assert.Equal(t, 5, doc.Summary.ChunkCount)
		assert.Equal(t, []string{CategoryCulture}, doc.Summary.FailedCategories)
		assert.False(t, doc.Summary.GeneratedAt.IsZero())
	})
}

// TestDeduplicate 测试按标题前缀去重
func TestDeduplicate(t *testing.T) {
	t.Run("first occurrence wins", func(t *testing.T) {
		items := []NewsItem{
			{Title: "RBI raises repo rate by 25 basis points", Confidence: 0.9},
			{Title: "rbi raises  repo rate by 25 basis points", Confidence: 0.7},
			{Title: "Cabinet clears semiconductor incentive scheme", Confidence: 0.8},
		}

		result := Deduplicate(items)
		require.Len(t, result, 2)
		assert.Equal(t, "RBI raises repo rate by 25 basis points", result[0].Title)
		assert.Equal(t, 0.9, result[0].Confidence)
	})

	t.Run("long titles compared by prefix", func(t *testing.T) {
		prefix := "Government announces a comprehensive national plan"
		items := []NewsItem{
			{Title: prefix + " for renewable energy deployment"},
			{Title: prefix + " for renewable power infrastructure"},
		}

		result := Deduplicate(items)
		assert.Len(t, result, 1)
	})

	t.Run("idempotent", func(t *testing.T) {
		items := []NewsItem{
			{Title: "First unique title here"},
			{Title: "Second unique title here"},
			{Title: "First unique title here"},
		}

		once := Deduplicate(items)
		twice := Deduplicate(once)
		assert.Equal(t, once, twice)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Deduplicate(nil))
	})
}

// TestPriorityScore 测试优先级分数计算
func TestPriorityScore(t *testing.T) {
	t.Run("confidence only", func(t *testing.T) {
		item := NewsItem{Confidence: 0.8}
		assert.InDelta(t, 0.8, PriorityScore(item), 1e-9)
	})

	t.Run("numeric boost", func(t *testing.T) {
		item := NewsItem{
			Confidence:        0.6,
			NumericHighlights: []string{"₹500 crore", "7.5%"},
		}
		assert.InDelta(t, 0.68, PriorityScore(item), 1e-9)
	})

	t.Run("boost is capped", func(t *testing.T) {
		item := NewsItem{
			Confidence:        0.6,
			NumericHighlights: []string{"1%", "2%", "3%", "4%", "5%", "6%", "7%"},
		}
		assert.InDelta(t, 0.6+MaxPriorityBoost, PriorityScore(item), 1e-9)
	})

	t.Run("score never exceeds one", func(t *testing.T) {
		item := NewsItem{
			Confidence:        0.95,
			NumericHighlights: []string{"1%", "2%", "3%", "4%", "5%"},
		}
		assert.Equal(t, 1.0, PriorityScore(item))
	})
}

func onePoint() []Point {
	return []Point{{Text: "a sufficiently long point with enough words"}}
}
