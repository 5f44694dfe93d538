package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetectNumericHighlights 测试数字要素检测
func TestDetectNumericHighlights(t *testing.T) {
	t.Run("currency amounts", func(t *testing.T) {
		item := &NewsItem{
			Title: "Budget allocates ₹5,000 crore for rural roads",
			Points: []Point{
				{Text: "The scheme received $1.2 billion in external funding"},
			},
		}
		highlights := DetectNumericHighlights(item)
		assert.Contains(t, highlights, "₹5,000 crore")
		assert.Contains(t, highlights, "$1.2 billion")
	})

	t.Run("percentages", func(t *testing.T) {
		item := &NewsItem{
			Title: "GDP growth projected at 7.5%",
			Points: []Point{
				{Text: "Inflation eased to 4 per cent in the last quarter"},
			},
		}
		highlights := DetectNumericHighlights(item)
		assert.Contains(t, highlights, "7.5%")
		assert.Contains(t, highlights, "4 per cent")
	})

	t.Run("magnitude units", func(t *testing.T) {
		item := &NewsItem{
			Title: "New solar park to generate 500 MW",
			Points: []Point{
				{Text: "Wheat procurement touched 3.4 lakh tonnes this season"},
			},
		}
		highlights := DetectNumericHighlights(item)
		assert.Contains(t, highlights, "500 MW")
	})

	t.Run("year ranges", func(t *testing.T) {
		item := &NewsItem{
			Title: "Fiscal deficit target for 2024-25 revised",
		}
		highlights := DetectNumericHighlights(item)
		assert.Contains(t, highlights, "2024-25")
	})

	t.Run("no numbers", func(t *testing.T) {
		item := &NewsItem{
			Title: "Cabinet approves new education policy framework",
			Points: []Point{
				{Text: "The policy emphasises regional languages in primary schools"},
			},
		}
		assert.Empty(t, DetectNumericHighlights(item))
	})

	t.Run("capped at maximum", func(t *testing.T) {
		points := make([]Point, 0, 10)
		for i := 1; i <= 10; i++ {
			points = append(points, Point{Text: fmt.Sprintf("Grant of ₹%d00 crore approved", i)})
		}
		item := &NewsItem{Title: "Multiple grants announced", Points: points}

		highlights := DetectNumericHighlights(item)
		assert.Len(t, highlights, MaxNumericHighlights)
	})

	t.Run("duplicates collapsed", func(t *testing.T) {
		item := &NewsItem{
			Title: "Growth revised upward to 7.5%",
			Points: []Point{
				{Text: "The 7.5% projection assumes a normal monsoon"},
			},
		}
		highlights := DetectNumericHighlights(item)
		assert.Equal(t, []string{"7.5%"}, highlights)
	})
}
