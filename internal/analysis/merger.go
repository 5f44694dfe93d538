package analysis

import (
	"sort"
	"strings"
	"time"
)

// Merge 把各分类的抽取结果合并为最终分析文档
// 初始化全部9个分类桶，同分类结果拼接后按标题前缀去重，
// 计算优先级分数并按分数降序排列，最后生成摘要信息
func Merge(sourceFile string, results map[string][]NewsItem, chunkCount int, failedCategories []string) *Document {
	doc := &Document{
		SourceFile: sourceFile,
		Categories: make(map[string][]NewsItem, len(Categories())),
	}

	itemCount := 0
	lowConfidence := 0

	for _, category := range Categories() {
		items := Deduplicate(results[category])

		for i := range items {
			items[i].PriorityScore = PriorityScore(items[i])
		}
		// 稳定排序，分数相同保持抽取顺序
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].PriorityScore > items[b].PriorityScore
		})

		for _, item := range items {
			if item.Confidence < HighConfidenceBar {
				lowConfidence++
			}
		}

		itemCount += len(items)
		doc.Categories[category] = items
	}

	doc.Summary = Summary{
		ChunkCount:         chunkCount,
		ItemCount:          itemCount,
		LowConfidenceCount: lowConfidence,
		FailedCategories:   failedCategories,
		GeneratedAt:        time.Now(),
	}

	return doc
}

// Deduplicate 按规范化的标题前缀去重，首次出现的条目保留
// 对已去重的输入再次调用结果不变
func Deduplicate(items []NewsItem) []NewsItem {
	result := make([]NewsItem, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		key := normalizeTitle(item.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, item)
	}

	return result
}

// PriorityScore 计算条目的优先级分数
// 置信度加上数字要素密度带来的有界加成，上限1.0
func PriorityScore(item NewsItem) float64 {
	boost := 0.04 * float64(len(item.NumericHighlights))
	if boost > MaxPriorityBoost {
		boost = MaxPriorityBoost
	}

	score := item.Confidence + boost
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// normalizeTitle 生成去重比较键：小写、压缩空白、截取固定前缀
func normalizeTitle(title string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(title), " "))
	runes := []rune(normalized)
	if len(runes) > DedupeTitlePrefixLen {
		normalized = string(runes[:DedupeTitlePrefixLen])
	}
	return normalized
}
