package analysis

import "regexp"

// 数字要素的固定匹配模式：货币、百分比、数量单位、年份区间
var numericPatterns = []*regexp.Regexp{
	// 货币金额：₹5,000 crore / Rs 300 / $1.2 billion / €40 million
	regexp.MustCompile(`(?:₹|Rs\.?\s?|\$|€)\d[\d,]*(?:\.\d+)?(?:\s?(?:crore|lakh|trillion|billion|million))?`),
	// 百分比：7.5% / 12 per cent
	regexp.MustCompile(`\d+(?:\.\d+)?\s?(?:%|percent|per\s?cent)`),
	// 带数量级或物理单位的数值：3.4 lakh tonnes / 500 MW / 1,200 km
	regexp.MustCompile(`\d[\d,]*(?:\.\d+)?\s?(?:crore|lakh|trillion|billion|million|tonnes?|MW|GW|kWh|km|kg|hectares?)\b`),
	// 年份区间：2024-25 / 2020–2030
	regexp.MustCompile(`\b(?:19|20)\d{2}\s?[-–]\s?(?:(?:19|20)\d{2}|\d{2})\b`),
}

// DetectNumericHighlights 从条目文本中收集数字要素，最多MaxNumericHighlights个
// 用于判断条目是否包含统计类内容并参与优先级加权
func DetectNumericHighlights(item *NewsItem) []string {
	var texts []string
	texts = append(texts, item.Title)
	for _, p := range item.Points {
		texts = append(texts, p.Text)
	}

	seen := make(map[string]bool)
	var highlights []string

	for _, text := range texts {
		for _, pattern := range numericPatterns {
			for _, match := range pattern.FindAllString(text, -1) {
				if seen[match] {
					continue
				}
				seen[match] = true
				highlights = append(highlights, match)
				if len(highlights) >= MaxNumericHighlights {
					return highlights
				}
			}
		}
	}

	return highlights
}
