package analysis

import (
	"encoding/json"
	"strings"
	"time"
)

// 固定的9个新闻主题分类
const (
	CategoryPolity        = "polity"
	CategoryEconomy       = "economy"
	CategoryInternational = "international_relations"
	CategoryScienceTech   = "science_tech"
	CategoryEnvironment   = "environment"
	CategoryGeography     = "geography"
	CategoryCulture       = "culture"
	CategorySecurity      = "security"
	CategoryMisc          = "misc"
)

// Categories 返回全部分类名称（固定顺序）
func Categories() []string {
	return []string{
		CategoryPolity,
		CategoryEconomy,
		CategoryInternational,
		CategoryScienceTech,
		CategoryEnvironment,
		CategoryGeography,
		CategoryCulture,
		CategorySecurity,
		CategoryMisc,
	}
}

// IsValidCategory 检查分类名称是否合法
func IsValidCategory(name string) bool {
	for _, c := range Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// 分析过程中使用的固定阈值
// 历史版本中这些数值存在漂移，这里统一收敛为一组
const (
	// MinPointWords 每个要点的最少单词数，低于该值的要点被丢弃
	MinPointWords = 5
	// ConfidenceThreshold 新闻条目的最低置信度，低于该值的条目不进入结果
	ConfidenceThreshold = 0.55
	// HighConfidenceBar 高置信度分界线，用于结果摘要统计
	HighConfidenceBar = 0.70
	// MaxTitleLen 标题最大长度
	MaxTitleLen = 200
	// MaxRefExcerptLen 引用摘录最大长度
	MaxRefExcerptLen = 100
	// DedupeTitlePrefixLen 去重时比较的标题前缀长度
	DedupeTitlePrefixLen = 50
	// MaxNumericHighlights 每个条目最多保留的数字要素数量
	MaxNumericHighlights = 5
	// MaxPriorityBoost 数字要素对优先级分数的最大加成
	MaxPriorityBoost = 0.2
)

// Chunk 发送给模型的文本单元
// 由分块器从提取出的页面文本构造
type Chunk struct {
	ID        int    `json:"id"`         // 文档内唯一编号，按提取顺序递增
	Page      int    `json:"page"`       // 来源页码（从1开始）
	Text      string `json:"text"`       // 清洗后的完整段落内容
	Excerpt   string `json:"excerpt"`    // 用于分类提示词的短摘录
	WordCount int    `json:"word_count"` // 单词数量
}

// CategoryMapping 分类结果：分类名称到chunk编号集合的映射
// 所有分类键始终存在，值可能为空
type CategoryMapping map[string][]int

// FallbackMapping 构造降级映射：每个分类都映射到全部chunk
// 分类调用失败或被跳过时使用，依靠抽取阶段的置信度过滤避免结果泛滥
func FallbackMapping(chunks []Chunk) CategoryMapping {
	ids := make([]int, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}

	mapping := make(CategoryMapping, len(Categories()))
	for _, category := range Categories() {
		assigned := make([]int, len(ids))
		copy(assigned, ids)
		mapping[category] = assigned
	}
	return mapping
}

// Reference 新闻条目的证据引用
type Reference struct {
	Page      int    `json:"page"`                // 来源页码
	Excerpt   string `json:"excerpt"`             // 原文摘录
	Newspaper string `json:"newspaper,omitempty"` // 报纸名称（扩展格式）
	Date      string `json:"date,omitempty"`      // 日期（扩展格式）
	Headline  string `json:"headline,omitempty"`  // 标题（扩展格式）
}

// Point 新闻条目中的一条要点
type Point struct {
	Text       string  `json:"text"`                 // 要点内容
	Confidence float64 `json:"confidence,omitempty"` // 该要点自身的置信度（可选）
}

// UnmarshalJSON 兼容两种模型输出：纯字符串或者{text, confidence}对象
func (p *Point) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Text = s
		p.Confidence = 0
		return nil
	}

	var obj struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Text = obj.Text
	p.Confidence = obj.Confidence
	return nil
}

// NewsItem 一条抽取出的考试相关新闻条目
type NewsItem struct {
	Title             string      `json:"title"`                        // 条目标题
	Points            []Point     `json:"points"`                       // 证据支持的要点列表
	References        []Reference `json:"references"`                   // 引用来源列表
	Confidence        float64     `json:"confidence"`                   // 整体置信度 [0,1]
	HasNumbers        bool        `json:"has_numbers"`                  // 是否包含数字信息
	NumericHighlights []string    `json:"numeric_highlights,omitempty"` // 检测到的数字要素
	PriorityScore     float64     `json:"priority_score"`               // 排序用的优先级分数
}

// Summary 分析结果的摘要信息
type Summary struct {
	ChunkCount         int       `json:"chunk_count"`                 // 消耗的chunk数量
	ItemCount          int       `json:"item_count"`                  // 条目总数
	LowConfidenceCount int       `json:"low_confidence_count"`        // 低于高置信度分界线的条目数
	FailedCategories   []string  `json:"failed_categories,omitempty"` // 抽取失败的分类
	GeneratedAt        time.Time `json:"generated_at"`                // 生成时间
}

// Document 顶层分析结果
// 所有9个分类键始终存在，默认空列表；返回后不再修改
type Document struct {
	SourceFile string                `json:"source_file"` // 源文件名
	Categories map[string][]NewsItem `json:"categories"`  // 分类到条目列表的映射
	Summary    Summary               `json:"summary"`     // 摘要信息
}

// CountWords 统计文本单词数量
func CountWords(text string) int {
	return len(strings.Fields(text))
}
