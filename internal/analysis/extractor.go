package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/news-analysis-system/internal/llm"
)

// 抽取调用的生成参数
const (
	extractMaxTokens   = 2000
	extractTemperature = float32(0.3)

	// DefaultExtractTimeout 抽取调用默认超时
	// 抽取要生成完整内容，超时比分类调用长
	DefaultExtractTimeout = 90 * time.Second
)

// Extractor 按分类抽取新闻条目
type Extractor struct {
	client    llm.Client     // 大模型客户端
	timeout   time.Duration  // 单次调用超时
	threshold float64        // 条目最低置信度
	logger    *logrus.Logger // 日志记录器
}

// NewExtractor 创建抽取器
func NewExtractor(client llm.Client, logger *logrus.Logger) *Extractor {
	return &Extractor{
		client:    client,
		timeout:   DefaultExtractTimeout,
		threshold: ConfidenceThreshold,
		logger:    logger,
	}
}

// WithTimeout 设置抽取调用超时
func (e *Extractor) WithTimeout(timeout time.Duration) *Extractor {
	e.timeout = timeout
	return e
}

// WithThreshold 设置条目最低置信度
func (e *Extractor) WithThreshold(threshold float64) *Extractor {
	e.threshold = threshold
	return e
}

// rawItem 模型输出的条目结构，解析后再做校验过滤
type rawItem struct {
	Title      string      `json:"title"`
	Confidence float64     `json:"confidence"`
	Points     []Point     `json:"points"`
	References []Reference `json:"references"`
}

// rawResult 模型输出的顶层结构
type rawResult struct {
	Items []rawItem `json:"items"`
}

// Extract 针对一个分类发起一次模型调用，返回过滤后的新闻条目
// 没有chunk分配到该分类时直接跳过，不发起调用
// 调用失败向上返回错误，由调用方隔离处理，不影响其他分类
func (e *Extractor) Extract(ctx context.Context, category string, chunks []Chunk, sourceFile string) ([]NewsItem, error) {
	if len(chunks) == 0 {
		return []NewsItem{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := BuildExtractPrompt(category, sourceFile, chunks)
	resp, err := e.client.Generate(
		callCtx,
		prompt,
		llm.WithGenerateMaxTokens(extractMaxTokens),
		llm.WithGenerateTemperature(extractTemperature),
	)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed for category %s: %w", category, err)
	}

	items, err := e.parseItems(resp.Text)
	if err != nil {
		// 解析失败不重试模型，该分类降级为空结果
		e.logger.WithFields(logrus.Fields{
			"category": category,
			"error":    err.Error(),
		}).Warn("Extraction output unparseable, category degraded to empty result")
		return []NewsItem{}, nil
	}

	return items, nil
}

// parseItems 从模型输出中解析并过滤新闻条目
func (e *Extractor) parseItems(text string) ([]NewsItem, error) {
	block, found := ExtractJSONBlock(text)
	if !found {
		return nil, fmt.Errorf("no JSON object found in model output")
	}

	var result rawResult
	if err := json.Unmarshal([]byte(block), &result); err != nil {
		// 模型偶尔直接返回条目数组而不是{"items":[...]}
		var items []rawItem
		if arrErr := json.Unmarshal([]byte(block), &items); arrErr != nil {
			return nil, fmt.Errorf("failed to parse model output: %v", err)
		}
		result.Items = items
	}

	filtered := make([]NewsItem, 0, len(result.Items))
	for _, raw := range result.Items {
		item, ok := e.validateItem(raw)
		if ok {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// validateItem 应用最小内容规则，违反的条目被整体丢弃
func (e *Extractor) validateItem(raw rawItem) (NewsItem, bool) {
	if raw.Title == "" {
		return NewsItem{}, false
	}

	// 少于最少单词数的要点直接丢弃，不截断
	points := make([]Point, 0, len(raw.Points))
	for _, p := range raw.Points {
		if CountWords(p.Text) >= MinPointWords {
			p.Confidence = clamp01(p.Confidence)
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		return NewsItem{}, false
	}

	confidence := clamp01(raw.Confidence)
	if confidence < e.threshold {
		return NewsItem{}, false
	}

	references := make([]Reference, 0, len(raw.References))
	for _, ref := range raw.References {
		ref.Excerpt = truncate(ref.Excerpt, MaxRefExcerptLen)
		if ref.Page < 1 {
			ref.Page = 1
		}
		references = append(references, ref)
	}

	item := NewsItem{
		Title:      truncate(raw.Title, MaxTitleLen),
		Points:     points,
		References: references,
		Confidence: confidence,
	}
	item.NumericHighlights = DetectNumericHighlights(&item)
	item.HasNumbers = len(item.NumericHighlights) > 0

	return item, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
