package analysis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/news-analysis-system/internal/llm"
)

// 分类调用的生成参数
// 分类是路由决策而不是内容生成，所以用确定性采样和很小的输出预算
const (
	classifyMaxTokens   = 800
	classifyTemperature = float32(0.0)
	classifyTopP        = float32(0.1)

	// DefaultClassifyTimeout 分类调用默认超时，比抽取调用短
	DefaultClassifyTimeout = 30 * time.Second
)

// Classifier 基于单次轻量模型调用的chunk分类器
type Classifier struct {
	client  llm.Client     // 大模型客户端
	timeout time.Duration  // 单次调用超时
	logger  *logrus.Logger // 日志记录器
}

// NewClassifier 创建分类器
func NewClassifier(client llm.Client, logger *logrus.Logger) *Classifier {
	return &Classifier{
		client:  client,
		timeout: DefaultClassifyTimeout,
		logger:  logger,
	}
}

// WithTimeout 设置分类调用超时
func (c *Classifier) WithTimeout(timeout time.Duration) *Classifier {
	c.timeout = timeout
	return c
}

// Classify 把每个chunk映射到最合适的分类
// 任何调用或解析失败都会降级为全量映射：每个分类对应全部chunk
// 降级只记录日志，不作为错误向上传播
func (c *Classifier) Classify(ctx context.Context, chunks []Chunk) CategoryMapping {
	if len(chunks) == 0 {
		return FallbackMapping(chunks)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := BuildClassifyPrompt(chunks)
	resp, err := c.client.Generate(
		callCtx,
		prompt,
		llm.WithGenerateMaxTokens(classifyMaxTokens),
		llm.WithGenerateTemperature(classifyTemperature),
		llm.WithGenerateTopP(classifyTopP),
	)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"chunks": len(chunks),
		}).Warn("Classification call failed, falling back to all-category mapping")
		return FallbackMapping(chunks)
	}

	mapping, ok := c.parseMapping(resp.Text, chunks)
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"chunks": len(chunks),
		}).Warn("Classification output unparseable, falling back to all-category mapping")
		return FallbackMapping(chunks)
	}

	return mapping
}

// parseMapping 解析模型输出的{chunkId: category}映射
func (c *Classifier) parseMapping(text string, chunks []Chunk) (CategoryMapping, bool) {
	block, found := ExtractJSONBlock(text)
	if !found {
		return nil, false
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}

	// 合法的chunk编号集合
	known := make(map[int]bool, len(chunks))
	for _, ch := range chunks {
		known[ch.ID] = true
	}

	mapping := make(CategoryMapping, len(Categories()))
	for _, category := range Categories() {
		mapping[category] = []int{}
	}

	assigned := make(map[int]bool, len(raw))
	for key, category := range raw {
		id, err := strconv.Atoi(key)
		if err != nil || !known[id] || assigned[id] {
			continue
		}
		// 模型编出来的分类名统一收进misc
		if !IsValidCategory(category) {
			category = CategoryMisc
		}
		mapping[category] = append(mapping[category], id)
		assigned[id] = true
	}

	// 模型漏掉的chunk同样归入misc，保证没有内容被丢弃
	for _, ch := range chunks {
		if !assigned[ch.ID] {
			mapping[CategoryMisc] = append(mapping[CategoryMisc], ch.ID)
		}
	}

	return mapping, true
}
