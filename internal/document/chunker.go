package document

import (
	"strings"
	"unicode/utf8"

	"github.com/fyerfyer/news-analysis-system/internal/analysis"
)

// ChunkerConfig 分块器配置
type ChunkerConfig struct {
	MaxChunkChars int // 单个chunk的字符上限（Token安全边界）
	MinWords      int // 页面/chunk的最少单词数，低于该值整体跳过
	ExcerptLen    int // 摘录长度上限
}

// DefaultChunkerConfig 返回默认分块器配置
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChunkChars: 4000,
		MinWords:      20,
		ExcerptLen:    100,
	}
}

// Chunker 把按页提取的文本切成Token安全、句子完整的chunk
// 上限的意义只是让每次模型调用落在安全的token预算内；
// 按句子边界切分避免证据引用被拦腰截断
type Chunker struct {
	config ChunkerConfig
}

// NewChunker 创建新的分块器
func NewChunker(config ChunkerConfig) *Chunker {
	if config.MaxChunkChars <= 0 {
		config.MaxChunkChars = DefaultChunkerConfig().MaxChunkChars
	}
	if config.MinWords <= 0 {
		config.MinWords = DefaultChunkerConfig().MinWords
	}
	if config.ExcerptLen <= 0 {
		config.ExcerptLen = DefaultChunkerConfig().ExcerptLen
	}
	return &Chunker{config: config}
}

// Chunk 把页面序列转换为chunk序列
// 编号跨页单调递增，从1开始；低于最少单词数的页面被整体跳过
func (c *Chunker) Chunk(pages []Page) []analysis.Chunk {
	var chunks []analysis.Chunk
	nextID := 1

	for _, page := range pages {
		text := Sanitize(page.Text)

		// 字数不足的页面当作广告/空白/噪声处理
		if analysis.CountWords(text) < c.config.MinWords {
			continue
		}

		for _, segment := range c.splitPage(text) {
			if analysis.CountWords(segment) < c.config.MinWords {
				continue
			}
			chunks = append(chunks, analysis.Chunk{
				ID:        nextID,
				Page:      page.Number,
				Text:      segment,
				Excerpt:   c.excerpt(segment),
				WordCount: analysis.CountWords(segment),
			})
			nextID++
		}
	}

	return chunks
}

// splitPage 把单页文本切成不超过字符上限的片段
// 页面本身在上限内时原样返回；否则按句子边界贪心累积
func (c *Chunker) splitPage(text string) []string {
	if len(text) <= c.config.MaxChunkChars {
		return []string{text}
	}

	sentences := SplitSentences(text)

	var segments []string
	var buf strings.Builder

	flush := func() {
		segment := strings.TrimSpace(buf.String())
		if segment != "" {
			segments = append(segments, segment)
		}
		buf.Reset()
	}

	for _, sentence := range sentences {
		// 超长的单句没有句子边界可用，只能按上限硬切
		if len(sentence) > c.config.MaxChunkChars {
			flush()
			for _, piece := range hardSplit(sentence, c.config.MaxChunkChars) {
				segments = append(segments, piece)
			}
			continue
		}

		// 追加会超出上限时先冲刷缓冲区，新句子开启新chunk
		if buf.Len() > 0 && buf.Len()+len(sentence)+1 > c.config.MaxChunkChars {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(sentence)
	}
	flush()

	return segments
}

// excerpt 从第一行可读内容生成短摘录
func (c *Chunker) excerpt(text string) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)

	runes := []rune(line)
	if len(runes) > c.config.ExcerptLen {
		line = string(runes[:c.config.ExcerptLen])
	}
	return line
}

// Sanitize 清洗页面文本：剥掉残留标记并规范化空白
func Sanitize(text string) string {
	if strings.Contains(text, "<") && strings.Contains(text, ">") {
		text = StripHTML(text)
	}
	return NormalizeWhitespace(text)
}

// SplitSentences 按句子终止符切分文本
// 终止符是`.` `!` `?`后面跟空白字符；句号后面不是空白时不算句子结束
// （避免把小数点、缩写里的点当成边界）
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if isSentenceTerminator(runes[i]) {
			atEnd := i == len(runes)-1
			followedBySpace := !atEnd && isSpace(runes[i+1])
			if atEnd || followedBySpace {
				sentence := strings.TrimSpace(current.String())
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				current.Reset()
			}
		}
	}

	// 最后一段可能不以终止符结束
	last := strings.TrimSpace(current.String())
	if last != "" {
		sentences = append(sentences, last)
	}

	return sentences
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// hardSplit 按固定长度硬切超长文本
// 切点回退到rune边界，避免把多字节字符（货币符号、印地语等）切成非法UTF-8
func hardSplit(text string, max int) []string {
	var pieces []string
	for len(text) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = max
		}
		pieces = append(pieces, strings.TrimSpace(text[:cut]))
		text = text[cut:]
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		pieces = append(pieces, trimmed)
	}
	return pieces
}
