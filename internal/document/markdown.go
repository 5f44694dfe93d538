package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser Markdown文档解析器
type MarkdownParser struct{}

// NewMarkdownParser 创建新的Markdown解析器
func NewMarkdownParser() Parser {
	return &MarkdownParser{}
}

// ParsePages 解析Markdown文件并提取文本内容，整个文件作为第1页
func (p *MarkdownParser) ParsePages(filePath string) ([]Page, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %v", err)
	}

	// 先渲染为HTML再剥掉标签，保留正文
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	doc := mdParser.Parse(content)

	htmlFlags := html.CommonFlags
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	htmlContent := markdown.Render(doc, renderer)

	plainText := StripHTML(string(htmlContent))
	return []Page{{Number: 1, Text: plainText}}, nil
}

// StripHTML 从HTML中提取纯文本
// 简化实现：块级元素转换行，其余标签直接剥掉
func StripHTML(input string) string {
	replacements := []struct {
		Old string
		New string
	}{
		{"<br>", "\n"},
		{"<br/>", "\n"},
		{"<br />", "\n"},
		{"</p>", "\n\n"},
		{"<li>", "- "},
		{"</li>", "\n"},
		{"</h1>", "\n\n"},
		{"</h2>", "\n\n"},
		{"</h3>", "\n\n"},
		{"</h4>", "\n\n"},
		{"</h5>", "\n\n"},
		{"</h6>", "\n\n"},
	}

	result := input
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.Old, r.New)
	}

	// 移除所有剩余的HTML标签
	for {
		start := strings.Index(result, "<")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], ">")
		if end == -1 {
			break
		}
		result = result[:start] + " " + result[start+end+1:]
	}

	return NormalizeWhitespace(result)
}

// NormalizeWhitespace 规范化文本中的空白符
// 行内连续空白压缩成单个空格，连续空行压缩到最多一个
func NormalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}
