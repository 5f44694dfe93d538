package document

import (
	"errors"
	"path/filepath"
	"strings"
)

// Page 按页组织的提取结果
// DOCX等没有分页概念的格式整体作为第1页
type Page struct {
	Number int    // 页码，从1开始
	Text   string // 该页的原始文本
}

// Parser 文档解析器接口
// 负责把不同格式的文档解析成按页划分的纯文本
type Parser interface {
	// ParsePages 解析文档，返回按页划分的文本
	ParsePages(filePath string) ([]Page, error)
}

// MinDocumentTextLen 文档提取文本的最低字符数
// 低于该值视为扫描件/纯图片PDF，直接拒绝而不发起模型调用
const MinDocumentTextLen = 100

var (
	// ErrUnsupportedType 不支持的文档类型
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrTextTooShort 提取文本过短，疑似扫描件或纯图片文档
	ErrTextTooShort = errors.New("extracted text too short: document appears to be scanned or image-based")

	// ErrParseFailed 文档本身无法解析（损坏或加密）
	ErrParseFailed = errors.New("document could not be parsed")
)

// ContentType 表示文档的内容类型
type ContentType string

const (
	// PDF 文档类型
	PDF ContentType = "pdf"
	// DOCX 文档类型
	DOCX ContentType = "docx"
	// Markdown 文档类型
	Markdown ContentType = "markdown"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// ParserFactory 解析器工厂函数，根据文件类型创建对应的解析器
func ParserFactory(filePath string) (Parser, error) {
	contentType := detectContentType(filePath)

	switch contentType {
	case PDF:
		return NewPDFParser(), nil
	case DOCX:
		return NewDOCXParser(), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	default:
		return nil, ErrUnsupportedType
	}
}

// detectContentType 根据文件扩展名检测内容类型
func detectContentType(filePath string) ContentType {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}

// ParseDocument 解析文档并校验提取文本的最低长度
// 所有页的文本加起来低于MinDocumentTextLen时返回ErrTextTooShort
func ParseDocument(filePath string) ([]Page, error) {
	parser, err := ParserFactory(filePath)
	if err != nil {
		return nil, err
	}

	pages, err := parser.ParsePages(filePath)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, p := range pages {
		total += len(strings.TrimSpace(p.Text))
	}
	if total < MinDocumentTextLen {
		return nil, ErrTextTooShort
	}

	return pages, nil
}
