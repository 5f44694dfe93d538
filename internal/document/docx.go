package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXParser DOCX文档解析器
// DOCX本质是一个zip包，正文在word/document.xml里
// DOCX没有原生的分页概念，整个文档作为第1页返回
type DOCXParser struct{}

// NewDOCXParser 创建一个新的DOCX解析器
func NewDOCXParser() Parser {
	return &DOCXParser{}
}

// ParsePages 解析DOCX文件并提取文本内容
func (p *DOCXParser) ParsePages(filePath string) ([]Page, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer reader.Close()

	text, err := extractDocumentText(&reader.Reader)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("%w: no text content found in DOCX", ErrParseFailed)
	}

	return []Page{{Number: 1, Text: text}}, nil
}

// extractDocumentText 从word/document.xml中提取正文文本
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrParseFailed, err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrParseFailed, err)
		}

		return parseDocumentXML(content), nil
	}
	return "", fmt.Errorf("%w: word/document.xml missing", ErrParseFailed)
}

// documentXML word/document.xml的结构
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML 从文档XML中抽取文本，段落之间用换行分隔
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}
