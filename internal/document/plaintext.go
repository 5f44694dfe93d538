package document

import (
	"fmt"
	"os"
	"strings"
)

// PlainTextParser 纯文本解析器
type PlainTextParser struct{}

// NewPlainTextParser 创建一个新的纯文本解析器
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// ParsePages 解析纯文本文件，整个文件作为第1页
func (p *PlainTextParser) ParsePages(filePath string) ([]Page, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %v", err)
	}

	return []Page{{Number: 1, Text: strings.TrimSpace(string(content))}}, nil
}
