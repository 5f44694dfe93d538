package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFParser PDF文档解析器
type PDFParser struct{}

// NewPDFParser 创建一个新的PDF解析器
func NewPDFParser() Parser {
	return &PDFParser{}
}

// ParsePages 解析PDF文件并按页提取文本内容
// pdfcpu把每一页的内容提取成单独的txt文件，按文件名排序后即为页序
func (p *PDFParser) ParsePages(filePath string) ([]Page, error) {
	// 创建临时目录用于存放提取的文本
	tmpDir, err := os.MkdirTemp("", "pdfcpu_extract_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	conf := model.NewDefaultConfiguration()

	// 损坏或加密的PDF在这里失败
	if err := api.ExtractContentFile(filePath, tmpDir, nil, conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted text dir: %v", err)
	}

	// 按文件名排序（页码顺序）
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var pages []Page
	pageNum := 0
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tmpDir, entry.Name()))
		if err != nil {
			continue
		}
		pageNum++
		pages = append(pages, Page{
			Number: pageNum,
			Text:   strings.TrimSpace(string(data)),
		})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no text content found in PDF", ErrParseFailed)
	}
	return pages, nil
}
