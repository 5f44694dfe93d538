package analysis

import (
	"fmt"
	"strings"
)

// ClassifyPromptTemplate 分类提示词模板
// 包含变量：
// {{.Categories}} - 分类名称列表
// {{.Chunks}} - 每个chunk的编号、页码和摘录
const ClassifyPromptTemplate = `You are routing text segments from a newspaper compilation to topic categories for exam preparation notes.

Categories: {{.Categories}}

Segments:
{{.Chunks}}

Assign every segment to the single best-fitting category.
Respond with ONLY a JSON object mapping segment id to category name, for example: {"1":"economy","2":"polity"}
Do not add explanations or markdown.`

// ExtractPromptTemplate 抽取提示词模板
// 包含变量：
// {{.Category}} - 目标分类
// {{.SourceFile}} - 源文件名
// {{.Chunks}} - 分配到该分类的chunk全文
const ExtractPromptTemplate = `You are preparing exam revision notes from newspaper text. Extract news items relevant to the category "{{.Category}}" from the source "{{.SourceFile}}".

Strict rules:
1. Use ONLY the text provided below. Never infer, extend or invent facts.
2. If nothing in the text fits the category, return {"items":[]}.
3. Every point must be directly supported by the text and cite a page excerpt.
4. Respond with ONLY a JSON object. No prose, no markdown fences.

Confidence scoring:
- 0.9-1.0 the item restates a direct quote or figure from the text
- 0.7-0.9 the item closely paraphrases the text
- 0.55-0.7 the item is supported but loosely worded
- below 0.55 do not include the item

Output format:
{"items":[{"title":"...","confidence":0.0,"points":[{"text":"...","confidence":0.0}],"references":[{"page":1,"excerpt":"..."}]}]}

Text:
{{.Chunks}}`

// BuildClassifyPrompt 构建分类提示词
func BuildClassifyPrompt(chunks []Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(fmt.Sprintf("[%d] (page %d) %s\n", c.ID, c.Page, c.Excerpt))
	}

	prompt := ClassifyPromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{.Categories}}", strings.Join(Categories(), ", "))
	prompt = strings.ReplaceAll(prompt, "{{.Chunks}}", strings.TrimRight(sb.String(), "\n"))
	return prompt
}

// BuildExtractPrompt 构建分类抽取提示词
func BuildExtractPrompt(category string, sourceFile string, chunks []Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(fmt.Sprintf("--- segment %d, page %d ---\n%s\n\n", c.ID, c.Page, c.Text))
	}

	prompt := ExtractPromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{.Category}}", category)
	prompt = strings.ReplaceAll(prompt, "{{.SourceFile}}", sourceFile)
	prompt = strings.ReplaceAll(prompt, "{{.Chunks}}", strings.TrimRight(sb.String(), "\n"))
	return prompt
}
