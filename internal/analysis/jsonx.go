package analysis

import "strings"

// ExtractJSONBlock 从模型返回的文本中定位第一个配对完整的JSON对象或数组
// 模型经常无视指令把JSON包在说明文字或者```围栏里，这里按字符扫描而不是直接Unmarshal
// 找不到时返回("", false)
func ExtractJSONBlock(text string) (string, bool) {
	start := -1
	var open, close byte

	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if text[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// StripCodeFence 去掉markdown代码围栏，保留中间内容
// ExtractJSONBlock本身可以跳过围栏，这里主要用于日志里输出干净的原始文本
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// 围栏可能带语言标记，比如```json
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
