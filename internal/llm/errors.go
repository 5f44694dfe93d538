package llm

import (
	"errors"
	"fmt"
	"time"
)

// LLMError 大模型调用错误类型
type LLMError struct {
	Code     int           // 错误码
	Message  string        // 错误消息
	WaitHint time.Duration // 建议的重试等待时间（限流错误携带）
}

// Error 实现error接口
func (e LLMError) Error() string {
	return fmt.Sprintf("llm error (code=%d): %s", e.Code, e.Message)
}

// 错误码常量
const (
	ErrCodeInvalidAPIKey  = 1001 // 无效的API密钥
	ErrCodeInvalidRequest = 1002 // 无效的请求
	ErrCodeNetworkError   = 1003 // 网络连接错误
	ErrCodeRateLimited    = 1004 // 请求频率超限(429)
	ErrCodeServerError    = 1005 // 服务器错误(5xx)
	ErrCodeTimeout        = 1006 // 请求超时
	ErrCodeEmptyPrompt    = 1007 // 提示词为空
	ErrCodeAuthDenied     = 1008 // 鉴权或配额被拒(403)
)

// 错误消息常量
const (
	ErrMsgInvalidAPIKey  = "invalid API key"
	ErrMsgInvalidRequest = "invalid request parameters"
	ErrMsgRateLimited    = "too many requests, rate limit exceeded"
	ErrMsgServerError    = "server error occurred"
	ErrMsgTimeout        = "request timed out"
	ErrMsgEmptyPrompt    = "prompt cannot be empty"
	ErrMsgNetworkError   = "network connection error"
	ErrMsgAuthDenied     = "access denied by the model service"
)

// NewLLMError 创建新的大模型错误
func NewLLMError(code int, message string) LLMError {
	return LLMError{
		Code:    code,
		Message: message,
	}
}

// CodeOf 提取错误中的LLM错误码，非LLMError返回0
func CodeOf(err error) int {
	var llmErr LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Code
	}
	return 0
}

// IsRateLimited 判断是否为限流错误
func IsRateLimited(err error) bool {
	return CodeOf(err) == ErrCodeRateLimited
}

// IsAuthDenied 判断是否为鉴权/配额错误
func IsAuthDenied(err error) bool {
	return CodeOf(err) == ErrCodeAuthDenied
}
