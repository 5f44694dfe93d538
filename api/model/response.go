package model

import (
	"github.com/fyerfyer/news-analysis-system/internal/analysis"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// AnalyzeResponse 文档分析响应
type AnalyzeResponse struct {
	Document *analysis.Document `json:"document"` // 分析结果文档
}

// BusyResponse 服务忙响应
type BusyResponse struct {
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty"` // 建议的重试等待秒数
}

// StatusResponse 处理状态查询响应
type StatusResponse struct {
	State                    string  `json:"state"`                               // idle 或 processing
	CooldownRemainingSeconds float64 `json:"cooldown_remaining_seconds,omitempty"` // 剩余冷却秒数
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string `json:"status"` // ok
}
