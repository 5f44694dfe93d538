package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// 通义千问API端点
	defaultTongyiEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
)

// TongyiClient 通义千问大模型客户端实现
type TongyiClient struct {
	apiKey      string       // API密钥
	baseURL     string       // API端点
	model       string       // 模型名称
	httpClient  *http.Client // HTTP客户端
	maxRetries  int          // 瞬时错误最大重试次数
	maxTokens   int          // 最大生成Token数
	temperature float32      // 温度参数
	topP        float32      // topP参数
}

// NewTongyiClient 创建新的通义千问大模型客户端
func NewTongyiClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTongyiEndpoint
	}

	// 单次请求的超时由调用方的context控制（分类短、抽取长）
	// 客户端级别的超时只作为兜底
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
	}

	client := &TongyiClient{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		httpClient:  httpClient,
		maxRetries:  cfg.MaxRetries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}

	return client, nil
}

// Name 返回模型名称
func (c *TongyiClient) Name() string {
	return c.model
}

// Generate 根据提示词生成回答
func (c *TongyiClient) Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}

	opts := &GenerateOptions{}
	for _, opt := range options {
		opt(opts)
	}

	// 准备请求参数
	params := &TongyiParameters{
		ResultFormat: "message", // 使用结构化返回格式
	}

	if opts.MaxTokens != nil {
		params.MaxTokens = opts.MaxTokens
	} else if c.maxTokens > 0 {
		maxTokens := c.maxTokens
		params.MaxTokens = &maxTokens
	}

	if opts.Temperature != nil {
		params.Temperature = opts.Temperature
	} else if c.temperature > 0 {
		temp := c.temperature
		params.Temperature = &temp
	}

	if opts.TopP != nil {
		params.TopP = opts.TopP
	} else if c.topP > 0 {
		topP := c.topP
		params.TopP = &topP
	}

	if opts.TopK != nil {
		params.TopK = opts.TopK
	}

	req := &TongyiRequest{
		Model: c.model,
		Input: &TongyiRequestInput{
			Messages: []Message{
				{Role: RoleUser, Content: prompt},
			},
		},
		Parameters: params,
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	return c.processResponse(resp)
}

// sendRequest 发送API请求并解析响应
// 瞬时错误交给统一重试循环，429/403/400不重试
func (c *TongyiClient) sendRequest(ctx context.Context, req *TongyiRequest) (*TongyiResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, NewLLMError(ErrCodeInvalidRequest, fmt.Sprintf("failed to marshal request: %v", err))
	}

	var tongyiResp *TongyiResponse

	err = CallWithRetry(ctx, c.maxRetries, func() error {
		// 请求体每次重建，避免重试时复用已读取的body
		httpReq, reqErr := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.baseURL,
			bytes.NewReader(jsonData),
		)
		if reqErr != nil {
			return NewLLMError(ErrCodeInvalidRequest, fmt.Sprintf("failed to create request: %v", reqErr))
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
		httpReq.Header.Set("Accept", "application/json")

		resp, doErr := c.httpClient.Do(httpReq)
		if doErr != nil {
			if ctx.Err() != nil {
				return NewLLMError(ErrCodeTimeout, ErrMsgTimeout)
			}
			return NewLLMError(ErrCodeNetworkError, fmt.Sprintf("request failed: %v", doErr))
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return NewLLMError(ErrCodeNetworkError, fmt.Sprintf("failed to read response: %v", readErr))
		}

		if resp.StatusCode != http.StatusOK {
			return classifyHTTPStatus(resp, body)
		}

		var parsed TongyiResponse
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
			return NewLLMError(ErrCodeServerError, fmt.Sprintf("failed to parse response: %v", jsonErr))
		}

		// API在200里也可能带业务错误码
		if parsed.Code != "" {
			return NewLLMError(ErrCodeServerError,
				fmt.Sprintf("API error: %s (%s)", parsed.Message, parsed.Code))
		}

		tongyiResp = &parsed
		return nil
	})

	if err != nil {
		return nil, err
	}
	return tongyiResp, nil
}

// classifyHTTPStatus 把HTTP状态码映射到错误码分类
func classifyHTTPStatus(resp *http.Response, body []byte) error {
	apiMessage := extractAPIMessage(body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		llmErr := NewLLMError(ErrCodeRateLimited, ErrMsgRateLimited)
		if wait := parseRetryAfter(resp.Header.Get("Retry-After")); wait > 0 {
			llmErr.WaitHint = wait
		}
		return llmErr
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return NewLLMError(ErrCodeAuthDenied, ErrMsgAuthDenied)
	case resp.StatusCode == http.StatusBadRequest:
		if apiMessage != "" {
			return NewLLMError(ErrCodeInvalidRequest, apiMessage)
		}
		return NewLLMError(ErrCodeInvalidRequest, ErrMsgInvalidRequest)
	case resp.StatusCode >= 500:
		return NewLLMError(ErrCodeServerError,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, apiMessage))
	default:
		return NewLLMError(ErrCodeServerError,
			fmt.Sprintf("unexpected API status %d: %s", resp.StatusCode, apiMessage))
	}
}

// extractAPIMessage 尝试从错误响应体中取出消息文本
func extractAPIMessage(body []byte) string {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		if errResp.Code != "" {
			return fmt.Sprintf("%s (%s)", errResp.Message, errResp.Code)
		}
		return errResp.Message
	}
	return string(body)
}

// parseRetryAfter 解析Retry-After响应头（只处理秒数形式）
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// processResponse 处理通义千问的响应
func (c *TongyiClient) processResponse(resp *TongyiResponse) (*Response, error) {
	result := &Response{
		ModelName:  c.model,
		TokenCount: resp.Usage.TotalTokens,
		FinishTime: time.Now(),
	}

	if resp.Output.Text != nil {
		result.Text = *resp.Output.Text
	} else if len(resp.Output.Choices) > 0 {
		result.Text = resp.Output.Choices[0].Message.Content
	} else {
		return nil, NewLLMError(ErrCodeServerError, "empty response from API")
	}

	return result, nil
}

// 在包初始化时注册通义千问客户端
func init() {
	RegisterClient("tongyi", NewTongyiClient)
}
