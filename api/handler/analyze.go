package handler

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/fyerfyer/news-analysis-system/api/middleware"
	"github.com/fyerfyer/news-analysis-system/api/model"
	"github.com/fyerfyer/news-analysis-system/internal/document"
	"github.com/fyerfyer/news-analysis-system/internal/llm"
	"github.com/fyerfyer/news-analysis-system/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DefaultMaxUploadBytes 上传文件大小上限
const DefaultMaxUploadBytes int64 = 15 * 1024 * 1024

// AnalyzeHandler 处理文档分析相关的API请求
type AnalyzeHandler struct {
	analyzeService *services.AnalyzeService // 分析服务
	maxUploadBytes int64                    // 上传大小上限
	logger         *logrus.Logger           // 日志记录器
}

// NewAnalyzeHandler 创建新的分析处理器
func NewAnalyzeHandler(analyzeService *services.AnalyzeService, maxUploadBytes int64) *AnalyzeHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &AnalyzeHandler{
		analyzeService: analyzeService,
		maxUploadBytes: maxUploadBytes,
		logger:         middleware.GetLogger(),
	}
}

// AnalyzeDocument 处理文档分析请求
// POST /api/analyze
func (h *AnalyzeHandler) AnalyzeDocument(c *gin.Context) {
	// 绑定请求参数
	var req model.AnalyzeRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			middleware.FieldError: err.Error(),
		}).Warn("Invalid analyze request")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"未提供文件或请求参数无效",
		))
		return
	}

	filename := req.File.Filename

	// 检查文件类型
	if !model.IsSupportedFileType(filename) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"不支持的文件类型，仅支持 .pdf, .docx, .md, .markdown, .txt",
		))
		return
	}

	// 检查文件大小
	if req.File.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			fmt.Sprintf("文件过大，上限为%dMB", h.maxUploadBytes/(1024*1024)),
		))
		return
	}

	// 读取上传的文件内容
	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			middleware.FieldError: err.Error(),
			"filename":            filename,
		}).Error("Failed to open uploaded file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"无法打开上传的文件",
		))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			middleware.FieldError: err.Error(),
			"filename":            filename,
		}).Error("Failed to read uploaded file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"读取上传文件失败",
		))
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			fmt.Sprintf("文件过大，上限为%dMB", h.maxUploadBytes/(1024*1024)),
		))
		return
	}

	// 执行分析流水线
	doc, err := h.analyzeService.Analyze(c.Request.Context(), data, filename)
	if err != nil {
		h.respondAnalyzeError(c, filename, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.AnalyzeResponse{
		Document: doc,
	}))
}

// respondAnalyzeError 将分析错误映射为HTTP响应
func (h *AnalyzeHandler) respondAnalyzeError(c *gin.Context, filename string, err error) {
	h.logger.WithFields(logrus.Fields{
		middleware.FieldError: err.Error(),
		"filename":            filename,
	}).Warn("Document analysis failed")

	// 门卫拒绝：处理中或冷却期
	var cooldownErr *services.CooldownError
	if errors.As(err, &cooldownErr) {
		retryAfter := int(math.Ceil(cooldownErr.Remaining.Seconds()))
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		resp := model.NewErrorResponse(http.StatusTooManyRequests, "服务冷却中，请稍后重试")
		resp.Data = model.BusyResponse{RetryAfterSeconds: retryAfter}
		c.JSON(http.StatusTooManyRequests, resp)
		return
	}
	if errors.Is(err, services.ErrBusy) {
		c.JSON(http.StatusTooManyRequests, model.NewErrorResponse(
			http.StatusTooManyRequests,
			"已有分析请求在处理中，请稍后重试",
		))
		return
	}

	// 输入问题：类型不支持、文本太短、解析失败、无可用文本
	switch {
	case errors.Is(err, document.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "不支持的文件类型"))
		return
	case errors.Is(err, document.ErrTextTooShort):
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "文档未提取到足够的文本内容"))
		return
	case errors.Is(err, document.ErrParseFailed):
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "文档解析失败，文件可能已损坏"))
		return
	case errors.Is(err, services.ErrNoUsableText):
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "文档中没有可分析的文本段落"))
		return
	}

	// 模型服务问题
	if llm.IsRateLimited(err) {
		var llmErr llm.LLMError
		resp := model.NewErrorResponse(http.StatusTooManyRequests, "模型服务限流，请稍后重试")
		if errors.As(err, &llmErr) && llmErr.WaitHint > 0 {
			retryAfter := int(math.Ceil(llmErr.WaitHint.Seconds()))
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			resp.Data = model.BusyResponse{RetryAfterSeconds: retryAfter}
		}
		c.JSON(http.StatusTooManyRequests, resp)
		return
	}
	if llm.IsAuthDenied(err) {
		c.JSON(http.StatusServiceUnavailable, model.NewErrorResponse(
			http.StatusServiceUnavailable, "模型服务拒绝访问，请检查服务配置"))
		return
	}
	if llm.CodeOf(err) != 0 {
		c.JSON(http.StatusBadGateway, model.NewErrorResponse(
			http.StatusBadGateway, "模型服务暂时不可用，请稍后重试"))
		return
	}

	// 其他错误走统一错误中间件
	middleware.HandleError(c, middleware.NewInternalError("文档分析失败", err.Error()))
}

// GetStatus 查询分析服务的处理状态
// GET /api/analyze/status
func (h *AnalyzeHandler) GetStatus(c *gin.Context) {
	status := h.analyzeService.GovernorStatus()

	resp := model.StatusResponse{
		State: status.State,
	}
	if status.CooldownRemaining > 0 {
		resp.CooldownRemainingSeconds = status.CooldownRemaining.Seconds()
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}
