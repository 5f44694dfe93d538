package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/fyerfyer/news-analysis-system/api/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorTypeInternal 内部服务器错误类型
const ErrorTypeInternal = "INTERNAL_ERROR"

// AppError 应用错误结构体
type AppError struct {
	Type    string // 错误类型
	Message string // 错误消息
	Details string // 详细错误信息
	Code    int    // HTTP状态码
}

// Error 实现error接口的方法
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewInternalError 创建内部服务器错误
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// ErrorMiddleware 统一错误处理中间件
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 捕获 panic
		defer func() {
			if err := recover(); err != nil {
				// 获取堆栈跟踪信息
				stack := string(debug.Stack())

				// 记录错误日志
				log.WithFields(logrus.Fields{
					FieldError: err,
					"stack":    stack,
					FieldPath:  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				// 构造客户端响应
				errorResponse := model.NewErrorResponse(
					http.StatusInternalServerError,
					"An unexpected error occurred",
				)

				// 在开发环境中可以返回详细错误
				if gin.Mode() == gin.DebugMode {
					errorResponse.Message = fmt.Sprintf("Panic: %v", err)
				}

				errorResponse.TraceID = TraceID(c)

				// 中止请求处理并返回错误响应
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse)
			}
		}()

		// 处理请求
		c.Next()

		// 检查是否已经有错误被处理
		if len(c.Errors) > 0 {
			// 取最后一个错误进行处理
			err := c.Errors.Last().Err
			traceID := TraceID(c)

			// 根据错误类型进行处理
			switch e := err.(type) {
			case AppError:
				log.WithFields(logrus.Fields{
					"error_type":  e.Type,
					FieldTraceID: traceID,
					FieldPath:    c.Request.URL.Path,
				}).Error(e.Message)

				errResp := model.NewErrorResponse(e.Code, e.Message)
				errResp.TraceID = traceID

				c.JSON(e.Code, errResp)

			case *AppError:
				log.WithFields(logrus.Fields{
					"error_type":  e.Type,
					FieldTraceID: traceID,
					FieldPath:    c.Request.URL.Path,
				}).Error(e.Message)

				errResp := model.NewErrorResponse(e.Code, e.Message)
				errResp.TraceID = traceID

				c.JSON(e.Code, errResp)

			default:
				// 处理其他类型的错误（如标准库错误）
				log.WithFields(logrus.Fields{
					FieldTraceID: traceID,
					FieldPath:    c.Request.URL.Path,
				}).Error(err.Error())

				// 默认作为内部服务器错误处理
				errResp := model.NewErrorResponse(
					http.StatusInternalServerError,
					"Internal server error",
				)
				errResp.TraceID = traceID

				// 在开发环境下显示具体错误信息
				if gin.Mode() == gin.DebugMode {
					errResp.Message = err.Error()
				}

				c.JSON(http.StatusInternalServerError, errResp)
			}

			// 中止继续处理
			c.Abort()
		}
	}
}

// HandleError 在处理器中使用的错误处理辅助函数
func HandleError(c *gin.Context, err error) {
	// 添加错误到上下文中
	_ = c.Error(err)
}
