package middleware

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// 初始化日志配置
func init() {
	// 设置输出到标准输出
	log.SetOutput(os.Stdout)
	// 设置日志格式为JSON格式
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	// 根据环境变量设置日志级别
	if os.Getenv("DEBUG") == "true" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// Logger 日志中间件
// 记录请求信息和响应时间
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 开始时间
		start := time.Now()

		// 记录请求路径
		path := c.Request.URL.Path

		// 处理请求前
		c.Next()

		// 请求处理完成后获取结果信息
		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		// 记录日志
		log.WithFields(logrus.Fields{
			FieldStatus:   statusCode,
			FieldLatency:  latency.String(),
			FieldClientIP: clientIP,
			FieldMethod:   method,
			FieldPath:     path,
			"user_agent":  c.Request.UserAgent(),
		}).Info("HTTP request")
	}
}

// SetTraceID 将追踪ID设置到上下文和响应头中
func SetTraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头中获取追踪ID
		traceID := c.GetHeader("X-Trace-ID")

		// 如果没有，则生成一个新的
		if traceID == "" {
			traceID = uuid.New().String()
		}

		// 设置到上下文
		c.Set("TraceID", traceID)

		// 设置到响应头
		c.Header("X-Trace-ID", traceID)

		c.Next()
	}
}

// TraceID 从上下文中取出追踪ID
func TraceID(c *gin.Context) string {
	if v, exists := c.Get("TraceID"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// 常用日志字段
const (
	FieldTraceID  = "trace_id"    // 追踪ID
	FieldPath     = "path"        // 请求路径
	FieldMethod   = "method"      // 请求方法
	FieldStatus   = "status_code" // 状态码
	FieldLatency  = "latency"     // 延迟时间
	FieldClientIP = "client_ip"   // 客户端IP
	FieldError    = "error"       // 错误信息
)

// GetLogger 获取中间件共享的日志记录器
func GetLogger() *logrus.Logger {
	return log
}
