package api

import (
	"github.com/fyerfyer/news-analysis-system/api/handler"
	"github.com/fyerfyer/news-analysis-system/api/middleware"
	"github.com/fyerfyer/news-analysis-system/api/model"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(analyzeHandler *handler.AnalyzeHandler) *gin.Engine {
	// 创建Gin路由引擎
	router := gin.New()

	// 应用全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	// 创建API分组
	api := router.Group("/api")
	{
		// 文档分析 - POST /api/analyze
		api.POST("/analyze", analyzeHandler.AnalyzeDocument)

		// 处理状态查询 - GET /api/analyze/status
		api.GET("/analyze/status", analyzeHandler.GetStatus)

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, model.NewSuccessResponse(model.HealthResponse{Status: "ok"}))
		})
	}

	return router
}

// Cors 跨域资源共享中间件
// 如果需要支持跨域请求，可以启用此中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
