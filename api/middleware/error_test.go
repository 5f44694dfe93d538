package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyerfyer/news-analysis-system/api/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrorMiddleware 测试统一错误处理中间件
func TestErrorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(handler gin.HandlerFunc) *gin.Engine {
		router := gin.New()
		router.Use(SetTraceID())
		router.Use(ErrorMiddleware())
		router.GET("/test", handler)
		return router
	}

	doGet := func(router *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("app error rendered with its status code", func(t *testing.T) {
		router := newRouter(func(c *gin.Context) {
			HandleError(c, NewInternalError("处理失败", "disk full"))
		})

		w := doGet(router)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var resp model.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, "处理失败", resp.Message)
		assert.NotEmpty(t, resp.TraceID)
	})

	t.Run("plain error falls back to internal server error", func(t *testing.T) {
		router := newRouter(func(c *gin.Context) {
			HandleError(c, assert.AnError)
		})

		w := doGet(router)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("panic recovered as internal server error", func(t *testing.T) {
		router := newRouter(func(c *gin.Context) {
			panic("boom")
		})

		w := doGet(router)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var resp model.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.TraceID)
	})
}

// TestAppErrorString 测试应用错误的文本表示
func TestAppErrorString(t *testing.T) {
	withDetails := NewInternalError("处理失败", "disk full")
	assert.Equal(t, "INTERNAL_ERROR: 处理失败 (disk full)", withDetails.Error())

	noDetails := AppError{Type: ErrorTypeInternal, Message: "处理失败", Code: http.StatusInternalServerError}
	assert.Equal(t, "INTERNAL_ERROR: 处理失败", noDetails.Error())
}
