package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/logger"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "requestID"

// RequestID 为每个请求分配请求ID，已携带时沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID 从上下文获取请求ID
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(requestIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// RequestLogger 请求日志中间件
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.LogRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// Recovery 捕获panic并返回统一错误响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(r, debug.Stack())
				appErr := apperrors.New(apperrors.ErrUnknown)
				c.AbortWithStatusJSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, GetRequestID(c)))
			}
		}()
		c.Next()
	}
}
