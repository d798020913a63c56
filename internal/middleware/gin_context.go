package middleware

import (
	"github.com/gin-gonic/gin"
)

// gin 上下文中约定的键
const (
	GinKeyRequestID = "request_id"
	GinKeyTraceID   = "trace_id"
	GinKeySession   = "session"
	GinKeySessionID = "session_id"
)

// GinRequestContext 把请求 ID 与追踪 ID 写入 gin 上下文，供处理器写响应信封。
// 未经过 RequestID 中间件时退回请求头，追踪 ID 缺省时沿用请求 ID。
func GinRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		rid := RequestIDFromContext(ctx)
		if rid == "" {
			rid = sanitizeID(c.GetHeader(HeaderRequestID))
		}
		traceID := TraceIDFromContext(ctx)
		if traceID == "" {
			traceID = sanitizeID(c.GetHeader(HeaderTraceID))
		}
		if traceID == "" {
			traceID = rid
		}
		c.Set(GinKeyRequestID, rid)
		c.Set(GinKeyTraceID, traceID)
		c.Next()
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(GinKeyRequestID)
}

func getTraceID(c *gin.Context) string {
	return c.GetString(GinKeyTraceID)
}
