// Package middleware 提供 HTTP 中间件：请求 ID、恢复、超时、访问日志，
// 以及 gin 侧的会话认证与幂等检查。
package middleware

import (
	"context"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyTraceID   contextKey = "trace_id"
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

func withTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, id)
}

// RequestIDFromContext 从上下文中读取请求 ID（可能为空）。
func RequestIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(contextKeyRequestID).(string)
	return s
}

// TraceIDFromContext 从上下文中读取追踪 ID，未设置时为空
func TraceIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(contextKeyTraceID).(string)
	return s
}
