package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	// HeaderTraceID 上游网关传入的追踪 ID
	HeaderTraceID = "X-Trace-ID"

	maxIDLength = 64
)

// RequestID 确保每个请求都有请求 ID 与追踪 ID：
// 请求头中的 ID 合法时沿用，否则生成 UUID；追踪 ID 缺省时等于请求 ID。
// 两者都写入响应头与请求上下文。
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := sanitizeID(r.Header.Get(HeaderRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		traceID := sanitizeID(r.Header.Get(HeaderTraceID))
		if traceID == "" {
			traceID = rid
		}

		w.Header().Set(HeaderRequestID, rid)
		w.Header().Set(HeaderTraceID, traceID)
		ctx := withTraceID(withRequestID(r.Context(), rid), traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sanitizeID 只接受字母、数字、'-'、'_'、'.'，超长或含其他字符时丢弃
func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxIDLength {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return ""
		}
	}
	return id
}
