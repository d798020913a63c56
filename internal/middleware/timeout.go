package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MorseWayne/planet_shoes/internal/resp"
)

// MsgRequestTimeout 请求整体超时时返回的提示
const MsgRequestTimeout = "La solicitud tardó demasiado, intenta de nuevo"

// Timeout 限制整个请求的处理时间，超时后取消请求上下文并写出 JSON 信封（503）。
// d <= 0 时不限制。
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := json.Marshal(resp.Response[any]{
				Code:      resp.CodeTimeout,
				Message:   MsgRequestTimeout,
				RequestID: RequestIDFromContext(r.Context()),
				TraceID:   TraceIDFromContext(r.Context()),
			})
			// 正常完成时处理器写的头会覆盖这里
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			http.TimeoutHandler(next, d, string(body)).ServeHTTP(w, r)
		})
	}
}
