package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/resp"
)

// Recovery 捕获 panic 并返回统一的 500 响应。http.ErrAbortHandler 继续向上抛出。
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				reqID, traceID := RequestIDFromContext(r.Context()), TraceIDFromContext(r.Context())
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", reqID),
					zap.ByteString("stack", debug.Stack()),
				)
				resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError,
					"Ocurrió un error inesperado, intenta de nuevo", reqID, traceID)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
