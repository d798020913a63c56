package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/cache"
	"github.com/MorseWayne/planet_shoes/internal/resp"
)

// HeaderIdempotencyKey 客户端为每次提交生成的唯一键
const HeaderIdempotencyKey = "X-Idempotency-Key"

// IdempotencyConfig 幂等性中间件配置
type IdempotencyConfig struct {
	Store  cache.Cache
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency 对带 X-Idempotency-Key 的请求去重：同一会话内相同的键只会被处理一次。
// 处理失败（非 2xx）时释放键，允许客户端用同一个键重试。未带键的请求直接放行。
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}
		if len(key) > 128 {
			resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, "invalid idempotency key", getRequestID(c), getTraceID(c))
			c.Abort()
			return
		}

		scope := c.GetString(GinKeySessionID)
		if scope == "" {
			scope = c.ClientIP()
		}
		storeKey := "idempotency:" + scope + ":" + key

		ok, err := cfg.Store.SetNX(c.Request.Context(), storeKey, getRequestID(c), cfg.TTL)
		if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
			// 存储不可用时放行
			cfg.Logger.Warn("idempotency store failed", zap.String("key", storeKey), zap.Error(err))
			c.Next()
			return
		}
		if err == nil && !ok {
			resp.Error(c.Writer, http.StatusConflict, resp.CodeConflict,
				"Esta solicitud ya fue enviada", getRequestID(c), getTraceID(c))
			c.Abort()
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := cfg.Store.Del(ctx, storeKey); err != nil {
				cfg.Logger.Warn("idempotency release failed", zap.String("key", storeKey), zap.Error(err))
			}
		}
	}
}
