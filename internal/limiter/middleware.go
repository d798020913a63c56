package limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/resp"
)

// ContextKeySessionID 认证中间件写入 gin 上下文的会话 ID
const ContextKeySessionID = "session_id"

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	// 限流器
	Limiter Limiter

	// Key生成函数
	KeyGenerator func(*gin.Context) string

	// 限流服务出错时是否放行
	FailOpen bool

	Logger *zap.Logger

	// 限流回调函数
	OnLimitReached func(*gin.Context, *LimitResult)
}

// DefaultKeyGenerator 基于客户端 IP
func DefaultKeyGenerator(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// SessionKeyGenerator 优先使用会话 ID，其次使用 IP
func SessionKeyGenerator(c *gin.Context) string {
	if sid := c.GetString(ContextKeySessionID); sid != "" {
		return fmt.Sprintf("session:%s", sid)
	}
	return DefaultKeyGenerator(c)
}

// RateLimitMiddleware 创建限流中间件
func RateLimitMiddleware(config *MiddlewareConfig) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultKeyGenerator
	}
	if config.OnLimitReached == nil {
		config.OnLimitReached = defaultOnLimitReached
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := config.KeyGenerator(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		result, err := config.Limiter.Allow(ctx, key)
		if err != nil {
			config.Logger.Error("rate limiter failed", zap.String("key", key), zap.Error(err))
			if config.FailOpen {
				c.Next()
				return
			}
			resp.Error(c.Writer, http.StatusInternalServerError, resp.CodeInternalError,
				"限流服务异常", requestID(c), traceID(c))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.FormatInt(int64(result.RetryAfter.Seconds()+0.999), 10))
			}
			config.OnLimitReached(c, result)
			c.Abort()
			return
		}

		c.Next()
	}
}

func defaultOnLimitReached(c *gin.Context, _ *LimitResult) {
	resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooManyRequests,
		"Demasiadas solicitudes, intenta de nuevo en unos momentos", requestID(c), traceID(c))
}

// OrderRateLimitMiddleware 订单提交限流：按会话计数，限流服务故障时放行
func OrderRateLimitMiddleware(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	return RateLimitMiddleware(&MiddlewareConfig{
		Limiter: limiter,
		KeyGenerator: func(c *gin.Context) string {
			return "order:" + SessionKeyGenerator(c)
		},
		FailOpen: true,
		Logger:   logger,
	})
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}
