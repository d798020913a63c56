// Package limiter 提供订单提交等接口使用的限流器：
// 基于 Redis 的分布式令牌桶，以及无 Redis 时使用的进程内令牌桶。
package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidConfig 限流配置不合法
var ErrInvalidConfig = errors.New("invalid limiter config")

// LimitResult 限流结果
type LimitResult struct {
	Allowed    bool          `json:"allowed"`     // 是否允许通过
	Remaining  int64         `json:"remaining"`   // 剩余配额
	RetryAfter time.Duration `json:"retry_after"` // 建议重试时间
}

// Limiter 限流器接口
type Limiter interface {
	// Allow 检查是否允许请求通过
	Allow(ctx context.Context, key string) (*LimitResult, error)

	// AllowN 检查是否允许N个请求通过
	AllowN(ctx context.Context, key string, n int64) (*LimitResult, error)

	// Reset 重置限流状态
	Reset(ctx context.Context, key string) error

	// GetInfo 获取限流信息
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)
}

// LimitInfo 限流信息
type LimitInfo struct {
	Limit     int64         `json:"limit"`      // 桶容量
	Remaining int64         `json:"remaining"`  // 剩余令牌
	Window    time.Duration `json:"window"`     // 时间窗口
	ResetTime time.Time     `json:"reset_time"` // 桶重新装满的时间
}

// Config 限流配置：每个 Window 补充 Rate 个令牌，桶容量为 Burst
type Config struct {
	Rate      int64         `json:"rate"`
	Window    time.Duration `json:"window"`
	Burst     int64         `json:"burst"`
	KeyPrefix string        `json:"key_prefix"`
}

func (c *Config) validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.Rate <= 0 || c.Burst <= 0 || c.Window < time.Second {
		return ErrInvalidConfig
	}
	return nil
}

// LimiterType 限流器类型
type LimiterType string

const (
	TokenBucket LimiterType = "token_bucket" // Redis 令牌桶
	Local       LimiterType = "local"        // 进程内令牌桶
)

// Factory 限流器工厂
type Factory struct {
	redisClient redis.Cmdable
}

// NewFactory 创建限流器工厂，redisClient 可为 nil
func NewFactory(redisClient redis.Cmdable) *Factory {
	return &Factory{redisClient: redisClient}
}

// Create 创建指定类型的限流器。没有 Redis 客户端时总是返回进程内限流器。
func (f *Factory) Create(limiterType LimiterType, config *Config) (Limiter, error) {
	if limiterType == TokenBucket && f.redisClient != nil {
		return NewTokenBucketLimiter(f.redisClient, config)
	}
	return NewLocalLimiter(config)
}
