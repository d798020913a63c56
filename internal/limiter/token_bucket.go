package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBucketLimiter 基于 Redis 的令牌桶，多实例共享同一个桶
type TokenBucketLimiter struct {
	client    redis.Cmdable
	config    Config
	keyPrefix string
	now       func() time.Time
}

// NewTokenBucketLimiter 创建令牌桶限流器
func NewTokenBucketLimiter(client redis.Cmdable, config *Config) (*TokenBucketLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required: %w", ErrInvalidConfig)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	cfg := *config
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "limiter:tb"
	}

	return &TokenBucketLimiter{
		client:    client,
		config:    cfg,
		keyPrefix: cfg.KeyPrefix,
		now:       time.Now,
	}, nil
}

// KEYS[1] 桶 key；ARGV: 容量、每窗口补充数、窗口秒数、请求令牌数、当前时间戳
// 返回 {是否允许, 剩余令牌, 重试秒数}
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local now = tonumber(ARGV[5])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or now

local elapsed = math.max(0, now - last_refill)
local refill = math.floor(elapsed * rate / window)
if refill > 0 then
    tokens = math.min(capacity, tokens + refill)
    last_refill = now
end

local allowed = 0
local retry_after = 0
if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
else
    retry_after = math.ceil((requested - tokens) * window / rate)
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
redis.call('EXPIRE', key, window * 2)

return {allowed, tokens, retry_after}
`)

func (tb *TokenBucketLimiter) getKey(key string) string {
	return fmt.Sprintf("%s:%s", tb.keyPrefix, key)
}

// Allow 检查是否允许请求通过
func (tb *TokenBucketLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return tb.AllowN(ctx, key, 1)
}

// AllowN 原子地尝试取出 n 个令牌
func (tb *TokenBucketLimiter) AllowN(ctx context.Context, key string, n int64) (*LimitResult, error) {
	values, err := tokenBucketScript.Run(ctx, tb.client,
		[]string{tb.getKey(key)},
		tb.config.Burst,
		tb.config.Rate,
		int64(tb.config.Window.Seconds()),
		n,
		tb.now().Unix(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to execute token bucket script: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected token bucket result: %v", values)
	}

	return &LimitResult{
		Allowed:    values[0] == 1,
		Remaining:  values[1],
		RetryAfter: time.Duration(values[2]) * time.Second,
	}, nil
}

// Reset 删除桶，下次请求时重新装满
func (tb *TokenBucketLimiter) Reset(ctx context.Context, key string) error {
	if err := tb.client.Del(ctx, tb.getKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset token bucket: %w", err)
	}
	return nil
}

// GetInfo 读取桶状态但不消耗令牌
func (tb *TokenBucketLimiter) GetInfo(ctx context.Context, key string) (*LimitInfo, error) {
	values, err := tb.client.HMGet(ctx, tb.getKey(key), "tokens", "last_refill").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token bucket info: %w", err)
	}

	now := tb.now().Unix()
	tokens := tb.config.Burst
	lastRefill := now
	if v, ok := parseInt(values, 0); ok {
		tokens = v
	}
	if v, ok := parseInt(values, 1); ok {
		lastRefill = v
	}

	window := int64(tb.config.Window.Seconds())
	current := tokens + (now-lastRefill)*tb.config.Rate/window
	if current > tb.config.Burst {
		current = tb.config.Burst
	}

	missing := tb.config.Burst - current
	refillSeconds := (missing*window + tb.config.Rate - 1) / tb.config.Rate

	return &LimitInfo{
		Limit:     tb.config.Burst,
		Remaining: current,
		Window:    tb.config.Window,
		ResetTime: time.Unix(now+refillSeconds, 0),
	}, nil
}

func parseInt(values []interface{}, i int) (int64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	s, ok := values[i].(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
