package limiter

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL 桶空闲超过该时间即被回收
const idleTTL = 10 * time.Minute

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter 进程内令牌桶，每个 key 一个 rate.Limiter
type LocalLimiter struct {
	config Config
	limit  rate.Limit
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*localBucket
	lastSweep time.Time
}

// NewLocalLimiter 创建进程内限流器
func NewLocalLimiter(config *Config) (*LocalLimiter, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &LocalLimiter{
		config:  *config,
		limit:   rate.Every(config.Window / time.Duration(config.Rate)),
		now:     time.Now,
		buckets: make(map[string]*localBucket),
	}, nil
}

func (l *LocalLimiter) bucket(key string, now time.Time) *rate.Limiter {
	if now.Sub(l.lastSweep) > idleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(l.limit, int(l.config.Burst))}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Allow 检查是否允许请求通过
func (l *LocalLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return l.AllowN(ctx, key, 1)
}

// AllowN 尝试取出 n 个令牌，不足时不消耗并给出重试时间
func (l *LocalLimiter) AllowN(_ context.Context, key string, n int64) (*LimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	lim := l.bucket(key, now)

	r := lim.ReserveN(now, int(n))
	if !r.OK() {
		return &LimitResult{Allowed: false, Remaining: remaining(lim, now), RetryAfter: l.config.Window}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &LimitResult{Allowed: false, Remaining: remaining(lim, now), RetryAfter: delay}, nil
	}
	return &LimitResult{Allowed: true, Remaining: remaining(lim, now)}, nil
}

// Reset 丢弃 key 的桶
func (l *LocalLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
	return nil
}

// GetInfo 读取桶状态但不消耗令牌
func (l *LocalLimiter) GetInfo(_ context.Context, key string) (*LimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	info := &LimitInfo{Limit: l.config.Burst, Remaining: l.config.Burst, Window: l.config.Window, ResetTime: now}
	b, ok := l.buckets[key]
	if !ok {
		return info, nil
	}

	tokens := b.limiter.TokensAt(now)
	info.Remaining = remaining(b.limiter, now)
	missing := float64(l.config.Burst) - tokens
	if missing > 0 {
		info.ResetTime = now.Add(time.Duration(missing / float64(l.limit) * float64(time.Second)))
	}
	return info, nil
}

func remaining(lim *rate.Limiter, now time.Time) int64 {
	return int64(math.Max(0, math.Floor(lim.TokensAt(now))))
}
