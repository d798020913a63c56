package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewTokenBucketLimiter(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	tests := []struct {
		name       string
		config     *Config
		wantErr    bool
		wantPrefix string
	}{
		{
			name:       "valid config",
			config:     &Config{Rate: 10, Window: time.Minute, Burst: 20, KeyPrefix: "test:tb"},
			wantPrefix: "test:tb",
		},
		{
			name:       "empty key prefix",
			config:     &Config{Rate: 10, Window: time.Minute, Burst: 20},
			wantPrefix: "limiter:tb",
		},
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name:    "window below one second",
			config:  &Config{Rate: 10, Window: 500 * time.Millisecond, Burst: 20},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewTokenBucketLimiter(client, tt.config)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTokenBucketLimiter() unexpected error = %v", err)
			}
			if limiter.keyPrefix != tt.wantPrefix {
				t.Errorf("keyPrefix = %v, want %v", limiter.keyPrefix, tt.wantPrefix)
			}
		})
	}

	if _, err := NewTokenBucketLimiter(nil, &Config{Rate: 1, Window: time.Second, Burst: 1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil client should be rejected, got %v", err)
	}
}

func TestTokenBucketLimiter_Redis(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	limiter, err := NewTokenBucketLimiter(client, &Config{Rate: 6, Window: time.Minute, Burst: 3, KeyPrefix: "test:tb"})
	if err != nil {
		t.Fatalf("NewTokenBucketLimiter() error = %v", err)
	}
	now := time.Now()
	limiter.now = func() time.Time { return now }

	key := "session:limit-test"
	_ = limiter.Reset(ctx, key)
	t.Cleanup(func() { _ = limiter.Reset(ctx, key) })

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, key)
		if err != nil || !res.Allowed {
			t.Fatalf("request %d should pass: %+v, %v", i, res, err)
		}
	}

	res, err := limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if res.Allowed || res.RetryAfter != 10*time.Second {
		t.Errorf("expected denial with 10s retry, got %+v", res)
	}

	info, err := limiter.GetInfo(ctx, key)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if info.Limit != 3 || info.Remaining != 0 {
		t.Errorf("unexpected info %+v", info)
	}

	now = now.Add(10 * time.Second)
	if res, _ := limiter.Allow(ctx, key); !res.Allowed {
		t.Error("request after refill should pass")
	}
}
