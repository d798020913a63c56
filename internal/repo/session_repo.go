package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MorseWayne/planet_shoes/internal/cache"
	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// ErrSessionNotFound 会话不存在、已过期或已登出
var ErrSessionNotFound = errors.New("session not found")

// 会话标志在存储中的键名
const (
	keyIsAuthenticated = "isAuthenticated"
	keyUserEmail       = "userEmail"
	keyUserRole        = "userRole"
	keyDisplayName     = "displayName"
	keyCreatedAt       = "createdAt"
)

var sessionKeys = []string{keyIsAuthenticated, keyUserEmail, keyUserRole, keyDisplayName, keyCreatedAt}

// SessionRepository 会话存储：每个标志单独写入键值存储，按会话 ID 隔离
type SessionRepository interface {
	Save(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionRepo struct {
	store cache.Cache
}

// NewSessionRepository 创建会话仓储
func NewSessionRepository(store cache.Cache) SessionRepository {
	return &sessionRepo{store: store}
}

// Save 写入会话的全部标志
func (r *sessionRepo) Save(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	values := map[string]interface{}{
		keyIsAuthenticated: s.Authenticated,
		keyUserEmail:       s.Username,
		keyUserRole:        string(s.Role),
		keyDisplayName:     s.DisplayName,
		keyCreatedAt:       s.CreatedAt,
	}
	for name, v := range values {
		if err := r.store.Set(ctx, sessionKey(s.ID, name), v, ttl); err != nil {
			return fmt.Errorf("failed to save session flag %s: %w", name, err)
		}
	}
	return nil
}

// Get 读回会话；isAuthenticated 缺失或为 false 视为不存在
func (r *sessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	var authenticated bool
	if err := r.store.Get(ctx, sessionKey(id, keyIsAuthenticated), &authenticated); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) || errors.Is(err, cache.ErrCacheDisabled) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !authenticated {
		return nil, ErrSessionNotFound
	}

	s := &domain.Session{ID: id, Authenticated: true}
	var role string
	fields := []struct {
		name string
		dest interface{}
	}{
		{keyUserEmail, &s.Username},
		{keyUserRole, &role},
		{keyDisplayName, &s.DisplayName},
		{keyCreatedAt, &s.CreatedAt},
	}
	for _, f := range fields {
		if err := r.store.Get(ctx, sessionKey(id, f.name), f.dest); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			return nil, fmt.Errorf("failed to load session flag %s: %w", f.name, err)
		}
	}
	s.Role = domain.Role(role)
	if s.Role == "" {
		s.Role = domain.RoleUser
	}
	return s, nil
}

// Delete 清除会话的全部标志
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	keys := make([]string, 0, len(sessionKeys))
	for _, name := range sessionKeys {
		keys = append(keys, sessionKey(id, name))
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(id, name string) string {
	return "session:" + id + ":" + name
}
