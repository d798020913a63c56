package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/config"
	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/repo"
)

// 登录校验错误
var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrSessionRequired    = errors.New("session required")
)

// SessionService 登录、登出与会话恢复
type SessionService interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	// Restore 通过令牌恢复会话，令牌有效但会话已登出时返回 ErrSessionRequired
	Restore(ctx context.Context, token string) (*domain.Session, error)
}

type sessionService struct {
	sessions      repo.SessionRepository
	tokens        TokenService
	views         ViewCloser
	providerEmail string
	minPassword   int
	ttl           time.Duration
	logger        *zap.Logger
}

// ViewCloser 登出时关闭会话的目录视图
type ViewCloser interface {
	CloseView(sessionID string)
}

// NewSessionService 创建会话服务。views 可为 nil。
func NewSessionService(cfg *config.Config, sessions repo.SessionRepository, tokens TokenService, views ViewCloser, logger *zap.Logger) SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionService{
		sessions:      sessions,
		tokens:        tokens,
		views:         views,
		providerEmail: strings.TrimSpace(cfg.Auth.ProviderEmail),
		minPassword:   cfg.Auth.MinPasswordLength,
		ttl:           cfg.JWT.SessionTTL,
		logger:        logger,
	}
}

// Login 按店面规则登录：供应商邮箱任意密码，其余用户需满足最短密码长度
func (s *sessionService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	role := domain.RoleUser
	if s.providerEmail != "" && email == s.providerEmail {
		role = domain.RoleProvider
	} else if len([]rune(req.Password)) < s.minPassword {
		return nil, ErrPasswordTooShort
	}

	sess := &domain.Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		Username:      email,
		Role:          role,
		DisplayName:   displayName(email),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.sessions.Save(ctx, sess, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.tokens.Issue(sess)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, err
	}

	s.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("role", string(role)),
	)
	return &domain.LoginResponse{Session: sess, Token: token}, nil
}

// Logout 清除会话标志并关闭目录视图
func (s *sessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if s.views != nil {
		s.views.CloseView(sessionID)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

// Restore 校验令牌后从会话存储读回会话
func (s *sessionService) Restore(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repo.ErrSessionNotFound) {
			return nil, ErrSessionRequired
		}
		return nil, err
	}
	return sess, nil
}

// displayName 取邮箱 @ 之前的部分
func displayName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
