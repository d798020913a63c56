// Package service 实现业务逻辑层：目录查询与选择、订单提交、会话、供应商面板。
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/config"
	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// 会话令牌相关错误
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotReady = errors.New("token used before valid")
)

// Claims 会话令牌载荷，会话内容本身保存在会话存储中
type Claims struct {
	SessionID string      `json:"sid"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService 签发与校验会话令牌
type TokenService interface {
	Issue(s *domain.Session) (string, error)
	Validate(tokenString string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	logger *zap.Logger
	now    func() time.Time
}

// NewJWTService 创建基于 HS256 的令牌服务
func NewJWTService(cfg *config.Config, logger *zap.Logger) TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jwtService{
		secret: []byte(cfg.JWT.Secret),
		ttl:    cfg.JWT.SessionTTL,
		issuer: cfg.App.Name,
		logger: logger,
		now:    time.Now,
	}
}

// Issue 为会话签发令牌
func (s *jwtService) Issue(sess *domain.Session) (string, error) {
	now := s.now()
	claims := &Claims{
		SessionID: sess.ID,
		Role:      sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("failed to sign session token", zap.Error(err))
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Validate 校验令牌签名、有效期与签发者
func (s *jwtService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotReady
		}
		s.logger.Warn("token validation failed", zap.Error(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != s.issuer {
		s.logger.Warn("token issuer mismatch",
			zap.String("expected", s.issuer),
			zap.String("actual", claims.Issuer),
		)
		return nil, ErrInvalidToken
	}

	return claims, nil
}
