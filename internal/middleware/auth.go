package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/resp"
	"github.com/MorseWayne/planet_shoes/internal/service"
)

// SessionRestorer 由令牌恢复会话，service.SessionService 实现了它
type SessionRestorer interface {
	Restore(ctx context.Context, token string) (*domain.Session, error)
}

// SessionAuth 会话认证中间件：校验 Bearer 令牌并把会话注入 gin 上下文
func SessionAuth(sessions SessionRestorer, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		reqID, traceID := getRequestID(c), getTraceID(c)

		authHeader := c.GetHeader("Authorization")
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) || strings.TrimSpace(authHeader[len(bearerPrefix):]) == "" {
			resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, "Inicia sesión para continuar", reqID, traceID)
			c.Abort()
			return
		}
		token := strings.TrimSpace(authHeader[len(bearerPrefix):])

		sess, err := sessions.Restore(c.Request.Context(), token)
		if err != nil {
			msg := "Sesión inválida, inicia sesión de nuevo"
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				msg = "Tu sesión expiró, inicia sesión de nuevo"
			case errors.Is(err, service.ErrSessionRequired):
				msg = "Inicia sesión para continuar"
			case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenNotReady):
			default:
				// 会话存储不可用
				logger.Error("session restore failed", zap.String("request_id", reqID), zap.Error(err))
				resp.Error(c.Writer, http.StatusInternalServerError, resp.CodeInternalError, "internal server error", reqID, traceID)
				c.Abort()
				return
			}
			logger.Debug("session rejected", zap.String("request_id", reqID), zap.Error(err))
			resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, msg, reqID, traceID)
			c.Abort()
			return
		}

		c.Set(GinKeySession, sess)
		c.Set(GinKeySessionID, sess.ID)
		c.Next()
	}
}

// RequireRole 要求会话具有指定角色，需在 SessionAuth 之后使用
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		if !ok {
			resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, "Inicia sesión para continuar", getRequestID(c), getTraceID(c))
			c.Abort()
			return
		}
		if sess.Role != role {
			resp.Error(c.Writer, http.StatusForbidden, resp.CodeForbidden, "No tienes permiso para ver esta sección", getRequestID(c), getTraceID(c))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFromContext 读取 SessionAuth 注入的会话
func SessionFromContext(c *gin.Context) (*domain.Session, bool) {
	v, exists := c.Get(GinKeySession)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*domain.Session)
	return sess, ok && sess != nil
}
