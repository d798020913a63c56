package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/service"
)

// SessionHandler 登录与会话API处理器
type SessionHandler struct {
	sessions service.SessionService
	logger   *zap.Logger
}

// NewSessionHandler 创建会话API处理器
func NewSessionHandler(sessions service.SessionService, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

// Login 登录
// @Summary 登录
// @Description 邮箱+密码登录，返回会话与令牌。供应商邮箱获得只读订单面板权限。
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "登录请求"
// @Success 200 {object} resp.Response[domain.LoginResponse] "成功"
// @Failure 400 {object} resp.Response[any] "请求参数错误"
// @Router /api/v1/auth/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, MsgMissingFields)
		return
	}

	out, err := h.sessions.Login(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeOK(c, "success", out)
}

// Logout 登出
// @Summary 登出
// @Tags 会话
// @Produce json
// @Success 200 {object} resp.Response[any] "成功"
// @Failure 401 {object} resp.Response[any] "未登录"
// @Router /api/v1/auth/logout [post]
// @Security Bearer
func (h *SessionHandler) Logout(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.sessions.Logout(c.Request.Context(), sess.ID); err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeOK[any](c, "success", nil)
}

// Current 当前会话
// @Summary 当前会话
// @Tags 会话
// @Produce json
// @Success 200 {object} resp.Response[domain.Session] "成功"
// @Failure 401 {object} resp.Response[any] "未登录"
// @Router /api/v1/auth/session [get]
// @Security Bearer
func (h *SessionHandler) Current(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	writeOK(c, "success", sess)
}
