package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/service"
)

// ProviderHandler 供应商订单面板API处理器
type ProviderHandler struct {
	provider service.ProviderService
	logger   *zap.Logger
}

// NewProviderHandler 创建供应商API处理器
func NewProviderHandler(provider service.ProviderService, logger *zap.Logger) *ProviderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderHandler{provider: provider, logger: logger}
}

// Dashboard 订单面板
// @Summary 订单面板
// @Description 列出远端订单的履约状态与汇总，可按卖家过滤（todos 为全部）
// @Tags 供应商
// @Produce json
// @Param vendor query string false "卖家编号"
// @Success 200 {object} resp.Response[domain.Dashboard] "成功"
// @Failure 403 {object} resp.Response[any] "无权限"
// @Failure 502 {object} resp.Response[any] "远端不可用"
// @Router /api/v1/provider/orders [get]
// @Security Bearer
func (h *ProviderHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.provider.Dashboard(c.Request.Context(), c.Query("vendor"))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeOK(c, "success", dashboard)
}
