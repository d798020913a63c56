package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/service"
)

// OrderHandler 订单API处理器
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler 创建订单API处理器
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{orders: orders, logger: logger}
}

// Submit 提交订单
// @Summary 提交订单
// @Description 按当前视图中已选的尺码下单。失败时保留选择，远端拒绝原因原样返回。
// @Tags 订单
// @Accept json
// @Produce json
// @Param request body domain.SubmitOrderRequest true "数量"
// @Param X-Idempotency-Key header string false "幂等键"
// @Success 200 {object} resp.Response[domain.SubmitOrderResponse] "成功"
// @Failure 400 {object} resp.Response[any] "选择或数量无效"
// @Failure 409 {object} resp.Response[any] "重复提交"
// @Failure 422 {object} resp.Response[any] "远端拒绝"
// @Failure 429 {object} resp.Response[any] "请求过于频繁"
// @Failure 502 {object} resp.Response[any] "远端不可用"
// @Router /api/v1/orders [post]
// @Security Bearer
func (h *OrderHandler) Submit(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req domain.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, MsgInvalidQuantity)
		return
	}

	out, err := h.orders.Submit(c.Request.Context(), sess, req)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	msg := out.Message
	if msg == "" {
		msg = "Pedido enviado"
	}
	writeOK(c, msg, out)
}

// History 提交记录
// @Summary 提交记录
// @Tags 订单
// @Produce json
// @Param limit query int false "条数，默认20"
// @Success 200 {object} resp.Response[[]domain.OrderAudit] "成功"
// @Router /api/v1/orders [get]
// @Security Bearer
func (h *OrderHandler) History(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(c, MsgInvalidRequest)
			return
		}
		limit = n
	}

	audits, err := h.orders.History(c.Request.Context(), sess, limit)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeOK(c, "success", audits)
}
