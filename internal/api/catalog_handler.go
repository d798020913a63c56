package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/scanner"
	"github.com/MorseWayne/planet_shoes/internal/service"
)

// CatalogHandler 款号查询、详情视图与扫码API处理器
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler 创建目录API处理器
func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// Lookup 查询款号
// @Summary 查询款号
// @Description 查询款号并打开详情视图。未找到时返回 available=false。
// @Tags 目录
// @Produce json
// @Param style path string true "款号"
// @Success 200 {object} resp.Response[service.CatalogView] "成功"
// @Failure 409 {object} resp.Response[any] "已有更新的查询"
// @Failure 502 {object} resp.Response[any] "远端不可用"
// @Router /api/v1/catalog/models/{style} [get]
// @Security Bearer
func (h *CatalogHandler) Lookup(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	h.lookup(c, sess.ID, c.Param("style"))
}

// Scan 扫码或手动输入后查询
// @Summary 扫码查询
// @Description 解析二维码内容（链接、"MOD. 3390"、"CASUAL-3390" 或纯款号）后查询款号
// @Tags 目录
// @Accept json
// @Produce json
// @Param request body domain.ScanRequest true "扫码内容"
// @Success 200 {object} resp.Response[service.CatalogView] "成功"
// @Failure 400 {object} resp.Response[any] "无法解析款号"
// @Router /api/v1/scan [post]
// @Security Bearer
func (h *CatalogHandler) Scan(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req domain.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, MsgInvalidCode)
		return
	}
	style, err := scanner.ParseCode(req.Payload)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	h.lookup(c, sess.ID, style)
}

func (h *CatalogHandler) lookup(c *gin.Context, sessionID, style string) {
	view, err := h.catalog.Lookup(c.Request.Context(), sessionID, style)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	if !view.Catalog.Found() {
		writeOK(c, MsgModelNotFound, view)
		return
	}
	writeOK(c, "success", view)
}

// View 当前详情视图
// @Summary 当前详情视图
// @Tags 目录
// @Produce json
// @Success 200 {object} resp.Response[service.CatalogView] "成功"
// @Failure 404 {object} resp.Response[any] "没有打开的视图"
// @Router /api/v1/catalog/view [get]
// @Security Bearer
func (h *CatalogHandler) View(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	view, err := h.catalog.CurrentView(sess.ID)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeOK(c, "success", view)
}

// Close 关闭详情视图
// @Summary 关闭详情视图
// @Tags 目录
// @Produce json
// @Success 200 {object} resp.Response[any] "成功"
// @Router /api/v1/catalog/view [delete]
// @Security Bearer
func (h *CatalogHandler) Close(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	h.catalog.CloseView(sess.ID)
	writeOK[any](c, "success", nil)
}

// Select 选择品牌、颜色与尺码
// @Summary 更新选择
// @Description 空字段表示未选择；更换品牌会清空颜色与尺码，更换颜色会清空尺码
// @Tags 目录
// @Accept json
// @Produce json
// @Param request body domain.SelectionRequest true "选择"
// @Success 200 {object} resp.Response[service.CatalogView] "成功"
// @Failure 400 {object} resp.Response[any] "选择无效"
// @Failure 404 {object} resp.Response[any] "没有打开的视图"
// @Router /api/v1/catalog/view/selection [put]
// @Security Bearer
func (h *CatalogHandler) Select(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req domain.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, MsgInvalidRequest)
		return
	}
	view, err := h.catalog.Select(sess.ID, req)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeOK(c, "success", view)
}
