// Package api 提供店面的 HTTP API 处理器
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/catalog"
	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/middleware"
	"github.com/MorseWayne/planet_shoes/internal/resp"
	"github.com/MorseWayne/planet_shoes/internal/scanner"
	"github.com/MorseWayne/planet_shoes/internal/service"
	"github.com/MorseWayne/planet_shoes/internal/upstream"
)

// 面向用户的提示
const (
	MsgMissingFields     = "Por favor, completa todos los campos"
	MsgInvalidEmail      = "Ingresa un correo electrónico válido"
	MsgPasswordTooShort  = "La contraseña debe tener al menos 6 caracteres"
	MsgNetworkFailure    = "No se pudo conectar con el servidor. Verifica tu conexión e inténtalo de nuevo."
	MsgModelNotFound     = "Modelo no encontrado"
	MsgInvalidRequest    = "Solicitud inválida"
	MsgInvalidCode       = "Código no válido. Ingresa el estilo manualmente."
	MsgNoActiveView      = "No hay ningún modelo abierto"
	MsgSuperseded        = "Se inició una búsqueda más reciente"
	MsgSelectionRequired = "Selecciona marca, color y talla antes de continuar"
	MsgInvalidQuantity   = "La cantidad debe ser al menos 1"
	MsgOutOfStock        = "Talla agotada"
	MsgExceedsStock      = "La cantidad supera las existencias disponibles"
	MsgOrderFailed       = "No se pudo enviar el pedido"
	MsgSessionRequired   = "Inicia sesión para continuar"
	MsgTimeout           = "La solicitud tardó demasiado, inténtalo de nuevo"
	MsgInternal          = "internal server error"
)

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.GinKeyRequestID)
}

func getTraceID(c *gin.Context) string {
	return c.GetString(middleware.GinKeyTraceID)
}

// currentSession 读取认证中间件注入的会话，缺失时写出 401
func currentSession(c *gin.Context) (*domain.Session, bool) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, MsgSessionRequired, getRequestID(c), getTraceID(c))
		return nil, false
	}
	return sess, true
}

func writeOK[T any](c *gin.Context, msg string, data T) {
	resp.WriteJSON(c.Writer, http.StatusOK, resp.CodeOK, msg, data, getRequestID(c), getTraceID(c))
}

func writeBadRequest(c *gin.Context, msg string) {
	resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, msg, getRequestID(c), getTraceID(c))
}

// writeServiceError 把服务层错误映射为 HTTP 状态、业务码与用户提示
func writeServiceError(c *gin.Context, logger *zap.Logger, err error) {
	status, code, msg := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	} else {
		logger.Debug("request rejected",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	resp.Error(c.Writer, status, code, msg, getRequestID(c), getTraceID(c))
}

func classifyError(err error) (status, code int, msg string) {
	var rejected *upstream.OrderRejectedError
	var camErr *scanner.CameraUnavailableError

	switch {
	case errors.As(err, &rejected):
		msg = rejected.Message
		if msg == "" {
			msg = MsgOrderFailed
		}
		return http.StatusUnprocessableEntity, resp.CodeOrderRejected, msg
	case errors.Is(err, upstream.ErrNetwork):
		return http.StatusBadGateway, resp.CodeUpstreamError, MsgNetworkFailure
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, resp.CodeTimeout, MsgTimeout

	case errors.Is(err, service.ErrMissingCredentials):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgMissingFields
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgInvalidEmail
	case errors.Is(err, service.ErrPasswordTooShort):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgPasswordTooShort
	case errors.Is(err, service.ErrSessionRequired),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, resp.CodeUnauthorized, MsgSessionRequired

	case errors.Is(err, service.ErrInvalidStyle):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgInvalidRequest
	case errors.Is(err, scanner.ErrInvalidCode):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgInvalidCode
	case errors.As(err, &camErr):
		return http.StatusServiceUnavailable, resp.CodeInternalError, camErr.UserMessage()
	case errors.Is(err, service.ErrLookupSuperseded):
		return http.StatusConflict, resp.CodeConflict, MsgSuperseded
	case errors.Is(err, service.ErrNoActiveView):
		return http.StatusNotFound, resp.CodeNotFound, MsgNoActiveView

	case errors.Is(err, service.ErrSelectionIncomplete),
		errors.Is(err, catalog.ErrBrandRequired),
		errors.Is(err, catalog.ErrColorRequired):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgSelectionRequired
	case errors.Is(err, catalog.ErrInvalidSize),
		errors.Is(err, catalog.ErrBrandNotFound),
		errors.Is(err, catalog.ErrColorNotFound),
		errors.Is(err, catalog.ErrSizeNotFound):
		return http.StatusBadRequest, resp.CodeInvalidParam, err.Error()
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgInvalidQuantity
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgOutOfStock
	case errors.Is(err, service.ErrExceedsStock):
		return http.StatusBadRequest, resp.CodeInvalidParam, MsgExceedsStock
	}
	return http.StatusInternalServerError, resp.CodeInternalError, MsgInternal
}
