// Package resp 定义统一的 JSON 响应信封与业务错误码。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务错误码。0 表示成功。
const (
	CodeOK              = 0
	CodeInvalidParam    = 10001
	CodeUnauthorized    = 10002
	CodeForbidden       = 10003
	CodeNotFound        = 10004
	CodeConflict        = 10005
	CodeTooManyRequests = 10006
	CodeOrderRejected   = 20001
	CodeUpstreamError   = 30001
	CodeTimeout         = 50004
	CodeInternalError   = 50000
)

// Response 为统一响应结构。
type Response[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteJSON 以指定 HTTP 状态写出响应信封。
func WriteJSON[T any](w http.ResponseWriter, status, code int, msg string, data T, reqID, traceID string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response[T]{
		Code:      code,
		Message:   msg,
		Data:      data,
		RequestID: reqID,
		TraceID:   traceID,
	})
}

// OK 写出成功响应。
func OK[T any](w http.ResponseWriter, data T, reqID, traceID string) {
	WriteJSON(w, http.StatusOK, CodeOK, "ok", data, reqID, traceID)
}

// Error 写出错误响应，data 为空。
func Error(w http.ResponseWriter, status, code int, msg, reqID, traceID string) {
	WriteJSON[any](w, status, code, msg, nil, reqID, traceID)
}

// HTTPStatusFromCode 将业务码映射为默认 HTTP 状态。
func HTTPStatusFromCode(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeOrderRejected:
		return http.StatusUnprocessableEntity
	case CodeUpstreamError:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
