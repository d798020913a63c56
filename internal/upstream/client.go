// Package upstream 封装远端目录与订单 HTTP 接口。
// 远端数据未做 schema 校验，所有默认值与数值容错都在本包完成。
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/config"
	"github.com/MorseWayne/planet_shoes/internal/domain"
)

const maxBodySize = 4 << 20

var (
	// ErrNetwork 请求失败或远端返回非 2xx，可重试
	ErrNetwork = errors.New("upstream unreachable")
	// ErrOrderRejected 远端拒绝订单
	ErrOrderRejected = errors.New("order rejected by upstream")
)

// DefaultRejectMessage 远端拒绝订单但没有给出原因时的提示
const DefaultRejectMessage = "No se pudo registrar el pedido"

// OrderRejectedError 携带远端原样返回的拒绝原因
type OrderRejectedError struct {
	Message string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order rejected: %s", e.Message)
}

func (e *OrderRejectedError) Unwrap() error {
	return ErrOrderRejected
}

// Client 远端接口客户端
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient 创建客户端
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// LookupModel 查询款号的库存行。远端 success=false 或无数据时返回空切片。
func (c *Client) LookupModel(ctx context.Context, style string) ([]domain.InventoryRecord, error) {
	q := url.Values{}
	q.Set("estilo", style)

	var env envelope[[]modelRecord]
	if _, err := c.do(ctx, http.MethodGet, "/Modelos?"+q.Encode(), nil, &env); err != nil {
		return nil, err
	}

	records := make([]domain.InventoryRecord, 0, len(env.Data))
	if !env.Success {
		c.logger.Debug("model lookup returned no success", zap.String("style", style), zap.String("message", env.Message))
		return records, nil
	}
	for _, r := range env.Data {
		records = append(records, r.toDomain(style))
	}
	c.logger.Debug("model lookup completed", zap.String("style", style), zap.Int("records", len(records)))
	return records, nil
}

// SubmitOrder 提交订单。远端 success=false 时返回 *OrderRejectedError。
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	payload := orderPayload{
		Article:  req.Article,
		Quantity: req.Quantity,
		Price:    json.Number(req.Price.String()),
		User:     req.User,
	}

	var env envelope[*orderAck]
	status, err := c.do(ctx, http.MethodPost, "/Pedidos", payload, &env)
	if err != nil {
		// 非 2xx 但带有可解析的拒绝信息时按拒绝处理
		if status != 0 && env.Message != "" {
			return nil, &OrderRejectedError{Message: env.Message}
		}
		return nil, err
	}
	if !env.Success {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = DefaultRejectMessage
		}
		return nil, &OrderRejectedError{Message: msg}
	}

	result := &domain.OrderResult{Message: env.Message}
	if env.Data != nil {
		result.ID = string(env.Data.ID)
	}
	c.logger.Info("order submitted upstream",
		zap.String("article", req.Article),
		zap.Int("quantity", req.Quantity),
		zap.String("order_id", result.ID))
	return result, nil
}

// ListOrders 读取全部订单
func (c *Client) ListOrders(ctx context.Context) ([]domain.OrderRecord, error) {
	var env envelope[[]orderRecord]
	if _, err := c.do(ctx, http.MethodGet, "/Pedidos", nil, &env); err != nil {
		return nil, err
	}

	orders := make([]domain.OrderRecord, 0, len(env.Data))
	if !env.Success {
		return orders, nil
	}
	for _, r := range env.Data {
		orders = append(orders, r.toDomain())
	}
	return orders, nil
}

// do 发送请求并解码 JSON 响应体。返回的状态码在传输失败时为 0。
// 非 2xx 响应仍会尝试解码响应体，随后返回 ErrNetwork。
func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return 0, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer res.Body.Close()

	c.logger.Debug("upstream response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("duration", time.Since(start)))

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return res.StatusCode, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	decodeErr := json.Unmarshal(data, out)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.StatusCode, fmt.Errorf("%w: %s %s: status %d", ErrNetwork, method, path, res.StatusCode)
	}
	if decodeErr != nil {
		return res.StatusCode, fmt.Errorf("%w: decode %s: %v", ErrNetwork, path, decodeErr)
	}
	return res.StatusCode, nil
}

// BuildImageURL 取路径最后一段（兼容 / 与 \ 分隔符）拼接到静态资源地址；空路径返回空串。
func BuildImageURL(photoBase, path string) string {
	path = strings.TrimSpace(strings.ReplaceAll(path, `\`, "/"))
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	name := segments[len(segments)-1]
	if name == "" {
		return ""
	}
	if !strings.HasSuffix(photoBase, "/") {
		photoBase += "/"
	}
	return photoBase + url.PathEscape(name)
}
