package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest 提交给远端订单接口的请求
type OrderRequest struct {
	Article  string          `json:"articulo"`
	Quantity int             `json:"cantidad"`
	Price    decimal.Decimal `json:"precio"`
	User     string          `json:"usuario"`
}

// OrderResult 远端接受订单后的结果
type OrderResult struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// SubmitOrderRequest 客户端提交订单的请求体，尺码等信息来自当前选择
type SubmitOrderRequest struct {
	Quantity int `json:"quantity"`
}

// SubmitOrderResponse 订单提交成功的响应
type SubmitOrderResponse struct {
	OrderID  string          `json:"order_id"`
	Article  string          `json:"article"`
	Brand    string          `json:"brand"`
	Color    string          `json:"color"`
	Size     string          `json:"size"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    string          `json:"total"` // 本地化金额，如 "$1,000.00"
	Message  string          `json:"message,omitempty"`
}

// OrderStatus 订单履约状态
type OrderStatus string

const (
	OrderStatusCompleted  OrderStatus = "completado"
	OrderStatusInProgress OrderStatus = "en-proceso"
	OrderStatusPending    OrderStatus = "pendiente"
)

// DefaultVendorID 订单缺少卖家信息时使用的编号
const DefaultVendorID = "SYS"

// Vendor 下单的卖家
type Vendor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderRecord 远端订单列表中的一行
type OrderRecord struct {
	Article          string `json:"article"`
	ModelDescription string `json:"model_description"`
	Brand            string `json:"brand"`
	Color            string `json:"color"`
	Material         string `json:"material"`
	SizeRaw          int    `json:"size_raw"`
	PhotoPath        string `json:"photo_path"`
	Filled           int    `json:"filled"`  // 已配货数量
	Pending          int    `json:"pending"` // 待配货数量
	Vendor           Vendor `json:"vendor"`
}

// Status 根据已配货/待配货数量推导履约状态
func (o *OrderRecord) Status() OrderStatus {
	switch {
	case o.Filled > 0 && o.Pending == 0:
		return OrderStatusCompleted
	case o.Filled > 0 && o.Pending > 0:
		return OrderStatusInProgress
	default:
		return OrderStatusPending
	}
}

// VendorID 返回卖家编号，缺失时为 DefaultVendorID
func (o *OrderRecord) VendorID() string {
	if o.Vendor.ID == "" {
		return DefaultVendorID
	}
	return o.Vendor.ID
}

// OrderView 供应商面板中的订单展示
type OrderView struct {
	OrderRecord
	Size        string      `json:"size"`
	ImageURL    string      `json:"image_url,omitempty"`
	Status      OrderStatus `json:"status"`
	FillPercent int         `json:"fill_percent"`
}

// DashboardStats 供应商面板汇总
type DashboardStats struct {
	TotalOrders    int `json:"total_orders"`
	FilledUnits    int `json:"filled_units"`
	PendingUnits   int `json:"pending_units"`
	FillPercentage int `json:"fill_percentage"`
}

// Dashboard 供应商面板
type Dashboard struct {
	Orders  []OrderView    `json:"orders"`
	Vendors []string       `json:"vendors"`
	Filter  string         `json:"filter"`
	Stats   DashboardStats `json:"stats"`
}

// OrderAuditStatus 订单审计状态
type OrderAuditStatus string

const (
	OrderAuditSubmitted OrderAuditStatus = "submitted"
	OrderAuditRejected  OrderAuditStatus = "rejected"
	OrderAuditFailed    OrderAuditStatus = "failed"
)

// OrderAudit 每次订单提交尝试的审计记录
type OrderAudit struct {
	ID        int64            `json:"id"`
	SessionID string           `json:"session_id"`
	Username  string           `json:"username"`
	Style     string           `json:"style"`
	Article   string           `json:"article"`
	Size      string           `json:"size"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Status    OrderAuditStatus `json:"status"`
	RemoteID  string           `json:"remote_id,omitempty"`
	Message   string           `json:"message,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// OrderRequestedEvent 订单提交成功后发布的消息
type OrderRequestedEvent struct {
	EventID   string          `json:"event_id"`
	OrderID   string          `json:"order_id"`
	Username  string          `json:"username"`
	Style     string          `json:"style"`
	Article   string          `json:"article"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}
