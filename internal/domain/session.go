package domain

import "time"

// Role 会话角色
type Role string

const (
	RoleUser     Role = "user"      // 普通顾客
	RoleProvider Role = "proveedor" // 供应商，只读订单面板
)

// Session 显式的会话上下文，由会话存储读写并注入到请求中
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"is_authenticated"`
	Username      string    `json:"user_email"`
	Role          Role      `json:"user_role"`
	DisplayName   string    `json:"display_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsProvider 判断是否为供应商会话
func (s *Session) IsProvider() bool {
	return s != nil && s.Role == RoleProvider
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse 登录成功的响应
type LoginResponse struct {
	Session *Session `json:"session"`
	Token   string   `json:"token"`
}

// SelectionRequest 选择品牌/颜色/尺码的请求，空字段表示未选择
type SelectionRequest struct {
	Brand string `json:"brand"`
	Color string `json:"color"`
	Size  string `json:"size"`
}

// ScanRequest 扫码或手动输入的款号请求
type ScanRequest struct {
	Payload string `json:"payload"`
}
