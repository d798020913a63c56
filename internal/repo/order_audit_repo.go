package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// OrderAuditRepository 订单提交审计日志
type OrderAuditRepository interface {
	Create(ctx context.Context, audit *domain.OrderAudit) error
	ListByUser(ctx context.Context, username string, limit int) ([]*domain.OrderAudit, error)
}

// maxAuditMessage 与 order_requests.message 列宽一致
const maxAuditMessage = 512

type orderAuditRepo struct {
	db *sql.DB
}

// NewOrderAuditRepository 创建审计仓储实例，MySQL 与 SQLite 共用同一组语句
func NewOrderAuditRepository(db *sql.DB) OrderAuditRepository {
	return &orderAuditRepo{db: db}
}

// Create 写入一条审计记录
func (r *orderAuditRepo) Create(ctx context.Context, audit *domain.OrderAudit) error {
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	audit.Message = truncateRunes(audit.Message, maxAuditMessage)

	query := `
		INSERT INTO order_requests (session_id, username, style, article, size, quantity, price, status, remote_id, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		audit.SessionID,
		audit.Username,
		audit.Style,
		audit.Article,
		audit.Size,
		audit.Quantity,
		audit.Price.StringFixed(2),
		string(audit.Status),
		audit.RemoteID,
		audit.Message,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order audit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	audit.ID = id
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ListByUser 按时间倒序列出用户的提交记录
func (r *orderAuditRepo) ListByUser(ctx context.Context, username string, limit int) ([]*domain.OrderAudit, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, session_id, username, style, article, size, quantity, price, status, remote_id, message, created_at
		FROM order_requests
		WHERE username = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list order audits: %w", err)
	}
	defer rows.Close()

	var audits []*domain.OrderAudit
	for rows.Next() {
		audit := &domain.OrderAudit{}
		var price, status string
		if err := rows.Scan(
			&audit.ID,
			&audit.SessionID,
			&audit.Username,
			&audit.Style,
			&audit.Article,
			&audit.Size,
			&audit.Quantity,
			&price,
			&status,
			&audit.RemoteID,
			&audit.Message,
			&audit.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order audit: %w", err)
		}
		audit.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", price, err)
		}
		audit.Status = domain.OrderAuditStatus(status)
		audits = append(audits, audit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order audits: %w", err)
	}

	return audits, nil
}
