package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/catalog"
	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/repo"
	"github.com/MorseWayne/planet_shoes/internal/upstream"
)

// 下单校验错误
var (
	ErrSelectionIncomplete = errors.New("brand, color and size must be selected")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrOutOfStock          = errors.New("selected size is out of stock")
	ErrExceedsStock        = errors.New("quantity exceeds available stock")
)

// EventPublisher 发布订单事件，由 mq.OrderEventPublisher 实现
type EventPublisher interface {
	PublishOrderRequested(ctx context.Context, event *domain.OrderRequestedEvent) error
}

// StockInvalidator 使款号的库存缓存失效，由 repo.CachedCatalogRepository 实现
type StockInvalidator interface {
	Invalidate(ctx context.Context, style string) error
}

// SelectionReader 读取会话已完成的选择
type SelectionReader interface {
	Selected(sessionID string) (*SelectedItem, error)
}

// OrderService 订单提交与提交记录
type OrderService interface {
	Submit(ctx context.Context, sess *domain.Session, req domain.SubmitOrderRequest) (*domain.SubmitOrderResponse, error)
	History(ctx context.Context, sess *domain.Session, limit int) ([]*domain.OrderAudit, error)
}

type orderService struct {
	orders    repo.OrderRepository
	audits    repo.OrderAuditRepository
	publisher EventPublisher
	selection SelectionReader
	stock     StockInvalidator
	logger    *zap.Logger
}

// NewOrderService 创建订单服务。audits、publisher 与 stock 可为 nil（未配置数据库、消息队列或缓存）。
func NewOrderService(orders repo.OrderRepository, audits repo.OrderAuditRepository, publisher EventPublisher, selection SelectionReader, stock StockInvalidator, logger *zap.Logger) OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderService{
		orders:    orders,
		audits:    audits,
		publisher: publisher,
		selection: selection,
		stock:     stock,
		logger:    logger,
	}
}

// Submit 按会话当前选择下单。选择在任何失败下都保持不变。
func (s *orderService) Submit(ctx context.Context, sess *domain.Session, req domain.SubmitOrderRequest) (*domain.SubmitOrderResponse, error) {
	if sess == nil || !sess.Authenticated {
		return nil, ErrSessionRequired
	}

	item, err := s.selection.Selected(sess.ID)
	if err != nil {
		if errors.Is(err, catalog.ErrBrandNotFound) || errors.Is(err, catalog.ErrColorNotFound) || errors.Is(err, catalog.ErrSizeNotFound) {
			return nil, ErrSelectionIncomplete
		}
		return nil, err
	}

	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if item.Size.Stock <= 0 {
		return nil, ErrOutOfStock
	}
	if req.Quantity > item.Size.Stock {
		return nil, ErrExceedsStock
	}

	orderReq := domain.OrderRequest{
		Article:  item.Size.ArticleID,
		Quantity: req.Quantity,
		Price:    item.Size.Price,
		User:     sess.Username,
	}

	audit := &domain.OrderAudit{
		SessionID: sess.ID,
		Username:  sess.Username,
		Style:     item.Style,
		Article:   orderReq.Article,
		Size:      item.Size.Size,
		Quantity:  orderReq.Quantity,
		Price:     orderReq.Price,
	}

	result, err := s.orders.Submit(ctx, orderReq)
	if err != nil {
		var rejected *upstream.OrderRejectedError
		if errors.As(err, &rejected) {
			audit.Status = domain.OrderAuditRejected
			audit.Message = rejected.Message
			// 远端拒绝多半是库存已变
			s.invalidateStock(ctx, item.Style)
		} else {
			audit.Status = domain.OrderAuditFailed
			audit.Message = err.Error()
		}
		s.recordAudit(ctx, audit)
		s.logger.Warn("order submission failed",
			zap.String("session_id", sess.ID),
			zap.String("article", orderReq.Article),
			zap.Error(err),
		)
		return nil, fmt.Errorf("submit order: %w", err)
	}

	audit.Status = domain.OrderAuditSubmitted
	audit.RemoteID = result.ID
	audit.Message = result.Message
	s.recordAudit(ctx, audit)
	s.invalidateStock(ctx, item.Style)

	s.publish(ctx, &domain.OrderRequestedEvent{
		EventID:   uuid.NewString(),
		OrderID:   result.ID,
		Username:  sess.Username,
		Style:     item.Style,
		Article:   orderReq.Article,
		Size:      item.Size.Size,
		Quantity:  orderReq.Quantity,
		Price:     orderReq.Price,
		Timestamp: time.Now().UTC(),
	})

	s.logger.Info("order submitted",
		zap.String("session_id", sess.ID),
		zap.String("order_id", result.ID),
		zap.String("article", orderReq.Article),
		zap.Int("quantity", orderReq.Quantity),
	)

	return &domain.SubmitOrderResponse{
		OrderID:  result.ID,
		Article:  orderReq.Article,
		Brand:    item.Brand.BrandName,
		Color:    item.Color.ColorName,
		Size:     item.Size.Size,
		Quantity: orderReq.Quantity,
		Price:    orderReq.Price,
		Total:    catalog.FormatPrice(catalog.LineTotal(orderReq.Price, orderReq.Quantity)),
		Message:  result.Message,
	}, nil
}

// History 列出会话用户的提交记录；未配置数据库时为空
func (s *orderService) History(ctx context.Context, sess *domain.Session, limit int) ([]*domain.OrderAudit, error) {
	if sess == nil || !sess.Authenticated {
		return nil, ErrSessionRequired
	}
	if s.audits == nil {
		return []*domain.OrderAudit{}, nil
	}
	audits, err := s.audits.ListByUser(ctx, sess.Username, limit)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	if audits == nil {
		audits = []*domain.OrderAudit{}
	}
	return audits, nil
}

// recordAudit 审计写入失败不影响下单结果
func (s *orderService) invalidateStock(ctx context.Context, style string) {
	if s.stock == nil {
		return
	}
	if err := s.stock.Invalidate(ctx, style); err != nil {
		s.logger.Warn("failed to invalidate stock cache", zap.String("style", style), zap.Error(err))
	}
}

func (s *orderService) recordAudit(ctx context.Context, audit *domain.OrderAudit) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		s.logger.Error("failed to record order audit",
			zap.String("session_id", audit.SessionID),
			zap.String("status", string(audit.Status)),
			zap.Error(err),
		)
	}
}

func (s *orderService) publish(ctx context.Context, event *domain.OrderRequestedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderRequested(ctx, event); err != nil {
		s.logger.Error("failed to publish order event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
