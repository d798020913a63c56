package mq

import (
	"context"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// EventTypeOrderRequested 订单提交事件类型
const EventTypeOrderRequested = "order.requested"

// OrderEventPublisher 把订单事件发布到 topic 交换机
type OrderEventPublisher struct {
	producer   *Producer
	exchange   string
	routingKey string
	appID      string
	logger     *zap.Logger
}

// NewOrderEventPublisher 创建订单事件发布者
func NewOrderEventPublisher(producer *Producer, exchange, routingKey, appID string, logger *zap.Logger) *OrderEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if routingKey == "" {
		routingKey = EventTypeOrderRequested
	}
	return &OrderEventPublisher{
		producer:   producer,
		exchange:   exchange,
		routingKey: routingKey,
		appID:      appID,
		logger:     logger,
	}
}

// Setup 声明交换机，启动时调用一次
func (p *OrderEventPublisher) Setup() error {
	return p.producer.DeclareExchange(p.exchange, "topic")
}

// PublishOrderRequested 发布订单提交事件
func (p *OrderEventPublisher) PublishOrderRequested(ctx context.Context, event *domain.OrderRequestedEvent) error {
	err := p.producer.PublishJSON(ctx, p.exchange, p.routingKey, event, &PublishOptions{
		MessageID: event.EventID,
		Timestamp: event.Timestamp,
		Type:      EventTypeOrderRequested,
		AppID:     p.appID,
	})
	if err != nil {
		return err
	}
	p.logger.Debug("order event published",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.OrderID))
	return nil
}
