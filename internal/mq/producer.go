package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	// ErrProducerClosed 生产者已关闭
	ErrProducerClosed = errors.New("producer is closed")
	// ErrNacked broker 拒绝了消息
	ErrNacked = errors.New("message was nacked by broker")
	// ErrConfirmTimeout 等待发布确认超时
	ErrConfirmTimeout = errors.New("publish confirmation timeout")
)

// Producer RabbitMQ生产者。复用一个通道，出错后丢弃并在下次发布时重建。
type Producer struct {
	opener ChannelOpener
	config *ProducerConfig
	logger *zap.Logger

	mu        sync.Mutex
	ch        Channel
	confirmCh chan amqp.Confirmation
	closed    bool

	publishedCount int64
	failedCount    int64
}

// PublishOptions 发布选项
type PublishOptions struct {
	Mandatory bool
	Headers   amqp.Table
	MessageID string
	Timestamp time.Time
	Type      string
	AppID     string
}

// ProducerStats 生产者统计
type ProducerStats struct {
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
}

// NewProducer 创建生产者
func NewProducer(opener ChannelOpener, config *ProducerConfig, logger *zap.Logger) *Producer {
	if config == nil {
		config = DefaultProducerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{opener: opener, config: config, logger: logger}
}

// PublishJSON 发布JSON消息
func (p *Producer) PublishJSON(ctx context.Context, exchange, routingKey string, data interface{}, options *PublishOptions) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return p.Publish(ctx, exchange, routingKey, body, "application/json", options)
}

// Publish 发布消息，失败时按配置重试
func (p *Producer) Publish(ctx context.Context, exchange, routingKey string, body []byte, contentType string, options *PublishOptions) error {
	publishing := buildPublishing(body, contentType, options)
	mandatory := options != nil && options.Mandatory

	maxAttempts := p.config.MaxRetryAttempts + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := p.publishOnce(ctx, exchange, routingKey, mandatory, publishing)
		if err == nil {
			atomic.AddInt64(&p.publishedCount, 1)
			return nil
		}
		if errors.Is(err, ErrProducerClosed) {
			return err
		}
		lastErr = err
		p.logger.Warn("publish failed",
			zap.String("exchange", exchange),
			zap.String("routing_key", routingKey),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(p.config.RetryInterval):
		case <-ctx.Done():
			atomic.AddInt64(&p.failedCount, 1)
			return ctx.Err()
		}
	}

	atomic.AddInt64(&p.failedCount, 1)
	return fmt.Errorf("failed to publish message after %d attempts: %w", maxAttempts, lastErr)
}

func (p *Producer) publishOnce(ctx context.Context, exchange, routingKey string, mandatory bool, publishing amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(publishCtx, exchange, routingKey, mandatory, false, publishing); err != nil {
		p.discardLocked()
		return fmt.Errorf("failed to publish message: %w", err)
	}
	if p.confirmCh == nil {
		return nil
	}

	timer := time.NewTimer(p.config.ConfirmTimeout)
	defer timer.Stop()
	select {
	case confirmation, ok := <-p.confirmCh:
		if !ok {
			p.discardLocked()
			return ErrNotConnected
		}
		if !confirmation.Ack {
			return ErrNacked
		}
		return nil
	case <-timer.C:
		// 迟到的确认会错配到下一条消息
		p.discardLocked()
		return ErrConfirmTimeout
	case <-ctx.Done():
		p.discardLocked()
		return ctx.Err()
	}
}

// DeclareExchange 声明持久化交换机
func (p *Producer) DeclareExchange(name, kind string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(name, kind, true, false, false, false, nil); err != nil {
		p.discardLocked()
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	return nil
}

func (p *Producer) channelLocked() (Channel, error) {
	if p.closed {
		return nil, ErrProducerClosed
	}
	if p.ch != nil {
		return p.ch, nil
	}

	ch, err := p.opener.OpenChannel()
	if err != nil {
		return nil, err
	}
	if p.config.EnableConfirm {
		if err := ch.Confirm(false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to set confirm mode: %w", err)
		}
		p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	}
	p.ch = ch
	return ch, nil
}

func (p *Producer) discardLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	p.ch = nil
	p.confirmCh = nil
}

// Stats 返回发布统计
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Published: atomic.LoadInt64(&p.publishedCount),
		Failed:    atomic.LoadInt64(&p.failedCount),
	}
}

// Close 关闭生产者
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discardLocked()
	p.closed = true
	return nil
}

func buildPublishing(body []byte, contentType string, options *PublishOptions) amqp.Publishing {
	publishing := amqp.Publishing{
		Body:         body,
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}
	if options == nil {
		return publishing
	}
	publishing.Headers = options.Headers
	publishing.MessageId = options.MessageID
	publishing.Type = options.Type
	publishing.AppId = options.AppID
	if !options.Timestamp.IsZero() {
		publishing.Timestamp = options.Timestamp
	}
	return publishing
}
