package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/MorseWayne/planet_shoes/internal/config"
	"github.com/MorseWayne/planet_shoes/internal/domain"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

// fakeChannel 按脚本返回发布错误与确认结果
type fakeChannel struct {
	publishErrs []error
	acks        []bool
	confirmCh   chan amqp.Confirmation
	sent        []published
	declared    []string
	closed      bool
}

func (c *fakeChannel) Confirm(noWait bool) error { return nil }

func (c *fakeChannel) NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation {
	c.confirmCh = confirm
	return confirm
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if len(c.publishErrs) > 0 {
		err := c.publishErrs[0]
		c.publishErrs = c.publishErrs[1:]
		if err != nil {
			return err
		}
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	if c.confirmCh != nil {
		ack := true
		if len(c.acks) > 0 {
			ack, c.acks = c.acks[0], c.acks[1:]
		}
		c.confirmCh <- amqp.Confirmation{DeliveryTag: uint64(len(c.sent)), Ack: ack}
	}
	return nil
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.declared = append(c.declared, name+":"+kind)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeOpener struct {
	channels []*fakeChannel
	opened   int
}

func (o *fakeOpener) OpenChannel() (Channel, error) {
	if o.opened >= len(o.channels) {
		return nil, ErrNotConnected
	}
	ch := o.channels[o.opened]
	o.opened++
	return ch, nil
}

func testProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		EnableConfirm:    true,
		ConfirmTimeout:   time.Second,
		MaxRetryAttempts: 1,
		RetryInterval:    time.Millisecond,
		PublishTimeout:   time.Second,
	}
}

func TestProducer_RetriesOnFreshChannel(t *testing.T) {
	first := &fakeChannel{publishErrs: []error{errors.New("channel closed")}}
	second := &fakeChannel{}
	opener := &fakeOpener{channels: []*fakeChannel{first, second}}
	p := NewProducer(opener, testProducerConfig(), nil)

	if err := p.Publish(context.Background(), "ex", "rk", []byte("x"), "text/plain", nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !first.closed || opener.opened != 2 {
		t.Errorf("broken channel should be discarded: closed=%v opened=%d", first.closed, opener.opened)
	}
	if len(second.sent) != 1 || second.sent[0].msg.DeliveryMode != amqp.Persistent {
		t.Errorf("unexpected publishes %+v", second.sent)
	}
	if st := p.Stats(); st.Published != 1 || st.Failed != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestProducer_Nack(t *testing.T) {
	ch := &fakeChannel{acks: []bool{false, false}}
	p := NewProducer(&fakeOpener{channels: []*fakeChannel{ch}}, testProducerConfig(), nil)

	err := p.Publish(context.Background(), "ex", "rk", []byte("x"), "text/plain", nil)
	if !errors.Is(err, ErrNacked) {
		t.Fatalf("expected ErrNacked, got %v", err)
	}
	if st := p.Stats(); st.Failed != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestProducer_Closed(t *testing.T) {
	p := NewProducer(&fakeOpener{channels: []*fakeChannel{{}}}, testProducerConfig(), nil)
	_ = p.Close()
	if err := p.Publish(context.Background(), "ex", "rk", nil, "", nil); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}

func TestOrderEventPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := NewProducer(&fakeOpener{channels: []*fakeChannel{ch}}, testProducerConfig(), nil)
	pub := NewOrderEventPublisher(p, "planet_shoes.orders", "", "planet-shoes", nil)

	if err := pub.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if len(ch.declared) != 1 || ch.declared[0] != "planet_shoes.orders:topic" {
		t.Errorf("unexpected declarations %v", ch.declared)
	}

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	event := &domain.OrderRequestedEvent{
		EventID:   "evt-1",
		OrderID:   "77",
		Username:  "ana@correo.com",
		Style:     "3390",
		Article:   "101",
		Size:      "25",
		Quantity:  2,
		Price:     decimal.RequireFromString("499.90"),
		Timestamp: ts,
	}
	if err := pub.PublishOrderRequested(context.Background(), event); err != nil {
		t.Fatalf("PublishOrderRequested() error = %v", err)
	}

	if len(ch.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(ch.sent))
	}
	sent := ch.sent[0]
	if sent.exchange != "planet_shoes.orders" || sent.key != EventTypeOrderRequested {
		t.Errorf("routed to %s/%s", sent.exchange, sent.key)
	}
	if sent.msg.MessageId != "evt-1" || sent.msg.Type != EventTypeOrderRequested || !sent.msg.Timestamp.Equal(ts) {
		t.Errorf("unexpected properties %+v", sent.msg)
	}
	if sent.msg.ContentType != "application/json" {
		t.Errorf("content type = %q", sent.msg.ContentType)
	}

	var body map[string]any
	if err := json.Unmarshal(sent.msg.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["article"] != "101" || body["price"] != "499.9" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestConfig(t *testing.T) {
	cfg := FromAppConfig(config.MQConfig{Host: "mq", Port: 5672, Username: "u", Password: "p@ss", VHost: "/"})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := cfg.GetConnectionURL(); got != "amqp://u:p%40ss@mq:5672/" {
		t.Errorf("GetConnectionURL() = %q", got)
	}
	if got := cfg.RedactedURL(); got != "amqp://u@mq:5672/" {
		t.Errorf("RedactedURL() = %q", got)
	}

	cfg.VHost = "tienda"
	if got := cfg.GetConnectionURL(); got != "amqp://u:p%40ss@mq:5672/tienda" {
		t.Errorf("GetConnectionURL() with vhost = %q", got)
	}

	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected port validation error")
	}
}
