package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected 当前没有可用连接
	ErrNotConnected = errors.New("rabbitmq not connected")
	// ErrManagerClosed 连接管理器已关闭
	ErrManagerClosed = errors.New("connection manager closed")
)

// ConnectionState 连接状态
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Channel 生产者用到的 amqp.Channel 方法
type Channel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Close() error
}

// ChannelOpener 打开新的通道
type ChannelOpener interface {
	OpenChannel() (Channel, error)
}

// ConnectionManager RabbitMQ连接管理器，断线后按配置自动重连
type ConnectionManager struct {
	config *Config
	logger *zap.Logger

	conn      *amqp.Connection
	connMutex sync.RWMutex
	state     int32

	stopCh         chan struct{}
	reconnectCount int32
}

// NewConnectionManager 创建连接管理器
func NewConnectionManager(config *Config, logger *zap.Logger) *ConnectionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionManager{
		config: config,
		logger: logger,
		state:  int32(StateDisconnected),
		stopCh: make(chan struct{}),
	}
}

// Connect 建立连接
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&cm.state, int32(StateDisconnected), int32(StateConnecting)) {
		return fmt.Errorf("connection is already in progress or connected")
	}

	cm.logger.Info("connecting to rabbitmq", zap.String("url", cm.config.RedactedURL()))

	if err := cm.dial(ctx); err != nil {
		atomic.StoreInt32(&cm.state, int32(StateDisconnected))
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	cm.logger.Info("rabbitmq connected")
	go cm.monitorConnection()
	return nil
}

func (cm *ConnectionManager) dial(ctx context.Context) error {
	timeout := cm.config.ConnectionTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout || timeout <= 0 {
			timeout = d
		}
	}

	conn, err := amqp.DialConfig(cm.config.GetConnectionURL(), amqp.Config{
		Heartbeat: cm.config.HeartbeatInterval,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return err
	}

	cm.connMutex.Lock()
	defer cm.connMutex.Unlock()
	if cm.GetState() == StateClosed {
		_ = conn.Close()
		return ErrManagerClosed
	}
	cm.conn = conn
	atomic.StoreInt32(&cm.state, int32(StateConnected))
	return nil
}

// OpenChannel 在当前连接上打开通道
func (cm *ConnectionManager) OpenChannel() (Channel, error) {
	cm.connMutex.RLock()
	conn := cm.conn
	cm.connMutex.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, ErrNotConnected
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, nil
}

// IsConnected 检查是否已连接
func (cm *ConnectionManager) IsConnected() bool {
	return cm.GetState() == StateConnected
}

// GetState 获取连接状态
func (cm *ConnectionManager) GetState() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&cm.state))
}

// ReconnectCount 累计重连次数
func (cm *ConnectionManager) ReconnectCount() int32 {
	return atomic.LoadInt32(&cm.reconnectCount)
}

// Close 关闭连接并停止重连
func (cm *ConnectionManager) Close() error {
	for {
		s := atomic.LoadInt32(&cm.state)
		if s == int32(StateClosed) {
			return nil
		}
		if atomic.CompareAndSwapInt32(&cm.state, s, int32(StateClosed)) {
			break
		}
	}

	cm.logger.Info("closing rabbitmq connection")
	close(cm.stopCh)

	cm.connMutex.Lock()
	defer cm.connMutex.Unlock()
	if cm.conn != nil {
		err := cm.conn.Close()
		cm.conn = nil
		if err != nil && !errors.Is(err, amqp.ErrClosed) {
			return err
		}
	}
	return nil
}

// monitorConnection 监听连接关闭事件
func (cm *ConnectionManager) monitorConnection() {
	cm.connMutex.RLock()
	conn := cm.conn
	cm.connMutex.RUnlock()
	if conn == nil {
		return
	}

	closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case err := <-closeCh:
		if err != nil {
			cm.handleDisconnection(err)
		}
	case <-cm.stopCh:
	}
}

func (cm *ConnectionManager) handleDisconnection(err error) {
	if !atomic.CompareAndSwapInt32(&cm.state, int32(StateConnected), int32(StateReconnecting)) {
		return
	}
	cm.logger.Warn("rabbitmq connection lost", zap.Error(err))

	if cm.config.EnableReconnect {
		go cm.reconnect()
	} else {
		atomic.CompareAndSwapInt32(&cm.state, int32(StateReconnecting), int32(StateDisconnected))
	}
}

func (cm *ConnectionManager) reconnect() {
	maxAttempts := cm.config.MaxReconnectAttempts

	for attempt := 1; ; attempt++ {
		select {
		case <-cm.stopCh:
			return
		case <-time.After(cm.config.ReconnectInterval):
		}

		atomic.AddInt32(&cm.reconnectCount, 1)
		ctx, cancel := context.WithTimeout(context.Background(), cm.config.ConnectionTimeout)
		err := cm.dial(ctx)
		cancel()

		if errors.Is(err, ErrManagerClosed) {
			return
		}
		if err == nil {
			cm.logger.Info("rabbitmq reconnected", zap.Int("attempts", attempt))
			go cm.monitorConnection()
			return
		}

		cm.logger.Error("rabbitmq reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
		if maxAttempts > 0 && attempt >= maxAttempts {
			atomic.CompareAndSwapInt32(&cm.state, int32(StateReconnecting), int32(StateDisconnected))
			return
		}
	}
}
