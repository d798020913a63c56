// Package mq 提供 RabbitMQ 连接管理与订单事件发布
package mq

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/MorseWayne/planet_shoes/internal/config"
)

// Config RabbitMQ配置
type Config struct {
	// 连接配置
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	VHost    string `json:"vhost"`

	ConnectionTimeout time.Duration `json:"connection_timeout"`
	HeartbeatInterval time.Duration `json:"heartbeat_interval"`

	// 重连配置
	EnableReconnect      bool          `json:"enable_reconnect"`
	ReconnectInterval    time.Duration `json:"reconnect_interval"`
	MaxReconnectAttempts int           `json:"max_reconnect_attempts"`

	Producer *ProducerConfig `json:"producer"`
}

// ProducerConfig 生产者配置
type ProducerConfig struct {
	// 发布确认
	EnableConfirm  bool          `json:"enable_confirm"`
	ConfirmTimeout time.Duration `json:"confirm_timeout"`

	// 重试配置
	MaxRetryAttempts int           `json:"max_retry_attempts"`
	RetryInterval    time.Duration `json:"retry_interval"`

	PublishTimeout time.Duration `json:"publish_timeout"`
}

// DefaultProducerConfig 返回默认生产者配置
func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		EnableConfirm:    true,
		ConfirmTimeout:   5 * time.Second,
		MaxRetryAttempts: 2,
		RetryInterval:    500 * time.Millisecond,
		PublishTimeout:   5 * time.Second,
	}
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5672,
		Username: "guest",
		Password: "guest",
		VHost:    "/",

		ConnectionTimeout: 10 * time.Second,
		HeartbeatInterval: 10 * time.Second,

		EnableReconnect:      true,
		ReconnectInterval:    5 * time.Second,
		MaxReconnectAttempts: 10,

		Producer: DefaultProducerConfig(),
	}
}

// FromAppConfig 由应用配置构建 MQ 配置，其余项取默认值
func FromAppConfig(c config.MQConfig) *Config {
	cfg := DefaultConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.Username = c.Username
	cfg.Password = c.Password
	cfg.VHost = c.VHost
	return cfg
}

// GetConnectionURL 获取连接URL，用户名密码与 vhost 会被转义
func (c *Config) GetConnectionURL() string {
	vhost := trimSlash(c.VHost)
	u := url.URL{
		Scheme:  "amqp",
		User:    url.UserPassword(c.Username, c.Password),
		Host:    c.Host + ":" + strconv.Itoa(c.Port),
		Path:    "/" + vhost,
		RawPath: "/" + url.PathEscape(vhost),
	}
	return u.String()
}

// 默认 vhost "/" 在 URL 中写作空路径
func trimSlash(vhost string) string {
	if vhost == "/" {
		return ""
	}
	return vhost
}

// RedactedURL 隐藏密码后的连接地址，用于日志
func (c *Config) RedactedURL() string {
	return fmt.Sprintf("amqp://%s@%s:%d/%s", c.Username, c.Host, c.Port, trimSlash(c.VHost))
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("heartbeat_interval must be greater than 0")
	}
	if c.Producer != nil {
		if err := c.Producer.Validate(); err != nil {
			return fmt.Errorf("producer config validation failed: %w", err)
		}
	}
	return nil
}

// Validate 验证生产者配置
func (c *ProducerConfig) Validate() error {
	if c.EnableConfirm && c.ConfirmTimeout <= 0 {
		return errors.New("confirm_timeout must be greater than 0")
	}
	if c.MaxRetryAttempts < 0 {
		return errors.New("max_retry_attempts must be >= 0")
	}
	if c.MaxRetryAttempts > 0 && c.RetryInterval <= 0 {
		return errors.New("retry_interval must be greater than 0")
	}
	if c.PublishTimeout <= 0 {
		return errors.New("publish_timeout must be greater than 0")
	}
	return nil
}
