// Package config 负责从 .env 文件与环境变量加载应用配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 为应用的完整配置。
type Config struct {
	App        AppConfig
	Log        LogConfig
	Upstream   UpstreamConfig
	Database   DatabaseConfig
	Migrations MigrationsConfig
	Redis      RedisConfig
	Cache      CacheConfig
	JWT        JWTConfig
	Auth       AuthConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	MQ         MQConfig
}

// AppConfig 应用基础配置。
type AppConfig struct {
	Name            string
	Version         string
	Env             string // dev | test | prod
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig 日志配置。
type LogConfig struct {
	Level    string // debug | info | warn | error
	Encoding string // json | console
}

// UpstreamConfig 远端目录/订单 API 配置。
type UpstreamConfig struct {
	BaseURL      string
	PhotoBaseURL string
	Timeout      time.Duration
}

// DatabaseConfig 订单审计库配置。Driver 为 mysql 或 sqlite。
type DatabaseConfig struct {
	Enabled  bool
	Driver   string
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
	Path     string // sqlite 文件路径
}

// MigrationsConfig 迁移文件目录。
type MigrationsConfig struct {
	Dir string
}

// RedisConfig Redis 连接配置。
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr 返回 host:port 形式的地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig 缓存配置。Type 为 redis 或 memory。
type CacheConfig struct {
	Enabled bool
	Type    string
	TTL     time.Duration
}

// JWTConfig 会话令牌配置。
type JWTConfig struct {
	Secret     string
	SessionTTL time.Duration
}

// AuthConfig 登录规则配置。
type AuthConfig struct {
	ProviderEmail     string
	MinPasswordLength int
}

// CORSConfig 跨域配置。
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// RateLimitConfig 订单提交限流配置。
type RateLimitConfig struct {
	Enabled bool
	Rate    int64
	Window  time.Duration
	Burst   int64
}

// MQConfig RabbitMQ 配置。
type MQConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Username   string
	Password   string
	VHost      string
	Exchange   string
	RoutingKey string
}

// Load 读取 .env（若存在）后从环境变量构建配置并校验。
func Load() (*Config, error) {
	// .env 不存在时忽略，环境变量仍然生效
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "planet-shoes"),
			Version:         getEnv("APP_VERSION", "0.1.0"),
			Env:             getEnv("APP_ENV", "dev"),
			Port:            getEnvInt("APP_PORT", 8080),
			RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", ""),
		},
		Upstream: UpstreamConfig{
			BaseURL:      strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "https://systemweb.ddns.net/planet-shoes/api"), "/"),
			PhotoBaseURL: getEnv("UPSTREAM_PHOTO_BASE_URL", "https://systemweb.ddns.net/planet-shoes/Fotos/"),
			Timeout:      getEnvDuration("UPSTREAM_TIMEOUT", 8*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvBool("DB_ENABLED", false),
			Driver:   getEnv("DB_DRIVER", "mysql"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnvInt("DB_PORT", 3306),
			DBName:   getEnv("DB_NAME", "planet_shoes"),
			Path:     getEnv("DB_PATH", "planet_shoes.db"),
		},
		Migrations: MigrationsConfig{
			Dir: getEnv("MIGRATIONS_DIR", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "127.0.0.1"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("CACHE_ENABLED", true),
			Type:    getEnv("CACHE_TYPE", "memory"),
			TTL:     getEnvDuration("CACHE_TTL", 2*time.Minute),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			SessionTTL: getEnvDuration("JWT_SESSION_TTL", 12*time.Hour),
		},
		Auth: AuthConfig{
			ProviderEmail:     getEnv("AUTH_PROVIDER_EMAIL", "provedor@c.com"),
			MinPasswordLength: getEnvInt("AUTH_MIN_PASSWORD_LENGTH", 6),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-ID", "X-Idempotency-Key"}),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			Rate:    int64(getEnvInt("RATE_LIMIT_RATE", 10)),
			Window:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			Burst:   int64(getEnvInt("RATE_LIMIT_BURST", 5)),
		},
		MQ: MQConfig{
			Enabled:    getEnvBool("MQ_ENABLED", false),
			Host:       getEnv("MQ_HOST", "localhost"),
			Port:       getEnvInt("MQ_PORT", 5672),
			Username:   getEnv("MQ_USERNAME", "guest"),
			Password:   getEnv("MQ_PASSWORD", "guest"),
			VHost:      getEnv("MQ_VHOST", "/"),
			Exchange:   getEnv("MQ_EXCHANGE", "planet_shoes.orders"),
			RoutingKey: getEnv("MQ_ROUTING_KEY", "order.requested"),
		},
	}

	if cfg.Log.Encoding == "" {
		if cfg.App.Env == "prod" {
			cfg.Log.Encoding = "json"
		} else {
			cfg.Log.Encoding = "console"
		}
	}
	if cfg.Migrations.Dir == "" {
		cfg.Migrations.Dir = "migrations/" + cfg.Database.Driver
	}
	if cfg.JWT.Secret == "" && cfg.App.Env != "prod" {
		cfg.JWT.Secret = "dev-secret-change-me"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置的取值范围。
func (c *Config) Validate() error {
	var errs []error

	switch c.App.Env {
	case "dev", "test", "prod":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of dev|test|prod, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.App.Port))
	}
	if c.App.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("UPSTREAM_BASE_URL is required"))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "mysql", "sqlite":
		default:
			errs = append(errs, fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.Database.Driver))
		}
	}
	switch c.Cache.Type {
	case "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("CACHE_TYPE must be redis or memory, got %q", c.Cache.Type))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in prod"))
	}
	if c.JWT.SessionTTL <= 0 {
		errs = append(errs, errors.New("JWT_SESSION_TTL must be positive"))
	}
	if !strings.Contains(c.Auth.ProviderEmail, "@") {
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER_EMAIL is not an email: %q", c.Auth.ProviderEmail))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Burst <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RATE, RATE_LIMIT_BURST and RATE_LIMIT_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvSlice(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
