package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/api"
	"github.com/MorseWayne/planet_shoes/internal/cache"
	"github.com/MorseWayne/planet_shoes/internal/config"
	"github.com/MorseWayne/planet_shoes/internal/database"
	"github.com/MorseWayne/planet_shoes/internal/limiter"
	"github.com/MorseWayne/planet_shoes/internal/logger"
	"github.com/MorseWayne/planet_shoes/internal/mq"
	"github.com/MorseWayne/planet_shoes/internal/repo"
	"github.com/MorseWayne/planet_shoes/internal/router"
	"github.com/MorseWayne/planet_shoes/internal/service"
	"github.com/MorseWayne/planet_shoes/internal/upstream"
)

// AppDependencies 包含应用的所有依赖
type AppDependencies struct {
	Router *router.Dependencies

	// closers 按注册的逆序关闭
	closers []func() error
}

func (d *AppDependencies) onClose(fn func() error) {
	d.closers = append(d.closers, fn)
}

// Close 释放所有外部连接
func (d *AppDependencies) Close(lg *zap.Logger) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			lg.Sugar().Errorw("failed to close dependency", "err", err)
		}
	}
}

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %v", err)
	}

	return cfg, lg, nil
}

// initDatabase 初始化订单审计库并执行迁移；未启用时返回 nil
func initDatabase(cfg *config.Config, lg *zap.Logger) (*database.DB, error) {
	if !cfg.Database.Enabled {
		lg.Sugar().Infow("database disabled, order audit off")
		return nil, nil
	}

	db, err := database.New(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	lg.Sugar().Infow("using migrations directory", "path", cfg.Migrations.Dir)
	if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %v", err)
	}

	return db, nil
}

// initCache 初始化缓存实例。返回的 RedisCache 非 nil 时表示 Redis 可用。
func initCache(cfg *config.Config, lg *zap.Logger) (cache.Cache, *cache.RedisCache) {
	if !cfg.Cache.Enabled {
		lg.Sugar().Infow("cache disabled")
		return cache.NewNullCache(), nil
	}

	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cfg.Redis, cfg.App.Name)
		if err != nil {
			lg.Sugar().Warnw("failed to connect to Redis, falling back to memory cache", "error", err)
			return cache.NewMemoryCache(), nil
		}
		lg.Sugar().Infow("cache enabled", "type", "redis", "addr", cfg.Redis.Addr(), "ttl", cfg.Cache.TTL)
		return redisCache, redisCache
	case "memory":
		lg.Sugar().Infow("cache enabled", "type", "memory", "ttl", cfg.Cache.TTL)
	default:
		lg.Sugar().Warnw("unknown cache type, using memory cache", "type", cfg.Cache.Type)
	}
	return cache.NewMemoryCache(), nil
}

// sessionStore 会话必须落在可读回的存储上，缓存关闭时使用进程内存储
func sessionStore(cacheInstance cache.Cache) cache.Cache {
	if _, ok := cacheInstance.(*cache.NullCache); ok {
		return cache.NewMemoryCache()
	}
	return cacheInstance
}

// initEventPublisher 连接 RabbitMQ 并声明订单交换机；未启用时返回 nil
func initEventPublisher(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*mq.OrderEventPublisher, func() error, error) {
	if !cfg.MQ.Enabled {
		lg.Sugar().Infow("message queue disabled, order events off")
		return nil, nil, nil
	}

	mqCfg := mq.FromAppConfig(cfg.MQ)
	if err := mqCfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid mq config: %w", err)
	}

	conn := mq.NewConnectionManager(mqCfg, lg)
	if err := conn.Connect(ctx); err != nil {
		return nil, nil, err
	}

	producer := mq.NewProducer(conn, mqCfg.Producer, lg)
	publisher := mq.NewOrderEventPublisher(producer, cfg.MQ.Exchange, cfg.MQ.RoutingKey, cfg.App.Name, lg)
	if err := publisher.Setup(); err != nil {
		_ = producer.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare order exchange: %w", err)
	}

	closeFn := func() error {
		if err := producer.Close(); err != nil {
			lg.Sugar().Warnw("failed to close producer", "err", err)
		}
		return conn.Close()
	}
	return publisher, closeFn, nil
}

// initOrderLimiter 下单限流器；Redis 不可用时退回进程内令牌桶
func initOrderLimiter(cfg *config.Config, redisCache *cache.RedisCache, lg *zap.Logger) (limiter.Limiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	factory := limiter.NewFactory(nil)
	if redisCache != nil {
		factory = limiter.NewFactory(redisCache.Client())
	}
	l, err := factory.Create(limiter.TokenBucket, &limiter.Config{
		Rate:      cfg.RateLimit.Rate,
		Window:    cfg.RateLimit.Window,
		Burst:     cfg.RateLimit.Burst,
		KeyPrefix: "limiter:order",
	})
	if err != nil {
		return nil, fmt.Errorf("create order limiter: %w", err)
	}
	lg.Sugar().Infow("order rate limit enabled",
		"rate", cfg.RateLimit.Rate, "window", cfg.RateLimit.Window, "burst", cfg.RateLimit.Burst, "redis", redisCache != nil)
	return l, nil
}

// initDependencies 初始化应用依赖（仓储、服务、处理器）
func initDependencies(ctx context.Context, cfg *config.Config, db *database.DB, cacheInstance cache.Cache, redisCache *cache.RedisCache, lg *zap.Logger) (*AppDependencies, error) {
	deps := &AppDependencies{}
	deps.onClose(cacheInstance.Close)

	// 依赖注入链：远端客户端 -> 仓储 -> 服务 -> API处理器
	client := upstream.NewClient(cfg.Upstream, lg)

	catalogRepo := repo.NewCatalogRepository(client)
	var stock service.StockInvalidator
	if cfg.Cache.Enabled {
		cached := repo.NewCachedCatalogRepository(catalogRepo, cacheInstance, cfg.Cache.TTL, lg)
		catalogRepo, stock = cached, cached
	}
	orderRepo := repo.NewOrderRepository(client)

	store := sessionStore(cacheInstance)
	if store != cacheInstance {
		deps.onClose(store.Close)
	}
	sessionRepo := repo.NewSessionRepository(store)

	var audits repo.OrderAuditRepository
	if db != nil {
		audits = repo.NewOrderAuditRepository(db.DB)
		deps.onClose(db.Close)
	}

	var publisher service.EventPublisher
	mqHealthy := func() bool { return false }
	eventPublisher, closeMQ, err := initEventPublisher(ctx, cfg, lg)
	if err != nil {
		// 消息队列只用于下游通知，连不上不影响下单
		lg.Sugar().Warnw("order events disabled", "err", err)
	} else if eventPublisher != nil {
		publisher = eventPublisher
		deps.onClose(closeMQ)
		mqHealthy = func() bool { return true }
	}

	orderLimiter, err := initOrderLimiter(cfg, redisCache, lg)
	if err != nil {
		deps.Close(lg)
		return nil, err
	}

	tokenService := service.NewJWTService(cfg, lg)
	catalogService := service.NewCatalogService(catalogRepo, cfg.Upstream.PhotoBaseURL, lg)
	sessionService := service.NewSessionService(cfg, sessionRepo, tokenService, catalogService, lg)
	orderService := service.NewOrderService(orderRepo, audits, publisher, catalogService, stock, lg)
	providerService := service.NewProviderService(orderRepo, cfg.Upstream.PhotoBaseURL, lg)

	var idempotencyStore cache.Cache
	if _, ok := cacheInstance.(*cache.NullCache); !ok {
		idempotencyStore = cacheInstance
	}

	deps.Router = &router.Dependencies{
		SessionHandler:   api.NewSessionHandler(sessionService, lg),
		CatalogHandler:   api.NewCatalogHandler(catalogService, lg),
		OrderHandler:     api.NewOrderHandler(orderService, lg),
		ProviderHandler:  api.NewProviderHandler(providerService, lg),
		Sessions:         sessionService,
		OrderLimiter:     orderLimiter,
		IdempotencyStore: idempotencyStore,
		Health:           healthCheck(cacheInstance, db, mqHealthy),
	}
	return deps, nil
}

// healthCheck 汇总各依赖的连通状态
func healthCheck(cacheInstance cache.Cache, db *database.DB, mqHealthy func() bool) func() map[string]string {
	return func() map[string]string {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		status := map[string]string{"cache": "ok", "database": "disabled", "mq": "disabled"}
		if err := cacheInstance.Ping(ctx); err != nil {
			status["cache"] = "down"
		}
		if db != nil {
			status["database"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				status["database"] = "down"
			}
		}
		if mqHealthy() {
			status["mq"] = "ok"
		}
		return status
	}
}

// setupRoutes 设置路由和中间件
func setupRoutes(cfg *config.Config, deps *AppDependencies, lg *zap.Logger) http.Handler {
	return router.New().Setup(cfg, deps.Router, lg)
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Sugar().Infow("server starting", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			lg.Sugar().Errorw("server error", "err", err)
			return
		}
	case <-quit:
		lg.Sugar().Infow("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Sugar().Errorw("server shutdown error", "err", err)
	}
	lg.Sugar().Infow("server exited")
}

// main 为应用入口，协调各个组件的初始化和启动
func main() {
	// 1) 加载配置和初始化日志
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	// 2) 订单审计库（可选）
	db, err := initDatabase(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize database", "err", err)
	}

	// 3) 初始化缓存
	cacheInstance, redisCache := initCache(cfg, lg)

	// 4) 初始化应用依赖
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	deps, err := initDependencies(startCtx, cfg, db, cacheInstance, redisCache, lg)
	cancel()
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize dependencies", "err", err)
	}
	defer deps.Close(lg)

	// 5) 设置路由和中间件
	handler := setupRoutes(cfg, deps, lg)

	// 6) 启动 HTTP 服务器
	startServer(cfg, handler, lg)
}
