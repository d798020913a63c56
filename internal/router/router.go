// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/api"
	"github.com/MorseWayne/planet_shoes/internal/cache"
	"github.com/MorseWayne/planet_shoes/internal/config"
	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/limiter"
	"github.com/MorseWayne/planet_shoes/internal/middleware"
)

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	SessionHandler  *api.SessionHandler
	CatalogHandler  *api.CatalogHandler
	OrderHandler    *api.OrderHandler
	ProviderHandler *api.ProviderHandler

	Sessions middleware.SessionRestorer
	// OrderLimiter 为 nil 时不限流
	OrderLimiter limiter.Limiter
	// IdempotencyStore 为 nil 时不做幂等检查
	IdempotencyStore cache.Cache
	// Health 返回各依赖的状态，可为 nil
	Health func() map[string]string
}

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	cfg    *config.Config
	deps   *Dependencies
	logger *zap.Logger
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由和中间件
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.App.Env == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r.engine = gin.New()
	r.cfg = cfg
	r.deps = deps
	r.logger = lg

	r.setupMiddleware()
	r.setupRoutes()

	// net/http 中间件链，请求进入顺序：RequestID → AccessLog → Recovery → Timeout → gin
	var h http.Handler = r.engine
	h = middleware.Timeout(cfg.App.RequestTimeout)(h)
	h = middleware.Recovery(lg)(h)
	h = middleware.AccessLog(lg)(h)
	h = middleware.RequestID(h)
	return h
}

// setupMiddleware 设置 Gin 中间件
func (r *GinRouter) setupMiddleware() {
	r.engine.Use(middleware.GinRequestContext())
	r.engine.Use(r.corsMiddleware())
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes() {
	r.engine.GET("/healthz", r.healthCheck)

	auth := middleware.SessionAuth(r.deps.Sessions, r.logger)

	v1 := r.engine.Group("/api/v1")
	{
		sessions := v1.Group("/auth")
		{
			sessions.POST("/login", r.deps.SessionHandler.Login)
			sessions.POST("/logout", auth, r.deps.SessionHandler.Logout)
			sessions.GET("/session", auth, r.deps.SessionHandler.Current)
		}

		catalog := v1.Group("/catalog")
		catalog.Use(auth)
		{
			catalog.GET("/models/:style", r.deps.CatalogHandler.Lookup)
			catalog.GET("/view", r.deps.CatalogHandler.View)
			catalog.DELETE("/view", r.deps.CatalogHandler.Close)
			catalog.PUT("/view/selection", r.deps.CatalogHandler.Select)
		}

		v1.POST("/scan", auth, r.deps.CatalogHandler.Scan)

		orders := v1.Group("/orders")
		orders.Use(auth)
		{
			orders.POST("", r.orderSubmitChain()...)
			orders.GET("", r.deps.OrderHandler.History)
		}

		provider := v1.Group("/provider")
		provider.Use(auth, middleware.RequireRole(domain.RoleProvider))
		{
			provider.GET("/orders", r.deps.ProviderHandler.Dashboard)
		}
	}
}

// orderSubmitChain 限流 → 幂等 → 提交
func (r *GinRouter) orderSubmitChain() []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	if r.deps.OrderLimiter != nil {
		chain = append(chain, limiter.OrderRateLimitMiddleware(r.deps.OrderLimiter, r.logger))
	}
	if r.deps.IdempotencyStore != nil {
		chain = append(chain, middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  r.deps.IdempotencyStore,
			TTL:    24 * time.Hour,
			Logger: r.logger,
		}))
	}
	return append(chain, r.deps.OrderHandler.Submit)
}

// healthCheck 健康检查处理器
func (r *GinRouter) healthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"service": r.cfg.App.Name,
		"version": r.cfg.App.Version,
	}
	if r.deps.Health != nil {
		body["dependencies"] = r.deps.Health()
	}
	c.JSON(http.StatusOK, body)
}

// corsMiddleware CORS 中间件
func (r *GinRouter) corsMiddleware() gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  r.cfg.CORS.AllowedMethods,
		AllowHeaders:  r.cfg.CORS.AllowedHeaders,
		ExposeHeaders: []string{middleware.HeaderRequestID, middleware.HeaderTraceID, "Retry-After", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(r.cfg.CORS.AllowedOrigins) == 0 || (len(r.cfg.CORS.AllowedOrigins) == 1 && r.cfg.CORS.AllowedOrigins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = r.cfg.CORS.AllowedOrigins
	}
	return cors.New(cc)
}
