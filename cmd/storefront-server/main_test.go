package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/cache"
	"github.com/MorseWayne/planet_shoes/internal/config"
)

func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "planet-shoes", Version: "test", Env: "test", Port: 8080,
			RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second,
		},
		Upstream: config.UpstreamConfig{BaseURL: upstreamURL, PhotoBaseURL: "https://fotos.test/", Timeout: 2 * time.Second},
		Cache:    config.CacheConfig{Enabled: true, Type: "memory", TTL: time.Minute},
		JWT:      config.JWTConfig{Secret: "test-secret", SessionTTL: time.Hour},
		Auth:     config.AuthConfig{ProviderEmail: "provedor@c.com", MinPasswordLength: 6},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		RateLimit: config.RateLimitConfig{Enabled: true, Rate: 10, Window: time.Minute, Burst: 5},
	}
}

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/Modelos" && r.URL.Query().Get("estilo") == "3390" {
			_, _ = w.Write([]byte(`{"success": true, "data": [
				{"id": 1, "estilo": "3390", "marca": "Nike", "color": "Negro", "talla": "24", "existencia": 3, "precio1": "499.90"}
			]}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": false, "data": []}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInitCache(t *testing.T) {
	lg := zap.NewNop()

	cfg := testConfig("http://upstream")
	c, redisCache := initCache(cfg, lg)
	if _, ok := c.(*cache.MemoryCache); !ok || redisCache != nil {
		t.Errorf("memory config: got %T, redis=%v", c, redisCache)
	}

	cfg.Cache.Enabled = false
	c, _ = initCache(cfg, lg)
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("disabled cache: got %T", c)
	}
}

func TestSessionStore_NeverNullCache(t *testing.T) {
	if _, ok := sessionStore(cache.NewNullCache()).(*cache.MemoryCache); !ok {
		t.Error("null cache must be replaced by a memory store")
	}
	mem := cache.NewMemoryCache()
	if sessionStore(mem) != mem {
		t.Error("usable cache must be reused")
	}
}

func TestInitOrderLimiter(t *testing.T) {
	cfg := testConfig("http://upstream")
	l, err := initOrderLimiter(cfg, nil, zap.NewNop())
	if err != nil || l == nil {
		t.Fatalf("initOrderLimiter() = %v, %v", l, err)
	}

	cfg.RateLimit.Enabled = false
	if l, _ := initOrderLimiter(cfg, nil, zap.NewNop()); l != nil {
		t.Error("disabled rate limit must return nil")
	}

	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Rate: 0, Window: time.Minute, Burst: 1}
	if _, err := initOrderLimiter(cfg, nil, zap.NewNop()); err == nil {
		t.Error("expected error for zero rate")
	}
}

func TestServer_Wiring(t *testing.T) {
	up := fakeUpstream(t)
	cfg := testConfig(up.URL)
	lg := zap.NewNop()

	cacheInstance, redisCache := initCache(cfg, lg)
	deps, err := initDependencies(context.Background(), cfg, nil, cacheInstance, redisCache, lg)
	if err != nil {
		t.Fatalf("initDependencies() error = %v", err)
	}
	defer deps.Close(lg)
	handler := setupRoutes(cfg, deps, lg)

	// 健康检查
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
	var health struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if health.Status != "ok" || health.Dependencies["cache"] != "ok" || health.Dependencies["database"] != "disabled" {
		t.Errorf("unexpected health body: %s", w.Body.String())
	}

	// 登录
	body, _ := json.Marshal(map[string]string{"email": "ana@c.com", "password": "secreto"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil || login.Data.Token == "" {
		t.Fatalf("missing token: %s", w.Body.String())
	}

	// 查询款号
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/models/3390", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.Token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup status = %d, body = %s", w.Code, w.Body.String())
	}
	var lookup struct {
		Data struct {
			Catalog struct {
				TotalStock int  `json:"total_stock"`
				Available  bool `json:"available"`
			} `json:"catalog"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &lookup); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !lookup.Data.Catalog.Available || lookup.Data.Catalog.TotalStock != 3 {
		t.Errorf("unexpected catalog: %s", w.Body.String())
	}

	// 未登录
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/view", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}
