package repo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/cache"
	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// CachedCatalogRepository 带缓存的目录仓储。
// 只缓存命中的款号，未找到的款号每次都回源。
type CachedCatalogRepository struct {
	repo   CatalogRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCatalogRepository 创建带缓存的目录仓储
func NewCachedCatalogRepository(repo CatalogRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedCatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCatalogRepository{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// FindByStyle 先读缓存，未命中再查询并写回
func (r *CachedCatalogRepository) FindByStyle(ctx context.Context, style string) ([]domain.InventoryRecord, error) {
	key := r.getStyleCacheKey(style)

	var records []domain.InventoryRecord
	if err := r.cache.Get(ctx, key, &records); err == nil {
		return records, nil
	}

	records, err := r.repo.FindByStyle(ctx, style)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	if err := r.cache.Set(ctx, key, records, r.ttl); err != nil {
		r.logger.Warn("failed to cache catalog records", zap.String("style", style), zap.Error(err))
	}
	return records, nil
}

// Invalidate 清除款号缓存。订单服务在远端受理或拒绝订单后调用，下一次查询回源读取库存。
func (r *CachedCatalogRepository) Invalidate(ctx context.Context, style string) error {
	return r.cache.Del(ctx, r.getStyleCacheKey(style))
}

func (r *CachedCatalogRepository) getStyleCacheKey(style string) string {
	return "catalog:style:" + style
}
