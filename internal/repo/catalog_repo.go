// Package repo 实现数据访问层：远端目录与订单、会话存储、订单审计。
package repo

import (
	"context"
	"fmt"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// CatalogRepository 定义按款号读取库存记录的接口
type CatalogRepository interface {
	// FindByStyle 返回款号的全部库存行；未找到时返回空切片
	FindByStyle(ctx context.Context, style string) ([]domain.InventoryRecord, error)
}

// ModelSource 远端款号查询，由 upstream.Client 实现
type ModelSource interface {
	LookupModel(ctx context.Context, style string) ([]domain.InventoryRecord, error)
}

// upstreamCatalogRepo 基于远端接口的目录仓储
type upstreamCatalogRepo struct {
	source ModelSource
}

// NewCatalogRepository 创建目录仓储实例
func NewCatalogRepository(source ModelSource) CatalogRepository {
	return &upstreamCatalogRepo{source: source}
}

// FindByStyle 查询远端
func (r *upstreamCatalogRepo) FindByStyle(ctx context.Context, style string) ([]domain.InventoryRecord, error) {
	records, err := r.source.LookupModel(ctx, style)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup style %s: %w", style, err)
	}
	return records, nil
}
