package repo

import (
	"context"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// OrderRepository 远端订单接口
type OrderRepository interface {
	Submit(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
	List(ctx context.Context) ([]domain.OrderRecord, error)
}

// OrderGateway 远端订单调用，由 upstream.Client 实现
type OrderGateway interface {
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
	ListOrders(ctx context.Context) ([]domain.OrderRecord, error)
}

type upstreamOrderRepo struct {
	gateway OrderGateway
}

// NewOrderRepository 创建订单仓储实例。
// 错误原样返回，调用方用 errors.Is/As 区分网络失败与远端拒绝。
func NewOrderRepository(gateway OrderGateway) OrderRepository {
	return &upstreamOrderRepo{gateway: gateway}
}

func (r *upstreamOrderRepo) Submit(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	return r.gateway.SubmitOrder(ctx, req)
}

func (r *upstreamOrderRepo) List(ctx context.Context) ([]domain.OrderRecord, error) {
	return r.gateway.ListOrders(ctx)
}
