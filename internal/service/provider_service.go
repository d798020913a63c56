package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/catalog"
	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/repo"
	"github.com/MorseWayne/planet_shoes/internal/upstream"
)

// AllVendors 不按卖家过滤
const AllVendors = "todos"

// ProviderService 供应商订单面板
type ProviderService interface {
	Dashboard(ctx context.Context, vendorFilter string) (*domain.Dashboard, error)
}

type providerService struct {
	orders    repo.OrderRepository
	photoBase string
	logger    *zap.Logger
}

// NewProviderService 创建供应商面板服务
func NewProviderService(orders repo.OrderRepository, photoBase string, logger *zap.Logger) ProviderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &providerService{orders: orders, photoBase: photoBase, logger: logger}
}

// Dashboard 列出订单并计算状态与汇总；卖家列表总是基于全部订单
func (s *providerService) Dashboard(ctx context.Context, vendorFilter string) (*domain.Dashboard, error) {
	records, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	filter := strings.TrimSpace(vendorFilter)
	if filter == "" {
		filter = AllVendors
	}

	d := &domain.Dashboard{
		Orders:  []domain.OrderView{},
		Vendors: []string{},
		Filter:  filter,
	}

	seen := make(map[string]bool)
	for _, rec := range records {
		vendor := rec.VendorID()
		if !seen[vendor] {
			seen[vendor] = true
			d.Vendors = append(d.Vendors, vendor)
		}
		if filter != AllVendors && vendor != filter {
			continue
		}

		size, _ := catalog.DecodeSize(rec.SizeRaw)
		d.Orders = append(d.Orders, domain.OrderView{
			OrderRecord: rec,
			Size:        size,
			ImageURL:    upstream.BuildImageURL(s.photoBase, rec.PhotoPath),
			Status:      rec.Status(),
			FillPercent: fillPercent(rec.Filled, rec.Pending),
		})
		d.Stats.FilledUnits += rec.Filled
		d.Stats.PendingUnits += rec.Pending
	}

	d.Stats.TotalOrders = len(d.Orders)
	d.Stats.FillPercentage = fillPercent(d.Stats.FilledUnits, d.Stats.PendingUnits)

	s.logger.Debug("provider dashboard built",
		zap.String("filter", filter),
		zap.Int("orders", d.Stats.TotalOrders),
	)
	return d, nil
}

// fillPercent 已配货占比（四舍五入），无数量时为 0
func fillPercent(filled, pending int) int {
	total := filled + pending
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(filled) / float64(total) * 100))
}
