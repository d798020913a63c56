package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/repo"
)

// mockCatalogRepository 按款号返回预置记录；gate 非空时在返回前等待
type mockCatalogRepository struct {
	mu      sync.Mutex
	records map[string][]domain.InventoryRecord
	gates   map[string]chan struct{}
	entered chan string // 非空时每次调用先写入款号
	err     error
	calls   int
}

func newMockCatalogRepository() *mockCatalogRepository {
	return &mockCatalogRepository{
		records: make(map[string][]domain.InventoryRecord),
		gates:   make(map[string]chan struct{}),
	}
}

func (m *mockCatalogRepository) FindByStyle(ctx context.Context, style string) ([]domain.InventoryRecord, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gates[style]
	records := m.records[style]
	err := m.err
	entered := m.entered
	m.mu.Unlock()

	if entered != nil {
		entered <- style
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// mockOrderRepository 远端订单接口
type mockOrderRepository struct {
	submitted []domain.OrderRequest
	result    *domain.OrderResult
	submitErr error
	orders    []domain.OrderRecord
	listErr   error
}

func (m *mockOrderRepository) Submit(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	m.submitted = append(m.submitted, req)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.OrderResult{ID: "1", Message: "Pedido registrado"}, nil
}

func (m *mockOrderRepository) List(ctx context.Context) ([]domain.OrderRecord, error) {
	return m.orders, m.listErr
}

type mockAuditRepository struct {
	audits []*domain.OrderAudit
	err    error
}

func (m *mockAuditRepository) Create(ctx context.Context, audit *domain.OrderAudit) error {
	if m.err != nil {
		return m.err
	}
	audit.ID = int64(len(m.audits) + 1)
	m.audits = append(m.audits, audit)
	return nil
}

func (m *mockAuditRepository) ListByUser(ctx context.Context, username string, limit int) ([]*domain.OrderAudit, error) {
	var out []*domain.OrderAudit
	for i := len(m.audits) - 1; i >= 0 && len(out) < limit; i-- {
		if m.audits[i].Username == username {
			out = append(out, m.audits[i])
		}
	}
	return out, nil
}

type mockPublisher struct {
	events []*domain.OrderRequestedEvent
	err    error
}

func (m *mockPublisher) PublishOrderRequested(ctx context.Context, event *domain.OrderRequestedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

// mockStockInvalidator 记录被清除的款号
type mockStockInvalidator struct {
	styles []string
	err    error
}

func (m *mockStockInvalidator) Invalidate(ctx context.Context, style string) error {
	m.styles = append(m.styles, style)
	return m.err
}

type mockSessionRepository struct {
	sessions map[string]*domain.Session
	err      error
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepository) Save(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, repo.ErrSessionNotFound
	}
	return s, nil
}

func (m *mockSessionRepository) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

type mockViewCloser struct {
	closed []string
}

func (m *mockViewCloser) CloseView(sessionID string) {
	m.closed = append(m.closed, sessionID)
}

// nikeRecords 款号 3390 的测试数据
func nikeRecords() []domain.InventoryRecord {
	rec := func(id, brand, color string, size, stock int, rng string, price int64) domain.InventoryRecord {
		return domain.InventoryRecord{
			ArticleID: id, Style: "3390", Brand: brand, Color: color, Material: "Piel",
			PhotoPath: `C:\fotos\3390-` + color + `.jpg`, Gender: "Dama",
			SizeRaw: size, Range: rng, Stock: stock, UnitPrice: decimal.NewFromInt(price),
		}
	}
	return []domain.InventoryRecord{
		rec("101", "Nike", "Negro", 250, 3, "22-26", 500),
		rec("102", "Nike", "Negro", 255, 0, "22-26", 500),
		rec("103", "Nike", "Blanco", 240, 2, "22-26", 520),
		rec("201", "Adidas", "Rojo", 185, 4, "18-21", 350),
	}
}
