package api

import (
	"context"

	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/service"
)

type mockSessionService struct {
	loginResp *domain.LoginResponse
	loginErr  error
	loggedOut []string
}

func (m *mockSessionService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	return m.loginResp, m.loginErr
}

func (m *mockSessionService) Logout(ctx context.Context, sessionID string) error {
	m.loggedOut = append(m.loggedOut, sessionID)
	return nil
}

func (m *mockSessionService) Restore(ctx context.Context, token string) (*domain.Session, error) {
	return nil, service.ErrSessionRequired
}

type mockCatalogService struct {
	view      *service.CatalogView
	err       error
	lookedUp  []string
	selected  domain.SelectionRequest
	closedFor []string
}

func (m *mockCatalogService) Lookup(ctx context.Context, sessionID, style string) (*service.CatalogView, error) {
	m.lookedUp = append(m.lookedUp, style)
	return m.view, m.err
}

func (m *mockCatalogService) CurrentView(sessionID string) (*service.CatalogView, error) {
	return m.view, m.err
}

func (m *mockCatalogService) CloseView(sessionID string) {
	m.closedFor = append(m.closedFor, sessionID)
}

func (m *mockCatalogService) Select(sessionID string, req domain.SelectionRequest) (*service.CatalogView, error) {
	m.selected = req
	return m.view, m.err
}

func (m *mockCatalogService) Selected(sessionID string) (*service.SelectedItem, error) {
	return nil, service.ErrSelectionIncomplete
}

type mockOrderService struct {
	resp    *domain.SubmitOrderResponse
	err     error
	req     domain.SubmitOrderRequest
	history []*domain.OrderAudit
	limit   int
}

func (m *mockOrderService) Submit(ctx context.Context, sess *domain.Session, req domain.SubmitOrderRequest) (*domain.SubmitOrderResponse, error) {
	m.req = req
	return m.resp, m.err
}

func (m *mockOrderService) History(ctx context.Context, sess *domain.Session, limit int) ([]*domain.OrderAudit, error) {
	m.limit = limit
	return m.history, m.err
}

type mockProviderService struct {
	filter string
	err    error
}

func (m *mockProviderService) Dashboard(ctx context.Context, vendorFilter string) (*domain.Dashboard, error) {
	m.filter = vendorFilter
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Dashboard{Filter: vendorFilter, Vendors: []string{"SYS"}}, nil
}
