package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/catalog"
	"github.com/MorseWayne/planet_shoes/internal/domain"
)

func newTestCatalogService() (*mockCatalogRepository, CatalogService) {
	repo := newMockCatalogRepository()
	repo.records["3390"] = nikeRecords()
	return repo, NewCatalogService(repo, "https://cdn.test/Fotos/", zap.NewNop())
}

func TestCatalogService_Lookup(t *testing.T) {
	_, svc := newTestCatalogService()

	view, err := svc.Lookup(context.Background(), "s1", " 3390 ")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	cat := view.Catalog
	if cat.DisplayName != "MOD. 3390" || !cat.Available || cat.TotalStock != 9 {
		t.Errorf("unexpected catalog: %+v", cat)
	}
	if len(cat.Brands) != 2 || cat.Brands[0].Key != "ADIDAS" || cat.Brands[1].Key != "NIKE" {
		t.Fatalf("unexpected brands: %+v", cat.Brands)
	}
	negro := cat.Brands[1].Colors[1]
	if negro.Key != "NEGRO" || negro.ImageURL != "https://cdn.test/Fotos/3390-Negro.jpg" {
		t.Errorf("unexpected color: key=%s image=%s", negro.Key, negro.ImageURL)
	}
	if view.State != catalog.NoSelection.String() {
		t.Errorf("new view should start without selection, got %s", view.State)
	}

	current, err := svc.CurrentView("s1")
	if err != nil || current.Catalog != cat {
		t.Errorf("CurrentView() = %v, %v", current, err)
	}
	if _, err := svc.CurrentView("other"); !errors.Is(err, ErrNoActiveView) {
		t.Errorf("other session should have no view, got %v", err)
	}
}

func TestCatalogService_LookupNotFound(t *testing.T) {
	_, svc := newTestCatalogService()
	ctx := context.Background()

	if _, err := svc.Lookup(ctx, "s1", "3390"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	view, err := svc.Lookup(ctx, "s1", "0000")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if view.Catalog.Available || view.Catalog.Found() || view.Catalog.TotalStock != 0 {
		t.Errorf("expected empty catalog, got %+v", view.Catalog)
	}
	if _, err := svc.CurrentView("s1"); !errors.Is(err, ErrNoActiveView) {
		t.Errorf("not found lookup should replace the previous view, got %v", err)
	}
}

func TestCatalogService_LookupErrors(t *testing.T) {
	repo, svc := newTestCatalogService()

	if _, err := svc.Lookup(context.Background(), "s1", "  "); !errors.Is(err, ErrInvalidStyle) {
		t.Errorf("expected ErrInvalidStyle, got %v", err)
	}

	sentinel := errors.New("upstream down")
	repo.err = sentinel
	if _, err := svc.Lookup(context.Background(), "s1", "3390"); !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped repo error, got %v", err)
	}
}

func TestCatalogService_LatestLookupWins(t *testing.T) {
	repo, svc := newTestCatalogService()
	repo.records["5018"] = []domain.InventoryRecord{{ArticleID: "9", Brand: "Puma", Color: "Gris", SizeRaw: 200, Stock: 1}}
	repo.gates["3390"] = make(chan struct{})
	repo.entered = make(chan string, 2)
	ctx := context.Background()

	type result struct {
		view *CatalogView
		err  error
	}
	slow := make(chan result, 1)
	go func() {
		v, err := svc.Lookup(ctx, "s1", "3390")
		slow <- result{v, err}
	}()
	<-repo.entered

	fast, err := svc.Lookup(ctx, "s1", "5018")
	<-repo.entered
	if err != nil {
		t.Fatalf("fast Lookup() error = %v", err)
	}
	if fast.Catalog.ModelID != "5018" {
		t.Errorf("unexpected fast result: %s", fast.Catalog.ModelID)
	}

	close(repo.gates["3390"])
	res := <-slow
	if !errors.Is(res.err, ErrLookupSuperseded) {
		t.Fatalf("expected ErrLookupSuperseded, got %v", res.err)
	}

	current, err := svc.CurrentView("s1")
	if err != nil || current.Catalog.ModelID != "5018" {
		t.Errorf("view should remain the latest lookup, got %v, %v", current, err)
	}
}

func TestCatalogService_CloseViewDiscardsPending(t *testing.T) {
	repo, svc := newTestCatalogService()
	repo.gates["3390"] = make(chan struct{})
	repo.entered = make(chan string, 1)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Lookup(context.Background(), "s1", "3390")
		done <- err
	}()
	<-repo.entered

	svc.CloseView("s1")
	close(repo.gates["3390"])
	if err := <-done; !errors.Is(err, ErrLookupSuperseded) {
		t.Errorf("expected ErrLookupSuperseded, got %v", err)
	}
	if _, err := svc.CurrentView("s1"); !errors.Is(err, ErrNoActiveView) {
		t.Errorf("closed view should stay closed, got %v", err)
	}
}

func TestCatalogService_Select(t *testing.T) {
	_, svc := newTestCatalogService()

	if _, err := svc.Select("s1", domain.SelectionRequest{Brand: "nike"}); !errors.Is(err, ErrNoActiveView) {
		t.Errorf("expected ErrNoActiveView, got %v", err)
	}
	if _, err := svc.Lookup(context.Background(), "s1", "3390"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	view, err := svc.Select("s1", domain.SelectionRequest{Brand: "nike", Color: "negro", Size: "25,0"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if view.State != catalog.SizeChosen.String() || view.Resolved.Size == nil || view.Resolved.Size.ArticleID != "101" {
		t.Errorf("unexpected view: state=%s resolved=%+v", view.State, view.Resolved)
	}

	// 失败时保持原选择
	if _, err := svc.Select("s1", domain.SelectionRequest{Brand: "nike", Color: "verde"}); !errors.Is(err, catalog.ErrColorNotFound) {
		t.Errorf("expected ErrColorNotFound, got %v", err)
	}
	item, err := svc.Selected("s1")
	if err != nil {
		t.Fatalf("Selected() error = %v", err)
	}
	if item.Style != "3390" || item.Brand.Key != "NIKE" || item.Color.Key != "NEGRO" || item.Size.Size != "25" {
		t.Errorf("unexpected selected item: %+v", item)
	}

	// 只选品牌时不能下单
	if _, err := svc.Select("s1", domain.SelectionRequest{Brand: "adidas"}); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if _, err := svc.Selected("s1"); !errors.Is(err, ErrSelectionIncomplete) {
		t.Errorf("expected ErrSelectionIncomplete, got %v", err)
	}
}

func (s *catalogService) sizes() (lookups, views int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lookups), len(s.views)
}

func TestCatalogService_StateReleasedAfterClose(t *testing.T) {
	_, svc := newTestCatalogService()
	impl := svc.(*catalogService)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("s%d", i)
		if _, err := svc.Lookup(ctx, id, "3390"); err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		svc.CloseView(id)
	}
	if lookups, views := impl.sizes(); lookups != 0 || views != 0 {
		t.Errorf("after 1000 lookup/close cycles: lookups=%d views=%d", lookups, views)
	}

	// 出错和未找到的查询同样不留下记录
	if _, err := svc.Lookup(ctx, "gone", "0000"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if lookups, views := impl.sizes(); lookups != 0 || views != 0 {
		t.Errorf("not found lookup left state: lookups=%d views=%d", lookups, views)
	}
}

func TestCatalogService_PendingLookupStateReleased(t *testing.T) {
	repo, svc := newTestCatalogService()
	impl := svc.(*catalogService)
	repo.gates["3390"] = make(chan struct{})
	repo.entered = make(chan string, 1)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Lookup(context.Background(), "s1", "3390")
		done <- err
	}()
	<-repo.entered

	svc.CloseView("s1")
	if lookups, _ := impl.sizes(); lookups != 1 {
		t.Fatalf("in-flight lookup must keep its state, lookups=%d", lookups)
	}
	close(repo.gates["3390"])
	if err := <-done; !errors.Is(err, ErrLookupSuperseded) {
		t.Fatalf("expected ErrLookupSuperseded, got %v", err)
	}
	if lookups, views := impl.sizes(); lookups != 0 || views != 0 {
		t.Errorf("state left after pending lookup: lookups=%d views=%d", lookups, views)
	}
}

func TestCatalogService_IdleViewsExpire(t *testing.T) {
	_, svc := newTestCatalogService()
	impl := svc.(*catalogService)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return now }
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := svc.Lookup(ctx, id, "3390"); err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
	}

	// 访问会刷新闲置时间
	now = now.Add(viewIdleTTL - time.Minute)
	if _, err := svc.CurrentView("a"); err != nil {
		t.Fatalf("CurrentView() error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.CurrentView("b"); !errors.Is(err, ErrNoActiveView) {
		t.Errorf("idle view should expire, got %v", err)
	}
	if _, err := svc.CurrentView("a"); err != nil {
		t.Errorf("recently used view should survive, got %v", err)
	}

	// 其他会话的查询触发清理
	now = now.Add(viewIdleTTL + sweepInterval)
	if _, err := svc.Lookup(ctx, "c", "3390"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if _, views := impl.sizes(); views != 1 {
		t.Errorf("sweep should leave only the new view, views=%d", views)
	}
}
