package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/catalog"
	"github.com/MorseWayne/planet_shoes/internal/domain"
	"github.com/MorseWayne/planet_shoes/internal/repo"
	"github.com/MorseWayne/planet_shoes/internal/upstream"
)

// 目录服务错误
var (
	ErrInvalidStyle     = errors.New("style is required")
	ErrLookupSuperseded = errors.New("lookup superseded by a newer request")
	ErrNoActiveView     = errors.New("no catalog view open")
)

// CatalogView 会话当前的详情视图
type CatalogView struct {
	Catalog   *domain.Catalog   `json:"catalog"`
	Selection catalog.Selection `json:"selection"`
	State     string            `json:"state"`
	Resolved  catalog.Resolved  `json:"resolved"`
}

// SelectedItem 当前选择对应到目录中的条目
type SelectedItem struct {
	Style string
	Brand *domain.AggregatedBrand
	Color *domain.AggregatedColor
	Size  domain.SizeStock
}

// CatalogService 款号查询与详情视图
type CatalogService interface {
	// Lookup 查询款号并替换会话的详情视图；未找到时返回 Available=false 且不打开视图
	Lookup(ctx context.Context, sessionID, style string) (*CatalogView, error)
	CurrentView(sessionID string) (*CatalogView, error)
	CloseView(sessionID string)
	Select(sessionID string, req domain.SelectionRequest) (*CatalogView, error)
	// Selected 返回已选到尺码的条目，供下单使用
	Selected(sessionID string) (*SelectedItem, error)
}

// 视图闲置超过 viewIdleTTL 即被回收
const (
	viewIdleTTL   = 2 * time.Hour
	sweepInterval = 5 * time.Minute
)

type sessionView struct {
	catalog   *domain.Catalog
	selection catalog.Selection
	touched   time.Time
}

// lookupState 会话内进行中的查询。没有查询在途时整条记录被删除。
type lookupState struct {
	seq      uint64
	inflight int
}

type catalogService struct {
	repo      repo.CatalogRepository
	photoBase string
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	lookups   map[string]*lookupState
	views     map[string]*sessionView
	lastSweep time.Time
}

// NewCatalogService 创建目录服务
func NewCatalogService(catalogRepo repo.CatalogRepository, photoBase string, logger *zap.Logger) CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		repo:      catalogRepo,
		photoBase: photoBase,
		logger:    logger,
		now:       time.Now,
		lookups:   make(map[string]*lookupState),
		views:     make(map[string]*sessionView),
	}
}

// Lookup 每次查询占用一个会话内序号，返回时若已有更新的查询开始则丢弃结果
func (s *catalogService) Lookup(ctx context.Context, sessionID, style string) (*CatalogView, error) {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil, ErrInvalidStyle
	}

	s.mu.Lock()
	ticket := s.beginLookupLocked(sessionID)
	s.sweepLocked()
	s.mu.Unlock()

	records, err := s.repo.FindByStyle(ctx, style)
	if err != nil {
		s.mu.Lock()
		s.endLookupLocked(sessionID, ticket)
		s.mu.Unlock()
		return nil, fmt.Errorf("lookup style %s: %w", style, err)
	}

	cat := catalog.Aggregate(records, style)
	s.fillImageURLs(cat)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.endLookupLocked(sessionID, ticket) {
		s.logger.Debug("discarding superseded lookup",
			zap.String("session_id", sessionID),
			zap.String("style", style),
		)
		return nil, ErrLookupSuperseded
	}

	if !cat.Found() {
		delete(s.views, sessionID)
		return &CatalogView{Catalog: cat, State: catalog.NoSelection.String()}, nil
	}

	view := &sessionView{catalog: cat, touched: s.now()}
	s.views[sessionID] = view

	s.logger.Info("catalog view opened",
		zap.String("session_id", sessionID),
		zap.String("style", cat.ModelID),
		zap.Int("brands", len(cat.Brands)),
		zap.Int("total_stock", cat.TotalStock),
	)
	return view.snapshot(), nil
}

// beginLookupLocked 占用一个序号，调用方需持有锁
func (s *catalogService) beginLookupLocked(sessionID string) uint64 {
	st, ok := s.lookups[sessionID]
	if !ok {
		st = &lookupState{}
		s.lookups[sessionID] = st
	}
	st.seq++
	st.inflight++
	return st.seq
}

// endLookupLocked 结束一次查询并报告它是否仍是最新的，调用方需持有锁
func (s *catalogService) endLookupLocked(sessionID string, ticket uint64) bool {
	st, ok := s.lookups[sessionID]
	if !ok {
		return false
	}
	latest := st.seq == ticket
	st.inflight--
	if st.inflight <= 0 {
		delete(s.lookups, sessionID)
	}
	return latest
}

// viewLocked 返回未过期的视图并刷新访问时间，调用方需持有锁
func (s *catalogService) viewLocked(sessionID string) (*sessionView, bool) {
	view, ok := s.views[sessionID]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(view.touched) > viewIdleTTL {
		delete(s.views, sessionID)
		return nil, false
	}
	view.touched = now
	return view, true
}

// sweepLocked 定期清理闲置视图，调用方需持有锁
func (s *catalogService) sweepLocked() {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, view := range s.views {
		if now.Sub(view.touched) > viewIdleTTL {
			delete(s.views, id)
		}
	}
}

func (s *catalogService) fillImageURLs(cat *domain.Catalog) {
	for _, b := range cat.Brands {
		for _, c := range b.Colors {
			c.ImageURL = upstream.BuildImageURL(s.photoBase, c.PhotoPath)
		}
	}
}

// CurrentView 返回会话当前视图
func (s *catalogService) CurrentView(sessionID string) (*CatalogView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.viewLocked(sessionID)
	if !ok {
		return nil, ErrNoActiveView
	}
	return view.snapshot(), nil
}

// CloseView 关闭视图，并使进行中的查询结果作废
func (s *catalogService) CloseView(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, sessionID)
	if st, ok := s.lookups[sessionID]; ok {
		st.seq++
	}
}

// Select 应用品牌/颜色/尺码选择，失败时保持原选择
func (s *catalogService) Select(sessionID string, req domain.SelectionRequest) (*CatalogView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.viewLocked(sessionID)
	if !ok {
		return nil, ErrNoActiveView
	}
	if err := view.selection.Apply(view.catalog, req); err != nil {
		return nil, err
	}
	return view.snapshot(), nil
}

// Selected 读取完整的尺码选择
func (s *catalogService) Selected(sessionID string) (*SelectedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.viewLocked(sessionID)
	if !ok {
		return nil, ErrNoActiveView
	}
	if view.selection.State() != catalog.SizeChosen {
		return nil, ErrSelectionIncomplete
	}
	resolved, err := view.selection.Resolve(view.catalog)
	if err != nil {
		return nil, err
	}
	return &SelectedItem{
		Style: view.catalog.ModelID,
		Brand: resolved.Brand,
		Color: resolved.Color,
		Size:  *resolved.Size,
	}, nil
}

// snapshot 调用方需持有锁。目录构建后不再修改，可直接共享。
func (v *sessionView) snapshot() *CatalogView {
	resolved, _ := v.selection.Resolve(v.catalog)
	return &CatalogView{
		Catalog:   v.catalog,
		Selection: v.selection,
		State:     v.selection.State().String(),
		Resolved:  resolved,
	}
}
