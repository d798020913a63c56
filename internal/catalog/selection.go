package catalog

import (
	"errors"
	"strings"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

var (
	ErrBrandRequired = errors.New("brand must be chosen first")
	ErrColorRequired = errors.New("color must be chosen first")
	ErrInvalidSize   = errors.New("invalid size")
	ErrBrandNotFound = errors.New("brand not found in catalog")
	ErrColorNotFound = errors.New("color not found for brand")
	ErrSizeNotFound  = errors.New("size not found for color")
)

// SelectionState 选择状态
type SelectionState int

const (
	NoSelection SelectionState = iota
	BrandChosen
	ColorChosen
	SizeChosen
)

func (s SelectionState) String() string {
	switch s {
	case BrandChosen:
		return "brand_chosen"
	case ColorChosen:
		return "color_chosen"
	case SizeChosen:
		return "size_chosen"
	default:
		return "no_selection"
	}
}

// Selection 品牌 → 颜色 → 尺码的选择。品牌与颜色保存规范化键。
// 选择品牌会清空颜色和尺码，选择颜色会清空尺码。
type Selection struct {
	Brand string `json:"brand,omitempty"`
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
}

// State 返回当前状态
func (s Selection) State() SelectionState {
	switch {
	case s.Size != "":
		return SizeChosen
	case s.Color != "":
		return ColorChosen
	case s.Brand != "":
		return BrandChosen
	default:
		return NoSelection
	}
}

// ChooseBrand 选择品牌；空字符串回到 NoSelection
func (s *Selection) ChooseBrand(brand string) {
	s.Brand = Normalize(brand)
	s.Color = ""
	s.Size = ""
}

// ChooseColor 选择颜色，要求已选品牌
func (s *Selection) ChooseColor(color string) error {
	if s.Brand == "" {
		return ErrBrandRequired
	}
	s.Color = Normalize(color)
	s.Size = ""
	return nil
}

// ChooseSize 选择尺码，要求已选颜色
func (s *Selection) ChooseSize(size string) error {
	if s.Color == "" {
		return ErrColorRequired
	}
	size = strings.TrimSpace(size)
	if size == "" {
		s.Size = ""
		return nil
	}
	if _, ok := ParseSize(size); !ok {
		return ErrInvalidSize
	}
	s.Size = size
	return nil
}

// Reset 回到 NoSelection
func (s *Selection) Reset() {
	*s = Selection{}
}

// Resolved 选择在目录中对应的条目，未选择的层级为 nil
type Resolved struct {
	Brand *domain.AggregatedBrand `json:"brand,omitempty"`
	Color *domain.AggregatedColor `json:"color,omitempty"`
	Size  *domain.SizeStock       `json:"size,omitempty"`
}

// Resolve 在目录中读取当前选择，尺码按数值容差匹配。
func (s Selection) Resolve(cat *domain.Catalog) (Resolved, error) {
	var r Resolved
	if s.Brand == "" || cat == nil {
		return r, nil
	}
	for _, b := range cat.Brands {
		if b.Key == s.Brand {
			r.Brand = b
			break
		}
	}
	if r.Brand == nil {
		return Resolved{}, ErrBrandNotFound
	}
	if s.Color == "" {
		return r, nil
	}
	for _, c := range r.Brand.Colors {
		if c.Key == s.Color {
			r.Color = c
			break
		}
	}
	if r.Color == nil {
		return Resolved{}, ErrColorNotFound
	}
	if s.Size == "" {
		return r, nil
	}
	size, ok := MatchSize(r.Color.AllSizes, s.Size)
	if !ok {
		return Resolved{}, ErrSizeNotFound
	}
	r.Size = &size
	return r, nil
}

// Apply 依次应用品牌、颜色、尺码并校验其存在于目录；失败时原选择保持不变。
func (s *Selection) Apply(cat *domain.Catalog, req domain.SelectionRequest) error {
	next := Selection{}
	next.ChooseBrand(req.Brand)
	if strings.TrimSpace(req.Color) != "" {
		if err := next.ChooseColor(req.Color); err != nil {
			return err
		}
	}
	if strings.TrimSpace(req.Size) != "" {
		if err := next.ChooseSize(req.Size); err != nil {
			return err
		}
	}
	if _, err := next.Resolve(cat); err != nil {
		return err
	}
	*s = next
	return nil
}
