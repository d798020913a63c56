package domain

import (
	"github.com/shopspring/decimal"
)

// SizeStock 为某个尺码的库存条目
type SizeStock struct {
	Size      string          `json:"size"`  // 解码后的尺码标签，如 "18.5"
	Value     float64         `json:"value"` // 数值尺码，用于排序与容差匹配
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
	ArticleID string          `json:"article_id"`
}

// RangeGroup 同一颜色下按尺码段分组的尺码
type RangeGroup struct {
	Range      string          `json:"range"`
	Price      decimal.Decimal `json:"price"`
	Gender     string          `json:"gender"`
	Sizes      []SizeStock     `json:"sizes"`
	TotalStock int             `json:"total_stock"`
}

// AggregatedColor 品牌下的一种颜色（按规范化颜色名唯一）
type AggregatedColor struct {
	ColorName    string                 `json:"color_name"`
	Key          string                 `json:"key"`
	Material     string                 `json:"material"`
	Description  string                 `json:"description"`
	PhotoPath    string                 `json:"photo_path"`
	ImageURL     string                 `json:"image_url,omitempty"`
	Gender       string                 `json:"gender"`
	Swatch       string                 `json:"swatch"`
	AllSizes     []SizeStock            `json:"all_sizes"`
	SizesByRange map[string]*RangeGroup `json:"sizes_by_range"`
	TotalStock   int                    `json:"total_stock"`
}

// AggregatedBrand 一个品牌及其颜色
type AggregatedBrand struct {
	BrandName  string             `json:"brand_name"`
	Key        string             `json:"key"`
	Colors     []*AggregatedColor `json:"colors"`
	TotalStock int                `json:"total_stock"`
}

// Catalog 某个款号的聚合视图：品牌 → 颜色 → 尺码
type Catalog struct {
	ModelID     string             `json:"model_id"`
	DisplayName string             `json:"display_name"`
	Brands      []*AggregatedBrand `json:"brands"`
	TotalStock  int                `json:"total_stock"`
	Available   bool               `json:"available"`
}

// Found 报告查询是否命中任何记录
func (c *Catalog) Found() bool {
	return c != nil && len(c.Brands) > 0
}
