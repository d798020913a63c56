// Package domain 定义鞋类目录、订单与会话的领域模型。
// 领域模型独立于外部依赖（HTTP、数据库、缓存）。
package domain

import (
	"github.com/shopspring/decimal"
)

// 远端数据缺失时的默认显示值
const (
	DefaultBrand    = "Sin marca"
	DefaultColor    = "Sin color"
	DefaultMaterial = "Sin material"
	DefaultRange    = "Unknown"
)

// InventoryRecord 表示远端目录返回的一行库存：品牌/颜色/尺码/尺码段的组合。
// 记录在边界处已完成默认值填充，数值字段保证非负。
type InventoryRecord struct {
	ArticleID   string          `json:"article_id"` // 下单时使用的商品编号
	Style       string          `json:"style"`
	Brand       string          `json:"brand"`
	Color       string          `json:"color"`
	Material    string          `json:"material"`
	Description string          `json:"description"`
	PhotoPath   string          `json:"photo_path"`
	Gender      string          `json:"gender"`
	SizeRaw     int             `json:"size_raw"` // 尺码 ×10，例如 185 表示 18.5
	Range       string          `json:"range"`
	Stock       int             `json:"stock"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
