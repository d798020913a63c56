// Package catalog 将远端库存记录折叠为品牌 → 颜色 → 尺码的目录视图，
// 并提供尺码解码、颜色色块与选择状态机等配套逻辑。
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// ModelPrefix 款号展示名前缀
const ModelPrefix = "MOD. "

// Normalize 返回分组键：去除首尾空白并转大写。
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Aggregate 将同一款号的库存记录聚合为目录视图。
// 纯函数：不修改输入，不返回错误；空输入得到 Available=false 的空目录。
// 同一颜色下相同解码尺码的库存累加，价格与商品编号保留首次出现的值。
func Aggregate(records []domain.InventoryRecord, queriedModel string) *domain.Catalog {
	model := Normalize(queriedModel)
	cat := &domain.Catalog{
		ModelID:     model,
		DisplayName: ModelPrefix + model,
		Brands:      []*domain.AggregatedBrand{},
	}

	brands := make(map[string]*domain.AggregatedBrand)
	colors := make(map[string]map[string]*domain.AggregatedColor)

	for _, rec := range records {
		bKey := Normalize(rec.Brand)
		brand, ok := brands[bKey]
		if !ok {
			brand = &domain.AggregatedBrand{
				BrandName: strings.TrimSpace(rec.Brand),
				Key:       bKey,
				Colors:    []*domain.AggregatedColor{},
			}
			brands[bKey] = brand
			colors[bKey] = make(map[string]*domain.AggregatedColor)
			cat.Brands = append(cat.Brands, brand)
		}

		cKey := Normalize(rec.Color)
		color, ok := colors[bKey][cKey]
		if !ok {
			color = &domain.AggregatedColor{
				ColorName:    strings.TrimSpace(rec.Color),
				Key:          cKey,
				Swatch:       Swatch(rec.Color),
				AllSizes:     []domain.SizeStock{},
				SizesByRange: make(map[string]*domain.RangeGroup),
			}
			colors[bKey][cKey] = color
			brand.Colors = append(brand.Colors, color)
		}
		fillDetails(color, rec)

		label, value := DecodeSize(rec.SizeRaw)
		stock := max(rec.Stock, 0)
		price := rec.UnitPrice
		if price.IsNegative() {
			price = decimal.Zero
		}
		entry := domain.SizeStock{Size: label, Value: value, Stock: stock, Price: price, ArticleID: rec.ArticleID}

		color.AllSizes = accumulate(color.AllSizes, entry)

		rangeLabel := strings.TrimSpace(rec.Range)
		if rangeLabel == "" {
			rangeLabel = domain.DefaultRange
		}
		group, ok := color.SizesByRange[rangeLabel]
		if !ok {
			group = &domain.RangeGroup{
				Range:  rangeLabel,
				Price:  price,
				Gender: strings.TrimSpace(rec.Gender),
				Sizes:  []domain.SizeStock{},
			}
			color.SizesByRange[rangeLabel] = group
		}
		group.Sizes = accumulate(group.Sizes, entry)
	}

	// collate.Collator 不是并发安全的，每次聚合单独创建
	coll := collate.New(language.Spanish, collate.IgnoreCase)
	byKey := func(a, b string) int {
		if r := coll.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	}

	for _, brand := range cat.Brands {
		brand.TotalStock = 0
		for _, color := range brand.Colors {
			sortSizes(color.AllSizes)
			color.TotalStock = sumStock(color.AllSizes)
			for _, group := range color.SizesByRange {
				sortSizes(group.Sizes)
				group.TotalStock = sumStock(group.Sizes)
			}
			brand.TotalStock += color.TotalStock
		}
		slices.SortStableFunc(brand.Colors, func(a, b *domain.AggregatedColor) int {
			return byKey(a.Key, b.Key)
		})
	}
	slices.SortStableFunc(cat.Brands, func(a, b *domain.AggregatedBrand) int {
		return byKey(a.Key, b.Key)
	})

	for _, brand := range cat.Brands {
		cat.TotalStock += brand.TotalStock
	}
	cat.Available = cat.TotalStock > 0
	return cat
}

// accumulate 按解码后的尺码标签查找条目，存在则累加库存，否则追加。
func accumulate(sizes []domain.SizeStock, entry domain.SizeStock) []domain.SizeStock {
	for i := range sizes {
		if sizes[i].Size == entry.Size {
			sizes[i].Stock += entry.Stock
			return sizes
		}
	}
	return append(sizes, entry)
}

// fillDetails 颜色的描述字段取首个非空值
func fillDetails(color *domain.AggregatedColor, rec domain.InventoryRecord) {
	if color.Material == "" {
		color.Material = strings.TrimSpace(rec.Material)
	}
	if color.Description == "" {
		color.Description = strings.TrimSpace(rec.Description)
	}
	if color.PhotoPath == "" {
		color.PhotoPath = strings.TrimSpace(rec.PhotoPath)
	}
	if color.Gender == "" {
		color.Gender = strings.TrimSpace(rec.Gender)
	}
}

func sortSizes(sizes []domain.SizeStock) {
	slices.SortStableFunc(sizes, func(a, b domain.SizeStock) int {
		return cmp.Compare(a.Value, b.Value)
	})
}

func sumStock(sizes []domain.SizeStock) int {
	total := 0
	for _, s := range sizes {
		total += s.Stock
	}
	return total
}
