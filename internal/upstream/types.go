package upstream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// flexString 接受字符串、数字或 null
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(string(b))
	return nil
}

// flexInt 接受整数、浮点数或数字字符串；无法解析时为 0
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(parseInt(string(s)))
	return nil
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int(v)
	}
	return 0
}

// flexDecimal 接受数字或数字字符串；无法解析时为 0
type flexDecimal decimal.Decimal

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil || s == "" {
		*f = flexDecimal(decimal.Zero)
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(string(s), ",", ""))
	if err != nil {
		d = decimal.Zero
	}
	*f = flexDecimal(d)
	return nil
}

// envelope 远端接口统一响应
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// modelRecord /Modelos 返回的库存行
type modelRecord struct {
	ID          flexString  `json:"id"`
	Style       flexString  `json:"estilo"`
	Brand       flexString  `json:"marca"`
	Color       flexString  `json:"color"`
	Material    flexString  `json:"material"`
	Description flexString  `json:"descripcion"`
	Photo       flexString  `json:"foto"`
	Gender      flexString  `json:"genero"`
	Size        flexInt     `json:"talla"`
	Range       flexString  `json:"rango"`
	Stock       flexInt     `json:"existencia"`
	Price       flexDecimal `json:"precio1"`
}

// toDomain 在边界处应用默认值：缺失文本使用占位标签，负数归零
func (r modelRecord) toDomain(style string) domain.InventoryRecord {
	price := decimal.Decimal(r.Price)
	if price.IsNegative() {
		price = decimal.Zero
	}
	rec := domain.InventoryRecord{
		ArticleID:   string(r.ID),
		Style:       orDefault(string(r.Style), style),
		Brand:       orDefault(string(r.Brand), domain.DefaultBrand),
		Color:       orDefault(string(r.Color), domain.DefaultColor),
		Material:    orDefault(string(r.Material), domain.DefaultMaterial),
		Description: string(r.Description),
		PhotoPath:   string(r.Photo),
		Gender:      string(r.Gender),
		SizeRaw:     max(int(r.Size), 0),
		Range:       orDefault(string(r.Range), domain.DefaultRange),
		Stock:       max(int(r.Stock), 0),
		UnitPrice:   price,
	}
	return rec
}

// orderRecord /Pedidos 返回的订单行
type orderRecord struct {
	Article          flexString `json:"articulo"`
	ModelDescription flexString `json:"modeloDescripcion"`
	Brand            flexString `json:"marca"`
	Color            flexString `json:"color"`
	Material         flexString `json:"material"`
	Size             flexInt    `json:"talla"`
	Photo            flexString `json:"foto"`
	Filled           flexInt    `json:"surtido"`
	Pending          flexInt    `json:"porSurtir"`
	Vendor           *struct {
		ID   flexString `json:"id"`
		Name flexString `json:"nombre"`
	} `json:"vendedor"`
}

func (r orderRecord) toDomain() domain.OrderRecord {
	rec := domain.OrderRecord{
		Article:          string(r.Article),
		ModelDescription: string(r.ModelDescription),
		Brand:            orDefault(string(r.Brand), domain.DefaultBrand),
		Color:            orDefault(string(r.Color), domain.DefaultColor),
		Material:         orDefault(string(r.Material), domain.DefaultMaterial),
		SizeRaw:          max(int(r.Size), 0),
		PhotoPath:        string(r.Photo),
		Filled:           max(int(r.Filled), 0),
		Pending:          max(int(r.Pending), 0),
	}
	if r.Vendor != nil {
		rec.Vendor = domain.Vendor{ID: string(r.Vendor.ID), Name: string(r.Vendor.Name)}
	}
	return rec
}

// orderPayload POST /Pedidos 请求体，precio 以 JSON 数字发送
type orderPayload struct {
	Article  string      `json:"articulo"`
	Quantity int         `json:"cantidad"`
	Price    json.Number `json:"precio"`
	User     string      `json:"usuario"`
}

type orderAck struct {
	ID flexString `json:"id"`
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
