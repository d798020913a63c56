package catalog

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var mxSpanish = language.MustParse("es-MX")

// FormatPrice 按 es-MX 习惯格式化比索金额，保留两位小数。
func FormatPrice(amount decimal.Decimal) string {
	p := message.NewPrinter(mxSpanish)
	return p.Sprintf("$%v", number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}

// LineTotal 单价乘以数量
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
