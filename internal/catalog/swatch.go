package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSwatch 未登记颜色的中性色
const DefaultSwatch = "#808080"

// swatches 键为去掉重音后的大写颜色名
var swatches = map[string]string{
	"NEGRO":         "#000000",
	"BLANCO":        "#FFFFFF",
	"HUESO":         "#F5F0E1",
	"BEIGE":         "#F5F5DC",
	"CAFE":          "#8B4513",
	"CAFE OSCURO":   "#654321",
	"CHOCOLATE":     "#5C3317",
	"MIEL":          "#C68E17",
	"CAMEL":         "#C19A6B",
	"TAN":           "#D2B48C",
	"GRIS":          "#808080",
	"GRIS OXFORD":   "#4A4A4A",
	"MARINO":        "#000080",
	"AZUL MARINO":   "#000080",
	"AZUL":          "#0000FF",
	"ROJO":          "#FF0000",
	"VINO":          "#722F37",
	"BORGONA":       "#800020",
	"ROSA":          "#FFC0CB",
	"VERDE":         "#008000",
	"VERDE MILITAR": "#556B2F",
	"AMARILLO":      "#FFD700",
	"NARANJA":       "#FFA500",
	"MORADO":        "#800080",
	"PLATA":         "#C0C0C0",
	"ORO":           "#D4AF37",
	"DORADO":        "#D4AF37",
}

// Swatch 将自由文本颜色名映射为显示用色值，大小写与重音不敏感。
func Swatch(name string) string {
	if hex, ok := swatches[swatchKey(name)]; ok {
		return hex
	}
	return DefaultSwatch
}

func swatchKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}
