package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

// sizeTolerance 外部传入的尺码与目录尺码视为相同的最大差值
const sizeTolerance = 0.1

// DecodeSize 将 ×10 编码的尺码解码为标签与数值：180 → "18"，185 → "18.5"。
// 负值按 0 处理。
func DecodeSize(raw int) (string, float64) {
	if raw < 0 {
		raw = 0
	}
	value := float64(raw) / 10
	label := strconv.FormatFloat(value, 'f', 1, 64)
	return strings.TrimSuffix(label, ".0"), value
}

// ParseSize 解析尺码标签，接受 "18.5" 与 "18,5"。
func ParseSize(label string) (float64, bool) {
	label = strings.ReplaceAll(strings.TrimSpace(label), ",", ".")
	if label == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(label, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// MatchSize 在尺码列表中查找与 selected 数值差小于 0.1 的条目。
func MatchSize(sizes []domain.SizeStock, selected string) (domain.SizeStock, bool) {
	v, ok := ParseSize(selected)
	if !ok {
		return domain.SizeStock{}, false
	}
	for _, s := range sizes {
		if math.Abs(s.Value-v) < sizeTolerance {
			return s, true
		}
	}
	return domain.SizeStock{}, false
}
