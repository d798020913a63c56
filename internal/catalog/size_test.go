package catalog

import (
	"testing"

	"github.com/MorseWayne/planet_shoes/internal/domain"
)

func TestDecodeSize(t *testing.T) {
	tests := []struct {
		raw       int
		wantLabel string
		wantValue float64
	}{
		{180, "18", 18},
		{185, "18.5", 18.5},
		{225, "22.5", 22.5},
		{0, "0", 0},
		{-40, "0", 0},
		{263, "26.3", 26.3},
	}

	for _, tt := range tests {
		label, value := DecodeSize(tt.raw)
		if label != tt.wantLabel || value != tt.wantValue {
			t.Errorf("DecodeSize(%d) = %q, %v; want %q, %v", tt.raw, label, value, tt.wantLabel, tt.wantValue)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"18.5", 18.5, true},
		{" 22 ", 22, true},
		{"18,5", 18.5, true},
		{"", 0, false},
		{"grande", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseSize(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseSize(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatchSize_NumericTolerance(t *testing.T) {
	sizes := []domain.SizeStock{
		{Size: "18", Value: 18, Stock: 5},
		{Size: "18.5", Value: 18.5, Stock: 1},
	}

	tests := []struct {
		selected string
		want     string
		ok       bool
	}{
		{"18.5", "18.5", true},
		{"18.5000001", "18.5", true},
		{"18.0", "18", true},
		{"18.05", "18", true},
		{"18.3", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchSize(sizes, tt.selected)
		if ok != tt.ok || got.Size != tt.want {
			t.Errorf("MatchSize(%q) = %q, %v; want %q, %v", tt.selected, got.Size, ok, tt.want, tt.ok)
		}
	}
}
