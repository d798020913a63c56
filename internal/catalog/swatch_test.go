package catalog

import "testing"

func TestSwatch(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"NEGRO", "#000000"},
		{"  negro ", "#000000"},
		{"Café", "#8B4513"},
		{"CAFE", "#8B4513"},
		{"Azul  Marino", "#000080"},
		{"Borgoña", "#800020"},
		{"Fucsia eléctrico", DefaultSwatch},
		{"", DefaultSwatch},
	}

	for _, tt := range tests {
		if got := Swatch(tt.name); got != tt.want {
			t.Errorf("Swatch(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
