package scanner

import (
	"errors"
	"testing"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		payload string
		want    string
		wantErr bool
	}{
		{"3390", "3390", false},
		{"  3390\n", "3390", false},
		{"MOD. 3390", "3390", false},
		{"mod.3390", "3390", false},
		{"MOD 5018", "5018", false},
		{"CASUAL-3390", "3390", false},
		{"casual-a12", "A12", false},
		{"https://planetshoes.mx/modelo?estilo=3390", "3390", false},
		{"https://planetshoes.mx/modelo?estilo=%203390%20&x=1", "3390", false},
		{"/catalogo?estilo=abc", "ABC", false},
		{"https://planetshoes.mx/modelo", "", true},
		{"", "", true},
		{"   ", "", true},
		{"MOD. ", "", true},
		{"dos palabras", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCode(tt.payload)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCode) {
				t.Errorf("ParseCode(%q) error = %v, want ErrInvalidCode", tt.payload, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseCode(%q) = %q, %v, want %q", tt.payload, got, err, tt.want)
		}
	}
}
