package logger

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		level    string
		encoding string
		wantErr  bool
	}{
		{"dev console", "dev", "debug", "console", false},
		{"prod json", "prod", "info", "json", false},
		{"upper case level", "dev", "WARN", "", false},
		{"bad level", "dev", "verbose", "console", true},
		{"bad encoding", "dev", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, err := New(tt.env, tt.level, tt.encoding, "planet-shoes", "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && lg == nil {
				t.Fatal("expected logger")
			}
		})
	}
}
