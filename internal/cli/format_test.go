package cli

import "testing"

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		name     string
		kmh      float64
		expected string
	}{
		{"whole", 120, "120"},
		{"fraction", 64.4, "64.4"},
		{"rounded", 35.26, "35.3"},
		{"zero", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSpeed(tt.kmh)
			if result != tt.expected {
				t.Errorf("formatSpeed(%g) = %q, want %q", tt.kmh, result, tt.expected)
			}
		})
	}
}

func TestKingdomList(t *testing.T) {
	want := "Animalia|Plantae|Fungi|Protista|Archaea|Bacteria"
	if got := kingdomList(); got != want {
		t.Errorf("kingdomList() = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}
