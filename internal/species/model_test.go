package species

import (
	"errors"
	"testing"
)

func TestValidKingdom(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Animalia", true},
		{"Plantae", true},
		{"Fungi", true},
		{"Protista", true},
		{"Archaea", true},
		{"Bacteria", true},
		{"animalia", false},
		{"Chromista", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidKingdom(tt.input); got != tt.want {
				t.Errorf("ValidKingdom(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatPopulation(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{20000, "20,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}

	for _, tt := range tests {
		if got := FormatPopulation(tt.n); got != tt.want {
			t.Errorf("FormatPopulation(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTitle(t *testing.T) {
	lion := "Lion"
	blank := ""

	tests := []struct {
		name   string
		common *string
		want   string
	}{
		{"with common name", &lion, "Common name: Lion"},
		{"nil common name", nil, "Species information"},
		{"empty common name", &blank, "Species information"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Species{CommonName: tt.common}
			if got := s.Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAuthor(t *testing.T) {
	s := &Species{Author: "p1"}

	if !s.IsAuthor("p1") {
		t.Error("author should own species")
	}
	if s.IsAuthor("p2") {
		t.Error("other viewer should not own species")
	}
	if (&Species{}).IsAuthor("") {
		t.Error("anonymous viewer should never own species")
	}
}

func TestInputValidate(t *testing.T) {
	neg := int64(-1)
	pop := int64(20000)

	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{"valid", Input{ScientificName: "Panthera leo", Kingdom: KingdomAnimalia, TotalPopulation: &pop}, false},
		{"missing name", Input{Kingdom: KingdomAnimalia}, true},
		{"bad kingdom", Input{ScientificName: "X", Kingdom: "Chromista"}, true},
		{"negative population", Input{ScientificName: "X", Kingdom: KingdomFungi, TotalPopulation: &neg}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestInputNormalize(t *testing.T) {
	blank := "   "
	common := "  Lion "
	in := Input{ScientificName: " Panthera leo ", CommonName: &common, Description: &blank}
	in.Normalize()

	if in.ScientificName != "Panthera leo" {
		t.Errorf("scientific name = %q", in.ScientificName)
	}
	if in.CommonName == nil || *in.CommonName != "Lion" {
		t.Errorf("common name = %v", in.CommonName)
	}
	if in.Description != nil {
		t.Errorf("description = %q, want nil", *in.Description)
	}
}
