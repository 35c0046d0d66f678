// Package species provides the species domain model and data access.
package species

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a species does not exist.
	ErrNotFound = errors.New("species not found")
	// ErrNotAuthor is returned when someone other than the author tries to
	// change a species.
	ErrNotAuthor = errors.New("only the author can modify this species")
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid species")
)

// Kingdom is the top-level taxonomic rank of a species.
type Kingdom string

const (
	KingdomAnimalia Kingdom = "Animalia"
	KingdomPlantae  Kingdom = "Plantae"
	KingdomFungi    Kingdom = "Fungi"
	KingdomProtista Kingdom = "Protista"
	KingdomArchaea  Kingdom = "Archaea"
	KingdomBacteria Kingdom = "Bacteria"
)

// Kingdoms lists every kingdom in display order.
var Kingdoms = []Kingdom{
	KingdomAnimalia,
	KingdomPlantae,
	KingdomFungi,
	KingdomProtista,
	KingdomArchaea,
	KingdomBacteria,
}

// ValidKingdom returns true if s is a known kingdom.
func ValidKingdom(s string) bool {
	switch Kingdom(s) {
	case KingdomAnimalia, KingdomPlantae, KingdomFungi,
		KingdomProtista, KingdomArchaea, KingdomBacteria:
		return true
	}
	return false
}

// Species is a catalogued organism.
type Species struct {
	ID              int64     `json:"id"`
	ScientificName  string    `json:"scientific_name"`
	CommonName      *string   `json:"common_name,omitempty"`
	TotalPopulation *int64    `json:"total_population,omitempty"`
	Kingdom         Kingdom   `json:"kingdom"`
	Description     *string   `json:"description,omitempty"`
	Image           *string   `json:"image,omitempty"`
	Author          string    `json:"author"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsAuthor reports whether viewerID owns this species.
func (s *Species) IsAuthor(viewerID string) bool {
	return viewerID != "" && s.Author == viewerID
}

// Title is the heading shown in the detail view.
func (s *Species) Title() string {
	if s.CommonName != nil && *s.CommonName != "" {
		return "Common name: " + *s.CommonName
	}
	return "Species information"
}

// Input carries the editable fields of a species.
type Input struct {
	ScientificName  string  `json:"scientific_name"`
	CommonName      *string `json:"common_name,omitempty"`
	TotalPopulation *int64  `json:"total_population,omitempty"`
	Kingdom         Kingdom `json:"kingdom"`
	Description     *string `json:"description,omitempty"`
	Image           *string `json:"image,omitempty"`
}

// Normalize trims text fields and turns blank optionals into nil.
func (in *Input) Normalize() {
	in.ScientificName = strings.TrimSpace(in.ScientificName)
	in.CommonName = blankToNil(in.CommonName)
	in.Description = blankToNil(in.Description)
	in.Image = blankToNil(in.Image)
}

// Validate checks required fields and ranges.
func (in *Input) Validate() error {
	if in.ScientificName == "" {
		return fmt.Errorf("%w: scientific name is required", ErrInvalid)
	}
	if !ValidKingdom(string(in.Kingdom)) {
		return fmt.Errorf("%w: unknown kingdom %q", ErrInvalid, in.Kingdom)
	}
	if in.TotalPopulation != nil && *in.TotalPopulation < 0 {
		return fmt.Errorf("%w: total population must not be negative", ErrInvalid)
	}
	return nil
}

// FormatPopulation renders n with comma thousands separators.
func FormatPopulation(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func scanSpecies(row interface{ Scan(...any) error }) (*Species, error) {
	var s Species
	var common, desc, image sql.NullString
	var population sql.NullInt64
	var kingdom string

	err := row.Scan(
		&s.ID, &s.ScientificName, &common, &population, &kingdom,
		&desc, &image, &s.Author, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Kingdom = Kingdom(kingdom)
	if common.Valid {
		s.CommonName = &common.String
	}
	if population.Valid {
		s.TotalPopulation = &population.Int64
	}
	if desc.Valid {
		s.Description = &desc.String
	}
	if image.Valid {
		s.Image = &image.String
	}

	return &s, nil
}
