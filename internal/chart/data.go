// Package chart loads animal speed data and renders it as an SVG bar chart.
package chart

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

//go:embed sample_animals.csv
var sampleCSV []byte

// CSV column headers.
const (
	colAnimal = "Animal"
	colSpeed  = "Top Speed (km/h)"
	colDiet   = "Diet"
)

// Diet groups animals for coloring and selection.
type Diet string

const (
	Herbivore Diet = "herbivore"
	Omnivore  Diet = "omnivore"
	Carnivore Diet = "carnivore"
)

// Diets lists every diet in legend order.
var Diets = []Diet{Herbivore, Omnivore, Carnivore}

// ParseDiet normalizes s and reports whether it names a known diet.
func ParseDiet(s string) (Diet, bool) {
	d := Diet(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Herbivore, Omnivore, Carnivore:
		return d, true
	}
	return "", false
}

// Label is the capitalized legend text.
func (d Diet) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Animal is one valid row of the dataset.
type Animal struct {
	Name  string  `json:"name"`
	Speed float64 `json:"speed"`
	Diet  Diet    `json:"diet"`
}

// LoadSample parses the embedded dataset.
func LoadSample() ([]Animal, error) {
	return Load(bytes.NewReader(sampleCSV))
}

// Load reads CSV rows with Animal, "Top Speed (km/h)" and Diet columns in
// any order. Rows with a blank name, a non-numeric speed, or an unknown diet
// are skipped.
func Load(r io.Reader) ([]Animal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{colAnimal, colSpeed, colDiet} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	field := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var animals []Animal
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		name := strings.TrimSpace(field(rec, colAnimal))
		speed, ok := parseLeadingFloat(field(rec, colSpeed))
		diet, dietOK := ParseDiet(field(rec, colDiet))
		if name == "" || !ok || !dietOK {
			continue
		}

		animals = append(animals, Animal{Name: name, Speed: speed, Diet: diet})
	}

	return animals, nil
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseLeadingFloat parses the numeric prefix of s, so "112 km/h" is 112.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
