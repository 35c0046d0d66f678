package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/species-catalog/internal/chart"
)

const fastestPerDiet = 5

type speedPageData struct {
	page
	Animals []chart.Animal
}

// handleSpeedPage renders the speed chart page with a table of the charted
// animals.
func (s *Server) handleSpeedPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "species_speed.html", speedPageData{
		page:    s.newPage(w, r),
		Animals: chart.Select(s.animals, fastestPerDiet),
	})
}

// handleSpeedChart renders the chart as SVG.
func (s *Server) handleSpeedChart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := chart.RenderSVG(&buf, chart.Select(s.animals, fastestPerDiet))
	if errors.Is(err, chart.ErrNoData) {
		http.Error(w, "No data", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("rendering chart", "error", err)
		http.Error(w, "Error rendering chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing chart", "error", err)
	}
}

// apiSpeciesSpeed returns the charted animals as JSON.
func (s *Server) apiSpeciesSpeed(w http.ResponseWriter, r *http.Request) {
	animals := chart.Select(s.animals, fastestPerDiet)
	if animals == nil {
		animals = []chart.Animal{}
	}
	apiJSON(w, animals, http.StatusOK)
}
