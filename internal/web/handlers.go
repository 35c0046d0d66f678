package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/species-catalog/internal/auth"
	"github.com/evcraddock/species-catalog/internal/comment"
	"github.com/evcraddock/species-catalog/internal/profile"
	"github.com/evcraddock/species-catalog/internal/species"
)

// page is the data every full page template receives.
type page struct {
	Viewer  *profile.Profile
	Notices []comment.Notice
}

type listData struct {
	page
	Species []*species.Species
	Kingdom string
	Query   string
}

type detailData struct {
	page
	Species      *species.Species
	IsAuthor     bool
	CommentCount int
}

type formData struct {
	page
	Species *species.Species // nil when adding
	Input   formInput
	Error   string
}

// formInput holds raw form values so a failed submit can be redisplayed.
type formInput struct {
	ScientificName  string
	CommonName      string
	TotalPopulation string
	Kingdom         string
	Description     string
	Image           string
}

func (s *Server) funcMap() template.FuncMap {
	return template.FuncMap{
		"ago": func(t time.Time) string {
			return comment.RelativeTime(t, s.now())
		},
		"population": func(n *int64) string {
			if n == nil {
				return ""
			}
			return species.FormatPopulation(*n)
		},
		"deref": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
		"kingdoms": func() []species.Kingdom { return species.Kingdoms },
	}
}

// newPage loads the viewer's profile and any flash notices.
func (s *Server) newPage(w http.ResponseWriter, r *http.Request) page {
	p := page{Notices: takeFlash(w, r)}
	if id := auth.ViewerFrom(r.Context()); id != "" {
		viewer, err := s.profiles.GetByID(r.Context(), id)
		if err != nil {
			slog.Warn("loading viewer profile", "profile_id", id, "error", err)
		} else {
			p.Viewer = viewer
		}
	}
	return p
}

// handleList renders the species list page.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	kingdom := r.URL.Query().Get("kingdom")
	if kingdom != "" && !species.ValidKingdom(kingdom) {
		kingdom = ""
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	list, err := s.species.List(r.Context(), species.ListOptions{
		Kingdom: species.Kingdom(kingdom),
		Query:   query,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading species: %v", err), http.StatusInternalServerError)
		return
	}

	s.render(w, "species_list.html", listData{
		page:    s.newPage(w, r),
		Species: list,
		Kingdom: kingdom,
		Query:   query,
	})
}

// handleDetail renders one species. Comments load separately through
// handleThread.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.loadSpecies(w, r)
	if !ok {
		return
	}

	count, err := s.comments.CountBySpecies(r.Context(), sp.ID)
	if err != nil {
		slog.Warn("counting comments", "species_id", sp.ID, "error", err)
	}

	s.render(w, "species_detail.html", detailData{
		page:         s.newPage(w, r),
		Species:      sp,
		IsAuthor:     sp.IsAuthor(auth.ViewerFrom(r.Context())),
		CommentCount: count,
	})
}

// handleNewForm renders the empty add form.
func (s *Server) handleNewForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "species_form.html", formData{
		page:  s.newPage(w, r),
		Input: formInput{Kingdom: string(species.KingdomAnimalia)},
	})
}

// handleCreate adds a species authored by the viewer.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	raw := readForm(r)
	in, err := raw.input()
	if err == nil {
		var sp *species.Species
		sp, err = s.species.Create(r.Context(), auth.ViewerFrom(r.Context()), in)
		if err == nil {
			setFlash(w, []comment.Notice{{Title: "Species added", Variant: comment.VariantDefault}})
			http.Redirect(w, r, fmt.Sprintf("/species/%d", sp.ID), http.StatusSeeOther)
			return
		}
	}

	if !errors.Is(err, species.ErrInvalid) {
		http.Error(w, fmt.Sprintf("Error adding species: %v", err), http.StatusInternalServerError)
		return
	}
	data := formData{page: s.newPage(w, r), Input: raw, Error: err.Error()}
	s.renderStatus(w, "species_form.html", data, http.StatusUnprocessableEntity)
}

// handleEditForm renders the edit form. Only the author may edit.
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.loadSpecies(w, r)
	if !ok {
		return
	}
	if !sp.IsAuthor(auth.ViewerFrom(r.Context())) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	s.render(w, "species_form.html", formData{
		page:    s.newPage(w, r),
		Species: sp,
		Input:   formFromSpecies(sp),
	})
}

// handleUpdate saves the edit form.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.loadSpecies(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	raw := readForm(r)
	in, err := raw.input()
	if err == nil {
		_, err = s.species.Update(r.Context(), sp.ID, auth.ViewerFrom(r.Context()), in)
	}

	switch {
	case err == nil:
		s.versions.Refresh(sp.ID)
		setFlash(w, []comment.Notice{{Title: "Species updated", Variant: comment.VariantDefault}})
		http.Redirect(w, r, fmt.Sprintf("/species/%d", sp.ID), http.StatusSeeOther)
	case errors.Is(err, species.ErrNotAuthor):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, species.ErrInvalid):
		data := formData{page: s.newPage(w, r), Species: sp, Input: raw, Error: err.Error()}
		s.renderStatus(w, "species_form.html", data, http.StatusUnprocessableEntity)
	default:
		http.Error(w, fmt.Sprintf("Error updating species: %v", err), http.StatusInternalServerError)
	}
}

// handleDelete removes a species and, by cascade, its comments.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = s.species.Delete(r.Context(), id, auth.ViewerFrom(r.Context()))
	switch {
	case err == nil:
		s.versions.Refresh(id)
		setFlash(w, []comment.Notice{{Title: "Species deleted", Variant: comment.VariantDefault}})
		http.Redirect(w, r, "/species", http.StatusSeeOther)
	case errors.Is(err, species.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, species.ErrNotAuthor):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, fmt.Sprintf("Error deleting species: %v", err), http.StatusInternalServerError)
	}
}

// handleSettings renders the viewer's passkeys and API keys.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	viewer := auth.ViewerFrom(r.Context())

	stored, err := s.passkeys.List(r.Context(), viewer)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading passkeys: %v", err), http.StatusInternalServerError)
		return
	}
	keys, err := s.apiKeys.List(r.Context(), viewer)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading API keys: %v", err), http.StatusInternalServerError)
		return
	}

	type passkeyItem struct {
		ID   string
		Name string
	}
	type settingsData struct {
		page
		Passkeys []passkeyItem
		APIKeys  []auth.APIKey
	}

	passkeys := make([]passkeyItem, len(stored))
	for i, sc := range stored {
		passkeys[i] = passkeyItem{ID: sc.ID, Name: sc.Name}
	}

	s.render(w, "settings.html", settingsData{
		page:     s.newPage(w, r),
		Passkeys: passkeys,
		APIKeys:  keys,
	})
}

// handlePasskeyDelete removes one of the viewer's passkeys.
func (s *Server) handlePasskeyDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Missing credential ID", http.StatusBadRequest)
		return
	}

	if err := s.passkeys.Delete(r.Context(), id, auth.ViewerFrom(r.Context())); err != nil {
		if errors.Is(err, auth.ErrCredentialNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, fmt.Sprintf("Error deleting passkey: %v", err), http.StatusInternalServerError)
		return
	}

	setFlash(w, []comment.Notice{{Title: "Passkey removed", Variant: comment.VariantDefault}})
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// loadSpecies resolves the {id} URL parameter, writing 404 when it does not
// name a species.
func (s *Server) loadSpecies(w http.ResponseWriter, r *http.Request) (*species.Species, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	sp, err := s.species.GetByID(r.Context(), id)
	if errors.Is(err, species.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading species: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return sp, true
}

func readForm(r *http.Request) formInput {
	return formInput{
		ScientificName:  r.FormValue("scientific_name"),
		CommonName:      r.FormValue("common_name"),
		TotalPopulation: r.FormValue("total_population"),
		Kingdom:         r.FormValue("kingdom"),
		Description:     r.FormValue("description"),
		Image:           r.FormValue("image"),
	}
}

func (f formInput) input() (species.Input, error) {
	in := species.Input{
		ScientificName: f.ScientificName,
		CommonName:     &f.CommonName,
		Kingdom:        species.Kingdom(f.Kingdom),
		Description:    &f.Description,
		Image:          &f.Image,
	}

	if pop := strings.ReplaceAll(strings.TrimSpace(f.TotalPopulation), ",", ""); pop != "" {
		n, err := strconv.ParseInt(pop, 10, 64)
		if err != nil {
			return in, fmt.Errorf("%w: total population must be a whole number", species.ErrInvalid)
		}
		in.TotalPopulation = &n
	}

	return in, nil
}

func formFromSpecies(sp *species.Species) formInput {
	f := formInput{
		ScientificName: sp.ScientificName,
		Kingdom:        string(sp.Kingdom),
	}
	if sp.CommonName != nil {
		f.CommonName = *sp.CommonName
	}
	if sp.TotalPopulation != nil {
		f.TotalPopulation = strconv.FormatInt(*sp.TotalPopulation, 10)
	}
	if sp.Description != nil {
		f.Description = *sp.Description
	}
	if sp.Image != nil {
		f.Image = *sp.Image
	}
	return f
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	s.renderStatus(w, name, data, http.StatusOK)
}

// renderStatus executes a template into a buffer so a failure can still
// produce a clean 500.
func (s *Server) renderStatus(w http.ResponseWriter, name string, data any, code int) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing response", "template", name, "error", err)
	}
}
