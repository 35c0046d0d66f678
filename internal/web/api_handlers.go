package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/species-catalog/internal/auth"
	"github.com/evcraddock/species-catalog/internal/comment"
	"github.com/evcraddock/species-catalog/internal/profile"
	"github.com/evcraddock/species-catalog/internal/species"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, comment.ErrEmptyComment), errors.Is(err, species.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, comment.ErrNoViewer):
		return http.StatusUnauthorized
	case errors.Is(err, comment.ErrNotOwner), errors.Is(err, species.ErrNotAuthor):
		return http.StatusForbidden
	case errors.Is(err, comment.ErrNotFound), errors.Is(err, species.ErrNotFound), errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// apiFail writes err as a JSON error. A destructive notice raised while
// handling the request supplies the message when there is one.
func apiFail(w http.ResponseWriter, err error, box *noticeBox) {
	code := errorStatus(err)
	msg := err.Error()
	if box != nil {
		if n, ok := box.lastError(); ok {
			msg = n
		}
	}
	if code == http.StatusInternalServerError {
		slog.Error("api request failed", "error", err)
	}
	apiError(w, msg, code)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// apiMe returns the profile behind the API key.
func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetByID(r.Context(), auth.ViewerFrom(r.Context()))
	if err != nil {
		apiFail(w, err, nil)
		return
	}
	apiJSON(w, p, http.StatusOK)
}

// apiListSpecies returns species, optionally filtered by kingdom and name.
func (s *Server) apiListSpecies(w http.ResponseWriter, r *http.Request) {
	kingdom := r.URL.Query().Get("kingdom")
	if kingdom != "" && !species.ValidKingdom(kingdom) {
		apiError(w, fmt.Sprintf("invalid kingdom %q", kingdom), http.StatusBadRequest)
		return
	}

	list, err := s.species.List(r.Context(), species.ListOptions{
		Kingdom: species.Kingdom(kingdom),
		Query:   r.URL.Query().Get("q"),
	})
	if err != nil {
		apiFail(w, err, nil)
		return
	}
	if list == nil {
		list = []*species.Species{}
	}

	apiJSON(w, list, http.StatusOK)
}

// apiCreateSpecies adds a species authored by the caller.
func (s *Server) apiCreateSpecies(w http.ResponseWriter, r *http.Request) {
	var in species.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	sp, err := s.species.Create(r.Context(), auth.ViewerFrom(r.Context()), in)
	if err != nil {
		apiFail(w, err, nil)
		return
	}

	apiJSON(w, sp, http.StatusCreated)
}

// speciesResponse is a species with its enriched comments.
type speciesResponse struct {
	Species  *species.Species          `json:"species"`
	Comments []comment.EnrichedComment `json:"comments"`
}

// apiGetSpecies returns a species with its comments.
func (s *Server) apiGetSpecies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, "invalid species ID", http.StatusBadRequest)
		return
	}

	sp, err := s.species.GetByID(r.Context(), id)
	if err != nil {
		apiFail(w, err, nil)
		return
	}

	ctx, box := withNoticeBox(r.Context())
	t := comment.NewThread(id, auth.ViewerFrom(ctx))
	if err := s.manager.Load(ctx, t); err != nil {
		apiFail(w, err, box)
		return
	}

	apiJSON(w, speciesResponse{Species: sp, Comments: t.Comments}, http.StatusOK)
}

// speciesPatch holds the fields a PATCH may change. Absent fields keep their
// value; an empty string clears an optional text field.
type speciesPatch struct {
	ScientificName  *string          `json:"scientific_name"`
	CommonName      *string          `json:"common_name"`
	TotalPopulation *int64           `json:"total_population"`
	Kingdom         *species.Kingdom `json:"kingdom"`
	Description     *string          `json:"description"`
	Image           *string          `json:"image"`
}

func (p speciesPatch) apply(sp *species.Species) species.Input {
	in := species.Input{
		ScientificName:  sp.ScientificName,
		CommonName:      sp.CommonName,
		TotalPopulation: sp.TotalPopulation,
		Kingdom:         sp.Kingdom,
		Description:     sp.Description,
		Image:           sp.Image,
	}
	if p.ScientificName != nil {
		in.ScientificName = *p.ScientificName
	}
	if p.CommonName != nil {
		in.CommonName = p.CommonName
	}
	if p.TotalPopulation != nil {
		in.TotalPopulation = p.TotalPopulation
	}
	if p.Kingdom != nil {
		in.Kingdom = *p.Kingdom
	}
	if p.Description != nil {
		in.Description = p.Description
	}
	if p.Image != nil {
		in.Image = p.Image
	}
	return in
}

// apiUpdateSpecies applies a partial update. Only the author may update.
func (s *Server) apiUpdateSpecies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, "invalid species ID", http.StatusBadRequest)
		return
	}

	var patch speciesPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	sp, err := s.species.GetByID(r.Context(), id)
	if err != nil {
		apiFail(w, err, nil)
		return
	}

	updated, err := s.species.Update(r.Context(), id, auth.ViewerFrom(r.Context()), patch.apply(sp))
	if err != nil {
		apiFail(w, err, nil)
		return
	}
	s.versions.Refresh(id)

	apiJSON(w, updated, http.StatusOK)
}

// apiDeleteSpecies removes a species. Only the author may delete.
func (s *Server) apiDeleteSpecies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, "invalid species ID", http.StatusBadRequest)
		return
	}

	if err := s.species.Delete(r.Context(), id, auth.ViewerFrom(r.Context())); err != nil {
		apiFail(w, err, nil)
		return
	}
	s.versions.Refresh(id)

	apiJSON(w, map[string]any{"id": id, "removed": true}, http.StatusOK)
}

// apiListComments returns the comments of a species, newest first.
func (s *Server) apiListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, "invalid species ID", http.StatusBadRequest)
		return
	}
	if _, err := s.species.GetByID(r.Context(), id); err != nil {
		apiFail(w, err, nil)
		return
	}

	ctx, box := withNoticeBox(r.Context())
	t := comment.NewThread(id, auth.ViewerFrom(ctx))
	if err := s.manager.Load(ctx, t); err != nil {
		apiFail(w, err, box)
		return
	}

	apiJSON(w, t.Comments, http.StatusOK)
}

// apiAddComment posts a comment as the caller.
func (s *Server) apiAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, "invalid species ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if _, err := s.species.GetByID(r.Context(), id); err != nil {
		apiFail(w, err, nil)
		return
	}

	ctx, box := withNoticeBox(r.Context())
	t := comment.NewThread(id, auth.ViewerFrom(ctx))
	t.Draft = req.Content

	c, err := s.manager.Post(ctx, t)
	if err != nil {
		apiFail(w, err, box)
		return
	}

	for _, ec := range t.Comments {
		if ec.ID == c.ID {
			apiJSON(w, ec, http.StatusCreated)
			return
		}
	}
	apiJSON(w, comment.EnrichedComment{Comment: *c, Profile: comment.Unknown()}, http.StatusCreated)
}

// apiDeleteComment removes one of the caller's comments.
func (s *Server) apiDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, "invalid comment ID", http.StatusBadRequest)
		return
	}

	c, err := s.comments.GetByID(r.Context(), id)
	if err != nil {
		apiFail(w, err, nil)
		return
	}

	ctx, box := withNoticeBox(r.Context())
	t := comment.NewThread(c.SpeciesID, auth.ViewerFrom(ctx))
	if err := s.manager.Remove(ctx, t, id); err != nil {
		apiFail(w, err, box)
		return
	}

	apiJSON(w, map[string]any{"id": id, "removed": true}, http.StatusOK)
}
