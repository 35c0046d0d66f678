package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/species-catalog/internal/auth"
	"github.com/evcraddock/species-catalog/internal/comment"
)

// commentsChangedEvent is the HTMX event fired after a comment mutation so
// other fragments of the detail page (the comment count) reload.
const commentsChangedEvent = "comments-changed"

// threadData is the data for the comments-partial template.
type threadData struct {
	Thread  *comment.Thread
	Notices []comment.Notice
	Failed  bool
}

// handleThread renders the comment thread of a species.
func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.loadSpecies(w, r)
	if !ok {
		return
	}

	ctx, box := withNoticeBox(r.Context())
	t := comment.NewThread(sp.ID, auth.ViewerFrom(ctx))
	err := s.manager.Load(ctx, t)

	s.render(w, "comments-partial", threadData{Thread: t, Notices: box.all(), Failed: err != nil})
}

// handleCommentPost adds the viewer's comment. HTMX requests get the
// refreshed thread; plain form posts are redirected back to the species.
func (s *Server) handleCommentPost(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.loadSpecies(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx, box := withNoticeBox(r.Context())
	t := comment.NewThread(sp.ID, auth.ViewerFrom(ctx))
	t.Draft = r.FormValue("content")

	_, err := s.manager.Post(ctx, t)
	if err != nil {
		slog.Debug("comment not posted", "species_id", sp.ID, "error", err)
		// Post only re-lists on success; show the current thread with the
		// draft kept.
		if loadErr := s.manager.Load(ctx, t); loadErr != nil {
			slog.Warn("loading comments after failed post", "species_id", sp.ID, "error", loadErr)
		}
	}

	s.finishMutation(w, r, t, box, err == nil)
}

// handleCommentDelete removes one of the viewer's comments.
func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.loadSpecies(w, r)
	if !ok {
		return
	}
	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, box := withNoticeBox(r.Context())
	t := comment.NewThread(sp.ID, auth.ViewerFrom(ctx))

	err = s.manager.Remove(ctx, t, commentID)
	if err != nil {
		if loadErr := s.manager.Load(ctx, t); loadErr != nil {
			slog.Warn("loading comments after failed delete", "species_id", sp.ID, "error", loadErr)
		}
	}

	s.finishMutation(w, r, t, box, err == nil)
}

// handleCommentCount renders the comment count heading. It is revalidated
// with an ETag that changes whenever the species' comments change.
func (s *Server) handleCommentCount(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.loadSpecies(w, r)
	if !ok {
		return
	}

	if notModified(w, r, s.versions.etag(sp.ID, auth.ViewerFrom(r.Context()))) {
		return
	}

	n, err := s.comments.CountBySpecies(r.Context(), sp.ID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error counting comments: %v", err), http.StatusInternalServerError)
		return
	}

	s.render(w, "comment-count-partial", n)
}

func (s *Server) finishMutation(w http.ResponseWriter, r *http.Request, t *comment.Thread, box *noticeBox, changed bool) {
	if r.Header.Get("HX-Request") != "true" {
		setFlash(w, box.all())
		http.Redirect(w, r, fmt.Sprintf("/species/%d", t.SpeciesID), http.StatusSeeOther)
		return
	}

	if changed {
		w.Header().Set("HX-Trigger", commentsChangedEvent)
	}
	s.render(w, "comments-partial", threadData{Thread: t, Notices: box.all()})
}
