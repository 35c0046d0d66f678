package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/evcraddock/species-catalog/internal/profile"
)

// Store persists comments.
type Store interface {
	ListBySpecies(ctx context.Context, speciesID int64) ([]*Comment, error)
	Insert(ctx context.Context, nc NewComment) (*Comment, error)
	Delete(ctx context.Context, id int64, author string) error
}

// ProfileLookup resolves author IDs to profiles. IDs without a profile are
// left out of the result.
type ProfileLookup interface {
	ByIDs(ctx context.Context, ids []string) ([]profile.Summary, error)
}

// Variant is the severity of a Notice.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a transient message for the viewer.
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Variant     Variant `json:"variant"`
}

// Notifier delivers notices to whoever is driving the thread.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Refresher invalidates rendered views of a species after its comments change.
type Refresher interface {
	Refresh(speciesID int64)
}

// Thread is the comment state for one species as seen by one viewer.
type Thread struct {
	SpeciesID  int64
	ViewerID   string
	Comments   []EnrichedComment
	Draft      string
	Loading    bool
	Submitting bool
}

// NewThread creates an empty thread. Call Manager.Load to populate it.
func NewThread(speciesID int64, viewerID string) *Thread {
	return &Thread{SpeciesID: speciesID, ViewerID: viewerID}
}

// SetSpecies points the thread at another species and drops the comments
// of the previous one.
func (t *Thread) SetSpecies(speciesID int64) {
	if t.SpeciesID == speciesID {
		return
	}
	t.SpeciesID = speciesID
	t.Comments = nil
}

// Empty reports whether the loaded thread has no comments.
func (t *Thread) Empty() bool {
	return len(t.Comments) == 0
}

// Manager loads, creates, and deletes comments on a Thread and reports
// outcomes through a Notifier.
type Manager struct {
	store     Store
	profiles  ProfileLookup
	notifier  Notifier
	refresher Refresher

	// inflight collapses identical concurrent mutations into one store call.
	inflight singleflight.Group
}

// NewManager creates a Manager. notifier and refresher may be nil.
func NewManager(store Store, profiles ProfileLookup, notifier Notifier, refresher Refresher) *Manager {
	return &Manager{
		store:     store,
		profiles:  profiles,
		notifier:  notifier,
		refresher: refresher,
	}
}

// Load fetches the thread's comments newest first and joins author profiles.
// On a store failure the previous comments are kept. A failed profile lookup
// is reported but the comments are still shown, with unknown authors.
func (m *Manager) Load(ctx context.Context, t *Thread) error {
	t.Loading = true
	defer func() { t.Loading = false }()

	comments, err := m.store.ListBySpecies(ctx, t.SpeciesID)
	if err != nil {
		m.notify(ctx, destructive("Error loading comments", err))
		return fmt.Errorf("loading comments for species %d: %w", t.SpeciesID, err)
	}

	if len(comments) == 0 {
		t.Comments = []EnrichedComment{}
		return nil
	}

	profiles, err := m.profiles.ByIDs(ctx, distinctAuthors(comments))
	if err != nil {
		slog.Warn("profile lookup failed", "species_id", t.SpeciesID, "error", err)
		m.notify(ctx, destructive("Error loading user profiles", err))
		profiles = nil
	}

	t.Comments = Join(comments, profiles)
	return nil
}

// Post submits the thread's draft as a new comment by the viewer. The draft
// is cleared only on success.
func (m *Manager) Post(ctx context.Context, t *Thread) (*Comment, error) {
	content := strings.TrimSpace(t.Draft)
	if content == "" {
		m.notify(ctx, Notice{Title: "Comment cannot be empty", Variant: VariantDestructive})
		return nil, ErrEmptyComment
	}
	if t.ViewerID == "" {
		return nil, ErrNoViewer
	}

	t.Submitting = true
	defer func() { t.Submitting = false }()

	key := fmt.Sprintf("post/%d/%s/%s", t.SpeciesID, t.ViewerID, content)
	v, err, _ := m.inflight.Do(key, func() (any, error) {
		return m.store.Insert(ctx, NewComment{
			SpeciesID: t.SpeciesID,
			Author:    t.ViewerID,
			Content:   content,
		})
	})
	if err != nil {
		m.notify(ctx, destructive("Error adding comment", err))
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	t.Draft = ""
	m.reload(ctx, t)
	m.notify(ctx, Notice{Title: "Comment added!", Variant: VariantDefault})

	return v.(*Comment), nil
}

// Remove deletes one of the viewer's comments.
func (m *Manager) Remove(ctx context.Context, t *Thread, commentID int64) error {
	if t.ViewerID == "" {
		return ErrNoViewer
	}

	key := fmt.Sprintf("delete/%d/%s", commentID, t.ViewerID)
	_, err, _ := m.inflight.Do(key, func() (any, error) {
		return nil, m.store.Delete(ctx, commentID, t.ViewerID)
	})
	if err != nil {
		m.notify(ctx, destructive("Error deleting comment", err))
		return fmt.Errorf("deleting comment %d: %w", commentID, err)
	}

	m.reload(ctx, t)
	m.notify(ctx, Notice{Title: "Comment deleted", Variant: VariantDefault})
	return nil
}

// reload re-lists after a successful mutation and invalidates cached views.
// A failed re-list has already been reported by Load.
func (m *Manager) reload(ctx context.Context, t *Thread) {
	if err := m.Load(ctx, t); err != nil {
		slog.Warn("reloading comments", "species_id", t.SpeciesID, "error", err)
	}
	if m.refresher != nil {
		m.refresher.Refresh(t.SpeciesID)
	}
}

func (m *Manager) notify(ctx context.Context, n Notice) {
	if m.notifier != nil {
		m.notifier.Notify(ctx, n)
	}
}

func destructive(title string, err error) Notice {
	return Notice{Title: title, Description: err.Error(), Variant: VariantDestructive}
}
