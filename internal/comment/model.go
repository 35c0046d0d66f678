// Package comment provides species comments: storage, the author join, and
// the Manager that drives a comment thread.
package comment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/evcraddock/species-catalog/internal/profile"
)

var (
	// ErrEmptyComment is returned when the content is blank after trimming.
	ErrEmptyComment = errors.New("comment cannot be empty")
	// ErrNotFound is returned when a comment does not exist.
	ErrNotFound = errors.New("comment not found")
	// ErrNotOwner is returned when a viewer tries to delete someone else's comment.
	ErrNotOwner = errors.New("only the author can delete this comment")
	// ErrNoViewer is returned when a mutation has no signed-in viewer.
	ErrNoViewer = errors.New("sign in to comment")
)

// UnknownUser is shown when a comment's author has no profile.
const UnknownUser = "Unknown User"

// Comment is a stored remark on a species.
type Comment struct {
	ID        int64     `json:"id"`
	SpeciesID int64     `json:"species_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment holds the fields needed to insert a comment.
type NewComment struct {
	SpeciesID int64
	Author    string
	Content   string
}

// Author is the optional profile joined onto a comment. The zero value is
// an unknown author.
type Author struct {
	known   bool
	summary profile.Summary
}

// Known wraps a profile found for the comment's author.
func Known(s profile.Summary) Author {
	return Author{known: true, summary: s}
}

// Unknown is the author of a comment whose profile is missing.
func Unknown() Author {
	return Author{}
}

// Profile returns the joined profile and whether one was found.
func (a Author) Profile() (profile.Summary, bool) {
	return a.summary, a.known
}

// DisplayName returns the profile's display name or UnknownUser.
func (a Author) DisplayName() string {
	if !a.known || a.summary.DisplayName == "" {
		return UnknownUser
	}
	return a.summary.DisplayName
}

// MarshalJSON encodes a known author as its profile and an unknown one as null.
func (a Author) MarshalJSON() ([]byte, error) {
	if !a.known {
		return []byte("null"), nil
	}
	return json.Marshal(a.summary)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (a *Author) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Unknown()
		return nil
	}
	var s profile.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = Known(s)
	return nil
}

// EnrichedComment is a comment joined with its author's profile.
type EnrichedComment struct {
	Comment
	Profile Author `json:"profile"`
}

// DisplayName is the author name to render.
func (c EnrichedComment) DisplayName() string {
	return c.Profile.DisplayName()
}

// CanDelete reports whether viewerID may delete the comment.
func (c EnrichedComment) CanDelete(viewerID string) bool {
	return viewerID != "" && c.Author == viewerID
}

// Join attaches profiles to comments by author ID, preserving comment order.
func Join(comments []*Comment, profiles []profile.Summary) []EnrichedComment {
	byID := make(map[string]profile.Summary, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	out := make([]EnrichedComment, 0, len(comments))
	for _, c := range comments {
		author := Unknown()
		if p, ok := byID[c.Author]; ok {
			author = Known(p)
		}
		out = append(out, EnrichedComment{Comment: *c, Profile: author})
	}
	return out
}

// distinctAuthors returns author IDs in first-seen order.
func distinctAuthors(comments []*Comment) []string {
	seen := make(map[string]struct{}, len(comments))
	var ids []string
	for _, c := range comments {
		if _, ok := seen[c.Author]; ok {
			continue
		}
		seen[c.Author] = struct{}{}
		ids = append(ids, c.Author)
	}
	return ids
}
