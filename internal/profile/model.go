// Package profile provides user profiles, the identities that author
// species records and comments.
package profile

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no profile matches a lookup.
var ErrNotFound = errors.New("profile not found")

// Profile is a registered user.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Biography   *string   `json:"biography,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary is the subset of a profile joined onto comments.
type Summary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Summary returns the comment-facing view of the profile.
func (p *Profile) Summary() Summary {
	return Summary{ID: p.ID, DisplayName: p.DisplayName, Email: p.Email}
}
