package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	sessionExpiry = 30 * 24 * time.Hour
	cookieName    = "sc_session"
)

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("no valid session")

// SessionStore manages cookie sessions in SQLite.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionStore creates a session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// Create starts a session for the profile and sets the cookie.
func (s *SessionStore) Create(ctx context.Context, w http.ResponseWriter, profileID string) error {
	id, err := randomHex(32)
	if err != nil {
		return fmt.Errorf("generating session ID: %w", err)
	}

	expiresAt := s.now().UTC().Add(sessionExpiry)

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, profile_id, expires_at) VALUES (?, ?, ?)",
		id, profileID, expiresAt,
	); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Validate returns the profile ID of the request's session.
// Expired sessions are removed and reported as ErrNoSession.
func (s *SessionStore) Validate(r *http.Request) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", ErrNoSession
	}

	ctx := r.Context()

	var profileID string
	var expiresAt time.Time

	err = s.db.QueryRowContext(ctx,
		"SELECT profile_id, expires_at FROM sessions WHERE id = ?",
		cookie.Value,
	).Scan(&profileID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("querying session: %w", err)
	}

	if s.now().After(expiresAt) {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
			return "", fmt.Errorf("deleting expired session: %w", err)
		}
		return "", ErrNoSession
	}

	return profileID, nil
}

// Destroy removes the session and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}

	if _, err := s.db.ExecContext(r.Context(), "DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", s.now().UTC(),
	); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
