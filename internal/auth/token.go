package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const tokenExpiry = 15 * time.Minute

// Token validation failures.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenUsed    = errors.New("token already used")
	ErrTokenExpired = errors.New("token expired")
)

// TokenStore manages single-use magic link tokens.
type TokenStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenStore creates a token store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, now: time.Now}
}

// Create issues a token for the email and returns it.
func (s *TokenStore) Create(ctx context.Context, email string) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (token, email, expires_at) VALUES (?, ?, ?)",
		token, strings.ToLower(strings.TrimSpace(email)), s.now().UTC().Add(tokenExpiry),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Consume marks the token used and returns its email. The claim is a single
// conditional UPDATE, so two concurrent verifications cannot both succeed.
func (s *TokenStore) Consume(ctx context.Context, token string) (string, error) {
	now := s.now().UTC()

	result, err := s.db.ExecContext(ctx,
		"UPDATE auth_tokens SET used = 1 WHERE token = ? AND used = 0 AND expires_at > ?",
		token, now,
	)
	if err != nil {
		return "", fmt.Errorf("claiming token: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("checking affected rows: %w", err)
	}

	var email string
	var used int
	var expiresAt time.Time
	err = s.db.QueryRowContext(ctx,
		"SELECT email, used, expires_at FROM auth_tokens WHERE token = ?", token,
	).Scan(&email, &used, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTokenInvalid
	}
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}

	if n == 1 {
		return email, nil
	}
	if !now.Before(expiresAt) {
		return "", ErrTokenExpired
	}
	return "", ErrTokenUsed
}

// Cleanup removes expired tokens.
func (s *TokenStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM auth_tokens WHERE expires_at < ?", s.now().UTC(),
	); err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}
