package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	apiKeyBytes  = 32
	apiKeyPrefix = "sc_"
)

// API key failures.
var (
	ErrInvalidAPIKey  = errors.New("invalid API key")
	ErrAPIKeyNotFound = errors.New("key not found")
)

// APIKey is the stored representation of an API key (no raw key).
type APIKey struct {
	ID         int64      `json:"id"`
	ProfileID  string     `json:"profile_id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"` // first 8 chars for identification
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore manages per-profile API keys. Only SHA-256 hashes are stored.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create issues a key for the profile. The raw key is returned once and
// never stored.
func (s *APIKeyStore) Create(ctx context.Context, profileID, name string) (string, *APIKey, error) {
	raw, err := randomHex(apiKeyBytes)
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}
	raw = apiKeyPrefix + raw

	prefix := raw[:8]
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO api_keys (profile_id, name, key_prefix, key_hash) VALUES (?, ?, ?, ?)",
		profileID, name, prefix, hashAPIKey(raw),
	)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, fmt.Errorf("getting key id: %w", err)
	}

	return raw, &APIKey{
		ID:        id,
		ProfileID: profileID,
		Name:      name,
		KeyPrefix: prefix,
		CreatedAt: time.Now(),
	}, nil
}

// List returns the profile's keys, newest first.
func (s *APIKeyStore) List(ctx context.Context, profileID string) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, name, key_prefix, created_at, last_used_at
		 FROM api_keys WHERE profile_id = ? ORDER BY created_at DESC, id DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.ProfileID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Delete revokes one of the profile's keys.
func (s *APIKeyStore) Delete(ctx context.Context, id int64, profileID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM api_keys WHERE id = ? AND profile_id = ?", id, profileID,
	)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// Validate resolves a raw key to its profile ID and records the use.
func (s *APIKeyStore) Validate(ctx context.Context, rawKey string) (string, error) {
	hash := hashAPIKey(rawKey)

	var profileID string
	err := s.db.QueryRowContext(ctx,
		"SELECT profile_id FROM api_keys WHERE key_hash = ?", hash,
	).Scan(&profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidAPIKey
	}
	if err != nil {
		return "", fmt.Errorf("validating key: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ?", time.Now().UTC(), hash,
	); err != nil {
		slog.Warn("recording key use", "error", err)
	}

	return profileID, nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
