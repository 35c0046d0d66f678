package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/species-catalog/internal/profile"
)

// ErrCredentialNotFound is returned when deleting an unknown passkey.
var ErrCredentialNotFound = errors.New("credential not found")

// PasskeyUser adapts a profile to webauthn.User.
type PasskeyUser struct {
	profile     *profile.Profile
	credentials []webauthn.Credential
}

// NewPasskeyUser wraps a profile and its registered credentials.
func NewPasskeyUser(p *profile.Profile, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{profile: p, credentials: credentials}
}

// WebAuthnID is the profile ID, which is stable across email changes.
func (u *PasskeyUser) WebAuthnID() []byte { return []byte(u.profile.ID) }

// WebAuthnName returns the email.
func (u *PasskeyUser) WebAuthnName() string { return u.profile.Email }

// WebAuthnDisplayName returns the profile's display name.
func (u *PasskeyUser) WebAuthnDisplayName() string { return u.profile.DisplayName }

// WebAuthnCredentials returns the stored credentials.
func (u *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// ProfileID returns the wrapped profile's ID.
func (u *PasskeyUser) ProfileID() string { return u.profile.ID }

// StoredCredential is a passkey credential with metadata.
type StoredCredential struct {
	ID         string
	ProfileID  string
	Name       string
	Credential webauthn.Credential
}

// PasskeyStore manages passkey credentials in SQLite.
type PasskeyStore struct {
	db *sql.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db}
}

// Save stores a newly registered credential for the profile.
func (s *PasskeyStore) Save(ctx context.Context, profileID, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO passkey_credentials (id, profile_id, name, credential_json) VALUES (?, ?, ?, ?)",
		fmt.Sprintf("%x", cred.ID), profileID, name, string(data),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	return nil
}

// List returns all credentials registered to the profile.
func (s *PasskeyStore) List(ctx context.Context, profileID string) ([]StoredCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, profile_id, name, credential_json FROM passkey_credentials WHERE profile_id = ? ORDER BY created_at",
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var result []StoredCredential
	for rows.Next() {
		var sc StoredCredential
		var data string
		if err := rows.Scan(&sc.ID, &sc.ProfileID, &sc.Name, &data); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, fmt.Errorf("unmarshaling credential: %w", err)
		}
		result = append(result, sc)
	}

	return result, rows.Err()
}

// Credentials returns the bare webauthn credentials for the profile.
func (s *PasskeyStore) Credentials(ctx context.Context, profileID string) ([]webauthn.Credential, error) {
	stored, err := s.List(ctx, profileID)
	if err != nil {
		return nil, err
	}

	creds := make([]webauthn.Credential, len(stored))
	for i, sc := range stored {
		creds[i] = sc.Credential
	}
	return creds, nil
}

// Delete removes one of the profile's credentials.
func (s *PasskeyStore) Delete(ctx context.Context, id, profileID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM passkey_credentials WHERE id = ? AND profile_id = ?",
		id, profileID,
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrCredentialNotFound
	}

	return nil
}
