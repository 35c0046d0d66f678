package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Repository provides access to profiles in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a profile repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create adds a new profile with a generated ID.
func (r *Repository) Create(ctx context.Context, email, displayName string, biography *string) (*Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if displayName == "" {
		return nil, fmt.Errorf("display name is required")
	}

	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO profiles (id, email, display_name, biography) VALUES (?, ?, ?, ?)",
		id, email, displayName, biography,
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("profile already exists: %s", email)
		}
		return nil, fmt.Errorf("inserting profile: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a profile by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, biography, created_at FROM profiles WHERE id = ?", id,
	)
	return scanProfile(row)
}

// GetByEmail returns a profile by email, case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, biography, created_at FROM profiles WHERE LOWER(email) = ?",
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanProfile(row)
}

// List returns all profiles ordered by display name.
func (r *Repository) List(ctx context.Context) ([]*Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, display_name, biography, created_at FROM profiles ORDER BY display_name, email",
	)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// ByIDs returns summaries for the given profile IDs. IDs with no profile are
// omitted from the result; an empty input returns nil without querying.
func (r *Repository) ByIDs(ctx context.Context, ids []string) ([]Summary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, display_name, email FROM profiles WHERE id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("looking up profiles: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Email); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}

	return out, nil
}

// Delete removes a profile by ID. Comments written by the profile are kept
// and render with an unknown author afterwards.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*Profile, error) {
	var p Profile
	var bio sql.NullString
	err := s.Scan(&p.ID, &p.Email, &p.DisplayName, &bio, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	if bio.Valid {
		p.Biography = &bio.String
	}
	return &p, nil
}
