package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Repository stores comments in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates a new comment and returns it with its server-assigned
// ID and timestamp.
func (r *Repository) Insert(ctx context.Context, nc NewComment) (*Comment, error) {
	content := strings.TrimSpace(nc.Content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO species_comments (species_id, author, content) VALUES (?, ?, ?)",
		nc.SpeciesID, nc.Author, content,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading back comment: %w", err)
	}
	return c, nil
}

// ListBySpecies returns all comments for a species, newest first.
func (r *Repository) ListBySpecies(ctx context.Context, speciesID int64) ([]*Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, species_id, author, content, created_at FROM species_comments
		WHERE species_id = ? ORDER BY created_at DESC, id DESC`,
		speciesID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var comments []*Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.SpeciesID, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// Delete removes a comment owned by author. A comment owned by someone else
// is left in place and ErrNotOwner is returned.
func (r *Repository) Delete(ctx context.Context, id int64, author string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM species_comments WHERE id = ? AND author = ?", id, author,
	)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrNotOwner
}

// GetByID returns a single comment.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := r.db.QueryRowContext(ctx,
		"SELECT id, species_id, author, content, created_at FROM species_comments WHERE id = ?", id,
	).Scan(&c.ID, &c.SpeciesID, &c.Author, &c.Content, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying comment %d: %w", id, err)
	}
	return &c, nil
}

// CountBySpecies returns how many comments a species has.
func (r *Repository) CountBySpecies(ctx context.Context, speciesID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM species_comments WHERE species_id = ?", speciesID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return n, nil
}
