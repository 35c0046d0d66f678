package species

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Repository provides CRUD operations for species.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a species repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, scientific_name, common_name, total_population, kingdom, description, image, author, created_at`

// Create stores a new species authored by author.
func (r *Repository) Create(ctx context.Context, author string, in Input) (*Species, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO species (scientific_name, common_name, total_population, kingdom, description, image, author)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ScientificName, in.CommonName, in.TotalPopulation, string(in.Kingdom),
		in.Description, in.Image, author,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting species: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a species by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Species, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM species WHERE id = ?", selectColumns), id,
	)

	s, err := scanSpecies(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("species %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying species %d: %w", id, err)
	}

	return s, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	Kingdom Kingdom // empty = all
	Query   string  // substring of scientific or common name
}

// List returns species ordered by scientific name.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]*Species, error) {
	query := fmt.Sprintf("SELECT %s FROM species", selectColumns)
	var args []any
	var conditions []string

	if opts.Kingdom != "" {
		conditions = append(conditions, "kingdom = ?")
		args = append(args, string(opts.Kingdom))
	}

	if q := strings.TrimSpace(opts.Query); q != "" {
		conditions = append(conditions, "(scientific_name LIKE ? OR common_name LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY scientific_name COLLATE NOCASE, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing species: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var list []*Species
	for rows.Next() {
		s, err := scanSpecies(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning species: %w", err)
		}
		list = append(list, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating species: %w", err)
	}

	return list, nil
}

// Update replaces the editable fields of a species. Only the author may
// update; anyone else gets ErrNotAuthor.
func (r *Repository) Update(ctx context.Context, id int64, author string, in Input) (*Species, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE species SET scientific_name = ?, common_name = ?, total_population = ?,
			kingdom = ?, description = ?, image = ?
		WHERE id = ? AND author = ?`,
		in.ScientificName, in.CommonName, in.TotalPopulation, string(in.Kingdom),
		in.Description, in.Image, id, author,
	)
	if err != nil {
		return nil, fmt.Errorf("updating species: %w", err)
	}

	if err := r.checkOwned(ctx, result, id); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes a species owned by author. Comments cascade.
func (r *Repository) Delete(ctx context.Context, id int64, author string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM species WHERE id = ? AND author = ?", id, author,
	)
	if err != nil {
		return fmt.Errorf("deleting species: %w", err)
	}

	return r.checkOwned(ctx, result, id)
}

// checkOwned distinguishes a missing species from one owned by someone else
// after an author-scoped write touched no rows.
func (r *Repository) checkOwned(ctx context.Context, result sql.Result, id int64) error {
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
	return ErrNotAuthor
}
