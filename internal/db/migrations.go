package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id           TEXT     PRIMARY KEY,
		email        TEXT     NOT NULL UNIQUE,
		display_name TEXT     NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS species (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		scientific_name  TEXT    NOT NULL,
		common_name      TEXT,
		total_population INTEGER CHECK (total_population IS NULL OR total_population >= 0),
		kingdom          TEXT    NOT NULL CHECK (kingdom IN ('Animalia', 'Plantae', 'Fungi', 'Protista', 'Archaea', 'Bacteria')),
		description      TEXT,
		author           TEXT    NOT NULL REFERENCES profiles(id),
		created_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS species_comments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		species_id INTEGER NOT NULL REFERENCES species(id) ON DELETE CASCADE,
		author     TEXT    NOT NULL,
		content    TEXT    NOT NULL CHECK (length(trim(content, char(32, 9, 10, 13))) > 0),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_species_comments_species
		ON species_comments (species_id, created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		token      TEXT     NOT NULL UNIQUE,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		profile_id TEXT     NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT    PRIMARY KEY,
		profile_id      TEXT    NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		name            TEXT    NOT NULL DEFAULT '',
		credential_json TEXT    NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		profile_id   TEXT     NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		name         TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Columns added after the first release.
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"profiles", "biography", "TEXT"},
		{"species", "image", "TEXT"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	exists, err := hasColumn(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating columns: %w", err)
	}
	return false, nil
}
