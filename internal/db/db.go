// Package db provides the SQLite connection and schema for sceneryd.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Entity options - per-entity option mappings keyed by entity and
	// option domain, mirroring the host's entity registry options.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entity_options (
			entity_id TEXT NOT NULL,
			domain TEXT NOT NULL,
			options TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (entity_id, domain)
		);
		CREATE INDEX IF NOT EXISTS idx_entity_options_entity ON entity_options(entity_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create entity_options table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
