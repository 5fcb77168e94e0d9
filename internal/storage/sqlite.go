package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// NewSQLiteBackend opens (or creates) the database at path and applies migrations.
// ":memory:" gives a private in-memory database.
func NewSQLiteBackend(path, namespace string) (*SQLBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a ":memory:" database exists per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLBackend{db: db, namespace: namespace}, nil
}
