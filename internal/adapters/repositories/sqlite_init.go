package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	createResourcesQuery := `
	CREATE TABLE IF NOT EXISTS resources (
		resource_id INTEGER PRIMARY KEY,
		capability INTEGER NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL
	);
	`

	createEmergenciesQuery := `
	CREATE TABLE IF NOT EXISTS emergencies (
		emergency_id INTEGER PRIMARY KEY,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		priority TEXT NOT NULL,
		requirements TEXT NOT NULL,
		offset_ms INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT ''
	);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		route_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		length_meters REAL NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_emergencies_offset
	ON emergencies(offset_ms, emergency_id);
	`

	return execSchema(db, "init schema", []string{
		createResourcesQuery,
		createEmergenciesQuery,
		createRouteCacheQuery,
		createIndexQuery,
	})
}

// Initialize the Postgres route cache schema used when DATABASE_URL is set.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		route_key TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		length_meters DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	return execSchema(db, "init postgres schema", []string{createRouteCacheQuery})
}

func execSchema(db *sql.DB, op string, statements []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%s: exec statement #%d: %w", op, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit tx: %w", op, err)
	}

	return nil
}
