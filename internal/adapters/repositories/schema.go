package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"route-navigation-service/internal/platform/db"
)

// Initialize the schema of the saved-route store and the caches.
func InitSchema(conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	blob, bigint := "BLOB", "INTEGER"
	if dialect == db.Postgres {
		blob, bigint = "BYTEA", "BIGINT"
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createSavedRoutesQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS saved_routes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		points TEXT NOT NULL,
		created_at %s NOT NULL
	);
	`, bigint)

	createSegmentCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS segment_cache (
		cache_key TEXT PRIMARY KEY,
		payload %s NOT NULL,
		created_at %s NOT NULL
	);
	`, blob, bigint)

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_segment_cache_created_at
	ON segment_cache(created_at);
	`

	statements := []string{
		createSavedRoutesQuery,
		createSegmentCacheQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
