package cache

import (
	"commute-planner/internal/domain"
	"commute-planner/internal/ports"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the route duration cache schema. The DDL is valid for both SQLite and PostgreSQL.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_duration_cache (
        cache_key TEXT PRIMARY KEY,
        duration_minutes DOUBLE PRECISION NOT NULL,
        written_at DOUBLE PRECISION NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_duration_cache_written_at
    ON route_duration_cache(written_at);
	`

	statements := []string{
		createCacheQuery,
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

// Copy the entries of a JSON cache file into store. Invalid entries abort the import.
func ImportJSON(ctx context.Context, store ports.DurationStore, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("import duration cache: read %q: %w", jsonPath, err)
	}

	var data map[string]domain.CacheEntry
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("import duration cache: parse json: %w", err)
	}

	n := 0
	for key, e := range data {
		if strings.TrimSpace(key) == "" {
			return n, errors.New("import duration cache: entry with empty key")
		}
		if e.DurationMinutes < 0 {
			return n, fmt.Errorf("import duration cache: key=%q: negative duration %.2f", key, e.DurationMinutes)
		}

		if err := store.Put(ctx, key, e); err != nil {
			return n, fmt.Errorf("import duration cache: %w", err)
		}
		n++
	}

	if err := store.Flush(ctx); err != nil {
		return n, fmt.Errorf("import duration cache: %w", err)
	}

	return n, nil
}
