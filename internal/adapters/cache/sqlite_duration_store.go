package cache

import (
	"commute-planner/internal/domain"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLite backed store for bucketed route durations.
// Keys are expected to be canonical domain.CacheKey strings.
type SqliteDurationStore struct {
	DB   *sql.DB
	opts StoreOptions
}

func NewSqliteDurationStore(db *sql.DB, opts StoreOptions) *SqliteDurationStore {
	return &SqliteDurationStore{DB: db, opts: opts}
}

// Fetch one cached duration; expired rows are reported as absent.
func (s *SqliteDurationStore) Get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	if s.DB == nil {
		return domain.CacheEntry{}, false, errors.New("duration cache: db is nil")
	}

	q := `
	SELECT
        duration_minutes,
        written_at
    FROM route_duration_cache
    WHERE cache_key = ?
        AND written_at >= ?;
	`

	var e domain.CacheEntry
	err := s.DB.QueryRowContext(ctx, q, key, s.opts.cutoff()).Scan(&e.DurationMinutes, &e.WrittenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get duration cache: query route_duration_cache table: %w", err)
	}

	return e, true, nil
}

// Store one duration, replacing any previous value for the key.
func (s *SqliteDurationStore) Put(ctx context.Context, key string, entry domain.CacheEntry) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert duration cache: empty key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_duration_cache (
        cache_key,
        duration_minutes,
        written_at
    )
    VALUES (?, ?, ?);
	`, key, entry.DurationMinutes, entry.WrittenAt)
	if err != nil {
		return fmt.Errorf("insert duration cache key=%q: %w", key, err)
	}

	return nil
}

// Count live rows.
func (s *SqliteDurationStore) Len(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, errors.New("duration cache: db is nil")
	}

	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM route_duration_cache WHERE written_at >= ?;`, s.opts.cutoff()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count duration cache: %w", err)
	}
	return n, nil
}

// Flush deletes expired rows and prunes the oldest beyond MaxEntries.
func (s *SqliteDurationStore) Flush(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("prune duration cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM route_duration_cache WHERE written_at < ?;`, s.opts.cutoff()); err != nil {
		return fmt.Errorf("prune duration cache: delete expired: %w", err)
	}

	if s.opts.MaxEntries > 0 {
		_, err := tx.ExecContext(ctx, `
		DELETE FROM route_duration_cache
        WHERE cache_key NOT IN (
            SELECT cache_key
            FROM route_duration_cache
            ORDER BY written_at DESC, cache_key DESC
            LIMIT ?
        );
		`, s.opts.MaxEntries)
		if err != nil {
			return fmt.Errorf("prune duration cache: delete oldest: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("prune duration cache commit: %w", err)
	}

	return nil
}

func (s *SqliteDurationStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
