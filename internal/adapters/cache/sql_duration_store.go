package cache

import (
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/logger"
	"commute-planner/internal/platform/obs"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLDurationStore is a PostgreSQL-backed store for bucketed route durations.
type SQLDurationStore struct {
	DB   *sql.DB
	opts StoreOptions
	log  logger.Logger
}

func NewSQLDurationStore(db *sql.DB, opts StoreOptions, log logger.Logger) *SQLDurationStore {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &SQLDurationStore{DB: db, opts: opts, log: log}
}

// Fetch one cached duration; expired rows are reported as absent.
func (s *SQLDurationStore) Get(ctx context.Context, key string) (_ domain.CacheEntry, _ bool, err error) {
	defer obs.Time(ctx, s.log, "duration.cache.Get")(&err)

	if s.DB == nil {
		return domain.CacheEntry{}, false, errors.New("duration cache: db is nil")
	}

	q := `
	SELECT duration_minutes, written_at
    FROM route_duration_cache
    WHERE cache_key = $1
        AND written_at >= $2;
	`

	var e domain.CacheEntry
	err = s.DB.QueryRowContext(ctx, q, key, s.opts.cutoff()).Scan(&e.DurationMinutes, &e.WrittenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get duration cache: query route_duration_cache table: %w", err)
	}

	return e, true, nil
}

// Store one duration, replacing any previous value for the key.
func (s *SQLDurationStore) Put(ctx context.Context, key string, entry domain.CacheEntry) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert duration cache: empty key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO route_duration_cache (cache_key, duration_minutes, written_at)
    VALUES ($1, $2, $3)
	ON CONFLICT (cache_key) DO UPDATE
	SET duration_minutes = EXCLUDED.duration_minutes,
		written_at = EXCLUDED.written_at;
	`, key, entry.DurationMinutes, entry.WrittenAt)
	if err != nil {
		return fmt.Errorf("insert duration cache key=%q: %w", key, err)
	}

	return nil
}

// Count live rows.
func (s *SQLDurationStore) Len(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, errors.New("duration cache: db is nil")
	}

	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM route_duration_cache WHERE written_at >= $1;`, s.opts.cutoff()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count duration cache: %w", err)
	}
	return n, nil
}

// Flush deletes expired rows and prunes the oldest beyond MaxEntries.
func (s *SQLDurationStore) Flush(ctx context.Context) (err error) {
	defer obs.Time(ctx, s.log, "duration.cache.Flush")(&err)

	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("prune duration cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM route_duration_cache WHERE written_at < $1;`, s.opts.cutoff()); err != nil {
		return fmt.Errorf("prune duration cache: delete expired: %w", err)
	}

	if s.opts.MaxEntries > 0 {
		_, err := tx.ExecContext(ctx, `
		DELETE FROM route_duration_cache
        WHERE cache_key NOT IN (
            SELECT cache_key
            FROM route_duration_cache
            ORDER BY written_at DESC, cache_key DESC
            LIMIT $1
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

func (s *SQLDurationStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
