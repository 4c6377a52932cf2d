package ports

import (
	"commute-planner/internal/domain"
	"context"
)

// Port: persistent storage for bucketed route durations that outlives a single run.
// Keys are serialized domain.CacheKey values; expired entries are reported as absent.
type DurationStore interface {
	Get(ctx context.Context, key string) (domain.CacheEntry, bool, error)
	Put(ctx context.Context, key string, entry domain.CacheEntry) error
	// Prune to the configured size and persist pending writes.
	Flush(ctx context.Context) error
	Close() error
}

// Optional extension of DurationStore used by cache tooling.
type DurationStoreInspector interface {
	DurationStore
	// Return the number of live (non-expired) entries.
	Len(ctx context.Context) (int, error)
}
