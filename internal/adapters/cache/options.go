package cache

import (
	"commute-planner/internal/domain"
	"sort"
	"time"
)

// StoreOptions bounds what a duration store keeps.
type StoreOptions struct {
	// Entries older than TTL are treated as absent. Zero keeps entries forever.
	TTL time.Duration
	// MaxEntries caps the stored entries; oldest are pruned first. Zero disables the cap.
	MaxEntries int
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o StoreOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// cutoff is the oldest live written_at in epoch seconds, or 0 without a TTL.
func (o StoreOptions) cutoff() float64 {
	if o.TTL <= 0 {
		return 0
	}
	return float64(o.now().Add(-o.TTL).UnixNano()) / float64(time.Second)
}

// pruneOldest drops the oldest entries until at most max remain.
func pruneOldest(entries map[string]domain.CacheEntry, max int) int {
	if max <= 0 || len(entries) <= max {
		return 0
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}

	// Oldest first; key order keeps equal timestamps deterministic.
	sort.Slice(keys, func(i, j int) bool {
		a, b := entries[keys[i]], entries[keys[j]]
		if a.WrittenAt != b.WrittenAt {
			return a.WrittenAt < b.WrittenAt
		}
		return keys[i] < keys[j]
	})

	drop := len(entries) - max
	for _, k := range keys[:drop] {
		delete(entries, k)
	}
	return drop
}
