package cache

import (
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileDurationStore keeps route durations in a JSON file.
//
// The file is loaded once, best-effort: a missing or corrupt file yields an empty
// store. Writes stay in memory until Flush, which prunes and replaces the file
// atomically (temp file + rename).
type FileDurationStore struct {
	path    string
	opts    StoreOptions
	log     logger.Logger
	entries map[string]domain.CacheEntry
	dirty   bool
}

func OpenFileDurationStore(path string, opts StoreOptions, log logger.Logger) *FileDurationStore {
	if log == nil {
		log = logger.NopLogger{}
	}

	s := &FileDurationStore{
		path:    path,
		opts:    opts,
		log:     log,
		entries: map[string]domain.CacheEntry{},
	}
	s.load()

	return s
}

func (s *FileDurationStore) load() {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warnf("duration cache %q unreadable, starting empty: %v", s.path, err)
		}
		return
	}

	var raw map[string]domain.CacheEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		s.log.Warnf("duration cache %q corrupt, starting empty: %v", s.path, err)
		return
	}

	now := s.opts.now()
	dropped := 0
	for k, e := range raw {
		if e.DurationMinutes < 0 || e.Expired(now, s.opts.TTL) {
			dropped++
			continue
		}
		s.entries[k] = e
	}
	s.dirty = dropped > 0

	s.log.Debugf("duration cache loaded path=%s entries=%d expired=%d", s.path, len(s.entries), dropped)
}

func (s *FileDurationStore) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	e, ok := s.entries[key]
	if !ok {
		return domain.CacheEntry{}, false, nil
	}

	if e.Expired(s.opts.now(), s.opts.TTL) {
		return domain.CacheEntry{}, false, nil
	}

	return e, true, nil
}

func (s *FileDurationStore) Put(_ context.Context, key string, entry domain.CacheEntry) error {
	if key == "" {
		return errors.New("insert duration cache: empty key")
	}
	if entry.DurationMinutes < 0 {
		return fmt.Errorf("insert duration cache key=%q: negative duration %.2f", key, entry.DurationMinutes)
	}

	s.entries[key] = entry
	s.dirty = true
	return nil
}

func (s *FileDurationStore) Len(_ context.Context) (int, error) {
	now := s.opts.now()
	n := 0
	for _, e := range s.entries {
		if !e.Expired(now, s.opts.TTL) {
			n++
		}
	}
	return n, nil
}

// Flush prunes to MaxEntries and atomically rewrites the file when anything changed.
func (s *FileDurationStore) Flush(_ context.Context) error {
	if pruned := pruneOldest(s.entries, s.opts.MaxEntries); pruned > 0 {
		s.dirty = true
		s.log.Debugf("duration cache pruned entries=%d", pruned)
	}

	if !s.dirty {
		return nil
	}

	payload, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("flush duration cache: marshal: %w", err)
	}

	if err := writeFileAtomic(s.path, payload); err != nil {
		return fmt.Errorf("flush duration cache %q: %w", s.path, err)
	}

	s.dirty = false
	return nil
}

func (s *FileDurationStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}

	return nil
}
