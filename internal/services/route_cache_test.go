package services

import (
	"commute-planner/internal/adapters/cache"
	"commute-planner/internal/adapters/routes"
	"commute-planner/internal/domain"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, oracle *routes.MockDurationOracle, store *cache.FileDurationStore, maxCalls int) *RouteCache {
	t.Helper()

	opts := RouteCacheOptions{
		Budget:      domain.NewCallBudget(maxCalls),
		Location:    zurich(t),
		BucketWidth: 5 * time.Minute,
	}
	if store != nil {
		opts.Store = store
	}

	c, err := NewRouteCache(oracle, opts)
	require.NoError(t, err)
	return c
}

func TestRouteCache_SameBucketIsServedFromCache(t *testing.T) {
	loc := zurich(t)
	oracle := routes.ConstantOracle(42)
	c := newTestCache(t, oracle, nil, 10)

	d1, err := c.Duration(context.Background(), home, office, time.Date(2025, 3, 3, 7, 1, 0, 0, loc))
	require.NoError(t, err)
	d2, err := c.Duration(context.Background(), home, office, time.Date(2025, 3, 3, 7, 4, 59, 0, loc))
	require.NoError(t, err)

	assert.Equal(t, 42.0, d1)
	assert.Equal(t, 42.0, d2)
	assert.Equal(t, 1, oracle.CallCount())
	assert.Equal(t, 1, c.Used())

	_, err = c.Duration(context.Background(), home, office, time.Date(2025, 3, 3, 7, 5, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, 2, oracle.CallCount())
}

func TestRouteCache_BudgetCountsAttemptsAndFailsBeforeCalling(t *testing.T) {
	loc := zurich(t)
	oracle := routes.NewMockDurationOracle(func(string, string, time.Time) (float64, error) {
		return 0, errors.New("routes api status 503: unavailable")
	})
	c := newTestCache(t, oracle, nil, 2)

	for i := 0; i < 2; i++ {
		_, err := c.Duration(context.Background(), home, office, time.Date(2025, 3, 3, 7, 5*i, 0, 0, loc))
		require.ErrorIs(t, err, domain.ErrOracleFailure)
	}
	assert.Equal(t, 2, c.Used())
	assert.Equal(t, 0, c.Remaining())

	_, err := c.Duration(context.Background(), home, office, time.Date(2025, 3, 3, 8, 0, 0, 0, loc))
	require.ErrorIs(t, err, domain.ErrBudgetExceeded)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, 2, oracle.CallCount())
}

func TestRouteCache_FailuresAreNotCached(t *testing.T) {
	loc := zurich(t)
	calls := 0
	oracle := routes.NewMockDurationOracle(func(string, string, time.Time) (float64, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("timeout")
		}
		return 17, nil
	})
	c := newTestCache(t, oracle, nil, 10)
	dep := time.Date(2025, 3, 3, 7, 0, 0, 0, loc)

	_, err := c.Duration(context.Background(), home, office, dep)
	require.Error(t, err)
	assert.Equal(t, "timeout", c.LastFailure())

	d, err := c.Duration(context.Background(), home, office, dep)
	require.NoError(t, err)
	assert.Equal(t, 17.0, d)
}

func TestRouteCache_NegativeDurationIsAFailure(t *testing.T) {
	c := newTestCache(t, routes.ConstantOracle(-1), nil, 10)

	_, err := c.Duration(context.Background(), home, office, time.Now())
	assert.ErrorIs(t, err, domain.ErrOracleFailure)
}

func TestRouteCache_PersistentStoreSurvivesRuns(t *testing.T) {
	ctx := context.Background()
	loc := zurich(t)
	path := filepath.Join(t.TempDir(), "cache.json")
	dep := time.Date(2025, 3, 3, 7, 2, 0, 0, loc)

	first := routes.ConstantOracle(33)
	c1 := newTestCache(t, first, cache.OpenFileDurationStore(path, cache.StoreOptions{}, nil), 10)
	_, err := c1.Duration(ctx, home, office, dep)
	require.NoError(t, err)
	require.NoError(t, c1.Flush(ctx))

	second := routes.ConstantOracle(99)
	c2 := newTestCache(t, second, cache.OpenFileDurationStore(path, cache.StoreOptions{}, nil), 10)
	d, err := c2.Duration(ctx, home, office, dep)
	require.NoError(t, err)

	assert.Equal(t, 33.0, d)
	assert.Equal(t, 0, second.CallCount())
	assert.Equal(t, 0, c2.Used())
}

func TestRouteCache_LegacyKeyIsPromoted(t *testing.T) {
	ctx := context.Background()
	loc := zurich(t)
	store := cache.OpenFileDurationStore(filepath.Join(t.TempDir(), "cache.json"), cache.StoreOptions{}, nil)

	key := domain.CacheKey{Origin: home, Destination: office, Zone: loc.String(), Bucket: time.Date(2025, 3, 3, 7, 0, 0, 0, loc)}
	require.NoError(t, store.Put(ctx, key.LegacyString(), domain.NewCacheEntry(28, time.Now())))

	oracle := routes.ConstantOracle(99)
	c := newTestCache(t, oracle, store, 10)

	d, err := c.Duration(ctx, home, office, time.Date(2025, 3, 3, 7, 3, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, 28.0, d)
	assert.Equal(t, 0, oracle.CallCount())

	e, ok, err := store.Get(ctx, key.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 28.0, e.DurationMinutes)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (domain.CacheEntry, bool, error) {
	return domain.CacheEntry{}, false, errors.New("disk on fire")
}

func (brokenStore) Put(context.Context, string, domain.CacheEntry) error {
	return errors.New("disk on fire")
}

func (brokenStore) Flush(context.Context) error { return nil }

func (brokenStore) Close() error { return nil }

func TestRouteCache_StoreErrorsAreMisses(t *testing.T) {
	oracle := routes.ConstantOracle(12)
	c, err := NewRouteCache(oracle, RouteCacheOptions{Store: brokenStore{}, Budget: domain.NewCallBudget(5)})
	require.NoError(t, err)

	d, err := c.Duration(context.Background(), home, office, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 12.0, d)
	assert.Equal(t, 1, oracle.CallCount())
}
