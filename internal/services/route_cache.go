package services

import (
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/logger"
	"commute-planner/internal/platform/obs"
	"commute-planner/internal/ports"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultBucketWidth    = 5 * time.Minute
	DefaultMaxCallsPerRun = 400
)

type RouteCacheOptions struct {
	// Store is the persistent layer; nil disables persistent caching.
	Store       ports.DurationStore
	Budget      *domain.CallBudget
	Location    *time.Location
	BucketWidth time.Duration
	Now         func() time.Time
	Metrics     *obs.Metrics
	Logger      logger.Logger
}

// RouteCache answers duration lookups from a run-local map, then the persistent
// store, and only then the oracle, guarded by the run's call budget.
//
// Failures are never cached. Every attempted oracle call consumes budget.
type RouteCache struct {
	oracle  ports.DurationOracle
	store   ports.DurationStore
	budget  *domain.CallBudget
	loc     *time.Location
	width   time.Duration
	now     func() time.Time
	metrics *obs.Metrics
	log     logger.Logger

	mu          sync.Mutex
	local       map[string]float64
	lastFailure string
}

func NewRouteCache(oracle ports.DurationOracle, opts RouteCacheOptions) (*RouteCache, error) {
	if oracle == nil {
		return nil, errors.New("route cache: oracle is nil")
	}

	c := &RouteCache{
		oracle:  oracle,
		store:   opts.Store,
		budget:  opts.Budget,
		loc:     opts.Location,
		width:   opts.BucketWidth,
		now:     opts.Now,
		metrics: opts.Metrics,
		log:     opts.Logger,
		local:   map[string]float64{},
	}

	if c.budget == nil {
		c.budget = domain.NewCallBudget(DefaultMaxCallsPerRun)
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.width <= 0 {
		c.width = DefaultBucketWidth
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = logger.NopLogger{}
	}

	c.metrics.SetBudgetRemaining(c.budget.Remaining())
	return c, nil
}

// Duration returns the predicted drive minutes for departing at departAt,
// floored to the cache bucket.
func (c *RouteCache) Duration(ctx context.Context, origin, destination string, departAt time.Time) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := domain.CacheKey{
		Origin:      origin,
		Destination: destination,
		Zone:        c.loc.String(),
		Bucket:      domain.BucketStart(departAt, c.width, c.loc),
	}
	canonical := key.String()

	if d, ok := c.local[canonical]; ok {
		c.metrics.CacheLookup(obs.LayerRun, true)
		return d, nil
	}
	c.metrics.CacheLookup(obs.LayerRun, false)

	if d, ok := c.lookupStore(ctx, key); ok {
		c.local[canonical] = d
		return d, nil
	}

	if err := c.budget.Acquire(); err != nil {
		c.metrics.SetBudgetRemaining(c.budget.Remaining())
		return 0, &domain.ScanError{Kind: err, LastFailure: c.lastFailure}
	}
	c.metrics.SetBudgetRemaining(c.budget.Remaining())

	d, err := c.oracle.Duration(ctx, origin, destination, departAt)
	if err == nil && d < 0 {
		err = fmt.Errorf("negative duration %.2f", d)
	}
	if err != nil {
		c.metrics.OracleCall(false)
		c.lastFailure = err.Error()
		return 0, fmt.Errorf("%w: %s -> %s at %s: %w",
			domain.ErrOracleFailure, origin, destination, departAt.In(c.loc).Format("2006-01-02 15:04"), err)
	}
	c.metrics.OracleCall(true)

	c.local[canonical] = d
	if c.store != nil {
		if err := c.store.Put(ctx, canonical, domain.NewCacheEntry(d, c.now())); err != nil {
			c.log.Warnf("duration cache write failed key=%q: %v", canonical, err)
		}
	}

	return d, nil
}

// lookupStore consults the persistent store, falling back to the zone-less
// legacy key. A legacy hit is re-stored under the canonical key.
func (c *RouteCache) lookupStore(ctx context.Context, key domain.CacheKey) (float64, bool) {
	if c.store == nil {
		return 0, false
	}

	canonical := key.String()
	e, ok, err := c.store.Get(ctx, canonical)
	if err != nil {
		c.log.Warnf("duration cache read failed key=%q: %v", canonical, err)
		return 0, false
	}
	c.metrics.CacheLookup(obs.LayerStore, ok)
	if ok {
		return e.DurationMinutes, true
	}

	legacy := key.LegacyString()
	e, ok, err = c.store.Get(ctx, legacy)
	if err != nil {
		c.log.Warnf("duration cache read failed key=%q: %v", legacy, err)
		return 0, false
	}
	c.metrics.CacheLookup(obs.LayerLegacy, ok)
	if !ok {
		return 0, false
	}

	if err := c.store.Put(ctx, canonical, e); err != nil {
		c.log.Warnf("duration cache promote failed key=%q: %v", canonical, err)
	}
	return e.DurationMinutes, true
}

func (c *RouteCache) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget.Remaining()
}

// Used returns the oracle calls attempted so far.
func (c *RouteCache) Used() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget.Used()
}

// LastFailure is the message of the most recent oracle failure, or "".
func (c *RouteCache) LastFailure() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFailure
}

// Flush persists the store, if any.
func (c *RouteCache) Flush(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Flush(ctx); err != nil {
		return fmt.Errorf("route cache flush: %w", err)
	}
	return nil
}
