package main

import (
	"commute-planner/internal/adapters/routes"
	"commute-planner/internal/config"
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/logger"
	"commute-planner/internal/services"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession plans over a mock oracle with a fixed call budget and no persistent cache.
func newTestSession(t *testing.T, oracle *routes.MockDurationOracle, maxCalls int) (*app, *session) {
	t.Helper()

	cfg := config.Defaults()
	cfg.OriginAddress = "Home 1, Zurich"
	cfg.DestinationAddress = "Office 2, Baden"
	cfg.CacheDisable = true
	require.NoError(t, cfg.Validate())

	rc, err := services.NewRouteCache(oracle, services.RouteCacheOptions{
		Budget:      domain.NewCallBudget(maxCalls),
		Location:    cfg.Location(),
		BucketWidth: cfg.BucketWidth(),
	})
	require.NoError(t, err)

	planner, err := services.NewPlanner(rc, cfg.Route(), services.PlannerOptions{Location: cfg.Location()})
	require.NoError(t, err)

	return &app{cfg: &cfg, log: logger.NopLogger{}}, &session{Planner: planner, cache: rc}
}

func TestPlanOfficeDay_BudgetExhaustedInOptionalSearchIsFatal(t *testing.T) {
	// 49 morning and 7 evening lookups fit the budget; the first uncached
	// stay-longer lookup does not.
	const callsForBaseDay = 49 + 7

	cases := []struct {
		name  string
		flags dayFlags
	}{
		{"extend", dayFlags{extend: true}},
		{"optimize", dayFlags{optimize: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			oracle := routes.ConstantOracle(30)
			a, s := newTestSession(t, oracle, callsForBaseDay)
			day := time.Date(2030, 3, 4, 0, 0, 0, 0, a.cfg.Location())

			_, err := planOfficeDay(context.Background(), s, a, day, tc.flags)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrBudgetExceeded)
			assert.Equal(t, callsForBaseDay, oracle.CallCount())
		})
	}
}

func TestPlanOfficeDay_WithinBudget(t *testing.T) {
	a, s := newTestSession(t, routes.ConstantOracle(30), 1000)
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, a.cfg.Location())

	plan, err := planOfficeDay(context.Background(), s, a, day, dayFlags{extend: true, optimize: true})
	require.NoError(t, err)

	require.NotNil(t, plan.Outbound)
	require.NotNil(t, plan.Inbound)
	assert.Equal(t, 60.0, plan.TravelMinutes())
	assert.Nil(t, plan.Extension)
	assert.Nil(t, plan.Improvement)
}

func TestPlanOfficeDay_CancelledContextIsFatal(t *testing.T) {
	a, s := newTestSession(t, routes.ConstantOracle(30), 1000)
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, a.cfg.Location())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := planOfficeDay(ctx, s, a, day, dayFlags{extend: true})
	assert.ErrorIs(t, err, context.Canceled)
}
