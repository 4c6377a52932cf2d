package services

import (
	"commute-planner/internal/adapters/routes"
	"commute-planner/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	home   = "Home 1, Zurich"
	office = "Office 2, Baden"
)

func zurich(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)
	return loc
}

func at(loc *time.Location, day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

func clock(h, m int) domain.ClockTime {
	return domain.ClockTime{Hour: h, Minute: m}
}

type fixture struct {
	loc     *time.Location
	monday  time.Time
	oracle  *routes.MockDurationOracle
	cache   *RouteCache
	planner *Planner
}

// newFixture wires a planner to a mock oracle through a one-minute-bucket cache.
// now defaults to the Sunday noon before the planned week.
func newFixture(t *testing.T, fn routes.DurationFunc, maxCalls int, now time.Time) *fixture {
	t.Helper()

	loc := zurich(t)
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, loc)
	if now.IsZero() {
		now = time.Date(2025, 3, 2, 12, 0, 0, 0, loc)
	}
	nowFn := func() time.Time { return now }

	oracle := routes.NewMockDurationOracle(fn)
	cache, err := NewRouteCache(oracle, RouteCacheOptions{
		Budget:      domain.NewCallBudget(maxCalls),
		Location:    loc,
		BucketWidth: time.Minute,
		Now:         nowFn,
	})
	require.NoError(t, err)

	planner, err := NewPlanner(cache, domain.Route{Home: home, Office: office}, PlannerOptions{Location: loc, Now: nowFn})
	require.NoError(t, err)

	return &fixture{loc: loc, monday: monday, oracle: oracle, cache: cache, planner: planner}
}

func constant(minutes float64) routes.DurationFunc {
	return func(string, string, time.Time) (float64, error) { return minutes, nil }
}

func defaultWork() WorkdaySettings {
	return WorkdaySettings{
		WindowStart:      clock(5, 0),
		LatestArrival:    clock(9, 0),
		StepMinutes:      5,
		WorkMinutes:      8 * 60,
		LunchMinMinutes:  30,
		LunchMaxMinutes:  60,
		LunchStepMinutes: 5,
	}
}

// noExtension never walks past the baseline departure.
func noExtension() ExtensionSettings {
	return ExtensionSettings{
		StepMinutes:       30,
		WorseStreakLimit:  6,
		TargetSaveMinutes: 10,
		Latest:            clock(0, 0),
	}
}
