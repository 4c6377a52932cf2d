package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lateReturnTraffic favours leaving the office from 16:35 on, while 07:00 is the
// single fastest morning slot.
func lateReturnTraffic(origin string, _ string, dep time.Time) (float64, error) {
	m := dep.Hour()*60 + dep.Minute()
	if origin == home {
		if m == 7*60 {
			return 30, nil
		}
		return 32, nil
	}
	if m >= 16*60+35 {
		return 20, nil
	}
	return 50, nil
}

func TestOptimizeDay_FindsLaterMorningWithCheaperEvening(t *testing.T) {
	f := newFixture(t, lateReturnTraffic, 5000, time.Time{})

	got, err := f.planner.OptimizeDay(context.Background(), DayRequest{
		Day:            f.monday,
		Work:           defaultWork(),
		Extension:      noExtension(),
		HorizonMinutes: DefaultHorizonMinutes,
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 80.0, got.BaselineScore)
	assert.Equal(t, 52.0, got.TotalScore)
	assert.Equal(t, at(f.loc, f.monday, 7, 5), got.Morning.Departure)
	assert.Equal(t, 60, got.Evening.LunchMinutes)
	assert.Equal(t, at(f.loc, f.monday, 16, 37), got.Evening.Chosen().Departure)
}

func TestOptimizeDay_NoImprovement(t *testing.T) {
	f := newFixture(t, constant(30), 5000, time.Time{})

	got, err := f.planner.OptimizeDay(context.Background(), DayRequest{
		Day:            f.monday,
		Work:           defaultWork(),
		Extension:      noExtension(),
		HorizonMinutes: DefaultHorizonMinutes,
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOptimizeDay_ZeroHorizonOnlyRescoresBaseline(t *testing.T) {
	f := newFixture(t, lateReturnTraffic, 5000, time.Time{})

	got, err := f.planner.OptimizeDay(context.Background(), DayRequest{
		Day:       f.monday,
		Work:      defaultWork(),
		Extension: noExtension(),
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOptimizeDay_StopsAtDeadlineBreach(t *testing.T) {
	// Every departure after 05:00 arrives too late, so only offset 0 is scored.
	fn := func(origin string, _ string, dep time.Time) (float64, error) {
		if origin == home {
			if dep.Hour() == 5 && dep.Minute() == 0 {
				return 30, nil
			}
			return 300, nil
		}
		return 40, nil
	}
	f := newFixture(t, fn, 5000, time.Time{})

	got, err := f.planner.OptimizeDay(context.Background(), DayRequest{
		Day:            f.monday,
		Work:           defaultWork(),
		Extension:      noExtension(),
		HorizonMinutes: 60,
	})
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, c := range f.oracle.Calls() {
		if c.Origin == home {
			assert.False(t, c.DepartAt.After(at(f.loc, f.monday, 9, 0)))
		}
	}
}
