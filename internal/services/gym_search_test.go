package services

import (
	"commute-planner/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gym = "Gym 3, Dietikon"

// gymTraffic makes the gym->home leg cheap only before 17:30.
func gymTraffic(origin string, destination string, dep time.Time) (float64, error) {
	switch {
	case origin == office && destination == home:
		return 50, nil
	case origin == office && destination == gym:
		return 10, nil
	case dep.Hour()*60+dep.Minute() < 17*60+30:
		return 15, nil
	default:
		return 35, nil
	}
}

func gymRequest(f *fixture, balance int) GymRequest {
	return GymRequest{
		MorningArrival:          at(f.loc, f.monday, 8, 0),
		WorkMinutes:             480,
		LunchMinutes:            30,
		AvailableBalanceMinutes: balance,
		SpendStepMinutes:        15,
		Locations:               []string{gym},
		TrainingMinMinutes:      60,
		TrainingMaxMinutes:      90,
		TrainingStepMinutes:     15,
		LeaveMode:               LeaveEarly,
		MaxCombos:               60,
	}
}

func TestExploreGym_SpendsTimebankForCheaperDetour(t *testing.T) {
	f := newFixture(t, gymTraffic, 1000, time.Time{})

	res, err := f.planner.ExploreGym(context.Background(), gymRequest(f, 30))
	require.NoError(t, err)

	assert.Equal(t, at(f.loc, f.monday, 16, 30), res.EarliestLeave)
	assert.Equal(t, 50.0, res.Direct.DurationMinutes)
	assert.Equal(t, 9, res.Evaluated)
	assert.False(t, res.Truncated)

	require.NotNil(t, res.Spend)
	assert.Equal(t, 15, res.Spend.SpendMinutes)
	assert.Equal(t, 60, res.Spend.TrainingMinutes)
	assert.Equal(t, at(f.loc, f.monday, 16, 15), res.Spend.Leave)
	assert.Equal(t, 25.0, res.Spend.NetSavingMinutes)
	assert.Equal(t, at(f.loc, f.monday, 17, 25), res.Spend.ToHome.Departure)

	require.NotNil(t, res.BestAny)
	assert.Equal(t, 25.0, res.BestAny.TravelMinutes())
}

func TestExploreGym_ZeroBalanceNeverSpends(t *testing.T) {
	f := newFixture(t, gymTraffic, 1000, time.Time{})

	res, err := f.planner.ExploreGym(context.Background(), gymRequest(f, 0))
	require.NoError(t, err)

	assert.Nil(t, res.Spend)
	require.NotNil(t, res.BestAny)
	assert.Equal(t, 0, res.BestAny.SpendMinutes)
	assert.Equal(t, at(f.loc, f.monday, 16, 30), res.BestAny.Leave)
	assert.Equal(t, 45.0, res.BestAny.TravelMinutes())
	assert.Equal(t, 3, res.Evaluated)
}

func TestExploreGym_DailyMaxCapsSpend(t *testing.T) {
	f := newFixture(t, gymTraffic, 1000, time.Time{})
	req := gymRequest(f, 120)
	req.DailyMaxSpendMinutes = 15

	assert.Equal(t, 15, req.MaxSpend())

	res, err := f.planner.ExploreGym(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Evaluated)
	require.NotNil(t, res.Spend)
	assert.LessOrEqual(t, res.Spend.SpendMinutes, 15)
}

func TestExploreGym_ComboCap(t *testing.T) {
	f := newFixture(t, gymTraffic, 1000, time.Time{})
	req := gymRequest(f, 30)
	req.MaxCombos = 2

	res, err := f.planner.ExploreGym(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Evaluated)
	assert.True(t, res.Truncated)
}

func TestExploreGym_StopsAtBudgetSoftReserve(t *testing.T) {
	f := newFixture(t, gymTraffic, 5, time.Time{})
	req := gymRequest(f, 30)
	req.BudgetSoftReserve = 3

	res, err := f.planner.ExploreGym(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evaluated)
	assert.True(t, res.Truncated)
	assert.Equal(t, 2, f.cache.Remaining())
}

func TestAcceptGymOption_DebitsTimebank(t *testing.T) {
	bank := domain.NewTimebank(30, 600)

	require.NoError(t, AcceptGymOption(bank, &domain.GymOption{SpendMinutes: 15}))
	assert.Equal(t, 15, bank.Balance())

	assert.Error(t, AcceptGymOption(bank, &domain.GymOption{SpendMinutes: 20}))
	assert.Equal(t, 15, bank.Balance())

	require.NoError(t, AcceptGymOption(bank, nil))
	assert.Equal(t, 15, bank.Balance())
}

func TestParseLeaveMode(t *testing.T) {
	m, err := ParseLeaveMode("")
	require.NoError(t, err)
	assert.Equal(t, LeaveEarly, m)

	m, err = ParseLeaveMode(" Earliest ")
	require.NoError(t, err)
	assert.Equal(t, LeaveEarliest, m)

	_, err = ParseLeaveMode("late")
	assert.ErrorIs(t, err, domain.ErrConfig)
}
