package services

import (
	"commute-planner/internal/domain"
	"time"
)

// WorkdaySettings describes the office visit of one day: the morning window,
// the required work time and the flexible lunch range.
type WorkdaySettings struct {
	WindowStart          domain.ClockTime
	LatestArrival        domain.ClockTime
	StepMinutes          int
	WorkMinutes          int
	LunchMinMinutes      int
	LunchMaxMinutes      int
	LunchStepMinutes     int
	PersonalBreakMinutes int
}

// HalfDay returns a copy for a four hour visit without lunch, arriving within
// the given window.
func (s WorkdaySettings) HalfDay(windowStart, latestArrival domain.ClockTime) WorkdaySettings {
	s.WindowStart = windowStart
	s.LatestArrival = latestArrival
	s.WorkMinutes = 4 * 60
	s.LunchMinMinutes = 0
	s.LunchMaxMinutes = 0
	s.LunchStepMinutes = 0
	return s
}

func (s WorkdaySettings) Morning(day time.Time) MorningRequest {
	return MorningRequest{
		Day:           day,
		WindowStart:   s.WindowStart,
		LatestArrival: s.LatestArrival,
		StepMinutes:   s.StepMinutes,
	}
}

func (s WorkdaySettings) Evening(morningArrival time.Time) EveningRequest {
	return EveningRequest{
		MorningArrival:       morningArrival,
		WorkMinutes:          s.WorkMinutes,
		LunchMinMinutes:      s.LunchMinMinutes,
		LunchMaxMinutes:      s.LunchMaxMinutes,
		LunchStepMinutes:     s.LunchStepMinutes,
		PersonalBreakMinutes: s.PersonalBreakMinutes,
	}
}

// ExtensionSettings configures the stay-longer search.
type ExtensionSettings struct {
	StepMinutes       int
	WorseStreakLimit  int
	TargetSaveMinutes float64
	// Latest is the global cutoff for a later departure.
	Latest domain.ClockTime
	// MaxLeave and FridayLatest optionally tighten Latest.
	MaxLeave     *domain.ClockTime
	FridayLatest *domain.ClockTime
	Penalty      domain.LatePenalty
}

// LatestLeave resolves the earliest of the configured cutoffs on day.
func (s ExtensionSettings) LatestLeave(day time.Time, loc *time.Location) time.Time {
	latest := s.Latest.On(day, loc)

	if s.MaxLeave != nil {
		if t := s.MaxLeave.On(day, loc); t.Before(latest) {
			latest = t
		}
	}

	if s.FridayLatest != nil && day.In(loc).Weekday() == time.Friday {
		if t := s.FridayLatest.On(day, loc); t.Before(latest) {
			latest = t
		}
	}

	return latest
}

// Request builds the search parameters for walking later than baseline.
func (s ExtensionSettings) Request(baseline domain.CommuteLeg, loc *time.Location) ExtensionRequest {
	return ExtensionRequest{
		BaselineDeparture: baseline.Departure,
		BaselineDuration:  baseline.DurationMinutes,
		StepMinutes:       s.StepMinutes,
		WorseStreakLimit:  s.WorseStreakLimit,
		TargetSaveMinutes: s.TargetSaveMinutes,
		LatestLeave:       s.LatestLeave(baseline.Departure, loc),
		LatePenalty:       s.Penalty.Func(loc),
	}
}
