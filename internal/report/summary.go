package report

import (
	"commute-planner/internal/domain"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the commute days of a week plan.
type Summary struct {
	CommuteDays   int     `json:"commute_days"`
	TotalMinutes  float64 `json:"total_minutes"`
	MeanMinutes   float64 `json:"mean_minutes"`
	StdDevMinutes float64 `json:"stddev_minutes"`
	MinMinutes    float64 `json:"min_minutes"`
	MaxMinutes    float64 `json:"max_minutes"`
	// PotentialSavingMinutes adds up the improvements found by re-optimizing days.
	PotentialSavingMinutes float64 `json:"potential_saving_minutes"`
}

// Summarize computes round-trip statistics over the planned days that have legs.
func Summarize(w domain.WeekPlan) Summary {
	var (
		travel []float64
		saving float64
	)
	for _, d := range w.Days {
		if d.Status != domain.StatusPlanned || d.Outbound == nil {
			continue
		}
		travel = append(travel, d.TravelMinutes())
		if d.Improvement != nil {
			saving += d.Improvement.BaselineScore - d.Improvement.TotalScore
		}
	}

	s := Summary{CommuteDays: len(travel), PotentialSavingMinutes: saving}
	if len(travel) == 0 {
		return s
	}

	s.TotalMinutes = floats.Sum(travel)
	s.MinMinutes = floats.Min(travel)
	s.MaxMinutes = floats.Max(travel)
	if len(travel) == 1 {
		s.MeanMinutes = travel[0]
		return s
	}
	s.MeanMinutes, s.StdDevMinutes = stat.MeanStdDev(travel, nil)
	return s
}
