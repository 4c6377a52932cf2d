package services

import (
	"commute-planner/internal/domain"
	"context"
	"fmt"
	"time"
)

type MorningRequest struct {
	// Day is any instant on the planned calendar day.
	Day           time.Time
	WindowStart   domain.ClockTime
	LatestArrival domain.ClockTime
	StepMinutes   int
}

// ScanMorning picks the home->office departure with the shortest drive that
// still arrives by the deadline.
//
// Candidates run from the window start to the deadline in StepMinutes
// increments; candidates not in the future are skipped. Only a strictly
// shorter drive replaces the current best, so the earliest minimum wins.
func (p *Planner) ScanMorning(ctx context.Context, req MorningRequest) (domain.CommuteLeg, error) {
	if req.StepMinutes <= 0 {
		return domain.CommuteLeg{}, domain.ConfigErrorf("morning step must be positive, got %d", req.StepMinutes)
	}

	start := req.WindowStart.On(req.Day, p.loc)
	deadline := req.LatestArrival.On(req.Day, p.loc)
	if start.After(deadline) {
		return domain.CommuteLeg{}, domain.ConfigErrorf("morning window start %s is after latest arrival %s", req.WindowStart, req.LatestArrival)
	}

	now := p.now()
	if !deadline.After(now) {
		return domain.CommuteLeg{}, &domain.ScanError{
			Kind:   domain.ErrDeadlinePassed,
			Detail: fmt.Sprintf("latest arrival %s is not in the future; plan a later day or a later arrival", deadline.Format("2006-01-02 15:04")),
		}
	}

	p.log.Infof("scan morning day=%s start=%s latest_arrival=%s step=%d",
		start.Format("2006-01-02"), req.WindowStart, req.LatestArrival, req.StepMinutes)

	var (
		best        domain.CommuteLeg
		found       bool
		lastFailure string
	)

	step := minutesOf(req.StepMinutes)
	for dep := start; !dep.After(deadline); dep = dep.Add(step) {
		if !dep.After(now) {
			continue
		}

		d, err := p.durations.Duration(ctx, p.route.Home, p.route.Office, dep)
		if err != nil {
			if abortsScan(ctx, err) {
				return domain.CommuteLeg{}, fmt.Errorf("scan morning: %w", err)
			}
			lastFailure = err.Error()
			p.log.Debugf("morning candidate %s failed: %v", p.hhmm(dep), err)
			continue
		}

		leg := domain.NewCommuteLeg(dep, d)
		if leg.Arrival.After(deadline) {
			continue
		}

		if !found || d < best.DurationMinutes {
			best = leg
			found = true
			p.log.Debugf("morning best dep=%s arr=%s dur=%.1f", p.hhmm(leg.Departure), p.hhmm(leg.Arrival), d)
		}
	}

	if !found {
		return domain.CommuteLeg{}, &domain.ScanError{
			Kind:        domain.ErrNoFeasibleDeparture,
			Detail:      fmt.Sprintf("no departure from %s arrives by %s", req.WindowStart, req.LatestArrival),
			LastFailure: lastFailure,
		}
	}

	p.log.Infof("morning best dep=%s arr=%s dur=%.1f", p.hhmm(best.Departure), p.hhmm(best.Arrival), best.DurationMinutes)
	return best, nil
}
