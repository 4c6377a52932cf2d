package services

import (
	"commute-planner/internal/domain"
	"context"
	"errors"
	"fmt"
	"time"
)

// A re-optimized day must beat the baseline by more than this many minutes.
const minDayImprovement = 0.1

const DefaultHorizonMinutes = 60

type DayRequest struct {
	Day            time.Time
	Work           WorkdaySettings
	Extension      ExtensionSettings
	HorizonMinutes int
}

// OptimizeDay searches later morning departures, each with its own evening and
// stay-longer search, for a lower total score than the baseline day.
//
// It returns nil when nothing beats the baseline by more than 0.1 minutes.
func (p *Planner) OptimizeDay(ctx context.Context, req DayRequest) (*domain.DayOptimization, error) {
	morning, err := p.ScanMorning(ctx, req.Work.Morning(req.Day))
	if err != nil {
		return nil, fmt.Errorf("optimize day: %w", err)
	}

	evening, err := p.EveningWithExtension(ctx, req.Work, req.Extension, morning.Arrival)
	if err != nil {
		return nil, fmt.Errorf("optimize day: %w", err)
	}

	baseline := morning.DurationMinutes + p.eveningScore(evening, req.Extension)
	deadline := req.Work.LatestArrival.On(req.Day, p.loc)

	horizon := req.HorizonMinutes
	if horizon < 0 {
		horizon = 0
	}

	var best *domain.DayOptimization

	for offset := 0; offset <= horizon; offset += req.Work.StepMinutes {
		dep := morning.Departure.Add(minutesOf(offset))

		d, err := p.durations.Duration(ctx, p.route.Home, p.route.Office, dep)
		if err != nil {
			if abortsScan(ctx, err) {
				return nil, fmt.Errorf("optimize day: %w", err)
			}
			continue
		}

		leg := domain.NewCommuteLeg(dep, d)
		if leg.Arrival.After(deadline) {
			break
		}

		eve, err := p.EveningWithExtension(ctx, req.Work, req.Extension, leg.Arrival)
		if err != nil {
			if errors.Is(err, domain.ErrNoFeasibleReturn) {
				continue
			}
			return nil, fmt.Errorf("optimize day: %w", err)
		}

		total := d + p.eveningScore(eve, req.Extension)
		if best == nil || total < best.TotalScore {
			best = &domain.DayOptimization{Morning: leg, Evening: eve, TotalScore: total}
		}
	}

	if best == nil || best.TotalScore+minDayImprovement >= baseline {
		p.log.Debugf("optimize day %s: no improvement over %.1f", req.Day.In(p.loc).Format("2006-01-02"), baseline)
		return nil, nil
	}

	best.BaselineScore = baseline
	p.log.Infof("optimize day %s: %.1f -> %.1f", req.Day.In(p.loc).Format("2006-01-02"), baseline, best.TotalScore)
	return best, nil
}
