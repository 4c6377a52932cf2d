package services

import (
	"commute-planner/internal/domain"
	"context"
	"fmt"
	"time"
)

// Net savings at or below this many minutes count as no improvement.
const minExtensionSaving = 0.5

type ExtensionRequest struct {
	BaselineDeparture time.Time
	BaselineDuration  float64
	StepMinutes       int
	WorseStreakLimit  int
	TargetSaveMinutes float64
	LatestLeave       time.Time
	// LatePenalty returns penalty minutes for a departure; nil charges nothing.
	LatePenalty func(time.Time) float64
}

// ExploreExtension walks departures later than the baseline and returns the
// one with the best net saving, or nil when none saves more than half a minute.
//
// The walk stops past LatestLeave, after WorseStreakLimit consecutive
// non-improving candidates, or at the first candidate reaching the target.
// That greedy stop can miss a better candidate further out.
func (p *Planner) ExploreExtension(ctx context.Context, req ExtensionRequest) (*domain.Extension, error) {
	if req.StepMinutes <= 0 {
		return nil, domain.ConfigErrorf("extension step must be positive, got %d", req.StepMinutes)
	}

	var (
		best   *domain.Extension
		streak int
	)

	for k := 1; ; k++ {
		offset := k * req.StepMinutes
		dep := req.BaselineDeparture.Add(minutesOf(offset))
		if dep.After(req.LatestLeave) {
			break
		}

		d, err := p.durations.Duration(ctx, p.route.Office, p.route.Home, dep)
		if err != nil {
			if abortsScan(ctx, err) {
				return nil, fmt.Errorf("explore extension: %w", err)
			}
			p.log.Debugf("extension candidate +%dmin failed: %v", offset, err)
			streak++
			if streak >= req.WorseStreakLimit {
				break
			}
			continue
		}

		net := req.BaselineDuration - d
		if req.LatePenalty != nil {
			net -= req.LatePenalty(dep)
		}

		if net > minExtensionSaving {
			streak = 0
			if best == nil || net > best.NetSavingMinutes {
				best = &domain.Extension{
					Leg:              domain.NewCommuteLeg(dep, d),
					ExtendMinutes:    offset,
					NetSavingMinutes: net,
				}
			}
			if net >= req.TargetSaveMinutes {
				break
			}
			continue
		}

		streak++
		if streak >= req.WorseStreakLimit {
			break
		}
	}

	if best != nil {
		p.log.Debugf("extension best +%dmin dep=%s save=%.1f", best.ExtendMinutes, p.hhmm(best.Leg.Departure), best.NetSavingMinutes)
	}
	return best, nil
}

// EveningWithExtension runs the evening scan and adopts a later departure
// when staying longer saves at least the target.
func (p *Planner) EveningWithExtension(
	ctx context.Context,
	work WorkdaySettings,
	ext ExtensionSettings,
	morningArrival time.Time,
) (domain.EveningPlan, error) {
	plan, err := p.ScanEvening(ctx, work.Evening(morningArrival))
	if err != nil {
		return domain.EveningPlan{}, err
	}

	suggestion, err := p.ExploreExtension(ctx, ext.Request(plan.Base, p.loc))
	if err != nil {
		return domain.EveningPlan{}, err
	}

	if suggestion != nil && suggestion.NetSavingMinutes >= ext.TargetSaveMinutes {
		plan.Extension = suggestion
	}
	return plan, nil
}

// eveningScore is the drive time of the chosen return plus its late penalty.
func (p *Planner) eveningScore(plan domain.EveningPlan, ext ExtensionSettings) float64 {
	chosen := plan.Chosen()
	return chosen.DurationMinutes + ext.Penalty.Minutes(chosen.Departure, p.loc)
}
