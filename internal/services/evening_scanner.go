package services

import (
	"commute-planner/internal/domain"
	"context"
	"fmt"
	"time"
)

type EveningRequest struct {
	MorningArrival       time.Time
	WorkMinutes          int
	LunchMinMinutes      int
	LunchMaxMinutes      int
	LunchStepMinutes     int
	PersonalBreakMinutes int
}

// LunchLengths lists the lunch lengths the evening scan evaluates, ascending.
// A non-positive step evaluates only the minimum.
func (r EveningRequest) LunchLengths() ([]int, error) {
	if r.LunchMinMinutes < 0 {
		return nil, domain.ConfigErrorf("lunch minimum must not be negative, got %d", r.LunchMinMinutes)
	}
	if r.LunchMaxMinutes < r.LunchMinMinutes {
		return nil, domain.ConfigErrorf("lunch range %d..%d is inverted", r.LunchMinMinutes, r.LunchMaxMinutes)
	}

	if r.LunchStepMinutes <= 0 {
		return []int{r.LunchMinMinutes}, nil
	}

	out := make([]int, 0, (r.LunchMaxMinutes-r.LunchMinMinutes)/r.LunchStepMinutes+1)
	for l := r.LunchMinMinutes; l <= r.LunchMaxMinutes; l += r.LunchStepMinutes {
		out = append(out, l)
	}
	return out, nil
}

// ScanEvening picks the lunch length whose office->home departure has the
// shortest drive. Ties keep the shortest lunch.
func (p *Planner) ScanEvening(ctx context.Context, req EveningRequest) (domain.EveningPlan, error) {
	lengths, err := req.LunchLengths()
	if err != nil {
		return domain.EveningPlan{}, err
	}
	if req.WorkMinutes < 0 || req.PersonalBreakMinutes < 0 {
		return domain.EveningPlan{}, domain.ConfigErrorf("work and break minutes must not be negative")
	}

	p.log.Infof("scan evening from=%s work=%dmin lunch=%d..%d step=%d",
		p.hhmm(req.MorningArrival), req.WorkMinutes, req.LunchMinMinutes, req.LunchMaxMinutes, req.LunchStepMinutes)

	var (
		best        domain.EveningPlan
		found       bool
		lastFailure string
	)

	for _, lunch := range lengths {
		dep := req.MorningArrival.Add(minutesOf(req.WorkMinutes + lunch + req.PersonalBreakMinutes))

		d, err := p.durations.Duration(ctx, p.route.Office, p.route.Home, dep)
		if err != nil {
			if abortsScan(ctx, err) {
				return domain.EveningPlan{}, fmt.Errorf("scan evening: %w", err)
			}
			lastFailure = err.Error()
			p.log.Debugf("evening candidate lunch=%d failed: %v", lunch, err)
			continue
		}

		if !found || d < best.Base.DurationMinutes {
			best = domain.EveningPlan{LunchMinutes: lunch, Base: domain.NewCommuteLeg(dep, d)}
			found = true
		}
	}

	if !found {
		return domain.EveningPlan{}, &domain.ScanError{
			Kind:        domain.ErrNoFeasibleReturn,
			Detail:      fmt.Sprintf("no return computed after arrival %s", p.hhmm(req.MorningArrival)),
			LastFailure: lastFailure,
		}
	}

	p.log.Infof("evening best dep=%s dur=%.1f arr=%s lunch=%d",
		p.hhmm(best.Base.Departure), best.Base.DurationMinutes, p.hhmm(best.Base.Arrival), best.LunchMinutes)
	return best, nil
}
