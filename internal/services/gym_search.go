package services

import (
	"commute-planner/internal/domain"
	"context"
	"fmt"
	"strings"
	"time"
)

// LeaveMode decides where a timebank spend moves the office leave time.
type LeaveMode string

const (
	// LeaveEarly leaves the office earlier by the spent minutes.
	LeaveEarly LeaveMode = "early"
	// LeaveEarliest always leaves at the earliest regular end of work.
	LeaveEarliest LeaveMode = "earliest"
)

func ParseLeaveMode(s string) (LeaveMode, error) {
	switch LeaveMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", LeaveEarly:
		return LeaveEarly, nil
	case LeaveEarliest:
		return LeaveEarliest, nil
	}
	return "", domain.ConfigErrorf("unknown gym leave mode %q", s)
}

type GymRequest struct {
	MorningArrival       time.Time
	WorkMinutes          int
	LunchMinutes         int
	PersonalBreakMinutes int

	AvailableBalanceMinutes int
	// DailyMaxSpendMinutes caps one day's spend; zero means the whole balance.
	DailyMaxSpendMinutes int
	SpendStepMinutes     int

	Locations           []string
	TrainingMinMinutes  int
	TrainingMaxMinutes  int
	TrainingStepMinutes int
	LeaveMode           LeaveMode
	MaxCombos           int
	BudgetSoftReserve   int
}

// MaxSpend is the most the search may draw from the timebank today.
func (r GymRequest) MaxSpend() int {
	if r.AvailableBalanceMinutes <= 0 {
		return 0
	}
	if r.DailyMaxSpendMinutes > 0 && r.DailyMaxSpendMinutes < r.AvailableBalanceMinutes {
		return r.DailyMaxSpendMinutes
	}
	return r.AvailableBalanceMinutes
}

func (r GymRequest) spends() ([]int, error) {
	limit := r.MaxSpend()
	if limit <= 0 {
		return []int{0}, nil
	}
	if r.SpendStepMinutes <= 0 {
		return nil, domain.ConfigErrorf("timebank spend step must be positive, got %d", r.SpendStepMinutes)
	}

	out := []int{}
	for s := 0; s <= limit; s += r.SpendStepMinutes {
		out = append(out, s)
	}
	return out, nil
}

func (r GymRequest) trainings() ([]int, error) {
	if r.TrainingMinMinutes < 0 || r.TrainingMaxMinutes < r.TrainingMinMinutes {
		return nil, domain.ConfigErrorf("training range %d..%d is invalid", r.TrainingMinMinutes, r.TrainingMaxMinutes)
	}
	if r.TrainingStepMinutes <= 0 {
		return []int{r.TrainingMinMinutes}, nil
	}

	out := []int{}
	for t := r.TrainingMinMinutes; t <= r.TrainingMaxMinutes; t += r.TrainingStepMinutes {
		out = append(out, t)
	}
	return out, nil
}

// ExploreGym weighs a detour office -> gym -> home against the direct return.
//
// Without a spendable balance it only reports the cheapest detour (BestAny).
// Otherwise every spend amount, location and training length is tried; the
// detour with the greatest positive saving becomes Spend. The search stops
// after MaxCombos combinations or once the call budget drops to the soft reserve.
func (p *Planner) ExploreGym(ctx context.Context, req GymRequest) (domain.GymResult, error) {
	spends, err := req.spends()
	if err != nil {
		return domain.GymResult{}, err
	}
	trainings, err := req.trainings()
	if err != nil {
		return domain.GymResult{}, err
	}

	mode := req.LeaveMode
	if mode == "" {
		mode = LeaveEarly
	}

	earliest := req.MorningArrival.Add(minutesOf(req.WorkMinutes + req.LunchMinutes + req.PersonalBreakMinutes))

	d, err := p.durations.Duration(ctx, p.route.Office, p.route.Home, earliest)
	if err != nil {
		if abortsScan(ctx, err) {
			return domain.GymResult{}, fmt.Errorf("explore gym: %w", err)
		}
		return domain.GymResult{}, &domain.ScanError{
			Kind:        domain.ErrNoFeasibleReturn,
			Detail:      fmt.Sprintf("direct return at %s", p.hhmm(earliest)),
			LastFailure: err.Error(),
		}
	}

	res := domain.GymResult{EarliestLeave: earliest, Direct: domain.NewCommuteLeg(earliest, d)}
	canSpend := req.MaxSpend() > 0

	p.log.Infof("explore gym leave=%s direct=%.1f max_spend=%d locations=%d",
		p.hhmm(earliest), d, req.MaxSpend(), len(req.Locations))

search:
	for _, spend := range spends {
		leave := earliest
		if mode == LeaveEarly {
			leave = earliest.Add(-minutesOf(spend))
		}

		for _, loc := range req.Locations {
			for _, training := range trainings {
				if req.MaxCombos > 0 && res.Evaluated >= req.MaxCombos {
					res.Truncated = true
					break search
				}
				if p.durations.Remaining() <= req.BudgetSoftReserve {
					res.Truncated = true
					break search
				}
				res.Evaluated++

				opt, err := p.gymOption(ctx, loc, leave, spend, training)
				if err != nil {
					if abortsScan(ctx, err) {
						return domain.GymResult{}, fmt.Errorf("explore gym: %w", err)
					}
					p.log.Debugf("gym candidate %s spend=%d training=%d failed: %v", loc, spend, training, err)
					continue
				}
				opt.NetSavingMinutes = d - opt.TravelMinutes()

				if res.BestAny == nil || opt.TravelMinutes() < res.BestAny.TravelMinutes() {
					o := opt
					res.BestAny = &o
				}

				if canSpend && opt.NetSavingMinutes > 0 &&
					(res.Spend == nil || opt.NetSavingMinutes > res.Spend.NetSavingMinutes) {
					o := opt
					res.Spend = &o
				}
			}
		}
	}

	if res.Truncated {
		p.log.Warnf("gym search stopped after %d combinations", res.Evaluated)
	}
	return res, nil
}

func (p *Planner) gymOption(ctx context.Context, location string, leave time.Time, spend, training int) (domain.GymOption, error) {
	toGym, err := p.durations.Duration(ctx, p.route.Office, location, leave)
	if err != nil {
		return domain.GymOption{}, err
	}
	first := domain.NewCommuteLeg(leave, toGym)

	resume := first.Arrival.Add(minutesOf(training))
	toHome, err := p.durations.Duration(ctx, location, p.route.Home, resume)
	if err != nil {
		return domain.GymOption{}, err
	}

	return domain.GymOption{
		Location:        location,
		TrainingMinutes: training,
		SpendMinutes:    spend,
		Leave:           leave,
		ToGym:           first,
		ToHome:          domain.NewCommuteLeg(resume, toHome),
	}, nil
}

// AcceptGymOption debits the option's spend from the timebank.
func AcceptGymOption(bank *domain.Timebank, opt *domain.GymOption) error {
	if opt == nil || opt.SpendMinutes == 0 {
		return nil
	}
	if err := bank.Spend(opt.SpendMinutes); err != nil {
		return fmt.Errorf("accept gym option: %w", err)
	}
	return nil
}
