package services

import (
	"commute-planner/internal/domain"
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	weekHours        = 40
	maxHomeHours     = 16
	maxHomePercent   = 40
	fullDayHomeHours = 8
	halfDayHomeHours = 4
)

type WeekRequest struct {
	// Start is the Monday of the planned week.
	Start            time.Time
	Blocks           domain.WeekBlocks
	HomeQuotaPercent float64
	Work             WorkdaySettings
	// Afternoon window used when the office visit is after lunch (HOME_AM).
	AfternoonWindowStart domain.ClockTime
	AfternoonArrival     domain.ClockTime
	// Optimize adds a DayOptimizer result and a stay-longer suggestion to office days.
	Optimize       bool
	Extension      ExtensionSettings
	HorizonMinutes int
}

// HomeHourTarget converts a home-office percentage of a 40h week into hours,
// clamped to 0..16.
func HomeHourTarget(percent float64) int {
	if percent < 0 {
		percent = 0
	}
	if percent > maxHomePercent {
		percent = maxHomePercent
	}

	target := int(math.Round(percent / 100 * weekHours))
	if target < 0 {
		return 0
	}
	if target > maxHomeHours {
		return maxHomeHours
	}
	return target
}

type dayCost struct {
	index   int
	minutes float64
}

// AllocateWeek distributes the home-office quota over the week and plans every day.
//
// First OPEN days are ranked by round-trip commute, longest first, and the top
// ones become HOME_FULL (plus one HOME_AM for a remaining half day). Then, while
// the week holds more home hours than the target, the home days that are
// cheapest to turn back into office days are reverted. Explicit OFFICE and OFF
// days are never changed. A failing day is reported as an error entry.
func (p *Planner) AllocateWeek(ctx context.Context, req WeekRequest) (domain.WeekPlan, error) {
	if req.Work.StepMinutes <= 0 {
		return domain.WeekPlan{}, domain.ConfigErrorf("step must be positive, got %d", req.Work.StepMinutes)
	}

	start := domain.StartOfDay(req.Start, p.loc)
	today := domain.StartOfDay(p.now(), p.loc)
	target := HomeHourTarget(req.HomeQuotaPercent)

	plan := domain.WeekPlan{
		Start:       start,
		Initial:     req.Blocks,
		Blocks:      req.Blocks,
		TargetHours: target,
	}

	p.log.Infof("weekly plan start=%s blocks=%s target_hours=%d", start.Format("2006-01-02"), req.Blocks, target)

	costs := &weekCosts{planner: p, req: req, start: start, full: map[int]float64{}}

	if target > 0 {
		p.convertOpenDays(ctx, &plan.Blocks, costs, target, today)
	}
	if err := ctx.Err(); err != nil {
		return domain.WeekPlan{}, fmt.Errorf("allocate week: %w", err)
	}

	p.enforceQuota(ctx, &plan.Blocks, costs, target, today)
	if err := ctx.Err(); err != nil {
		return domain.WeekPlan{}, fmt.Errorf("allocate week: %w", err)
	}

	plan.Days = make([]domain.DayPlan, 0, domain.DaysPerWeek)
	for i, mode := range plan.Blocks {
		day := costs.day(i)
		if day.Before(today) {
			plan.Days = append(plan.Days, domain.DayPlan{Date: day, Mode: mode, Status: domain.StatusPast})
			continue
		}

		dp, err := p.planDay(ctx, req, day, mode)
		if err != nil {
			if ctx.Err() != nil {
				return domain.WeekPlan{}, fmt.Errorf("allocate week: %w", err)
			}
			p.log.Errorf("planning error for %s (%s): %v", day.Format("2006-01-02"), mode, err)
			dp = domain.DayPlan{Date: day, Mode: mode, Status: domain.StatusError, Err: err.Error()}
		}
		plan.Days = append(plan.Days, dp)
	}

	return plan, nil
}

// convertOpenDays turns the most expensive OPEN days into home days.
func (p *Planner) convertOpenDays(ctx context.Context, blocks *domain.WeekBlocks, costs *weekCosts, target int, today time.Time) {
	candidates := []dayCost{}
	for i, mode := range blocks {
		if mode != domain.ModeOpen || costs.day(i).Before(today) {
			continue
		}
		m, err := costs.fullDay(ctx, i)
		if err != nil {
			p.log.Warnf("home-office candidate %s skipped: %v", costs.day(i).Format("2006-01-02"), err)
			continue
		}
		candidates = append(candidates, dayCost{index: i, minutes: m})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].minutes > candidates[b].minutes
	})

	fullDays := target / fullDayHomeHours
	halfDay := target%fullDayHomeHours >= halfDayHomeHours

	p.log.Infof("home-office optimizer: target_hours=%d candidates=%d", target, len(candidates))

	for n, c := range candidates {
		switch {
		case n < fullDays:
			blocks[c.index] = domain.ModeHomeFull
		case n == fullDays && halfDay:
			blocks[c.index] = domain.ModeHomeAM
		}
	}
}

// enforceQuota reverts home days to OFFICE, cheapest added commute first,
// until the week is within target. Days whose cost cannot be computed go last.
// Days before today are fixed: their home hours count but are never reverted.
func (p *Planner) enforceQuota(ctx context.Context, blocks *domain.WeekBlocks, costs *weekCosts, target int, today time.Time) {
	current := blocks.HomeHours()
	if current <= target {
		return
	}

	candidates := []dayCost{}
	for i, mode := range blocks {
		if mode.HomeHours() == 0 || costs.day(i).Before(today) {
			continue
		}
		m, err := costs.revert(ctx, i, mode)
		if err != nil {
			p.log.Warnf("revert cost for %s unknown: %v", costs.day(i).Format("2006-01-02"), err)
			m = math.Inf(1)
		}
		candidates = append(candidates, dayCost{index: i, minutes: m})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].minutes < candidates[b].minutes
	})

	for _, c := range candidates {
		if current <= target {
			break
		}
		current -= blocks[c.index].HomeHours()
		blocks[c.index] = domain.ModeOffice
	}

	p.log.Infof("home-office cap applied: final_hours=%d blocks=%s", current, blocks)
}

// planDay computes the legs for one weekday in its final mode.
func (p *Planner) planDay(ctx context.Context, req WeekRequest, day time.Time, mode domain.Mode) (domain.DayPlan, error) {
	dp := domain.DayPlan{Date: day, Mode: mode, Status: domain.StatusPlanned}

	var work WorkdaySettings
	switch mode {
	case domain.ModeHomeFull, domain.ModeOff:
		return dp, nil
	case domain.ModeHomeAM:
		work = req.Work.HalfDay(req.AfternoonWindowStart, req.AfternoonArrival)
	case domain.ModeHomePM:
		work = req.Work.HalfDay(req.Work.WindowStart, req.Work.LatestArrival)
	default:
		dp.Mode = domain.ModeOffice
		work = req.Work
	}

	morning, evening, err := p.roundTrip(ctx, work, day)
	if err != nil {
		return domain.DayPlan{}, err
	}

	inbound := evening.Base
	dp.Outbound = &morning
	dp.Inbound = &inbound
	dp.LunchMinutes = evening.LunchMinutes
	dp.WorkMinutes = work.WorkMinutes

	if req.Optimize && dp.Mode == domain.ModeOffice {
		p.decorateDay(ctx, req, day, &dp)
	}

	return dp, nil
}

// decorateDay attaches the optional re-optimization and stay-longer suggestion.
// Failures there leave the day's plan intact.
func (p *Planner) decorateDay(ctx context.Context, req WeekRequest, day time.Time, dp *domain.DayPlan) {
	improved, err := p.OptimizeDay(ctx, DayRequest{
		Day:            day,
		Work:           req.Work,
		Extension:      req.Extension,
		HorizonMinutes: req.HorizonMinutes,
	})
	if err != nil {
		p.log.Warnf("optimize %s failed: %v", day.Format("2006-01-02"), err)
	} else {
		dp.Improvement = improved
	}

	ext, err := p.ExploreExtension(ctx, req.Extension.Request(*dp.Inbound, p.loc))
	if err != nil {
		p.log.Warnf("extension for %s failed: %v", day.Format("2006-01-02"), err)
		return
	}
	dp.Extension = ext
}

func (p *Planner) roundTrip(ctx context.Context, work WorkdaySettings, day time.Time) (domain.CommuteLeg, domain.EveningPlan, error) {
	morning, err := p.ScanMorning(ctx, work.Morning(day))
	if err != nil {
		return domain.CommuteLeg{}, domain.EveningPlan{}, err
	}

	evening, err := p.ScanEvening(ctx, work.Evening(morning.Arrival))
	if err != nil {
		return domain.CommuteLeg{}, domain.EveningPlan{}, err
	}

	return morning, evening, nil
}

// weekCosts memoizes round-trip minutes per weekday within one allocation.
type weekCosts struct {
	planner *Planner
	req     WeekRequest
	start   time.Time
	full    map[int]float64
}

func (w *weekCosts) day(i int) time.Time {
	return time.Date(w.start.Year(), w.start.Month(), w.start.Day()+i, 0, 0, 0, 0, w.start.Location())
}

func (w *weekCosts) fullDay(ctx context.Context, i int) (float64, error) {
	if m, ok := w.full[i]; ok {
		return m, nil
	}
	m, err := w.minutes(ctx, w.req.Work, i)
	if err != nil {
		return 0, err
	}
	w.full[i] = m
	return m, nil
}

// revert returns the commute minutes added by turning a home day into an office day.
func (w *weekCosts) revert(ctx context.Context, i int, mode domain.Mode) (float64, error) {
	full, err := w.fullDay(ctx, i)
	if err != nil {
		return 0, err
	}

	var half WorkdaySettings
	switch mode {
	case domain.ModeHomeAM:
		half = w.req.Work.HalfDay(w.req.AfternoonWindowStart, w.req.AfternoonArrival)
	case domain.ModeHomePM:
		half = w.req.Work.HalfDay(w.req.Work.WindowStart, w.req.Work.LatestArrival)
	default:
		return full, nil
	}

	m, err := w.minutes(ctx, half, i)
	if err != nil {
		return 0, err
	}
	return math.Max(0, full-m), nil
}

func (w *weekCosts) minutes(ctx context.Context, work WorkdaySettings, i int) (float64, error) {
	morning, evening, err := w.planner.roundTrip(ctx, work, w.day(i))
	if err != nil {
		return 0, err
	}
	return morning.DurationMinutes + evening.Base.DurationMinutes, nil
}
