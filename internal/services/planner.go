package services

import (
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/logger"
	"commute-planner/internal/ports"
	"context"
	"errors"
	"strings"
	"time"
)

type PlannerOptions struct {
	Location *time.Location
	Now      func() time.Time
	Logger   logger.Logger
}

// Planner runs the commute searches for one home/office route.
//
// All searches are sequential. Every method takes its parameters as an
// immutable request value and reads nothing else besides the lookup source.
type Planner struct {
	durations ports.DurationLookup
	route     domain.Route
	loc       *time.Location
	now       func() time.Time
	log       logger.Logger
}

func NewPlanner(durations ports.DurationLookup, route domain.Route, opts PlannerOptions) (*Planner, error) {
	if durations == nil {
		return nil, errors.New("new planner: duration lookup is nil")
	}
	if strings.TrimSpace(route.Home) == "" || strings.TrimSpace(route.Office) == "" {
		return nil, domain.ConfigErrorf("home and office addresses must be non-empty")
	}

	p := &Planner{
		durations: durations,
		route:     route,
		loc:       opts.Location,
		now:       opts.Now,
		log:       opts.Logger,
	}

	if p.loc == nil {
		p.loc = time.Local
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = logger.NopLogger{}
	}

	return p, nil
}

func (p *Planner) Location() *time.Location { return p.loc }

// Route returns the home/office pair the planner works on.
func (p *Planner) Route() domain.Route { return p.route }

// abortsScan reports whether a lookup error must end the current scan instead
// of just excluding the candidate.
func abortsScan(ctx context.Context, err error) bool {
	return errors.Is(err, domain.ErrBudgetExceeded) || ctx.Err() != nil
}

func minutesOf(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

func (p *Planner) hhmm(t time.Time) string {
	return t.In(p.loc).Format("15:04")
}
