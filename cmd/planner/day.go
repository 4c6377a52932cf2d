package main

import (
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/obs"
	"commute-planner/internal/services"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type dayFlags struct {
	extend   bool
	optimize bool
}

func dayCmd() *cobra.Command {
	var f dayFlags

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Plan today's commute (shifted by DAY_OFFSET)",
		Long: `Scan the morning window for the departure with the shortest drive that
still arrives in time, then pick the lunch length whose return is fastest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDay(cmd.Context(), appFrom(cmd), f)
		},
	}

	cmd.Flags().BoolVar(&f.extend, "extend", true, "suggest staying longer when a later return saves time")
	cmd.Flags().BoolVar(&f.optimize, "optimize", false, "also search later morning departures jointly with the evening")
	return cmd
}

func runDay(ctx context.Context, a *app, f dayFlags) (err error) {
	defer obs.Time(ctx, a.log, "day")(&err)

	s, err := a.newSession()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.finish(ctx, s)) }()

	day := a.cfg.Day(time.Now())
	plan, err := planOfficeDay(ctx, s, a, day, f)
	if err != nil {
		return err
	}
	return a.printer.Day(plan)
}

// planOfficeDay computes a full office day and decorates it with the optional searches.
func planOfficeDay(ctx context.Context, s *session, a *app, day time.Time, f dayFlags) (domain.DayPlan, error) {
	work := a.cfg.Workday()

	morning, err := s.ScanMorning(ctx, work.Morning(day))
	if err != nil {
		if errors.Is(err, domain.ErrDeadlinePassed) {
			return domain.DayPlan{}, fmt.Errorf("%w; set DAY_OFFSET=1 to plan tomorrow", err)
		}
		return domain.DayPlan{}, err
	}

	evening, err := s.ScanEvening(ctx, work.Evening(morning.Arrival))
	if err != nil {
		return domain.DayPlan{}, err
	}

	inbound := evening.Base
	plan := domain.DayPlan{
		Date:         day,
		Mode:         domain.ModeOffice,
		Status:       domain.StatusPlanned,
		Outbound:     &morning,
		Inbound:      &inbound,
		LunchMinutes: evening.LunchMinutes,
		WorkMinutes:  work.WorkMinutes,
	}

	if f.extend {
		ext, err := s.ExploreExtension(ctx, a.cfg.Extension().Request(inbound, s.Location()))
		if err != nil {
			if fatal(ctx, err) {
				return domain.DayPlan{}, err
			}
			a.log.Warnf("stay-longer search failed: %v", err)
		}
		plan.Extension = ext
	}

	if f.optimize {
		improved, err := s.OptimizeDay(ctx, services.DayRequest{
			Day:            day,
			Work:           work,
			Extension:      a.cfg.Extension(),
			HorizonMinutes: a.cfg.OptimizeHorizonMin,
		})
		if err != nil {
			if fatal(ctx, err) {
				return domain.DayPlan{}, err
			}
			a.log.Warnf("day optimization failed: %v", err)
		}
		plan.Improvement = improved
	}

	return plan, nil
}

// fatal reports whether a failure of an optional search must end the run.
func fatal(ctx context.Context, err error) bool {
	return errors.Is(err, domain.ErrBudgetExceeded) || ctx.Err() != nil
}
