package main

import (
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/obs"
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

type weekFlags struct {
	optimize bool
	start    string
}

func weekCmd() *cobra.Command {
	var f weekFlags

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Allocate the home-office quota and plan Monday to Friday",
		Long: `Plan the week described by WEEKLY_BLOCKS or the MO_AM..FR_PM slot keys.
OPEN days with the longest commute become home-office days until
WEEKLY_HO_PERCENT of a 40h week is used; the quota is then enforced by turning
the cheapest home days back into office days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWeek(cmd.Context(), appFrom(cmd), f)
		},
	}

	cmd.Flags().BoolVar(&f.optimize, "optimize", true, "re-optimize office days and suggest staying longer")
	cmd.Flags().StringVar(&f.start, "start", "", "Monday of the week, YYYY-MM-DD (default: WEEKLY_START_DATE or this week)")
	return cmd
}

func runWeek(ctx context.Context, a *app, f weekFlags) (err error) {
	defer obs.Time(ctx, a.log, "week")(&err)

	start := a.cfg.WeekStart(time.Now())
	if f.start != "" {
		start, err = time.ParseInLocation("2006-01-02", f.start, a.cfg.Location())
		if err != nil {
			return domain.ConfigErrorf("--start %q: expected YYYY-MM-DD", f.start)
		}
	}

	s, err := a.newSession()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.finish(ctx, s)) }()

	plan, err := s.AllocateWeek(ctx, a.cfg.Week(start, f.optimize))
	if err != nil {
		return err
	}
	return a.printer.Week(plan)
}
