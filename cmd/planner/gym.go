package main

import (
	"commute-planner/internal/platform/obs"
	"commute-planner/internal/services"
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

type gymFlags struct {
	accept bool
}

func gymCmd() *cobra.Command {
	var f gymFlags

	cmd := &cobra.Command{
		Use:   "gym",
		Short: "Weigh a gym detour on the way home against the direct return",
		Long: `Plan today's office day, then try every gym in GYM_ADDRESSES with each
training length and timebank spend. With a positive TIMEBANK_MINUTES balance the
detour with the best saving is proposed; otherwise the cheapest detour is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGym(cmd.Context(), appFrom(cmd), f)
		},
	}

	cmd.Flags().BoolVar(&f.accept, "accept", false, "debit the proposed spend from the timebank")
	return cmd
}

func runGym(ctx context.Context, a *app, f gymFlags) (err error) {
	defer obs.Time(ctx, a.log, "gym")(&err)

	s, err := a.newSession()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.finish(ctx, s)) }()

	day := a.cfg.Day(time.Now())
	work := a.cfg.Workday()

	morning, err := s.ScanMorning(ctx, work.Morning(day))
	if err != nil {
		return err
	}
	evening, err := s.ScanEvening(ctx, work.Evening(morning.Arrival))
	if err != nil {
		return err
	}

	bank := a.cfg.Timebank()
	res, err := s.ExploreGym(ctx, a.cfg.Gym(morning.Arrival, evening.LunchMinutes, bank))
	if err != nil {
		return err
	}

	accepted := 0
	if f.accept && res.Spend != nil {
		if err := services.AcceptGymOption(bank, res.Spend); err != nil {
			return err
		}
		accepted = res.Spend.SpendMinutes
		a.log.Infof("timebank spend accepted minutes=%d balance=%d", accepted, bank.Balance())
	}

	return a.printer.Gym(res, bank.Balance(), accepted)
}
