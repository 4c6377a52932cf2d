package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	envFile    string
	outputFlag string
	rootCmd    = &cobra.Command{
		Use:   "planner",
		Short: "Traffic-aware commute planner",
		Long: `planner picks morning and evening departure times that minimise the
predicted drive between home and office, suggests staying longer when traffic
eases later, weighs gym detours financed from a timebank and spreads a
home-office quota over the week.

Without a subcommand it plans the configured week when week blocks are set,
otherwise a single day.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runDefault,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default: .env when present)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "text", "output format (text, json)")

	rootCmd.AddCommand(dayCmd())
	rootCmd.AddCommand(weekCmd())
	rootCmd.AddCommand(gymCmd())
	rootCmd.AddCommand(cacheCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDefault(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	if a.cfg.Weekly() {
		return runWeek(cmd.Context(), a, weekFlags{optimize: true})
	}
	return runDay(cmd.Context(), a, dayFlags{extend: true})
}
