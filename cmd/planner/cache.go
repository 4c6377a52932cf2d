package main

import (
	"commute-planner/internal/adapters/cache"
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/obs"
	"commute-planner/internal/ports"
	"commute-planner/internal/report"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the route duration cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the number of live cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, "cache stats", func(context.Context, ports.DurationStoreInspector, *report.CacheStatsResponse) error {
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop expired entries and trim the cache to CACHE_MAX_ENTRIES",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, "cache prune", pruneStore)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <cache.json>",
		Short: "Copy a JSON cache file into the configured backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, "cache import", func(ctx context.Context, store ports.DurationStoreInspector, res *report.CacheStatsResponse) error {
				n, err := cache.ImportJSON(ctx, store, args[0])
				if err != nil {
					return err
				}
				res.Imported = n
				return nil
			})
		},
	})

	return cmd
}

type storeAction func(ctx context.Context, store ports.DurationStoreInspector, res *report.CacheStatsResponse) error

func pruneStore(ctx context.Context, store ports.DurationStoreInspector, res *report.CacheStatsResponse) error {
	before, err := store.Len(ctx)
	if err != nil {
		return err
	}
	if err := store.Flush(ctx); err != nil {
		return err
	}
	after, err := store.Len(ctx)
	if err != nil {
		return err
	}
	res.Pruned = max(0, before-after)
	return nil
}

// withStore opens the configured store, runs fn and prints the live entry count.
func withStore(cmd *cobra.Command, op string, fn storeAction) (err error) {
	ctx := cmd.Context()
	a := appFrom(cmd)
	defer obs.Time(ctx, a.log, op)(&err)

	store, location, err := a.openStore()
	if err != nil {
		return err
	}
	if store == nil {
		return domain.ConfigErrorf("the route duration cache is disabled (CACHE_DISABLE)")
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close cache: %w", cerr))
		}
	}()

	res := report.CacheStatsResponse{Backend: a.cfg.CacheBackend, Location: location}
	if err := fn(ctx, store, &res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.Entries, err = store.Len(ctx); err != nil {
		return err
	}
	return a.printer.CacheStats(res)
}
