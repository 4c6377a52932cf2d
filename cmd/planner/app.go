package main

import (
	"commute-planner/internal/adapters/cache"
	"commute-planner/internal/adapters/routes"
	"commute-planner/internal/config"
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/db"
	"commute-planner/internal/platform/logger"
	"commute-planner/internal/platform/obs"
	"commute-planner/internal/ports"
	"commute-planner/internal/report"
	"commute-planner/internal/services"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type appKey struct{}

// app is the composition root shared by all commands of one invocation.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *obs.Metrics
	printer *report.Printer
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.LoadOptions{EnvFile: envFile, File: cfgFile})
	if err != nil {
		return err
	}

	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat, nil); err != nil {
		return err
	}

	format, err := report.ParseFormat(outputFlag)
	if err != nil {
		return err
	}

	a := &app{
		cfg:     cfg,
		log:     logger.New("planner"),
		metrics: obs.NewMetrics(),
		printer: report.NewPrinter(cmd.OutOrStdout(), format, cfg.Location()),
	}

	ctx := obs.WithRunID(cmd.Context())
	cmd.SetContext(context.WithValue(ctx, appKey{}, a))
	return nil
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}

// openStore opens the configured persistent cache. It returns nil when caching is disabled.
func (a *app) openStore() (ports.DurationStoreInspector, string, error) {
	cfg := a.cfg
	if cfg.CacheDisable {
		return nil, "", nil
	}

	opts := cfg.StoreOptions()

	switch cfg.CacheBackend {
	case config.BackendSqlite:
		conn, err := db.OpenSqlite(cfg.CachePath)
		if err != nil {
			return nil, "", err
		}
		if err := cache.InitSchema(conn); err != nil {
			conn.Close()
			return nil, "", err
		}
		return cache.NewSqliteDurationStore(conn, opts), cfg.CachePath, nil

	case config.BackendPostgres:
		conn, err := db.Open(cfg.CacheDSN)
		if err != nil {
			return nil, "", err
		}
		if err := cache.InitSchema(conn); err != nil {
			conn.Close()
			return nil, "", err
		}
		return cache.NewSQLDurationStore(conn, opts, logger.New("cache")), "postgres", nil

	default:
		return cache.OpenFileDurationStore(cfg.CachePath, opts, logger.New("cache")), cfg.CachePath, nil
	}
}

// session is one planning run: a budgeted, cached oracle behind a Planner.
type session struct {
	*services.Planner
	cache *services.RouteCache
	store ports.DurationStoreInspector
}

func (a *app) newSession() (*session, error) {
	cfg := a.cfg
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	oracle, err := routes.NewGoogleRoutesOracle(cfg.APIKey, cfg.OracleOptions(logger.New("routes")))
	if err != nil {
		return nil, err
	}

	store, _, err := a.openStore()
	if err != nil {
		return nil, err
	}

	rc, err := services.NewRouteCache(oracle, services.RouteCacheOptions{
		Store:       store,
		Budget:      domain.NewCallBudget(cfg.MaxCallsPerRun),
		Location:    cfg.Location(),
		BucketWidth: cfg.BucketWidth(),
		Metrics:     a.metrics,
		Logger:      logger.New("route-cache"),
	})
	if err != nil {
		closeStore(store)
		return nil, err
	}

	planner, err := services.NewPlanner(rc, cfg.Route(), services.PlannerOptions{
		Location: cfg.Location(),
		Logger:   logger.New("planner"),
	})
	if err != nil {
		closeStore(store)
		return nil, err
	}

	return &session{Planner: planner, cache: rc, store: store}, nil
}

func closeStore(s ports.DurationStoreInspector) {
	if s != nil {
		_ = s.Close()
	}
}

// finish persists the cache, writes metrics and releases the store.
// It still flushes after an interrupt.
func (a *app) finish(ctx context.Context, s *session) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error

	if err := s.cache.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	a.log.Infof("oracle calls used=%d remaining=%d", s.cache.Used(), s.cache.Remaining())

	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfilePath); err != nil {
		errs = append(errs, err)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	return errors.Join(errs...)
}
