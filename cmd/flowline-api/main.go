package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edvin/flowline/internal/api"
	"github.com/edvin/flowline/internal/approval"
	"github.com/edvin/flowline/internal/assign"
	"github.com/edvin/flowline/internal/config"
	"github.com/edvin/flowline/internal/core"
	"github.com/edvin/flowline/internal/db"
	"github.com/edvin/flowline/internal/engine"
	"github.com/edvin/flowline/internal/logging"
	"github.com/edvin/flowline/internal/metrics"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("flowline-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	services := core.NewServices(pool)

	assigner := assign.New(services.Rule, logger)
	sender := core.NewLogEmailSender(logger)
	registry := engine.NewDefaultRegistry(engine.Handlers{
		Tasks:         services.Task,
		Notifications: services.Notification,
		Approvals:     services.Approval,
		Assigner:      assigner,
		Email:         sender,
		Updater:       services.DataUpdate,
	})

	eng := engine.New(services.Workflow, registry, logger,
		engine.WithStepTimeout(time.Duration(cfg.StepTimeoutMinutes)*time.Minute),
		engine.WithSweepInterval(time.Duration(cfg.DelaySweepSeconds)*time.Second),
	)
	gate := approval.NewGate(services.Approval, eng, logger)

	srv := api.NewServer(logger, pool, services, eng, assigner, gate)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := metrics.NewServer(cfg.MetricsListenAddr)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Resume sweeper for durable DELAY steps.
	g.Go(func() error {
		return eng.Run(gctx)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info().Msg("shutting down")
	case <-gctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	metricsServer.Shutdown(shutdownCtx)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
