package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/bootstrap"
	"github.com/example/cleanops-scheduler/internal/config"
	httptransport "github.com/example/cleanops-scheduler/internal/http"
	"github.com/example/cleanops-scheduler/internal/trigger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("cleanops exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	services := bootstrap.NewServices(store, cfg, logger)
	runner := bootstrap.NewRunner(services.Recurring, store, cfg, logger)

	scheduler, err := trigger.NewScheduler(runner, cfg.ProcessSchedule, cfg.Location, cfg.LeaseTTL, logger)
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	routerCfg := httptransport.RouterConfig{
		Availability: httptransport.NewAvailabilityHandler(services.Availability, logger),
		Calendar:     httptransport.NewCalendarHandler(services.Calendar, logger),
		Recurring:    httptransport.NewRecurringTaskHandler(services.Recurring, nil, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}
	if cfg.TriggerEnabled() {
		verifier, err := application.NewTokenVerifier(cfg.TriggerTokenHash)
		if err != nil {
			return fmt.Errorf("parse trigger token hash: %w", err)
		}
		routerCfg.Recurring = httptransport.NewRecurringTaskHandler(services.Recurring, runner, logger)
		routerCfg.TriggerMiddleware = []func(http.Handler) http.Handler{
			httptransport.RateLimit(httptransport.NewPerMinuteLimiter(cfg.TriggerRatePerMinute), logger),
			httptransport.RequireTriggerToken(verifier, logger),
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httptransport.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop batch trigger", "error", err)
		}
	}()

	logger.Info("cleanops API listening",
		"addr", server.Addr,
		"storage", cfg.Storage,
		"schedule", cfg.ProcessSchedule,
		"manual_trigger", cfg.TriggerEnabled(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}
