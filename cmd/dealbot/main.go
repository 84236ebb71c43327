package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"DealSentinel/internal/app"
	"DealSentinel/internal/config"
	"DealSentinel/internal/scheduler"
	"DealSentinel/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config validation", "error", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("DealSentinel starting...")

	if err := run(ctx, cfg, log); err != nil {
		log.Error("application failed", "error", err)
		os.Exit(1)
	}
	log.Info("DealSentinel stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	deps := scheduler.Deps{
		Store:           a.Store,
		Engine:          a.Engine,
		Policy:          a.Policy,
		Sender:          a.Sender,
		Recorder:        a.Recorder,
		Expiries:        a.Metrics,
		ExpireAfterDays: cfg.Schedule.ExpireAfterDays,
		Location:        cfg.Location(),
		Logger:          log,
	}
	if a.Lock != nil {
		deps.DataLock = a.Lock
	}
	sched := scheduler.NewScheduler(ctx, deps)
	if err := sched.RegisterAll(cfg.Schedule.ExpiryCron, cfg.Schedule.FlushCron, cfg.Schedule.SummaryCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	g, ctx := errgroup.WithContext(ctx)

	if a.Notifier != nil {
		g.Go(func() error {
			a.Notifier.StartPolling(ctx, sched.HandleCommand)
			return nil
		})
		log.Info("telegram polling started")
	} else {
		log.Warn("telegram not configured, alerts will only be logged")
	}

	srv := server.New(a.Store, a.Engine, a.Metrics.Handler(), log)
	g.Go(func() error { return srv.Run(ctx, cfg.Server.Addr) })

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, running expiry and alert sweep now")
		g.Go(func() error {
			if _, err := sched.RunExpiryNow(); err != nil {
				log.Error("expiry sweep failed", "error", err)
			}
			if _, err := sched.RunAlertsNow(); err != nil {
				log.Error("alert sweep failed", "error", err)
			}
			return nil
		})
	}

	log.Info("DealSentinel is running. Press Ctrl+C to stop.")
	return g.Wait()
}
