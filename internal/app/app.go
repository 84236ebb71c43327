// Package app assembles the deal store, valuation engine, alert policy and
// their optional sinks from a loaded Config.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"

	"DealSentinel/internal/alert"
	"DealSentinel/internal/config"
	"DealSentinel/internal/metrics"
	"DealSentinel/internal/model"
	"DealSentinel/internal/notifier"
	"DealSentinel/internal/recorder"
	"DealSentinel/internal/store"
	"DealSentinel/internal/valuation"
)

// App holds the wired components. Sender is nil when Telegram is not
// configured. Lock is set only for the file backend, whose snapshots may be
// rewritten by more than one process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *store.Store
	Engine   *valuation.Engine
	Metrics  *metrics.Registry
	Recorder recorder.Recorder
	Notifier *notifier.TelegramNotifier
	Sender   alert.Sender
	Policy   *alert.Policy
	Lock     *store.DirLock
}

// NewLogger returns a colored slog logger at the given level name.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: lvl, TimeFormat: "15:04:05"}))
}

// OpenBackend opens the storage backend named by the config.
func OpenBackend(cfg *config.Config, reg *metrics.Registry, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return store.NewMemoryBackend(), nil
	case "pebble":
		return store.NewPebbleBackend(cfg.Storage.DataDir)
	case "file", "":
		return store.NewFileBackend(cfg.Storage.DataDir,
			store.WithFileLogger(logger),
			store.WithCorruptionHook(reg.ObserveCorruption))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// New wires every component. The caller must Close the App.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	reg := metrics.NewRegistry()

	backend, err := OpenBackend(cfg, reg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	st := store.New(backend,
		store.WithLogger(logger),
		store.WithRecordCorruptionHook(reg.ObserveCorruption))

	engine := valuation.New(cfg.ValueConfig(),
		valuation.WithEstimator(valuation.BaselineTableEstimator{Lookup: st.LookupBaseline}),
		valuation.WithObserver(reg),
		valuation.WithLogger(logger))

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", "error", err)
		} else {
			rec = sr
		}
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Engine:   engine,
		Metrics:  reg,
		Recorder: rec,
	}
	if cfg.Storage.Backend == "file" || cfg.Storage.Backend == "" {
		if a.Lock, err = store.NewDirLock(cfg.Storage.DataDir, os.Stderr); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	if cfg.TelegramEnabled() {
		a.Notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy,
			notifier.WithLogger(logger))
		a.Sender = a.Notifier
	}

	quiet, err := alert.ParseWindow(cfg.Alerts.QuietStart, cfg.Alerts.QuietEnd)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("quiet hours: %w", err)
	}
	a.Policy = alert.NewPolicy(st, quiet,
		alert.WithLocation(cfg.Location()),
		alert.WithFormatter(notifier.FormatDeal),
		alert.WithObserver(reg),
		alert.WithObserver(recorder.NewAlertObserver(rec, logger)),
		alert.WithLogger(logger))
	return a, nil
}

// Save evaluates an offer against an optional cash comparison price, stores
// it and records the evaluation.
func (a *App) Save(o model.Offer, baseline *float64) (*model.StoredDeal, error) {
	evaluated, err := a.Engine.Evaluate(o, baseline)
	if err != nil {
		return nil, err
	}
	key, err := a.Store.Put(evaluated)
	if err != nil {
		return nil, err
	}
	return a.recordStored(key)
}

// SavePackage evaluates a package against an optional baseline and stores it.
func (a *App) SavePackage(p *model.TripPackage, baseline *float64) (*model.StoredDeal, error) {
	evaluated, err := a.Engine.EvaluatePackage(p, baseline)
	if err != nil {
		return nil, err
	}
	key, err := a.Store.PutPackage(evaluated)
	if err != nil {
		return nil, err
	}
	return a.recordStored(key)
}

func (a *App) recordStored(key string) (*model.StoredDeal, error) {
	d, err := a.Store.Get(key)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("deal %s vanished after write", key)
	}
	if err := a.Recorder.RecordEvaluation(recorder.EvaluationFromDeal(d)); err != nil {
		a.Logger.Warn("record evaluation failed", "key", key, "error", err)
	}
	return d, nil
}

// Close releases the store and the recorder.
func (a *App) Close() error {
	return errors.Join(a.Store.Close(), a.Recorder.Close())
}
