package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"DealSentinel/internal/alert"
	"DealSentinel/internal/compare"
	"DealSentinel/internal/model"
	"DealSentinel/internal/notifier"
	"DealSentinel/internal/recorder"
	"DealSentinel/internal/store"
	"DealSentinel/internal/valuation"
)

// ExpiryObserver is told how many deals each sweep expired.
type ExpiryObserver interface {
	ObserveExpired(n int)
}

// Locker guards store writes shared with other processes.
type Locker interface {
	Lock() error
	Unlock() error
}

// Deps are the collaborators the scheduled jobs run against. Sender, Recorder,
// Expiries and DataLock are optional.
type Deps struct {
	Store           *store.Store
	Engine          *valuation.Engine
	Policy          *alert.Policy
	Sender          alert.Sender
	Recorder        recorder.Recorder
	Expiries        ExpiryObserver
	DataLock        Locker
	ExpireAfterDays int
	Location        *time.Location
	Logger          *slog.Logger
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron *cron.Cron
	Deps
	Ctx context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, deps Deps) *Scheduler {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.ExpireAfterDays <= 0 {
		deps.ExpireAfterDays = store.DefaultExpiryDays
	}
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds(), cron.WithLocation(deps.Location)),
		Deps: deps,
		Ctx:  ctx,
	}
}

// RegisterAll registers the expiry sweep, the alert flush and the daily summary.
func (s *Scheduler) RegisterAll(expiryCron, flushCron, summaryCron string) error {
	if _, err := s.Cron.AddFunc(expiryCron, s.expiryTask); err != nil {
		return fmt.Errorf("register expiry task: %w", err)
	}
	if _, err := s.Cron.AddFunc(flushCron, s.alertTask); err != nil {
		return fmt.Errorf("register alert task: %w", err)
	}
	if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunExpiryNow runs the expiry sweep immediately and returns the count.
func (s *Scheduler) RunExpiryNow() (int, error) {
	var n int
	err := s.withDataLock(func() error {
		var err error
		n, err = s.Store.ExpireOlderThan(s.ExpireAfterDays)
		return err
	})
	if err != nil {
		return 0, err
	}
	if s.Expiries != nil {
		s.Expiries.ObserveExpired(n)
	}
	if err := s.Recorder.RecordExpiry(&recorder.ExpiryEvent{Expired: n, OlderThanDays: s.ExpireAfterDays}); err != nil {
		s.Logger.Error("record expiry failed", "error", err)
	}
	return n, nil
}

func (s *Scheduler) expiryTask() {
	s.Logger.Info("running expiry sweep")
	if _, err := s.RunExpiryNow(); err != nil {
		s.Logger.Error("expiry sweep failed", "error", err)
	}
}

// RunAlertsNow retries deferred alerts, then announces every GOOD or
// EXCELLENT deal that changed since it was last alerted.
func (s *Scheduler) RunAlertsNow() (int, error) {
	var sent int
	err := s.withDataLock(func() error {
		var err error
		sent, err = s.alertSweep()
		return err
	})
	return sent, err
}

func (s *Scheduler) alertSweep() (int, error) {
	sent, err := s.Policy.FlushDeferred(s.Ctx, s.Store.Get, s.Sender)
	if err != nil {
		return sent, fmt.Errorf("flush deferred: %w", err)
	}
	deals, err := s.Store.List("")
	if err != nil {
		return sent, err
	}
	for _, d := range deals {
		if !d.Status().Alertable() {
			continue
		}
		rec, err := s.Store.LastAlert(d.Key)
		if err != nil {
			return sent, err
		}
		if rec != nil && !rec.LastAlert.Before(d.UpdatedAt) {
			continue
		}
		ok, err := s.Policy.Dispatch(s.Ctx, d, s.Sender, false)
		if err != nil {
			s.Logger.Warn("alert failed", "key", d.Key, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// withDataLock runs fn holding DataLock, when one is set.
func (s *Scheduler) withDataLock(fn func() error) error {
	if s.DataLock == nil {
		return fn()
	}
	if err := s.DataLock.Lock(); err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer func() {
		if err := s.DataLock.Unlock(); err != nil {
			s.Logger.Warn("unlock data dir failed", "error", err)
		}
	}()
	return fn()
}

func (s *Scheduler) alertTask() {
	n, err := s.RunAlertsNow()
	if err != nil {
		s.Logger.Error("alert task failed", "error", err)
		return
	}
	if n > 0 {
		s.Logger.Info("alerts sent", "count", n)
	}
}

func (s *Scheduler) summaryTask() {
	s.Logger.Info("running daily summary")
	text, err := s.summaryText()
	if err != nil {
		s.Logger.Error("daily summary failed", "error", err)
		return
	}
	s.trySend(text)
}

func (s *Scheduler) summaryText() (string, error) {
	sum, err := s.Store.Summary()
	if err != nil {
		return "", err
	}
	return notifier.FormatSummary(sum, time.Now().In(s.Location)), nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	cmd, _, _ := strings.Cut(strings.TrimSpace(command), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	switch cmd {
	case "/deals":
		return s.listReply("Tracked deals", "")
	case "/excellent":
		return s.listReply("Excellent deals", model.TierExcellent)
	case "/compare":
		deals, err := s.Store.List("")
		if err != nil {
			return "❌ " + err.Error()
		}
		return notifier.FormatRanking(compare.Rank(s.Engine, compare.Candidates(deals)))
	case "/summary":
		text, err := s.summaryText()
		if err != nil {
			return "❌ " + err.Error()
		}
		return text
	default:
		return "Available commands:\n• /deals\n• /excellent\n• /compare\n• /summary"
	}
}

func (s *Scheduler) listReply(title string, status model.QualityTier) string {
	deals, err := s.Store.List(status)
	if err != nil {
		return "❌ " + err.Error()
	}
	return notifier.FormatDealList(title, deals)
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		s.Logger.Info("notification not delivered, no sender configured", "text", text)
		return
	}
	if err := s.Sender.Send(s.Ctx, text); err != nil {
		s.Logger.Error("send notification failed", "error", err)
	}
}
