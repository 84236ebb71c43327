// Package alert decides whether a stored deal should be announced and keeps
// the throttle ledger current.
package alert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"DealSentinel/internal/model"
)

// RecentWindow is how long a sent alert suppresses repeats for the same key.
const RecentWindow = 24 * time.Hour

// Reason codes, stable enough for metric labels.
const (
	CodeForced         = "forced"
	CodeBelowThreshold = "below_threshold"
	CodeQuietHours     = "quiet_hours"
	CodeRecent         = "recently_alerted"
	CodeTriggered      = "triggered"
	CodeSendFailed     = "send_failed"
	CodeNoSender       = "no_sender"
)

// Ledger is the persisted throttle state, implemented by the deal store.
type Ledger interface {
	LastAlert(key string) (*model.AlertRecord, error)
	RecordAlert(key string, alertType model.QualityTier, at time.Time) error
}

// Sender delivers a rendered alert.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Observer is told about every alert outcome.
type Observer interface {
	AlertSent(key string, status model.QualityTier)
	AlertSuppressed(key, code string)
}

// Decision is the outcome of evaluating the alert rules for one deal.
type Decision struct {
	Send   bool
	Code   string
	Reason string
}

// Policy applies the rules in order: force, status threshold, quiet hours,
// then recency. Only RecordSuccessfulAlert changes state.
type Policy struct {
	ledger    Ledger
	quiet     Window
	loc       *time.Location
	now       func() time.Time
	format    func(*model.StoredDeal) string
	deferred  *Deferred
	observers []Observer
	logger    *slog.Logger
}

// Option customizes a Policy.
type Option func(*Policy)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// WithLocation sets the zone quiet hours are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(p *Policy) { p.loc = loc }
}

// WithFormatter renders the alert text for Dispatch.
func WithFormatter(fn func(*model.StoredDeal) string) Option {
	return func(p *Policy) { p.format = fn }
}

// WithDeferred sets the queue that holds quiet-hour suppressions.
func WithDeferred(d *Deferred) Option {
	return func(p *Policy) { p.deferred = d }
}

// WithObserver adds an outcome observer.
func WithObserver(o Observer) Option {
	return func(p *Policy) { p.observers = append(p.observers, o) }
}

// WithLogger sets the policy logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Policy) { p.logger = l }
}

// NewPolicy creates a policy over a ledger and quiet window.
func NewPolicy(ledger Ledger, quiet Window, opts ...Option) *Policy {
	p := &Policy{
		ledger:   ledger,
		quiet:    quiet,
		loc:      time.Local,
		now:      time.Now,
		format:   DefaultFormat,
		deferred: NewDeferred(RecentWindow),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Deferred returns the queue of quiet-hour suppressions.
func (p *Policy) Deferred() *Deferred { return p.deferred }

// ShouldAlert reports whether to send and why.
func (p *Policy) ShouldAlert(key string, status model.QualityTier, force, ignoreQuietHours bool) (bool, string) {
	d := p.Decide(key, status, force, ignoreQuietHours)
	return d.Send, d.Reason
}

// Decide evaluates the rules and returns the full decision. A ledger read
// failure counts as "not recently alerted".
func (p *Policy) Decide(key string, status model.QualityTier, force, ignoreQuietHours bool) Decision {
	if force {
		return Decision{Send: true, Code: CodeForced, Reason: "Forced alert"}
	}
	if !status.Alertable() {
		return Decision{Code: CodeBelowThreshold, Reason: fmt.Sprintf("Deal status '%s' below alert threshold", status)}
	}
	now := p.now()
	if !ignoreQuietHours && p.quiet.Contains(now.In(p.loc)) {
		return Decision{Code: CodeQuietHours, Reason: "Quiet hours - alert queued"}
	}
	rec, err := p.ledger.LastAlert(key)
	if err != nil {
		p.logger.Warn("alert ledger read failed", "key", key, "error", err)
	}
	if rec != nil && !rec.LastAlert.IsZero() && now.Sub(rec.LastAlert) < RecentWindow {
		return Decision{Code: CodeRecent, Reason: "Already alerted for this deal in last 24 hours"}
	}
	return Decision{Send: true, Code: CodeTriggered, Reason: fmt.Sprintf("Alert triggered for %s deal", status)}
}

// RecordSuccessfulAlert stamps the ledger after a delivered alert.
func (p *Policy) RecordSuccessfulAlert(key string, status model.QualityTier) error {
	return p.ledger.RecordAlert(key, status, p.now())
}

// Dispatch decides, renders, sends and records one alert. The ledger is only
// updated when the sender succeeds. It reports whether an alert went out.
func (p *Policy) Dispatch(ctx context.Context, deal *model.StoredDeal, sender Sender, force bool) (bool, error) {
	status := deal.Status()
	d := p.Decide(deal.Key, status, force, false)
	if !d.Send {
		if d.Code == CodeQuietHours {
			p.deferred.Add(deal.Key)
		}
		p.logger.Debug("alert skipped", "key", deal.Key, "reason", d.Reason)
		p.suppressed(deal.Key, d.Code)
		return false, nil
	}

	text := p.format(deal)
	if sender == nil {
		p.logger.Info("alert not delivered, no sender configured", "key", deal.Key, "text", text)
		p.suppressed(deal.Key, CodeNoSender)
		return false, nil
	}
	if err := sender.Send(ctx, text); err != nil {
		p.suppressed(deal.Key, CodeSendFailed)
		return false, fmt.Errorf("send alert %s: %w", deal.Key, err)
	}
	p.deferred.Remove(deal.Key)
	for _, o := range p.observers {
		o.AlertSent(deal.Key, status)
	}
	if err := p.RecordSuccessfulAlert(deal.Key, status); err != nil {
		return true, fmt.Errorf("record alert %s: %w", deal.Key, err)
	}
	p.logger.Info("alert sent", "key", deal.Key, "status", status)
	return true, nil
}

// Format renders a deal with the configured formatter.
func (p *Policy) Format(d *model.StoredDeal) string { return p.format(d) }

// FlushDeferred retries queued keys once quiet hours are over. Deals that
// were deleted or no longer qualify are dropped from the queue.
func (p *Policy) FlushDeferred(ctx context.Context, lookup func(key string) (*model.StoredDeal, error), sender Sender) (int, error) {
	if p.quiet.Contains(p.now().In(p.loc)) {
		return 0, nil
	}
	sent := 0
	for _, key := range p.deferred.Keys() {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		deal, err := lookup(key)
		if err != nil {
			return sent, fmt.Errorf("lookup %s: %w", key, err)
		}
		if deal == nil {
			p.deferred.Remove(key)
			continue
		}
		ok, err := p.Dispatch(ctx, deal, sender, false)
		if err != nil {
			p.logger.Warn("deferred alert failed", "key", key, "error", err)
			continue
		}
		if ok {
			sent++
		} else {
			p.deferred.Remove(key)
		}
	}
	return sent, nil
}

func (p *Policy) suppressed(key, code string) {
	for _, o := range p.observers {
		o.AlertSuppressed(key, code)
	}
}

// DefaultFormat is a one-line alert used when no formatter is configured.
func DefaultFormat(d *model.StoredDeal) string {
	dest := d.Destination()
	if dest == "" {
		dest = "Unknown"
	}
	return fmt.Sprintf("🔥 %s Travel Deal: %s (%s)", strings.ToUpper(string(d.Status())), dest, d.Key)
}
