package recorder

import (
	"io"
	"log/slog"

	"DealSentinel/internal/model"
)

// EvaluationEvent is one valuation result that was persisted.
type EvaluationEvent struct {
	Key         string
	Kind        string
	Destination string
	Status      model.QualityTier
	CPP         *float64
	TotalValue  float64
	TotalCash   float64
}

// AlertEvent is one alert decision. Outcome is "sent" or a suppression code.
type AlertEvent struct {
	Key     string
	Status  model.QualityTier
	Outcome string
}

// ExpiryEvent records an expiry sweep.
type ExpiryEvent struct {
	Expired       int
	OlderThanDays int
}

// Recorder keeps an append-only audit log for later analysis.
type Recorder interface {
	RecordEvaluation(evt *EvaluationEvent) error
	RecordAlert(evt *AlertEvent) error
	RecordExpiry(evt *ExpiryEvent) error
	Close() error
}

// EvaluationFromDeal builds the event for a stored deal.
func EvaluationFromDeal(d *model.StoredDeal) *EvaluationEvent {
	evt := &EvaluationEvent{
		Key:         d.Key,
		Kind:        d.TypeName(),
		Destination: d.Destination(),
		Status:      d.Status(),
	}
	switch {
	case d.Offer != nil:
		m := d.Offer.Common().Metrics
		evt.CPP = m.CPP
		evt.TotalValue = m.TotalValue
		evt.TotalCash = model.CashPrice(d.Offer)
	case d.Package != nil:
		evt.TotalValue = d.Package.Totals.TotalValue
		evt.TotalCash = d.Package.Totals.TotalCashCost
	}
	return evt
}

// AlertObserver writes alert outcomes to a Recorder. Write failures are
// logged and otherwise ignored.
type AlertObserver struct {
	rec    Recorder
	logger *slog.Logger
}

func NewAlertObserver(rec Recorder, logger *slog.Logger) *AlertObserver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AlertObserver{rec: rec, logger: logger}
}

func (o *AlertObserver) AlertSent(key string, status model.QualityTier) {
	o.record(&AlertEvent{Key: key, Status: status, Outcome: "sent"})
}

func (o *AlertObserver) AlertSuppressed(key, code string) {
	o.record(&AlertEvent{Key: key, Outcome: code})
}

func (o *AlertObserver) record(evt *AlertEvent) {
	if err := o.rec.RecordAlert(evt); err != nil {
		o.logger.Warn("record alert failed", "key", evt.Key, "error", err)
	}
}
