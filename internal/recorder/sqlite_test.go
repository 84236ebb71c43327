package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DealSentinel/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func count(t *testing.T, r *SQLiteRecorder, table string) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteRecorderWritesEvents(t *testing.T) {
	r := openTestRecorder(t)

	cpp := 1.67
	d := &model.StoredDeal{
		Key:  "flight_MSP_CUN_2026-03-27_Delta_flight_award",
		Kind: model.DealOffer,
		Offer: &model.AwardFlight{
			Flight: model.Flight{
				Origin: "MSP", Destination: "CUN",
				DepartureDate: model.NewDate(2026, time.March, 27),
				ReturnDate:    model.NewDate(2026, time.April, 3),
			},
			OfferMeta:   model.OfferMeta{Status: model.TierGood, Metrics: model.Metrics{CPP: &cpp, TotalValue: 1920}},
			PricePoints: 25000,
		},
	}
	require.NoError(t, r.RecordEvaluation(EvaluationFromDeal(d)))
	require.NoError(t, r.RecordAlert(&AlertEvent{Key: d.Key, Status: model.TierGood, Outcome: "sent"}))
	require.NoError(t, r.RecordExpiry(&ExpiryEvent{Expired: 3, OlderThanDays: 7}))

	require.Equal(t, 1, count(t, r, "evaluations"))
	require.Equal(t, 1, count(t, r, "alerts"))
	require.Equal(t, 1, count(t, r, "expiries"))

	var (
		kind   string
		status string
		got    float64
	)
	require.NoError(t, r.db.QueryRow("SELECT kind, status, cpp_value FROM evaluations").Scan(&kind, &status, &got))
	require.Equal(t, "flight_award", kind)
	require.Equal(t, "good", status)
	require.InDelta(t, 1.67, got, 1e-9)
}

func TestRecorderReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	r, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.RecordExpiry(&ExpiryEvent{Expired: 1, OlderThanDays: 7}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 1, count(t, r, "expiries"))
}

type failingRecorder struct{ NoopRecorder }

func (failingRecorder) RecordAlert(*AlertEvent) error { return errors.New("disk full") }

func TestAlertObserverSwallowsErrors(t *testing.T) {
	r := openTestRecorder(t)
	obs := NewAlertObserver(r, nil)
	obs.AlertSent("k", model.TierExcellent)
	obs.AlertSuppressed("k", "quiet_hours")
	require.Equal(t, 2, count(t, r, "alerts"))

	NewAlertObserver(&failingRecorder{}, nil).AlertSent("k", model.TierGood)
}
