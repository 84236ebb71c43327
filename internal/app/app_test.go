package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"DealSentinel/internal/config"
	"DealSentinel/internal/model"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Storage.Backend = backend
	cfg.Storage.DataDir = t.TempDir()
	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "", ""
	return cfg
}

func TestNewWithoutTelegram(t *testing.T) {
	a, err := New(testConfig(t, "memory"), NewLogger("error"))
	require.NoError(t, err)
	defer a.Close()

	require.Nil(t, a.Notifier)
	require.Nil(t, a.Sender)
	require.NotNil(t, a.Policy)
	require.Nil(t, a.Lock)
}

func TestSaveEvaluatesAndStores(t *testing.T) {
	cfg := testConfig(t, "file")
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "deals.db")
	a, err := New(cfg, NewLogger("error"))
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Lock)

	require.NoError(t, a.Store.SetBaseline("MSP", "CUN", "2026-03", 2000))
	d, err := a.Save(&model.CashFlight{
		Flight: model.Flight{
			Origin: "MSP", Destination: "CUN",
			DepartureDate: model.NewDate(2026, time.March, 27),
			ReturnDate:    model.NewDate(2026, time.April, 3),
			Airline:       "Delta",
		},
		OfferMeta: model.OfferMeta{FoundAt: time.Now()},
		PriceCash: 1300,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, model.TierExcellent, d.Status())
	require.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.Evaluated.WithLabelValues("flight_cash", "excellent")))
}

func TestUnknownBackend(t *testing.T) {
	_, err := New(testConfig(t, "tape"), NewLogger("error"))
	require.Error(t, err)
}
