package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"DealSentinel/internal/model"
)

func TestRegistryCounts(t *testing.T) {
	r := NewRegistry()
	r.ObserveEvaluation("flight_award", model.TierGood)
	r.ObserveEvaluation("flight_award", model.TierGood)
	r.AlertSent("k", model.TierGood)
	r.AlertSuppressed("k", "quiet_hours")
	r.ObserveExpired(3)
	r.ObserveCorruption("deals")

	require.InDelta(t, 2, testutil.ToFloat64(r.Evaluated.WithLabelValues("flight_award", "good")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(r.AlertsSent), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(r.AlertsSuppressed.WithLabelValues("quiet_hours")), 1e-9)
	require.InDelta(t, 3, testutil.ToFloat64(r.Expired), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(r.Corruptions.WithLabelValues("deals")), 1e-9)
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.ObserveExpired(1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "deals_expired_total 1")
}
