package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"DealSentinel/internal/model"
	"DealSentinel/internal/store"
	"DealSentinel/internal/valuation"
)

func newTestServer(t *testing.T) (*store.Store, http.Handler) {
	t.Helper()
	st := store.New(store.NewMemoryBackend())
	t.Cleanup(func() { _ = st.Close() })
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("deals_expired_total 0\n"))
	})
	return st, New(st, valuation.New(model.DefaultValueConfig()), metrics, nil).Handler()
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func putFlight(t *testing.T, st *store.Store, status model.QualityTier, price float64) string {
	t.Helper()
	key, err := st.Put(&model.CashFlight{
		Flight: model.Flight{
			Origin: "MSP", Destination: "CUN",
			DepartureDate: model.NewDate(2026, time.March, 27),
			ReturnDate:    model.NewDate(2026, time.April, 3),
			Airline:       "Delta",
		},
		OfferMeta: model.OfferMeta{FoundAt: time.Now(), Status: status},
		PriceCash: price,
	})
	require.NoError(t, err)
	return key
}

func TestHealthAndMetrics(t *testing.T) {
	_, h := newTestServer(t)
	code, body := get(t, h, "/health")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", gjson.Get(body, "status").String())

	code, body = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "deals_expired_total")
}

func TestListDeals(t *testing.T) {
	st, h := newTestServer(t)
	putFlight(t, st, model.TierExcellent, 1300)

	code, body := get(t, h, "/v1/deals")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, int64(1), gjson.Get(body, "count").Int())

	code, body = get(t, h, "/v1/deals?status=poor")
	require.Equal(t, http.StatusOK, code)
	require.Zero(t, gjson.Get(body, "count").Int())
	require.True(t, gjson.Get(body, "deals").IsArray())

	code, _ = get(t, h, "/v1/deals?status=bogus")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestGetDeal(t *testing.T) {
	st, h := newTestServer(t)
	key := putFlight(t, st, model.TierGood, 1300)
	require.NoError(t, st.SetBaseline("MSP", "CUN", "2026-03", 2000))

	code, body := get(t, h, "/v1/deals/"+key)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, key, gjson.Get(body, "deal.key").String())
	require.InDelta(t, 35.0, gjson.Get(body, "discount_vs_baseline_pct").Float(), 0.001)

	code, body = get(t, h, "/v1/deals/missing")
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, gjson.Get(body, "error").String(), "missing")
}

func TestHistory(t *testing.T) {
	st, h := newTestServer(t)
	putFlight(t, st, model.TierGood, 2000)
	putFlight(t, st, model.TierGood, 1800)

	code, body := get(t, h, "/v1/history/MSP-CUN-2026-03")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, int64(2), gjson.Get(body, "stats.observations").Int())
	require.InDelta(t, 1800.0, gjson.Get(body, "stats.lowest").Float(), 0.001)

	code, _ = get(t, h, "/v1/history/MSP-PUJ-2026-03")
	require.Equal(t, http.StatusNotFound, code)
}

func TestCompareAndSummary(t *testing.T) {
	st, h := newTestServer(t)
	code, body := get(t, h, "/v1/compare")
	require.Equal(t, http.StatusOK, code)
	require.True(t, gjson.Get(body, "empty").Bool())

	start, end := model.NewDate(2026, time.March, 27), model.NewDate(2026, time.April, 3)
	_, err := st.PutPackage(&model.TripPackage{
		Destination: "CUN", StartDate: start, EndDate: end,
		Hotel: &model.CashHotel{
			Stay:           model.Stay{Destination: "CUN", PropertyName: "Ziva", CheckIn: start, CheckOut: end},
			TotalPriceCash: 5600,
		},
	})
	require.NoError(t, err)

	code, body = get(t, h, "/v1/compare")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "CUN", gjson.Get(body, "best_value").String())

	code, body = get(t, h, "/v1/summary")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, int64(1), gjson.Get(body, "total_deals").Int())
}
