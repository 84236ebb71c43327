package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"DealSentinel/internal/compare"
	"DealSentinel/internal/model"
	"DealSentinel/internal/store"
)

func testNotifier(url string) *TelegramNotifier {
	return NewTelegramNotifier("TOKEN", "42", "",
		WithAPIBase(url),
		WithRetry(2, time.Millisecond, 5*time.Millisecond))
}

func TestSendPostsMessage(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		got = string(body)
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))
	require.Equal(t, "42", gjson.Get(got, "chat_id").String())
	require.Equal(t, "<b>hi</b>", gjson.Get(got, "text").String())
	require.Equal(t, "HTML", gjson.Get(got, "parse_mode").String())
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Send(context.Background(), "x"))
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).Send(context.Background(), "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")
}

func TestPollDispatchesCommands(t *testing.T) {
	var replies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			require.Equal(t, "7", r.URL.Query().Get("offset"))
			_, _ = w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /summary "}},
				{"update_id":8,"edited_message":{"text":"ignored"}}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			body, _ := io.ReadAll(r.Body)
			replies = append(replies, gjson.GetBytes(body, "text").String())
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	var commands []string
	next, err := n.poll(context.Background(), 7, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		return "reply to " + cmd
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), next)
	require.Equal(t, []string{"/summary"}, commands)
	require.Equal(t, []string{"reply to /summary"}, replies)
}

func TestStartPollingStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		testNotifier(srv.URL).StartPolling(ctx, func(context.Context, string) string { return "" })
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestFormatOffer(t *testing.T) {
	cpp := 1.92
	msg := FormatOffer(&model.AwardFlight{
		Flight: model.Flight{
			Origin: "MSP", Destination: "CUN",
			DepartureDate: model.NewDate(2026, time.March, 27),
			ReturnDate:    model.NewDate(2026, time.April, 3),
			Airline:       "Delta",
		},
		OfferMeta: model.OfferMeta{
			Status:  model.TierGood,
			Metrics: model.Metrics{CPP: &cpp, Advisories: []string{"Delta upgrade potential: +$384 expected value"}},
		},
		PricePoints:    25000,
		PointsCurrency: model.CurrencyDeltaSkyMiles,
		TaxesFees:      5.6,
	})
	require.Contains(t, msg, "FLIGHT DEAL</b> - GOOD")
	require.Contains(t, msg, "MSP → CUN")
	require.Contains(t, msg, "25,000 delta_skymiles/person")
	require.Contains(t, msg, "1.92 cents/point")
	require.Contains(t, msg, "upgrade potential")
	require.Contains(t, msg, "Manual entry")

	hotel := FormatOffer(&model.AllInclusiveHotel{CashHotel: model.CashHotel{
		Stay: model.Stay{
			Destination: "CUN", PropertyName: "Ziva <Resort>",
			CheckIn:  model.NewDate(2026, time.March, 27),
			CheckOut: model.NewDate(2026, time.April, 3),
		},
		TotalPriceCash: 5600,
	}})
	require.Contains(t, hotel, "ALL-INCLUSIVE")
	require.Contains(t, hotel, "Ziva &lt;Resort&gt;")
	require.Contains(t, hotel, "$5,600")
}

func TestFormatSummaryAndRanking(t *testing.T) {
	msg := FormatSummary(store.Summary{
		TotalDeals:    3,
		ByStatus:      map[model.QualityTier]int{model.TierGood: 2, model.TierExcellent: 1},
		ByDestination: map[string]int{"PUJ": 1, "CUN": 2},
		Excellent:     1,
		Good:          2,
	}, time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC))
	require.Contains(t, msg, "2026-02-10")
	require.Less(t, strings.Index(msg, "CUN"), strings.Index(msg, "PUJ"))
	require.Less(t, strings.Index(msg, "- excellent"), strings.Index(msg, "- good"))

	require.Equal(t, compare.EmptyMessage, FormatRanking(compare.Result{Empty: true, Message: compare.EmptyMessage}))

	ranked := FormatRanking(compare.Result{
		BestValue:  "PUJ",
		LowestCost: "CUN",
		Options: []compare.Option{{
			Rank: 1, Destination: "PUJ", Dates: "2026-03-27 - 2026-04-03",
			TotalCost: 12345, Status: model.TierExcellent, Pros: []string{"Strong value"},
		}},
	})
	require.Contains(t, ranked, "#1 PUJ")
	require.Contains(t, ranked, "$12,345")
	require.Contains(t, ranked, "✓ Strong value")
}

func TestMoney(t *testing.T) {
	for in, want := range map[float64]string{0: "0", 999.4: "999", 999.5: "1,000", 1234567: "1,234,567", 5600.2: "5,600"} {
		require.Equal(t, want, money(in))
	}
}
