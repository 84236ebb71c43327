package valuation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"DealSentinel/internal/model"
)

var (
	depart = model.NewDate(2026, time.March, 27)
	ret    = model.NewDate(2026, time.April, 3)
)

func ptr(v float64) *float64 { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCalculateCPP(t *testing.T) {
	tests := []struct {
		cash   float64
		points int64
		taxes  float64
		want   float64
	}{
		{800, 45000, 50, 1.67},
		{2000, 100000, 0, 2.0},
		{500, 0, 20, 0},
		{500, -10, 0, 0},
		{100, 3, 0, 3333.33},
	}
	for _, tt := range tests {
		if got := CalculateCPP(tt.cash, tt.points, tt.taxes); got != tt.want {
			t.Errorf("CalculateCPP(%v, %v, %v) = %v, want %v", tt.cash, tt.points, tt.taxes, got, tt.want)
		}
	}
}

func TestShouldUsePoints(t *testing.T) {
	ok, msg := ShouldUsePoints(800, 45000, 50, 1.0)
	if !ok || !strings.HasPrefix(msg, "YES - Excellent") {
		t.Errorf("got %v %q", ok, msg)
	}
	ok, msg = ShouldUsePoints(800, 45000, 50, 1.5)
	if !ok || !strings.HasPrefix(msg, "YES - Good") {
		t.Errorf("got %v %q", ok, msg)
	}
	ok, msg = ShouldUsePoints(300, 45000, 50, 1.0)
	if ok || !strings.HasSuffix(msg, "Pay cash.") {
		t.Errorf("got %v %q", ok, msg)
	}
}

func TestRegionTableEstimator(t *testing.T) {
	tests := []struct {
		name   string
		flight model.Flight
		family int
		want   float64
	}{
		{"caribbean nonstop", model.Flight{Destination: "CUN", Stops: 0}, 4, 400 * 1.2 * 4},
		{"europe business one stop", model.Flight{Destination: "FCO", Cabin: model.CabinBusiness, Stops: 1}, 2, 900 * 4 * 2},
		{"unknown default", model.Flight{Destination: "HNL", Stops: 1}, 1, 600},
		{"first class", model.Flight{Destination: "LIS", Cabin: model.CabinFirst, Stops: 2}, 1, 900 * 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegionTableEstimator{}.EstimateFlight(&tt.flight, tt.family)
			if !approx(got, tt.want) {
				t.Errorf("EstimateFlight = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBaselineTableEstimator(t *testing.T) {
	est := BaselineTableEstimator{
		Lookup: func(origin, dest, month string) (float64, bool) {
			if origin == "MSP" && dest == "CUN" && month == "2026-03" {
				return 2400, true
			}
			return 0, false
		},
	}
	f := model.Flight{Origin: "MSP", Destination: "CUN", DepartureDate: depart, Stops: 1}
	if got := est.EstimateFlight(&f, 4); got != 2400 {
		t.Errorf("table hit = %v, want 2400", got)
	}
	f.Destination = "PVR"
	if got := est.EstimateFlight(&f, 4); got != 450*4 {
		t.Errorf("fallback = %v, want %v", got, 450*4)
	}
}

func cashFlight(price float64) *model.CashFlight {
	return &model.CashFlight{
		Flight: model.Flight{
			Origin: "MSP", Destination: "CUN", DepartureDate: depart, ReturnDate: ret,
			Airline: "Sun Country", Cabin: model.CabinEconomy, Stops: 0,
		},
		PriceCash: price,
	}
}

func TestEvaluateFlight_CashTiers(t *testing.T) {
	e := New(model.DefaultValueConfig())
	// estimate for CUN nonstop, family of 4: 400 x 1.2 x 4 = 1920
	tests := []struct {
		price float64
		want  model.QualityTier
	}{
		{1300, model.TierExcellent},
		{1500, model.TierGood},
		{1900, model.TierAcceptable},
		{2100, model.TierPoor},
	}
	for _, tt := range tests {
		got, err := e.EvaluateFlight(cashFlight(tt.price), nil)
		if err != nil {
			t.Fatalf("EvaluateFlight(%v): %v", tt.price, err)
		}
		if got.Common().Status != tt.want {
			t.Errorf("price %v: status = %s, want %s", tt.price, got.Common().Status, tt.want)
		}
		if got.Common().Metrics.CPP != nil {
			t.Errorf("cash flight should have no CPP")
		}
	}
}

func TestEvaluateFlight_CashUsesBaseline(t *testing.T) {
	e := New(model.DefaultValueConfig())
	got, err := e.EvaluateFlight(cashFlight(1300), ptr(2000))
	if err != nil {
		t.Fatal(err)
	}
	if !approx(*got.Common().Metrics.DiscountPct, 35) {
		t.Errorf("discount = %v, want 35", *got.Common().Metrics.DiscountPct)
	}
	if got.Common().Status != model.TierExcellent {
		t.Errorf("status = %s, want excellent", got.Common().Status)
	}
}

func TestEvaluateFlight_Award(t *testing.T) {
	e := New(model.DefaultValueConfig())
	offer := &model.AwardFlight{
		Flight: model.Flight{
			Origin: "MSP", Destination: "CUN", DepartureDate: depart, ReturnDate: ret,
			Airline: "Delta", Cabin: model.CabinEconomy,
		},
		PricePoints:    25000,
		PointsCurrency: model.CurrencyDeltaSkyMiles,
	}
	got, err := e.EvaluateFlight(offer, ptr(2000))
	if err != nil {
		t.Fatal(err)
	}
	m := got.Common().Metrics
	// 2000 / (25000 x 4) x 100
	if m.CPP == nil || *m.CPP != 2.0 {
		t.Fatalf("CPP = %v, want 2.0", m.CPP)
	}
	if got.Common().Status != model.TierExcellent {
		t.Errorf("status = %s, want excellent", got.Common().Status)
	}
	if m.TotalValue != 2000 || m.SavingsVsCash != 2000 {
		t.Errorf("TotalValue/Savings = %v/%v", m.TotalValue, m.SavingsVsCash)
	}
	if len(m.Advisories) != 1 || !strings.Contains(m.Advisories[0], "+$400") {
		t.Errorf("advisories = %v", m.Advisories)
	}
	if offer.Status != "" || offer.Metrics.CPP != nil {
		t.Error("input offer was mutated")
	}
}

func TestEvaluateFlight_UnknownCurrencyFallsBack(t *testing.T) {
	e := New(model.DefaultValueConfig())
	offer := &model.AwardFlight{
		Flight:         model.Flight{Origin: "MSP", Destination: "CUN", DepartureDate: depart, ReturnDate: ret},
		PricePoints:    25000,
		PointsCurrency: "chase_ur",
	}
	got, err := e.EvaluateFlight(offer, ptr(1600))
	if err != nil {
		t.Fatalf("unknown currency must not fail: %v", err)
	}
	// 1.6cpp against default target 1.5
	if got.Common().Status != model.TierGood {
		t.Errorf("status = %s, want good", got.Common().Status)
	}
}

func TestThresholds(t *testing.T) {
	e := New(model.DefaultValueConfig())
	if got := e.Thresholds(model.CurrencyAmexMR); got.Min != 1.2 || got.Target != 2.0 {
		t.Errorf("amex_mr = %+v", got)
	}
	if got := e.Thresholds("chase_ur"); got != DefaultFlightThresholds {
		t.Errorf("unknown currency = %+v, want flight defaults", got)
	}
}

func TestEvaluateFlight_NoAdvisoryOutsideEconomy(t *testing.T) {
	e := New(model.DefaultValueConfig())
	f := cashFlight(3000)
	f.Airline = "delta"
	f.Cabin = model.CabinBusiness
	got, err := e.EvaluateFlight(f, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Common().Metrics.Advisories) != 0 {
		t.Errorf("unexpected advisory: %v", got.Common().Metrics.Advisories)
	}
}

func TestEvaluateFlight_RejectsNegativePrice(t *testing.T) {
	e := New(model.DefaultValueConfig())
	_, err := e.EvaluateFlight(cashFlight(-100), nil)
	var invalid *model.InvalidOfferError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOfferError, got %v", err)
	}
}

func allInclusive(total float64) *model.AllInclusiveHotel {
	return &model.AllInclusiveHotel{
		CashHotel: model.CashHotel{
			Stay: model.Stay{
				Destination: "CUN", PropertyName: "Hyatt Ziva Cancun",
				CheckIn: depart, CheckOut: ret,
			},
			TotalPriceCash: total,
		},
		IncludesMeals:  true,
		IncludesDrinks: true,
	}
}

func TestEvaluateHotel_AllInclusive(t *testing.T) {
	e := New(model.DefaultValueConfig())
	got, err := e.EvaluateHotel(allInclusive(5600), nil)
	if err != nil {
		t.Fatal(err)
	}
	ppn := got.Common().Metrics.PerPersonPerNight
	if ppn == nil || *ppn != 200 {
		t.Fatalf("per person per night = %v, want 200", ppn)
	}
	if got.Common().Status != model.TierExcellent {
		t.Errorf("status = %s, want excellent", got.Common().Status)
	}
}

func TestEvaluateHotel_NightlyBands(t *testing.T) {
	e := New(model.DefaultValueConfig())
	tests := []struct {
		nightly float64
		want    model.QualityTier
	}{
		{1000, model.TierExcellent},
		{1400, model.TierGood},
		{1800, model.TierAcceptable},
		{1801, model.TierPoor},
	}
	for _, tt := range tests {
		h := &model.CashHotel{
			Stay:              model.Stay{PropertyName: "Secrets", CheckIn: depart, CheckOut: ret},
			PricePerNightCash: tt.nightly,
		}
		got, err := e.EvaluateHotel(h, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got.Common().Status != tt.want {
			t.Errorf("nightly %v: status = %s, want %s", tt.nightly, got.Common().Status, tt.want)
		}
	}
}

func TestEvaluateHotel_Points(t *testing.T) {
	e := New(model.DefaultValueConfig())
	h := &model.PointsHotel{
		Stay:             model.Stay{PropertyName: "Conrad", CheckIn: depart, CheckOut: ret},
		TotalPricePoints: 300000,
		PointsCurrency:   model.CurrencyHilton,
	}

	got, err := e.EvaluateHotel(h, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Common().Status != model.TierAcceptable || *got.Common().Metrics.CPP != 0 {
		t.Errorf("without cash price: status %s cpp %v", got.Common().Status, *got.Common().Metrics.CPP)
	}

	// 7 x 300 = 2100 cash, 0.70cpp against hilton target 0.6 (excellent 0.78)
	h.PricePerNightCash = 300
	got, err = e.EvaluateHotel(h, nil)
	if err != nil {
		t.Fatal(err)
	}
	if *got.Common().Metrics.CPP != 0.7 || got.Common().Status != model.TierGood {
		t.Errorf("cpp %v status %s", *got.Common().Metrics.CPP, got.Common().Status)
	}
}

func TestEvaluatePackage_WorstTierWins(t *testing.T) {
	e := New(model.DefaultValueConfig())
	pkg := &model.TripPackage{
		Destination: "CUN",
		StartDate:   depart,
		EndDate:     ret,
		Flight:      cashFlight(1300),
		Hotel:       allInclusive(20000),
	}
	got, err := e.EvaluatePackage(pkg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Flight.Common().Status != model.TierExcellent {
		t.Fatalf("flight status = %s, want excellent", got.Flight.Common().Status)
	}
	if got.Hotel.Common().Status != model.TierPoor {
		t.Fatalf("hotel status = %s, want poor", got.Hotel.Common().Status)
	}
	if got.Status != model.TierPoor {
		t.Errorf("package status = %s, want poor", got.Status)
	}
	if got.Totals.TotalCashCost != 21300 {
		t.Errorf("TotalCashCost = %v, want 21300", got.Totals.TotalCashCost)
	}
	if !strings.Contains(got.Recommendation, "OVER BUDGET CEILING") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
	if !strings.Contains(got.Recommendation, "Total out-of-pocket: $21,300") {
		t.Errorf("recommendation total = %q", got.Recommendation)
	}
}

func TestEvaluatePackage_SavingsAndIdempotence(t *testing.T) {
	e := New(model.DefaultValueConfig())
	pkg := &model.TripPackage{
		Destination: "CUN",
		StartDate:   depart,
		EndDate:     ret,
		Flight: &model.AwardFlight{
			Flight: model.Flight{
				Origin: "MSP", Destination: "CUN", DepartureDate: depart, ReturnDate: ret,
				Airline: "Delta", Stops: 0,
			},
			PricePoints:    25000,
			PointsCurrency: model.CurrencyDeltaSkyMiles,
			TaxesFees:      50,
		},
		Hotel: allInclusive(5600),
	}
	first, err := e.EvaluatePackage(pkg, ptr(8000))
	if err != nil {
		t.Fatal(err)
	}
	// 4 x 50 taxes + 5600
	if first.Totals.TotalCashCost != 5800 {
		t.Fatalf("TotalCashCost = %v, want 5800", first.Totals.TotalCashCost)
	}
	if first.SavingsPct == nil || !approx(*first.SavingsPct, 27.5) {
		t.Fatalf("SavingsPct = %v, want 27.5", first.SavingsPct)
	}
	if len(first.BookingSteps) != 3 {
		t.Errorf("booking steps = %d, want 3", len(first.BookingSteps))
	}

	second, err := e.EvaluatePackage(first, nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != first.Status || second.Totals.TotalCashCost != first.Totals.TotalCashCost {
		t.Errorf("re-evaluation changed result: %s/%v vs %s/%v",
			second.Status, second.Totals.TotalCashCost, first.Status, first.Totals.TotalCashCost)
	}
	if second.SavingsPct == nil || *second.SavingsPct != *first.SavingsPct {
		t.Errorf("savings lost on re-evaluation")
	}
	if second.Recommendation != first.Recommendation {
		t.Errorf("recommendation changed on re-evaluation")
	}
	if n := len(second.Flight.Common().Metrics.Advisories); n != 1 {
		t.Errorf("advisories = %d after re-evaluation, want 1", n)
	}
}

func TestEvaluatePackage_KeepsComponentBaselines(t *testing.T) {
	e := New(model.DefaultValueConfig())
	award, err := e.EvaluateFlight(&model.AwardFlight{
		Flight: model.Flight{
			Origin: "MSP", Destination: "CUN", DepartureDate: depart, ReturnDate: ret,
			Airline: "Delta",
		},
		PricePoints:    25000,
		PointsCurrency: model.CurrencyDeltaSkyMiles,
		TaxesFees:      5.6,
	}, ptr(3200))
	if err != nil {
		t.Fatal(err)
	}
	if award.Common().Status != model.TierExcellent {
		t.Fatalf("award status = %s, want excellent", award.Common().Status)
	}
	hotel, err := e.EvaluateHotel(&model.PointsHotel{
		Stay:             model.Stay{Destination: "CUN", PropertyName: "Conrad", CheckIn: depart, CheckOut: ret},
		TotalPricePoints: 300000,
		PointsCurrency:   model.CurrencyHilton,
	}, ptr(2800))
	if err != nil {
		t.Fatal(err)
	}
	if hotel.Common().Status != model.TierExcellent {
		t.Fatalf("hotel status = %s, want excellent", hotel.Common().Status)
	}

	got, err := e.EvaluatePackage(&model.TripPackage{
		Destination: "CUN", StartDate: depart, EndDate: ret,
		Flight: award, Hotel: hotel,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Flight.Common().Status != model.TierExcellent || !approx(*got.Flight.Common().Metrics.CPP, *award.Common().Metrics.CPP) {
		t.Errorf("flight = %s cpp %v, want excellent cpp %v", got.Flight.Common().Status, *got.Flight.Common().Metrics.CPP, *award.Common().Metrics.CPP)
	}
	if got.Hotel.Common().Status != model.TierExcellent || *got.Hotel.Common().Metrics.CPP == 0 {
		t.Errorf("hotel = %s cpp %v, want excellent", got.Hotel.Common().Status, *got.Hotel.Common().Metrics.CPP)
	}
	if got.Status != model.TierExcellent {
		t.Errorf("package status = %s, want excellent", got.Status)
	}
}

func TestEvaluatePackage_RequiresComponent(t *testing.T) {
	e := New(model.DefaultValueConfig())
	_, err := e.EvaluatePackage(&model.TripPackage{StartDate: depart, EndDate: ret}, nil)
	var invalid *model.InvalidOfferError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOfferError, got %v", err)
	}
}

type countingObserver map[string]int

func (c countingObserver) ObserveEvaluation(kind string, status model.QualityTier) {
	c[kind+"/"+string(status)]++
}

func TestObserver(t *testing.T) {
	obs := countingObserver{}
	e := New(model.DefaultValueConfig(), WithObserver(obs))
	if _, err := e.EvaluateHotel(allInclusive(5600), nil); err != nil {
		t.Fatal(err)
	}
	if obs["all_inclusive/excellent"] != 1 {
		t.Errorf("observer counts = %v", obs)
	}
}
