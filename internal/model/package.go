package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// BookingStep is one ordered instruction for booking a package.
type BookingStep struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}

// Totals are derived from component prices and never accepted from input.
type Totals struct {
	TotalCashCost        float64  `json:"total_cash_cost"`
	TotalPointsUsed      int64    `json:"total_points_used"`
	PointsCurrenciesUsed []string `json:"points_currencies_used,omitempty"`
	CostPerPerson        float64  `json:"cost_per_person"`
	CostPerPersonPerDay  float64  `json:"cost_per_person_per_day"`
	TotalValue           float64  `json:"total_value"`
}

// TripPackage bundles an optional flight with an optional hotel.
type TripPackage struct {
	Flight         FlightOffer   `json:"-"`
	Hotel          HotelOffer    `json:"-"`
	Destination    string        `json:"destination"`
	StartDate      Date          `json:"start_date"`
	EndDate        Date          `json:"end_date"`
	PackagePrice   *float64      `json:"package_price,omitempty"`
	FoundAt        time.Time     `json:"found_at"`
	Source         string        `json:"source,omitempty"`
	Totals         Totals        `json:"totals"`
	BaselineTotal  *float64      `json:"baseline_total,omitempty"`
	SavingsAmount  *float64      `json:"savings_vs_baseline,omitempty"`
	SavingsPct     *float64      `json:"savings_pct,omitempty"`
	Status         QualityTier   `json:"status,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	BookingSteps   []BookingStep `json:"booking_steps,omitempty"`
}

// Days is the trip length in whole days.
func (p *TripPackage) Days() int { return p.StartDate.DaysUntil(p.EndDate) }

// Check reports a package with neither a flight nor a hotel.
func (p *TripPackage) Check() error {
	if p.Flight == nil && p.Hotel == nil {
		return &InvalidOfferError{Field: "package", Reason: "needs a flight or a hotel"}
	}
	return nil
}

// RecomputeTotals derives Totals from the current component prices.
func (p *TripPackage) RecomputeTotals(familySize int) {
	if familySize < 1 {
		familySize = 1
	}
	var t Totals
	addCurrency := func(c string) {
		for _, have := range t.PointsCurrenciesUsed {
			if have == c {
				return
			}
		}
		t.PointsCurrenciesUsed = append(t.PointsCurrenciesUsed, c)
	}

	switch f := p.Flight.(type) {
	case *CashFlight:
		t.TotalCashCost += f.PriceCash
	case *AwardFlight:
		t.TotalCashCost += f.TaxesFees * float64(familySize)
		t.TotalPointsUsed += f.PricePoints * int64(familySize)
		if f.PricePoints > 0 {
			addCurrency(f.PointsCurrency)
		}
	}
	if p.Flight != nil {
		t.TotalValue += p.Flight.Common().Metrics.TotalValue
	}

	switch h := p.Hotel.(type) {
	case *CashHotel:
		t.TotalCashCost += h.TotalCash() + h.ResortFees
	case *AllInclusiveHotel:
		t.TotalCashCost += h.TotalCash() + h.ResortFees
	case *PointsHotel:
		t.TotalCashCost += h.ResortFees
		t.TotalPointsUsed += h.TotalPricePoints
		if h.TotalPricePoints > 0 {
			addCurrency(h.PointsCurrency)
		}
	}
	if p.Hotel != nil {
		t.TotalValue += p.Hotel.Common().Metrics.TotalValue
	}

	t.CostPerPerson = t.TotalCashCost / float64(familySize)
	if days := p.Days(); days > 0 {
		t.CostPerPersonPerDay = t.CostPerPerson / float64(days)
	}
	p.Totals = t
}

// Clone returns a deep copy of the package and its components.
func (p *TripPackage) Clone() *TripPackage {
	c := *p
	if p.Flight != nil {
		c.Flight = p.Flight.Clone().(FlightOffer)
	}
	if p.Hotel != nil {
		c.Hotel = p.Hotel.Clone().(HotelOffer)
	}
	c.Totals.PointsCurrenciesUsed = append([]string(nil), p.Totals.PointsCurrenciesUsed...)
	c.BookingSteps = append([]BookingStep(nil), p.BookingSteps...)
	if p.PackagePrice != nil {
		v := *p.PackagePrice
		c.PackagePrice = &v
	}
	if p.BaselineTotal != nil {
		v := *p.BaselineTotal
		c.BaselineTotal = &v
	}
	if p.SavingsAmount != nil {
		v := *p.SavingsAmount
		c.SavingsAmount = &v
	}
	if p.SavingsPct != nil {
		v := *p.SavingsPct
		c.SavingsPct = &v
	}
	return &c
}

type packageAlias TripPackage

type packageJSON struct {
	*packageAlias
	Flight *OfferEnvelope `json:"flight,omitempty"`
	Hotel  *OfferEnvelope `json:"hotel,omitempty"`
}

func (p TripPackage) MarshalJSON() ([]byte, error) {
	out := packageJSON{packageAlias: (*packageAlias)(&p)}
	if p.Flight != nil {
		out.Flight = &OfferEnvelope{Offer: p.Flight}
	}
	if p.Hotel != nil {
		out.Hotel = &OfferEnvelope{Offer: p.Hotel}
	}
	return json.Marshal(out)
}

func (p *TripPackage) UnmarshalJSON(b []byte) error {
	in := packageJSON{packageAlias: (*packageAlias)(p)}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	p.Flight, p.Hotel = nil, nil
	if in.Flight != nil && in.Flight.Offer != nil {
		f, ok := in.Flight.Offer.(FlightOffer)
		if !ok {
			return fmt.Errorf("package flight has kind %s", in.Flight.Offer.Kind())
		}
		p.Flight = f
	}
	if in.Hotel != nil && in.Hotel.Offer != nil {
		h, ok := in.Hotel.Offer.(HotelOffer)
		if !ok {
			return fmt.Errorf("package hotel has kind %s", in.Hotel.Offer.Kind())
		}
		p.Hotel = h
	}
	return nil
}
