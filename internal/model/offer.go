package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// OfferKind discriminates the Offer variants. The values are the persisted tags.
type OfferKind string

const (
	KindCashFlight   OfferKind = "flight_cash"
	KindAwardFlight  OfferKind = "flight_award"
	KindCashHotel    OfferKind = "hotel_cash"
	KindPointsHotel  OfferKind = "hotel_points"
	KindAllInclusive OfferKind = "all_inclusive"
)

// CabinClass is the flight cabin.
type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// ParseCabin parses a cabin name. Empty means economy.
func ParseCabin(s string) (CabinClass, error) {
	switch c := CabinClass(s); c {
	case "":
		return CabinEconomy, nil
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return c, nil
	default:
		return "", fmt.Errorf("unknown cabin class %q", s)
	}
}

// Metrics holds the values populated by evaluation.
type Metrics struct {
	CPP               *float64 `json:"cpp_value,omitempty"`
	TotalValue        float64  `json:"total_value,omitempty"`
	SavingsVsCash     float64  `json:"savings_vs_cash,omitempty"`
	PerPersonPerNight *float64 `json:"per_person_per_night,omitempty"`
	DiscountPct       *float64 `json:"discount_pct,omitempty"`
	Advisories        []string `json:"advisories,omitempty"`
}

// OfferMeta carries the attributes shared by every offer variant.
type OfferMeta struct {
	FoundAt    time.Time   `json:"found_at"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
	Source     string      `json:"source,omitempty"`
	BookingURL string      `json:"booking_url,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	Status     QualityTier `json:"status,omitempty"`
	Metrics    Metrics     `json:"metrics"`
}

// Common gives access to the shared attributes.
func (m *OfferMeta) Common() *OfferMeta { return m }

// Offer is one observation of a travel offer. The concrete types are
// *CashFlight, *AwardFlight, *CashHotel, *PointsHotel and *AllInclusiveHotel.
type Offer interface {
	Kind() OfferKind
	Common() *OfferMeta
	Period() (start, end Date)
	Location() string
	Clone() Offer
	isOffer()
}

// FlightOffer is implemented by both flight variants.
type FlightOffer interface {
	Offer
	Route() *Flight
}

// HotelOffer is implemented by the three hotel variants.
type HotelOffer interface {
	Offer
	Lodging() *Stay
}

// Flight describes the itinerary part of a flight offer.
type Flight struct {
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate Date       `json:"departure_date"`
	ReturnDate    Date       `json:"return_date"`
	Airline       string     `json:"airline,omitempty"`
	Cabin         CabinClass `json:"cabin_class,omitempty"`
	Stops         int        `json:"stops" validate:"gte=0"`
	FlightNumbers []string   `json:"flight_numbers,omitempty"`
}

func (f *Flight) Route() *Flight            { return f }
func (f *Flight) Period() (start, end Date) { return f.DepartureDate, f.ReturnDate }
func (f *Flight) Location() string          { return f.Destination }

// Stay describes the property and dates of a hotel offer.
type Stay struct {
	Destination  string `json:"destination"`
	PropertyName string `json:"property_name"`
	CheckIn      Date   `json:"check_in"`
	CheckOut     Date   `json:"check_out"`
	RoomType     string `json:"room_type,omitempty"`
}

func (s *Stay) Lodging() *Stay            { return s }
func (s *Stay) Period() (start, end Date) { return s.CheckIn, s.CheckOut }
func (s *Stay) Location() string          { return s.Destination }

// Nights returns the number of nights in the stay; it may be zero or negative
// for malformed input.
func (s *Stay) Nights() int { return s.CheckIn.DaysUntil(s.CheckOut) }

// CashFlight is a flight paid in cash. PriceCash is the family total.
type CashFlight struct {
	Flight
	OfferMeta
	PriceCash float64 `json:"price_cash" validate:"gte=0"`
}

// AwardFlight is a flight booked with points. PricePoints and TaxesFees are per person.
type AwardFlight struct {
	Flight
	OfferMeta
	PricePoints    int64   `json:"price_points" validate:"gte=0"`
	PointsCurrency string  `json:"points_currency,omitempty"`
	TaxesFees      float64 `json:"taxes_fees" validate:"gte=0"`
}

// CashHotel is a hotel stay paid in cash.
type CashHotel struct {
	Stay
	OfferMeta
	PricePerNightCash float64 `json:"price_per_night_cash,omitempty" validate:"gte=0"`
	TotalPriceCash    float64 `json:"total_price_cash,omitempty" validate:"gte=0"`
	ResortFees        float64 `json:"resort_fees,omitempty" validate:"gte=0"`
}

// TotalCash returns the stay total, derived from the nightly rate when no
// total was given.
func (h *CashHotel) TotalCash() float64 {
	if h.TotalPriceCash > 0 {
		return h.TotalPriceCash
	}
	if n := h.Nights(); n > 0 {
		return h.PricePerNightCash * float64(n)
	}
	return 0
}

// PointsHotel is a hotel stay booked with points. PricePerNightCash is the
// optional cash rate for the same room, used as the comparison price.
type PointsHotel struct {
	Stay
	OfferMeta
	TotalPricePoints  int64   `json:"total_price_points" validate:"gte=0"`
	PointsCurrency    string  `json:"points_currency,omitempty"`
	ResortFees        float64 `json:"resort_fees,omitempty" validate:"gte=0"`
	PricePerNightCash float64 `json:"price_per_night_cash,omitempty" validate:"gte=0"`
}

// AllInclusiveHotel is a cash stay bundling meals, drinks or activities.
type AllInclusiveHotel struct {
	CashHotel
	IncludesMeals      bool `json:"includes_meals"`
	IncludesDrinks     bool `json:"includes_drinks"`
	IncludesActivities bool `json:"includes_activities"`
}

func (*CashFlight) Kind() OfferKind        { return KindCashFlight }
func (*AwardFlight) Kind() OfferKind       { return KindAwardFlight }
func (*CashHotel) Kind() OfferKind         { return KindCashHotel }
func (*PointsHotel) Kind() OfferKind       { return KindPointsHotel }
func (*AllInclusiveHotel) Kind() OfferKind { return KindAllInclusive }

func (*CashFlight) isOffer()  {}
func (*AwardFlight) isOffer() {}
func (*CashHotel) isOffer()   {}
func (*PointsHotel) isOffer() {}

func (o *CashFlight) Clone() Offer {
	c := *o
	c.Flight = o.Flight.clone()
	c.OfferMeta = o.OfferMeta.clone()
	return &c
}

func (o *AwardFlight) Clone() Offer {
	c := *o
	c.Flight = o.Flight.clone()
	c.OfferMeta = o.OfferMeta.clone()
	return &c
}

func (o *CashHotel) Clone() Offer {
	c := *o
	c.OfferMeta = o.OfferMeta.clone()
	return &c
}

func (o *PointsHotel) Clone() Offer {
	c := *o
	c.OfferMeta = o.OfferMeta.clone()
	return &c
}

func (o *AllInclusiveHotel) Clone() Offer {
	c := *o
	c.OfferMeta = o.OfferMeta.clone()
	return &c
}

func (f Flight) clone() Flight {
	f.FlightNumbers = append([]string(nil), f.FlightNumbers...)
	return f
}

func (m OfferMeta) clone() OfferMeta {
	m.Metrics.Advisories = append([]string(nil), m.Metrics.Advisories...)
	if m.Metrics.CPP != nil {
		v := *m.Metrics.CPP
		m.Metrics.CPP = &v
	}
	if m.Metrics.PerPersonPerNight != nil {
		v := *m.Metrics.PerPersonPerNight
		m.Metrics.PerPersonPerNight = &v
	}
	if m.Metrics.DiscountPct != nil {
		v := *m.Metrics.DiscountPct
		m.Metrics.DiscountPct = &v
	}
	if m.ExpiresAt != nil {
		v := *m.ExpiresAt
		m.ExpiresAt = &v
	}
	return m
}

// CashPrice returns the observed cash price of an offer for price history:
// the family fare for cash flights, the nightly rate (or total) for cash
// hotels, the quoted nightly cash rate for points hotels. Award flights have
// no cash price.
func CashPrice(o Offer) float64 {
	switch v := o.(type) {
	case *CashFlight:
		return v.PriceCash
	case *CashHotel:
		if v.PricePerNightCash > 0 {
			return v.PricePerNightCash
		}
		return v.TotalPriceCash
	case *AllInclusiveHotel:
		if v.PricePerNightCash > 0 {
			return v.PricePerNightCash
		}
		return v.TotalPriceCash
	case *PointsHotel:
		return v.PricePerNightCash
	}
	return 0
}

// OfferEnvelope is the tagged JSON form of an Offer.
type OfferEnvelope struct {
	Offer Offer
}

type envelopeJSON struct {
	Kind OfferKind       `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (e OfferEnvelope) MarshalJSON() ([]byte, error) {
	if e.Offer == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(e.Offer)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelopeJSON{Kind: e.Offer.Kind(), Data: data})
}

func (e *OfferEnvelope) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		e.Offer = nil
		return nil
	}
	var raw envelopeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	o, err := NewOffer(raw.Kind)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw.Data, o); err != nil {
		return fmt.Errorf("decode %s offer: %w", raw.Kind, err)
	}
	e.Offer = o
	return nil
}

// NewOffer returns a zero offer of the given kind.
func NewOffer(kind OfferKind) (Offer, error) {
	switch kind {
	case KindCashFlight:
		return &CashFlight{}, nil
	case KindAwardFlight:
		return &AwardFlight{}, nil
	case KindCashHotel:
		return &CashHotel{}, nil
	case KindPointsHotel:
		return &PointsHotel{}, nil
	case KindAllInclusive:
		return &AllInclusiveHotel{}, nil
	default:
		return nil, fmt.Errorf("unknown offer kind %q", kind)
	}
}
