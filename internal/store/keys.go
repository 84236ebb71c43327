package store

import (
	"fmt"

	"DealSentinel/internal/model"
)

// OfferKey derives the identity of an offer. Re-submitting an offer with the
// same key replaces the stored record.
func OfferKey(o model.Offer) string {
	switch v := o.(type) {
	case model.FlightOffer:
		f := v.Route()
		return fmt.Sprintf("flight_%s_%s_%s_%s_%s", f.Origin, f.Destination, f.DepartureDate, f.Airline, v.Kind())
	case model.HotelOffer:
		s := v.Lodging()
		return fmt.Sprintf("hotel_%s_%s_%s", s.PropertyName, s.CheckIn, v.Kind())
	}
	return ""
}

// PackageKey derives the identity of a trip package.
func PackageKey(p *model.TripPackage) string {
	return fmt.Sprintf("package_%s_%s", p.Destination, p.StartDate)
}

// RouteKey is the price history series of an offer: origin, destination and
// departure month for flights, property and check-in month for hotels.
func RouteKey(o model.Offer) string {
	switch v := o.(type) {
	case model.FlightOffer:
		f := v.Route()
		return BaselineKey(f.Origin, f.Destination, f.DepartureDate.MonthKey())
	case model.HotelOffer:
		s := v.Lodging()
		return fmt.Sprintf("hotel-%s-%s", s.PropertyName, s.CheckIn.MonthKey())
	}
	return ""
}

// BaselineKey addresses the explicit baseline price table. month is YYYY-MM.
func BaselineKey(origin, dest, month string) string {
	return fmt.Sprintf("%s-%s-%s", origin, dest, month)
}
