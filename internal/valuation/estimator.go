package valuation

import "DealSentinel/internal/model"

// CashPriceEstimator guesses the family cash fare of a flight when no
// observed baseline exists.
type CashPriceEstimator interface {
	EstimateFlight(f *model.Flight, familySize int) float64
}

// RegionFares are per-person round-trip base fares by destination airport.
var RegionFares = map[string]map[string]float64{
	"mexico_caribbean": {"CUN": 400, "PVR": 450, "SJD": 500, "MBJ": 500, "PUJ": 550, "AUA": 600},
	"europe":           {"FCO": 900, "BCN": 850, "MAD": 850, "ATH": 950, "LIS": 900, "MXP": 900, "NAP": 950},
}

// CabinFactors scale an economy fare to the cabin.
var CabinFactors = map[model.CabinClass]float64{
	model.CabinEconomy:        1.0,
	model.CabinPremiumEconomy: 1.8,
	model.CabinBusiness:       4.0,
	model.CabinFirst:          8.0,
}

const (
	defaultFare    = 600
	nonstopPremium = 1.2
)

// RegionTableEstimator prices from the static region tables.
type RegionTableEstimator struct{}

// BaseFare returns the per-person economy fare for a destination airport.
func (RegionTableEstimator) BaseFare(dest string) float64 {
	for _, airports := range RegionFares {
		if fare, ok := airports[dest]; ok {
			return fare
		}
	}
	return defaultFare
}

func (e RegionTableEstimator) EstimateFlight(f *model.Flight, familySize int) float64 {
	price := e.BaseFare(f.Destination)
	factor, ok := CabinFactors[f.Cabin]
	if !ok {
		factor = 1.0
	}
	price *= factor
	if f.Stops == 0 {
		price *= nonstopPremium
	}
	return price * float64(max(familySize, 1))
}

// BaselineLookup returns a caller-set reference fare for a route month.
type BaselineLookup func(origin, dest, month string) (float64, bool)

// BaselineTableEstimator prefers the explicit baseline table and falls back
// to another estimator for routes without an entry.
type BaselineTableEstimator struct {
	Lookup   BaselineLookup
	Fallback CashPriceEstimator
}

func (e BaselineTableEstimator) EstimateFlight(f *model.Flight, familySize int) float64 {
	if e.Lookup != nil {
		if price, ok := e.Lookup(f.Origin, f.Destination, f.DepartureDate.MonthKey()); ok && price > 0 {
			return price
		}
	}
	if e.Fallback == nil {
		return RegionTableEstimator{}.EstimateFlight(f, familySize)
	}
	return e.Fallback.EstimateFlight(f, familySize)
}
