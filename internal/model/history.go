package model

import "time"

// MaxHistory caps a price series; the oldest observations are dropped first.
const MaxHistory = 100

// PricePoint is one observed cash price.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// PriceHistory is the time-ordered series for one route or property month.
type PriceHistory struct {
	RouteKey string       `json:"route_key"`
	Prices   []PricePoint `json:"prices"`
}

// Add appends an observation and trims the series to MaxHistory.
func (h *PriceHistory) Add(at time.Time, price float64) {
	h.Prices = append(h.Prices, PricePoint{Timestamp: at, Price: price})
	if n := len(h.Prices); n > MaxHistory {
		h.Prices = append([]PricePoint(nil), h.Prices[n-MaxHistory:]...)
	}
}

// Values returns the prices in chronological order.
func (h *PriceHistory) Values() []float64 {
	out := make([]float64, len(h.Prices))
	for i, p := range h.Prices {
		out[i] = p.Price
	}
	return out
}
