package calculator

import (
	"math"

	"DealSentinel/internal/model"
)

// Trend directions.
const (
	TrendRising   = "rising"
	TrendDropping = "dropping"
	TrendStable   = "stable"
)

const (
	baselineWindow = 3
	trendWindow    = 3
	trendThreshold = 10.0
)

// Stats summarizes a price series.
type Stats struct {
	RouteKey     string  `json:"route_key"`
	Observations int     `json:"observations"`
	Baseline     float64 `json:"baseline"`
	Current      float64 `json:"current"`
	Lowest       float64 `json:"lowest"`
	Trend        string  `json:"trend"`
}

// Summarize computes baseline, current, lowest and trend for a history.
func Summarize(h *model.PriceHistory) Stats {
	prices := h.Values()
	return Stats{
		RouteKey:     h.RouteKey,
		Observations: len(prices),
		Baseline:     Baseline(prices),
		Current:      Current(prices),
		Lowest:       Lowest(prices),
		Trend:        Trend(prices),
	}
}

// Baseline is the mean of the earliest observations, up to three.
func Baseline(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	n := min(baselineWindow, len(prices))
	sum := 0.0
	for _, p := range prices[:n] {
		sum += p
	}
	return sum / float64(n)
}

// Current is the most recent observation.
func Current(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	return prices[len(prices)-1]
}

// Lowest is the minimum over the whole series.
func Lowest(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	low := math.Inf(1)
	for _, p := range prices {
		if p < low {
			low = p
		}
	}
	return low
}

// Trend compares the first and last of the last three observations.
// Fewer than two observations are always stable.
func Trend(prices []float64) string {
	n := len(prices)
	if n < 2 {
		return TrendStable
	}
	start := n - trendWindow
	if start < 0 {
		start = 0
	}
	first, last := prices[start], prices[n-1]
	if first <= 0 {
		return TrendStable
	}
	change := (last - first) / first * 100
	switch {
	case change > trendThreshold:
		return TrendRising
	case change < -trendThreshold:
		return TrendDropping
	default:
		return TrendStable
	}
}
