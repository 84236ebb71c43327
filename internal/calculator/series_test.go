package calculator

import (
	"testing"
	"time"

	"DealSentinel/internal/model"
)

func TestBaseline(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{500}, 500},
		{"two", []float64{500, 700}, 600},
		{"first three only", []float64{300, 600, 900, 50, 50}, 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Baseline(tt.prices); got != tt.want {
				t.Errorf("Baseline() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCurrentAndLowest(t *testing.T) {
	prices := []float64{800, 650, 700}
	if got := Current(prices); got != 700 {
		t.Errorf("Current() = %v, want 700", got)
	}
	if got := Lowest(prices); got != 650 {
		t.Errorf("Lowest() = %v, want 650", got)
	}
	if got := Lowest(nil); got != 0 {
		t.Errorf("Lowest(nil) = %v, want 0", got)
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   string
	}{
		{"no data", nil, TrendStable},
		{"one point", []float64{400}, TrendStable},
		{"rising", []float64{400, 450}, TrendRising},
		{"dropping", []float64{400, 350}, TrendDropping},
		{"within ten percent", []float64{400, 420, 430}, TrendStable},
		{"uses last three", []float64{100, 1000, 500, 520, 540}, TrendStable},
		{"small rise is stable", []float64{100, 105}, TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(tt.prices); got != tt.want {
				t.Errorf("Trend(%v) = %q, want %q", tt.prices, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	h := &model.PriceHistory{RouteKey: "MSP-CUN-2026-03"}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []float64{2000, 1900, 1800, 1500} {
		h.Add(start.Add(time.Duration(i)*time.Hour), p)
	}
	s := Summarize(h)
	if s.Observations != 4 || s.Baseline != 1900 || s.Current != 1500 || s.Lowest != 1500 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if s.Trend != TrendDropping {
		t.Errorf("Trend = %q, want %q", s.Trend, TrendDropping)
	}
}
