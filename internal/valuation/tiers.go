package valuation

import "DealSentinel/internal/model"

// DiscountTiers maps a cash fare's discount versus the estimated fare.
var DiscountTiers = []struct {
	MinPct float64
	Tier   model.QualityTier
}{
	{30, model.TierExcellent},
	{20, model.TierGood},
	{0, model.TierAcceptable},
}

// NightlyTiers maps the per-person-per-night cost of a stay.
var NightlyTiers = []struct {
	MaxCost float64
	Tier    model.QualityTier
}{
	{250, model.TierExcellent},
	{350, model.TierGood},
	{450, model.TierAcceptable},
}

// Fallback thresholds for currencies missing from the config.
var (
	DefaultFlightThresholds = model.PointsThresholds{Min: 1.0, Target: 1.5}
	DefaultHotelThresholds  = model.PointsThresholds{Min: 0.4, Target: 0.5}
)

// DiscountTier classifies a discount percentage.
func DiscountTier(pct float64) model.QualityTier {
	for _, t := range DiscountTiers {
		if pct >= t.MinPct {
			return t.Tier
		}
	}
	return model.TierPoor
}

// NightlyTier classifies a per-person-per-night cost.
func NightlyTier(cost float64) model.QualityTier {
	for _, t := range NightlyTiers {
		if cost <= t.MaxCost {
			return t.Tier
		}
	}
	return model.TierPoor
}

// CPPTier classifies a redemption against currency thresholds.
func CPPTier(cpp float64, t model.PointsThresholds) model.QualityTier {
	switch {
	case cpp >= t.Excellent():
		return model.TierExcellent
	case cpp >= t.Target:
		return model.TierGood
	case cpp >= t.Min:
		return model.TierAcceptable
	default:
		return model.TierPoor
	}
}
