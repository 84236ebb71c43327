package model

// Default points currencies.
const (
	CurrencyDeltaSkyMiles = "delta_skymiles"
	CurrencyAmexMR        = "amex_mr"
	CurrencyHilton        = "hilton"
)

// ExcellentFactor scales target_cpp into the excellent threshold.
const ExcellentFactor = 1.3

// PointsThresholds are the cents-per-point marks for one currency.
type PointsThresholds struct {
	Min      float64 `json:"min_cpp" yaml:"min_cpp" validate:"gte=0"`
	Target   float64 `json:"target_cpp" yaml:"target_cpp" validate:"gtefield=Min"`
	Baseline float64 `json:"baseline_cpp" yaml:"baseline_cpp" validate:"gte=0"`
}

// Excellent is the derived excellent threshold.
func (t PointsThresholds) Excellent() float64 { return t.Target * ExcellentFactor }

// Loyalty configures the elite-status upgrade advisory.
type Loyalty struct {
	Carrier            string  `json:"carrier" yaml:"carrier"`
	UpgradeProbability float64 `json:"upgrade_probability" yaml:"upgrade_probability" validate:"gte=0,lte=1"`
	UpgradeMultiplier  float64 `json:"upgrade_value_multiplier" yaml:"upgrade_value_multiplier" validate:"gte=1"`
	CompanionCertValue float64 `json:"companion_cert_value" yaml:"companion_cert_value" validate:"gte=0"`
}

// ValueConfig is the valuation policy threaded through every evaluation.
type ValueConfig struct {
	Currencies   map[string]PointsThresholds `json:"currencies" validate:"dive"`
	FamilySize   int                         `json:"family_size" validate:"gte=1"`
	TargetBudget float64                     `json:"target_budget" validate:"gte=0"`
	MaxBudget    float64                     `json:"max_budget" validate:"gtefield=TargetBudget"`
	Loyalty      Loyalty                     `json:"loyalty"`
}

// DefaultValueConfig returns the stock thresholds for a family of four.
func DefaultValueConfig() ValueConfig {
	return ValueConfig{
		Currencies: map[string]PointsThresholds{
			CurrencyDeltaSkyMiles: {Min: 1.0, Target: 1.5, Baseline: 1.2},
			CurrencyAmexMR:        {Min: 1.2, Target: 2.0, Baseline: 1.5},
			CurrencyHilton:        {Min: 0.4, Target: 0.6, Baseline: 0.5},
		},
		FamilySize:   4,
		TargetBudget: 10000,
		MaxBudget:    12000,
		Loyalty: Loyalty{
			Carrier:            "Delta",
			UpgradeProbability: 0.40,
			UpgradeMultiplier:  1.5,
			CompanionCertValue: 800,
		},
	}
}

// Thresholds looks up a currency. The second result is false when the
// currency is not configured and fallback was returned.
func (c ValueConfig) Thresholds(currency string, fallback PointsThresholds) (PointsThresholds, bool) {
	if t, ok := c.Currencies[currency]; ok {
		return t, true
	}
	return fallback, false
}

// Family returns the family size, at least 1.
func (c ValueConfig) Family() int {
	if c.FamilySize < 1 {
		return 1
	}
	return c.FamilySize
}
