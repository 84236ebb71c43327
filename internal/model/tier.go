package model

import "fmt"

// QualityTier is the discrete value classification of an offer or package.
type QualityTier string

const (
	TierExcellent  QualityTier = "excellent"
	TierGood       QualityTier = "good"
	TierAcceptable QualityTier = "acceptable"
	TierPoor       QualityTier = "poor"
	TierExpired    QualityTier = "expired"
)

// tierOrder lists tiers best first. Rank is the index.
var tierOrder = []QualityTier{TierExcellent, TierGood, TierAcceptable, TierPoor, TierExpired}

// Rank returns 0 for the best tier and grows as quality drops.
// Unknown tiers sort after EXPIRED.
func (t QualityTier) Rank() int {
	for i, v := range tierOrder {
		if v == t {
			return i
		}
	}
	return len(tierOrder)
}

// Valid reports whether t is one of the known tiers.
func (t QualityTier) Valid() bool { return t.Rank() < len(tierOrder) }

// Alertable reports whether the tier is good enough to notify about.
func (t QualityTier) Alertable() bool { return t == TierExcellent || t == TierGood }

func (t QualityTier) String() string { return string(t) }

// ParseTier parses a lowercase tier name.
func ParseTier(s string) (QualityTier, error) {
	t := QualityTier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown quality tier %q", s)
	}
	return t, nil
}

// Worst returns the lowest-quality tier among tiers, so a package is only as
// good as its weakest leg. With no tiers it returns TierAcceptable.
func Worst(tiers ...QualityTier) QualityTier {
	if len(tiers) == 0 {
		return TierAcceptable
	}
	worst := tiers[0]
	for _, t := range tiers[1:] {
		if t.Rank() > worst.Rank() {
			worst = t
		}
	}
	return worst
}
