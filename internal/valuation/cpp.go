package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CalculateCPP returns cents of cash value per point spent,
// ((cash - taxes) / points) x 100 rounded to two places. Zero or negative
// points mean the offer is not a redemption and yield 0.
func CalculateCPP(cashPrice float64, points int64, taxesFees float64) float64 {
	if points <= 0 {
		return 0
	}
	value := decimal.NewFromFloat(cashPrice).Sub(decimal.NewFromFloat(taxesFees))
	cpp := value.Div(decimal.NewFromInt(points)).Mul(decimal.NewFromInt(100)).Round(2)
	f, _ := cpp.Float64()
	return f
}

// ShouldUsePoints is the quick points-or-cash decision for one redemption.
// minCPP is the floor for the currency.
func ShouldUsePoints(cashPrice float64, points int64, taxesFees, minCPP float64) (bool, string) {
	cpp := CalculateCPP(cashPrice, points, taxesFees)
	switch {
	case cpp >= minCPP*1.5:
		return true, fmt.Sprintf("YES - Excellent value at %.2fcpp (vs %.2fcpp min)", cpp, minCPP)
	case cpp >= minCPP:
		return true, fmt.Sprintf("YES - Good value at %.2fcpp (meets %.2fcpp threshold)", cpp, minCPP)
	default:
		return false, fmt.Sprintf("NO - Only %.2fcpp (below %.2fcpp minimum). Pay cash.", cpp, minCPP)
	}
}
