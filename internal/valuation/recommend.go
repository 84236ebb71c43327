package valuation

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"DealSentinel/internal/model"
)

// Recommendation renders the headline, cost lines and budget check for a
// package that already has totals and status.
func (e *Engine) Recommendation(p *model.TripPackage) string {
	var sb strings.Builder
	switch p.Status {
	case model.TierExcellent:
		sb.WriteString("🔥 EXCELLENT DEAL - Book immediately if dates work!\n")
	case model.TierGood:
		sb.WriteString("✅ Good value - Worth booking\n")
	case model.TierAcceptable:
		sb.WriteString("👍 Meets baseline expectations\n")
	default:
		sb.WriteString("⚠️ Below value threshold - Consider alternatives\n")
	}

	fmt.Fprintf(&sb, "Total out-of-pocket: $%s\n", humanize.Comma(int64(p.Totals.TotalCashCost+0.5)))
	if p.Totals.TotalPointsUsed > 0 {
		fmt.Fprintf(&sb, "Points used: %s\n", humanize.Comma(p.Totals.TotalPointsUsed))
	}
	if p.SavingsPct != nil && *p.SavingsPct > 0 {
		fmt.Fprintf(&sb, "Savings: %.0f%% below baseline\n", *p.SavingsPct)
	}

	switch cost := p.Totals.TotalCashCost; {
	case cost > e.cfg.MaxBudget:
		sb.WriteString("⛔ OVER BUDGET CEILING")
	case cost > e.cfg.TargetBudget:
		sb.WriteString("⚠️ Above target budget (but within ceiling)")
	default:
		sb.WriteString("✅ Within target budget")
	}
	return sb.String()
}

// BookingSteps lists the points transfer, flight and hotel bookings in order.
func (e *Engine) BookingSteps(p *model.TripPackage) []model.BookingStep {
	var steps []model.BookingStep
	add := func(action, detail string) {
		steps = append(steps, model.BookingStep{Step: len(steps) + 1, Action: action, Detail: detail})
	}

	if p.Flight != nil {
		f := p.Flight.Route()
		if award, ok := p.Flight.(*model.AwardFlight); ok && award.PricePoints > 0 {
			points := award.PricePoints * int64(e.cfg.Family())
			add(fmt.Sprintf("Transfer %s points to %s", humanize.Comma(points), award.PointsCurrency),
				"Allow 24-48 hours for transfer to complete")
		}
		add(fmt.Sprintf("Book flight: %s → %s", f.Origin, f.Destination),
			fmt.Sprintf("%s - %s %s", f.DepartureDate, f.ReturnDate, p.Flight.Common().BookingURL))
	}
	if p.Hotel != nil {
		s := p.Hotel.Lodging()
		add("Book hotel: "+s.PropertyName,
			fmt.Sprintf("%s - %s %s", s.CheckIn, s.CheckOut, p.Hotel.Common().BookingURL))
	}
	for i := range steps {
		steps[i].Detail = strings.TrimSpace(steps[i].Detail)
	}
	return steps
}
