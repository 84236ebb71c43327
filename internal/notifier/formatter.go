package notifier

import (
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"DealSentinel/internal/compare"
	"DealSentinel/internal/model"
	"DealSentinel/internal/store"
)

// FormatDeal renders a stored offer or package as an alert message.
func FormatDeal(d *model.StoredDeal) string {
	if d.Package != nil {
		return FormatPackage(d.Package)
	}
	if d.Offer != nil {
		return FormatOffer(d.Offer)
	}
	return fmt.Sprintf("Deal Alert: %s", html.EscapeString(d.Key))
}

// FormatOffer renders a flight or hotel offer.
func FormatOffer(o model.Offer) string {
	var b strings.Builder
	meta := o.Common()
	status := strings.ToUpper(string(meta.Status))

	switch v := o.(type) {
	case model.FlightOffer:
		f := v.Route()
		fmt.Fprintf(&b, "✈️ <b>FLIGHT DEAL</b> - %s\n\n", status)
		fmt.Fprintf(&b, "<b>Route:</b> %s → %s\n", esc(f.Origin), esc(f.Destination))
		fmt.Fprintf(&b, "<b>Dates:</b> %s to %s\n", f.DepartureDate, f.ReturnDate)
		fmt.Fprintf(&b, "<b>Airline:</b> %s\n", orDefault(f.Airline, "Unknown"))
		cabin := f.Cabin
		if cabin == "" {
			cabin = model.CabinEconomy
		}
		fmt.Fprintf(&b, "<b>Cabin:</b> %s\n\n", esc(string(cabin)))
		switch fv := v.(type) {
		case *model.CashFlight:
			fmt.Fprintf(&b, "<b>Cash Price:</b> $%s\n", money(fv.PriceCash))
		case *model.AwardFlight:
			fmt.Fprintf(&b, "<b>Award Price:</b> %s %s/person\n", humanize.Comma(fv.PricePoints), orDefault(fv.PointsCurrency, "points"))
			fmt.Fprintf(&b, "<b>Taxes/Fees:</b> $%.0f\n", fv.TaxesFees)
		}

	case model.HotelOffer:
		s := v.Lodging()
		fmt.Fprintf(&b, "🏨 <b>HOTEL DEAL</b> - %s\n\n", status)
		fmt.Fprintf(&b, "<b>Property:</b> %s\n", esc(s.PropertyName))
		fmt.Fprintf(&b, "<b>Destination:</b> %s\n", esc(s.Destination))
		fmt.Fprintf(&b, "<b>Dates:</b> %s to %s\n\n", s.CheckIn, s.CheckOut)
		switch hv := v.(type) {
		case *model.AllInclusiveHotel:
			b.WriteString("🌴 <b>ALL-INCLUSIVE</b>\n")
			writeCashHotel(&b, &hv.CashHotel)
		case *model.CashHotel:
			writeCashHotel(&b, hv)
		case *model.PointsHotel:
			fmt.Fprintf(&b, "<b>Points:</b> %s %s\n", humanize.Comma(hv.TotalPricePoints), orDefault(hv.PointsCurrency, "points"))
		}
		if ppn := meta.Metrics.PerPersonPerNight; ppn != nil && *ppn > 0 {
			fmt.Fprintf(&b, "<b>Per Person/Night:</b> $%s\n", money(*ppn))
		}
	}

	if cpp := meta.Metrics.CPP; cpp != nil && *cpp > 0 {
		fmt.Fprintf(&b, "<b>Value:</b> %.2f cents/point\n", *cpp)
	}
	for _, note := range meta.Metrics.Advisories {
		fmt.Fprintf(&b, "💡 %s\n", esc(note))
	}
	fmt.Fprintf(&b, "\n<b>Source:</b> %s\n", orDefault(meta.Source, "Manual entry"))
	fmt.Fprintf(&b, "<b>Booking:</b> %s", orDefault(meta.BookingURL, "N/A"))
	return b.String()
}

func writeCashHotel(b *strings.Builder, h *model.CashHotel) {
	if h.PricePerNightCash > 0 {
		fmt.Fprintf(b, "<b>Per Night:</b> $%s\n", money(h.PricePerNightCash))
	}
	if total := h.TotalCash(); total > 0 {
		fmt.Fprintf(b, "<b>Total:</b> $%s\n", money(total))
	}
}

// FormatPackage renders a trip package.
func FormatPackage(p *model.TripPackage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 <b>TRIP PACKAGE</b> - %s\n\n", strings.ToUpper(string(p.Status)))
	fmt.Fprintf(&b, "<b>Destination:</b> %s\n", esc(p.Destination))
	fmt.Fprintf(&b, "<b>Dates:</b> %s to %s\n\n", p.StartDate, p.EndDate)
	fmt.Fprintf(&b, "<b>Total Cost:</b> $%s\n", money(p.Totals.TotalCashCost))
	fmt.Fprintf(&b, "<b>Points Used:</b> %s\n", humanize.Comma(p.Totals.TotalPointsUsed))
	fmt.Fprintf(&b, "<b>Per Person/Day:</b> $%s\n", money(p.Totals.CostPerPersonPerDay))
	if p.SavingsPct != nil && *p.SavingsPct > 0 {
		fmt.Fprintf(&b, "<b>Savings:</b> %.0f%% below baseline\n", *p.SavingsPct)
	}
	if p.Recommendation != "" {
		fmt.Fprintf(&b, "\n<b>Recommendation:</b>\n%s", esc(p.Recommendation))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSummary renders the daily summary.
func FormatSummary(s store.Summary, day time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Travel Deal Summary</b> | %s\n\n", day.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total Deals Tracked: %d\n", s.TotalDeals)
	fmt.Fprintf(&b, "Excellent Deals: %d\n", s.Excellent)
	fmt.Fprintf(&b, "Good Deals: %d\n", s.Good)

	if len(s.ByDestination) > 0 {
		b.WriteString("\n<b>By Destination:</b>\n")
		for _, k := range sortedKeys(s.ByDestination) {
			fmt.Fprintf(&b, "- %s: %d\n", esc(k), s.ByDestination[k])
		}
	}
	if len(s.ByStatus) > 0 {
		b.WriteString("\n<b>By Status:</b>\n")
		for _, t := range []model.QualityTier{model.TierExcellent, model.TierGood, model.TierAcceptable, model.TierPoor, model.TierExpired} {
			if n, ok := s.ByStatus[t]; ok {
				fmt.Fprintf(&b, "- %s: %d\n", t, n)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRanking renders a comparison result.
func FormatRanking(r compare.Result) string {
	if r.Empty {
		return r.Message
	}
	var b strings.Builder
	b.WriteString("🏆 <b>Package Comparison</b>\n\n")
	fmt.Fprintf(&b, "Best Value: %s\n", esc(r.BestValue))
	fmt.Fprintf(&b, "Lowest Cost: %s\n", esc(r.LowestCost))
	for _, o := range r.Options {
		fmt.Fprintf(&b, "\n<b>#%d %s</b> (%s) %s\n", o.Rank, esc(o.Destination), o.Dates, strings.ToUpper(string(o.Status)))
		fmt.Fprintf(&b, "Total: $%s", money(o.TotalCost))
		if o.PointsUsed > 0 {
			fmt.Fprintf(&b, " + %s pts", humanize.Comma(o.PointsUsed))
		}
		b.WriteString("\n")
		if o.SavingsPct != nil {
			fmt.Fprintf(&b, "Savings: %.0f%%\n", *o.SavingsPct)
		}
		for _, p := range o.Pros {
			fmt.Fprintf(&b, "✓ %s\n", p)
		}
		for _, c := range o.Cons {
			fmt.Fprintf(&b, "✗ %s\n", c)
		}
	}
	if len(r.Rejected) > 0 {
		fmt.Fprintf(&b, "\n%d package(s) could not be evaluated\n", len(r.Rejected))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatDealList renders a short one-line-per-deal listing.
func FormatDealList(title string, deals []*model.StoredDeal) string {
	if len(deals) == 0 {
		return title + ": none"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> (%d)\n", esc(title), len(deals))
	for _, d := range deals {
		fmt.Fprintf(&b, "• %s %s %s\n", strings.ToUpper(string(d.Status())), esc(d.Destination()), esc(d.Key))
	}
	return strings.TrimRight(b.String(), "\n")
}

func esc(s string) string { return html.EscapeString(s) }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return esc(s)
}

func money(v float64) string {
	return humanize.Comma(int64(v + 0.5))
}

func sortedKeys(m map[string]int) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
