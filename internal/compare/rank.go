// Package compare ranks evaluated trip packages against each other.
package compare

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"DealSentinel/internal/model"
	"DealSentinel/internal/valuation"
)

// EmptyMessage is reported when there is nothing to rank.
const EmptyMessage = "No packages to compare"

// Option is one ranked package with its decision notes.
type Option struct {
	Rank           int                 `json:"rank"`
	Destination    string              `json:"destination"`
	Dates          string              `json:"dates"`
	TotalCost      float64             `json:"total_cost"`
	PointsUsed     int64               `json:"points_used"`
	Status         model.QualityTier   `json:"status"`
	SavingsPct     *float64            `json:"savings_pct,omitempty"`
	Pros           []string            `json:"pros"`
	Cons           []string            `json:"cons"`
	Recommendation string              `json:"recommendation"`
	BookingSteps   []model.BookingStep `json:"booking_steps,omitempty"`
	Package        *model.TripPackage  `json:"-"`
}

// Rejected is an input package that could not be evaluated.
type Rejected struct {
	Index       int    `json:"index"`
	Destination string `json:"destination"`
	Error       string `json:"error"`
}

// Result is the decision matrix over a set of packages.
type Result struct {
	Empty      bool       `json:"empty,omitempty"`
	Message    string     `json:"message,omitempty"`
	Options    []Option   `json:"ranked_options"`
	BestValue  string     `json:"best_value,omitempty"`
	LowestCost string     `json:"lowest_cost,omitempty"`
	Rejected   []Rejected `json:"rejected,omitempty"`
}

// Rank evaluates every package and orders them by tier, best first, then by
// savings percentage, highest first. Ties keep input order. Packages that fail
// evaluation are listed in Rejected and left out of the ranking.
func Rank(engine *valuation.Engine, packages []*model.TripPackage) Result {
	var (
		evaluated []*model.TripPackage
		rejected  []Rejected
	)
	for i, p := range packages {
		out, err := engine.EvaluatePackage(p, nil)
		if err != nil {
			dest := ""
			if p != nil {
				dest = p.Destination
			}
			rejected = append(rejected, Rejected{Index: i, Destination: dest, Error: err.Error()})
			continue
		}
		evaluated = append(evaluated, out)
	}
	if len(evaluated) == 0 {
		return Result{Empty: true, Message: EmptyMessage, Options: []Option{}, Rejected: rejected}
	}

	slices.SortStableFunc(evaluated, func(a, b *model.TripPackage) int {
		if d := a.Status.Rank() - b.Status.Rank(); d != 0 {
			return d
		}
		sa, sb := savings(a), savings(b)
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		}
		return 0
	})

	cfg := engine.Config()
	res := Result{Options: make([]Option, 0, len(evaluated)), Rejected: rejected}
	for i, p := range evaluated {
		res.Options = append(res.Options, Option{
			Rank:           i + 1,
			Destination:    p.Destination,
			Dates:          fmt.Sprintf("%s - %s", p.StartDate, p.EndDate),
			TotalCost:      p.Totals.TotalCashCost,
			PointsUsed:     p.Totals.TotalPointsUsed,
			Status:         p.Status,
			SavingsPct:     p.SavingsPct,
			Pros:           pros(p, cfg),
			Cons:           cons(p, cfg),
			Recommendation: p.Recommendation,
			BookingSteps:   p.BookingSteps,
			Package:        p,
		})
	}
	res.BestValue = evaluated[0].Destination
	res.LowestCost = lo.MinBy(evaluated, func(a, b *model.TripPackage) bool {
		return a.Totals.TotalCashCost < b.Totals.TotalCashCost
	}).Destination
	return res
}

func savings(p *model.TripPackage) float64 {
	if p.SavingsPct == nil {
		return 0
	}
	return *p.SavingsPct
}

func pros(p *model.TripPackage, cfg model.ValueConfig) []string {
	out := []string{}
	if p.Status == model.TierExcellent || p.Status == model.TierGood {
		out = append(out, "Strong value")
	}
	if p.Totals.TotalCashCost <= cfg.TargetBudget {
		out = append(out, "Within budget")
	}
	if p.Flight != nil && p.Flight.Route().Stops == 0 {
		out = append(out, "Nonstop flights")
	}
	if _, ok := p.Hotel.(*model.AllInclusiveHotel); ok {
		out = append(out, "All-inclusive (predictable costs)")
	}
	return out
}

func cons(p *model.TripPackage, cfg model.ValueConfig) []string {
	out := []string{}
	if p.Totals.TotalCashCost > cfg.MaxBudget {
		out = append(out, "Over budget ceiling")
	}
	if p.Status == model.TierPoor {
		out = append(out, "Below value threshold")
	}
	if p.Flight != nil && p.Flight.Route().Stops > 1 {
		out = append(out, "Multiple connections")
	}
	return out
}
