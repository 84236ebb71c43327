package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"DealSentinel/internal/compare"
	"DealSentinel/internal/model"
	"DealSentinel/internal/valuation"
)

// redemption parses "<cash> <points> [taxes]".
func redemption(args []string) (cash float64, points int64, taxes float64, err error) {
	if cash, err = strconv.ParseFloat(args[0], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("cash price: %w", err)
	}
	if points, err = strconv.ParseInt(args[1], 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("points: %w", err)
	}
	if len(args) > 2 {
		if taxes, err = strconv.ParseFloat(args[2], 64); err != nil {
			return 0, 0, 0, fmt.Errorf("taxes: %w", err)
		}
	}
	return cash, points, taxes, nil
}

func (c *cli) cppCmd() *cobra.Command {
	var currency string
	cmd := &cobra.Command{
		Use:     "cpp <cash_price> <points> [taxes]",
		Short:   "Calculate cents per point for a redemption",
		Example: "  dealctl cpp 800 45000 50",
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(_ *cobra.Command, args []string) error {
			cash, points, taxes, err := redemption(args)
			if err != nil {
				return err
			}
			cpp := valuation.CalculateCPP(cash, points, taxes)
			status := valuation.CPPTier(cpp, c.app.Engine.Thresholds(currency))
			text := fmt.Sprintf("💰 CPP Calculation\n   Cash price: $%.0f\n   Points: %d\n   Taxes/fees: $%.0f\n\n   ➡️ CPP Value: %.2f cents/point (%s)",
				cash, points, taxes, cpp, status)
			return c.emit(text, map[string]any{
				"cpp":        cpp,
				"status":     status,
				"cash_price": cash,
				"points":     points,
				"taxes":      taxes,
				"currency":   currency,
			})
		},
	}
	cmd.Flags().StringVar(&currency, "currency", model.CurrencyDeltaSkyMiles, "points currency the thresholds come from")
	return cmd
}

func (c *cli) shouldUsePointsCmd() *cobra.Command {
	var currency string
	cmd := &cobra.Command{
		Use:   "should-use-points <cash_price> <points> [taxes]",
		Short: "Decide between paying cash and redeeming points",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(_ *cobra.Command, args []string) error {
			cash, points, taxes, err := redemption(args)
			if err != nil {
				return err
			}
			minCPP := c.app.Engine.Thresholds(currency).Min
			use, reason := valuation.ShouldUsePoints(cash, points, taxes, minCPP)
			return c.emit(reason, map[string]any{
				"use_points": use,
				"reason":     reason,
				"min_cpp":    minCPP,
				"currency":   currency,
			})
		},
	}
	cmd.Flags().StringVar(&currency, "currency", model.CurrencyDeltaSkyMiles, "points currency")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored deals",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var tier model.QualityTier
			if status != "" {
				t, err := model.ParseTier(status)
				if err != nil {
					return err
				}
				tier = t
			}
			deals, err := c.app.Store.List(tier)
			if err != nil {
				return err
			}
			if deals == nil {
				deals = []*model.StoredDeal{}
			}
			if len(deals) == 0 {
				return c.emit("No deals stored.", deals)
			}
			var b strings.Builder
			for i, d := range deals {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%-10s %-5s %-14s $%-9.0f %s", d.Status(), d.Destination(), d.TypeName(), price(d), d.Key)
			}
			return c.emit(b.String(), deals)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only deals with this status")
	return cmd
}

// price is the headline cash figure of a deal.
func price(d *model.StoredDeal) float64 {
	if d.Package != nil {
		return d.Package.Totals.TotalCashCost
	}
	switch o := d.Offer.(type) {
	case *model.CashFlight:
		return o.PriceCash
	case *model.CashHotel:
		return o.TotalCash()
	case *model.AllInclusiveHotel:
		return o.TotalCash()
	}
	return 0
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Show one stored deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			d, err := c.app.Store.Get(args[0])
			if err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("no deal %s", args[0])
			}
			pct, err := c.app.Store.DiscountPct(d)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return err
			}
			text := string(b)
			if pct != nil {
				text += fmt.Sprintf("\n%.1f%% below baseline", *pct)
			}
			return c.emit(text, map[string]any{"deal": d, "discount_vs_baseline_pct": pct})
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a stored deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := c.locked(func() error { return c.app.Store.Delete(args[0]) }); err != nil {
				return err
			}
			return c.emit("Deleted "+args[0], map[string]any{"success": true, "deal_key": args[0]})
		},
	}
}

func (c *cli) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Rank stored trips by value",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			deals, err := c.app.Store.List("")
			if err != nil {
				return err
			}
			res := compare.Rank(c.app.Engine, compare.Candidates(deals))
			return c.emit(rankingText(res), res)
		},
	}
}

func rankingText(r compare.Result) string {
	if r.Empty {
		return r.Message
	}
	var b strings.Builder
	b.WriteString("📊 Deal Comparison\n")
	b.WriteString(strings.Repeat("=", 60))
	fmt.Fprintf(&b, "\nBest value: %s | Lowest cost: %s\n", r.BestValue, r.LowestCost)
	for _, o := range r.Options {
		fmt.Fprintf(&b, "\n%d. %s (%s) %s\n", o.Rank, o.Destination, o.Dates, strings.ToUpper(string(o.Status)))
		fmt.Fprintf(&b, "   Price: $%.0f", o.TotalCost)
		if o.PointsUsed > 0 {
			fmt.Fprintf(&b, " + %d pts", o.PointsUsed)
		}
		if o.SavingsPct != nil {
			fmt.Fprintf(&b, " | Savings: %.0f%%", *o.SavingsPct)
		}
		b.WriteByte('\n')
		for _, p := range o.Pros {
			fmt.Fprintf(&b, "   + %s\n", p)
		}
		for _, con := range o.Cons {
			fmt.Fprintf(&b, "   - %s\n", con)
		}
	}
	for _, rej := range r.Rejected {
		fmt.Fprintf(&b, "\nskipped #%d %s: %s", rej.Index, rej.Destination, rej.Error)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show deal counts by status, destination and type",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := c.app.Store.Summary()
			if err != nil {
				return err
			}
			return c.emit(s.String(), s)
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export deals as CSV",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if output == "" || output == "-" {
				return c.app.Store.ExportCSV(c.out)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := c.app.Store.ExportCSV(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			return c.emit("✅ Deals exported to: "+output, map[string]any{"success": true, "path": output})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) expireCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Mark deals older than N days as expired",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if days <= 0 {
				days = c.app.Config.Schedule.ExpireAfterDays
			}
			var n int
			err := c.locked(func() error {
				var err error
				n, err = c.app.Store.ExpireOlderThan(days)
				return err
			})
			if err != nil {
				return err
			}
			return c.emit(fmt.Sprintf("Expired %d deal(s) older than %d days", n, days),
				map[string]any{"expired": n, "older_than_days": days})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "age in days (default from config)")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [route_key]",
		Short: "Show price history and trend for a route, or list tracked routes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				keys, err := c.app.Store.HistoryKeys()
				if err != nil {
					return err
				}
				return c.emit(strings.Join(keys, "\n"), keys)
			}
			stats, ok, err := c.app.Store.HistoryStats(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no price history for %s", args[0])
			}
			text := fmt.Sprintf("%s: %d observations, baseline $%.0f, current $%.0f, lowest $%.0f, trend %s",
				stats.RouteKey, stats.Observations, stats.Baseline, stats.Current, stats.Lowest, stats.Trend)
			return c.emit(text, stats)
		},
	}
}

func (c *cli) testAlertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-alert",
		Short: "Send a forced sample alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := &model.StoredDeal{
				Key:  "test_deal",
				Kind: model.DealOffer,
				Offer: &model.CashFlight{
					Flight: model.Flight{
						Origin: "MSP", Destination: "CUN",
						DepartureDate: model.NewDate(2026, time.March, 27),
						ReturnDate:    model.NewDate(2026, time.April, 3),
						Airline:       "Delta",
					},
					OfferMeta: model.OfferMeta{FoundAt: time.Now(), Status: model.TierExcellent},
					PriceCash: 1200,
				},
			}
			if c.app.Sender == nil {
				return c.emit("⚠️ Telegram not configured, alert was only logged", map[string]any{"sent": false})
			}
			if err := c.app.Sender.Send(cmd.Context(), c.app.Policy.Format(d)); err != nil {
				return err
			}
			return c.emit("✅ Test alert sent successfully!", map[string]any{"sent": true})
		},
	}
}
