package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"DealSentinel/internal/model"
)

// metaFlags are the attributes every add command accepts.
type metaFlags struct {
	source     string
	bookingURL string
	notes      string
	alert      bool
	force      bool
}

func (m *metaFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.source, "source", "CLI", "where the deal was found")
	cmd.Flags().StringVar(&m.bookingURL, "booking-url", "", "booking link")
	cmd.Flags().StringVar(&m.notes, "notes", "", "free text notes")
	cmd.Flags().BoolVar(&m.alert, "alert", false, "send an alert if the deal qualifies")
	cmd.Flags().BoolVar(&m.force, "force", false, "with --alert, bypass the alert rules")
}

func (m *metaFlags) meta() model.OfferMeta {
	return model.OfferMeta{
		FoundAt:    time.Now(),
		Source:     m.source,
		BookingURL: m.bookingURL,
		Notes:      m.notes,
	}
}

type field struct {
	name  string
	value any
}

func parseDates(from, to string) (model.Date, model.Date, error) {
	start, err := model.ParseDate(from)
	if err != nil {
		return model.Date{}, model.Date{}, err
	}
	end, err := model.ParseDate(to)
	if err != nil {
		return model.Date{}, model.Date{}, err
	}
	return start, end, nil
}

func optional(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

type flightFlags struct {
	origin, dest, depart, ret, airline, cabin string
	stops                                     int
	flightNumbers                             []string
}

func (f *flightFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.origin, "origin", "", "origin airport (e.g. MSP)")
	cmd.Flags().StringVar(&f.dest, "dest", "", "destination airport (e.g. CUN)")
	cmd.Flags().StringVar(&f.depart, "depart", "", "departure date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.ret, "return", "", "return date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.airline, "airline", "Delta", "airline name")
	cmd.Flags().StringVar(&f.cabin, "cabin", "economy", "cabin class: economy, premium_economy, business, first")
	cmd.Flags().IntVar(&f.stops, "stops", 0, "number of stops")
	cmd.Flags().StringSliceVar(&f.flightNumbers, "flight-numbers", nil, "comma separated flight numbers")
	for _, name := range []string{"origin", "dest", "depart", "return"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (f *flightFlags) flight() (model.Flight, error) {
	start, end, err := parseDates(f.depart, f.ret)
	if err != nil {
		return model.Flight{}, err
	}
	cabin, err := model.ParseCabin(f.cabin)
	if err != nil {
		return model.Flight{}, err
	}
	return model.Flight{
		Origin:        strings.ToUpper(f.origin),
		Destination:   strings.ToUpper(f.dest),
		DepartureDate: start,
		ReturnDate:    end,
		Airline:       f.airline,
		Cabin:         cabin,
		Stops:         f.stops,
		FlightNumbers: f.flightNumbers,
	}, nil
}

type stayFlags struct {
	dest, property, checkIn, checkOut, roomType string
}

func (s *stayFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.dest, "dest", "", "destination airport code")
	cmd.Flags().StringVar(&s.property, "property", "", "property name")
	cmd.Flags().StringVar(&s.checkIn, "checkin", "", "check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&s.checkOut, "checkout", "", "check-out date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&s.roomType, "room-type", "", "room type")
	for _, name := range []string{"dest", "property", "checkin", "checkout"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (s *stayFlags) stay() (model.Stay, error) {
	in, out, err := parseDates(s.checkIn, s.checkOut)
	if err != nil {
		return model.Stay{}, err
	}
	return model.Stay{
		Destination:  strings.ToUpper(s.dest),
		PropertyName: s.property,
		CheckIn:      in,
		CheckOut:     out,
		RoomType:     s.roomType,
	}, nil
}

func (c *cli) addFlightCmd() *cobra.Command {
	var (
		ff    flightFlags
		mf    metaFlags
		price float64
	)
	cmd := &cobra.Command{
		Use:   "add-flight",
		Short: "Add a cash flight deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.flight()
			if err != nil {
				return err
			}
			o := &model.CashFlight{Flight: f, OfferMeta: mf.meta(), PriceCash: price}
			return c.save(cmd.Context(), o, nil, mf, func(d *model.StoredDeal) []field {
				m := d.Offer.Common().Metrics
				return []field{
					{"route", f.Origin + " → " + f.Destination},
					{"total_value", m.TotalValue},
					{"discount_pct", m.DiscountPct},
				}
			})
		},
	}
	ff.bind(cmd)
	mf.bind(cmd)
	cmd.Flags().Float64Var(&price, "price", 0, "total price for the family")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (c *cli) addAwardCmd() *cobra.Command {
	var (
		ff        flightFlags
		mf        metaFlags
		points    int64
		currency  string
		taxes     float64
		cashPrice float64
	)
	cmd := &cobra.Command{
		Use:   "add-award",
		Short: "Add an award flight deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.flight()
			if err != nil {
				return err
			}
			o := &model.AwardFlight{
				Flight:         f,
				OfferMeta:      mf.meta(),
				PricePoints:    points,
				PointsCurrency: currency,
				TaxesFees:      taxes,
			}
			return c.save(cmd.Context(), o, optional(cashPrice), mf, func(d *model.StoredDeal) []field {
				m := d.Offer.Common().Metrics
				return []field{
					{"route", f.Origin + " → " + f.Destination},
					{"cpp_value", m.CPP},
					{"total_value", m.TotalValue},
				}
			})
		},
	}
	ff.bind(cmd)
	mf.bind(cmd)
	cmd.Flags().Int64Var(&points, "points", 0, "points per person")
	cmd.Flags().StringVar(&currency, "currency", model.CurrencyDeltaSkyMiles, "points currency")
	cmd.Flags().Float64Var(&taxes, "taxes", 5.60, "taxes and fees per person")
	cmd.Flags().Float64Var(&cashPrice, "cash-price", 0, "cash price of the same trip for the family (default: estimate)")
	_ = cmd.MarkFlagRequired("points")
	return cmd
}

func (c *cli) addHotelCmd() *cobra.Command {
	var (
		sf         stayFlags
		mf         metaFlags
		nightly    float64
		total      float64
		resortFees float64
	)
	cmd := &cobra.Command{
		Use:   "add-hotel",
		Short: "Add a cash hotel deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := sf.stay()
			if err != nil {
				return err
			}
			if nightly <= 0 && total <= 0 {
				return fmt.Errorf("one of --nightly or --total is required")
			}
			o := &model.CashHotel{
				Stay:              s,
				OfferMeta:         mf.meta(),
				PricePerNightCash: nightly,
				TotalPriceCash:    total,
				ResortFees:        resortFees,
			}
			return c.save(cmd.Context(), o, nil, mf, hotelFields)
		},
	}
	sf.bind(cmd)
	mf.bind(cmd)
	cmd.Flags().Float64Var(&nightly, "nightly", 0, "cash price per night")
	cmd.Flags().Float64Var(&total, "total", 0, "cash total for the stay")
	cmd.Flags().Float64Var(&resortFees, "resort-fees", 0, "resort fees for the stay")
	return cmd
}

func (c *cli) addPointsHotelCmd() *cobra.Command {
	var (
		sf         stayFlags
		mf         metaFlags
		points     int64
		currency   string
		nightly    float64
		cashTotal  float64
		resortFees float64
	)
	cmd := &cobra.Command{
		Use:   "add-points-hotel",
		Short: "Add a hotel stay booked with points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := sf.stay()
			if err != nil {
				return err
			}
			o := &model.PointsHotel{
				Stay:              s,
				OfferMeta:         mf.meta(),
				TotalPricePoints:  points,
				PointsCurrency:    currency,
				ResortFees:        resortFees,
				PricePerNightCash: nightly,
			}
			return c.save(cmd.Context(), o, optional(cashTotal), mf, func(d *model.StoredDeal) []field {
				return []field{
					{"property", s.PropertyName},
					{"cpp_value", d.Offer.Common().Metrics.CPP},
				}
			})
		},
	}
	sf.bind(cmd)
	mf.bind(cmd)
	cmd.Flags().Int64Var(&points, "points", 0, "points for the whole stay")
	cmd.Flags().StringVar(&currency, "currency", model.CurrencyHilton, "points currency")
	cmd.Flags().Float64Var(&nightly, "nightly-cash", 0, "cash rate per night for the same room")
	cmd.Flags().Float64Var(&cashTotal, "cash-total", 0, "cash price of the whole stay (overrides --nightly-cash)")
	cmd.Flags().Float64Var(&resortFees, "resort-fees", 0, "resort fees paid in cash")
	_ = cmd.MarkFlagRequired("points")
	return cmd
}

func (c *cli) addResortCmd() *cobra.Command {
	var (
		sf                    stayFlags
		mf                    metaFlags
		total, resortFees     float64
		meals, drinks, extras bool
	)
	cmd := &cobra.Command{
		Use:   "add-resort",
		Short: "Add an all-inclusive resort deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := sf.stay()
			if err != nil {
				return err
			}
			o := &model.AllInclusiveHotel{
				CashHotel: model.CashHotel{
					Stay:           s,
					OfferMeta:      mf.meta(),
					TotalPriceCash: total,
					ResortFees:     resortFees,
				},
				IncludesMeals:      meals,
				IncludesDrinks:     drinks,
				IncludesActivities: extras,
			}
			return c.save(cmd.Context(), o, nil, mf, hotelFields)
		},
	}
	sf.bind(cmd)
	mf.bind(cmd)
	cmd.Flags().Float64Var(&total, "total", 0, "total price for the family")
	cmd.Flags().Float64Var(&resortFees, "resort-fees", 0, "resort fees for the stay")
	cmd.Flags().BoolVar(&meals, "meals", true, "meals included")
	cmd.Flags().BoolVar(&drinks, "drinks", true, "drinks included")
	cmd.Flags().BoolVar(&extras, "activities", false, "activities included")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}

func (c *cli) addPackageCmd() *cobra.Command {
	var (
		flightKey, hotelKey, dest string
		baseline, packagePrice    float64
		mf                        metaFlags
	)
	cmd := &cobra.Command{
		Use:   "add-package",
		Short: "Bundle stored flight and hotel deals into a trip package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flightKey == "" && hotelKey == "" {
				return fmt.Errorf("one of --flight or --hotel is required")
			}
			p := &model.TripPackage{
				FoundAt:      time.Now(),
				Source:       mf.source,
				PackagePrice: optional(packagePrice),
			}
			if flightKey != "" {
				f, err := c.offer(flightKey)
				if err != nil {
					return err
				}
				fo, ok := f.(model.FlightOffer)
				if !ok {
					return fmt.Errorf("%s is not a flight", flightKey)
				}
				p.Flight = fo
				p.StartDate, p.EndDate = fo.Period()
				p.Destination = fo.Location()
			}
			if hotelKey != "" {
				h, err := c.offer(hotelKey)
				if err != nil {
					return err
				}
				ho, ok := h.(model.HotelOffer)
				if !ok {
					return fmt.Errorf("%s is not a hotel", hotelKey)
				}
				p.Hotel = ho
				if p.Flight == nil {
					p.StartDate, p.EndDate = ho.Period()
					p.Destination = ho.Location()
				}
			}
			if dest != "" {
				p.Destination = strings.ToUpper(dest)
			}

			var d *model.StoredDeal
			err := c.locked(func() error {
				var err error
				d, err = c.app.SavePackage(p, optional(baseline))
				return err
			})
			if err != nil {
				return err
			}
			return c.report(cmd.Context(), d, mf, []field{
				{"total_cash_cost", d.Package.Totals.TotalCashCost},
				{"total_points_used", d.Package.Totals.TotalPointsUsed},
				{"savings_pct", d.Package.SavingsPct},
				{"recommendation", d.Package.Recommendation},
			})
		},
	}
	mf.bind(cmd)
	cmd.Flags().StringVar(&flightKey, "flight", "", "key of a stored flight deal")
	cmd.Flags().StringVar(&hotelKey, "hotel", "", "key of a stored hotel deal")
	cmd.Flags().StringVar(&dest, "dest", "", "destination (default: from the components)")
	cmd.Flags().Float64Var(&baseline, "baseline", 0, "baseline trip cost to measure savings against")
	cmd.Flags().Float64Var(&packagePrice, "package-price", 0, "bundled price, if sold as a package")
	return cmd
}

func (c *cli) offer(key string) (model.Offer, error) {
	d, err := c.app.Store.Get(key)
	if err != nil {
		return nil, err
	}
	if d == nil || d.Offer == nil {
		return nil, fmt.Errorf("no stored offer %s", key)
	}
	return d.Offer, nil
}

func hotelFields(d *model.StoredDeal) []field {
	return []field{
		{"property", d.Offer.(model.HotelOffer).Lodging().PropertyName},
		{"per_person_per_night", d.Offer.Common().Metrics.PerPersonPerNight},
	}
}

func (c *cli) save(ctx context.Context, o model.Offer, baseline *float64, mf metaFlags, fields func(*model.StoredDeal) []field) error {
	var d *model.StoredDeal
	err := c.locked(func() error {
		var err error
		d, err = c.app.Save(o, baseline)
		return err
	})
	if err != nil {
		return err
	}
	return c.report(ctx, d, mf, fields(d))
}

// report prints the saved deal and dispatches an alert when asked to.
func (c *cli) report(ctx context.Context, d *model.StoredDeal, mf metaFlags, fields []field) error {
	result := map[string]any{
		"success":  true,
		"deal_key": d.Key,
		"status":   d.Status(),
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Saved %s (%s)", d.Key, d.Status())
	for _, f := range fields {
		result[f.name] = f.value
		if s := fieldText(f.value); s != "" {
			fmt.Fprintf(&b, "\n   %s: %s", f.name, s)
		}
	}

	if mf.alert {
		decision := c.app.Policy.Decide(d.Key, d.Status(), mf.force, false)
		var sent bool
		err := c.locked(func() error {
			var err error
			sent, err = c.app.Policy.Dispatch(ctx, d, c.app.Sender, mf.force)
			return err
		})
		if err != nil {
			return err
		}
		result["alert"] = map[string]any{"sent": sent, "reason": decision.Reason}
		fmt.Fprintf(&b, "\n   alert: %s", decision.Reason)
		if decision.Send && !sent {
			b.WriteString(" (not delivered, telegram not configured)")
		}
	}
	return c.emit(b.String(), result)
}

func fieldText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case *float64:
		if x == nil {
			return ""
		}
		return fmt.Sprintf("%.2f", *x)
	case float64:
		return fmt.Sprintf("%.2f", x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
