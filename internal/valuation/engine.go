package valuation

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"DealSentinel/internal/model"
)

// Observer is told about every completed evaluation.
type Observer interface {
	ObserveEvaluation(kind string, status model.QualityTier)
}

// Engine evaluates offers and packages against a ValueConfig.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg       model.ValueConfig
	estimator CashPriceEstimator
	observer  Observer
	logger    *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithEstimator replaces the region-table cash price estimator.
func WithEstimator(e CashPriceEstimator) Option {
	return func(en *Engine) { en.estimator = e }
}

// WithObserver reports evaluation outcomes, typically to metrics.
func WithObserver(o Observer) Option {
	return func(en *Engine) { en.observer = o }
}

// WithLogger sets the logger used for config lookup warnings.
func WithLogger(l *slog.Logger) Option {
	return func(en *Engine) { en.logger = l }
}

// New creates an Engine.
func New(cfg model.ValueConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		estimator: RegionTableEstimator{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the valuation policy.
func (e *Engine) Config() model.ValueConfig { return e.cfg }

// Evaluate dispatches to EvaluateFlight or EvaluateHotel.
func (e *Engine) Evaluate(o model.Offer, baseline *float64) (model.Offer, error) {
	switch v := o.(type) {
	case model.FlightOffer:
		return e.EvaluateFlight(v, baseline)
	case model.HotelOffer:
		return e.EvaluateHotel(v, baseline)
	default:
		return nil, &model.InvalidOfferError{Field: "offer", Reason: fmt.Sprintf("unsupported type %T", o)}
	}
}

// EvaluateFlight returns a copy of the offer with status and metrics set.
// baseline, when positive, is the family cash fare to compare against and
// replaces the estimator.
func (e *Engine) EvaluateFlight(o model.FlightOffer, baseline *float64) (model.FlightOffer, error) {
	if err := model.ValidateOffer(o); err != nil {
		return nil, err
	}
	out := o.Clone().(model.FlightOffer)
	family := e.cfg.Family()
	meta := out.Common()
	meta.Metrics = model.Metrics{}

	cashEquivalent := func() float64 {
		if baseline != nil && *baseline > 0 {
			return *baseline
		}
		return e.estimator.EstimateFlight(out.Route(), family)
	}

	switch f := out.(type) {
	case *model.CashFlight:
		estimate := cashEquivalent()
		meta.Metrics.TotalValue = f.PriceCash
		discount := 0.0
		if estimate > 0 {
			discount = (estimate - f.PriceCash) / estimate * 100
		}
		meta.Metrics.DiscountPct = &discount
		meta.Status = DiscountTier(discount)

	case *model.AwardFlight:
		cash := cashEquivalent()
		totalPoints := f.PricePoints * int64(family)
		totalTaxes := f.TaxesFees * float64(family)
		cpp := CalculateCPP(cash, totalPoints, totalTaxes)
		meta.Metrics.CPP = &cpp
		meta.Metrics.TotalValue = cash
		meta.Metrics.SavingsVsCash = cash - totalTaxes

		currency := f.PointsCurrency
		if currency == "" {
			currency = model.CurrencyDeltaSkyMiles
		}
		meta.Status = CPPTier(cpp, e.thresholds(currency, DefaultFlightThresholds))

	default:
		return nil, &model.InvalidOfferError{Field: "offer", Reason: fmt.Sprintf("unsupported flight type %T", out)}
	}

	if note, ok := e.upgradeAdvisory(out.Route(), meta.Metrics.TotalValue); ok {
		meta.Metrics.Advisories = append(meta.Metrics.Advisories, note)
	}

	e.observe(string(out.Kind()), meta.Status)
	return out, nil
}

// EvaluateHotel returns a copy of the offer with status and metrics set.
// For points stays, baseline is the cash price of the whole stay.
func (e *Engine) EvaluateHotel(o model.HotelOffer, baseline *float64) (model.HotelOffer, error) {
	if err := model.ValidateOffer(o); err != nil {
		return nil, err
	}
	out := o.Clone().(model.HotelOffer)
	family := e.cfg.Family()
	meta := out.Common()
	meta.Metrics = model.Metrics{}
	nights := out.Lodging().Nights()

	switch h := out.(type) {
	case *model.CashHotel:
		e.evaluateCashStay(h, meta, nights, family, baseline)
	case *model.AllInclusiveHotel:
		e.evaluateCashStay(&h.CashHotel, meta, nights, family, baseline)

	case *model.PointsHotel:
		cash := 0.0
		if baseline != nil && *baseline > 0 {
			cash = *baseline
		} else if h.PricePerNightCash > 0 && nights > 0 {
			cash = h.PricePerNightCash * float64(nights)
		}
		cpp := 0.0
		meta.Status = model.TierAcceptable
		if cash > 0 && h.TotalPricePoints > 0 {
			cpp = CalculateCPP(cash, h.TotalPricePoints, h.ResortFees)
			meta.Metrics.TotalValue = cash
			meta.Metrics.SavingsVsCash = cash - h.ResortFees
			currency := h.PointsCurrency
			if currency == "" {
				currency = model.CurrencyHilton
			}
			meta.Status = CPPTier(cpp, e.thresholds(currency, DefaultHotelThresholds))
		}
		meta.Metrics.CPP = &cpp

	default:
		return nil, &model.InvalidOfferError{Field: "offer", Reason: fmt.Sprintf("unsupported hotel type %T", out)}
	}

	e.observe(string(out.Kind()), meta.Status)
	return out, nil
}

func (e *Engine) evaluateCashStay(h *model.CashHotel, meta *model.OfferMeta, nights, family int, baseline *float64) {
	total := h.TotalCash()
	meta.Metrics.TotalValue = total
	if baseline != nil && *baseline > 0 {
		discount := (*baseline - total) / *baseline * 100
		meta.Metrics.DiscountPct = &discount
		meta.Metrics.SavingsVsCash = *baseline - total
	}
	if nights <= 0 {
		zero := 0.0
		meta.Metrics.PerPersonPerNight = &zero
		meta.Status = model.TierAcceptable
		return
	}
	ppn := total / float64(nights*family)
	meta.Metrics.PerPersonPerNight = &ppn
	meta.Status = NightlyTier(ppn)
}

// EvaluatePackage evaluates unevaluated components, recomputes totals and takes the
// worst component tier. baselineTotal, when given, is kept on the package;
// a positive baseline yields savings figures on this and later evaluations.
func (e *Engine) EvaluatePackage(p *model.TripPackage, baselineTotal *float64) (*model.TripPackage, error) {
	if p == nil {
		return nil, &model.InvalidOfferError{Field: "package", Reason: "is missing"}
	}
	if err := p.Check(); err != nil {
		return nil, err
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() || !p.EndDate.After(p.StartDate.Time) {
		return nil, &model.InvalidOfferError{Field: "dates", Reason: "end must be after start"}
	}
	out := p.Clone()

	var tiers []model.QualityTier
	// Components that already carry a status keep it, along with any
	// baseline they were evaluated against.
	if out.Flight != nil {
		if out.Flight.Common().Status == "" {
			f, err := e.EvaluateFlight(out.Flight, nil)
			if err != nil {
				return nil, err
			}
			out.Flight = f
		}
		tiers = append(tiers, out.Flight.Common().Status)
	}
	if out.Hotel != nil {
		if out.Hotel.Common().Status == "" {
			h, err := e.EvaluateHotel(out.Hotel, nil)
			if err != nil {
				return nil, err
			}
			out.Hotel = h
		}
		tiers = append(tiers, out.Hotel.Common().Status)
	}

	out.RecomputeTotals(e.cfg.Family())
	out.Status = model.Worst(tiers...)

	if baselineTotal != nil {
		v := *baselineTotal
		out.BaselineTotal = &v
	}
	out.SavingsAmount, out.SavingsPct = nil, nil
	if b := out.BaselineTotal; b != nil && *b > 0 {
		savings := *b - out.Totals.TotalCashCost
		pct := savings / *b * 100
		out.SavingsAmount = &savings
		out.SavingsPct = &pct
	}

	out.Recommendation = e.Recommendation(out)
	out.BookingSteps = e.BookingSteps(out)

	e.observe(string(model.DealPackage), out.Status)
	return out, nil
}

// Thresholds returns the configured thresholds for a currency, or the
// flight defaults when the currency is unknown.
func (e *Engine) Thresholds(currency string) model.PointsThresholds {
	return e.thresholds(currency, DefaultFlightThresholds)
}

// thresholds looks up a currency, logging a warning on a miss.
func (e *Engine) thresholds(currency string, fallback model.PointsThresholds) model.PointsThresholds {
	t, ok := e.cfg.Thresholds(currency, fallback)
	if !ok {
		e.logger.Warn("points currency not configured, using default thresholds",
			"currency", currency, "min_cpp", fallback.Min, "target_cpp", fallback.Target)
	}
	return t
}

func (e *Engine) upgradeAdvisory(f *model.Flight, totalValue float64) (string, bool) {
	l := e.cfg.Loyalty
	if l.Carrier == "" || !strings.EqualFold(f.Airline, l.Carrier) {
		return "", false
	}
	if f.Cabin != "" && f.Cabin != model.CabinEconomy {
		return "", false
	}
	bonus := l.UpgradeProbability * totalValue * (l.UpgradeMultiplier - 1)
	return fmt.Sprintf("%s upgrade potential: +$%.0f expected value", l.Carrier, bonus), true
}

func (e *Engine) observe(kind string, status model.QualityTier) {
	if e.observer != nil {
		e.observer.ObserveEvaluation(kind, status)
	}
}
