package store

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"DealSentinel/internal/calculator"
	"DealSentinel/internal/model"
)

// DefaultExpiryDays is the age after which ExpireOlderThan marks deals expired.
const DefaultExpiryDays = 7

// Store persists evaluated deals keyed by identity, their price history,
// the explicit baseline table and the alert ledger. Operations are
// synchronous and serialized within the process.
type Store struct {
	mu        sync.Mutex
	backend   Backend
	logger    *slog.Logger
	now       func() time.Time
	onCorrupt func(collection string)
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRecordCorruptionHook is called for every stored record that fails to decode.
func WithRecordCorruptionHook(fn func(collection string)) Option {
	return func(s *Store) { s.onCorrupt = fn }
}

// New wraps a backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}

// Put stores an offer under its identity key, replacing any earlier record,
// and appends its cash price to the route history.
func (s *Store) Put(o model.Offer) (string, error) {
	if err := model.ValidateOffer(o); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := OfferKey(o)
	now := s.now()
	prev, err := s.getLocked(key)
	if err != nil {
		return "", err
	}
	if prev != nil && prev.Offer != nil {
		if old, cur := model.CashPrice(prev.Offer), model.CashPrice(o); old != cur {
			s.logger.Info("price change", "key", key, "from", old, "to", cur)
		}
	}

	deal := &model.StoredDeal{Key: key, Kind: model.DealOffer, Offer: o.Clone(), UpdatedAt: now}
	if err := s.putRecord(CollectionDeals, key, deal); err != nil {
		return "", err
	}
	if price := model.CashPrice(o); price > 0 {
		if err := s.appendHistoryLocked(RouteKey(o), now, price); err != nil {
			return key, err
		}
	}
	return key, nil
}

// PutPackage stores a trip package under its identity key.
func (s *Store) PutPackage(p *model.TripPackage) (string, error) {
	if p == nil {
		return "", &model.InvalidOfferError{Field: "package", Reason: "is missing"}
	}
	if err := p.Check(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := PackageKey(p)
	prev, err := s.getLocked(key)
	if err != nil {
		return "", err
	}
	if prev != nil && prev.Package != nil && prev.Package.Totals.TotalCashCost != p.Totals.TotalCashCost {
		s.logger.Info("price change", "key", key,
			"from", prev.Package.Totals.TotalCashCost, "to", p.Totals.TotalCashCost)
	}
	deal := &model.StoredDeal{Key: key, Kind: model.DealPackage, Package: p.Clone(), UpdatedAt: s.now()}
	if err := s.putRecord(CollectionDeals, key, deal); err != nil {
		return "", err
	}
	return key, nil
}

// Get returns the deal under key, or nil when there is none.
func (s *Store) Get(key string) (*model.StoredDeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

// List returns deals sorted by key. An empty status returns every deal.
func (s *Store) List(status model.QualityTier) ([]*model.StoredDeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deals, err := s.loadDeals()
	if err != nil {
		return nil, err
	}
	out := make([]*model.StoredDeal, 0, len(deals))
	for _, d := range deals {
		if status == "" || d.Status() == status {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes a deal. Its price history is kept.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(CollectionDeals, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ExpireOlderThan marks deals found more than days whole days ago as
// EXPIRED and returns how many changed. Deals without found_at never expire.
func (s *Store) ExpireOlderThan(days int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deals, err := s.loadDeals()
	if err != nil {
		return 0, err
	}
	now := s.now()
	changed := map[string][]byte{}
	for key, d := range deals {
		found := d.FoundAt()
		if found.IsZero() || d.Status() == model.TierExpired {
			continue
		}
		age := int(now.Sub(found).Hours() / 24)
		if age <= days {
			continue
		}
		d.SetStatus(model.TierExpired)
		d.UpdatedAt = now
		data, err := json.Marshal(d)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", key, err)
		}
		changed[key] = data
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := s.backend.Put(CollectionDeals, changed); err != nil {
		return 0, fmt.Errorf("save expired deals: %w", err)
	}
	s.logger.Info("expired old deals", "count", len(changed), "older_than_days", days)
	return len(changed), nil
}

// History returns the price series for a route key.
func (s *Store) History(routeKey string) (*model.PriceHistory, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked(routeKey)
}

// HistoryStats summarizes the price series for a route key.
func (s *Store) HistoryStats(routeKey string) (calculator.Stats, bool, error) {
	h, ok, err := s.History(routeKey)
	if err != nil || !ok {
		return calculator.Stats{}, ok, err
	}
	return calculator.Summarize(h), true, nil
}

// HistoryKeys lists the tracked route keys.
func (s *Store) HistoryKeys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.backend.Load(CollectionHistory)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", CollectionHistory, err)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) historyLocked(routeKey string) (*model.PriceHistory, bool, error) {
	var h model.PriceHistory
	ok, err := s.getRecord(CollectionHistory, routeKey, &h)
	if err != nil || !ok {
		return nil, false, err
	}
	return &h, true, nil
}

func (s *Store) appendHistoryLocked(routeKey string, at time.Time, price float64) error {
	h, ok, err := s.historyLocked(routeKey)
	if err != nil {
		return err
	}
	if !ok {
		h = &model.PriceHistory{RouteKey: routeKey}
	}
	h.Add(at, price)
	return s.putRecord(CollectionHistory, routeKey, h)
}

// SetBaseline records a caller-set reference price for a route month.
func (s *Store) SetBaseline(origin, dest, month string, price float64) error {
	if price < 0 {
		return &model.InvalidOfferError{Field: "baseline", Reason: "must not be negative"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putRecord(CollectionBaselines, BaselineKey(origin, dest, month), price)
}

// Baseline returns the reference price for a route month.
func (s *Store) Baseline(origin, dest, month string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var price float64
	ok, err := s.getRecord(CollectionBaselines, BaselineKey(origin, dest, month), &price)
	return price, ok, err
}

// LookupBaseline adapts Baseline to the estimator lookup signature.
// Backend errors are logged and reported as a miss.
func (s *Store) LookupBaseline(origin, dest, month string) (float64, bool) {
	price, ok, err := s.Baseline(origin, dest, month)
	if err != nil {
		s.logger.Warn("baseline lookup failed", "route", BaselineKey(origin, dest, month), "error", err)
		return 0, false
	}
	return price, ok
}

// Baselines returns a copy of the whole baseline table.
func (s *Store) Baselines() (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.backend.Load(CollectionBaselines)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", CollectionBaselines, err)
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		var price float64
		if !s.decode(CollectionBaselines, k, v, &price) {
			continue
		}
		out[k] = price
	}
	return out, nil
}

// DiscountPct compares a stored flight's cash price with the baseline table.
// It returns nil when there is no baseline or no cash price.
func (s *Store) DiscountPct(d *model.StoredDeal) (*float64, error) {
	if d == nil || d.Offer == nil {
		return nil, nil
	}
	f, ok := d.Offer.(model.FlightOffer)
	if !ok {
		return nil, nil
	}
	price := model.CashPrice(d.Offer)
	if price <= 0 {
		return nil, nil
	}
	r := f.Route()
	baseline, found, err := s.Baseline(r.Origin, r.Destination, r.DepartureDate.MonthKey())
	if err != nil || !found || baseline <= 0 {
		return nil, err
	}
	pct := (baseline - price) / baseline * 100
	return &pct, nil
}

// LastAlert returns the throttle record for a deal key, or nil.
func (s *Store) LastAlert(key string) (*model.AlertRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rec model.AlertRecord
	ok, err := s.getRecord(CollectionAlerts, key, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// RecordAlert stamps a successful notification and bumps its count.
func (s *Store) RecordAlert(key string, alertType model.QualityTier, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rec model.AlertRecord
	if _, err := s.getRecord(CollectionAlerts, key, &rec); err != nil {
		return err
	}
	rec.Key = key
	rec.LastAlert = at
	rec.AlertType = alertType
	rec.Count++
	return s.putRecord(CollectionAlerts, key, rec)
}

func (s *Store) getLocked(key string) (*model.StoredDeal, error) {
	var d model.StoredDeal
	ok, err := s.getRecord(CollectionDeals, key, &d)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

func (s *Store) loadDeals() (map[string]*model.StoredDeal, error) {
	raw, err := s.backend.Load(CollectionDeals)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", CollectionDeals, err)
	}
	out := make(map[string]*model.StoredDeal, len(raw))
	for k, v := range raw {
		var d model.StoredDeal
		if !s.decode(CollectionDeals, k, v, &d) {
			continue
		}
		d.Key = k
		out[k] = &d
	}
	return out, nil
}

type getter interface {
	Get(collection, key string) ([]byte, bool, error)
}

// getRecord decodes one record into dst. Malformed records count as missing.
func (s *Store) getRecord(collection, key string, dst any) (bool, error) {
	var (
		data  []byte
		found bool
	)
	if g, ok := s.backend.(getter); ok {
		v, ok, err := g.Get(collection, key)
		if err != nil {
			return false, fmt.Errorf("get %s/%s: %w", collection, key, err)
		}
		data, found = v, ok
	} else {
		raw, err := s.backend.Load(collection)
		if err != nil {
			return false, fmt.Errorf("load %s: %w", collection, err)
		}
		data, found = raw[key]
	}
	if !found {
		return false, nil
	}
	return s.decode(collection, key, data, dst), nil
}

func (s *Store) decode(collection, key string, data []byte, dst any) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("skipping malformed record", "collection", collection, "key", key, "error", err)
		if s.onCorrupt != nil {
			s.onCorrupt(collection)
		}
		return false
	}
	return true
}

func (s *Store) putRecord(collection, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	if err := s.backend.Put(collection, map[string][]byte{key: data}); err != nil {
		return fmt.Errorf("save %s/%s: %w", collection, key, err)
	}
	return nil
}
