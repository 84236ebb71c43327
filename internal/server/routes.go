package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"DealSentinel/internal/compare"
	"DealSentinel/internal/model"
)

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/deals", handler(s.logger, s.listDeals))
		r.Get("/deals/{key}", handler(s.logger, s.getDeal))
		r.Get("/history/{routeKey}", handler(s.logger, s.getHistory))
		r.Get("/baselines", handler(s.logger, s.listBaselines))
		r.Get("/compare", handler(s.logger, s.comparePackages))
		r.Get("/summary", handler(s.logger, s.summary))
	})
}

func (s *Server) listDeals(w http.ResponseWriter, r *http.Request) error {
	var status model.QualityTier
	if v := r.URL.Query().Get("status"); v != "" {
		t, err := model.ParseTier(v)
		if err != nil {
			return badRequest(err.Error())
		}
		status = t
	}
	deals, err := s.store.List(status)
	if err != nil {
		return err
	}
	if deals == nil {
		deals = []*model.StoredDeal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(deals), "deals": deals})
	return nil
}

func (s *Server) getDeal(w http.ResponseWriter, r *http.Request) error {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		return badRequest("bad key")
	}
	d, err := s.store.Get(key)
	if err != nil {
		return err
	}
	if d == nil {
		return notFound("deal not found: " + key)
	}
	out := map[string]any{"deal": d}
	if pct, err := s.store.DiscountPct(d); err == nil && pct != nil {
		out["discount_vs_baseline_pct"] = *pct
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) error {
	key, err := url.PathUnescape(chi.URLParam(r, "routeKey"))
	if err != nil {
		return badRequest("bad route key")
	}
	h, ok, err := s.store.History(key)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("no price history for " + key)
	}
	stats, _, err := s.store.HistoryStats(key)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": h, "stats": stats})
	return nil
}

func (s *Server) listBaselines(w http.ResponseWriter, _ *http.Request) error {
	b, err := s.store.Baselines()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, b)
	return nil
}

func (s *Server) comparePackages(w http.ResponseWriter, _ *http.Request) error {
	deals, err := s.store.List("")
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, compare.Rank(s.engine, compare.Candidates(deals)))
	return nil
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) error {
	sum, err := s.store.Summary()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sum)
	return nil
}
