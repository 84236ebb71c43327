package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"DealSentinel/internal/model"
)

// Registry holds the deal counters. It satisfies the valuation and alert
// observer interfaces and provides a store corruption hook.
type Registry struct {
	reg              *prometheus.Registry
	Evaluated        *prometheus.CounterVec
	AlertsSent       prometheus.Counter
	AlertsSuppressed *prometheus.CounterVec
	Expired          prometheus.Counter
	Corruptions      *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	evaluated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deals_evaluated_total",
		Help: "Evaluations by offer kind and resulting tier.",
	}, []string{"kind", "status"})
	sent := prometheus.NewCounter(prometheus.CounterOpts{Name: "alerts_sent_total"})
	suppressed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "alerts_suppressed_total"}, []string{"reason"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{Name: "deals_expired_total"})
	corruptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_corruptions_total",
		Help: "Malformed collection files or records that were reset or skipped.",
	}, []string{"collection"})

	r.MustRegister(evaluated, sent, suppressed, expired, corruptions)
	return &Registry{
		reg:              r,
		Evaluated:        evaluated,
		AlertsSent:       sent,
		AlertsSuppressed: suppressed,
		Expired:          expired,
		Corruptions:      corruptions,
	}
}

func (r *Registry) ObserveEvaluation(kind string, status model.QualityTier) {
	r.Evaluated.WithLabelValues(kind, string(status)).Inc()
}

func (r *Registry) AlertSent(_ string, _ model.QualityTier) { r.AlertsSent.Inc() }

func (r *Registry) AlertSuppressed(_, code string) {
	r.AlertsSuppressed.WithLabelValues(code).Inc()
}

// ObserveExpired adds the result of an expiry sweep.
func (r *Registry) ObserveExpired(n int) { r.Expired.Add(float64(n)) }

// ObserveCorruption matches the store corruption hook signature.
func (r *Registry) ObserveCorruption(collection string) {
	r.Corruptions.WithLabelValues(collection).Inc()
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
