package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder owns the service's Prometheus collectors. Each instance registers
// on its own registry so tests can build as many as they like.
type Recorder struct {
	Registry *prometheus.Registry

	checkoutsCreated  *prometheus.CounterVec
	checkoutsRejected *prometheus.CounterVec
	reconciliations   *prometheus.CounterVec
	anomalies         prometheus.Counter
	lifecycle         *prometheus.CounterVec
	accessDenied      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		checkoutsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe_app",
			Name:      "checkouts_created_total",
			Help:      "Checkout sessions created, by provider.",
		}, []string{"provider"}),
		checkoutsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe_app",
			Name:      "checkouts_rejected_total",
			Help:      "Checkout attempts rejected before reaching the provider, by reason.",
		}, []string{"reason"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe_app",
			Name:      "reconciliations_total",
			Help:      "Payment reconciliations, by outcome (noop, updated, activated).",
		}, []string{"outcome"}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recipe_app",
			Name:      "reconciliation_anomalies_total",
			Help:      "Paid sessions whose subscription activation failed.",
		}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe_app",
			Name:      "subscription_lifecycle_total",
			Help:      "Subscription lifecycle operations, by operation.",
		}, []string{"operation"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe_app",
			Name:      "premium_access_denied_total",
			Help:      "Gated feature requests denied, by feature.",
		}, []string{"feature"}),
	}

	r.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.checkoutsCreated,
		r.checkoutsRejected,
		r.reconciliations,
		r.anomalies,
		r.lifecycle,
		r.accessDenied,
	)
	return r
}

func (r *Recorder) CheckoutCreated(provider string) {
	r.checkoutsCreated.WithLabelValues(provider).Inc()
}

func (r *Recorder) CheckoutRejected(reason string) {
	r.checkoutsRejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) Reconciled(outcome string) {
	r.reconciliations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ReconciliationAnomaly() {
	r.anomalies.Inc()
}

func (r *Recorder) Lifecycle(operation string) {
	r.lifecycle.WithLabelValues(operation).Inc()
}

func (r *Recorder) AccessDenied(feature string) {
	r.accessDenied.WithLabelValues(feature).Inc()
}
