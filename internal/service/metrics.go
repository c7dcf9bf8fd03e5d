package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors of the cart and checkout flows.
// A nil *Metrics records nothing.
type Metrics struct {
	cartMutations       *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	checkouts           *prometheus.CounterVec
	checkoutDuration    prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cartMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menu",
			Name:      "cart_mutations_total",
			Help:      "Committed cart mutations by operation.",
		}, []string{"operation"}),
		persistenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menu",
			Name:      "cart_persistence_failures_total",
			Help:      "Cart snapshot reads and writes that failed.",
		}, []string{"op"}),
		checkouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menu",
			Name:      "checkout_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		checkoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "menu",
			Name:      "checkout_submit_duration_seconds",
			Help:      "Time spent waiting on the order submission service.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) cartMutation(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) persistenceFailure(op string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) checkout(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeSubmit(seconds float64) {
	if m == nil {
		return
	}
	m.checkoutDuration.Observe(seconds)
}
