// Package metrics exposes Prometheus counters for the staging pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	stagedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stager_strategies_staged_total",
			Help: "Strategies that passed validation and risk and were staged",
		},
		[]string{"symbol", "archetype"},
	)

	rejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stager_strategies_rejected_total",
			Help: "Strategies turned away before staging",
		},
		[]string{"reason"}, // structural | risk
	)

	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stager_order_transitions_total",
			Help: "Successful order status transitions",
		},
		[]string{"to"},
	)

	conflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stager_cas_conflicts_total",
			Help: "Compare-and-set conflicts observed by the controller",
		},
	)

	riskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stager_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: []float64{5, 10, 25, 50, 75, 90, 100},
		},
	)
)

func init() {
	prometheus.MustRegister(stagedTotal)
	prometheus.MustRegister(rejectedTotal)
	prometheus.MustRegister(transitionsTotal)
	prometheus.MustRegister(conflictsTotal)
	prometheus.MustRegister(riskScore)
}

func RecordStaged(symbol, archetype string) {
	stagedTotal.WithLabelValues(symbol, archetype).Inc()
}

func RecordRejected(reason string) {
	rejectedTotal.WithLabelValues(reason).Inc()
}

func RecordTransition(to string) {
	transitionsTotal.WithLabelValues(to).Inc()
}

func RecordConflict() {
	conflictsTotal.Inc()
}

func ObserveRiskScore(score float64) {
	riskScore.Observe(score)
}

// Handler serves the registered collectors in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr and blocks until the listener fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
