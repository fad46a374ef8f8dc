package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dispatch"

// Metrics holds the Prometheus collectors for the dispatch loop.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	ticks              prometheus.Counter
	enRoute            prometheus.Gauge
	routeFetches       *prometheus.CounterVec
	routeFetchDuration prometheus.Histogram
	reconcileActions   *prometheus.CounterVec
	optimizerRequests  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of scheduler ticks executed",
		}),
		enRoute: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicles_en_route",
			Help:      "Vehicles with a route that have not yet arrived",
		}),
		routeFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_fetches_total",
			Help:      "Route fetches by outcome (applied, superseded, failed)",
		}, []string{"outcome"}),
		routeFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_fetch_duration_seconds",
			Help:      "Routing provider latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		reconcileActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_actions_total",
			Help:      "Per-vehicle reconciliation decisions",
		}, []string{"action"}),
		optimizerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimizer_requests_total",
			Help:      "Optimizer calls by outcome",
		}, []string{"outcome"}),
	}

	m.Registry.MustRegister(
		m.ticks,
		m.enRoute,
		m.routeFetches,
		m.routeFetchDuration,
		m.reconcileActions,
		m.optimizerRequests,
	)
	return m
}

func (m *Metrics) Tick(enRoute int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.enRoute.Set(float64(enRoute))
}

func (m *Metrics) RouteFetch(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.routeFetches.WithLabelValues(outcome).Inc()
	m.routeFetchDuration.Observe(dur.Seconds())
}

func (m *Metrics) ReconcileAction(action string) {
	if m == nil {
		return
	}
	m.reconcileActions.WithLabelValues(action).Inc()
}

func (m *Metrics) OptimizerRequest(outcome string) {
	if m == nil {
		return
	}
	m.optimizerRequests.WithLabelValues(outcome).Inc()
}
