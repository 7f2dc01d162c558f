package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the automation worker metrics, labelled per sweep.
type Metrics struct {
	SweepRuns     *prometheus.CounterVec
	SweepFailures *prometheus.CounterVec
	SweepSkips    *prometheus.CounterVec
	SweepDuration *prometheus.HistogramVec
	SweepItems    *prometheus.CounterVec

	NotificationsCreated prometheus.Counter
	EmailsSent           prometheus.Counter
	EmailsFailed         prometheus.Counter
}

// New creates and registers all automation metrics under namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		SweepRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Total sweep executions",
		}, []string{"job"}),
		SweepFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_failures_total",
			Help:      "Total sweep executions that returned an error",
		}, []string{"job"}),
		SweepSkips: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_skips_total",
			Help:      "Sweep ticks skipped because the previous run was still in flight",
		}, []string{"job"}),
		SweepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Sweep execution time",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"job"}),
		SweepItems: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_items_total",
			Help:      "Rows processed by sweeps",
		}, []string{"job", "result"}),
		NotificationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "In-app notification rows written",
		}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Transactional emails dispatched",
		}),
		EmailsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_failed_total",
			Help:      "Transactional email dispatch failures",
		}),
	}
}
