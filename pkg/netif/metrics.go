package netif

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "netifmon"

type metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	events          *prometheus.CounterVec
	observerPanics  prometheus.Counter
	interfaces      prometheus.Gauge
	observers       prometheus.Gauge
}

// newMetrics creates the engine collectors. A nil registerer leaves them
// unregistered, which keeps the bookkeeping without exporting anything.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by result.",
		}, []string{"result"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent querying the OS, diffing and dispatching.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Interface events dispatched by type.",
		}, []string{"type"}),
		observerPanics: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "observer_panics_total",
			Help:      "Panics recovered from observer callbacks.",
		}),
		interfaces: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "interfaces",
			Help:      "Interfaces in the current snapshot.",
		}),
		observers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "observers",
			Help:      "Registered observers.",
		}),
	}
}
