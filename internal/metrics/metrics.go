// Package metrics exposes Prometheus collectors for the harvester.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchesTotal          *prometheus.CounterVec
	fetchDurationSeconds  *prometheus.HistogramVec
	vacanciesPersistedTot prometheus.Counter
	failuresTotal         *prometheus.CounterVec
	activeWorkers         prometheus.Gauge
	frontierQueueDepth    prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times; every observer below is a no-op until it runs.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_fetches_total",
				Help: "Total fetches executed, labeled by traversal stage and outcome.",
			},
			[]string{"stage", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies, labeled by traversal stage.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"stage"},
		)

		vacanciesPersistedTot = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_vacancies_persisted_total",
				Help: "Total vacancy records accepted by the sink.",
			},
		)

		failuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_failures_total",
				Help: "Total failures, labeled by kind (fetch, malformed_record, sink, publish).",
			},
			[]string{"kind"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvester_active_workers",
				Help: "Number of frontier workers currently running.",
			},
		)

		frontierQueueDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvester_frontier_queue_depth",
				Help: "Number of requests waiting in the frontier queue.",
			},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch execution.
func ObserveFetch(stage, outcome string, duration time.Duration) {
	if fetchesTotal == nil {
		return
	}
	fetchesTotal.WithLabelValues(stage, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// IncPersisted increments the persisted-record counter.
func IncPersisted() {
	if vacanciesPersistedTot == nil {
		return
	}
	vacanciesPersistedTot.Inc()
}

// IncFailure increments the failure counter for the given kind.
func IncFailure(kind string) {
	if failuresTotal == nil {
		return
	}
	failuresTotal.WithLabelValues(kind).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Dec()
}

// SetQueueDepth records the current frontier queue length.
func SetQueueDepth(depth int) {
	if frontierQueueDepth == nil {
		return
	}
	frontierQueueDepth.Set(float64(depth))
}
