package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dragonfly"

// Metrics holds the Prometheus counters, histograms, and gauges for burn-severity analyses.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec   // labels: outcome={success,no_data,missing_asset,transfer_failure,canceled,error}
	StageDuration   *prometheus.HistogramVec // labels: stage
	StageSkipped    *prometheus.CounterVec   // labels: stage
	PipelineRunning prometheus.Gauge

	// Catalog and transfer metrics.
	CatalogRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	SearchCache     *prometheus.CounterVec // labels: result={hit,miss}
	DownloadBytes   prometheus.Counter

	LastBurnedArea prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Analysis runs by terminal outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		StageSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_skipped_total",
			Help:      "Stages skipped because their guard did not hold.",
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "Number of analyses currently in progress.",
		}),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_requests_total",
			Help:      "STAC search requests by outcome.",
		}, []string{"outcome"}),
		SearchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_total",
			Help:      "Search cache lookups by result.",
		}, []string{"result"}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Bytes transferred from asset hrefs.",
		}),
		LastBurnedArea: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_burned_area_km2",
			Help:      "Burned area of the most recent successful analysis.",
		}),
	}
}

// NewMetrics creates and registers all analysis metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.StageDuration,
		m.StageSkipped,
		m.PipelineRunning,
		m.CatalogRequests,
		m.SearchCache,
		m.DownloadBytes,
		m.LastBurnedArea,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
