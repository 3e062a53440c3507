package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "osm_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the import pipeline.
type Metrics struct {
	ElementsRead    prometheus.Counter
	DocumentsLoaded prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge
	InputBytesRead  prometheus.Counter

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Street audit metrics.
	StreetAudits *prometheus.CounterVec // labels: outcome={valid,corrected,rejected,unclassified}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ElementsRead,
		m.DocumentsLoaded,
		m.TransformErrors,
		m.PipelineRunning,
		m.InputBytesRead,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.StreetAudits,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ElementsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_read_total",
			Help:      "Total OSM elements read from the input extract.",
		}),
		DocumentsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "Total documents written to the sink.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total elements skipped because they could not be transformed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		InputBytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_read_total",
			Help:      "Bytes read from the (possibly compressed) input file.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of elements per batch extracted from the input.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		StreetAudits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "street_audits_total",
			Help:      "addr:street values audited, by outcome.",
		}, []string{"outcome"}),
	}
}
