package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// monthly ETL pipeline.
type Metrics struct {
	RecordsExtracted   prometheus.Counter
	AggregatesProduced prometheus.Counter

	// Data-quality findings. These count reported conditions; none of them
	// is fatal to a run.
	NullTemperatures  prometheus.Counter
	OutliersDetected  prometheus.Counter
	MissingDays       prometheus.Counter
	UnmatchedStations prometheus.Counter
	UnmatchedRecords  prometheus.Counter

	PipelineRuns     *prometheus.CounterVec // label: outcome={success,error}
	PipelineDuration prometheus.Histogram
	PipelineRunning  prometheus.Gauge

	// Climate API fetch metrics.
	FetchRequests *prometheus.CounterVec // label: outcome={success,error}
	FetchDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsExtracted,
		m.AggregatesProduced,
		m.NullTemperatures,
		m.OutliersDetected,
		m.MissingDays,
		m.UnmatchedStations,
		m.UnmatchedRecords,
		m.PipelineRuns,
		m.PipelineDuration,
		m.PipelineRunning,
		m.FetchRequests,
		m.FetchDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_extracted_total",
			Help:      "Total daily records read from the raw source.",
		}),
		AggregatesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "aggregates_produced_total",
			Help:      "Total station-month rows written to the sinks.",
		}),
		NullTemperatures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "null_temperatures_total",
			Help:      "Daily records with a missing temperature reading.",
		}),
		OutliersDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "outliers_detected_total",
			Help:      "Readings beyond the configured standard-deviation threshold.",
		}),
		MissingDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "missing_days_total",
			Help:      "Calendar gaps detected in station-year date sequences.",
		}),
		UnmatchedStations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "unmatched_stations_total",
			Help:      "Distinct station identifiers with no metadata match.",
		}),
		UnmatchedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "unmatched_records_total",
			Help:      "Daily records retained with null metadata after the join.",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a full validate-join-aggregate-load run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "fetch_requests_total",
			Help:      "Climate API station-year fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Climate API request duration including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}
