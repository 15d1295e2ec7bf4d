// Package metrics exposes Prometheus counters and histograms for conversion
// and validation traffic.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "transcode"

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	conversionsTotal   *prometheus.CounterVec   // By operation and outcome
	conversionDuration *prometheus.HistogramVec // By operation
	inputSize          *prometheus.HistogramVec // By operation
	validationsTotal   *prometheus.CounterVec   // By format and outcome
	validationIssues   *prometheus.CounterVec   // By format and severity
	rejected           *prometheus.CounterVec   // By reason: limiter, too_large
	artifactsPurged    prometheus.Counter
}

// New creates the collectors and registers them with a fresh registry.
// Go runtime and process collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		conversionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "convert",
			Name:      "requests_total",
			Help:      "Total number of conversions by operation and outcome",
		}, []string{"operation", "outcome"}), // outcome: ok, error, timeout

		conversionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "convert",
			Name:      "duration_seconds",
			Help:      "Conversion duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation"}),

		inputSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "convert",
			Name:      "input_size_bytes",
			Help:      "Distribution of conversion input sizes in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10), // 256B to ~64MB
		}, []string{"operation"}),

		validationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "requests_total",
			Help:      "Total number of validations by document format and outcome",
		}, []string{"format", "outcome"}), // outcome: valid, invalid, error

		validationIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "issues_total",
			Help:      "Total number of validation issues reported",
		}, []string{"format", "severity"}),

		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Requests rejected before running",
		}, []string{"reason"}),

		artifactsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "artifacts_purged_total",
			Help:      "Artifacts removed by the retention scheduler",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.conversionsTotal,
		m.conversionDuration,
		m.inputSize,
		m.validationsTotal,
		m.validationIssues,
		m.rejected,
		m.artifactsPurged,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveConversion records one finished conversion.
func (m *Metrics) ObserveConversion(operation, outcome string, duration time.Duration, inputBytes int) {
	if m == nil {
		return
	}

	m.conversionsTotal.WithLabelValues(operation, outcome).Inc()
	m.conversionDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.inputSize.WithLabelValues(operation).Observe(float64(inputBytes))
}

// ObserveValidation records one validation run and its issue counts.
func (m *Metrics) ObserveValidation(format, outcome string, errors, warnings int) {
	if m == nil {
		return
	}

	m.validationsTotal.WithLabelValues(format, outcome).Inc()
	if errors > 0 {
		m.validationIssues.WithLabelValues(format, "error").Add(float64(errors))
	}
	if warnings > 0 {
		m.validationIssues.WithLabelValues(format, "warning").Add(float64(warnings))
	}
}

// Rejected records a request turned away before it ran.
func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}

	m.rejected.WithLabelValues(reason).Inc()
}

// ArtifactsPurged records artifacts deleted by retention.
func (m *Metrics) ArtifactsPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}

	m.artifactsPurged.Add(float64(n))
}
