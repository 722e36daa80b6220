package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus instruments of the planner. A nil *Metrics
// records nothing, so callers never need to check.
type Metrics struct {
	registry *prometheus.Registry

	uploads           *prometheus.CounterVec
	classifierCalls   *prometheus.CounterVec
	classifierLatency *prometheus.HistogramVec
	qualityLabels     *prometheus.CounterVec
	reportDuration    prometheus.Histogram
	breakerState      prometheus.Gauge
	snapshotGauges    *prometheus.GaugeVec
}

// NewMetrics registers every instrument on a fresh registry together with
// the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "uploads_total",
			Help:      "Uploads handled, by outcome.",
		}, []string{"outcome"}),
		classifierCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "classifier_requests_total",
			Help:      "Classification service attempts, by outcome.",
		}, []string{"outcome"}),
		classifierLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "classifier_request_seconds",
			Help:      "Classification service attempt latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		qualityLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "quality_verdicts_total",
			Help:      "Quality verdicts, by category and label.",
		}, []string{"category", "label"}),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "report_build_seconds",
			Help:      "Time spent building a report.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "planner",
			Name:      "classifier_breaker_open",
			Help:      "1 when the classifier circuit breaker is not closed.",
		}),
		snapshotGauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "planner",
			Name:      "stored_uploads",
			Help:      "Stored uploads within the monitoring lookback window, by state.",
		}, []string{"state"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploads, m.classifierCalls, m.classifierLatency,
		m.qualityLabels, m.reportDuration, m.breakerState, m.snapshotGauges,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

// ObserveUpload counts one upload outcome (ok, partial, rejected, error).
func (m *Metrics) ObserveUpload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// ObserveClassifier records one classifier attempt. Its signature matches
// the classifier client's observe hook.
func (m *Metrics) ObserveClassifier(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.classifierCalls.WithLabelValues(outcome).Inc()
	m.classifierLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveQuality counts one quality verdict.
func (m *Metrics) ObserveQuality(category, label string) {
	if m == nil {
		return
	}
	m.qualityLabels.WithLabelValues(category, label).Inc()
}

// ObserveReport records how long a report took to build.
func (m *Metrics) ObserveReport(d time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.Observe(d.Seconds())
}

// SetBreakerOpen sets the breaker gauge.
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.breakerState.Set(v)
}

// SetSnapshot publishes a collected snapshot as gauges.
func (m *Metrics) SetSnapshot(s *Snapshot) {
	if m == nil || s == nil {
		return
	}
	m.snapshotGauges.WithLabelValues("total").Set(float64(s.Total))
	m.snapshotGauges.WithLabelValues("failed").Set(float64(s.Failed))
	m.snapshotGauges.WithLabelValues("partial").Set(float64(s.Partial))
	m.snapshotGauges.WithLabelValues("not_inventory").Set(float64(s.NotInventory))
}
