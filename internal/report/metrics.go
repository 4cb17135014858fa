package report

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "loadgrade"

// NewRegistry returns a registry holding the metrics of r as gauges.
func NewRegistry(r *Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	s := r.Summary

	summary := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "summary",
		Help:      "Run-wide load test metrics by name",
	}, []string{"metric"})
	for name, v := range map[string]float64{
		"total_requests":          float64(s.TotalRequests),
		"total_failures":          float64(s.TotalFailures),
		"failure_rate_percent":    s.FailureRatePercent,
		"avg_response_time_ms":    s.AvgResponseTimeMs,
		"median_response_time_ms": s.MedianResponseTimeMs,
		"p95_response_time_ms":    s.P95Ms,
		"p99_response_time_ms":    s.P99Ms,
		"min_response_time_ms":    s.MinResponseTimeMs,
		"max_response_time_ms":    s.MaxResponseTimeMs,
		"requests_per_second":     s.RequestsPerSecond,
		"failure_occurrences":     float64(r.FailureSummary.TotalOccurrences),
		"failure_unique_errors":   float64(r.FailureSummary.UniqueErrors),
	} {
		summary.WithLabelValues(name).Set(v)
	}

	grade := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "grade",
		Help:      "1 for the grade the run received, 0 otherwise",
	}, []string{"grade"})
	for _, g := range []string{"A", "C", "F"} {
		v := 0.0
		if g == r.Assessment.Grade.String() {
			v = 1
		}
		grade.WithLabelValues(g).Set(v)
	}

	labels := []string{"endpoint", "method"}
	requests := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "endpoint", Name: "requests",
		Help: "Requests sent to the endpoint",
	}, labels)
	failures := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "endpoint", Name: "failures",
		Help: "Failed requests to the endpoint",
	}, labels)
	p95 := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "endpoint", Name: "p95_response_time_ms",
		Help: "P95 response time of the endpoint in milliseconds",
	}, labels)
	rps := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "endpoint", Name: "requests_per_second",
		Help: "Throughput of the endpoint",
	}, labels)
	for _, e := range r.Endpoints {
		requests.WithLabelValues(e.Name, e.Method).Set(float64(e.RequestCount))
		failures.WithLabelValues(e.Name, e.Method).Set(float64(e.FailureCount))
		p95.WithLabelValues(e.Name, e.Method).Set(e.P95Ms)
		rps.WithLabelValues(e.Name, e.Method).Set(e.ThroughputRps)
	}

	reg.MustRegister(summary, grade, requests, failures, p95, rps)
	return reg
}

// WritePrometheus writes the metrics of r in the Prometheus text format,
// suitable for the node exporter textfile collector.
func WritePrometheus(w io.Writer, r *Report) error {
	families, err := NewRegistry(r).Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
