// Package collector reduces per-endpoint load test records into fleet-wide
// metrics.
package collector

import "loadgrade/internal/core"

// Aggregate computes the fleet summary and the per-endpoint view of records.
// Rows tagged with core.AggregatedMethod are dropped first. Endpoint order
// follows input order. Pure function, no side effects; an empty input yields
// a zero summary.
func Aggregate(records []core.EndpointRecord) (FleetSummary, []EndpointMetric) {
	var s FleetSummary
	endpoints := make([]EndpointMetric, 0, len(records))

	var sumAvg, sumMedian, sumP95, sumP99 float64

	for _, r := range records {
		if r.IsAggregate() {
			continue
		}

		if len(endpoints) == 0 {
			s.MaxResponseTimeMs = r.MaxResponseTimeMs
			s.MinResponseTimeMs = r.MinResponseTimeMs
		} else {
			s.MaxResponseTimeMs = max(s.MaxResponseTimeMs, r.MaxResponseTimeMs)
			s.MinResponseTimeMs = min(s.MinResponseTimeMs, r.MinResponseTimeMs)
		}

		s.TotalRequests += r.RequestCount
		s.TotalFailures += r.FailureCount
		s.RequestsPerSecond += r.ThroughputRps

		sumAvg += r.AvgResponseTimeMs
		sumMedian += r.MedianResponseTimeMs
		sumP95 += r.P95Ms
		sumP99 += r.P99Ms

		endpoints = append(endpoints, toEndpointMetric(r))
	}

	if n := float64(len(endpoints)); n > 0 {
		s.AvgResponseTimeMs = sumAvg / n
		s.MedianResponseTimeMs = sumMedian / n
		s.P95Ms = sumP95 / n
		s.P99Ms = sumP99 / n
	}
	s.FailureRatePercent = FailureRate(s.TotalFailures, s.TotalRequests)

	return s, endpoints
}

// FailureRate returns failures/requests as a percentage, or 0 when there were
// no requests.
func FailureRate(failures, requests int) float64 {
	if requests <= 0 {
		return 0
	}
	return float64(failures) / float64(requests) * 100
}

func toEndpointMetric(r core.EndpointRecord) EndpointMetric {
	return EndpointMetric{
		Name:                 r.Name,
		Method:               r.Method,
		RequestCount:         r.RequestCount,
		FailureCount:         r.FailureCount,
		FailureRatePercent:   FailureRate(r.FailureCount, r.RequestCount),
		AvgResponseTimeMs:    r.AvgResponseTimeMs,
		MedianResponseTimeMs: r.MedianResponseTimeMs,
		P95Ms:                r.P95Ms,
		P99Ms:                r.P99Ms,
		MaxResponseTimeMs:    r.MaxResponseTimeMs,
		MinResponseTimeMs:    r.MinResponseTimeMs,
		ThroughputRps:        r.ThroughputRps,
	}
}
