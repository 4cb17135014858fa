package collector

// FleetSummary is the run-wide reduction of all endpoint records.
//
// The latency fields are plain means of the per-endpoint values, not
// request-weighted and not true percentiles over raw samples: the loader only
// ever sees per-endpoint percentiles.
type FleetSummary struct {
	TotalRequests        int     `json:"totalRequests"`
	TotalFailures        int     `json:"totalFailures"`
	FailureRatePercent   float64 `json:"failureRatePercent"`
	AvgResponseTimeMs    float64 `json:"avgResponseTimeMs"`
	MedianResponseTimeMs float64 `json:"medianResponseTimeMs"`
	P95Ms                float64 `json:"p95Ms"`
	P99Ms                float64 `json:"p99Ms"`
	MaxResponseTimeMs    float64 `json:"maxResponseTimeMs"`
	MinResponseTimeMs    float64 `json:"minResponseTimeMs"`
	RequestsPerSecond    float64 `json:"requestsPerSecond"`
}

// EndpointMetric is an EndpointRecord plus its derived failure rate.
type EndpointMetric struct {
	Name                 string  `json:"name"`
	Method               string  `json:"method"`
	RequestCount         int     `json:"requestCount"`
	FailureCount         int     `json:"failureCount"`
	FailureRatePercent   float64 `json:"failureRatePercent"`
	AvgResponseTimeMs    float64 `json:"avgResponseTimeMs"`
	MedianResponseTimeMs float64 `json:"medianResponseTimeMs"`
	P95Ms                float64 `json:"p95Ms"`
	P99Ms                float64 `json:"p99Ms"`
	MaxResponseTimeMs    float64 `json:"maxResponseTimeMs"`
	MinResponseTimeMs    float64 `json:"minResponseTimeMs"`
	ThroughputRps        float64 `json:"throughputRps"`
}

// FailureSummary totals the failures dataset of a run.
type FailureSummary struct {
	TotalOccurrences int `json:"totalOccurrences"`
	UniqueErrors     int `json:"uniqueErrors"`
}
