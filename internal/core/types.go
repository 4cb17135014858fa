// Package core defines the measurement types shared by the loader, the
// aggregator and the report writers.
package core

import "time"

// AggregatedMethod is the Type value the load generator puts on its own
// pre-summed total row. Rows carrying it are never re-aggregated.
const AggregatedMethod = "Aggregated"

// EndpointRecord is one row of per-endpoint measurements from a load run.
// Times are in milliseconds.
type EndpointRecord struct {
	Name                 string
	Method               string
	RequestCount         int
	FailureCount         int
	AvgResponseTimeMs    float64
	MedianResponseTimeMs float64
	P95Ms                float64
	P99Ms                float64
	MaxResponseTimeMs    float64
	MinResponseTimeMs    float64
	ThroughputRps        float64
}

// IsAggregate reports whether r is the load generator's total row.
func (r EndpointRecord) IsAggregate() bool {
	return r.Method == AggregatedMethod
}

// FailureRecord describes one distinct error observed during a run.
type FailureRecord struct {
	Method      string `json:"method"`
	Name        string `json:"name"`
	Error       string `json:"error"`
	Occurrences int    `json:"occurrences"`
}

// HistoryPoint is one sample of the run-wide totals over time.
type HistoryPoint struct {
	Timestamp         time.Time `json:"timestamp"`
	UserCount         int       `json:"userCount"`
	RequestsPerSecond float64   `json:"requestsPerSecond"`
	FailuresPerSecond float64   `json:"failuresPerSecond"`
	AvgResponseTimeMs float64   `json:"avgResponseTimeMs"`
	TotalRequests     int       `json:"totalRequests"`
	TotalFailures     int       `json:"totalFailures"`
}

// Dataset is everything loaded for a single run. Failures and History are
// empty when the run produced no such files.
type Dataset struct {
	Source   string
	Records  []EndpointRecord
	Failures []FailureRecord
	History  []HistoryPoint
}
