// Package report assembles the analysis of one run and renders it as console
// text, JSON, HTML, an XLSX workbook or Prometheus text exposition.
package report

import (
	"time"

	"github.com/google/uuid"

	"loadgrade/internal/assessment"
	"loadgrade/internal/collector"
	"loadgrade/internal/core"
)

// Report is the complete analysis of a single run.
type Report struct {
	RunID          string                     `json:"runId"`
	GeneratedAt    time.Time                  `json:"generatedAt"`
	Source         string                     `json:"source"`
	Summary        collector.FleetSummary     `json:"summary"`
	Endpoints      []collector.EndpointMetric `json:"endpoints"`
	Assessment     assessment.Assessment      `json:"assessment"`
	Failures       []core.FailureRecord       `json:"failures"`
	FailureSummary collector.FailureSummary   `json:"failureSummary"`
	History        []core.HistoryPoint        `json:"history"`
}

// Build aggregates and grades ds. The dataset slices are shared, not copied.
func Build(ds *core.Dataset, generatedAt time.Time) *Report {
	summary, endpoints := collector.Aggregate(ds.Records)

	failures := ds.Failures
	if failures == nil {
		failures = []core.FailureRecord{}
	}
	history := ds.History
	if history == nil {
		history = []core.HistoryPoint{}
	}

	return &Report{
		RunID:          uuid.NewString(),
		GeneratedAt:    generatedAt,
		Source:         ds.Source,
		Summary:        summary,
		Endpoints:      endpoints,
		Assessment:     assessment.Assess(summary),
		Failures:       failures,
		FailureSummary: collector.SummarizeFailures(failures),
		History:        history,
	}
}

// StandingRecommendations are general practices listed in every HTML report,
// independent of the grade.
var StandingRecommendations = []string{
	"Continuously monitor the endpoints with the highest response times",
	"Cache frequently accessed endpoints",
	"Review database query performance",
	"Alert on failure rates above 1%",
	"Run load tests regularly during development",
}
