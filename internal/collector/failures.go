package collector

import "loadgrade/internal/core"

// SummarizeFailures totals occurrences across the failures dataset.
func SummarizeFailures(failures []core.FailureRecord) FailureSummary {
	fs := FailureSummary{UniqueErrors: len(failures)}
	for _, f := range failures {
		fs.TotalOccurrences += f.Occurrences
	}
	return fs
}
