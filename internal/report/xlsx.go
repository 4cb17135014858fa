package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetSummary    = "Summary"
	SheetEndpoints  = "Endpoints"
	SheetFailures   = "Failures"
	SheetAssessment = "Assessment"
)

// WriteXLSX writes r as a workbook with one sheet per report section.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	for _, name := range []string{SheetEndpoints, SheetFailures, SheetAssessment} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"007BFF"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summaryRows(r)},
		{SheetEndpoints, endpointRows(r)},
		{SheetFailures, failureRows(r)},
		{SheetAssessment, assessmentRows(r)},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.rows, header); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", "A", 40)
}

func summaryRows(r *Report) [][]any {
	s := r.Summary
	return [][]any{
		{"Metric", "Value"},
		{"Run ID", r.RunID},
		{"Generated at", r.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Source", r.Source},
		{"Total requests", s.TotalRequests},
		{"Total failures", s.TotalFailures},
		{"Failure rate (%)", s.FailureRatePercent},
		{"Average response time (ms)", s.AvgResponseTimeMs},
		{"Median response time (ms)", s.MedianResponseTimeMs},
		{"P95 (ms)", s.P95Ms},
		{"P99 (ms)", s.P99Ms},
		{"Min response time (ms)", s.MinResponseTimeMs},
		{"Max response time (ms)", s.MaxResponseTimeMs},
		{"Requests per second", s.RequestsPerSecond},
		{"Grade", r.Assessment.Grade.String()},
	}
}

func endpointRows(r *Report) [][]any {
	rows := [][]any{{
		"Endpoint", "Method", "Requests", "Failures", "Failure rate (%)",
		"Avg (ms)", "Median (ms)", "P95 (ms)", "P99 (ms)", "Min (ms)", "Max (ms)", "RPS",
	}}
	for _, e := range r.Endpoints {
		rows = append(rows, []any{
			e.Name, e.Method, e.RequestCount, e.FailureCount, e.FailureRatePercent,
			e.AvgResponseTimeMs, e.MedianResponseTimeMs, e.P95Ms, e.P99Ms,
			e.MinResponseTimeMs, e.MaxResponseTimeMs, e.ThroughputRps,
		})
	}
	return rows
}

func failureRows(r *Report) [][]any {
	rows := [][]any{{"Method", "Endpoint", "Error", "Occurrences"}}
	for _, f := range r.Failures {
		rows = append(rows, []any{f.Method, f.Name, f.Error, f.Occurrences})
	}
	return rows
}

func assessmentRows(r *Report) [][]any {
	a := r.Assessment
	rows := [][]any{{"Kind", "Finding"}, {"Grade", a.Grade.String()}}
	for _, s := range a.Strengths {
		rows = append(rows, []any{"Strength", s})
	}
	for _, s := range a.Issues {
		rows = append(rows, []any{"Issue", s})
	}
	for _, s := range a.Recommendations {
		rows = append(rows, []any{"Recommendation", s})
	}
	return rows
}
