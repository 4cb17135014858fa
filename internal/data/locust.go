// Package data loads load test measurements from the files a Locust run
// writes: <base>_stats.csv, <base>_failures.csv and <base>_stats_history.csv.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"loadgrade/internal/core"
)

// LoadStatsCSV reads per-endpoint records from a Locust stats CSV. Columns
// may appear in any order and extra columns are ignored. The total row,
// which newer Locust versions write with an empty Type, is tagged
// core.AggregatedMethod.
func LoadStatsCSV(r io.Reader) ([]core.EndpointRecord, error) {
	records := make([]core.EndpointRecord, 0)
	err := readCSV(r, statsColumns, func(line int, rw row) error {
		rec, err := parseStatsRow(rw)
		if err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
		return nil
	})
	return records, err
}

// LoadFailuresCSV reads the failures CSV.
func LoadFailuresCSV(r io.Reader) ([]core.FailureRecord, error) {
	failures := make([]core.FailureRecord, 0)
	err := readCSV(r, failureColumns, func(line int, rw row) error {
		f, err := parseFailureRow(rw)
		if err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}
		failures = append(failures, f)
		return nil
	})
	return failures, err
}

// LoadHistoryCSV reads the run-wide rows of a stats history CSV. Per-endpoint
// rows, present with --csv-full-history, are skipped.
func LoadHistoryCSV(r io.Reader) ([]core.HistoryPoint, error) {
	points := make([]core.HistoryPoint, 0)
	err := readCSV(r, historyColumns, func(line int, rw row) error {
		if !isTotalRow(rw) {
			return nil
		}
		p, err := parseHistoryRow(rw)
		if err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}
		points = append(points, p)
		return nil
	})
	return points, err
}

func readCSV(r io.Reader, required []string, fn func(line int, rw row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("could not read header: %w", io.ErrUnexpectedEOF)
	}
	if err != nil {
		return fmt.Errorf("could not read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	if err := requireColumns(func(c string) bool { _, ok := index[c]; return ok }, required); err != nil {
		return err
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}

		rw := make(row, len(header))
		for col, i := range index {
			if i < len(record) {
				rw[col] = record[i]
			}
		}
		if err := fn(line, rw); err != nil {
			return err
		}
	}
}

func parseStatsRow(rw row) (core.EndpointRecord, error) {
	rec := core.EndpointRecord{
		Name:   rw.str(colName),
		Method: rw.str(colType),
	}
	if rec.Method == "" && rec.Name == core.AggregatedMethod {
		rec.Method = core.AggregatedMethod
	}

	var errs [9]error
	rec.RequestCount, errs[0] = rw.count(colRequests)
	rec.FailureCount, errs[1] = rw.count(colFailures)
	rec.MedianResponseTimeMs, errs[2] = rw.float(colMedian)
	rec.AvgResponseTimeMs, errs[3] = rw.float(colAverage)
	rec.MinResponseTimeMs, errs[4] = rw.float(colMin)
	rec.MaxResponseTimeMs, errs[5] = rw.float(colMax)
	rec.ThroughputRps, errs[6] = rw.float(colRPS)
	rec.P95Ms, errs[7] = rw.float(colP95)
	rec.P99Ms, errs[8] = rw.float(colP99)
	if err := firstErr(errs[:]...); err != nil {
		return core.EndpointRecord{}, err
	}

	if rec.FailureCount > rec.RequestCount {
		return core.EndpointRecord{}, fmt.Errorf("%w: %d failures out of %d requests",
			ErrInvalidRecord, rec.FailureCount, rec.RequestCount)
	}
	return rec, nil
}

func parseFailureRow(rw row) (core.FailureRecord, error) {
	occurrences, err := rw.count(colOccurs)
	if err != nil {
		return core.FailureRecord{}, err
	}
	if occurrences == 0 {
		return core.FailureRecord{}, fmt.Errorf("column %q: %w: an error must occur at least once", colOccurs, ErrInvalidRecord)
	}
	return core.FailureRecord{
		Method:      rw.str(colMethod),
		Name:        rw.str(colName),
		Error:       rw.str(colError),
		Occurrences: occurrences,
	}, nil
}

func isTotalRow(rw row) bool {
	name, hasName := rw[colName]
	if !hasName {
		return true
	}
	return name == core.AggregatedMethod || rw.str(colType) == core.AggregatedMethod
}

func parseHistoryRow(rw row) (core.HistoryPoint, error) {
	var p core.HistoryPoint

	ts, err := rw.count(colTimestamp)
	if err != nil {
		return p, err
	}
	p.Timestamp = time.Unix(int64(ts), 0).UTC()

	avgCol := colTotalAvg
	if _, ok := rw[avgCol]; !ok {
		avgCol = colAverage
	}

	var errs [6]error
	p.UserCount, errs[0] = rw.count(colUsers)
	p.RequestsPerSecond, errs[1] = rw.float(colRPS)
	p.FailuresPerSecond, errs[2] = rw.float(colFPS)
	p.AvgResponseTimeMs, errs[3] = rw.float(avgCol)
	p.TotalRequests, errs[4] = rw.count(colTotalReqs)
	p.TotalFailures, errs[5] = rw.count(colTotalFail)
	return p, firstErr(errs[:]...)
}
