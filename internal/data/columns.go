package data

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Locust CSV column headers.
const (
	colType      = "Type"
	colName      = "Name"
	colRequests  = "Request Count"
	colFailures  = "Failure Count"
	colMedian    = "Median Response Time"
	colAverage   = "Average Response Time"
	colMin       = "Min Response Time"
	colMax       = "Max Response Time"
	colRPS       = "Requests/s"
	colP95       = "95%"
	colP99       = "99%"
	colMethod    = "Method"
	colError     = "Error"
	colOccurs    = "Occurrences"
	colTimestamp = "Timestamp"
	colUsers     = "User Count"
	colFPS       = "Failures/s"
	colTotalAvg  = "Total Average Response Time"
	colTotalReqs = "Total Request Count"
	colTotalFail = "Total Failure Count"
)

var (
	statsColumns = []string{
		colType, colName, colRequests, colFailures, colMedian, colAverage,
		colMin, colMax, colRPS, colP95, colP99,
	}
	failureColumns = []string{colMethod, colName, colError, colOccurs}
	historyColumns = []string{colTimestamp, colRPS}
)

var (
	ErrMissingColumn     = errors.New("missing column")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoStatsFile       = errors.New("no stats file found")
)

// row maps column header to raw cell text.
type row map[string]string

func requireColumns(have func(string) bool, required []string) error {
	var missing []string
	for _, c := range required {
		if !have(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// blank reports cells the load generator writes when it has no value.
func blank(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "N/A", "null", "NaN", "nan":
		return true
	}
	return false
}

func (r row) str(col string) string {
	return strings.TrimSpace(r[col])
}

func (r row) float(col string) (float64, error) {
	raw := r.str(col)
	if blank(raw) {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", col, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("column %q: %w: %s", col, ErrInvalidRecord, raw)
	}
	return v, nil
}

func (r row) count(col string) (int, error) {
	v, err := r.float(col)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("column %q: %w: %s is not a whole number", col, ErrInvalidRecord, r.str(col))
	}
	if v >= float64(math.MaxInt) {
		return 0, fmt.Errorf("column %q: %w: %s is out of range", col, ErrInvalidRecord, r.str(col))
	}
	return int(v), nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
