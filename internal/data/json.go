package data

import (
	"fmt"

	"github.com/tidwall/gjson"

	"loadgrade/internal/core"
)

// LoadRecordsJSON reads per-endpoint records from a JSON array of objects
// keyed by the stats CSV headers, e.g. a dataframe exported with
// orient="records".
func LoadRecordsJSON(body []byte) ([]core.EndpointRecord, error) {
	rows, err := jsonRows(body, statsColumns)
	if err != nil {
		return nil, err
	}
	records := make([]core.EndpointRecord, 0, len(rows))
	for i, rw := range rows {
		rec, err := parseStatsRow(rw)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadFailuresJSON reads failure records from a JSON array of objects keyed
// by the failures CSV headers.
func LoadFailuresJSON(body []byte) ([]core.FailureRecord, error) {
	rows, err := jsonRows(body, failureColumns)
	if err != nil {
		return nil, err
	}
	failures := make([]core.FailureRecord, 0, len(rows))
	for i, rw := range rows {
		f, err := parseFailureRow(rw)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		failures = append(failures, f)
	}
	return failures, nil
}

// jsonRows flattens each object of a top-level array into a row. Keys are
// walked with ForEach rather than paths since headers like "95%" collide with
// gjson path syntax.
func jsonRows(body []byte, required []string) ([]row, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUnsupportedFormat)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: JSON must be an array of objects", ErrUnsupportedFormat)
	}

	var (
		rows []row
		err  error
	)
	doc.ForEach(func(_, elem gjson.Result) bool {
		if !elem.IsObject() {
			err = fmt.Errorf("element %d: %w: not an object", len(rows), ErrInvalidRecord)
			return false
		}
		rw := make(row)
		elem.ForEach(func(key, value gjson.Result) bool {
			rw[key.String()] = value.String()
			return true
		})
		if e := requireColumns(func(c string) bool { _, ok := rw[c]; return ok }, required); e != nil {
			err = fmt.Errorf("element %d: %w", len(rows), e)
			return false
		}
		rows = append(rows, rw)
		return true
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
