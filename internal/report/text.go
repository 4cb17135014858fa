package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const rule = "============================================================"

// WriteText writes the console summary of r.
func WriteText(w io.Writer, r *Report) error {
	s := r.Summary
	a := r.Assessment

	var b strings.Builder
	fmt.Fprintln(&b, "")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "LOAD TEST SUMMARY")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "")
	fmt.Fprintln(&b, "Main metrics:")
	fmt.Fprintf(&b, "  Total requests:  %s\n", FormatCount(s.TotalRequests))
	fmt.Fprintf(&b, "  Failure rate:    %.2f%%\n", s.FailureRatePercent)
	fmt.Fprintf(&b, "  Avg response:    %.0fms\n", s.AvgResponseTimeMs)
	fmt.Fprintf(&b, "  P95:             %.0fms\n", s.P95Ms)
	fmt.Fprintf(&b, "  P99:             %.0fms\n", s.P99Ms)
	fmt.Fprintf(&b, "  RPS:             %.1f\n", s.RequestsPerSecond)
	fmt.Fprintln(&b, "")
	fmt.Fprintf(&b, "Overall grade: %s\n", a.Grade)

	writeList(&b, "Strengths:", a.Strengths)
	writeList(&b, "Issues:", a.Issues)
	writeList(&b, "Recommendations:", a.Recommendations)

	if r.FailureSummary.UniqueErrors > 0 {
		fmt.Fprintln(&b, "")
		fmt.Fprintln(&b, "Failures:")
		fmt.Fprintf(&b, "  Total failures:  %s\n", FormatCount(r.FailureSummary.TotalOccurrences))
		fmt.Fprintf(&b, "  Unique errors:   %d\n", r.FailureSummary.UniqueErrors)
	}

	fmt.Fprintln(&b, "")
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, heading)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// FormatCount renders n with thousands separators, e.g. 1234567 as
// "1,234,567".
func FormatCount(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
