// Package assessment grades a run from its fleet summary.
//
// Grading is an ordered list of rules threaded over a single Assessment
// value. Each rule may downgrade the grade and append findings, never
// upgrade, so the final grade is the worst any rule asked for.
package assessment

import (
	"fmt"

	"loadgrade/internal/collector"
)

// Limits used by the default rules.
const (
	FailureRateCriticalPercent = 5.0
	FailureRateElevatedPercent = 1.0

	P95CriticalMs  = 5000.0
	P95HighMs      = 2000.0
	P95ExcellentMs = 500.0

	ThroughputHighRps = 100.0
	ThroughputLowRps  = 10.0
)

// Assessment is the grade and the findings behind it. Recommendations line
// up with the issues that triggered them.
type Assessment struct {
	Grade           Grade    `json:"grade"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Strengths       []string `json:"strengths"`
}

// Rule evaluates one aspect of the summary and returns a with its findings
// applied.
type Rule func(s collector.FleetSummary, a Assessment) Assessment

// DefaultRules returns the rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{FailureRateRule, LatencyRule, ThroughputRule}
}

// Assess grades s with the default rules.
func Assess(s collector.FleetSummary) Assessment {
	return Evaluate(s, DefaultRules()...)
}

// Evaluate runs rules in order starting from grade A.
func Evaluate(s collector.FleetSummary, rules ...Rule) Assessment {
	a := Assessment{
		Grade:           GradeA,
		Issues:          []string{},
		Recommendations: []string{},
		Strengths:       []string{},
	}
	for _, rule := range rules {
		a = rule(s, a)
	}
	return a
}

// FailureRateRule grades the overall failure rate.
func FailureRateRule(s collector.FleetSummary, a Assessment) Assessment {
	rate := s.FailureRatePercent
	switch {
	case rate > FailureRateCriticalPercent:
		return a.downgrade(GradeF).
			issue(fmt.Sprintf("failure rate too high: %.2f%%", rate), "investigate and fix server-side errors")
	case rate > FailureRateElevatedPercent:
		return a.downgrade(GradeC).
			issue(fmt.Sprintf("elevated failure rate: %.2f%%", rate), "review server logs for errors")
	default:
		return a.strength(fmt.Sprintf("low failure rate: %.2f%%", rate))
	}
}

// LatencyRule grades the fleet P95. A high (not critical) P95 only moves an
// A to C; the finding is recorded either way. Values between the excellent
// and high limits produce nothing.
func LatencyRule(s collector.FleetSummary, a Assessment) Assessment {
	p95 := s.P95Ms
	switch {
	case p95 > P95CriticalMs:
		return a.downgrade(GradeF).
			issue(fmt.Sprintf("P95 latency very high: %.0fms", p95), "optimize database queries and server logic")
	case p95 > P95HighMs:
		return a.downgrade(GradeC).
			issue(fmt.Sprintf("P95 latency high: %.0fms", p95), "consider performance optimizations")
	case p95 < P95ExcellentMs:
		return a.strength(fmt.Sprintf("excellent P95 latency: %.0fms", p95))
	default:
		return a
	}
}

// ThroughputRule looks at the fleet-wide requests per second only.
func ThroughputRule(s collector.FleetSummary, a Assessment) Assessment {
	rps := s.RequestsPerSecond
	switch {
	case rps > ThroughputHighRps:
		return a.strength(fmt.Sprintf("high throughput: %.1f RPS", rps))
	case rps < ThroughputLowRps:
		return a.issue(fmt.Sprintf("low throughput: %.1f RPS", rps), "investigate performance bottlenecks")
	default:
		return a
	}
}

// downgrade lowers the grade to g unless it is already at or below g.
func (a Assessment) downgrade(g Grade) Assessment {
	if g < a.Grade {
		a.Grade = g
	}
	return a
}

func (a Assessment) issue(text, recommendation string) Assessment {
	a.Issues = appendCopy(a.Issues, text)
	a.Recommendations = appendCopy(a.Recommendations, recommendation)
	return a
}

func (a Assessment) strength(text string) Assessment {
	a.Strengths = appendCopy(a.Strengths, text)
	return a
}

// appendCopy leaves the backing array of list untouched.
func appendCopy(list []string, s string) []string {
	out := make([]string, len(list), len(list)+1)
	copy(out, list)
	return append(out, s)
}
