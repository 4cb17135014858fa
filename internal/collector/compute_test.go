package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadgrade/internal/core"
)

func record(name string, requests, failures int) core.EndpointRecord {
	return core.EndpointRecord{
		Name:                 name,
		Method:               "GET",
		RequestCount:         requests,
		FailureCount:         failures,
		AvgResponseTimeMs:    100,
		MedianResponseTimeMs: 90,
		P95Ms:                300,
		P99Ms:                450,
		MaxResponseTimeMs:    900,
		MinResponseTimeMs:    12,
		ThroughputRps:        10,
	}
}

func TestAggregate_Empty(t *testing.T) {
	s, endpoints := Aggregate(nil)

	assert.Equal(t, FleetSummary{}, s)
	assert.NotNil(t, endpoints)
	assert.Empty(t, endpoints)
}

func TestAggregate_Totals(t *testing.T) {
	a := record("/api/habits", 1000, 10)
	b := record("/api/users", 500, 40)
	b.ThroughputRps = 5.5

	s, _ := Aggregate([]core.EndpointRecord{a, b})

	assert.Equal(t, 1500, s.TotalRequests)
	assert.Equal(t, 50, s.TotalFailures)
	assert.InDelta(t, 50.0/1500.0*100, s.FailureRatePercent, 1e-9)
	assert.InDelta(t, 15.5, s.RequestsPerSecond, 1e-9)
}

func TestAggregate_UnweightedMeans(t *testing.T) {
	fast := record("/fast", 10000, 0)
	fast.AvgResponseTimeMs = 10
	fast.MedianResponseTimeMs = 8
	fast.P95Ms = 40
	fast.P99Ms = 60

	slow := record("/slow", 10, 0)
	slow.AvgResponseTimeMs = 1000
	slow.MedianResponseTimeMs = 800
	slow.P95Ms = 3000
	slow.P99Ms = 5000

	s, _ := Aggregate([]core.EndpointRecord{fast, slow})

	// Request counts do not weigh in.
	assert.InDelta(t, 505, s.AvgResponseTimeMs, 1e-9)
	assert.InDelta(t, 404, s.MedianResponseTimeMs, 1e-9)
	assert.InDelta(t, 1520, s.P95Ms, 1e-9)
	assert.InDelta(t, 2530, s.P99Ms, 1e-9)
}

func TestAggregate_MinMax(t *testing.T) {
	a := record("/a", 1, 0)
	a.MinResponseTimeMs = 5
	a.MaxResponseTimeMs = 700
	b := record("/b", 1, 0)
	b.MinResponseTimeMs = 2
	b.MaxResponseTimeMs = 9000
	c := record("/c", 1, 0)
	c.MinResponseTimeMs = 30
	c.MaxResponseTimeMs = 100

	s, _ := Aggregate([]core.EndpointRecord{a, b, c})

	assert.Equal(t, 2.0, s.MinResponseTimeMs)
	assert.Equal(t, 9000.0, s.MaxResponseTimeMs)
}

func TestAggregate_ExcludesAggregatedRow(t *testing.T) {
	records := []core.EndpointRecord{
		record("/api/habits", 1000, 10),
		record("/api/users", 200, 4),
	}
	total := core.EndpointRecord{
		Name:              "Aggregated",
		Method:            core.AggregatedMethod,
		RequestCount:      1200,
		FailureCount:      14,
		AvgResponseTimeMs: 5000,
		P95Ms:             99999,
		MinResponseTimeMs: 0,
		MaxResponseTimeMs: 1e6,
		ThroughputRps:     20,
	}

	without, endpointsWithout := Aggregate(records)
	with, endpointsWith := Aggregate(append(append([]core.EndpointRecord{}, records...), total))

	assert.Equal(t, without, with)
	assert.Equal(t, endpointsWithout, endpointsWith)
	assert.Len(t, endpointsWith, 2)
}

func TestAggregate_OnlyAggregatedRow(t *testing.T) {
	s, endpoints := Aggregate([]core.EndpointRecord{{Name: "Aggregated", Method: core.AggregatedMethod, RequestCount: 10}})

	assert.Equal(t, FleetSummary{}, s)
	assert.Empty(t, endpoints)
}

func TestAggregate_PreservesInputOrder(t *testing.T) {
	records := []core.EndpointRecord{
		record("/z", 1, 0),
		record("/a", 1, 0),
		{Name: "Aggregated", Method: core.AggregatedMethod},
		record("/m", 1, 0),
	}

	_, endpoints := Aggregate(records)

	require.Len(t, endpoints, 3)
	assert.Equal(t, "/z", endpoints[0].Name)
	assert.Equal(t, "/a", endpoints[1].Name)
	assert.Equal(t, "/m", endpoints[2].Name)
}

func TestAggregate_EndpointFailureRate(t *testing.T) {
	_, endpoints := Aggregate([]core.EndpointRecord{
		record("/ok", 1000, 60),
		record("/idle", 0, 0),
	})

	require.Len(t, endpoints, 2)
	assert.InDelta(t, 6.0, endpoints[0].FailureRatePercent, 1e-9)
	assert.Equal(t, 0.0, endpoints[1].FailureRatePercent)
	assert.Equal(t, 1000, endpoints[0].RequestCount)
	assert.Equal(t, 60, endpoints[0].FailureCount)
	assert.Equal(t, 300.0, endpoints[0].P95Ms)
}

func TestAggregate_ZeroRequestsNoNaN(t *testing.T) {
	s, _ := Aggregate([]core.EndpointRecord{record("/a", 0, 0), record("/b", 0, 0)})

	assert.Equal(t, 0, s.TotalRequests)
	assert.Equal(t, 0.0, s.FailureRatePercent)
}

func TestFailureRate(t *testing.T) {
	assert.Equal(t, 0.0, FailureRate(0, 0))
	assert.Equal(t, 0.0, FailureRate(5, 0))
	assert.InDelta(t, 2.0, FailureRate(20, 1000), 1e-9)
	assert.InDelta(t, 100.0, FailureRate(3, 3), 1e-9)
}

func TestSummarizeFailures(t *testing.T) {
	fs := SummarizeFailures([]core.FailureRecord{
		{Method: "POST", Name: "/api/auth/login", Error: "HTTPError('401')", Occurrences: 12},
		{Method: "GET", Name: "/api/habits", Error: "ConnectionResetError", Occurrences: 3},
	})

	assert.Equal(t, 15, fs.TotalOccurrences)
	assert.Equal(t, 2, fs.UniqueErrors)
	assert.Equal(t, FailureSummary{}, SummarizeFailures(nil))
}
