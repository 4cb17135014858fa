package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadRun_StatsOnly(t *testing.T) {
	dir := t.TempDir()
	stats := filepath.Join(dir, "load_test_data_1700000000_stats.csv")
	writeFile(t, stats, statsCSV)

	ds, err := LoadRun(stats)
	require.NoError(t, err)

	assert.Equal(t, stats, ds.Source)
	assert.Len(t, ds.Records, 3)
	assert.NotNil(t, ds.Failures)
	assert.Empty(t, ds.Failures)
	assert.NotNil(t, ds.History)
	assert.Empty(t, ds.History)
}

func TestLoadRun_WithSiblings(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "run")
	writeFile(t, base+"_stats.csv", statsCSV)
	writeFile(t, base+"_failures.csv", "Method,Name,Error,Occurrences\nGET,/api/habits,HTTPError('500'),12\n")
	writeFile(t, base+"_stats_history.csv", "Timestamp,User Count,Type,Name,Requests/s,Failures/s,Total Average Response Time\n1700000000,5,,Aggregated,3.5,0,120\n")

	ds, err := LoadRun(base + "_stats.csv")
	require.NoError(t, err)

	assert.Len(t, ds.Records, 3)
	require.Len(t, ds.Failures, 1)
	assert.Equal(t, 12, ds.Failures[0].Occurrences)
	require.Len(t, ds.History, 1)
	assert.Equal(t, 3.5, ds.History[0].RequestsPerSecond)
}

func TestLoadRun_JSON(t *testing.T) {
	dir := t.TempDir()
	stats := filepath.Join(dir, "run_stats.json")
	writeFile(t, stats, `[{"Type": "GET", "Name": "/a", "Request Count": 5, "Failure Count": 0, "Median Response Time": 1, "Average Response Time": 1, "Min Response Time": 1, "Max Response Time": 1, "Requests/s": 1, "95%": 1, "99%": 1}]`)
	writeFile(t, filepath.Join(dir, "run_failures.json"), `[{"Method": "GET", "Name": "/a", "Error": "boom", "Occurrences": 1}]`)

	ds, err := LoadRun(stats)
	require.NoError(t, err)
	assert.Len(t, ds.Records, 1)
	assert.Len(t, ds.Failures, 1)
}

func TestLoadRun_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRun(filepath.Join(dir, "missing_stats.csv"))
	assert.Error(t, err)

	xml := filepath.Join(dir, "run_stats.xml")
	writeFile(t, xml, "<stats/>")
	_, err = LoadRun(xml)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	bad := filepath.Join(dir, "bad_stats.csv")
	writeFile(t, bad, statsCSV)
	writeFile(t, filepath.Join(dir, "bad_failures.csv"), "Method,Name\nGET,/x\n")
	_, err = LoadRun(bad)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "data_1")
	writeFile(t, base+"_stats.csv", statsCSV)
	writeFile(t, base+"_failures.csv", "")

	files := Discover(base + "_stats.csv")
	assert.Equal(t, base+"_failures.csv", files.Failures)
	assert.Empty(t, files.History)

	other := filepath.Join(dir, "export.csv")
	assert.Equal(t, RunFiles{Stats: other}, Discover(other))
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()

	_, err := FindLatest(dir)
	require.ErrorIs(t, err, ErrNoStatsFile)

	older := filepath.Join(dir, "a_stats.csv")
	newer := filepath.Join(dir, "b_stats.csv")
	writeFile(t, older, statsCSV)
	writeFile(t, newer, statsCSV)
	writeFile(t, filepath.Join(dir, "c_failures.csv"), "")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	latest, err := FindLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, latest)

	_, err = FindLatest(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestRunBase(t *testing.T) {
	base, ok := RunBase("/tmp/results/data_17_stats.csv")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/results/data_17", base)

	_, ok = RunBase("/tmp/results/export.csv")
	assert.False(t, ok)
}
