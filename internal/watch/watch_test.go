package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadgrade/internal/ratelimit"
)

func TestRelevant(t *testing.T) {
	stats := filepath.Join("results", "data_1_stats.csv")

	assert.True(t, relevant(stats, stats))
	assert.True(t, relevant(stats, filepath.Join("results", "data_1_failures.csv")))
	assert.True(t, relevant(stats, filepath.Join("results", "data_1_stats_history.csv")))
	assert.False(t, relevant(stats, filepath.Join("results", "data_2_stats.csv")))
	assert.False(t, relevant(stats, filepath.Join("results", "data_1_report.html")))
	assert.False(t, relevant("export.csv", "export_failures.csv"))
	assert.True(t, relevant("export.csv", "export.csv"))
}

func TestTrigger_Coalesces(t *testing.T) {
	kick := make(chan struct{}, 1)
	trigger(kick)
	trigger(kick)
	trigger(kick)

	assert.Len(t, kick, 1)
}

func TestRunLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	kick := make(chan struct{}, 1)
	var runs atomic.Int32
	done := make(chan struct{})

	go func() {
		defer close(done)
		runLoop(ctx, ratelimit.NewThrottle(0), kick, func() { runs.Add(1) })
	}()

	trigger(kick)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	trigger(kick)
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runLoop did not stop on cancel")
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	stats := filepath.Join(dir, "data_1_stats.csv")
	require.NoError(t, os.WriteFile(stats, []byte("first"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, stats, 0, func(path string) error {
			assert.Equal(t, stats, path)
			calls.Add(1)
			return errors.New("logged and ignored")
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond,
		"existing stats file is analyzed at start")

	before := calls.Load()
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "data_1_failures.csv"), []byte("Method,Name,Error,Occurrences\n"), 0o644)
		return calls.Load() > before
	}, 2*time.Second, 50*time.Millisecond, "sibling write triggers analysis")

	time.Sleep(200 * time.Millisecond)
	before = calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, calls.Load())

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "data_stats.csv"), 0, func(string) error { return nil })
	assert.Error(t, err)
}
