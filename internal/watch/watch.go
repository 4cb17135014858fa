// Package watch re-runs an analysis whenever a run's measurement files
// change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"loadgrade/internal/data"
	"loadgrade/internal/ratelimit"
)

// Watch calls onChange with statsPath once at start, if the file exists, and
// again after each write to the stats, failures or history file. Bursts of
// writes collapse into one call, and calls are at least minInterval apart.
// Errors from onChange are logged and watching continues. It runs until ctx
// is cancelled.
//
// The parent directory is watched rather than the files, since the load
// generator replaces its CSV files while a run is in progress.
func Watch(ctx context.Context, statsPath string, minInterval time.Duration, onChange func(string) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(statsPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	log.Info().Str("file", statsPath).Dur("min_interval", minInterval).Msg("watching for changes")

	runCtx, cancel := context.WithCancel(ctx)
	kick := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runLoop(runCtx, ratelimit.NewThrottle(minInterval), kick, func() {
			if err := onChange(statsPath); err != nil {
				log.Error().Err(err).Str("file", statsPath).Msg("analysis failed")
			}
		})
	}()
	defer func() {
		cancel()
		<-done
	}()

	if _, err := os.Stat(statsPath); err == nil {
		trigger(kick)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !relevant(statsPath, event.Name) {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("change detected")
			trigger(kick)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}

// runLoop runs fn once per kick, waiting on th between runs.
func runLoop(ctx context.Context, th *ratelimit.Throttle, kick <-chan struct{}, fn func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
		}
		if !th.Allow() {
			log.Debug().Msg("analysis throttled")
			if err := th.Wait(ctx); err != nil {
				return
			}
		}
		fn()
	}
}

// trigger queues a run unless one is already queued.
func trigger(kick chan<- struct{}) {
	select {
	case kick <- struct{}{}:
	default:
	}
}

// relevant reports whether name belongs to the run of statsPath.
func relevant(statsPath, name string) bool {
	name = filepath.Clean(name)
	if name == filepath.Clean(statsPath) {
		return true
	}
	base, ok := data.RunBase(statsPath)
	if !ok {
		return false
	}
	ext := filepath.Ext(name)
	return strings.HasPrefix(name, filepath.Clean(base)+"_") && (ext == ".csv" || ext == ".json")
}
