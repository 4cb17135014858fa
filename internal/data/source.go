package data

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"loadgrade/internal/core"
)

const (
	statsSuffix    = "_stats"
	failuresSuffix = "_failures"
	historySuffix  = "_stats_history"
)

// RunFiles are the files belonging to one run. Failures and History are
// empty when the run did not produce them.
type RunFiles struct {
	Stats    string
	Failures string
	History  string
}

// RunBase returns the <base> of a <base>_stats.<ext> path. It reports false
// for paths that do not follow that convention.
func RunBase(statsPath string) (string, bool) {
	stem := strings.TrimSuffix(statsPath, filepath.Ext(statsPath))
	if !strings.HasSuffix(stem, statsSuffix) {
		return "", false
	}
	return strings.TrimSuffix(stem, statsSuffix), true
}

// Discover derives the sibling files of a stats file. Siblings are only
// looked up when the stats file follows the <base>_stats.<ext> convention.
func Discover(statsPath string) RunFiles {
	files := RunFiles{Stats: statsPath}

	base, ok := RunBase(statsPath)
	if !ok {
		return files
	}
	ext := filepath.Ext(statsPath)

	for _, candidate := range []string{base + failuresSuffix + ext, base + failuresSuffix + ".csv"} {
		if fileExists(candidate) {
			files.Failures = candidate
			break
		}
	}
	if h := base + historySuffix + ".csv"; fileExists(h) {
		files.History = h
	}
	return files
}

// LoadRun loads the stats file at path plus whichever sibling files exist.
func LoadRun(path string) (*core.Dataset, error) {
	files := Discover(path)

	records, err := loadByExt(files.Stats, LoadStatsCSV, LoadRecordsJSON)
	if err != nil {
		return nil, fmt.Errorf("loading stats %s: %w", files.Stats, err)
	}
	log.Info().Str("file", files.Stats).Int("records", len(records)).Msg("loaded stats")

	ds := &core.Dataset{
		Source:   path,
		Records:  records,
		Failures: []core.FailureRecord{},
		History:  []core.HistoryPoint{},
	}

	if files.Failures != "" {
		ds.Failures, err = loadByExt(files.Failures, LoadFailuresCSV, LoadFailuresJSON)
		if err != nil {
			return nil, fmt.Errorf("loading failures %s: %w", files.Failures, err)
		}
		log.Info().Str("file", files.Failures).Int("failures", len(ds.Failures)).Msg("loaded failures")
	}

	if files.History != "" {
		ds.History, err = loadByExt(files.History, LoadHistoryCSV, nil)
		if err != nil {
			return nil, fmt.Errorf("loading history %s: %w", files.History, err)
		}
		log.Info().Str("file", files.History).Int("points", len(ds.History)).Msg("loaded history")
	}

	return ds, nil
}

// FindLatest returns the most recently modified *_stats.csv or
// *_stats.json in dir.
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading results directory: %w", err)
	}

	var (
		latest   string
		latestAt int64
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, statsSuffix+".csv") && !strings.HasSuffix(name, statsSuffix+".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestAt {
			latest, latestAt = filepath.Join(dir, name), mod
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoStatsFile, dir)
	}
	return latest, nil
}

func loadByExt[T any](path string, fromCSV func(io.Reader) ([]T, error), fromJSON func([]byte) ([]T, error)) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".csv":
		return fromCSV(bytes.NewReader(data))
	case ext == ".json" && fromJSON != nil:
		return fromJSON(data)
	default:
		return nil, fmt.Errorf("%w %q (use .csv or .json)", ErrUnsupportedFormat, ext)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
