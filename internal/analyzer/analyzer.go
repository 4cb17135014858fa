// Package analyzer runs the full analysis of one run: load the measurement
// files, aggregate, grade and write the configured artefacts.
package analyzer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"loadgrade/internal/chart"
	"loadgrade/internal/config"
	"loadgrade/internal/core"
	"loadgrade/internal/data"
	"loadgrade/internal/report"
)

// Artefact file names inside the output directory.
const (
	XLSXFile       = "load_test_report.xlsx"
	PrometheusFile = "loadgrade.prom"
)

// Options select the artefacts written next to the console summary.
type Options struct {
	OutputDir  string
	HTMLReport string
	HTML       bool
	Charts     bool
	XLSX       bool
	Prometheus bool
}

// OptionsFromConfig maps the analysis section of the configuration.
func OptionsFromConfig(c config.AnalysisConfig) Options {
	return Options{
		OutputDir:  c.OutputDir,
		HTMLReport: c.HTMLReport,
		HTML:       c.HTML,
		Charts:     c.Charts,
		XLSX:       c.XLSX,
		Prometheus: c.Prometheus,
	}
}

// Result is the report and the artefact paths written for it.
type Result struct {
	Report *report.Report
	Files  []string
}

type Analyzer struct {
	opts  Options
	clock core.Clock
}

func New(opts Options, clock core.Clock) *Analyzer {
	if clock == nil {
		clock = core.RealClock{}
	}
	return &Analyzer{opts: opts, clock: clock}
}

// AnalyzeFile loads the run whose stats file is path and analyzes it.
func (a *Analyzer) AnalyzeFile(path string) (*Result, error) {
	ds, err := data.LoadRun(path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ds)
}

// Analyze grades ds and writes the enabled artefacts.
func (a *Analyzer) Analyze(ds *core.Dataset) (*Result, error) {
	r := report.Build(ds, a.clock.Now())
	log.Info().
		Str("run_id", r.RunID).
		Int("endpoints", len(r.Endpoints)).
		Stringer("grade", r.Assessment.Grade).
		Msg("analysis complete")

	res := &Result{Report: r}

	var charts []chart.Chart
	if a.opts.Charts {
		charts = chart.All(r.Endpoints, r.History)
		paths, err := chart.WriteFiles(a.opts.OutputDir, charts)
		res.Files = append(res.Files, paths...)
		if err != nil {
			return res, err
		}
		log.Info().Str("dir", a.opts.OutputDir).Int("charts", len(paths)).Msg("charts written")
	}

	if a.opts.HTML {
		err := a.write(res, a.opts.HTMLReport, func(w io.Writer) error {
			return report.WriteHTML(w, r, charts)
		})
		if err != nil {
			return res, err
		}
	}
	if a.opts.XLSX {
		err := a.write(res, filepath.Join(a.opts.OutputDir, XLSXFile), func(w io.Writer) error {
			return report.WriteXLSX(w, r)
		})
		if err != nil {
			return res, err
		}
	}
	if a.opts.Prometheus {
		err := a.write(res, filepath.Join(a.opts.OutputDir, PrometheusFile), func(w io.Writer) error {
			return report.WritePrometheus(w, r)
		})
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

func (a *Analyzer) write(res *Result, path string, render func(io.Writer) error) error {
	if err := WriteFileAtomic(path, render); err != nil {
		return err
	}
	res.Files = append(res.Files, path)
	log.Info().Str("file", path).Msg("report written")
	return nil
}

// WriteFileAtomic renders into a temporary file next to path and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(path string, render func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
