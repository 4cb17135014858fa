package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"loadgrade/internal/analyzer"
	"loadgrade/internal/assessment"
	"loadgrade/internal/config"
	"loadgrade/internal/core"
	"loadgrade/internal/logging"
	"loadgrade/internal/report"
)

var errGradeBelow = errors.New("grade below threshold")

// app is the state shared by all subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	clock  core.Clock

	configPath string
	logLevel   string
	cfg        *config.Config
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, clock: core.RealClock{}}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "loadgrade",
		Short: "Grade load test results",
		Long: `loadgrade analyzes the results of a Locust load test, computes fleet-wide
statistics and assigns the run a grade of A, C or F with the issues and
recommendations behind it.

Examples:
  loadgrade analyze --csv load_test_results/data_1700000000_stats.csv
  loadgrade analyze --dir load_test_results --xlsx --fail-below C
  loadgrade run --scenario baseline
  loadgrade serve --csv load_test_results/data_1700000000_stats.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCmd(a),
		newRunCmd(a),
		newScenariosCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath, config.DefaultEnvFiles...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := logging.Setup(cfg.Log.Level, a.stderr); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// outputFlags are the artefact flags shared by analyze and run.
type outputFlags struct {
	outputDir  string
	htmlReport string
	noCharts   bool
	noHTML     bool
	xlsx       bool
	prometheus bool
	json       bool
	failBelow  string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.outputDir, "output-dir", "", "directory for charts and workbook (default from config)")
	f.StringVar(&o.htmlReport, "html-report", "", "HTML report path (default from config)")
	f.BoolVar(&o.noCharts, "no-charts", false, "skip chart generation")
	f.BoolVar(&o.noHTML, "no-html", false, "skip the HTML report")
	f.BoolVar(&o.xlsx, "xlsx", false, "also write an XLSX workbook")
	f.BoolVar(&o.prometheus, "prometheus", false, "also write Prometheus text exposition")
	f.BoolVar(&o.json, "json", false, "print the report as JSON instead of text")
	f.StringVar(&o.failBelow, "fail-below", "", "exit with status 1 when the grade is below this (A, C or F)")
}

// apply overrides the analysis config with the flags that were set.
func (o *outputFlags) apply(cmd *cobra.Command, c *config.AnalysisConfig) error {
	f := cmd.Flags()
	if f.Changed("output-dir") {
		c.OutputDir = o.outputDir
	}
	if f.Changed("html-report") {
		c.HTMLReport = o.htmlReport
	}
	if o.noCharts {
		c.Charts = false
	}
	if o.noHTML {
		c.HTML = false
	}
	if o.xlsx {
		c.XLSX = true
	}
	if o.prometheus {
		c.Prometheus = true
	}
	if f.Changed("fail-below") {
		g, err := assessment.ParseGrade(o.failBelow)
		if err != nil {
			return err
		}
		c.FailBelow = g
	}
	return nil
}

// analyze runs the analysis of statsPath, prints the report and enforces
// the fail-below grade.
func (a *app) analyze(statsPath string, asJSON bool) error {
	res, err := analyzer.New(analyzer.OptionsFromConfig(a.cfg.Analysis), a.clock).AnalyzeFile(statsPath)
	if err != nil {
		return err
	}

	if err := a.print(res.Report, asJSON); err != nil {
		return err
	}

	got, want := res.Report.Assessment.Grade, a.cfg.Analysis.FailBelow
	if !got.AtLeast(want) {
		return fmt.Errorf("%w: got %s, want at least %s", errGradeBelow, got, want)
	}
	return nil
}

func (a *app) print(r *report.Report, asJSON bool) error {
	if asJSON {
		return report.WriteJSON(a.stdout, r)
	}
	return report.WriteText(a.stdout, r)
}
