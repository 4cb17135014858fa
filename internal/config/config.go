// Package config handles YAML configuration parsing with .env and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"loadgrade/internal/assessment"
)

// EnvPrefix prefixes every environment override, e.g. LOADGRADE_HOST.
const EnvPrefix = "LOADGRADE_"

// DefaultEnvFiles are loaded, when present, before environment overrides.
var DefaultEnvFiles = []string{".env", ".env.local"}

var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration structure.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Driver   DriverConfig   `yaml:"driver"`
	Serve    ServeConfig    `yaml:"serve"`
	Watch    WatchConfig    `yaml:"watch"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// AnalysisConfig controls which artefacts an analysis writes.
type AnalysisConfig struct {
	OutputDir  string `yaml:"output_dir" env:"OUTPUT_DIR"`
	HTMLReport string `yaml:"html_report" env:"HTML_REPORT"`
	Charts     bool   `yaml:"charts" env:"CHARTS"`
	HTML       bool   `yaml:"html" env:"HTML"`
	XLSX       bool   `yaml:"xlsx" env:"XLSX"`
	Prometheus bool   `yaml:"prometheus" env:"PROMETHEUS"`
	// FailBelow makes the CLI exit non-zero for grades worse than it. The
	// default F never fails.
	FailBelow assessment.Grade `yaml:"fail_below" env:"FAIL_BELOW"`
}

// DriverConfig describes how load runs are launched.
type DriverConfig struct {
	Host       string `yaml:"host" env:"HOST"`
	Locustfile string `yaml:"locustfile" env:"LOCUSTFILE"`
	UsersCSV   string `yaml:"users_csv" env:"USERS_CSV"`
	LocustBin  string `yaml:"locust_bin" env:"LOCUST_BIN"`
	ResultsDir string `yaml:"results_dir" env:"RESULTS_DIR"`
	// SeedCheckPath is a JSON endpoint listing users under "users", probed
	// before a run to confirm the target holds test data. Empty skips it.
	SeedCheckPath string                    `yaml:"seed_check_path" env:"SEED_CHECK_PATH"`
	Scenarios     map[string]ScenarioConfig `yaml:"scenarios"`
}

// ScenarioConfig overrides or adds a named load scenario.
type ScenarioConfig struct {
	Users       int           `yaml:"users"`
	SpawnRate   float64       `yaml:"spawn_rate"`
	Duration    time.Duration `yaml:"duration"`
	Description string        `yaml:"description"`
}

type ServeConfig struct {
	Addr string `yaml:"addr" env:"SERVE_ADDR"`
}

type WatchConfig struct {
	MinInterval time.Duration `yaml:"min_interval" env:"WATCH_MIN_INTERVAL"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Analysis: AnalysisConfig{
			OutputDir:  "load_test_analysis",
			HTMLReport: "load_test_report.html",
			Charts:     true,
			HTML:       true,
			FailBelow:  assessment.GradeF,
		},
		Driver: DriverConfig{
			Host:       "http://localhost:3000",
			Locustfile: "locustfile.py",
			UsersCSV:   "test_users.csv",
			LocustBin:  "locust",
			ResultsDir: "load_test_results",
		},
		Serve: ServeConfig{Addr: ":8090"},
		Watch: WatchConfig{MinInterval: 2 * time.Second},
	}
}

// Load reads the YAML file at path over the defaults, loads envFiles that
// exist, applies LOADGRADE_* environment overrides and validates the result.
// An empty path skips the file.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads the env files that exist and returns how many were loaded.
// Variables already set in the process environment win.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Validate reports every problem found, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		invalid("log.level %q", c.Log.Level)
	}
	if c.Analysis.OutputDir == "" {
		invalid("analysis.output_dir is required")
	}
	if c.Analysis.HTML && c.Analysis.HTMLReport == "" {
		invalid("analysis.html_report is required when html is enabled")
	}
	if c.Driver.LocustBin == "" {
		invalid("driver.locust_bin is required")
	}
	if c.Serve.Addr == "" {
		invalid("serve.addr is required")
	}
	if c.Watch.MinInterval < 0 {
		invalid("watch.min_interval must not be negative")
	}
	for name, s := range c.Driver.Scenarios {
		if s.Users <= 0 {
			invalid("scenario %q: users must be positive", name)
		}
		if s.SpawnRate <= 0 {
			invalid("scenario %q: spawn_rate must be positive", name)
		}
		if s.Duration < time.Second {
			invalid("scenario %q: duration must be at least 1s", name)
		}
	}
	return errors.Join(errs...)
}
