package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"loadgrade/internal/config"
	"loadgrade/internal/core"
	"loadgrade/internal/progress"
)

// UsersCSVEnv names the variable through which the load script finds its
// credentials file.
const UsersCSVEnv = "LOADGRADE_USERS_CSV"

// defaultCredentialCount matches the placeholder accounts a seeded target
// is expected to hold.
const defaultCredentialCount = 100

var (
	ErrLocustNotFound    = errors.New("locust not found")
	ErrLocustfileMissing = errors.New("locustfile not found")
	ErrTargetUnreachable = errors.New("target host unreachable")
)

// Options configure a Driver.
type Options struct {
	Host          string
	Locustfile    string
	LocustBin     string
	ResultsDir    string
	UsersCSV      string
	SeedCheckPath string
	// Quiet suppresses the progress line.
	Quiet bool

	HTTPClient *http.Client
	Clock      core.Clock
	// Stdout and Stderr receive Locust's output in interactive mode.
	Stdout io.Writer
	Stderr io.Writer
}

// OptionsFromConfig maps the driver section of the configuration.
func OptionsFromConfig(c config.DriverConfig) Options {
	return Options{
		Host:          c.Host,
		Locustfile:    c.Locustfile,
		LocustBin:     c.LocustBin,
		ResultsDir:    c.ResultsDir,
		UsersCSV:      c.UsersCSV,
		SeedCheckPath: c.SeedCheckPath,
	}
}

type Driver struct {
	opts        Options
	credentials []Credential
}

func New(opts Options) *Driver {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.Clock == nil {
		opts.Clock = core.RealClock{}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Driver{opts: opts}
}

// Credentials returns the accounts the next run will use, as loaded by Check.
func (d *Driver) Credentials() []Credential {
	return d.credentials
}

// CheckResult lists the non-fatal findings of Check.
type CheckResult struct {
	LocustPath string
	Warnings   []string
}

// Check verifies everything a run needs. A missing Locust binary or
// locustfile, or a host that cannot be reached, is an error; an unexpected
// status from the host or a missing users file is only a warning. On success
// the credentials for the run are loaded.
func (d *Driver) Check(ctx context.Context) (*CheckResult, error) {
	res := &CheckResult{}

	path, err := exec.LookPath(d.opts.LocustBin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (install with: pip install locust): %w", ErrLocustNotFound, d.opts.LocustBin, err)
	}
	res.LocustPath = path
	log.Info().Str("path", path).Msg("locust found")

	if _, err := os.Stat(d.opts.Locustfile); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocustfileMissing, d.opts.Locustfile)
	}
	log.Info().Str("file", d.opts.Locustfile).Msg("locustfile found")

	status, err := d.get(ctx, d.opts.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTargetUnreachable, d.opts.Host, err)
	}
	if status.code != http.StatusOK {
		res.warn("target %s answered with status %d", d.opts.Host, status.code)
	} else {
		log.Info().Str("host", d.opts.Host).Msg("target reachable")
	}

	d.credentials, err = LoadCredentials(d.opts.UsersCSV)
	switch {
	case errors.Is(err, os.ErrNotExist):
		res.warn("users file %s not found, using %d default test users", d.opts.UsersCSV, defaultCredentialCount)
		d.credentials = DefaultCredentials(defaultCredentialCount)
	case err != nil:
		return nil, fmt.Errorf("loading users file: %w", err)
	default:
		log.Info().Str("file", d.opts.UsersCSV).Int("users", len(d.credentials)).Msg("users file loaded")
	}

	if d.opts.SeedCheckPath != "" {
		d.checkSeedData(ctx, res)
	}
	return res, nil
}

func (r *CheckResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn().Msg(msg)
}

// minSeedUsers is the account count below which the target is considered
// under-seeded.
const minSeedUsers = 100

// checkSeedData confirms the target holds test accounts. It never fails the
// check; an endpoint that needs authentication is accepted as is.
func (d *Driver) checkSeedData(ctx context.Context, res *CheckResult) {
	url := strings.TrimRight(d.opts.Host, "/") + d.opts.SeedCheckPath
	status, err := d.get(ctx, url)
	switch {
	case err != nil:
		res.warn("could not validate seed data: %v", err)
	case status.code == http.StatusUnauthorized || status.code == http.StatusForbidden:
		res.warn("could not validate seed data: %s requires authentication", d.opts.SeedCheckPath)
	case status.code != http.StatusOK:
		res.warn("unexpected status %d from %s", status.code, d.opts.SeedCheckPath)
	default:
		users := gjson.GetBytes(status.body, "users.#").Int()
		log.Info().Int64("users", users).Msg("seed data found")
		if users < minSeedUsers {
			res.warn("target holds only %d users, seed more test data for realistic runs", users)
		}
	}
}

type response struct {
	code int
	body []byte
}

func (d *Driver) get(ctx context.Context, url string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response{}, err
	}
	resp, err := d.opts.HTTPClient.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return response{}, err
	}
	return response{code: resp.StatusCode, body: body}, nil
}

// RunResult names the files a headless run produced.
type RunResult struct {
	StatsPath string
	HTMLPath  string
	ExitCode  int
}

// Args builds the headless Locust command line for s writing results under
// prefix.
func (d *Driver) Args(s Scenario, csvPrefix, htmlPath string) []string {
	return []string{
		"-f", d.opts.Locustfile,
		"--host", d.opts.Host,
		"--users", strconv.Itoa(s.Users),
		"--spawn-rate", strconv.FormatFloat(s.SpawnRate, 'f', -1, 64),
		"--run-time", fmt.Sprintf("%ds", int(s.Duration.Seconds())),
		"--headless",
		"--html", htmlPath,
		"--csv", csvPrefix,
	}
}

// Run executes s headless and returns the stats file to analyze. Locust
// exits non-zero when any request failed; that still counts as a completed
// run as long as the stats file was written. Cancelling ctx interrupts
// Locust, which then writes its results and exits.
func (d *Driver) Run(ctx context.Context, s Scenario) (*RunResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.opts.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}

	env, err := d.credentialsEnv()
	if err != nil {
		return nil, err
	}

	ts := d.opts.Clock.Now().Unix()
	prefix := filepath.Join(d.opts.ResultsDir, fmt.Sprintf("data_%d", ts))
	res := &RunResult{
		StatsPath: prefix + "_stats.csv",
		HTMLPath:  filepath.Join(d.opts.ResultsDir, fmt.Sprintf("report_%d.html", ts)),
	}

	cmd := exec.CommandContext(ctx, d.opts.LocustBin, d.Args(s, prefix, res.HTMLPath)...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 30 * time.Second

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout

	log.Info().
		Str("scenario", s.Name).
		Int("users", s.Users).
		Float64("spawn_rate", s.SpawnRate).
		Dur("duration", s.Duration).
		Msg("starting load run")
	log.Debug().Strs("args", cmd.Args).Msg("locust command")

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting locust: %w", err)
	}

	prog := progress.NewProgress(s.Name, s.Phases(), d.opts.Clock, d.opts.Quiet)
	prog.SetOutput(d.opts.Stderr)
	prog.Printf("Load run %q: %d users at %g/s for %s against %s",
		s.Name, s.Users, s.SpawnRate, s.Duration, d.opts.Host)
	prog.Start()
	streamLines(out, func(line string) {
		log.Debug().Str("source", "locust").Msg(line)
	})
	err = cmd.Wait()
	prog.Stop()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("running locust: %w", err)
	}

	if _, statErr := os.Stat(res.StatsPath); statErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("load run interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("locust exited with code %d without writing %s", res.ExitCode, res.StatsPath)
	}
	if res.ExitCode != 0 {
		log.Warn().Int("exit_code", res.ExitCode).Msg("locust reported failed requests")
	}
	log.Info().Str("stats", res.StatsPath).Str("html", res.HTMLPath).Msg("load run finished")
	return res, nil
}

// Interactive starts Locust with its web UI and blocks until it exits or
// ctx is cancelled.
func (d *Driver) Interactive(ctx context.Context) error {
	env, err := d.credentialsEnv()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, d.opts.LocustBin, "-f", d.opts.Locustfile, "--host", d.opts.Host)
	cmd.Env = append(os.Environ(), env...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 10 * time.Second
	cmd.Stdout = d.opts.Stdout
	cmd.Stderr = d.opts.Stderr

	log.Info().Str("host", d.opts.Host).Str("ui", "http://localhost:8089").Msg("starting locust web UI, Ctrl+C to stop")
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running locust: %w", err)
	}
	return nil
}

// credentialsEnv points the load script at the users file. When Check fell
// back to generated accounts they are written to the results directory.
func (d *Driver) credentialsEnv() ([]string, error) {
	path := d.opts.UsersCSV
	if _, err := os.Stat(path); err != nil {
		if len(d.credentials) == 0 {
			return nil, nil
		}
		if err := os.MkdirAll(d.opts.ResultsDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
		path = filepath.Join(d.opts.ResultsDir, "generated_users.csv")
		if err := WriteCredentials(path, d.credentials); err != nil {
			return nil, fmt.Errorf("writing generated users: %w", err)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return []string{UsersCSVEnv + "=" + abs}, nil
}

func streamLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			fn(line)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("locust output no longer logged")
	}
	// Drain to EOF; Locust blocks on write once the pipe is full.
	_, _ = io.Copy(io.Discard, r)
}
