package driver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadgrade/internal/core"
)

// fakeLocust records its arguments and users file, writes a stats file
// under the --csv prefix and exits with $FAKE_LOCUST_EXIT.
const fakeLocust = `#!/bin/sh
prefix=""
for arg in "$@"; do
  if [ "$prev" = "--csv" ]; then prefix="$arg"; fi
  prev="$arg"
done
echo "starting fake locust"
echo "$@" > "${prefix}_args.txt"
echo "$LOADGRADE_USERS_CSV" > "${prefix}_users.txt"
if [ -z "$FAKE_LOCUST_NO_STATS" ]; then
  printf 'Type,Name,Request Count\n' > "${prefix}_stats.csv"
fi
exit ${FAKE_LOCUST_EXIT:-0}
`

type fixture struct {
	dir  string
	opts Options
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake locust is a shell script")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "locust")
	require.NoError(t, os.WriteFile(bin, []byte(fakeLocust), 0o755))
	locustfile := filepath.Join(dir, "locustfile.py")
	require.NoError(t, os.WriteFile(locustfile, []byte("# load script\n"), 0o644))

	if handler == nil {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &fixture{
		dir: dir,
		opts: Options{
			Host:       srv.URL,
			Locustfile: locustfile,
			LocustBin:  bin,
			ResultsDir: filepath.Join(dir, "results"),
			UsersCSV:   filepath.Join(dir, "users.csv"),
			Quiet:      true,
			Clock:      core.NewFakeClock(time.Unix(1700000000, 0)),
		},
	}
}

func TestCheck_OK(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, WriteCredentials(f.opts.UsersCSV, DefaultCredentials(2)))

	d := New(f.opts)
	res, err := d.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, f.opts.LocustBin, res.LocustPath)
	assert.Empty(t, res.Warnings)
	assert.Len(t, d.Credentials(), 2)
}

func TestCheck_Warnings(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	d := New(f.opts)
	res, err := d.Check(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "answered with status 503")
	assert.Contains(t, res.Warnings[1], "using 100 default test users")
	assert.Len(t, d.Credentials(), 100)
}

func TestCheck_Failures(t *testing.T) {
	f := newFixture(t, nil)

	opts := f.opts
	opts.LocustBin = filepath.Join(f.dir, "no-such-locust")
	_, err := New(opts).Check(context.Background())
	assert.ErrorIs(t, err, ErrLocustNotFound)

	opts = f.opts
	opts.Locustfile = filepath.Join(f.dir, "missing.py")
	_, err = New(opts).Check(context.Background())
	assert.ErrorIs(t, err, ErrLocustfileMissing)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	opts = f.opts
	opts.Host = srv.URL
	_, err = New(opts).Check(context.Background())
	assert.ErrorIs(t, err, ErrTargetUnreachable)
}

func TestCheck_SeedData(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "few users",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"users": [{"id": 1}, {"id": 2}]}`))
			},
			want: "target holds only 2 users",
		},
		{
			name: "needs auth",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: "requires authentication",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: "unexpected status 500",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {})
			mux.Handle("/api/admin/users", tt.handler)
			f := newFixture(t, mux)
			require.NoError(t, WriteCredentials(f.opts.UsersCSV, DefaultCredentials(1)))
			f.opts.SeedCheckPath = "/api/admin/users"

			res, err := New(f.opts).Check(context.Background())
			require.NoError(t, err)
			require.Len(t, res.Warnings, 1)
			assert.Contains(t, res.Warnings[0], tt.want)
		})
	}
}

func TestRun(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, WriteCredentials(f.opts.UsersCSV, DefaultCredentials(1)))
	d := New(f.opts)

	res, err := d.Run(context.Background(), DefaultCatalog()["baseline"])
	require.NoError(t, err)

	prefix := filepath.Join(f.opts.ResultsDir, "data_1700000000")
	assert.Equal(t, prefix+"_stats.csv", res.StatsPath)
	assert.Equal(t, filepath.Join(f.opts.ResultsDir, "report_1700000000.html"), res.HTMLPath)
	assert.Zero(t, res.ExitCode)
	assert.FileExists(t, res.StatsPath)

	args, err := os.ReadFile(prefix + "_args.txt")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(d.Args(DefaultCatalog()["baseline"], prefix, res.HTMLPath), " "), strings.TrimSpace(string(args)))

	users, err := os.ReadFile(prefix + "_users.txt")
	require.NoError(t, err)
	assert.Equal(t, f.opts.UsersCSV, strings.TrimSpace(string(users)))
}

func TestRun_GeneratedCredentials(t *testing.T) {
	f := newFixture(t, nil)
	d := New(f.opts)
	_, err := d.Check(context.Background())
	require.NoError(t, err)

	_, err = d.Run(context.Background(), DefaultCatalog()["baseline"])
	require.NoError(t, err)

	generated := filepath.Join(f.opts.ResultsDir, "generated_users.csv")
	users, err := os.ReadFile(filepath.Join(f.opts.ResultsDir, "data_1700000000_users.txt"))
	require.NoError(t, err)
	assert.Equal(t, generated, strings.TrimSpace(string(users)))

	creds, err := LoadCredentials(generated)
	require.NoError(t, err)
	assert.Len(t, creds, 100)
}

func TestRun_NonZeroExitWithStats(t *testing.T) {
	f := newFixture(t, nil)
	t.Setenv("FAKE_LOCUST_EXIT", "1")

	res, err := New(f.opts).Run(context.Background(), DefaultCatalog()["baseline"])
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
}

func TestRun_NoStatsWritten(t *testing.T) {
	f := newFixture(t, nil)
	t.Setenv("FAKE_LOCUST_EXIT", "2")
	t.Setenv("FAKE_LOCUST_NO_STATS", "1")

	_, err := New(f.opts).Run(context.Background(), DefaultCatalog()["baseline"])
	assert.ErrorContains(t, err, "exited with code 2")
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := New(Options{}).Run(context.Background(), Scenario{Name: "empty"})
	assert.ErrorContains(t, err, "users must be positive")
}

func TestArgs(t *testing.T) {
	d := New(Options{Host: "http://target", Locustfile: "locustfile.py"})
	s := Scenario{Users: 300, SpawnRate: 12.5, Duration: 10 * time.Minute}

	assert.Equal(t, []string{
		"-f", "locustfile.py",
		"--host", "http://target",
		"--users", "300",
		"--spawn-rate", "12.5",
		"--run-time", "600s",
		"--headless",
		"--html", "out/report_1.html",
		"--csv", "out/data_1",
	}, d.Args(s, "out/data_1", "out/report_1.html"))
}

func TestInteractive(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(f.opts.LocustBin, []byte("#!/bin/sh\necho \"$@\"\nexit ${FAKE_LOCUST_EXIT:-0}\n"), 0o755))

	var stdout strings.Builder
	f.opts.Stdout = &stdout
	require.NoError(t, New(f.opts).Interactive(context.Background()))
	assert.Equal(t, "-f "+f.opts.Locustfile+" --host "+f.opts.Host, strings.TrimSpace(stdout.String()))

	t.Setenv("FAKE_LOCUST_EXIT", "3")
	assert.ErrorContains(t, New(f.opts).Interactive(context.Background()), "running locust")
}

const chattyLocust = `#!/bin/sh
prefix=""
for arg in "$@"; do
  if [ "$prev" = "--csv" ]; then prefix="$arg"; fi
  prev="$arg"
done
head -c 2000000 /dev/zero | tr '\000' 'x'
echo
i=0
while [ $i -lt 4000 ]; do echo "line $i"; i=$((i+1)); done
printf 'Type,Name,Request Count\n' > "${prefix}_stats.csv"
`

func TestRun_OversizedOutputLine(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(f.opts.LocustBin, []byte(chattyLocust), 0o755))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := New(f.opts).Run(ctx, DefaultCatalog()["baseline"])
	require.NoError(t, err)
	assert.FileExists(t, res.StatsPath)
	assert.NoError(t, ctx.Err(), "run must finish on its own")
}

func TestStreamLines_DrainsAfterLongLine(t *testing.T) {
	input := strings.Repeat("x", 2<<20) + "\nafter\n"
	r := strings.NewReader(input)

	var lines []string
	streamLines(r, func(line string) { lines = append(lines, line) })

	assert.Empty(t, lines)
	assert.Zero(t, r.Len(), "reader fully consumed")
}

func TestRun_AnnouncesScenario(t *testing.T) {
	f := newFixture(t, nil)
	var stderr strings.Builder
	f.opts.Quiet = false
	f.opts.Stderr = &stderr

	_, err := New(f.opts).Run(context.Background(), DefaultCatalog()["baseline"])
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), `Load run "baseline": 50 users at 5/s for 5m0s against `+f.opts.Host)
}
