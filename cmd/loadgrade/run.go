package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"loadgrade/internal/driver"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		scenario    string
		custom      bool
		users       int
		spawnRate   float64
		seconds     int
		interactive bool
		skipChecks  bool
		quiet       bool
		out         outputFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a load test with Locust and analyze it",
		Long: `Check the prerequisites, run Locust headless with a predefined or custom
scenario, then analyze the results exactly like the analyze command.

With --interactive Locust is started with its web UI instead and nothing is
analyzed.

Examples:
  loadgrade run --scenario baseline
  loadgrade run --custom --users 100 --spawn-rate 10 --time 120
  loadgrade run --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.apply(cmd, &a.cfg.Analysis); err != nil {
				return err
			}

			var s driver.Scenario
			if !interactive {
				var err error
				if custom {
					s, err = driver.Custom(users, spawnRate, time.Duration(seconds)*time.Second)
				} else {
					s, err = driver.NewCatalog(a.cfg.Driver.Scenarios).Get(scenario)
				}
				if err != nil {
					return err
				}
			}

			opts := driver.OptionsFromConfig(a.cfg.Driver)
			opts.Quiet = quiet
			opts.Clock = a.clock
			opts.Stdout = a.stdout
			opts.Stderr = a.stderr
			d := driver.New(opts)

			if !skipChecks {
				if _, err := d.Check(cmd.Context()); err != nil {
					return err
				}
			}

			if interactive {
				return d.Interactive(cmd.Context())
			}

			res, err := d.Run(cmd.Context(), s)
			if err != nil {
				return err
			}
			return a.analyze(res.StatsPath, out.json)
		},
	}

	f := cmd.Flags()
	f.StringVar(&scenario, "scenario", "", "predefined scenario (see the scenarios command)")
	f.BoolVar(&custom, "custom", false, "run a custom scenario")
	f.IntVar(&users, "users", 0, "number of users for --custom")
	f.Float64Var(&spawnRate, "spawn-rate", 0, "users started per second for --custom")
	f.IntVar(&seconds, "time", 0, "run time in seconds for --custom")
	f.BoolVar(&interactive, "interactive", false, "start the Locust web UI")
	f.BoolVar(&skipChecks, "skip-checks", false, "skip the prerequisite checks")
	f.BoolVarP(&quiet, "quiet", "q", false, "suppress the progress line")
	cmd.MarkFlagsMutuallyExclusive("scenario", "custom", "interactive")
	cmd.MarkFlagsOneRequired("scenario", "custom", "interactive")
	cmd.MarkFlagsRequiredTogether("custom", "users", "spawn-rate", "time")
	out.register(cmd)

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if !custom && (cmd.Flags().Changed("users") || cmd.Flags().Changed("spawn-rate") || cmd.Flags().Changed("time")) {
			return errors.New("--users, --spawn-rate and --time require --custom")
		}
		return nil
	}
	return cmd
}
