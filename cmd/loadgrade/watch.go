package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"loadgrade/internal/analyzer"
	"loadgrade/internal/server"
	"loadgrade/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		csvPath string
		out     outputFlags
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-analyze a run whenever its result files change",
		Long: `Watch the result files of a run and re-analyze it after every write, so the
report and charts follow a run in progress. Each analysis prints the summary.
Stops on Ctrl+C.

Example:
  loadgrade watch --csv load_test_results/data_1700000000_stats.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.apply(cmd, &a.cfg.Analysis); err != nil {
				return err
			}
			return watch.Watch(cmd.Context(), csvPath, a.cfg.Watch.MinInterval, func(path string) error {
				res, err := analyzer.New(analyzer.OptionsFromConfig(a.cfg.Analysis), a.clock).AnalyzeFile(path)
				if err != nil {
					return err
				}
				return a.print(res.Report, out.json)
			})
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "stats file of the run")
	_ = cmd.MarkFlagRequired("csv")
	out.register(cmd)
	_ = cmd.Flags().MarkHidden("fail-below")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var (
		csvPath string
		addr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest analysis of a run over HTTP",
		Long: `Serve a dashboard for a run: the HTML report on /, the JSON report on
/api/report and Prometheus metrics on /metrics. The run is re-analyzed
whenever its files change.

Example:
  loadgrade serve --csv load_test_results/data_1700000000_stats.csv --addr :8090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Serve.Addr = addr
			}

			srv := server.New()
			// The dashboard renders its own HTML and charts; nothing is written to disk.
			opts := analyzer.Options{}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return srv.ListenAndServe(ctx, a.cfg.Serve.Addr)
			})
			g.Go(func() error {
				return watch.Watch(ctx, csvPath, a.cfg.Watch.MinInterval, func(path string) error {
					res, err := analyzer.New(opts, a.clock).AnalyzeFile(path)
					if err != nil {
						return err
					}
					return srv.Update(res.Report)
				})
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "stats file of the run")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
