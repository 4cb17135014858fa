package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"loadgrade/internal/data"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		csvPath string
		dir     string
		out     outputFlags
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the results of a finished run",
		Long: `Analyze a Locust stats file, print the summary and grade, and write the
HTML report, charts and optional workbook.

The failures and history files of the same run are picked up automatically
when they sit next to the stats file.

Examples:
  loadgrade analyze --csv load_test_results/data_1700000000_stats.csv
  loadgrade analyze --dir load_test_results --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.apply(cmd, &a.cfg.Analysis); err != nil {
				return err
			}
			path := csvPath
			if dir != "" {
				latest, err := data.FindLatest(dir)
				if err != nil {
					return err
				}
				log.Info().Str("file", latest).Msg("analyzing latest run")
				path = latest
			}
			return a.analyze(path, out.json)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "stats file of the run (<base>_stats.csv or .json)")
	cmd.Flags().StringVar(&dir, "dir", "", "analyze the most recent run in this directory")
	cmd.MarkFlagsMutuallyExclusive("csv", "dir")
	cmd.MarkFlagsOneRequired("csv", "dir")
	out.register(cmd)
	return cmd
}
