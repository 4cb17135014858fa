package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"loadgrade/internal/driver"
)

func newScenariosCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the predefined scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := driver.NewCatalog(a.cfg.Driver.Scenarios)
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tUSERS\tSPAWN RATE\tDURATION\tDESCRIPTION")
			for _, name := range catalog.Names() {
				s := catalog[name]
				fmt.Fprintf(w, "%s\t%d\t%g/s\t%s\t%s\n", s.Name, s.Users, s.SpawnRate, s.Duration, s.Description)
			}
			return w.Flush()
		},
	}
}
