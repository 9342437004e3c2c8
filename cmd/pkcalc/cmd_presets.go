package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/pk-reward-engine/rewards"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List built-in PK catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUNIT\tTIERS")
			for _, cat := range rewards.PresetCatalogs() {
				fmt.Fprintf(tw, "%s\t%s\t", cat.ID, cat.Unit)
				for i, o := range cat.Options {
					if i > 0 {
						fmt.Fprint(tw, ", ")
					}
					fmt.Fprint(tw, o.Describe())
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
}
