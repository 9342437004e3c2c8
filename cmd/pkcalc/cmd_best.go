package main

import (
	"github.com/spf13/cobra"

	"github.com/warp/pk-reward-engine/rewards"
)

func newBestCommand() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Show the single most efficient PK tier within the budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runTask(cmd, &o, rewards.TaskCalculateEfficiency, comboFlags{})
			if err != nil {
				return err
			}
			return printBest(cmd.OutOrStdout(), o.format, res)
		},
	}
	bindOptions(cmd, &o)

	return cmd
}
