package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
	"github.com/warp/pk-reward-engine/sheet"
)

func newOptimizeCommand() *cobra.Command {
	var o options
	var out string

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Allocate a budget greedily across PK tiers",
		Long: `Allocate the whole budget to tiers in order of reward per cost,
using each tier as many times as it fits before moving to the next.

With --out, the allocation is also written to an xlsx workbook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runTask(cmd, &o, rewards.TaskOptimizeRewards, comboFlags{})
			if err != nil {
				return err
			}
			if out != "" {
				if err := exportAllocation(out, &o, res); err != nil {
					return err
				}
			}
			return printAllocation(cmd.OutOrStdout(), o.format, res)
		},
	}
	bindOptions(cmd, &o)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the allocation to this xlsx file")

	return cmd
}

func exportAllocation(path string, o *options, res rewards.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	exp := sheet.AllocationExport{
		Diamonds:   rewards.Convert(o.budget, generic.Unit(o.budgetUnit), rewards.UnitDiamonds),
		Unit:       res.Unit,
		Allocation: *res.Allocation,
	}
	if err := sheet.WriteAllocation(f, exp); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
