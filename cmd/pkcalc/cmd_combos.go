package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
	"github.com/warp/pk-reward-engine/sheet"
)

// comboFlags are the combo-only flags.
type comboFlags struct {
	maxSize int
	order   string
	top     int
}

func newCombosCommand() *cobra.Command {
	var o options
	var c comboFlags
	var out string

	cmd := &cobra.Command{
		Use:   "combos",
		Short: "Rank combinations of distinct PK tiers that fit the budget",
		Long: `List every combination of up to --max-size distinct tiers whose total
cost fits the budget, best first.

Orders:
  by_yield    Total reward, then lower cost (default)
  by_rebate   Average rebate of members that have one
  by_density  Total reward per cost`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runTask(cmd, &o, rewards.TaskSummarizeCombo, c)
			if err != nil {
				return err
			}
			if out != "" {
				if err := exportCombos(out, res.Summaries); err != nil {
					return err
				}
			}
			return printCombos(cmd.OutOrStdout(), o.format, res)
		},
	}
	bindOptions(cmd, &o)
	cmd.Flags().IntVarP(&c.maxSize, "max-size", "m", 2, "Largest number of tiers in a combination")
	cmd.Flags().StringVar(&c.order, "order", string(generic.OrderByYield), "Ranking: by_yield, by_rebate or by_density")
	cmd.Flags().IntVarP(&c.top, "top", "n", 10, "Show only the first N combinations (0 = all)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the combinations to this xlsx file")

	return cmd
}

func exportCombos(path string, summaries []generic.ComboSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sheet.WriteCombos(f, summaries); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
