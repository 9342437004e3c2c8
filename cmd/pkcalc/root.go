package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
)

var version = "dev"

// errUsage marks errors caused by flag combinations.
var errUsage = errors.New("usage")

// options are the flags shared by every computing subcommand.
type options struct {
	catalogPath  string
	preset       string
	sheet        string
	catalogUnit  string
	strict       bool
	lenientYield bool

	budget     int
	budgetUnit string
	format     string
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkcalc",
		Short: "pkcalc - PK reward allocation calculator",
		Long: `pkcalc plans how to spend a PK budget.

It reads a catalog of PK tiers from a workbook, a CSV file, a JSON/YAML
definition or a built-in preset, then allocates a budget greedily, picks
the most efficient single tier, or ranks every combination that fits.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newOptimizeCommand())
	cmd.AddCommand(newBestCommand())
	cmd.AddCommand(newCombosCommand())
	cmd.AddCommand(newPresetsCommand())

	return cmd
}

// bindOptions registers the catalog and budget flags on cmd.
func bindOptions(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVarP(&o.catalogPath, "catalog", "c", "", "Catalog file (.xlsx, .csv, .json, .yaml)")
	f.StringVarP(&o.preset, "preset", "p", "", "Built-in catalog ID (see 'pkcalc presets')")
	f.StringVar(&o.sheet, "sheet", "", "Workbook sheet (default \"Rules and rewards\")")
	f.StringVar(&o.catalogUnit, "catalog-unit", string(generic.UnitPoints), "Unit of costs in a workbook or CSV catalog")
	f.BoolVar(&o.strict, "strict", false, "Fail on the first malformed catalog row")
	f.BoolVar(&o.lenientYield, "lenient-yield", false, "Accept numeric text in yield cells")

	f.IntVarP(&o.budget, "budget", "b", 0, "Budget")
	f.StringVarP(&o.budgetUnit, "unit", "u", string(rewards.UnitDiamonds), "Unit of --budget: diamonds or points")
	f.StringVarP(&o.format, "format", "f", "table", "Output format: table or json")
	_ = cmd.MarkFlagRequired("budget")
}

func (o *options) validate() error {
	if o.format != "table" && o.format != "json" {
		return fmt.Errorf("%w: unsupported format %q: must be table or json", errUsage, o.format)
	}
	if (o.catalogPath == "") == (o.preset == "") {
		return fmt.Errorf("%w: exactly one of --catalog or --preset is required", errUsage)
	}
	return nil
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
