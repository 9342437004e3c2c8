package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
)

// runTask loads the catalog and runs one planner task on it.
func runTask(cmd *cobra.Command, o *options, task rewards.Task, c comboFlags) (rewards.Result, error) {
	if err := o.validate(); err != nil {
		return rewards.Result{}, err
	}
	cat, err := loadCatalog(o)
	if err != nil {
		return rewards.Result{}, err
	}

	planner := rewards.NewPlanner(nil)
	return planner.Run(cmd.Context(), rewards.Request{
		Task:       task,
		Catalog:    &cat,
		Budget:     o.budget,
		BudgetUnit: generic.Unit(o.budgetUnit),
		MaxSize:    c.maxSize,
		Order:      generic.ComboOrder(c.order),
		Top:        c.top,
	})
}

type allocationLine struct {
	Category   string          `json:"category"`
	Cost       int             `json:"cost"`
	Yield      decimal.Decimal `json:"yield"`
	Uses       int             `json:"uses"`
	TotalCost  int             `json:"total_cost"`
	TotalYield decimal.Decimal `json:"total_yield"`
}

type allocationOutput struct {
	Catalog    string           `json:"catalog"`
	Unit       string           `json:"unit"`
	Budget     int              `json:"budget"`
	Used       int              `json:"used"`
	Remaining  int              `json:"remaining"`
	TotalYield decimal.Decimal  `json:"total_yield"`
	Entries    []allocationLine `json:"entries"`
	Message    string           `json:"message,omitempty"`
}

func printAllocation(w io.Writer, format string, res rewards.Result) error {
	alloc := res.Allocation
	out := allocationOutput{
		Catalog:    res.CatalogID,
		Unit:       string(res.Unit),
		Budget:     alloc.Budget,
		Used:       alloc.TotalCostUsed,
		Remaining:  alloc.Remaining(),
		TotalYield: alloc.TotalYield,
		Entries:    make([]allocationLine, len(alloc.Entries)),
		Message:    res.Message,
	}
	for i, e := range alloc.Entries {
		out.Entries[i] = allocationLine{e.Option.Category, e.Option.Cost, e.Option.Yield, e.Uses, e.TotalCost, e.TotalYield}
	}
	if format == "json" {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Budget: %d %s  Used: %d  Remaining: %d  Total reward: %s\n\n",
		out.Budget, out.Unit, out.Used, out.Remaining, out.TotalYield)
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PK TYPE\tCOST\tREWARD\tUSES\tTOTAL COST\tTOTAL REWARD")
	for _, e := range out.Entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%s\n", e.Category, e.Cost, e.Yield, e.Uses, e.TotalCost, e.TotalYield)
	}
	return tw.Flush()
}

type bestOutput struct {
	Catalog string        `json:"catalog"`
	Unit    string        `json:"unit"`
	Budget  int           `json:"budget"`
	Best    *optionOutput `json:"best"`
	Message string        `json:"message,omitempty"`
}

type optionOutput struct {
	Category string           `json:"category"`
	Cost     int              `json:"cost"`
	Yield    decimal.Decimal  `json:"yield"`
	Rebate   *decimal.Decimal `json:"rebate,omitempty"`
	Density  decimal.Decimal  `json:"density"`
}

func printBest(w io.Writer, format string, res rewards.Result) error {
	out := bestOutput{Catalog: res.CatalogID, Unit: string(res.Unit), Budget: res.Budget, Message: res.Message}
	if b := res.Best; b != nil {
		out.Best = &optionOutput{b.Category, b.Cost, b.Yield, b.Rebate, b.Density().Round(6)}
	}
	if format == "json" {
		return printJSON(w, out)
	}

	if out.Best == nil {
		fmt.Fprintln(w, res.Message)
		return nil
	}
	fmt.Fprintf(w, "Best: %s\n", res.Best.Describe())
	fmt.Fprintf(w, "Reward per %s: %s\n", out.Unit, out.Best.Density)
	if out.Best.Rebate != nil {
		fmt.Fprintf(w, "Rebate: %s\n", out.Best.Rebate)
	}
	return nil
}

type comboOutput struct {
	Rank          int              `json:"rank"`
	Size          int              `json:"size"`
	TotalCost     int              `json:"total_cost"`
	TotalYield    decimal.Decimal  `json:"total_yield"`
	AverageRebate *decimal.Decimal `json:"average_rebate"`
	Members       []string         `json:"members"`
}

type combosOutput struct {
	Catalog string        `json:"catalog"`
	Unit    string        `json:"unit"`
	Budget  int           `json:"budget"`
	Combos  []comboOutput `json:"combos"`
	Message string        `json:"message,omitempty"`
}

func printCombos(w io.Writer, format string, res rewards.Result) error {
	out := combosOutput{Catalog: res.CatalogID, Unit: string(res.Unit), Budget: res.Budget, Combos: make([]comboOutput, len(res.Summaries)), Message: res.Message}
	for i, s := range res.Summaries {
		out.Combos[i] = comboOutput{i + 1, s.Size, s.TotalCost, s.TotalYield, s.AverageRebate, s.Members}
	}
	if format == "json" {
		return printJSON(w, out)
	}

	if len(out.Combos) == 0 {
		fmt.Fprintln(w, res.Message)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCOST\tREWARD\tAVG REBATE\tMEMBERS")
	for _, c := range out.Combos {
		rebate := "-"
		if c.AverageRebate != nil {
			rebate = c.AverageRebate.String()
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", c.Rank, c.TotalCost, c.TotalYield, rebate, strings.Join(c.Members, " + "))
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
