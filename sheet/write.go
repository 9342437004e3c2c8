package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/pk-reward-engine/generic"
)

// Sheet names used by the exports.
const (
	AllocationSheet = "Optimized Allocation"
	CombosSheet     = "Combinations"
)

// allocationHeaderRow is the bold column header row of the allocation export.
const allocationHeaderRow = 5

// AllocationExport is the content of an allocation workbook.
type AllocationExport struct {
	Diamonds   int          // budget as entered by the user
	Unit       generic.Unit // catalog unit; labels the cost rows and columns
	Allocation generic.Allocation
}

// costLabels names the budget rows and cost columns for a catalog unit.
type costLabels struct {
	target, utilized, each, total string
}

func labelsFor(u generic.Unit) costLabels {
	if u == generic.UnitDiamonds {
		return costLabels{"Diamond Target", "Diamonds Utilized", "Diamonds Each", "Total Diamonds"}
	}
	return costLabels{"Score Target", "Score Utilized", "Points Each", "Total Points"}
}

// WriteAllocation writes the allocation workbook. For a points catalog:
//
//	Diamonds Used  | <diamonds>
//	Score Target   | <budget>
//	Score Utilized | <used>
//	(blank)
//	PK Type | Points Each | Win Reward Each | Uses | Total Points | Total Reward
//	one row per entry
//
// A diamonds catalog uses Diamond Target, Diamonds Utilized, Diamonds Each
// and Total Diamonds instead.
func WriteAllocation(w io.Writer, exp AllocationExport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), AllocationSheet); err != nil {
		return err
	}

	alloc := exp.Allocation
	l := labelsFor(exp.Unit)
	rows := [][]any{
		{"Diamonds Used", exp.Diamonds},
		{l.target, alloc.Budget},
		{l.utilized, alloc.TotalCostUsed},
		{},
		{"PK Type", l.each, "Win Reward Each", "Uses", l.total, "Total Reward"},
	}
	for _, e := range alloc.Entries {
		rows = append(rows, []any{
			e.Option.Category,
			e.Option.Cost,
			e.Option.Yield.InexactFloat64(),
			e.Uses,
			e.TotalCost,
			e.TotalYield.InexactFloat64(),
		})
	}
	if err := setRows(f, AllocationSheet, rows); err != nil {
		return err
	}
	if err := boldRow(f, AllocationSheet, allocationHeaderRow); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteCombos writes one row per combo summary, in rank order.
func WriteCombos(w io.Writer, summaries []generic.ComboSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), CombosSheet); err != nil {
		return err
	}

	rows := [][]any{{"Rank", "Size", "Total Cost", "Total Yield", "Average Rebate", "Members"}}
	for i, s := range summaries {
		var rebate any
		if s.AverageRebate != nil {
			rebate = s.AverageRebate.InexactFloat64()
		}
		rows = append(rows, []any{
			i + 1,
			s.Size,
			s.TotalCost,
			s.TotalYield.InexactFloat64(),
			rebate,
			strings.Join(s.Members, "; "),
		})
	}
	if err := setRows(f, CombosSheet, rows); err != nil {
		return err
	}
	if err := boldRow(f, CombosSheet, 1); err != nil {
		return err
	}
	return f.Write(w)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, row int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetRowStyle(sheet, row, row, style)
}
