/*
Package sheet reads catalog rows from spreadsheets and writes results back.

PURPOSE:
  Operators maintain PK tiers in a workbook. This package is the boundary
  between that workbook and the engine: it turns cells into
  generic.RawRow values and leaves every validation decision to
  generic.Normalize.

INPUT LAYOUT:
  Row 1 is a header and is skipped. Columns:
    A: category   B: cost   C: yield   D: rebate (optional)

CELL TYPING:
  Numeric cells become float64, text cells stay strings, empty cells are
  nil. A cost typed as text ("200") therefore reaches the normalizer as
  a string and the row is dropped.

SEE ALSO:
  - write.go: Allocation and combo exports
  - generic/normalize.go: Drop rules
*/
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/pk-reward-engine/generic"
)

// DefaultSheet is the worksheet holding PK rules and rewards.
const DefaultSheet = "Rules and rewards"

// ErrSheetNotFound is returned when the workbook lacks the requested sheet.
var ErrSheetNotFound = errors.New("sheet not found")

const (
	colCategory = iota
	colCost
	colYield
	colRebate
	numCols
)

// ReadWorkbook reads catalog rows from an xlsx workbook. An empty sheet
// name means DefaultSheet.
func ReadWorkbook(r io.Reader, sheet string) ([]generic.RawRow, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var out []generic.RawRow
	for i := 1; i < len(rows); i++ {
		rowNum := i + 1
		if blankRow(rows[i]) {
			continue
		}
		var cells [numCols]any
		for col := 0; col < numCols && col < len(rows[i]); col++ {
			cells[col], err = workbookCell(f, sheet, col, rowNum, rows[i][col])
			if err != nil {
				return nil, err
			}
		}
		out = append(out, rawRow(rowNum, cells))
	}
	return out, nil
}

func workbookCell(f *excelize.File, sheet string, col, row int, value string) (any, error) {
	if value == "" {
		return nil, nil
	}
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return nil, err
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", name, err)
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n, nil
		}
	case excelize.CellTypeBool:
		return value == "1" || strings.EqualFold(value, "true"), nil
	}
	return value, nil
}

// ReadCSV reads catalog rows from CSV with the same column layout as the
// workbook. CSV has no cell types, so any cell that parses as a number is
// numeric.
func ReadCSV(r io.Reader) ([]generic.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []generic.RawRow
	for first := true; ; first = false {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if first || blankRow(record) {
			continue
		}
		line, _ := cr.FieldPos(0)
		var cells [numCols]any
		for col := 0; col < numCols && col < len(record); col++ {
			cells[col] = csvCell(record[col])
		}
		out = append(out, rawRow(line, cells))
	}
	return out, nil
}

func csvCell(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n
	}
	return value
}

func rawRow(row int, cells [numCols]any) generic.RawRow {
	return generic.RawRow{
		Row:      row,
		Category: cells[colCategory],
		Cost:     cells[colCost],
		Yield:    cells[colYield],
		Rebate:   cells[colRebate],
	}
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
