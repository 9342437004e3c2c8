/*
normalize.go - Raw catalog rows to canonical options

PURPOSE:
  Turns the loosely typed rows produced by sheet readers and definition
  files into a Catalog. Rows that cannot participate in a density
  computation are removed here so the algorithms never see them.

THREE MODES:
  Normalize:       Silent skip. Malformed rows vanish.
  NormalizeWith:   Same catalog, plus one Diagnostic per dropped row (and
                   per ignored rebate).
  NormalizeStrict: Fails on the first dropped row with MalformedRowError.

DROP RULES:
  - category, cost or yield absent (nil or blank text)
  - cost not numeric (text is never accepted for cost)
  - yield not numeric, unless StrictYieldTyping is off and the text parses
  - NaN or infinite cost/yield, negative yield
  - cost <= 0 after truncation toward zero

REBATE:
  Optional. A number in [0,1] or a percentage string ("12%"). Anything
  else is ignored with a diagnostic; the row itself is kept.

ROW NUMBERS:
  RawRow.Row is reported as-is. When it is zero the row number is derived
  from the position, assuming a header on row 1 (first data row = 2).
*/
package generic

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxCost keeps truncated costs exactly representable.
const maxCost = 1 << 53

// NormalizeOptions configures normalization.
type NormalizeOptions struct {
	// StrictYieldTyping requires yield cells to be numeric. When false,
	// numeric text such as "150" is accepted.
	StrictYieldTyping bool
}

// DefaultNormalizeOptions returns the options used by Normalize.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{StrictYieldTyping: true}
}

// Diagnostic records why a row (or part of it) was not used.
type Diagnostic struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Dropped bool   `json:"dropped"`
}

// Normalize converts rows with default options, silently skipping
// malformed rows.
func Normalize(rows []RawRow) Catalog {
	cat, _ := NormalizeWith(rows, DefaultNormalizeOptions())
	return cat
}

// NormalizeWith converts rows and reports every skipped row.
func NormalizeWith(rows []RawRow, opts NormalizeOptions) (Catalog, []Diagnostic) {
	var cat Catalog
	var diags []Diagnostic
	for i, raw := range rows {
		opt, rowDiags, ok := normalizeRow(i, raw, opts)
		diags = append(diags, rowDiags...)
		if ok {
			cat.Options = append(cat.Options, opt)
		}
	}
	return cat, diags
}

// NormalizeStrict converts rows and fails on the first row that the
// default mode would drop.
func NormalizeStrict(rows []RawRow, opts NormalizeOptions) (Catalog, error) {
	var cat Catalog
	for i, raw := range rows {
		opt, rowDiags, ok := normalizeRow(i, raw, opts)
		if !ok {
			d := rowDiags[0]
			return Catalog{}, &MalformedRowError{Row: d.Row, Field: d.Field, Reason: d.Reason}
		}
		cat.Options = append(cat.Options, opt)
	}
	return cat, nil
}

func normalizeRow(i int, raw RawRow, opts NormalizeOptions) (Option, []Diagnostic, bool) {
	row := raw.Row
	if row == 0 {
		row = i + 2
	}
	drop := func(field, reason string) (Option, []Diagnostic, bool) {
		return Option{}, []Diagnostic{{Row: row, Field: field, Reason: reason, Dropped: true}}, false
	}

	if isAbsent(raw.Category) {
		return drop("category", "missing")
	}
	if isAbsent(raw.Cost) {
		return drop("cost", "missing")
	}
	if isAbsent(raw.Yield) {
		return drop("yield", "missing")
	}

	costF, ok := numericValue(raw.Cost)
	if !ok {
		return drop("cost", fmt.Sprintf("not numeric: %v", raw.Cost))
	}
	if math.IsNaN(costF) || math.IsInf(costF, 0) {
		return drop("cost", "not finite")
	}
	costF = math.Trunc(costF)
	if costF <= 0 {
		return drop("cost", "must be > 0")
	}
	if costF > maxCost {
		return drop("cost", "out of range")
	}

	yieldF, ok := numericValue(raw.Yield)
	if !ok && !opts.StrictYieldTyping {
		yieldF, ok = parseNumericText(raw.Yield)
	}
	if !ok {
		return drop("yield", fmt.Sprintf("not numeric: %v", raw.Yield))
	}
	if math.IsNaN(yieldF) || math.IsInf(yieldF, 0) {
		return drop("yield", "not finite")
	}
	if yieldF < 0 {
		return drop("yield", "must be >= 0")
	}

	opt := Option{
		Category: categoryText(raw.Category),
		Cost:     int(costF),
		Yield:    decimal.NewFromFloat(yieldF),
		Row:      row,
	}

	var diags []Diagnostic
	if !isAbsent(raw.Rebate) {
		if r, ok := rebateValue(raw.Rebate); ok {
			opt.Rebate = &r
		} else {
			diags = append(diags, Diagnostic{Row: row, Field: "rebate", Reason: fmt.Sprintf("ignored: %v", raw.Rebate)})
		}
	}
	return opt, diags, true
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// numericValue accepts native numeric types only. Booleans and text are
// rejected.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func parseNumericText(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func rebateValue(v any) (decimal.Decimal, bool) {
	var f float64
	if n, ok := numericValue(v); ok {
		f = n
	} else if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if !strings.HasSuffix(s, "%") {
			return decimal.Zero, false
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return decimal.Zero, false
		}
		f = p / 100
	} else {
		return decimal.Zero, false
	}
	if math.IsNaN(f) || f < 0 || f > 1 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func categoryText(v any) string {
	switch c := v.(type) {
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(c), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
