/*
Package generic provides the core allocation and selection engine.

PURPOSE:
  This package contains domain-agnostic types and algorithms for choosing
  among priced reward options under a budget. Whether the catalog holds PK
  competition tiers priced in diamonds or score points, the same engine
  handles normalization, greedy allocation, best-density picking and
  bounded combination search.

KEY CONCEPTS IN THIS FILE (types.go):
  - RawRow: An unvalidated catalog record as read from a sheet or file
  - Option: One canonical reward option (cost, yield, optional rebate)
  - Catalog: An ordered, injected collection of options
  - Density: yield / cost, the ranking metric

DESIGN PRINCIPLES:
  1. Purity: Every operation is a function of its inputs, no shared state
  2. Precision: Yields and rebates are decimal.Decimal, densities are
     compared exactly by cross-multiplication
  3. Injection: Catalogs are passed in by the caller, never read from
     package state

USAGE:
  cat := generic.Normalize(rows)
  alloc, err := generic.Allocate(cat, 2000)
  best, err := generic.PickBest(cat, 2000)
  combos, err := generic.FindCombos(cat.Options, 5200, 2)

SEE ALSO:
  - normalize.go: Raw rows to Catalog
  - allocate.go: Greedy allocation
  - efficiency.go: Best single option
  - combos.go: Combination search and summaries
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UNITS
// =============================================================================

// Unit is the canonical cost unit a catalog is expressed in.
type Unit string

const (
	UnitPoints   Unit = "points"
	UnitDiamonds Unit = "diamonds"
)

// Valid reports whether u is a known unit. The empty unit is accepted and
// treated as points by callers that need a concrete unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitPoints, UnitDiamonds, "":
		return true
	}
	return false
}

// =============================================================================
// RAW ROWS - Input shape from spreadsheets and definition files
// =============================================================================

// RawRow is one unvalidated catalog record. Cell values keep the dynamic
// type the reader produced: nil for an empty cell, int/int64/float64 for
// numeric cells, string for text.
type RawRow struct {
	Row      int // 1-based source row; 0 means "derive from position"
	Category any
	Cost     any
	Yield    any
	Rebate   any
}

// =============================================================================
// OPTION - One reward tier
// =============================================================================

// Option is a normalized reward option.
type Option struct {
	Category string
	Cost     int
	Yield    decimal.Decimal
	Rebate   *decimal.Decimal // nil when the source row carried no rebate
	Row      int
}

// NewOption builds an option from plain numbers. Intended for presets and
// tests; rows from untrusted sources go through Normalize.
func NewOption(category string, cost int, yield float64) Option {
	return Option{Category: category, Cost: cost, Yield: decimal.NewFromFloat(yield)}
}

// WithRebate returns a copy of o carrying the given rebate fraction.
func (o Option) WithRebate(rebate float64) Option {
	r := decimal.NewFromFloat(rebate)
	o.Rebate = &r
	return o
}

// Density returns yield per unit of cost. Zero-cost options report zero;
// they never reach the allocators because validation rejects them first.
func (o Option) Density() decimal.Decimal {
	if o.Cost <= 0 {
		return decimal.Zero
	}
	return o.Yield.Div(decimal.NewFromInt(int64(o.Cost)))
}

// Describe renders the option for summaries and exports.
func (o Option) Describe() string {
	return fmt.Sprintf("%s (cost %d, yield %s)", o.Category, o.Cost, o.Yield.String())
}

// compareDensity orders a and b by yield/cost without division:
// a.Yield*b.Cost vs b.Yield*a.Cost. Returns -1, 0 or 1.
func compareDensity(a, b Option) int {
	left := a.Yield.Mul(decimal.NewFromInt(int64(b.Cost)))
	right := b.Yield.Mul(decimal.NewFromInt(int64(a.Cost)))
	return left.Cmp(right)
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is an ordered collection of options. Duplicates are legal.
type Catalog struct {
	ID      string
	Name    string
	Unit    Unit
	Options []Option
}

// Len returns the number of options.
func (c Catalog) Len() int { return len(c.Options) }

// Clone returns a deep copy so callers can hand catalogs across goroutines.
func (c Catalog) Clone() Catalog {
	out := c
	out.Options = make([]Option, len(c.Options))
	for i, o := range c.Options {
		if o.Rebate != nil {
			r := *o.Rebate
			o.Rebate = &r
		}
		out.Options[i] = o
	}
	return out
}

// Affordable returns the options whose cost fits budget, in catalog order.
func (c Catalog) Affordable(budget int) []Option {
	var out []Option
	for _, o := range c.Options {
		if o.Cost <= budget {
			out = append(out, o)
		}
	}
	return out
}
