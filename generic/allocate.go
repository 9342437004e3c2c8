/*
allocate.go - Greedy allocation by reward density

PURPOSE:
  Spends a budget on the catalog's options, best density first, buying
  each option as many times as the remaining budget allows.

ALGORITHM:
  1. Stable sort (a copy of) the options by yield/cost, descending.
     Equal densities keep catalog order.
  2. Walk the sorted list once. If cost <= remaining:
       uses      = remaining / cost   (integer division)
       remaining -= uses * cost
  3. Options that no longer fit are skipped for good.

APPROXIMATION:
  This is a single-pass greedy, not the unbounded-knapsack optimum.
  Catalog [{700,210}, {1000,300}] with budget 2000 buys 700 twice (420)
  and leaves 600 unspent, while 1000 twice would yield 600.

INVARIANTS:
  - TotalCostUsed <= Budget
  - Entries appear in non-increasing density order
  - The caller's catalog is not reordered
*/
package generic

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// AllocationEntry is one option bought Uses times.
type AllocationEntry struct {
	Option     Option
	Uses       int
	TotalCost  int
	TotalYield decimal.Decimal
}

// Allocation is the result of Allocate.
type Allocation struct {
	Entries       []AllocationEntry
	Budget        int
	TotalCostUsed int
	TotalYield    decimal.Decimal
}

// Remaining returns the unspent budget.
func (a Allocation) Remaining() int { return a.Budget - a.TotalCostUsed }

// Empty reports whether nothing fit the budget.
func (a Allocation) Empty() bool { return len(a.Entries) == 0 }

// Allocate spends budget greedily by density. An empty catalog or a zero
// budget yields an empty allocation, not an error.
func Allocate(cat Catalog, budget int) (Allocation, error) {
	if err := validateBudget(budget); err != nil {
		return Allocation{}, err
	}
	if err := validateCosts(cat.Options); err != nil {
		return Allocation{}, err
	}

	result := Allocation{Budget: budget, TotalYield: decimal.Zero}
	remaining := budget
	for _, opt := range SortByDensity(cat.Options) {
		if opt.Cost > remaining {
			continue
		}
		uses := remaining / opt.Cost
		entry := AllocationEntry{
			Option:     opt,
			Uses:       uses,
			TotalCost:  uses * opt.Cost,
			TotalYield: opt.Yield.Mul(decimal.NewFromInt(int64(uses))),
		}
		result.Entries = append(result.Entries, entry)
		result.TotalYield = result.TotalYield.Add(entry.TotalYield)
		remaining -= entry.TotalCost
	}
	result.TotalCostUsed = budget - remaining
	return result, nil
}

// SortByDensity returns a copy of options ordered by density, highest
// first. The sort is stable.
func SortByDensity(options []Option) []Option {
	sorted := make([]Option, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareDensity(sorted[i], sorted[j]) > 0
	})
	return sorted
}

func validateBudget(budget int) error {
	if budget < 0 {
		return configError(ErrInvalidBudget, "budget", budget, "")
	}
	return nil
}

func validateCosts(options []Option) error {
	for i, o := range options {
		if o.Cost <= 0 {
			return configError(ErrInvalidCost, "cost", o.Cost, fmt.Sprintf("option %q at index %d", o.Category, i))
		}
	}
	return nil
}
