/*
combos.go - Bounded combination search

PURPOSE:
  Lists every selection of 1..maxSize distinct catalog entries whose
  combined cost fits the budget, ranked by yield. Entries are drawn by
  position, so two identical tiers are still two different draws.

COMPLEXITY:
  Exact enumeration costs C(n,1)+...+C(n,m). That is only reasonable for
  the small catalogs PK events ship (about 20 tiers) with m <= 4, so both
  bounds are hard limits (ComboLimits). A call that would enumerate more
  than MaxSubsets subsets fails before doing any work.

  Costs are positive, so once a partial selection exceeds the budget every
  extension does too. The search prunes there; results are unchanged.

RANKING:
  by_yield (default):  total yield, highest first
  by_rebate:           average rebate, highest first (no rebate sorts last)
  by_density:          total yield / total cost, highest first
  Remaining ties: lower total cost first, then catalog positions compared
  lexicographically (a proper prefix first). The order is total, so
  results never depend on enumeration order.

REBATE AVERAGE:
  Members without a rebate are left out of the mean. When no member has
  one, AverageRebate is nil.
*/
package generic

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ComboOrder selects the primary ranking key.
type ComboOrder string

const (
	OrderByYield   ComboOrder = "by_yield"
	OrderByRebate  ComboOrder = "by_rebate"
	OrderByDensity ComboOrder = "by_density"
)

// Valid reports whether o is a known order. Empty means OrderByYield.
func (o ComboOrder) Valid() bool {
	switch o {
	case OrderByYield, OrderByRebate, OrderByDensity, "":
		return true
	}
	return false
}

// ComboLimits are the hard bounds of the search.
type ComboLimits struct {
	MaxComboSize int
	MaxSubsets   int
}

// DefaultComboLimits returns the bounds used when none are given.
func DefaultComboLimits() ComboLimits {
	return ComboLimits{MaxComboSize: 4, MaxSubsets: 100_000}
}

// Combo is one feasible selection.
type Combo struct {
	Members       []Option
	Indices       []int // catalog positions, ascending
	TotalCost     int
	TotalYield    decimal.Decimal
	AverageRebate *decimal.Decimal
	RebateCount   int
}

// Size returns the number of members.
func (c Combo) Size() int { return len(c.Members) }

// ComboSummary is the flat record exported for a combo.
type ComboSummary struct {
	Size          int
	TotalCost     int
	TotalYield    decimal.Decimal
	AverageRebate *decimal.Decimal
	RebateCount   int
	Members       []string
}

// ComboOption customizes FindCombos.
type ComboOption func(*comboConfig)

type comboConfig struct {
	limits ComboLimits
	order  ComboOrder
}

// WithLimits overrides DefaultComboLimits. Zero fields keep the default.
func WithLimits(l ComboLimits) ComboOption {
	return func(c *comboConfig) { c.limits = l }
}

// WithOrder selects the ranking key.
func WithOrder(o ComboOrder) ComboOption {
	return func(c *comboConfig) { c.order = o }
}

// FindCombos enumerates and ranks every feasible combination.
func FindCombos(options []Option, budget, maxSize int, opts ...ComboOption) ([]Combo, error) {
	return FindCombosContext(context.Background(), options, budget, maxSize, opts...)
}

// FindCombosContext is FindCombos with cancellation. The search checks ctx
// periodically and returns ctx.Err() once it is done.
func FindCombosContext(ctx context.Context, options []Option, budget, maxSize int, opts ...ComboOption) ([]Combo, error) {
	cfg := comboConfig{limits: DefaultComboLimits(), order: OrderByYield}
	for _, o := range opts {
		o(&cfg)
	}
	defaults := DefaultComboLimits()
	if cfg.limits.MaxComboSize <= 0 {
		cfg.limits.MaxComboSize = defaults.MaxComboSize
	}
	if cfg.limits.MaxSubsets <= 0 {
		cfg.limits.MaxSubsets = defaults.MaxSubsets
	}
	if err := validateBudget(budget); err != nil {
		return nil, err
	}
	if maxSize < 1 {
		return nil, configError(ErrInvalidMaxSize, "max_size", maxSize, "must be >= 1")
	}
	if maxSize > cfg.limits.MaxComboSize {
		return nil, configError(ErrInvalidMaxSize, "max_size", maxSize,
			fmt.Sprintf("limit is %d", cfg.limits.MaxComboSize))
	}
	if !cfg.order.Valid() {
		return nil, configError(ErrInvalidOrder, "order", cfg.order, "")
	}
	if err := validateCosts(options); err != nil {
		return nil, err
	}
	if n := SubsetCount(len(options), maxSize, cfg.limits.MaxSubsets); n > cfg.limits.MaxSubsets {
		return nil, configError(ErrComboLimitExceeded, "options", len(options),
			fmt.Sprintf("more than %d subsets up to size %d", cfg.limits.MaxSubsets, maxSize))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &comboSearch{ctx: ctx, options: options, budget: budget, maxSize: maxSize}
	if err := s.walk(0, 0); err != nil {
		return nil, err
	}
	sortCombos(s.found, cfg.order)
	return s.found, nil
}

// SubsetCount returns C(n,1)+...+C(n,m). Counting stops once the total
// passes ceiling, so the result is exact only up to ceiling+1.
func SubsetCount(n, m, ceiling int) int {
	if m > n {
		m = n
	}
	total := 0
	c := 1
	for k := 1; k <= m; k++ {
		c = c * (n - k + 1) / k
		total += c
		if total > ceiling {
			return total
		}
	}
	return total
}

type comboSearch struct {
	ctx     context.Context
	options []Option
	budget  int
	maxSize int

	stack []int
	cost  int
	steps int
	found []Combo
}

func (s *comboSearch) walk(start, depth int) error {
	for i := start; i < len(s.options); i++ {
		s.steps++
		if s.steps&1023 == 0 {
			if err := s.ctx.Err(); err != nil {
				return err
			}
		}
		cost := s.options[i].Cost
		if s.cost+cost > s.budget {
			continue
		}
		s.stack = append(s.stack, i)
		s.cost += cost
		s.found = append(s.found, s.build())
		if depth+1 < s.maxSize {
			if err := s.walk(i+1, depth+1); err != nil {
				return err
			}
		}
		s.cost -= cost
		s.stack = s.stack[:len(s.stack)-1]
	}
	return nil
}

func (s *comboSearch) build() Combo {
	c := Combo{
		Members:    make([]Option, len(s.stack)),
		Indices:    append([]int(nil), s.stack...),
		TotalCost:  s.cost,
		TotalYield: decimal.Zero,
	}
	rebateSum := decimal.Zero
	for i, idx := range s.stack {
		o := s.options[idx]
		c.Members[i] = o
		c.TotalYield = c.TotalYield.Add(o.Yield)
		if o.Rebate != nil {
			rebateSum = rebateSum.Add(*o.Rebate)
			c.RebateCount++
		}
	}
	if c.RebateCount > 0 {
		avg := rebateSum.Div(decimal.NewFromInt(int64(c.RebateCount)))
		c.AverageRebate = &avg
	}
	return c
}

func sortCombos(combos []Combo, order ComboOrder) {
	sort.SliceStable(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		switch order {
		case OrderByRebate:
			if c := compareRebate(a.AverageRebate, b.AverageRebate); c != 0 {
				return c > 0
			}
		case OrderByDensity:
			left := a.TotalYield.Mul(decimal.NewFromInt(int64(b.TotalCost)))
			right := b.TotalYield.Mul(decimal.NewFromInt(int64(a.TotalCost)))
			if c := left.Cmp(right); c != 0 {
				return c > 0
			}
		}
		if c := a.TotalYield.Cmp(b.TotalYield); c != 0 {
			return c > 0
		}
		if a.TotalCost != b.TotalCost {
			return a.TotalCost < b.TotalCost
		}
		return lessIndices(a.Indices, b.Indices)
	})
}

func compareRebate(a, b *decimal.Decimal) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Cmp(*b)
}

func lessIndices(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Summarize flattens a combo into its exported record.
func Summarize(c Combo) ComboSummary {
	members := make([]string, len(c.Members))
	for i, m := range c.Members {
		members[i] = m.Describe()
	}
	return ComboSummary{
		Size:          c.Size(),
		TotalCost:     c.TotalCost,
		TotalYield:    c.TotalYield,
		AverageRebate: c.AverageRebate,
		RebateCount:   c.RebateCount,
		Members:       members,
	}
}

// SummarizeAll summarizes combos in order.
func SummarizeAll(combos []Combo) []ComboSummary {
	out := make([]ComboSummary, len(combos))
	for i, c := range combos {
		out[i] = Summarize(c)
	}
	return out
}
