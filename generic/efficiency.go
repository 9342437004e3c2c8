package generic

// PickBest returns the affordable option with the highest yield/cost.
// Ties go to the option that appears first in the catalog. A nil option
// with a nil error means nothing fits the budget.
func PickBest(cat Catalog, budget int) (*Option, error) {
	if err := validateBudget(budget); err != nil {
		return nil, err
	}
	if err := validateCosts(cat.Options); err != nil {
		return nil, err
	}

	var best *Option
	for i := range cat.Options {
		o := cat.Options[i]
		if o.Cost > budget {
			continue
		}
		if best == nil || compareDensity(o, *best) > 0 {
			best = &o
		}
	}
	return best, nil
}
