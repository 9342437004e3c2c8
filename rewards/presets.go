/*
presets.go - Built-in PK tier catalogs

PURPOSE:
  Ready-to-use catalogs so the service and the CLI work before anyone
  uploads a workbook. Every call returns fresh copies; callers may edit
  them freely.

AVAILABLE CATALOGS:
  pk-diamonds:
    - Daily, Weekly, Super and Legend PK priced in diamonds
    - Rebates between 30% and 36%

  pk-points:
    - The same tiers priced in score points (diamonds x 10)
    - Plus an Event PK tier with no rebate

EXAMPLE:
  cat, ok := rewards.Preset("pk-diamonds")
  alloc, err := generic.Allocate(cat, 5000)

SEE ALSO:
  - types.go: Units and conversions
  - factory/catalog.go: Catalogs from JSON/YAML definitions
*/
package rewards

import (
	"github.com/warp/pk-reward-engine/generic"
)

// Preset IDs.
const (
	PresetDiamonds = "pk-diamonds"
	PresetPoints   = "pk-points"
)

type tier struct {
	name   string
	cost   int // diamonds
	reward float64
	rebate float64 // 0 = none
}

var pkTiers = []tier{
	{"Daily PK", 200, 60, 0.30},
	{"Weekly PK", 1000, 320, 0.32},
	{"Super PK", 5000, 1700, 0.34},
	{"Legend PK", 10000, 3600, 0.36},
}

// PresetCatalogs returns every built-in catalog, ordered by ID.
func PresetCatalogs() []generic.Catalog {
	return []generic.Catalog{diamondsCatalog(), pointsCatalog()}
}

// Preset returns the built-in catalog with the given ID.
func Preset(id string) (generic.Catalog, bool) {
	for _, cat := range PresetCatalogs() {
		if cat.ID == id {
			return cat, true
		}
	}
	return generic.Catalog{}, false
}

func diamondsCatalog() generic.Catalog {
	cat := generic.Catalog{ID: PresetDiamonds, Name: "PK tiers (diamonds)", Unit: UnitDiamonds}
	for _, t := range pkTiers {
		cat.Options = append(cat.Options, t.option(t.cost))
	}
	return cat
}

func pointsCatalog() generic.Catalog {
	cat := generic.Catalog{ID: PresetPoints, Name: "PK tiers (points)", Unit: UnitPoints}
	for _, t := range pkTiers {
		cat.Options = append(cat.Options, t.option(DiamondsToPoints(t.cost)))
	}
	event := tier{name: "Event PK", reward: 150}
	cat.Options = append(cat.Options, event.option(DiamondsToPoints(500)))
	return cat
}

func (t tier) option(cost int) generic.Option {
	o := generic.NewOption(t.name, cost, t.reward)
	if t.rebate > 0 {
		o = o.WithRebate(t.rebate)
	}
	return o
}
