/*
Package rewards provides the PK competition domain on top of the generic
engine.

PURPOSE:
  The generic engine only knows "options with a cost and a yield". This
  package knows what those options are in a live-streaming PK event:
  tiers priced in diamonds (what the viewer buys) or in score points (what
  the tier consumes), each paying a win reward and optionally a rebate.

UNITS:
  UnitDiamonds: Currency the budget is usually entered in
  UnitPoints:   Score points; one diamond buys PointsPerDiamond points

  A budget entered in one unit is converted to the catalog's unit before
  any algorithm runs. Points to diamonds truncates.

TASKS:
  optimize_rewards:      Greedy allocation of the whole budget
  calculate_efficiency:  Single best-density tier that fits
  generate_combinations: Ranked multi-tier combos within the budget
  summarize_combo:       Same combos, rendered as summaries

EXAMPLE FLOW:
  1. Viewer has 200 diamonds, catalog is priced in points
  2. Budget(UnitPoints, 200) = 2000 points
  3. Planner.Run optimize_rewards allocates the 2000 points
  4. Result lists uses per tier and the points left over

SEE ALSO:
  - presets.go: Built-in tier catalogs
  - planner.go: Task dispatch and concurrent reports
  - generic/: The engine
*/
package rewards

import (
	"errors"

	"github.com/warp/pk-reward-engine/generic"
)

// Units re-exported for callers that only import rewards.
const (
	UnitPoints   = generic.UnitPoints
	UnitDiamonds = generic.UnitDiamonds
)

// PointsPerDiamond is the score earned per diamond spent.
const PointsPerDiamond = 10

// DiamondsToPoints converts a diamond amount to score points.
func DiamondsToPoints(diamonds int) int {
	return diamonds * PointsPerDiamond
}

// PointsToDiamonds converts points to whole diamonds, truncating.
func PointsToDiamonds(points int) int {
	return points / PointsPerDiamond
}

// Budget returns a diamond amount expressed in unit. An empty unit is
// treated as points.
func Budget(unit generic.Unit, diamonds int) int {
	if unit == UnitDiamonds {
		return diamonds
	}
	return DiamondsToPoints(diamonds)
}

// Convert expresses amount, given in from, in the to unit.
func Convert(amount int, from, to generic.Unit) int {
	if from == "" {
		from = UnitPoints
	}
	if to == "" {
		to = UnitPoints
	}
	switch {
	case from == to:
		return amount
	case from == UnitDiamonds:
		return DiamondsToPoints(amount)
	default:
		return PointsToDiamonds(amount)
	}
}

// =============================================================================
// TASKS
// =============================================================================

// Task names one of the operations a Planner can run.
type Task string

const (
	TaskOptimizeRewards      Task = "optimize_rewards"
	TaskCalculateEfficiency  Task = "calculate_efficiency"
	TaskGenerateCombinations Task = "generate_combinations"
	TaskSummarizeCombo       Task = "summarize_combo"
)

// Tasks lists every supported task in a stable order.
func Tasks() []Task {
	return []Task{TaskOptimizeRewards, TaskCalculateEfficiency, TaskGenerateCombinations, TaskSummarizeCombo}
}

// Valid reports whether t is a known task.
func (t Task) Valid() bool {
	for _, known := range Tasks() {
		if t == known {
			return true
		}
	}
	return false
}

// ErrUnknownTask is returned when a request names no known task.
var ErrUnknownTask = errors.New("unknown task")

// ErrUnknownUnit is returned for a budget unit other than points or diamonds.
var ErrUnknownUnit = errors.New("unknown unit")
