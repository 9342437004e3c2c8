package rewards_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
	"github.com/warp/pk-reward-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestPlanner(t *testing.T) (*rewards.Planner, *sqlite.Store) {
	store := newTestStore(t)
	for _, cat := range rewards.PresetCatalogs() {
		require.NoError(t, store.SaveCatalog(context.Background(), cat))
	}
	return rewards.NewPlanner(store), store
}

// =============================================================================
// UNIT TESTS
// =============================================================================

func TestUnits_Conversions(t *testing.T) {
	assert.Equal(t, 2000, rewards.DiamondsToPoints(200))
	assert.Equal(t, 19, rewards.PointsToDiamonds(199))

	assert.Equal(t, 200, rewards.Budget(rewards.UnitDiamonds, 200))
	assert.Equal(t, 2000, rewards.Budget(rewards.UnitPoints, 200))
	assert.Equal(t, 2000, rewards.Budget("", 200))

	assert.Equal(t, 500, rewards.Convert(5000, rewards.UnitPoints, rewards.UnitDiamonds))
	assert.Equal(t, 5000, rewards.Convert(500, rewards.UnitDiamonds, rewards.UnitPoints))
	assert.Equal(t, 42, rewards.Convert(42, rewards.UnitPoints, ""))
}

func TestPresets_FreshCopies(t *testing.T) {
	cat, ok := rewards.Preset(rewards.PresetDiamonds)
	require.True(t, ok)
	cat.Options[0].Category = "Mutated"

	again, _ := rewards.Preset(rewards.PresetDiamonds)
	assert.Equal(t, "Daily PK", again.Options[0].Category)

	_, ok = rewards.Preset("nope")
	assert.False(t, ok)
}

func TestPresets_PointsAreDiamondsTimesTen(t *testing.T) {
	diamonds, _ := rewards.Preset(rewards.PresetDiamonds)
	points, _ := rewards.Preset(rewards.PresetPoints)

	for i, o := range diamonds.Options {
		assert.Equal(t, o.Cost*rewards.PointsPerDiamond, points.Options[i].Cost, o.Category)
		assert.True(t, o.Yield.Equal(points.Options[i].Yield))
	}
	assert.Equal(t, rewards.UnitPoints, points.Unit)
}

func TestTask_Valid(t *testing.T) {
	for _, task := range rewards.Tasks() {
		assert.True(t, task.Valid(), task)
	}
	assert.False(t, rewards.Task("reconcile").Valid())
}

// =============================================================================
// PLANNER TESTS
// =============================================================================

func TestPlanner_OptimizeConvertsDiamondBudget(t *testing.T) {
	// GIVEN: The points catalog and a budget of 1200 diamonds
	planner, _ := newTestPlanner(t)

	// WHEN: Optimizing
	res, err := planner.Run(context.Background(), rewards.Request{
		Task:       rewards.TaskOptimizeRewards,
		CatalogID:  rewards.PresetPoints,
		Budget:     1200,
		BudgetUnit: rewards.UnitDiamonds,
	})
	require.NoError(t, err)

	// THEN: 12000 points: Weekly (0.032) once, then Daily (0.03) once
	assert.Equal(t, 12000, res.Budget)
	assert.Equal(t, rewards.UnitPoints, res.Unit)
	require.NotNil(t, res.Allocation)
	require.Len(t, res.Allocation.Entries, 2)
	assert.Equal(t, "Weekly PK", res.Allocation.Entries[0].Option.Category)
	assert.Equal(t, "Daily PK", res.Allocation.Entries[1].Option.Category)
	assert.Equal(t, 12000, res.Allocation.TotalCostUsed)
	assert.Equal(t, "380", res.Allocation.TotalYield.String())
	assert.Empty(t, res.Message)
}

func TestPlanner_NothingFits(t *testing.T) {
	planner, _ := newTestPlanner(t)
	ctx := context.Background()

	res, err := planner.Run(ctx, rewards.Request{
		Task:      rewards.TaskCalculateEfficiency,
		CatalogID: rewards.PresetDiamonds,
		Budget:    100,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Best)
	assert.Equal(t, rewards.MessageNoFit, res.Message)

	res, err = planner.Run(ctx, rewards.Request{
		Task:      rewards.TaskOptimizeRewards,
		CatalogID: rewards.PresetDiamonds,
		Budget:    100,
	})
	require.NoError(t, err)
	assert.True(t, res.Allocation.Empty())
	assert.Equal(t, rewards.MessageNoFit, res.Message)
}

func TestPlanner_CombosAndSummaries(t *testing.T) {
	planner, _ := newTestPlanner(t)
	ctx := context.Background()
	req := rewards.Request{
		Task:      rewards.TaskGenerateCombinations,
		CatalogID: rewards.PresetDiamonds,
		Budget:    5200,
		MaxSize:   2,
		Top:       3,
	}

	res, err := planner.Run(ctx, req)
	require.NoError(t, err)
	require.Len(t, res.Combos, 3)
	assert.Equal(t, []int{0, 2}, res.Combos[0].Indices)

	req.Task = rewards.TaskSummarizeCombo
	res, err = planner.Run(ctx, req)
	require.NoError(t, err)
	require.Len(t, res.Summaries, 3)
	assert.Equal(t, 5200, res.Summaries[0].TotalCost)
	require.NotNil(t, res.Summaries[0].AverageRebate)
	assert.Equal(t, "0.32", res.Summaries[0].AverageRebate.String())
}

func TestPlanner_InlineCatalogNeedsNoStore(t *testing.T) {
	planner := rewards.NewPlanner(nil)
	cat := generic.Catalog{Options: []generic.Option{generic.NewOption("Solo", 100, 40)}}

	res, err := planner.Run(context.Background(), rewards.Request{
		Task:    rewards.TaskCalculateEfficiency,
		Catalog: &cat,
		Budget:  100,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Best)
	assert.Equal(t, "Solo", res.Best.Category)

	_, err = planner.Run(context.Background(), rewards.Request{
		Task:      rewards.TaskCalculateEfficiency,
		CatalogID: "stored",
		Budget:    100,
	})
	assert.ErrorIs(t, err, generic.ErrStoreRequired)
}

func TestPlanner_Errors(t *testing.T) {
	planner, _ := newTestPlanner(t)
	ctx := context.Background()

	_, err := planner.Run(ctx, rewards.Request{Task: "reconcile", CatalogID: rewards.PresetDiamonds})
	assert.ErrorIs(t, err, rewards.ErrUnknownTask)

	_, err = planner.Run(ctx, rewards.Request{Task: rewards.TaskOptimizeRewards, CatalogID: "missing"})
	assert.ErrorIs(t, err, generic.ErrCatalogNotFound)

	_, err = planner.Run(ctx, rewards.Request{Task: rewards.TaskOptimizeRewards, CatalogID: rewards.PresetDiamonds, Budget: -1})
	assert.ErrorIs(t, err, generic.ErrInvalidBudget)

	_, err = planner.Run(ctx, rewards.Request{Task: rewards.TaskOptimizeRewards, CatalogID: rewards.PresetDiamonds, Budget: 10, BudgetUnit: "coins"})
	assert.ErrorIs(t, err, rewards.ErrUnknownUnit)

	_, err = planner.Run(ctx, rewards.Request{Task: rewards.TaskGenerateCombinations, CatalogID: rewards.PresetDiamonds, Budget: 10, MaxSize: 9})
	assert.ErrorIs(t, err, generic.ErrInvalidMaxSize)
}

func TestPlanner_RecordsRuns(t *testing.T) {
	planner, store := newTestPlanner(t)
	ctx := context.Background()

	_, err := planner.Run(ctx, rewards.Request{Task: rewards.TaskOptimizeRewards, CatalogID: rewards.PresetDiamonds, Budget: 2000})
	require.NoError(t, err)
	_, err = planner.Run(ctx, rewards.Request{Task: rewards.TaskCalculateEfficiency, CatalogID: rewards.PresetPoints, Budget: 2000})
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, rewards.PresetDiamonds, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, string(rewards.TaskOptimizeRewards), runs[0].Task)
	assert.Equal(t, 2000, runs[0].Budget)
	assert.Contains(t, runs[0].Summary, "used 2000 of 2000")
}

func TestPlanner_Report(t *testing.T) {
	planner, store := newTestPlanner(t)
	ctx := context.Background()

	rep, err := planner.Report(ctx, rewards.Request{CatalogID: rewards.PresetDiamonds, Budget: 5200})
	require.NoError(t, err)

	assert.Equal(t, 5200, rep.Budget)
	assert.Equal(t, 5200, rep.Allocation.TotalCostUsed)
	require.NotNil(t, rep.Best)
	assert.Equal(t, "Super PK", rep.Best.Category)
	require.NotEmpty(t, rep.Combos)
	assert.Equal(t, 2, rep.Combos[0].Size)

	runs, err := store.ListRuns(ctx, rewards.PresetDiamonds, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "report", runs[0].Task)
}

func TestPlanner_ReportFailsFast(t *testing.T) {
	planner, _ := newTestPlanner(t)
	planner.Limits = generic.ComboLimits{MaxComboSize: 4, MaxSubsets: 2}

	_, err := planner.Report(context.Background(), rewards.Request{CatalogID: rewards.PresetDiamonds, Budget: 5200})
	assert.ErrorIs(t, err, generic.ErrComboLimitExceeded)
}

func TestPlanner_ComboTimeout(t *testing.T) {
	options := make([]generic.Option, 40)
	for i := range options {
		options[i] = generic.NewOption("Tier", 1, 1)
	}
	cat := generic.Catalog{Options: options}
	planner := rewards.NewPlanner(nil)
	planner.Limits = generic.ComboLimits{MaxComboSize: 4, MaxSubsets: 1 << 30}
	planner.ComboTimeout = time.Nanosecond

	_, err := planner.Run(context.Background(), rewards.Request{
		Task: rewards.TaskGenerateCombinations, Catalog: &cat, Budget: 100, MaxSize: 4,
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
