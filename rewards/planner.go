/*
planner.go - Task dispatch over stored or inline catalogs

PURPOSE:
  The service and the CLI never call the engine directly. They hand a
  Request to a Planner, which resolves the catalog, converts the budget
  into the catalog's unit, runs the named task and records the run when
  the store keeps history.

OPERATIONS:
  Run:    One task, one result
  Report: Allocation, best tier and top combos computed concurrently

COMBO TIMEOUT:
  Combination search is the only potentially slow task. It runs under
  ComboTimeout (when > 0) on top of the caller's context, so a request
  that slips past the subset ceiling still returns in bounded time.

SEE ALSO:
  - types.go: Tasks and units
  - generic/combos.go: FindCombosContext
  - generic/store.go: CatalogStore, RunStore
*/
package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/pk-reward-engine/generic"
)

// DefaultComboTimeout bounds a single combination search.
const DefaultComboTimeout = 5 * time.Second

// MessageNoFit is attached to results where nothing fits the budget.
const MessageNoFit = "no PK option fits within the given budget"

// taskReport labels runs recorded by Report.
const taskReport Task = "report"

// Request describes one computation.
type Request struct {
	Task Task

	// CatalogID names a stored catalog. Ignored when Catalog is set.
	CatalogID string
	Catalog   *generic.Catalog

	// Budget is expressed in BudgetUnit; an empty unit means the catalog's.
	Budget     int
	BudgetUnit generic.Unit

	// Combo tasks only.
	MaxSize int
	Order   generic.ComboOrder
	Top     int // 0 = all
}

// Result is the outcome of Run. Only the fields of the requested task are set.
type Result struct {
	Task       Task
	CatalogID  string
	Unit       generic.Unit
	Budget     int // in Unit
	Allocation *generic.Allocation
	Best       *generic.Option
	Combos     []generic.Combo
	Summaries  []generic.ComboSummary
	Message    string
}

// Report bundles the three views of one budget.
type Report struct {
	CatalogID  string
	Unit       generic.Unit
	Budget     int
	Allocation generic.Allocation
	Best       *generic.Option
	Combos     []generic.ComboSummary
	Message    string
}

// Planner runs tasks against catalogs.
type Planner struct {
	Store        generic.CatalogStore
	Limits       generic.ComboLimits
	ComboTimeout time.Duration
	Logger       *slog.Logger
}

// NewPlanner creates a planner with default limits. store may be nil when
// every request carries an inline catalog.
func NewPlanner(store generic.CatalogStore) *Planner {
	return &Planner{
		Store:        store,
		Limits:       generic.DefaultComboLimits(),
		ComboTimeout: DefaultComboTimeout,
	}
}

func (p *Planner) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Run executes a single task.
func (p *Planner) Run(ctx context.Context, req Request) (Result, error) {
	if !req.Task.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTask, req.Task)
	}
	cat, err := p.resolve(ctx, req)
	if err != nil {
		return Result{}, err
	}
	budget, err := p.budget(cat, req)
	if err != nil {
		return Result{}, err
	}

	res := Result{Task: req.Task, CatalogID: cat.ID, Unit: catalogUnit(cat), Budget: budget}
	switch req.Task {
	case TaskOptimizeRewards:
		alloc, err := generic.Allocate(cat, budget)
		if err != nil {
			return Result{}, err
		}
		res.Allocation = &alloc
		if alloc.Empty() {
			res.Message = MessageNoFit
		}
	case TaskCalculateEfficiency:
		best, err := generic.PickBest(cat, budget)
		if err != nil {
			return Result{}, err
		}
		res.Best = best
		if best == nil {
			res.Message = MessageNoFit
		}
	case TaskGenerateCombinations, TaskSummarizeCombo:
		combos, err := p.combos(ctx, cat, budget, req)
		if err != nil {
			return Result{}, err
		}
		if req.Task == TaskSummarizeCombo {
			res.Summaries = generic.SummarizeAll(combos)
		} else {
			res.Combos = combos
		}
		if len(combos) == 0 {
			res.Message = MessageNoFit
		}
	}

	p.record(ctx, req, cat, budget, summarizeResult(res))
	return res, nil
}

// Report computes the allocation, the best tier and the ranked combos of
// one budget concurrently. The first failure cancels the others.
func (p *Planner) Report(ctx context.Context, req Request) (Report, error) {
	cat, err := p.resolve(ctx, req)
	if err != nil {
		return Report{}, err
	}
	budget, err := p.budget(cat, req)
	if err != nil {
		return Report{}, err
	}
	if req.MaxSize == 0 {
		req.MaxSize = 2
	}

	rep := Report{CatalogID: cat.ID, Unit: catalogUnit(cat), Budget: budget}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		alloc, err := generic.Allocate(cat, budget)
		rep.Allocation = alloc
		return err
	})
	g.Go(func() error {
		best, err := generic.PickBest(cat, budget)
		rep.Best = best
		return err
	})
	g.Go(func() error {
		combos, err := p.combos(gctx, cat, budget, req)
		rep.Combos = generic.SummarizeAll(combos)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	if rep.Allocation.Empty() {
		rep.Message = MessageNoFit
	}
	p.record(ctx, Request{Task: taskReport, MaxSize: req.MaxSize}, cat, budget,
		fmt.Sprintf("used %d of %d, yield %s, %d combos", rep.Allocation.TotalCostUsed, budget, rep.Allocation.TotalYield, len(rep.Combos)))
	return rep, nil
}

func (p *Planner) resolve(ctx context.Context, req Request) (generic.Catalog, error) {
	if req.Catalog != nil {
		return req.Catalog.Clone(), nil
	}
	if p.Store == nil {
		return generic.Catalog{}, generic.ErrStoreRequired
	}
	cat, err := p.Store.GetCatalog(ctx, req.CatalogID)
	if err != nil {
		return generic.Catalog{}, fmt.Errorf("catalog %q: %w", req.CatalogID, err)
	}
	return cat, nil
}

// budget converts the request budget into the catalog's unit. Negative
// budgets are left for the engine to reject.
func (p *Planner) budget(cat generic.Catalog, req Request) (int, error) {
	if !req.BudgetUnit.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, req.BudgetUnit)
	}
	if req.BudgetUnit == "" || req.Budget < 0 {
		return req.Budget, nil
	}
	return Convert(req.Budget, req.BudgetUnit, catalogUnit(cat)), nil
}

func (p *Planner) combos(ctx context.Context, cat generic.Catalog, budget int, req Request) ([]generic.Combo, error) {
	if p.ComboTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.ComboTimeout)
		defer cancel()
	}
	opts := []generic.ComboOption{generic.WithLimits(p.Limits)}
	if req.Order != "" {
		opts = append(opts, generic.WithOrder(req.Order))
	}
	combos, err := generic.FindCombosContext(ctx, cat.Options, budget, req.MaxSize, opts...)
	if err != nil {
		return nil, err
	}
	if req.Top > 0 && len(combos) > req.Top {
		combos = combos[:req.Top]
	}
	return combos, nil
}

// record stores the run when the store keeps history. Failures are logged,
// never returned: the computation itself succeeded.
func (p *Planner) record(ctx context.Context, req Request, cat generic.Catalog, budget int, summary string) {
	runs, ok := p.Store.(generic.RunStore)
	if !ok || cat.ID == "" {
		return
	}
	run := generic.Run{
		ID:        generic.NewRunID(),
		CatalogID: cat.ID,
		Task:      string(req.Task),
		Budget:    budget,
		MaxSize:   req.MaxSize,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
	if err := runs.RecordRun(ctx, run); err != nil {
		p.logger().Warn("failed to record run", "catalog", cat.ID, "task", req.Task, "error", err)
	}
}

func summarizeResult(res Result) string {
	switch {
	case res.Allocation != nil:
		return fmt.Sprintf("used %d of %d, yield %s", res.Allocation.TotalCostUsed, res.Budget, res.Allocation.TotalYield)
	case res.Best != nil:
		return "best: " + res.Best.Describe()
	case res.Combos != nil:
		return fmt.Sprintf("%d combos", len(res.Combos))
	case res.Summaries != nil:
		return fmt.Sprintf("%d combos", len(res.Summaries))
	}
	return res.Message
}

func catalogUnit(cat generic.Catalog) generic.Unit {
	if cat.Unit == "" {
		return UnitPoints
	}
	return cat.Unit
}
