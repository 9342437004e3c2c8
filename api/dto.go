/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Costs and uses are integers. Yields, densities and rebates are decimal
  strings ("320.5") so clients never see float rounding.

TYPES:
  Catalogs:
    CatalogDTO, OptionDTO, UploadResponse

  Computations:
    ComputeRequest, AllocationDTO, EfficiencyDTO, CombosDTO, ReportDTO

  History and presets:
    RunDTO, PresetDTO, LoadPresetsRequest

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/catalog.go: CatalogJSON (request body for catalog creation)
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
)

// =============================================================================
// CATALOG TYPES
// =============================================================================

// OptionDTO represents one reward option.
type OptionDTO struct {
	Category string           `json:"category"`
	Cost     int              `json:"cost"`
	Yield    decimal.Decimal  `json:"yield"`
	Rebate   *decimal.Decimal `json:"rebate,omitempty"`
	Density  decimal.Decimal  `json:"density"`
	Row      int              `json:"row,omitempty"`
}

// CatalogDTO represents a catalog in API responses.
type CatalogDTO struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Unit    string      `json:"unit"`
	Options []OptionDTO `json:"options"`
}

// CatalogSummaryDTO is the list view of a catalog.
type CatalogSummaryDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	Options int    `json:"options"`
}

// UploadResponse is returned after a workbook or CSV upload.
type UploadResponse struct {
	Catalog     CatalogDTO           `json:"catalog"`
	Diagnostics []generic.Diagnostic `json:"diagnostics"`
	Skipped     int                  `json:"skipped"`
}

// =============================================================================
// COMPUTATION TYPES
// =============================================================================

// ComputeRequest is the body of the optimize/efficiency/combos/report
// endpoints. Unit is the unit of Budget; empty means the catalog's unit.
type ComputeRequest struct {
	Budget  int    `json:"budget"`
	Unit    string `json:"unit,omitempty"`
	MaxSize int    `json:"max_size,omitempty"`
	Order   string `json:"order,omitempty"`
	Top     int    `json:"top,omitempty"`
}

// AllocationEntryDTO is one line of an allocation.
type AllocationEntryDTO struct {
	Category   string          `json:"category"`
	Cost       int             `json:"cost"`
	Yield      decimal.Decimal `json:"yield"`
	Uses       int             `json:"uses"`
	TotalCost  int             `json:"total_cost"`
	TotalYield decimal.Decimal `json:"total_yield"`
}

// AllocationDTO is the greedy allocation result.
type AllocationDTO struct {
	CatalogID     string               `json:"catalog_id"`
	Unit          string               `json:"unit"`
	Budget        int                  `json:"budget"`
	TotalCostUsed int                  `json:"total_cost_used"`
	Remaining     int                  `json:"remaining"`
	TotalYield    decimal.Decimal      `json:"total_yield"`
	Entries       []AllocationEntryDTO `json:"entries"`
	Message       string               `json:"message,omitempty"`
}

// EfficiencyDTO is the best single option. Best is null when nothing fits.
type EfficiencyDTO struct {
	CatalogID string     `json:"catalog_id"`
	Unit      string     `json:"unit"`
	Budget    int        `json:"budget"`
	Best      *OptionDTO `json:"best"`
	Message   string     `json:"message,omitempty"`
}

// ComboDTO is one ranked combination.
type ComboDTO struct {
	Rank          int              `json:"rank"`
	Indices       []int            `json:"indices,omitempty"`
	Size          int              `json:"size"`
	TotalCost     int              `json:"total_cost"`
	TotalYield    decimal.Decimal  `json:"total_yield"`
	AverageRebate *decimal.Decimal `json:"average_rebate"`
	RebateCount   int              `json:"rebate_count"`
	Members       []string         `json:"members"`
}

// CombosDTO is the combination search result.
type CombosDTO struct {
	CatalogID string     `json:"catalog_id"`
	Unit      string     `json:"unit"`
	Budget    int        `json:"budget"`
	Combos    []ComboDTO `json:"combos"`
	Message   string     `json:"message,omitempty"`
}

// ReportDTO bundles the three views of one budget.
type ReportDTO struct {
	Allocation AllocationDTO `json:"allocation"`
	Best       *OptionDTO    `json:"best"`
	Combos     []ComboDTO    `json:"combos"`
	Message    string        `json:"message,omitempty"`
}

// =============================================================================
// HISTORY AND PRESETS
// =============================================================================

// RunDTO represents a recorded computation.
type RunDTO struct {
	ID        string `json:"id"`
	CatalogID string `json:"catalog_id"`
	Task      string `json:"task"`
	Budget    int    `json:"budget"`
	MaxSize   int    `json:"max_size,omitempty"`
	Summary   string `json:"summary,omitempty"`
	CreatedAt string `json:"created_at"`
}

// PresetDTO represents a built-in catalog.
type PresetDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	Options int    `json:"options"`
}

// LoadPresetsRequest selects presets to store. Empty means all.
type LoadPresetsRequest struct {
	PresetIDs []string `json:"preset_ids"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toOptionDTO(o generic.Option) OptionDTO {
	return OptionDTO{
		Category: o.Category,
		Cost:     o.Cost,
		Yield:    o.Yield,
		Rebate:   o.Rebate,
		Density:  o.Density().Round(6),
		Row:      o.Row,
	}
}

func toCatalogDTO(cat generic.Catalog) CatalogDTO {
	dto := CatalogDTO{ID: cat.ID, Name: cat.Name, Unit: string(cat.Unit), Options: make([]OptionDTO, len(cat.Options))}
	for i, o := range cat.Options {
		dto.Options[i] = toOptionDTO(o)
	}
	return dto
}

func toAllocationDTO(catalogID string, unit generic.Unit, alloc generic.Allocation, message string) AllocationDTO {
	dto := AllocationDTO{
		CatalogID:     catalogID,
		Unit:          string(unit),
		Budget:        alloc.Budget,
		TotalCostUsed: alloc.TotalCostUsed,
		Remaining:     alloc.Remaining(),
		TotalYield:    alloc.TotalYield,
		Entries:       make([]AllocationEntryDTO, len(alloc.Entries)),
		Message:       message,
	}
	for i, e := range alloc.Entries {
		dto.Entries[i] = AllocationEntryDTO{
			Category:   e.Option.Category,
			Cost:       e.Option.Cost,
			Yield:      e.Option.Yield,
			Uses:       e.Uses,
			TotalCost:  e.TotalCost,
			TotalYield: e.TotalYield,
		}
	}
	return dto
}

func toBestDTO(best *generic.Option) *OptionDTO {
	if best == nil {
		return nil
	}
	dto := toOptionDTO(*best)
	return &dto
}

func toComboDTOs(combos []generic.Combo) []ComboDTO {
	out := make([]ComboDTO, len(combos))
	for i, c := range combos {
		s := generic.Summarize(c)
		out[i] = comboDTO(i+1, s)
		out[i].Indices = c.Indices
	}
	return out
}

func toSummaryDTOs(summaries []generic.ComboSummary) []ComboDTO {
	out := make([]ComboDTO, len(summaries))
	for i, s := range summaries {
		out[i] = comboDTO(i+1, s)
	}
	return out
}

func comboDTO(rank int, s generic.ComboSummary) ComboDTO {
	return ComboDTO{
		Rank:          rank,
		Size:          s.Size,
		TotalCost:     s.TotalCost,
		TotalYield:    s.TotalYield,
		AverageRebate: s.AverageRebate,
		RebateCount:   s.RebateCount,
		Members:       s.Members,
	}
}

func toReportDTO(rep rewards.Report) ReportDTO {
	return ReportDTO{
		Allocation: toAllocationDTO(rep.CatalogID, rep.Unit, rep.Allocation, rep.Message),
		Best:       toBestDTO(rep.Best),
		Combos:     toSummaryDTOs(rep.Combos),
		Message:    rep.Message,
	}
}

func toRunDTO(r generic.Run) RunDTO {
	return RunDTO{
		ID:        r.ID,
		CatalogID: r.CatalogID,
		Task:      r.Task,
		Budget:    r.Budget,
		MaxSize:   r.MaxSize,
		Summary:   r.Summary,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}
