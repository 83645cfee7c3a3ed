package engine

import (
	"time"

	"github.com/atlasforge/craftchain/pkg/craft"
	"github.com/atlasforge/craftchain/pkg/graph"
)

// ============================================
// BILL OF MATERIALS
// ============================================

// BOMRequest is the input for a bill of materials build.
type BOMRequest struct {
	// ItemID is the item to produce.
	ItemID string `json:"item_id"`
	// Multiple scales the whole build, default 1.
	Multiple int `json:"multiple,omitempty"`
	// Avoid lists raw material ids to steer away from.
	Avoid []string `json:"avoid,omitempty"`
	// PreferCraft ranks craft formulas above refining when choosing.
	PreferCraft bool `json:"prefer_craft,omitempty"`
	// MaxDepth caps the source walk, 0 means the engine default.
	MaxDepth int `json:"max_depth,omitempty"`
}

// ProcessStep is one production step in dependency order.
type ProcessStep struct {
	Formula *craft.Formula
	// Count is the number of result units this step produces across the
	// whole build.
	Count int
}

// RefineryAllocation assigns one refining step to a station size.
type RefineryAllocation struct {
	Size    craft.RefinerySize
	Formula string
}

// BOMReport is the derived build plan for a bill of materials: ordered
// steps, per-type step counts and the refinery workload.
type BOMReport struct {
	// Process lists every step with dependencies before dependents.
	Process []ProcessStep
	// Steps counts distinct steps per formula type.
	Steps map[craft.FormulaType]int
	// Refineries counts stations needed per size.
	Refineries map[craft.RefinerySize]int
	// Allocations assigns each refining step to its station size.
	Allocations []RefineryAllocation
	// RefineTime is the summed serial refining time.
	RefineTime time.Duration
	// MaxRefineTime is the longest single refining step.
	MaxRefineTime time.Duration
	// CraftTaps is the number of manual craft actions for the build.
	CraftTaps int
}

// TotalSteps returns the number of distinct production steps.
func (r *BOMReport) TotalSteps() int {
	total := 0
	for _, n := range r.Steps {
		total += n
	}
	return total
}

// TotalRefineries returns the number of stations across all sizes.
func (r *BOMReport) TotalRefineries() int {
	total := 0
	for _, n := range r.Refineries {
		total += n
	}
	return total
}

// BOMResult is the output of a bill of materials build.
type BOMResult struct {
	// Item is the requested result item.
	Item *craft.Item
	// BOM is the best bill found for the item.
	BOM *craft.BOM
	// Best maps every intermediate to its best bill.
	Best map[string]*craft.BOM
	// Report is the derived build plan.
	Report *BOMReport
	// Multiple is the applied build multiplier.
	Multiple int
}

// ============================================
// PRODUCTION CYCLES
// ============================================

// CyclesRequest is the input for production cycle detection.
type CyclesRequest struct {
	// ItemIDs seeds the walk; empty means every producible item.
	ItemIDs []string `json:"item_ids,omitempty"`
	// Order is the traversal discipline. Only DFS closes cycles
	// reliably; BFS is kept for graph exploration.
	Order graph.Order `json:"-"`
	// MaxDepth caps the walk, 0 means the engine default.
	MaxDepth int `json:"max_depth,omitempty"`
	// Limit caps ranked chains per result item, 0 means all.
	Limit int `json:"limit,omitempty"`
	// EstimateLimits overrides the refinery pools for time estimation.
	EstimateLimits craft.RefineryLimits `json:"-"`
}

// CyclesResult is the output of production cycle detection.
type CyclesResult struct {
	// Chains holds detected cycles per closing result item, most
	// promising first.
	Chains map[string][]*craft.ProductionChain
	// Inspected is the number of formulas finished during the walk.
	Inspected int
	// Found is the total number of cycles before any limit applied.
	Found int
}

// CyclesRankOrder is the criteria order used to rank detected cycles.
func CyclesRankOrder() []craft.ChainCompareKey {
	return []craft.ChainCompareKey{
		craft.CompareValue,
		craft.CompareOutput,
		craft.CompareLength,
		craft.CompareTime,
		craft.CompareInput,
	}
}

// ============================================
// LOOKUPS
// ============================================

// Valuation prices one formula run against base item values.
type Valuation struct {
	Formula *craft.Formula
	// Cost is the summed base value of the ingredients.
	Cost float64
	// Value is the base value of the produced result quantity.
	Value float64
	// PerItem is the ingredient cost per produced unit.
	PerItem float64
	// Missing lists ingredient ids with no known value.
	Missing []string
}

// Profit returns result value minus ingredient cost.
func (v Valuation) Profit() float64 {
	return v.Value - v.Cost
}

// LookupResult is the output of an item lookup.
type LookupResult struct {
	// Item is the resolved item, nil when the query was ambiguous.
	Item *craft.Item
	// Matches holds search hits when no exact item was found.
	Matches []*craft.Item
	// Valuations prices each formula producing the item.
	Valuations []Valuation
	// Cheapest is the producing formula with the lowest per-item cost.
	Cheapest *craft.Formula
}

// UsesResult is the output of an item uses query.
type UsesResult struct {
	Item *craft.Item
	// Uses prices each formula consuming the item, most profitable
	// first.
	Uses []Valuation
}
