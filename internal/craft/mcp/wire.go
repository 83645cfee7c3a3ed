package mcp

import (
	"slices"
	"strings"

	"github.com/atlasforge/craftchain/internal/craft/db"
	"github.com/atlasforge/craftchain/internal/craft/engine"
	"github.com/atlasforge/craftchain/pkg/craft"
)

// The wire types flatten engine results for tool output: typed map keys
// become strings, durations become seconds and per-batch bills are scaled
// to the requested build size.

type itemWire struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Symbol string  `json:"symbol,omitempty"`
	Value  float64 `json:"value"`
	Rarity string  `json:"rarity"`
	Class  string  `json:"class,omitempty"`
}

func itemToWire(it *craft.Item) *itemWire {
	if it == nil {
		return nil
	}
	return &itemWire{
		ID:     it.ID,
		Name:   it.Name,
		Symbol: it.Symbol,
		Value:  it.Value,
		Rarity: it.Rarity.String(),
		Class:  string(it.Class),
	}
}

type valuationWire struct {
	Formula string   `json:"formula"`
	Type    string   `json:"type"`
	TimeSec float64  `json:"time_sec,omitempty"`
	Cost    float64  `json:"cost"`
	Value   float64  `json:"value"`
	PerItem float64  `json:"per_item"`
	Profit  float64  `json:"profit"`
	Missing []string `json:"missing,omitempty"`
}

func valuationToWire(v engine.Valuation) valuationWire {
	return valuationWire{
		Formula: v.Formula.String(),
		Type:    v.Formula.Type.String(),
		TimeSec: v.Formula.TimeSecs,
		Cost:    v.Cost,
		Value:   v.Value,
		PerItem: v.PerItem,
		Profit:  v.Profit(),
		Missing: v.Missing,
	}
}

type lookupWire struct {
	Item     *itemWire       `json:"item,omitempty"`
	Matches  []*itemWire     `json:"matches,omitempty"`
	Formulas []valuationWire `json:"formulas,omitempty"`
	Cheapest string          `json:"cheapest,omitempty"`
}

func lookupToWire(res *engine.LookupResult) lookupWire {
	w := lookupWire{Item: itemToWire(res.Item)}
	for _, m := range res.Matches {
		w.Matches = append(w.Matches, itemToWire(m))
	}
	for _, v := range res.Valuations {
		w.Formulas = append(w.Formulas, valuationToWire(v))
	}
	if res.Cheapest != nil {
		w.Cheapest = res.Cheapest.String()
	}
	return w
}

type usesWire struct {
	Item *itemWire       `json:"item"`
	Uses []valuationWire `json:"uses"`
}

func usesToWire(res *engine.UsesResult) usesWire {
	w := usesWire{Item: itemToWire(res.Item)}
	for _, u := range res.Uses {
		w.Uses = append(w.Uses, valuationToWire(u))
	}
	return w
}

type stepWire struct {
	Formula string `json:"formula"`
	Type    string `json:"type"`
	Count   int    `json:"count"`
}

type allocationWire struct {
	Size    string `json:"size"`
	Formula string `json:"formula"`
}

type bomWire struct {
	Item             *itemWire          `json:"item"`
	OutputQty        int                `json:"output_qty"`
	Multiple         int                `json:"multiple"`
	Materials        []craft.Ingredient `json:"materials"`
	TotalCost        float64            `json:"total_cost"`
	CostPerItem      float64            `json:"cost_per_item"`
	MaxRarity        string             `json:"max_rarity"`
	Avoided          bool               `json:"avoided,omitempty"`
	PreferCraft      bool               `json:"prefer_craft,omitempty"`
	Process          []stepWire         `json:"process"`
	StepCounts       map[string]int     `json:"step_counts"`
	TotalSteps       int                `json:"total_steps"`
	Refineries       map[string]int     `json:"refineries,omitempty"`
	TotalRefineries  int                `json:"total_refineries"`
	Allocations      []allocationWire   `json:"refinery_allocations,omitempty"`
	RefineTimeSec    float64            `json:"refine_time_sec,omitempty"`
	MaxRefineTimeSec float64            `json:"max_refine_time_sec,omitempty"`
	CraftTaps        int                `json:"craft_taps,omitempty"`
}

func bomToWire(res *engine.BOMResult) bomWire {
	bom := res.BOM
	w := bomWire{
		Item:        itemToWire(res.Item),
		OutputQty:   bom.OutputQty * res.Multiple,
		Multiple:    res.Multiple,
		TotalCost:   bom.Total * float64(res.Multiple),
		CostPerItem: bom.PerItem,
		MaxRarity:   bom.MaxRarity.String(),
		Avoided:     bom.Avoided,
		PreferCraft: bom.PreferCraft,
	}
	// The bill is per batch; materials report the full build.
	for _, ing := range bom.Ingredients {
		w.Materials = append(w.Materials, craft.Ingredient{ItemID: ing.ItemID, Qty: ing.Qty * res.Multiple})
	}

	rep := res.Report
	for _, step := range rep.Process {
		w.Process = append(w.Process, stepWire{
			Formula: step.Formula.String(),
			Type:    step.Formula.Type.String(),
			Count:   step.Count,
		})
	}
	w.StepCounts = make(map[string]int, len(rep.Steps))
	for typ, n := range rep.Steps {
		w.StepCounts[typ.String()] = n
	}
	w.TotalSteps = rep.TotalSteps()
	if len(rep.Refineries) > 0 {
		w.Refineries = make(map[string]int, len(rep.Refineries))
		for size, n := range rep.Refineries {
			w.Refineries[size.String()] = n
		}
	}
	w.TotalRefineries = rep.TotalRefineries()

	// Allocations go out sorted by formula, not in walk finish order.
	allocs := slices.Clone(rep.Allocations)
	slices.SortFunc(allocs, func(a, b engine.RefineryAllocation) int {
		return strings.Compare(a.Formula, b.Formula)
	})
	for _, a := range allocs {
		w.Allocations = append(w.Allocations, allocationWire{Size: a.Size.String(), Formula: a.Formula})
	}

	w.RefineTimeSec = rep.RefineTime.Seconds()
	w.MaxRefineTimeSec = rep.MaxRefineTime.Seconds()
	w.CraftTaps = rep.CraftTaps
	return w
}

type chainValueWire struct {
	Costs  float64 `json:"costs"`
	Value  float64 `json:"value"`
	Profit float64 `json:"profit"`
}

type chainWire struct {
	Formulas []string           `json:"formulas"`
	Length   int                `json:"length"`
	Input    []craft.Ingredient `json:"input"`
	Output   []craft.Ingredient `json:"output"`
	Profit   []craft.Ingredient `json:"profit,omitempty"`
	Value    *chainValueWire    `json:"value,omitempty"`
	TimeSec  float64            `json:"time_sec,omitempty"`
}

func chainToWire(c *craft.ProductionChain) chainWire {
	w := chainWire{Length: c.Len()}
	for _, stage := range c.Stages() {
		for _, f := range stage.Formulas {
			w.Formulas = append(w.Formulas, f.String())
		}
	}
	w.Input = slices.Clone(c.Input().Items())
	w.Output = slices.Clone(c.Output().Items())
	w.Profit = slices.Clone(c.Profit().Items())
	if v, ok := c.EstimatedValue(); ok {
		w.Value = &chainValueWire{Costs: v.Costs, Value: v.Value, Profit: v.Profit()}
	}
	if t, ok := c.EstimatedTime(); ok {
		w.TimeSec = t.Seconds()
	}
	return w
}

type cyclesWire struct {
	Inspected int                    `json:"inspected"`
	Found     int                    `json:"found"`
	Chains    map[string][]chainWire `json:"chains"`
}

func cyclesToWire(res *engine.CyclesResult) cyclesWire {
	w := cyclesWire{
		Inspected: res.Inspected,
		Found:     res.Found,
		Chains:    make(map[string][]chainWire, len(res.Chains)),
	}
	for id, chains := range res.Chains {
		wired := make([]chainWire, 0, len(chains))
		for _, c := range chains {
			wired = append(wired, chainToWire(c))
		}
		w.Chains[id] = wired
	}
	return w
}

type statsWire struct {
	Items           int            `json:"items"`
	Formulas        int            `json:"formulas"`
	IngredientEdges int            `json:"ingredient_edges"`
	ByType          map[string]int `json:"by_type,omitempty"`
	ByClass         map[string]int `json:"by_class,omitempty"`
	ByRarity        map[string]int `json:"by_rarity,omitempty"`
	AvgIngredients  float64        `json:"avg_ingredients"`
	Replenishing    int            `json:"replenishing"`
	MostUsed        []db.ItemUsage `json:"most_used,omitempty"`
}

func statsToWire(stats *db.CatalogStats) statsWire {
	w := statsWire{
		Items:           stats.Items,
		Formulas:        stats.Formulas,
		IngredientEdges: stats.IngredientEdges,
		AvgIngredients:  stats.AvgIngredients,
		Replenishing:    stats.Replenishing,
		MostUsed:        stats.MostUsed,
	}
	if len(stats.ByType) > 0 {
		w.ByType = make(map[string]int, len(stats.ByType))
		for k, n := range stats.ByType {
			w.ByType[k.String()] = n
		}
	}
	if len(stats.ByClass) > 0 {
		w.ByClass = make(map[string]int, len(stats.ByClass))
		for k, n := range stats.ByClass {
			w.ByClass[string(k)] = n
		}
	}
	if len(stats.ByRarity) > 0 {
		w.ByRarity = make(map[string]int, len(stats.ByRarity))
		for k, n := range stats.ByRarity {
			w.ByRarity[k.String()] = n
		}
	}
	return w
}
