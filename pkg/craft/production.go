package craft

import (
	"fmt"
	"strings"
	"time"
)

// ============================================
// PRODUCTION CHAIN TYPES
// ============================================

// ProductionStage is a set of formulas executed together at one step of a
// chain. Results and Ingredients aggregate over the member formulas; there
// is no netting between formulas inside a stage.
type ProductionStage struct {
	Formulas    []*Formula
	Results     *IngredientList
	Ingredients *IngredientList
}

// NewProductionStage builds a stage aggregating the given formulas.
func NewProductionStage(formulas ...*Formula) *ProductionStage {
	s := &ProductionStage{
		Formulas:    formulas,
		Results:     NewIngredientList(),
		Ingredients: NewIngredientList(),
	}
	for _, f := range formulas {
		s.Results.Add(f.Result)
		s.Ingredients.AddList(f.Ingredients)
	}
	return s
}

// Scale returns a new stage with every member formula multiplied by k and
// the aggregates rebuilt.
func (s *ProductionStage) Scale(k int) (*ProductionStage, error) {
	scaled := make([]*Formula, len(s.Formulas))
	for i, f := range s.Formulas {
		sf, err := f.Scale(k)
		if err != nil {
			return nil, err
		}
		scaled[i] = sf
	}
	return NewProductionStage(scaled...), nil
}

// EstimateConfig carries the knobs for time estimation.
type EstimateConfig struct {
	// CraftTime is the serial time to craft one unit.
	CraftTime time.Duration
	// BatchCaps maps result item ids to their refiner output capacity.
	// Missing entries fall back to DefaultBatchCap.
	BatchCaps map[string]int
	// Limits bound the station pools; see RefineryLimits.
	Limits RefineryLimits
}

// DefaultEstimateConfig returns the standard estimation settings.
func DefaultEstimateConfig() EstimateConfig {
	return EstimateConfig{
		CraftTime: 500 * time.Millisecond,
		Limits:    DefaultRefineryLimits(),
	}
}

func (c EstimateConfig) batchCap(itemID string) int {
	if cap, ok := c.BatchCaps[itemID]; ok && cap > 0 {
		return cap
	}
	return DefaultBatchCap
}

// EstimateTime schedules the stage's work onto the line and returns the
// line makespan as of this stage. Refining and cooking enqueue one job per
// output batch; craft formulas enqueue a single serial job.
// TODO shorten the final batch of a run instead of charging it full time.
func (s *ProductionStage) EstimateTime(cfg EstimateConfig, line *ProductionLine) time.Duration {
	for _, f := range s.Formulas {
		cap := cfg.batchCap(f.Result.ItemID)
		est := f.EstimateTime(cap, cfg.CraftTime)
		if est.Size == SizeCraft {
			if est.Total > 0 {
				line.Craft().AddJob(RefineryJob{Formula: f, Duration: est.Total, Batch: f.Result.Qty})
			}
			continue
		}
		for b := 0; b < est.Batches; b++ {
			line.Pool(est.Size).AddJob(RefineryJob{Formula: f, Duration: est.MaxBatch, Batch: cap})
		}
	}
	return line.MaxTime()
}

// String formats the stage as "(inputs) -> (outputs)".
func (s *ProductionStage) String() string {
	return fmt.Sprintf("(%s) -> (%s)", joinIngredients(s.Ingredients), joinIngredients(s.Results))
}

func joinIngredients(l *IngredientList) string {
	parts := make([]string, 0, l.Len())
	for _, ing := range l.Items() {
		parts = append(parts, ing.String())
	}
	return strings.Join(parts, ", ")
}

// ChainValue is the monetary estimate of one chain cycle.
type ChainValue struct {
	Costs float64 `json:"costs"`
	Value float64 `json:"value"`
}

// Profit returns output value minus input cost.
func (v ChainValue) Profit() float64 {
	return v.Value - v.Costs
}

// Compare orders estimates by profit, then by output value.
func (v ChainValue) Compare(rhs ChainValue) CompareResult {
	if c := compare(v.Profit(), rhs.Profit()); c != Equal {
		return c
	}
	return compare(v.Value, rhs.Value)
}

// ChainCompareKey selects one criterion for chain ranking.
type ChainCompareKey int

const (
	CompareLength ChainCompareKey = iota
	CompareValue
	CompareOutput
	CompareInput
	CompareTime
)

// DefaultChainOrder ranks by length, then output, then input.
func DefaultChainOrder() []ChainCompareKey {
	return []ChainCompareKey{CompareLength, CompareOutput, CompareInput}
}

// ProductionChain is an ordered sequence of stages describing one cyclic
// production loop. Derived views (input, profit, estimates) are cached and
// invalidated whenever a stage is appended.
type ProductionChain struct {
	stages []*ProductionStage

	input  *IngredientList
	profit *IngredientList
	value  *ChainValue
	time   *time.Duration
	line   *ProductionLine
}

// NewProductionChain builds a chain by appending each stage in turn, with
// the usual inter-stage scaling.
func NewProductionChain(stages ...*ProductionStage) (*ProductionChain, error) {
	c := &ProductionChain{}
	for _, s := range stages {
		if err := c.Append(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ChainFromFormulas builds a chain of single-formula stages.
func ChainFromFormulas(formulas ...*Formula) (*ProductionChain, error) {
	stages := make([]*ProductionStage, len(formulas))
	for i, f := range formulas {
		stages[i] = NewProductionStage(f)
	}
	return NewProductionChain(stages...)
}

// Len returns the number of stages.
func (c *ProductionChain) Len() int {
	return len(c.stages)
}

// Empty reports whether the chain has no stages.
func (c *ProductionChain) Empty() bool {
	return len(c.stages) == 0
}

// Stages returns the stages in execution order.
func (c *ProductionChain) Stages() []*ProductionStage {
	return c.stages
}

// FirstStage returns the first stage, nil when empty.
func (c *ProductionChain) FirstStage() *ProductionStage {
	if len(c.stages) == 0 {
		return nil
	}
	return c.stages[0]
}

// LastStage returns the last stage, nil when empty.
func (c *ProductionChain) LastStage() *ProductionStage {
	if len(c.stages) == 0 {
		return nil
	}
	return c.stages[len(c.stages)-1]
}

// Append adds a stage to the end of the chain. For every output of the
// current last stage that the new stage consumes, both sides are scaled via
// LCM so the handoff has no fractional units: the new stage is multiplied
// up to take whole batches, and every prior stage is multiplied up to
// produce them.
func (c *ProductionChain) Append(stage *ProductionStage) error {
	if last := c.LastStage(); last != nil {
		for _, res := range last.Results.Items() {
			need, ok := stage.Ingredients.Get(res.ItemID)
			if !ok {
				continue
			}
			l, err := lcm(res.Qty, need.Qty)
			if err != nil {
				return fmt.Errorf("scaling stage onto %s: %w", res.ItemID, err)
			}
			kOut := l / need.Qty
			kIn := l / res.Qty
			if kOut != 1 {
				scaled, err := stage.Scale(kOut)
				if err != nil {
					return err
				}
				stage = scaled
			}
			if kIn != 1 {
				for i, s := range c.stages {
					scaled, err := s.Scale(kIn)
					if err != nil {
						return err
					}
					c.stages[i] = scaled
				}
			}
		}
	}
	c.stages = append(c.stages, stage)
	c.invalidate()
	return nil
}

func (c *ProductionChain) invalidate() {
	c.input = nil
	c.profit = nil
	c.value = nil
	c.time = nil
	c.line = nil
}

// Output returns the last stage's results (empty list for an empty chain).
func (c *ProductionChain) Output() *IngredientList {
	if last := c.LastStage(); last != nil {
		return last.Results
	}
	return NewIngredientList()
}

// Input returns the chain's net external demand: stage ingredients
// accumulated in order, with each stage's demand reduced by what the
// previous stage produced, zero entries dropped.
func (c *ProductionChain) Input() *IngredientList {
	if c.Empty() {
		return NewIngredientList()
	}
	if c.input == nil {
		in := c.stages[0].Ingredients.Clone()
		for i := 1; i < len(c.stages); i++ {
			in.AddList(c.stages[i].Ingredients)
			in.Sub(c.stages[i-1].Results)
		}
		in.RemoveIf(func(ing Ingredient) bool { return ing.Qty == 0 })
		c.input = in
	}
	return c.input
}

// Profit returns output minus input per item. Entries can be negative; a
// cycle that nets to all zeros is valid and simply neutral.
func (c *ProductionChain) Profit() *IngredientList {
	if c.profit == nil {
		c.profit = c.Output().Diff(c.Input())
	}
	return c.profit
}

// HasLosses reports whether any profit entry is negative.
func (c *ProductionChain) HasLosses() bool {
	return len(c.Profit().FindIf(func(i Ingredient) bool { return i.Qty < 0 })) > 0
}

// HasProfit reports whether any profit entry is positive.
func (c *ProductionChain) HasProfit() bool {
	return len(c.Profit().FindIf(func(i Ingredient) bool { return i.Qty > 0 })) > 0
}

// EstimateValue prices the chain's input and output with the given item
// values and caches the result. Items with no known value contribute
// nothing and are returned for reporting.
func (c *ProductionChain) EstimateValue(values map[string]float64) (ChainValue, []string) {
	if c.value != nil {
		return *c.value, nil
	}
	costs, missingIn := c.Input().EstimateValue(values)
	value, missingOut := c.Output().EstimateValue(values)
	v := ChainValue{Costs: costs, Value: value}
	c.value = &v
	return v, append(missingIn, missingOut...)
}

// EstimateTime schedules every stage strictly sequentially on one shared
// production line and caches the summed per-stage makespans. Parallelism
// exists only inside a stage, never across stages.
func (c *ProductionChain) EstimateTime(cfg EstimateConfig) time.Duration {
	if c.time != nil {
		return *c.time
	}
	line := NewProductionLine(cfg.Limits)
	var total time.Duration
	for _, stage := range c.stages {
		total += stage.EstimateTime(cfg, line)
	}
	c.time = &total
	c.line = line
	return total
}

// EstimatedValue returns the cached value estimate, if any.
func (c *ProductionChain) EstimatedValue() (ChainValue, bool) {
	if c.value == nil {
		return ChainValue{}, false
	}
	return *c.value, true
}

// EstimatedTime returns the cached time estimate, if any.
func (c *ProductionChain) EstimatedTime() (time.Duration, bool) {
	if c.time == nil {
		return 0, false
	}
	return *c.time, true
}

// Line returns the production line from the last time estimation, nil if
// none has run.
func (c *ProductionChain) Line() *ProductionLine {
	return c.line
}

// ResetEstimates drops cached value/time estimates so they recompute.
func (c *ProductionChain) ResetEstimates() {
	c.value = nil
	c.time = nil
	c.line = nil
}

// Compare ranks two chains by the given key order, first-decisive-key wins.
// Empty chains always rank least. Shorter chains rank greater under
// CompareLength. A chain missing a value or time estimate ranks less than
// one that has it.
func (c *ProductionChain) Compare(rhs *ProductionChain, order []ChainCompareKey) CompareResult {
	if c.Empty() {
		if rhs.Empty() {
			return Equal
		}
		return Less
	}
	if rhs.Empty() {
		return More
	}

	for _, key := range order {
		var res CompareResult
		switch key {
		case CompareLength:
			res = compare(c.Len(), rhs.Len()).Invert()
		case CompareValue:
			res = compareOptional(c.value, rhs.value, func(a, b *ChainValue) CompareResult {
				return a.Compare(*b)
			})
		case CompareTime:
			res = compareOptional(c.time, rhs.time, func(a, b *time.Duration) CompareResult {
				return compare(*a, *b)
			})
		case CompareOutput:
			res = c.Output().Compare(rhs.Output(), LongerMore)
		case CompareInput:
			res = c.Input().Compare(rhs.Input(), LongerLess)
		}
		if res != Equal {
			return res
		}
	}
	return Equal
}

// compareOptional ranks nil (missing) below present, and defers to cmp when
// both are present.
func compareOptional[T any](a, b *T, cmp func(a, b *T) CompareResult) CompareResult {
	switch {
	case a == nil && b == nil:
		return Equal
	case a == nil:
		return Less
	case b == nil:
		return More
	default:
		return cmp(a, b)
	}
}

// ChainComparator adapts a key order into a cmp function usable with
// slices.SortFunc.
func ChainComparator(order []ChainCompareKey) func(a, b *ProductionChain) int {
	return func(a, b *ProductionChain) int {
		return int(a.Compare(b, order))
	}
}

// String formats the chain as "N steps (inputs) -> (outputs) ±[profit]".
func (c *ProductionChain) String() string {
	if c.Empty() {
		return "empty production chain"
	}
	sign := "++"
	if c.HasLosses() {
		sign = "--"
	}
	return fmt.Sprintf("%d steps (%s) -> (%s) %s[%s]",
		c.Len(), joinIngredients(c.Input()), joinIngredients(c.Output()), sign, joinIngredients(c.Profit()))
}
