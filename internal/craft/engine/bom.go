package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlasforge/craftchain/pkg/craft"
	"github.com/atlasforge/craftchain/pkg/graph"
)

// formulaWalker supplies formula-graph adjacency from the catalog. Walking
// to sources expands a formula into the formulas producing its ingredients;
// walking to targets expands into the formulas consuming its result.
// Formula pointers are canonical through the catalog, so the walker's node
// identity is pointer identity.
type formulaWalker struct {
	graph.NopVisitor[*craft.Formula]
	catalog Catalog
	logger  *slog.Logger
}

func (w *formulaWalker) Adjacent(ctx context.Context, node *craft.Formula, dir graph.Direction) ([]*craft.Formula, error) {
	var ids []string
	if dir == graph.ToSources {
		ids = node.Ingredients.ItemIDs()
	} else {
		ids = []string{node.Result.ItemID}
	}

	items, err := w.catalog.Items(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading adjacent items: %w", err)
	}

	var adjacent []*craft.Formula
	seen := make(map[*craft.Formula]bool)
	for _, it := range items {
		formulas := it.SourceFormulas
		if dir == graph.ToTargets {
			formulas = it.Formulas
		}
		for _, f := range formulas {
			if seen[f] {
				continue
			}
			seen[f] = true
			adjacent = append(adjacent, f)
		}
	}
	return adjacent, nil
}

// resultItem resolves a formula's result item, nil when it is not in the
// catalog.
func (w *formulaWalker) resultItem(ctx context.Context, f *craft.Formula) (*craft.Item, error) {
	it, err := w.catalog.Item(ctx, f.Result.ItemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		w.logger.DebugContext(ctx, "formula result not in catalog", "item", f.Result.ItemID)
	}
	return it, nil
}

// bomBuilder assembles bills of materials bottom-up during a DFS over the
// source-formula graph. Each examined formula opens a slot for its
// children's bills; on finish the collected bills are folded into one and
// offered to the best-per-item map.
type bomBuilder struct {
	formulaWalker
	stack       [][]*craft.BOM
	best        map[string]*craft.BOM
	avoid       map[string]bool
	preferCraft bool
}

func newBOMBuilder(catalog Catalog, logger *slog.Logger, avoid []string, preferCraft bool) *bomBuilder {
	avoidSet := make(map[string]bool, len(avoid))
	for _, id := range avoid {
		avoidSet[id] = true
	}
	return &bomBuilder{
		formulaWalker: formulaWalker{catalog: catalog, logger: logger},
		best:          make(map[string]*craft.BOM),
		avoid:         avoidSet,
		preferCraft:   preferCraft,
	}
}

// Examine opens a child-bill slot, except for raw resource results, which
// never get a bill of their own.
func (b *bomBuilder) Examine(ctx context.Context, f *craft.Formula) error {
	result, err := b.resultItem(ctx, f)
	if err != nil {
		return err
	}
	if result == nil || result.Class == craft.ClassResource {
		return nil
	}
	b.stack = append(b.stack, nil)
	return nil
}

// Finish folds the collected child bills into one bill for the formula and
// keeps it if it beats the best known bill for the result item.
func (b *bomBuilder) Finish(ctx context.Context, f *craft.Formula) error {
	result, err := b.resultItem(ctx, f)
	if err != nil {
		return err
	}
	if result == nil || result.Class == craft.ClassResource {
		return nil
	}

	children := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	bom, err := b.fold(ctx, result, f, children)
	if err != nil {
		return fmt.Errorf("building bill for %s: %w", result.ID, err)
	}

	if len(b.stack) > 0 {
		top := len(b.stack) - 1
		b.stack[top] = append(b.stack[top], bom)
	}

	if cur, ok := b.best[result.ID]; !ok || bom.Less(cur) {
		b.best[result.ID] = bom
	}
	return nil
}

// fold builds the bill for one formula. With no child bills the formula is
// either resolved against already-known best bills of its ingredients or,
// failing that, priced directly from its source items.
func (b *bomBuilder) fold(ctx context.Context, result *craft.Item, f *craft.Formula, children []*craft.BOM) (*craft.BOM, error) {
	if len(children) == 0 {
		var hits []*craft.BOM
		for _, id := range f.Ingredients.ItemIDs() {
			if known, ok := b.best[id]; ok {
				hits = append(hits, known)
			}
		}
		if len(hits) == 0 {
			sources, err := b.catalog.Items(ctx, f.Ingredients.ItemIDs())
			if err != nil {
				return nil, err
			}
			return craft.MakeBOM(result, f, sources, b.avoid, b.preferCraft)
		}
		children = hits
	}
	return craft.CombineBOMs(result, f, children, b.best, b.avoid, b.preferCraft)
}

// bomCounter counts how many bills depend on each bill, walking the chosen
// dependency trees. Discovery seeds a bill at one production run; every
// further inbound edge adds one, so the count ends up as the bill's
// in-degree with the discovering edge included.
type bomCounter struct {
	graph.NopVisitor[*craft.BOM]
	best   map[string]*craft.BOM
	counts map[string]int
	logger *slog.Logger
}

func newBOMCounter(best map[string]*craft.BOM, logger *slog.Logger) *bomCounter {
	return &bomCounter{best: best, counts: make(map[string]int), logger: logger}
}

// dependencyBOMs maps a bill's tree dependencies to their chosen bills.
func dependencyBOMs(node *craft.BOM, best map[string]*craft.BOM, logger *slog.Logger) []*craft.BOM {
	var deps []*craft.BOM
	seen := make(map[string]bool)
	for _, dep := range node.Tree.Dependencies {
		id := dep.Formula.Result.ItemID
		if seen[id] {
			continue
		}
		seen[id] = true
		chosen, ok := best[id]
		if !ok {
			logger.Debug("no chosen bill for dependency", "item", id)
			continue
		}
		deps = append(deps, chosen)
	}
	return deps
}

func (c *bomCounter) Adjacent(_ context.Context, node *craft.BOM, _ graph.Direction) ([]*craft.BOM, error) {
	return dependencyBOMs(node, c.best, c.logger), nil
}

func (c *bomCounter) Discover(_ context.Context, node *craft.BOM, _ int) error {
	c.counts[node.Name()] = 1
	return nil
}

func (c *bomCounter) TreeEdge(_ context.Context, _, to *craft.BOM) error {
	c.counts[to.Name()]++
	return nil
}

func (c *bomCounter) BackEdge(_ context.Context, _, to *craft.BOM) error {
	c.counts[to.Name()]++
	return nil
}

func (c *bomCounter) ForwardOrCrossEdge(_ context.Context, _, to *craft.BOM) error {
	c.counts[to.Name()]++
	return nil
}

// bomSorter derives the build plan from a counted bill tree. DFS finish
// order puts dependencies before dependents, which is exactly the order
// the steps must run in.
type bomSorter struct {
	graph.NopVisitor[*craft.BOM]
	best     map[string]*craft.BOM
	counts   map[string]int
	multiple int
	logger   *slog.Logger
	report   *BOMReport
}

func newBOMSorter(best map[string]*craft.BOM, counts map[string]int, multiple int, logger *slog.Logger) *bomSorter {
	return &bomSorter{
		best:     best,
		counts:   counts,
		multiple: multiple,
		logger:   logger,
		report: &BOMReport{
			Steps:      make(map[craft.FormulaType]int),
			Refineries: make(map[craft.RefinerySize]int),
		},
	}
}

func (s *bomSorter) Adjacent(_ context.Context, node *craft.BOM, _ graph.Direction) ([]*craft.BOM, error) {
	return dependencyBOMs(node, s.best, s.logger), nil
}

func (s *bomSorter) Finish(_ context.Context, node *craft.BOM) error {
	f := node.Tree.Formula
	count := s.counts[node.Name()] * node.OutputQty * s.multiple

	if f.Type == craft.FormulaRefining {
		size := f.RefinerySize()
		s.report.Refineries[size]++
		if f.TimeSecs > 0 {
			t := time.Duration(f.TimeSecs * float64(count) * float64(time.Second))
			s.report.RefineTime += t
			if t > s.report.MaxRefineTime {
				s.report.MaxRefineTime = t
			}
		}
		s.report.Allocations = append(s.report.Allocations, RefineryAllocation{
			Size:    size,
			Formula: f.String(),
		})
	}

	s.report.Steps[f.Type]++
	s.report.Process = append(s.report.Process, ProcessStep{Formula: f, Count: count})
	return nil
}

// BuildBOM finds the best bill of materials for an item and derives its
// build plan. The walk starts from every formula producing the item and
// descends into ingredient sources depth-first, so bills fold bottom-up.
func (e *Engine) BuildBOM(ctx context.Context, req BOMRequest) (*BOMResult, error) {
	if req.Multiple <= 0 {
		req.Multiple = 1
	}

	item, err := e.catalog.Item(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", req.ItemID, err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %s not found", req.ItemID)
	}
	if len(item.SourceFormulas) == 0 {
		return nil, fmt.Errorf("no formulas produce %s", item.ID)
	}

	builder := newBOMBuilder(e.catalog, e.logger, req.Avoid, req.PreferCraft)
	opts := []graph.Option{
		graph.WithOrder(graph.DFS),
		graph.WithDirection(graph.ToSources),
		graph.WithLogger(e.logger),
	}
	if depth := e.walkDepth(req.MaxDepth); depth > 0 {
		opts = append(opts, graph.WithMaxDepth(depth))
	}
	if err := graph.Walk(ctx, item.SourceFormulas, builder, opts...); err != nil {
		return nil, fmt.Errorf("walking sources of %s: %w", item.ID, err)
	}

	bom, ok := builder.best[item.ID]
	if !ok {
		return nil, fmt.Errorf("no bill of materials for %s", item.ID)
	}

	counter := newBOMCounter(builder.best, e.logger)
	if err := graph.Walk(ctx, []*craft.BOM{bom}, counter); err != nil {
		return nil, fmt.Errorf("counting steps for %s: %w", item.ID, err)
	}

	sorter := newBOMSorter(builder.best, counter.counts, req.Multiple, e.logger)
	if err := graph.Walk(ctx, []*craft.BOM{bom}, sorter); err != nil {
		return nil, fmt.Errorf("ordering steps for %s: %w", item.ID, err)
	}
	sorter.report.CraftTaps = sorter.report.Steps[craft.FormulaCraft] * req.Multiple

	return &BOMResult{
		Item:     item,
		BOM:      bom,
		Best:     builder.best,
		Report:   sorter.report,
		Multiple: req.Multiple,
	}, nil
}

// walkDepth resolves a request depth against the engine default.
func (e *Engine) walkDepth(reqDepth int) int {
	if reqDepth > 0 {
		return reqDepth
	}
	return e.opts.MaxDepth
}
