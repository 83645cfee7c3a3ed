package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/atlasforge/craftchain/pkg/craft"
	"github.com/atlasforge/craftchain/pkg/graph"
)

// shortChainStages is the length under which even unprofitable chains get
// a time estimate. Longer losing chains are not worth scheduling.
const shortChainStages = 5

// cycleDetector finds production loops during a walk over the
// source-formula graph. It mirrors the traversal on its own stack; when a
// back edge closes a loop, the stack slice from the edge's source down to
// its target is the loop's formula trace.
type cycleDetector struct {
	formulaWalker
	stack     []*craft.Formula
	chains    map[string][]*craft.ProductionChain
	inspected int
	found     int
	estimate  func(*craft.ProductionChain)
}

func (d *cycleDetector) Examine(_ context.Context, f *craft.Formula) error {
	d.stack = append(d.stack, f)
	return nil
}

func (d *cycleDetector) Finish(_ context.Context, _ *craft.Formula) error {
	if n := len(d.stack); n > 0 {
		d.stack = d.stack[:n-1]
	}
	d.inspected++
	return nil
}

func (d *cycleDetector) BackEdge(_ context.Context, from, to *craft.Formula) error {
	trace := d.backtrackTo(to)
	if len(trace) == 0 {
		// Under BFS a gray formula need not be on the mirror stack, so
		// the edge closes no loop through the current path.
		return nil
	}

	chain, err := craft.ChainFromFormulas(trace...)
	if err != nil {
		return fmt.Errorf("assembling chain closed by %s: %w", from.Result.ItemID, err)
	}
	d.found++
	if d.estimate != nil {
		d.estimate(chain)
	}

	id := to.Result.ItemID
	d.chains[id] = append(d.chains[id], chain)
	return nil
}

// backtrackTo returns the stack slice from the top down to the target in
// pop order, target included. Empty when the target is not on the stack.
func (d *cycleDetector) backtrackTo(target *craft.Formula) []*craft.Formula {
	for i := len(d.stack) - 1; i >= 0; i-- {
		if d.stack[i] != target {
			continue
		}
		trace := make([]*craft.Formula, 0, len(d.stack)-i)
		for j := len(d.stack) - 1; j >= i; j-- {
			trace = append(trace, d.stack[j])
		}
		return trace
	}
	return nil
}

// estimateChain forces the chain's value estimate and, for profitable or
// short chains, its time estimate.
func estimateChain(chain *craft.ProductionChain, values map[string]float64, cfg craft.EstimateConfig) {
	chain.EstimateValue(values)
	if chain.HasProfit() || chain.Len() < shortChainStages {
		chain.EstimateTime(cfg)
	}
}

// FormulaCycles detects production loops reachable from the requested
// items, or from every producible item when none are given. Each detected
// chain is estimated and the chains for each closing item are ranked by
// profitability.
func (e *Engine) FormulaCycles(ctx context.Context, req CyclesRequest) (*CyclesResult, error) {
	ids := req.ItemIDs
	if len(ids) == 0 {
		all, err := e.catalog.ResultItemIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing producible items: %w", err)
		}
		ids = all
	}

	items, err := e.catalog.Items(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading start items: %w", err)
	}

	var starts []*craft.Formula
	seen := make(map[*craft.Formula]bool)
	for _, it := range items {
		for _, f := range it.SourceFormulas {
			if seen[f] {
				continue
			}
			seen[f] = true
			starts = append(starts, f)
		}
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("no formulas produce the requested items")
	}
	e.logger.DebugContext(ctx, "cycle walk", "items", len(items), "start formulas", len(starts))

	estCfg, err := e.estimateConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving batch caps: %w", err)
	}
	if req.EstimateLimits != nil {
		estCfg.Limits = req.EstimateLimits
	}
	values, err := e.catalog.ItemValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving item values: %w", err)
	}

	detector := &cycleDetector{
		formulaWalker: formulaWalker{catalog: e.catalog, logger: e.logger},
		chains:        make(map[string][]*craft.ProductionChain),
		estimate: func(chain *craft.ProductionChain) {
			estimateChain(chain, values, estCfg)
		},
	}

	opts := []graph.Option{
		graph.WithOrder(req.Order),
		graph.WithDirection(graph.ToSources),
		graph.WithLogger(e.logger),
	}
	if depth := e.walkDepth(req.MaxDepth); depth > 0 {
		opts = append(opts, graph.WithMaxDepth(depth))
	}
	if err := graph.Walk(ctx, starts, detector, opts...); err != nil {
		return nil, fmt.Errorf("walking formula graph: %w", err)
	}

	cmp := craft.ChainComparator(CyclesRankOrder())
	for id, chains := range detector.chains {
		slices.SortStableFunc(chains, func(a, b *craft.ProductionChain) int {
			return cmp(b, a)
		})
		if req.Limit > 0 && len(chains) > req.Limit {
			detector.chains[id] = chains[:req.Limit]
		}
	}

	return &CyclesResult{
		Chains:    detector.chains,
		Inspected: detector.inspected,
		Found:     detector.found,
	}, nil
}

// EstimateChain resolves item values and batch caps from the catalog and
// runs the chain estimators under the engine's refinery limits.
func (e *Engine) EstimateChain(ctx context.Context, chain *craft.ProductionChain) error {
	values, err := e.catalog.ItemValues(ctx)
	if err != nil {
		return fmt.Errorf("resolving item values: %w", err)
	}
	cfg, err := e.estimateConfig(ctx)
	if err != nil {
		return fmt.Errorf("resolving batch caps: %w", err)
	}
	estimateChain(chain, values, cfg)
	return nil
}
