package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
)

// ItemUses prices every formula that consumes the item, most profitable
// first.
func (e *Engine) ItemUses(ctx context.Context, id string) (*UsesResult, error) {
	item, err := e.catalog.Item(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", id, err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %s not found", id)
	}

	values, err := e.catalog.ItemValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving item values: %w", err)
	}

	res := &UsesResult{Item: item}
	for _, f := range item.Formulas {
		res.Uses = append(res.Uses, valueFormula(f, values))
	}
	slices.SortFunc(res.Uses, func(a, b Valuation) int {
		if c := cmp.Compare(b.Profit(), a.Profit()); c != 0 {
			return c
		}
		return strings.Compare(a.Formula.ID, b.Formula.ID)
	})
	return res, nil
}
