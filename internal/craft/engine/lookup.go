package engine

import (
	"context"
	"fmt"

	"github.com/atlasforge/craftchain/pkg/craft"
)

// valueFormula prices one formula run: ingredient cost against the base
// value of the produced quantity. Unknown ingredient values contribute
// nothing and are reported in Missing.
func valueFormula(f *craft.Formula, values map[string]float64) Valuation {
	cost, missing := f.Ingredients.EstimateValue(values)
	return Valuation{
		Formula: f,
		Cost:    cost,
		Value:   values[f.Result.ItemID] * float64(f.Result.Qty),
		PerItem: cost / float64(f.Result.Qty),
		Missing: missing,
	}
}

// ItemLookup resolves a query to an item and prices every formula that
// produces it. An unknown id falls back to a catalog search; only an
// unambiguous single hit resolves, otherwise the matches are returned for
// the caller to disambiguate.
func (e *Engine) ItemLookup(ctx context.Context, query string) (*LookupResult, error) {
	item, err := e.catalog.Item(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", query, err)
	}
	if item == nil {
		hits, err := e.catalog.SearchItems(ctx, query, e.opts.SearchLimit)
		if err != nil {
			return nil, fmt.Errorf("searching for %q: %w", query, err)
		}
		if len(hits) != 1 {
			return &LookupResult{Matches: hits}, nil
		}
		// Search results are bare rows; reload through the catalog so the
		// item carries its formulas.
		item, err = e.catalog.Item(ctx, hits[0].ID)
		if err != nil {
			return nil, fmt.Errorf("loading item %s: %w", hits[0].ID, err)
		}
		if item == nil {
			return &LookupResult{Matches: hits}, nil
		}
	}

	values, err := e.catalog.ItemValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving item values: %w", err)
	}

	res := &LookupResult{Item: item}
	var cheapest float64
	for _, f := range item.SourceFormulas {
		v := valueFormula(f, values)
		res.Valuations = append(res.Valuations, v)
		if res.Cheapest == nil || v.PerItem < cheapest {
			res.Cheapest = f
			cheapest = v.PerItem
		}
	}
	return res, nil
}
