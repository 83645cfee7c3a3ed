package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemLookup(t *testing.T) {
	ctx := context.Background()
	w := newCarbonWorld(t)
	eng := New(w.catalog, Options{}, nil)

	t.Run("exact id prices every producing formula", func(t *testing.T) {
		res, err := eng.ItemLookup(ctx, "condensed_carbon")
		require.NoError(t, err)
		require.NotNil(t, res.Item)
		assert.Same(t, w.catalog.items["condensed_carbon"], res.Item)

		require.Len(t, res.Valuations, 2)
		plain := res.Valuations[0]
		assert.Same(t, w.condense, plain.Formula)
		assert.InDelta(t, 20, plain.Cost, 1e-9)
		assert.InDelta(t, 25, plain.Value, 1e-9)
		assert.InDelta(t, 20, plain.PerItem, 1e-9)
		assert.InDelta(t, 5, plain.Profit(), 1e-9)
		assert.Empty(t, plain.Missing)

		boosted := res.Valuations[1]
		assert.Same(t, w.condenseBoost, boosted.Formula)
		assert.InDelta(t, 50, boosted.Cost, 1e-9)
		assert.InDelta(t, 75, boosted.Value, 1e-9)
		assert.InDelta(t, 50.0/3, boosted.PerItem, 1e-9)

		// Boosting produces three per run, so it is cheaper per unit.
		assert.Same(t, w.condenseBoost, res.Cheapest)
	})

	t.Run("unique search hit resolves with formulas", func(t *testing.T) {
		res, err := eng.ItemLookup(ctx, "dense")
		require.NoError(t, err)
		require.NotNil(t, res.Item)
		assert.Same(t, w.catalog.items["condensed_carbon"], res.Item)
		assert.Len(t, res.Valuations, 2)
		assert.Empty(t, res.Matches)
	})

	t.Run("exact id wins over an ambiguous search", func(t *testing.T) {
		res, err := eng.ItemLookup(ctx, "carbon")
		require.NoError(t, err)
		require.NotNil(t, res.Item)
		assert.Same(t, w.catalog.items["carbon"], res.Item)
		require.Len(t, res.Valuations, 1)
		assert.Same(t, w.toCarbon, res.Valuations[0].Formula)
		assert.Empty(t, res.Matches)
	})

	t.Run("ambiguous search returns the matches", func(t *testing.T) {
		res, err := eng.ItemLookup(ctx, "arbon")
		require.NoError(t, err)
		assert.Nil(t, res.Item)
		require.Len(t, res.Matches, 2)
		assert.Equal(t, "carbon", res.Matches[0].ID)
		assert.Equal(t, "condensed_carbon", res.Matches[1].ID)
		assert.Empty(t, res.Valuations)
	})

	t.Run("no hits at all", func(t *testing.T) {
		res, err := eng.ItemLookup(ctx, "warp_cell")
		require.NoError(t, err)
		assert.Nil(t, res.Item)
		assert.Empty(t, res.Matches)
	})
}
