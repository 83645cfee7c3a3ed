package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemUses(t *testing.T) {
	ctx := context.Background()
	w := newCarbonWorld(t)
	eng := New(w.catalog, Options{}, nil)

	res, err := eng.ItemUses(ctx, "carbon")
	require.NoError(t, err)
	assert.Same(t, w.catalog.items["carbon"], res.Item)
	require.Len(t, res.Uses, 3)

	// Most profitable consumer first.
	assert.Same(t, w.condenseBoost, res.Uses[0].Formula)
	assert.InDelta(t, 25, res.Uses[0].Profit(), 1e-9)
	assert.Same(t, w.condense, res.Uses[1].Formula)
	assert.InDelta(t, 5, res.Uses[1].Profit(), 1e-9)

	// The brew's herb is not in the catalog: it prices at zero and is
	// reported as missing.
	brew := res.Uses[2]
	assert.Same(t, w.brew, brew.Formula)
	assert.InDelta(t, -10, brew.Profit(), 1e-9)
	assert.Equal(t, []string{"kelp"}, brew.Missing)

	_, err = eng.ItemUses(ctx, "warp_cell")
	assert.ErrorContains(t, err, "not found")
}
