package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasforge/craftchain/pkg/craft"
)

func TestBuildBOM(t *testing.T) {
	ctx := context.Background()

	t.Run("folds the best route down to raw materials", func(t *testing.T) {
		w := newGadgetWorld(t)
		eng := New(w.catalog, Options{}, nil)

		res, err := eng.BuildBOM(ctx, BOMRequest{ItemID: "gadget"})
		require.NoError(t, err)

		assert.Same(t, w.catalog.items["gadget"], res.Item)
		assert.Equal(t, 1, res.Multiple)

		bom := res.BOM
		assert.Equal(t, "gadget", bom.Name())
		assert.Equal(t, 1, bom.OutputQty)
		assert.Equal(t, []craft.Ingredient{{ItemID: "ore", Qty: 4}}, bom.Ingredients)
		assert.InDelta(t, 20, bom.Total, 1e-9)
		assert.False(t, bom.Avoided)

		// The chosen tree hangs both refining routes under the assembly.
		assert.Same(t, w.assemble, bom.Tree.Formula)
		require.Len(t, bom.Tree.Dependencies, 2)
		assert.Same(t, w.pressPlate, bom.Tree.Dependencies[0].Formula)
		assert.Same(t, w.smeltBar, bom.Tree.Dependencies[1].Formula)

		// Refining beats the craft route at default settings.
		assert.Len(t, res.Best, 3)
		require.Contains(t, res.Best, "metal_bar")
		assert.Same(t, w.smeltBar, res.Best["metal_bar"].Tree.Formula)
	})

	t.Run("derives the build plan in dependency order", func(t *testing.T) {
		w := newGadgetWorld(t)
		eng := New(w.catalog, Options{}, nil)

		res, err := eng.BuildBOM(ctx, BOMRequest{ItemID: "gadget"})
		require.NoError(t, err)

		report := res.Report
		require.Len(t, report.Process, 3)
		assert.Same(t, w.smeltBar, report.Process[0].Formula)
		assert.Equal(t, 2, report.Process[0].Count, "the bar serves both the plate and the assembly")
		assert.Same(t, w.pressPlate, report.Process[1].Formula)
		assert.Equal(t, 1, report.Process[1].Count)
		assert.Same(t, w.assemble, report.Process[2].Formula)
		assert.Equal(t, 1, report.Process[2].Count)

		assert.Equal(t, map[craft.FormulaType]int{craft.FormulaRefining: 2, craft.FormulaCraft: 1}, report.Steps)
		assert.Equal(t, 3, report.TotalSteps())
		assert.Equal(t, map[craft.RefinerySize]int{craft.SizeMedium: 2}, report.Refineries)
		assert.Equal(t, 2, report.TotalRefineries())

		require.Len(t, report.Allocations, 2)
		assert.Equal(t, RefineryAllocation{Size: craft.SizeMedium, Formula: w.smeltBar.String()}, report.Allocations[0])
		assert.Equal(t, RefineryAllocation{Size: craft.SizeMedium, Formula: w.pressPlate.String()}, report.Allocations[1])

		assert.Equal(t, 210*time.Second, report.RefineTime)
		assert.Equal(t, 120*time.Second, report.MaxRefineTime)
		assert.Equal(t, 1, report.CraftTaps)
	})

	t.Run("multiple scales counts and taps, not the bill", func(t *testing.T) {
		w := newGadgetWorld(t)
		eng := New(w.catalog, Options{}, nil)

		res, err := eng.BuildBOM(ctx, BOMRequest{ItemID: "gadget", Multiple: 3})
		require.NoError(t, err)

		assert.Equal(t, 3, res.Multiple)
		// The bill itself stays per batch.
		assert.Equal(t, []craft.Ingredient{{ItemID: "ore", Qty: 4}}, res.BOM.Ingredients)

		report := res.Report
		require.Len(t, report.Process, 3)
		assert.Equal(t, 6, report.Process[0].Count)
		assert.Equal(t, 3, report.Process[1].Count)
		assert.Equal(t, 3, report.Process[2].Count)
		assert.Equal(t, 630*time.Second, report.RefineTime)
		assert.Equal(t, 360*time.Second, report.MaxRefineTime)
		assert.Equal(t, 3, report.CraftTaps)
	})

	t.Run("avoid steers to the untainted route", func(t *testing.T) {
		w := newGadgetWorld(t)
		eng := New(w.catalog, Options{}, nil)

		res, err := eng.BuildBOM(ctx, BOMRequest{ItemID: "gadget", Avoid: []string{"ore"}})
		require.NoError(t, err)

		assert.Same(t, w.scrapBar, res.Best["metal_bar"].Tree.Formula)
		assert.Equal(t, []craft.Ingredient{{ItemID: "scrap", Qty: 6}}, res.BOM.Ingredients)
		assert.False(t, res.BOM.Avoided)

		report := res.Report
		assert.Equal(t, map[craft.FormulaType]int{craft.FormulaCraft: 2, craft.FormulaRefining: 1}, report.Steps)
		assert.Equal(t, map[craft.RefinerySize]int{craft.SizeMedium: 1}, report.Refineries)
		assert.Equal(t, 90*time.Second, report.RefineTime)
		assert.Equal(t, 2, report.CraftTaps)
	})

	t.Run("prefer craft flips the route choice", func(t *testing.T) {
		w := newGadgetWorld(t)
		eng := New(w.catalog, Options{}, nil)

		res, err := eng.BuildBOM(ctx, BOMRequest{ItemID: "gadget", PreferCraft: true})
		require.NoError(t, err)

		assert.Same(t, w.scrapBar, res.Best["metal_bar"].Tree.Formula)
		assert.Equal(t, []craft.Ingredient{{ItemID: "scrap", Qty: 6}}, res.BOM.Ingredients)
		assert.Equal(t, 2, res.Report.CraftTaps)
	})

	t.Run("unknown item", func(t *testing.T) {
		w := newGadgetWorld(t)
		eng := New(w.catalog, Options{}, nil)

		_, err := eng.BuildBOM(ctx, BOMRequest{ItemID: "unobtanium"})
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("raw resources have no bill", func(t *testing.T) {
		w := newGadgetWorld(t)
		eng := New(w.catalog, Options{}, nil)

		_, err := eng.BuildBOM(ctx, BOMRequest{ItemID: "ore"})
		assert.ErrorContains(t, err, "no formulas produce ore")
	})
}
