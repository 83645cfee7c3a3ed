package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlasforge/craftchain/internal/craft/engine"
	"github.com/atlasforge/craftchain/internal/ui"
	"github.com/atlasforge/craftchain/pkg/craft"
)

var (
	bomMultiple    int
	bomAvoid       []string
	bomPreferCraft bool
	bomMaxDepth    int
)

var bomCmd = &cobra.Command{
	Use:   "bom <item-id>",
	Short: "Build the bill of materials for an item",
	Long: `Build the cheapest bill of materials for an item: the raw materials to
gather, the production steps in dependency order and the refinery
workload. Costs use base item values.

Example:
  craftchain bom warp_cell -x 3 --avoid chromatic_metal`,
	Args: cobra.ExactArgs(1),
	RunE: runBOM,
}

func init() {
	bomCmd.Flags().IntVarP(&bomMultiple, "multiple", "x", 1, "build this many batches")
	bomCmd.Flags().StringSliceVar(&bomAvoid, "avoid", nil, "raw material ids to steer away from")
	bomCmd.Flags().BoolVar(&bomPreferCraft, "prefer-craft", false, "rank craft formulas above refining")
	bomCmd.Flags().IntVar(&bomMaxDepth, "max-depth", 0, "walk depth cap (0 = engine default)")
	rootCmd.AddCommand(bomCmd)
}

func runBOM(cmd *cobra.Command, args []string) error {
	eng, closer, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer closer()

	res, err := eng.BuildBOM(cmd.Context(), engine.BOMRequest{
		ItemID:      args[0],
		Multiple:    bomMultiple,
		Avoid:       bomAvoid,
		PreferCraft: bomPreferCraft,
		MaxDepth:    bomMaxDepth,
	})
	if err != nil {
		return err
	}

	printBOM(cmd.OutOrStdout(), res, bomAvoid)
	return nil
}

var bomSeparator = strings.Repeat("=", 80)

// printBOM writes the build report: header, raw materials, process steps
// and the step and refinery totals.
func printBOM(out io.Writer, res *engine.BOMResult, avoid []string) {
	bom := res.BOM
	rep := res.Report

	fmt.Fprintln(out, ui.RenderMuted(bomSeparator))
	fmt.Fprintln(out, ui.RenderHeader(fmt.Sprintf("BOM for %s value %s (cost per item %s) x%d",
		bom.Result.ID, formatValue(bom.Result.Value), formatValue(bom.PerItem), bom.OutputQty*res.Multiple)))
	if len(avoid) > 0 {
		fmt.Fprintln(out, ui.RenderMuted("Avoiding "+strings.Join(avoid, ", ")))
	}
	if bom.PreferCraft {
		fmt.Fprintln(out, ui.RenderMuted("Craft operations in priority"))
	}
	for _, ing := range bom.Ingredients {
		fmt.Fprintf(out, "  %-20s x%d\n", ing.ItemID, ing.Qty*res.Multiple)
	}

	fmt.Fprintln(out, ui.RenderMuted(bomSeparator))
	fmt.Fprintln(out, ui.RenderHeader("Process"))
	for _, step := range rep.Process {
		f := step.Formula
		note := ""
		if f.Type == craft.FormulaRefining && f.TimeSecs > 0 {
			t := time.Duration(f.TimeSecs * float64(step.Count) * float64(time.Second))
			note = " refine time " + t.String()
		}
		fmt.Fprintf(out, "%s x%d%s\n", f.Result.ItemID, step.Count, note)
		fmt.Fprintf(out, "  %s\n", ui.RenderMuted(f.String()))
	}

	fmt.Fprintln(out, ui.RenderMuted(bomSeparator))
	fmt.Fprintf(out, "Total steps %d\n", rep.TotalSteps())
	for _, typ := range []craft.FormulaType{craft.FormulaRefining, craft.FormulaCraft, craft.FormulaCook, craft.FormulaRepair} {
		if n := rep.Steps[typ]; n > 0 {
			fmt.Fprintf(out, "%s: %d\n", typ, n)
		}
	}

	if len(rep.Allocations) > 0 {
		// Sorted by formula, not in walk finish order.
		allocs := slices.Clone(rep.Allocations)
		slices.SortFunc(allocs, func(a, b engine.RefineryAllocation) int {
			return strings.Compare(a.Formula, b.Formula)
		})
		fmt.Fprintln(out, ui.RenderBold("Refinery allocations:"))
		for _, a := range allocs {
			fmt.Fprintf(out, "  %s %s\n", a.Size, a.Formula)
		}
	}

	fmt.Fprintln(out, ui.RenderBold(fmt.Sprintf("Total refineries %d", rep.TotalRefineries())))
	for _, size := range []craft.RefinerySize{craft.SizeMedium, craft.SizeBig} {
		if n := rep.Refineries[size]; n > 0 {
			fmt.Fprintf(out, "%-8s: %d\n", size, n)
		}
	}

	if rep.RefineTime > 0 {
		fmt.Fprintf(out, "Max refine time %s\n", rep.MaxRefineTime)
		fmt.Fprintf(out, "Total refine time %s\n", rep.RefineTime)
	}
	fmt.Fprintf(out, "%d taps for crafting\n", rep.CraftTaps)
}
