package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/atlasforge/craftchain/internal/craft/db"
	"github.com/atlasforge/craftchain/internal/ui"
)

var statsTopUsed int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsTopUsed, "top-used", 5, "most used ingredients to list (0 = none)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, closer, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer closer()

	stats, err := eng.Stats(cmd.Context(), statsTopUsed)
	if err != nil {
		return err
	}

	printStats(cmd.OutOrStdout(), stats)
	return nil
}

func printStats(out io.Writer, stats *db.CatalogStats) {
	fmt.Fprintf(out, "Items %d\n", stats.Items)
	fmt.Fprintf(out, "Formulas %d (avg %.1f ingredients, %d replenishing)\n",
		stats.Formulas, stats.AvgIngredients, stats.Replenishing)
	fmt.Fprintf(out, "Ingredient edges %d\n", stats.IngredientEdges)

	if len(stats.ByType) > 0 {
		fmt.Fprintln(out, ui.RenderBold("By type:"))
		for _, typ := range slices.Sorted(maps.Keys(stats.ByType)) {
			fmt.Fprintf(out, "  %s: %d\n", typ, stats.ByType[typ])
		}
	}
	if len(stats.ByClass) > 0 {
		fmt.Fprintln(out, ui.RenderBold("By class:"))
		for _, cls := range slices.Sorted(maps.Keys(stats.ByClass)) {
			fmt.Fprintf(out, "  %s: %d\n", cls, stats.ByClass[cls])
		}
	}
	if len(stats.ByRarity) > 0 {
		fmt.Fprintln(out, ui.RenderBold("By rarity:"))
		for _, r := range slices.Sorted(maps.Keys(stats.ByRarity)) {
			fmt.Fprintf(out, "  %s: %d\n", ui.RenderRarity(r), stats.ByRarity[r])
		}
	}
	if len(stats.MostUsed) > 0 {
		fmt.Fprintln(out, ui.RenderBold("Most used ingredients:"))
		for _, u := range stats.MostUsed {
			fmt.Fprintf(out, "  %-20s %d\n", u.ItemID, u.Uses)
		}
	}
}
