package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/atlasforge/craftchain/internal/craft/engine"
	"github.com/atlasforge/craftchain/internal/ui"
	"github.com/atlasforge/craftchain/pkg/graph"
)

var (
	cyclesOrder    string
	cyclesLimit    int
	cyclesMaxDepth int
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles [item-id...]",
	Short: "Detect self-sustaining production cycles",
	Long: `Detect production loops that feed their own inputs, ranked by estimated
profit. With no arguments the whole catalog is searched; otherwise only
formulas producing the named items seed the walk.

Example:
  craftchain cycles carbon condensed_carbon --limit 3`,
	RunE: runCycles,
}

func init() {
	cyclesCmd.Flags().StringVar(&cyclesOrder, "order", "DFS", "walk order: DFS or BFS")
	cyclesCmd.Flags().IntVar(&cyclesLimit, "limit", 0, "chains to keep per item (0 = all)")
	cyclesCmd.Flags().IntVar(&cyclesMaxDepth, "max-depth", 0, "walk depth cap (0 = engine default)")
	rootCmd.AddCommand(cyclesCmd)
}

func runCycles(cmd *cobra.Command, args []string) error {
	order, err := graph.ParseOrder(cyclesOrder)
	if err != nil {
		return err
	}

	eng, closer, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer closer()

	res, err := eng.FormulaCycles(cmd.Context(), engine.CyclesRequest{
		ItemIDs:  args,
		Order:    order,
		MaxDepth: cyclesMaxDepth,
		Limit:    cyclesLimit,
	})
	if err != nil {
		return err
	}

	printCycles(cmd.OutOrStdout(), res)
	return nil
}

// printCycles writes each item's chains best first: the chain balance, the
// profit estimate and the station pool loads from the time estimation.
func printCycles(out io.Writer, res *engine.CyclesResult) {
	shown := 0
	for _, id := range slices.Sorted(maps.Keys(res.Chains)) {
		fmt.Fprintln(out, ui.RenderHeader(id))
		for _, chain := range res.Chains[id] {
			shown++

			profit := "not estimated"
			if value, ok := chain.EstimatedValue(); ok {
				profit = ui.RenderAmount(fmt.Sprintf("%+.1fu", value.Profit()), value.Profit())
			}

			total, pools := "n/a", "Not estimated"
			if dur, ok := chain.EstimatedTime(); ok {
				total = dur.String()
				if line := chain.Line(); line != nil {
					pools = fmt.Sprintf("Big: %d/%s, Medium: %d/%s, Craft: %d/%s",
						line.Big().OpenQueues(), line.Big().MaxTime(),
						line.Medium().OpenQueues(), line.Medium().MaxTime(),
						line.Craft().MaxLen(), line.Craft().MaxTime())
				}
			}

			fmt.Fprintf(out, "%s\n\t%s total time %s %s\n", chain, profit, total, pools)
		}
	}
	fmt.Fprintf(out, "%d cycles detected\n", shown)
}
