package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlasforge/craftchain/internal/craft/engine"
	"github.com/atlasforge/craftchain/internal/ui"
	"github.com/atlasforge/craftchain/pkg/craft"
)

var itemUses bool

var itemCmd = &cobra.Command{
	Use:   "item <query>",
	Short: "Look up an item and price its formulas",
	Long: `Look up an item by id, name or symbol and price every formula that
produces it against base item values. The cheapest source is marked
with a star. Ambiguous queries list the matching items instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runItem,
}

func init() {
	itemCmd.Flags().BoolVar(&itemUses, "uses", false, "also price the formulas consuming the item")
	rootCmd.AddCommand(itemCmd)
}

func runItem(cmd *cobra.Command, args []string) error {
	eng, closer, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer closer()

	res, err := eng.ItemLookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Item == nil {
		if len(res.Matches) == 0 {
			return fmt.Errorf("no item matches %q", args[0])
		}
		fmt.Fprintf(out, "%q is ambiguous:\n", args[0])
		for _, m := range res.Matches {
			fmt.Fprintf(out, "  %s\n", itemLine(m))
		}
		return nil
	}

	fmt.Fprintln(out, ui.RenderHeader(itemLine(res.Item)))
	if len(res.Valuations) > 0 {
		fmt.Fprintln(out, "Source formulas:")
		for _, v := range res.Valuations {
			printValuation(out, v, res.Cheapest)
		}
	}

	if itemUses {
		uses, err := eng.ItemUses(cmd.Context(), res.Item.ID)
		if err != nil {
			return err
		}
		if len(uses.Uses) > 0 {
			fmt.Fprintln(out, "Used by:")
			for _, v := range uses.Uses {
				printValuation(out, v, nil)
			}
		}
	}

	return nil
}

// itemLine formats one item as "id (symbol) value N Rarity Class".
func itemLine(it *craft.Item) string {
	var b strings.Builder
	b.WriteString(it.ID)
	if it.Symbol != "" {
		fmt.Fprintf(&b, " (%s)", it.Symbol)
	}
	fmt.Fprintf(&b, " value %s %s", formatValue(it.Value), ui.RenderRarity(it.Rarity))
	if it.Class != "" {
		fmt.Fprintf(&b, " %s", it.Class)
	}
	return b.String()
}

// printValuation writes one priced formula. The cheapest source formula
// gets a star marker.
func printValuation(out io.Writer, v engine.Valuation, cheapest *craft.Formula) {
	marker := "  "
	if cheapest != nil && v.Formula == cheapest {
		marker = "* "
	}
	fmt.Fprintf(out, "%s%s\n", marker, v.Formula)

	profit := v.Profit()
	fmt.Fprintf(out, "    cost %s value %s profit %s",
		formatValue(v.Cost), formatValue(v.Value),
		ui.RenderAmount(fmt.Sprintf("%+.1f", profit), profit))
	if len(v.Missing) > 0 {
		fmt.Fprintf(out, " (no value for %s)", strings.Join(v.Missing, ", "))
	}
	fmt.Fprintln(out)
}
