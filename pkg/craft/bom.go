package craft

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================
// BILL OF MATERIALS TYPES
// ============================================

// FormulaNode is one node of the chosen-formula tree behind a BOM.
type FormulaNode struct {
	Formula      *Formula
	Dependencies []*FormulaNode
}

// BOM is an aggregated raw-material list for producing OutputQty units of
// Result. A BOM is immutable once built; Scale returns a new one.
type BOM struct {
	Result      *Item
	Ingredients []Ingredient     // canonical order, raw materials only
	Components  map[string]*Item // every item referenced by Ingredients, and then some
	MaxRarity   Rarity
	OutputQty   int
	Total       float64 // cost of one batch at component base values
	PerItem     float64
	Tree        *FormulaNode
	Avoided     bool
	PreferCraft bool
}

// NewBOM validates and builds a BOM. Components must cover every
// ingredient; costs and rarity are derived here so scaled copies stay
// consistent.
func NewBOM(result *Item, ingredients []Ingredient, components map[string]*Item, outputQty int, tree *FormulaNode, avoided, preferCraft bool) (*BOM, error) {
	if result == nil {
		return nil, fmt.Errorf("bom has no result item")
	}
	if outputQty <= 0 {
		return nil, fmt.Errorf("bom %s: non-positive output quantity %d", result.ID, outputQty)
	}
	if tree == nil || tree.Formula == nil {
		return nil, fmt.Errorf("bom %s: no formula tree", result.ID)
	}

	sorted := make([]Ingredient, len(ingredients))
	copy(sorted, ingredients)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemID < sorted[j].ItemID })

	var total float64
	maxRarity := RarityCommon
	for _, ing := range sorted {
		comp, ok := components[ing.ItemID]
		if !ok || comp == nil {
			return nil, fmt.Errorf("bom %s: component %s not resolved", result.ID, ing.ItemID)
		}
		total += comp.Value * float64(ing.Qty)
	}
	for _, comp := range components {
		if comp.Rarity > maxRarity {
			maxRarity = comp.Rarity
		}
	}

	return &BOM{
		Result:      result,
		Ingredients: sorted,
		Components:  components,
		MaxRarity:   maxRarity,
		OutputQty:   outputQty,
		Total:       total,
		PerItem:     total / float64(outputQty),
		Tree:        tree,
		Avoided:     avoided,
		PreferCraft: preferCraft,
	}, nil
}

// Name returns the result item id.
func (b *BOM) Name() string {
	return b.Result.ID
}

// ProcessType returns the type of the formula at the root of the tree.
func (b *BOM) ProcessType() FormulaType {
	return b.Tree.Formula.Type
}

// ComponentQty returns the quantity of a component in the ingredient list,
// zero when the item is not a known component.
func (b *BOM) ComponentQty(itemID string) int {
	if _, ok := b.Components[itemID]; !ok {
		return 0
	}
	for _, ing := range b.Ingredients {
		if ing.ItemID == itemID {
			return ing.Qty
		}
	}
	return 0
}

// Scale returns a new BOM for k batches: ingredients and output scale,
// components and the formula tree are shared.
func (b *BOM) Scale(k int) (*BOM, error) {
	if k <= 0 {
		return nil, fmt.Errorf("bom %s: non-positive scale %d", b.Result.ID, k)
	}
	ings := make([]Ingredient, len(b.Ingredients))
	for i, ing := range b.Ingredients {
		ings[i] = ing.Scale(k)
	}
	return NewBOM(b.Result, ings, b.Components, b.OutputQty*k, b.Tree, b.Avoided, b.PreferCraft)
}

// Less is the four-key "better BOM" order: (1) not-avoided beats avoided,
// (2) craft type beats non-craft when PreferCraft is set and the reverse
// otherwise, (3) lower max rarity, (4) lower total cost.
func (b *BOM) Less(rhs *BOM) bool {
	if b.Avoided != rhs.Avoided {
		return !b.Avoided
	}
	bCraft := b.ProcessType() == FormulaCraft
	rCraft := rhs.ProcessType() == FormulaCraft
	if bCraft != rCraft {
		if bCraft {
			return b.PreferCraft
		}
		return !b.PreferCraft
	}
	if b.MaxRarity != rhs.MaxRarity {
		return b.MaxRarity < rhs.MaxRarity
	}
	return b.Total < rhs.Total
}

// MakeBOM builds the leaf-case BOM for a formula whose ingredients resolve
// directly to source items: cost is the sum of base values.
func MakeBOM(result *Item, formula *Formula, sources []*Item, avoid map[string]bool, preferCraft bool) (*BOM, error) {
	components := make(map[string]*Item, len(sources))
	for _, it := range sources {
		if it == nil {
			continue
		}
		components[it.ID] = it
	}
	avoided := false
	for id := range components {
		if avoid[id] {
			avoided = true
			break
		}
	}
	return NewBOM(result, formula.Ingredients.Items(), components, formula.Result.Qty, &FormulaNode{Formula: formula}, avoided, preferCraft)
}

// CombineBOMs aggregates child BOMs under a parent formula:
//
//  1. group children by result and keep the best of each group,
//  2. arbitrate each group winner against the globally cached best,
//  3. fold a global output multiplier so every chosen child's output
//     divides the parent batch with no fractional units,
//  4. rescale chosen children that do not already line up,
//  5. merge the chosen children's components and ingredient counts.
//
// Globally cached winners are adopted for ingredients that had no local
// candidate; the best map itself is never written here.
func CombineBOMs(result *Item, formula *Formula, children []*BOM, best map[string]*BOM, avoid map[string]bool, preferCraft bool) (*BOM, error) {
	chosen := make(map[string]*BOM)
	for _, child := range children {
		cur, ok := chosen[child.Name()]
		if !ok || child.Less(cur) {
			chosen[child.Name()] = child
		}
	}

	selectBOM := func(name string) *BOM {
		local := chosen[name]
		global := best[name]
		if local != nil && global != nil {
			if local.Less(global) {
				return local
			}
			return global
		}
		if local != nil {
			return local
		}
		return global
	}

	// Fold the output multiplier.
	newOutput := formula.Result.Qty
	outputLCM := newOutput
	for _, ing := range formula.Ingredients.Items() {
		bom := selectBOM(ing.ItemID)
		if bom == nil {
			continue
		}
		if _, ok := chosen[ing.ItemID]; !ok {
			chosen[ing.ItemID] = bom
		}
		ingLCM, err := lcm(ing.Qty, bom.OutputQty)
		if err != nil {
			return nil, fmt.Errorf("combining %s: %w", result.ID, err)
		}
		outputLCM, err = lcm(ingLCM/ing.Qty, outputLCM)
		if err != nil {
			return nil, fmt.Errorf("combining %s: %w", result.ID, err)
		}
	}
	if newOutput != outputLCM {
		newOutput = outputLCM / newOutput
	}

	// Rescale children that do not divide the batch evenly.
	kOutput := newOutput / formula.Result.Qty
	if kOutput < 1 {
		kOutput = 1
	}
	for _, ing := range formula.Ingredients.Items() {
		bom := selectBOM(ing.ItemID)
		if bom == nil {
			continue
		}
		ingLCM, err := lcm(ing.Qty*kOutput, bom.OutputQty)
		if err != nil {
			return nil, fmt.Errorf("rescaling %s for %s: %w", ing.ItemID, result.ID, err)
		}
		if ingLCM != bom.OutputQty {
			scaled, err := bom.Scale(ingLCM / bom.OutputQty)
			if err != nil {
				return nil, err
			}
			chosen[ing.ItemID] = scaled
		}
	}

	// Merge components and counts over the chosen set, in id order so the
	// result is reproducible.
	names := make([]string, 0, len(chosen))
	for name := range chosen {
		names = append(names, name)
	}
	sort.Strings(names)

	components := make(map[string]*Item)
	for _, name := range names {
		for id, comp := range chosen[name].Components {
			if _, own := chosen[id]; own {
				continue
			}
			if _, seen := components[id]; !seen {
				components[id] = comp
			}
		}
	}

	ingredients := make([]Ingredient, 0, len(components))
	for id := range components {
		qty := 0
		for _, name := range names {
			qty += chosen[name].ComponentQty(id)
		}
		ingredients = append(ingredients, Ingredient{ItemID: id, Qty: qty})
	}

	avoided := false
	for id := range components {
		if avoid[id] {
			avoided = true
			break
		}
	}

	tree := &FormulaNode{Formula: formula}
	for _, name := range names {
		child := chosen[name].Tree
		if child.Formula.ID == formula.ID {
			continue // block self-reference
		}
		tree.Dependencies = append(tree.Dependencies, child)
	}

	return NewBOM(result, ingredients, components, newOutput, tree, avoided, preferCraft)
}

// String formats the BOM as "result NxV = (a x1) + (b x2) ∑ = cost".
func (b *BOM) String() string {
	parts := make([]string, 0, len(b.Ingredients))
	for _, ing := range b.Ingredients {
		sym := ing.ItemID
		if comp, ok := b.Components[ing.ItemID]; ok {
			sym = comp.SymbolOrID()
		}
		parts = append(parts, fmt.Sprintf("(%s x%d)", sym, ing.Qty))
	}
	return fmt.Sprintf("%s %dx%g = %s ∑ = %g (%dx%.1f) (%s)",
		b.Result.SymbolOrID(), b.OutputQty, b.Result.Value,
		strings.Join(parts, " + "), b.Total, b.OutputQty, b.PerItem, b.MaxRarity)
}
