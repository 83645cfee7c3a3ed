package craft

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================
// INGREDIENT TYPES
// ============================================

// Ingredient is a quantity of one item, as consumed or produced by a formula.
type Ingredient struct {
	ItemID string `json:"id"`
	Qty    int    `json:"qty"`
}

// Scale returns the ingredient multiplied by k.
func (i Ingredient) Scale(k int) Ingredient {
	return Ingredient{ItemID: i.ItemID, Qty: i.Qty * k}
}

// Compare orders ingredients by item id, then by quantity.
func (i Ingredient) Compare(rhs Ingredient) CompareResult {
	if c := compare(i.ItemID, rhs.ItemID); c != Equal {
		return c
	}
	return compare(i.Qty, rhs.Qty)
}

// String formats the ingredient as "itemID xQty".
func (i Ingredient) String() string {
	return fmt.Sprintf("%s x%d", i.ItemID, i.Qty)
}

// ListOrder controls how ingredient lists of unequal length compare once
// their common prefix is identical.
type ListOrder int

const (
	// LongerMore ranks the longer list as More.
	LongerMore ListOrder = iota
	// LongerLess ranks the longer list as Less.
	LongerLess
)

// IngredientList is a set of ingredients keyed by item id. Inserting an
// ingredient whose item is already present sums the quantities, so the list
// never holds duplicate item entries. The canonical view is sorted by item id.
type IngredientList struct {
	byID   map[string]Ingredient
	sorted []Ingredient // nil when stale
}

// NewIngredientList builds a list from the given ingredients.
func NewIngredientList(ings ...Ingredient) *IngredientList {
	l := &IngredientList{byID: make(map[string]Ingredient, len(ings))}
	l.Add(ings...)
	return l
}

// Len returns the number of distinct items in the list.
func (l *IngredientList) Len() int {
	return len(l.byID)
}

// Empty reports whether the list has no entries.
func (l *IngredientList) Empty() bool {
	return len(l.byID) == 0
}

// Contains reports whether the list has an entry for itemID.
func (l *IngredientList) Contains(itemID string) bool {
	_, ok := l.byID[itemID]
	return ok
}

// Get returns the entry for itemID, if present.
func (l *IngredientList) Get(itemID string) (Ingredient, bool) {
	ing, ok := l.byID[itemID]
	return ing, ok
}

// Qty returns the quantity recorded for itemID, zero if absent.
func (l *IngredientList) Qty(itemID string) int {
	return l.byID[itemID].Qty
}

// ItemIDs returns the item ids in canonical order.
func (l *IngredientList) ItemIDs() []string {
	ids := make([]string, 0, len(l.byID))
	for _, ing := range l.Items() {
		ids = append(ids, ing.ItemID)
	}
	return ids
}

// Items returns the ingredients sorted by item id. The returned slice is
// shared; callers must not modify it.
func (l *IngredientList) Items() []Ingredient {
	if l.sorted == nil {
		l.sorted = make([]Ingredient, 0, len(l.byID))
		for _, ing := range l.byID {
			l.sorted = append(l.sorted, ing)
		}
		sort.Slice(l.sorted, func(i, j int) bool {
			return l.sorted[i].ItemID < l.sorted[j].ItemID
		})
	}
	return l.sorted
}

// Add inserts ingredients, summing quantities for items already present.
func (l *IngredientList) Add(ings ...Ingredient) {
	if l.byID == nil {
		l.byID = make(map[string]Ingredient, len(ings))
	}
	for _, ing := range ings {
		if cur, ok := l.byID[ing.ItemID]; ok {
			cur.Qty += ing.Qty
			l.byID[ing.ItemID] = cur
		} else {
			l.byID[ing.ItemID] = ing
		}
	}
	l.sorted = nil
}

// AddList inserts every entry of rhs, summing quantities.
func (l *IngredientList) AddList(rhs *IngredientList) {
	if rhs == nil {
		return
	}
	l.Add(rhs.Items()...)
}

// Sub decrements quantities by the entries of rhs. Only items already in the
// list are affected; quantities may go negative. Items present in rhs but not
// in the list are ignored.
func (l *IngredientList) Sub(rhs *IngredientList) {
	if rhs == nil {
		return
	}
	for _, ing := range rhs.Items() {
		if cur, ok := l.byID[ing.ItemID]; ok {
			cur.Qty -= ing.Qty
			l.byID[ing.ItemID] = cur
		}
	}
	l.sorted = nil
}

// Scale returns a new list with every quantity multiplied by k.
func (l *IngredientList) Scale(k int) *IngredientList {
	out := &IngredientList{byID: make(map[string]Ingredient, len(l.byID))}
	for id, ing := range l.byID {
		out.byID[id] = ing.Scale(k)
	}
	return out
}

// Clone returns an independent copy of the list.
func (l *IngredientList) Clone() *IngredientList {
	return l.Scale(1)
}

// Diff returns a new list equal to l with rhs subtracted (see Sub).
func (l *IngredientList) Diff(rhs *IngredientList) *IngredientList {
	out := l.Clone()
	out.Sub(rhs)
	return out
}

// FindIf returns the entries satisfying cond, in canonical order.
func (l *IngredientList) FindIf(cond func(Ingredient) bool) []Ingredient {
	var out []Ingredient
	for _, ing := range l.Items() {
		if cond(ing) {
			out = append(out, ing)
		}
	}
	return out
}

// RemoveIf drops every entry satisfying cond.
func (l *IngredientList) RemoveIf(cond func(Ingredient) bool) {
	for id, ing := range l.byID {
		if cond(ing) {
			delete(l.byID, id)
		}
	}
	l.sorted = nil
}

// Compare orders two lists entry-by-entry over their canonical views: the
// first unequal ingredient decides. When the common prefix is identical the
// shorter list is Less; order flips that tail decision so that a longer list
// can rank as Less where fewer leftover items are preferable.
func (l *IngredientList) Compare(rhs *IngredientList, order ListOrder) CompareResult {
	a, b := l.Items(), rhs.Items()
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := a[i].Compare(b[i]); c != Equal {
			return c
		}
	}

	res := compare(len(a), len(b))
	if order == LongerLess {
		return res.Invert()
	}
	return res
}

// EstimateValue sums value*qty over the entries using the supplied item
// values. Items without a known value contribute nothing; their ids are
// returned so the caller can report them.
func (l *IngredientList) EstimateValue(values map[string]float64) (float64, []string) {
	var total float64
	var missing []string
	for _, ing := range l.Items() {
		v, ok := values[ing.ItemID]
		if !ok {
			missing = append(missing, ing.ItemID)
			continue
		}
		total += v * float64(ing.Qty)
	}
	return total, missing
}

// String formats the list as "a x1 + b x2" in canonical order.
func (l *IngredientList) String() string {
	parts := make([]string, 0, l.Len())
	for _, ing := range l.Items() {
		parts = append(parts, ing.String())
	}
	return strings.Join(parts, " + ")
}
