package craft

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ============================================
// FORMULA TYPES
// ============================================

// FormulaType is the process class of a formula. Declaration order is the
// comparison order.
type FormulaType int

const (
	FormulaCraft FormulaType = iota
	FormulaRefining
	FormulaRepair
	FormulaCook
)

var formulaTypeGlyphs = map[FormulaType]string{
	FormulaCraft:    "{C}",
	FormulaRefining: "{R}",
	FormulaRepair:   "{M}",
	FormulaCook:     "{K}",
}

var formulaTypeNames = map[FormulaType]string{
	FormulaCraft:    "craft",
	FormulaRefining: "refining",
	FormulaRepair:   "repair",
	FormulaCook:     "cook",
}

// Glyph returns the compact marker form, e.g. "{R}" for refining.
func (t FormulaType) Glyph() string {
	if g, ok := formulaTypeGlyphs[t]; ok {
		return g
	}
	return "{?}"
}

// String returns the long name of the type.
func (t FormulaType) String() string {
	if n, ok := formulaTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// Compare orders types by declaration order.
func (t FormulaType) Compare(rhs FormulaType) CompareResult {
	return compare(int(t), int(rhs))
}

// ParseFormulaType accepts both the long name and the glyph form.
func ParseFormulaType(s string) (FormulaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "craft", "{c}":
		return FormulaCraft, nil
	case "refining", "refine", "{r}":
		return FormulaRefining, nil
	case "repair", "{m}":
		return FormulaRepair, nil
	case "cook", "cooking", "{k}":
		return FormulaCook, nil
	}
	return FormulaCraft, fmt.Errorf("unknown formula type %q", s)
}

// Formula is one production step: a result produced from ingredients via a
// process. ID is a structural digest over (type, result, ingredients), so
// semantically identical formulas share an id across runs and processes.
type Formula struct {
	ID          string          `json:"id"`
	Type        FormulaType     `json:"-"`
	Result      Ingredient      `json:"result"`
	Ingredients *IngredientList `json:"-"`
	Process     string          `json:"process,omitempty"`
	TimeSecs    float64         `json:"time,omitempty"`
}

// NewFormula validates quantities and builds a formula with its structural
// id. Non-positive quantities are construction errors, never silently kept.
func NewFormula(typ FormulaType, result Ingredient, ingredients []Ingredient, process string, timeSecs float64) (*Formula, error) {
	if result.ItemID == "" {
		return nil, fmt.Errorf("formula result has no item id")
	}
	if result.Qty <= 0 {
		return nil, fmt.Errorf("formula %s: non-positive result quantity %d", result.ItemID, result.Qty)
	}
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("formula %s: no ingredients", result.ItemID)
	}
	for _, ing := range ingredients {
		if ing.ItemID == "" {
			return nil, fmt.Errorf("formula %s: ingredient has no item id", result.ItemID)
		}
		if ing.Qty <= 0 {
			return nil, fmt.Errorf("formula %s: non-positive quantity %d for ingredient %s", result.ItemID, ing.Qty, ing.ItemID)
		}
	}

	f := &Formula{
		Type:        typ,
		Result:      result,
		Ingredients: NewIngredientList(ingredients...),
		Process:     process,
		TimeSecs:    timeSecs,
	}
	f.ID = f.digest()
	return f, nil
}

// digest computes the structural identity over (type, result, ingredients).
func (f *Formula) digest() string {
	var sb strings.Builder
	sb.WriteString(f.Type.Glyph())
	sb.WriteByte('|')
	fmt.Fprintf(&sb, "%s:%d", f.Result.ItemID, f.Result.Qty)
	for _, ing := range f.Ingredients.Items() {
		fmt.Fprintf(&sb, "|%s:%d", ing.ItemID, ing.Qty)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// Scale returns a new formula with result, ingredients and process time
// multiplied by k. The scaled formula has its own structural id.
func (f *Formula) Scale(k int) (*Formula, error) {
	if k <= 0 {
		return nil, fmt.Errorf("formula %s: non-positive scale %d", f.Result.ItemID, k)
	}
	ings := f.Ingredients.Scale(k)
	return NewFormula(f.Type, f.Result.Scale(k), ings.Items(), f.Process, f.TimeSecs*float64(k))
}

// SourceIDs returns the ingredient item ids in canonical order.
func (f *Formula) SourceIDs() []string {
	return f.Ingredients.ItemIDs()
}

// ItemIDs returns the result id followed by the ingredient ids.
func (f *Formula) ItemIDs() []string {
	return append([]string{f.Result.ItemID}, f.SourceIDs()...)
}

// HasIngredient reports whether itemID appears among the ingredients.
func (f *Formula) HasIngredient(itemID string) bool {
	return f.Ingredients.Contains(itemID)
}

// IsReplenishing reports whether the result also appears among the
// ingredients, making the formula a self-loop candidate.
func (f *Formula) IsReplenishing() bool {
	return f.Ingredients.Contains(f.Result.ItemID)
}

// RefinerySize returns the processing station class for this formula: Craft
// for craft and repair work, Big for refiners with more than two inputs,
// Medium otherwise.
func (f *Formula) RefinerySize() RefinerySize {
	if f.Type == FormulaCraft || f.Type == FormulaRepair {
		return SizeCraft
	}
	if f.Ingredients.Len() > 2 {
		return SizeBig
	}
	return SizeMedium
}

// TimeEstimate is the execution profile of one formula run.
type TimeEstimate struct {
	Total    time.Duration // time to produce Result.Qty items
	MaxBatch time.Duration // longest single batch
	Batches  int           // number of refiner batches (1 for craft)
	Size     RefinerySize
}

// EstimateTime computes the execution profile. Repair work is free. Craft
// work is strictly serial at craftTime per unit. Refining and cooking split
// the output into batches of at most batchCap units, each batch costing
// time proportional to its size.
func (f *Formula) EstimateTime(batchCap int, craftTime time.Duration) TimeEstimate {
	switch f.Type {
	case FormulaRepair:
		return TimeEstimate{Size: SizeCraft}
	case FormulaCraft:
		total := time.Duration(f.Result.Qty) * craftTime
		return TimeEstimate{Total: total, MaxBatch: total, Batches: 1, Size: SizeCraft}
	}

	qty := f.Result.Qty
	batches := (qty + batchCap - 1) / batchCap
	total := durationSecs(f.TimeSecs)
	maxBatch := total
	if qty > batchCap {
		maxBatch = durationSecs(f.TimeSecs / float64(qty) * float64(batchCap))
	}
	return TimeEstimate{
		Total:    total,
		MaxBatch: maxBatch,
		Batches:  batches,
		Size:     f.RefinerySize(),
	}
}

// durationSecs converts fractional seconds to a Duration.
func durationSecs(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// Compare orders formulas by result, then type, then ingredients. Used to
// keep formula collections in a stable, reproducible order.
func (f *Formula) Compare(rhs *Formula) CompareResult {
	if c := f.Result.Compare(rhs.Result); c != Equal {
		return c
	}
	if c := f.Type.Compare(rhs.Type); c != Equal {
		return c
	}
	return f.Ingredients.Compare(rhs.Ingredients, LongerMore)
}

// String formats the formula as "result xN <- a x1 + b x2 (process)".
func (f *Formula) String() string {
	s := fmt.Sprintf("%s %s <- %s", f.Type.Glyph(), f.Result, f.Ingredients)
	if f.Process != "" {
		s += fmt.Sprintf(" (%s %g sec)", f.Process, f.TimeSecs)
	}
	return s
}

// ShortString formats the formula as "result={T}(a, b)".
func (f *Formula) ShortString() string {
	return fmt.Sprintf("%s=%s(%s)", f.Result.ItemID, f.Type.Glyph(), strings.Join(f.SourceIDs(), ", "))
}
