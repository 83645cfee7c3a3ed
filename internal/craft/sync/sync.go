// Package sync imports and exports catalog data as JSON dumps.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/atlasforge/craftchain/internal/craft/db"
	"github.com/atlasforge/craftchain/pkg/craft"
)

// Syncer loads catalog dumps into the database and writes them back out.
type Syncer struct {
	db *db.DB
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB) *Syncer {
	return &Syncer{db: database}
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	Items    int `json:"items"`
	Formulas int `json:"formulas"`
}

// ingredientJSON is the wire shape of an ingredient. Dumps use the tuple
// form ["carbon", 2]; the object form {"item": "carbon", "qty": 2} and its
// field-name variants are accepted too. Marshals as the tuple.
type ingredientJSON craft.Ingredient

func (i ingredientJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{i.ItemID, i.Qty})
}

func (i *ingredientJSON) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) != 2 {
			return fmt.Errorf("ingredient tuple has %d elements, want 2", len(tuple))
		}
		if err := json.Unmarshal(tuple[0], &i.ItemID); err != nil {
			return fmt.Errorf("ingredient item id: %w", err)
		}
		if err := json.Unmarshal(tuple[1], &i.Qty); err != nil {
			return fmt.Errorf("ingredient quantity: %w", err)
		}
		return nil
	}

	var obj struct {
		Item     string `json:"item"`
		ItemID   string `json:"item_id"`
		Name     string `json:"name"`
		Qty      int    `json:"qty"`
		Quantity int    `json:"quantity"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parsing ingredient: %w", err)
	}
	i.ItemID = obj.Item
	if i.ItemID == "" {
		i.ItemID = obj.ItemID
	}
	if i.ItemID == "" {
		i.ItemID = obj.Name
	}
	i.Qty = obj.Qty
	if i.Qty == 0 {
		i.Qty = obj.Quantity
	}
	return nil
}

// formulaJSON is the wire shape of a formula. Type accepts the long name or
// the glyph form. The id is ignored on import (digests are recomputed from
// the content); exports write the structural digest.
type formulaJSON struct {
	ID          json.RawMessage  `json:"id,omitempty"`
	Type        string           `json:"type"`
	Result      ingredientJSON   `json:"result"`
	Ingredients []ingredientJSON `json:"ingredients"`
	Process     string           `json:"process,omitempty"`
	Time        float64          `json:"time,omitempty"`
}

// itemJSON is the wire shape of an item. Dumps key the class as "cls"; the
// long "class" key is accepted too. Items may embed their formulas.
type itemJSON struct {
	ID             string        `json:"id"`
	Name           string        `json:"name,omitempty"`
	Symbol         string        `json:"symbol,omitempty"`
	Value          float64       `json:"value,omitempty"`
	Rarity         string        `json:"rarity,omitempty"`
	Cls            string        `json:"cls,omitempty"`
	Class          string        `json:"class,omitempty"`
	SourceFormulas []formulaJSON `json:"source_formulas,omitempty"`
	Formulas       []formulaJSON `json:"formulas,omitempty"`
}

// document is the canonical wrapper shape.
type document struct {
	ExportedAt string        `json:"exported_at,omitempty"`
	Items      []itemJSON    `json:"items"`
	Formulas   []formulaJSON `json:"formulas,omitempty"`
}

// parseDocument accepts the wrapper object, a bare item array, or an object
// keyed by item id.
func parseDocument(data []byte) (*document, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '[' {
		var items []itemJSON
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parsing item array: %w", err)
		}
		return &document{Items: items}, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	_, hasItems := keys["items"]
	_, hasFormulas := keys["formulas"]
	if hasItems || hasFormulas {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing document: %w", err)
		}
		return &doc, nil
	}

	// Object keyed by item id.
	byID := make(map[string]itemJSON, len(keys))
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, fmt.Errorf("parsing item map: %w", err)
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	doc := &document{Items: make([]itemJSON, 0, len(ids))}
	for _, id := range ids {
		it := byID[id]
		if it.ID == "" {
			it.ID = id
		}
		doc.Items = append(doc.Items, it)
	}
	return doc, nil
}

// transformItem converts the wire item to the model. The class may arrive
// under either key.
func transformItem(imp itemJSON) *craft.Item {
	cls := imp.Cls
	if cls == "" {
		cls = imp.Class
	}
	return &craft.Item{
		ID:     imp.ID,
		Name:   imp.Name,
		Symbol: imp.Symbol,
		Value:  imp.Value,
		Rarity: craft.ParseRarity(imp.Rarity),
		Class:  craft.ParseClass(cls),
	}
}

// transformFormula rebuilds the model formula. The digest id comes from the
// constructor, never from the file. A missing result quantity defaults to
// one; ingredients with no item id are dropped.
func transformFormula(imp formulaJSON) (*craft.Formula, error) {
	typ, err := craft.ParseFormulaType(imp.Type)
	if err != nil {
		return nil, err
	}

	result := craft.Ingredient(imp.Result)
	if result.Qty == 0 {
		result.Qty = 1
	}

	ings := make([]craft.Ingredient, 0, len(imp.Ingredients))
	for _, ing := range imp.Ingredients {
		if ing.ItemID == "" {
			continue
		}
		ings = append(ings, craft.Ingredient(ing))
	}

	return craft.NewFormula(typ, result, ings, imp.Process, imp.Time)
}

// ImportFromFile imports a catalog dump from a JSON file.
func (s *Syncer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return s.Import(ctx, data)
}

// Import parses a catalog dump and writes it to the database. Formulas may
// be embedded in the items, listed at the top level, or both; duplicates
// collapse onto one row through the structural digest.
func (s *Syncer) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	items := make([]*craft.Item, 0, len(doc.Items))
	var formulas []*craft.Formula
	seen := make(map[string]bool)

	collect := func(imp formulaJSON) error {
		f, err := transformFormula(imp)
		if err != nil {
			return err
		}
		if seen[f.ID] {
			return nil
		}
		seen[f.ID] = true
		formulas = append(formulas, f)
		return nil
	}

	for _, imp := range doc.Items {
		if imp.ID == "" {
			return nil, fmt.Errorf("item with no id")
		}
		items = append(items, transformItem(imp))
		for _, fi := range imp.SourceFormulas {
			if err := collect(fi); err != nil {
				return nil, fmt.Errorf("item %s: %w", imp.ID, err)
			}
		}
		for _, fi := range imp.Formulas {
			if err := collect(fi); err != nil {
				return nil, fmt.Errorf("item %s: %w", imp.ID, err)
			}
		}
	}
	for _, fi := range doc.Formulas {
		if err := collect(fi); err != nil {
			return nil, err
		}
	}

	if err := db.NewItemStore(s.db).BulkInsertItems(ctx, items); err != nil {
		return nil, fmt.Errorf("inserting items: %w", err)
	}
	if err := db.NewFormulaStore(s.db).BulkInsertFormulas(ctx, formulas); err != nil {
		return nil, fmt.Errorf("inserting formulas: %w", err)
	}

	// Update sync metadata
	now := time.Now().Format(time.RFC3339)
	if err := s.db.SetSyncMetadata(ctx, "items_last_sync", now); err != nil {
		return nil, err
	}
	if err := s.db.SetSyncMetadata(ctx, "items_count", fmt.Sprintf("%d", len(items))); err != nil {
		return nil, err
	}
	if err := s.db.SetSyncMetadata(ctx, "formulas_last_sync", now); err != nil {
		return nil, err
	}
	if err := s.db.SetSyncMetadata(ctx, "formulas_count", fmt.Sprintf("%d", len(formulas))); err != nil {
		return nil, err
	}

	return &ImportResult{Items: len(items), Formulas: len(formulas)}, nil
}

// Export renders the catalog as the canonical wrapper document. Items are
// written bare; every formula appears once in the top-level array.
func (s *Syncer) Export(ctx context.Context) ([]byte, error) {
	items, err := db.NewItemStore(s.db).GetAllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	formulas, err := db.NewFormulaStore(s.db).GetAllFormulas(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading formulas: %w", err)
	}

	doc := document{
		ExportedAt: time.Now().Format(time.RFC3339),
		Items:      make([]itemJSON, 0, len(items)),
		Formulas:   make([]formulaJSON, 0, len(formulas)),
	}
	for _, it := range items {
		doc.Items = append(doc.Items, itemJSON{
			ID:     it.ID,
			Name:   it.Name,
			Symbol: it.Symbol,
			Value:  it.Value,
			Rarity: it.Rarity.String(),
			Cls:    string(it.Class),
		})
	}
	for _, f := range formulas {
		doc.Formulas = append(doc.Formulas, exportFormula(f))
	}

	return json.MarshalIndent(doc, "", "  ")
}

// ExportToFile writes the canonical document to path.
func (s *Syncer) ExportToFile(ctx context.Context, path string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func exportFormula(f *craft.Formula) formulaJSON {
	id, _ := json.Marshal(f.ID)
	out := formulaJSON{
		ID:      id,
		Type:    f.Type.Glyph(),
		Result:  ingredientJSON(f.Result),
		Process: f.Process,
		Time:    f.TimeSecs,
	}
	for _, ing := range f.Ingredients.Items() {
		out.Ingredients = append(out.Ingredients, ingredientJSON(ing))
	}
	return out
}

// ClearAll removes all catalog data from the database.
func (s *Syncer) ClearAll(ctx context.Context) error {
	if err := db.NewFormulaStore(s.db).ClearFormulas(ctx); err != nil {
		return err
	}
	if err := db.NewItemStore(s.db).ClearItems(ctx); err != nil {
		return err
	}
	return nil
}
