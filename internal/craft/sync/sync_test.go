package sync

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasforge/craftchain/internal/craft/db"
	"github.com/atlasforge/craftchain/pkg/craft"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	database, err := db.OpenAndInit(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// wrapperDoc is the canonical dump shape. The numeric formula id mimics the
// upstream dumps and must be ignored.
const wrapperDoc = `{
	"items": [
		{"id": "carbon", "name": "Carbon", "symbol": "C", "value": 12, "rarity": "common", "cls": "resource"},
		{"id": "condensed_carbon", "name": "Condensed Carbon", "value": 24, "rarity": "uncommon", "cls": "resource"}
	],
	"formulas": [
		{"id": 6011003, "type": "{R}", "result": ["condensed_carbon", 1], "ingredients": [["carbon", 2]], "process": "refiner", "time": 30}
	]
}`

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("wrapper document", func(t *testing.T) {
		database := testDB(t)
		syncer := NewSyncer(database)

		res, err := syncer.Import(ctx, []byte(wrapperDoc))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Items)
		assert.Equal(t, 1, res.Formulas)

		it, err := db.NewItemStore(database).GetItem(ctx, "carbon")
		require.NoError(t, err)
		require.NotNil(t, it)
		assert.Equal(t, "Carbon", it.Name)
		assert.Equal(t, "C", it.Symbol)
		assert.InDelta(t, 12, it.Value, 1e-9)
		assert.Equal(t, craft.RarityCommon, it.Rarity)
		assert.Equal(t, craft.ClassResource, it.Class)

		formulas, err := db.NewFormulaStore(database).FindFormulasByResult(ctx, "condensed_carbon")
		require.NoError(t, err)
		require.Len(t, formulas, 1)
		f := formulas[0]
		assert.Equal(t, craft.FormulaRefining, f.Type)
		assert.Equal(t, craft.Ingredient{ItemID: "condensed_carbon", Qty: 1}, f.Result)
		assert.Equal(t, []craft.Ingredient{{ItemID: "carbon", Qty: 2}}, f.Ingredients.Items())
		assert.Equal(t, "refiner", f.Process)
		assert.InDelta(t, 30, f.TimeSecs, 1e-9)

		count, err := database.GetSyncMetadata(ctx, "items_count")
		require.NoError(t, err)
		assert.Equal(t, "2", count)
		count, err = database.GetSyncMetadata(ctx, "formulas_count")
		require.NoError(t, err)
		assert.Equal(t, "1", count)
		stamp, err := database.GetSyncMetadata(ctx, "formulas_last_sync")
		require.NoError(t, err)
		_, err = time.Parse(time.RFC3339, stamp)
		assert.NoError(t, err)
	})

	t.Run("bare array with embedded formulas", func(t *testing.T) {
		database := testDB(t)
		syncer := NewSyncer(database)

		// Both items embed the same smelt formula, under different field
		// spellings; the structural digest collapses them to one row. The
		// first copy carries no result quantity.
		doc := `[
			{"id": "ore", "name": "Ore", "class": "resource", "value": 5,
			 "formulas": [{"type": "REFINING", "result": {"item": "bar"}, "ingredients": [{"item_id": "ore", "quantity": 3}], "process": "smelt", "time": 20}]},
			{"id": "bar", "name": "Bar", "cls": "product", "value": 40,
			 "source_formulas": [{"type": "refining", "result": {"name": "bar", "qty": 1}, "ingredients": [{"item": "ore", "qty": 3}], "process": "smelt", "time": 20}]}
		]`
		res, err := syncer.Import(ctx, []byte(doc))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Items)
		assert.Equal(t, 1, res.Formulas)

		it, err := db.NewItemStore(database).GetItem(ctx, "ore")
		require.NoError(t, err)
		require.NotNil(t, it)
		assert.Equal(t, craft.ClassResource, it.Class, "long class key accepted")

		formulas, err := db.NewFormulaStore(database).FindFormulasByResult(ctx, "bar")
		require.NoError(t, err)
		require.Len(t, formulas, 1)
		assert.Equal(t, craft.Ingredient{ItemID: "bar", Qty: 1}, formulas[0].Result, "missing result quantity defaults to one")
		assert.Equal(t, []craft.Ingredient{{ItemID: "ore", Qty: 3}}, formulas[0].Ingredients.Items())
	})

	t.Run("object keyed by item id", func(t *testing.T) {
		database := testDB(t)
		syncer := NewSyncer(database)

		doc := `{
			"oxygen": {"name": "Oxygen", "symbol": "O2", "value": 34, "cls": "resource"},
			"salt": {"id": "salt", "name": "Salt", "value": 20, "cls": "resource"}
		}`
		res, err := syncer.Import(ctx, []byte(doc))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Items)
		assert.Equal(t, 0, res.Formulas)

		it, err := db.NewItemStore(database).GetItem(ctx, "oxygen")
		require.NoError(t, err)
		require.NotNil(t, it, "id backfilled from the map key")
		assert.Equal(t, "Oxygen", it.Name)
	})

	t.Run("empty document", func(t *testing.T) {
		syncer := NewSyncer(testDB(t))
		_, err := syncer.Import(ctx, []byte("  \n"))
		assert.ErrorContains(t, err, "empty document")
	})

	t.Run("item without id", func(t *testing.T) {
		syncer := NewSyncer(testDB(t))
		_, err := syncer.Import(ctx, []byte(`[{"name": "NoID"}]`))
		assert.ErrorContains(t, err, "item with no id")
	})

	t.Run("unknown formula type", func(t *testing.T) {
		syncer := NewSyncer(testDB(t))
		doc := `{"formulas": [{"type": "brew", "result": ["x", 1], "ingredients": [["y", 1]]}]}`
		_, err := syncer.Import(ctx, []byte(doc))
		assert.ErrorContains(t, err, "unknown formula type")
	})
}

func TestImportFromFile(t *testing.T) {
	ctx := context.Background()
	database := testDB(t)
	syncer := NewSyncer(database)

	path := filepath.Join(t.TempDir(), "dump.json")
	require.NoError(t, os.WriteFile(path, []byte(wrapperDoc), 0o644))

	res, err := syncer.ImportFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, 1, res.Formulas)

	_, err = syncer.ImportFromFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading file")
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := testDB(t)
	syncer := NewSyncer(source)
	_, err := syncer.Import(ctx, []byte(wrapperDoc))
	require.NoError(t, err)

	data, err := syncer.Export(ctx)
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotEmpty(t, doc.ExportedAt)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "carbon", doc.Items[0].ID)
	assert.Equal(t, "Resource", doc.Items[0].Cls)
	assert.Equal(t, "Common", doc.Items[0].Rarity)
	require.Len(t, doc.Formulas, 1)
	assert.Equal(t, "{R}", doc.Formulas[0].Type)
	assert.Equal(t, craft.Ingredient{ItemID: "condensed_carbon", Qty: 1}, craft.Ingredient(doc.Formulas[0].Result))

	// The exported document imports cleanly into a fresh database and the
	// recomputed digests line up.
	target := testDB(t)
	res, err := NewSyncer(target).Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, 1, res.Formulas)

	orig, err := db.NewFormulaStore(source).FindFormulasByResult(ctx, "condensed_carbon")
	require.NoError(t, err)
	copied, err := db.NewFormulaStore(target).FindFormulasByResult(ctx, "condensed_carbon")
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, orig[0].ID, copied[0].ID)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	database := testDB(t)
	syncer := NewSyncer(database)
	_, err := syncer.Import(ctx, []byte(wrapperDoc))
	require.NoError(t, err)

	require.NoError(t, syncer.ClearAll(ctx))

	items, err := db.NewItemStore(database).CountItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, items)
	formulas, err := db.NewFormulaStore(database).CountFormulas(ctx)
	require.NoError(t, err)
	assert.Zero(t, formulas)
}
