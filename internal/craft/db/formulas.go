package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/atlasforge/craftchain/pkg/craft"
)

// FormulaStore handles formula data access.
type FormulaStore struct {
	db *DB
}

// NewFormulaStore creates a new FormulaStore.
func NewFormulaStore(db *DB) *FormulaStore {
	return &FormulaStore{db: db}
}

// formulaRow is the flat shape read back from the formulas table before the
// ingredient edges are attached.
type formulaRow struct {
	id       string
	typ      string
	result   craft.Ingredient
	process  string
	timeSecs float64
}

// build reconstructs the model formula; the structural digest is recomputed
// so hand-edited rows cannot smuggle in a stale identity.
func (s *FormulaStore) build(ctx context.Context, row formulaRow) (*craft.Formula, error) {
	ings, err := s.getIngredients(ctx, row.id)
	if err != nil {
		return nil, err
	}
	typ, err := craft.ParseFormulaType(row.typ)
	if err != nil {
		return nil, fmt.Errorf("formula %s: %w", row.id, err)
	}
	f, err := craft.NewFormula(typ, row.result, ings, row.process, row.timeSecs)
	if err != nil {
		return nil, fmt.Errorf("rebuilding formula %s: %w", row.id, err)
	}
	return f, nil
}

// getIngredients retrieves the ingredient edges for a formula.
func (s *FormulaStore) getIngredients(ctx context.Context, formulaID string) ([]craft.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, qty
		FROM formula_ingredients
		WHERE formula_id = ?
		ORDER BY item_id
	`, formulaID)
	if err != nil {
		return nil, fmt.Errorf("querying formula ingredients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ings []craft.Ingredient
	for rows.Next() {
		var ing craft.Ingredient
		if err := rows.Scan(&ing.ItemID, &ing.Qty); err != nil {
			return nil, fmt.Errorf("scanning ingredient: %w", err)
		}
		ings = append(ings, ing)
	}

	return ings, rows.Err()
}

// GetFormula retrieves a single formula by ID. Returns nil when the formula
// does not exist.
func (s *FormulaStore) GetFormula(ctx context.Context, id string) (*craft.Formula, error) {
	var row formulaRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, result_item_id, result_qty, process, time_sec
		FROM formulas WHERE id = ?
	`, id).Scan(&row.id, &row.typ, &row.result.ItemID, &row.result.Qty, &row.process, &row.timeSecs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying formula: %w", err)
	}

	return s.build(ctx, row)
}

func (s *FormulaStore) queryFormulas(ctx context.Context, query string, args ...any) ([]*craft.Formula, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying formulas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var flat []formulaRow
	for rows.Next() {
		var row formulaRow
		if err := rows.Scan(&row.id, &row.typ, &row.result.ItemID, &row.result.Qty, &row.process, &row.timeSecs); err != nil {
			return nil, fmt.Errorf("scanning formula: %w", err)
		}
		flat = append(flat, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	formulas := make([]*craft.Formula, 0, len(flat))
	for _, row := range flat {
		f, err := s.build(ctx, row)
		if err != nil {
			return nil, err
		}
		formulas = append(formulas, f)
	}

	return formulas, nil
}

// FindFormulasByResult retrieves the formulas that produce a given item.
func (s *FormulaStore) FindFormulasByResult(ctx context.Context, itemID string) ([]*craft.Formula, error) {
	return s.queryFormulas(ctx, `
		SELECT id, type, result_item_id, result_qty, process, time_sec
		FROM formulas
		WHERE result_item_id = ?
		ORDER BY id
	`, itemID)
}

// FindFormulasUsing retrieves the formulas that consume a given item as an
// ingredient.
func (s *FormulaStore) FindFormulasUsing(ctx context.Context, itemID string) ([]*craft.Formula, error) {
	return s.queryFormulas(ctx, `
		SELECT f.id, f.type, f.result_item_id, f.result_qty, f.process, f.time_sec
		FROM formulas f
		JOIN formula_ingredients fi ON fi.formula_id = f.id
		WHERE fi.item_id = ?
		ORDER BY f.id
	`, itemID)
}

// GetAllFormulas retrieves every formula with its ingredients.
func (s *FormulaStore) GetAllFormulas(ctx context.Context) ([]*craft.Formula, error) {
	return s.queryFormulas(ctx, `
		SELECT id, type, result_item_id, result_qty, process, time_sec
		FROM formulas
		ORDER BY id
	`)
}

// GetResultItemIDs returns the distinct item IDs that at least one formula
// produces.
func (s *FormulaStore) GetResultItemIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT result_item_id FROM formulas ORDER BY result_item_id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing result items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning item id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CountFormulas returns the total number of formulas.
func (s *FormulaStore) CountFormulas(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM formulas`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting formulas: %w", err)
	}
	return count, nil
}

// SearchFormulas finds formulas whose result, process or any ingredient
// matches the term (case-insensitive partial match).
func (s *FormulaStore) SearchFormulas(ctx context.Context, term string, limit int) ([]*craft.Formula, error) {
	pattern := "%" + strings.TrimSpace(term) + "%"
	return s.queryFormulas(ctx, `
		SELECT DISTINCT f.id, f.type, f.result_item_id, f.result_qty, f.process, f.time_sec
		FROM formulas f
		LEFT JOIN formula_ingredients fi ON fi.formula_id = f.id
		WHERE f.result_item_id LIKE ? OR f.process LIKE ? OR fi.item_id LIKE ?
		ORDER BY f.id
		LIMIT ?
	`, pattern, pattern, pattern, limit)
}

// BulkInsertFormulas inserts multiple formulas in a transaction.
func (s *FormulaStore) BulkInsertFormulas(ctx context.Context, formulas []*craft.Formula) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		formulaStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO formulas
			(id, type, result_item_id, result_qty, process, time_sec)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing formula statement: %w", err)
		}
		defer func() { _ = formulaStmt.Close() }()

		ingStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO formula_ingredients (formula_id, item_id, qty)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing ingredient statement: %w", err)
		}
		defer func() { _ = ingStmt.Close() }()

		for _, f := range formulas {
			_, err := formulaStmt.ExecContext(ctx,
				f.ID, f.Type.String(), f.Result.ItemID, f.Result.Qty,
				f.Process, f.TimeSecs,
			)
			if err != nil {
				return fmt.Errorf("inserting formula %s: %w", f.ID, err)
			}

			for _, ing := range f.Ingredients.Items() {
				_, err := ingStmt.ExecContext(ctx, f.ID, ing.ItemID, ing.Qty)
				if err != nil {
					return fmt.Errorf("inserting ingredient for %s: %w", f.ID, err)
				}
			}
		}

		return nil
	})
}

// ClearFormulas removes all formula data (for re-import).
func (s *FormulaStore) ClearFormulas(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Foreign keys cascade delete the ingredient edges
		_, err := tx.ExecContext(ctx, `DELETE FROM formulas`)
		return err
	})
}
