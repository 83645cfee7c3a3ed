package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/atlasforge/craftchain/pkg/craft"
)

// ItemStore handles item data access.
type ItemStore struct {
	db *DB
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

func scanItem(row interface{ Scan(...any) error }) (*craft.Item, error) {
	var it craft.Item
	var rarity, class string
	if err := row.Scan(&it.ID, &it.Name, &it.Symbol, &it.Value, &rarity, &class); err != nil {
		return nil, err
	}
	it.Rarity = craft.ParseRarity(rarity)
	it.Class = craft.ParseClass(class)
	return &it, nil
}

// GetItem retrieves a single item by ID. Returns nil when the item does not
// exist.
func (s *ItemStore) GetItem(ctx context.Context, id string) (*craft.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, symbol, value, rarity, class
		FROM items WHERE id = ?
	`, id)

	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return it, nil
}

// GetItems retrieves the items for the given IDs, in ID order. Missing IDs
// are silently absent from the result.
func (s *ItemStore) GetItems(ctx context.Context, ids []string) ([]*craft.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, name, symbol, value, rarity, class
		FROM items
		WHERE id IN (%s)
		ORDER BY id
	`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*craft.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// SearchItems searches items by id, name or symbol (case-insensitive
// partial match).
func (s *ItemStore) SearchItems(ctx context.Context, term string, limit int) ([]*craft.Item, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, symbol, value, rarity, class
		FROM items
		WHERE id LIKE ? OR name LIKE ? OR symbol LIKE ?
		ORDER BY id
		LIMIT ?
	`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*craft.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// GetAllItems retrieves every item, in ID order.
func (s *ItemStore) GetAllItems(ctx context.Context) ([]*craft.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, symbol, value, rarity, class
		FROM items
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*craft.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// GetAllItemIDs returns all item IDs in the database.
func (s *ItemStore) GetAllItemIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing all items: %w", err)
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

// CountItems returns the total number of items.
func (s *ItemStore) CountItems(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// GetItemValues returns the base value of every item, keyed by item ID.
func (s *ItemStore) GetItemValues(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, value FROM items`)
	if err != nil {
		return nil, fmt.Errorf("querying item values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]float64)
	for rows.Next() {
		var id string
		var value float64
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("scanning item value: %w", err)
		}
		values[id] = value
	}

	return values, rows.Err()
}

// GetBatchCaps returns the refiner output capacity of every item, keyed by
// item ID. The capacity follows the item class.
func (s *ItemStore) GetBatchCaps(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, class FROM items`)
	if err != nil {
		return nil, fmt.Errorf("querying item classes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	caps := make(map[string]int)
	for rows.Next() {
		var id, class string
		if err := rows.Scan(&id, &class); err != nil {
			return nil, fmt.Errorf("scanning item class: %w", err)
		}
		caps[id] = craft.RefinerBatchCap(craft.ParseClass(class))
	}

	return caps, rows.Err()
}

// BulkInsertItems inserts multiple items in a transaction.
func (s *ItemStore) BulkInsertItems(ctx context.Context, items []*craft.Item) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO items (id, name, symbol, value, rarity, class)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing item statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, it := range items {
			_, err := stmt.ExecContext(ctx,
				it.ID, it.Name, it.Symbol, it.Value,
				it.Rarity.String(), string(it.Class),
			)
			if err != nil {
				return fmt.Errorf("inserting item %s: %w", it.ID, err)
			}
		}

		return nil
	})
}

// ClearItems removes all item data (for re-import).
func (s *ItemStore) ClearItems(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM items`)
		return err
	})
}
