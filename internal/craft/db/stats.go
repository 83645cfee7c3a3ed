package db

import (
	"context"
	"fmt"

	"github.com/atlasforge/craftchain/pkg/craft"
)

// CatalogStats summarizes the stored catalog.
type CatalogStats struct {
	Items           int                       `json:"items"`
	Formulas        int                       `json:"formulas"`
	IngredientEdges int                       `json:"ingredient_edges"`
	ByType          map[craft.FormulaType]int `json:"-"`
	ByClass         map[craft.Class]int       `json:"-"`
	ByRarity        map[craft.Rarity]int      `json:"-"`
	AvgIngredients  float64                   `json:"avg_ingredients"`
	Replenishing    int                       `json:"replenishing"`
	MostUsed        []ItemUsage               `json:"most_used,omitempty"`
}

// ItemUsage counts how many formulas consume an item.
type ItemUsage struct {
	ItemID string `json:"id"`
	Uses   int    `json:"uses"`
}

// StatsStore computes aggregate statistics over the catalog tables.
type StatsStore struct {
	db *DB
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(db *DB) *StatsStore {
	return &StatsStore{db: db}
}

// GetCatalogStats aggregates the catalog in a handful of queries.
func (s *StatsStore) GetCatalogStats(ctx context.Context, topUsed int) (*CatalogStats, error) {
	stats := &CatalogStats{
		ByType:   make(map[craft.FormulaType]int),
		ByClass:  make(map[craft.Class]int),
		ByRarity: make(map[craft.Rarity]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM items),
			(SELECT COUNT(*) FROM formulas),
			(SELECT COUNT(*) FROM formula_ingredients),
			(SELECT COALESCE(AVG(n), 0) FROM (
				SELECT COUNT(*) AS n FROM formula_ingredients GROUP BY formula_id
			)),
			(SELECT COUNT(*) FROM formulas f
				JOIN formula_ingredients fi ON fi.formula_id = f.id
				AND fi.item_id = f.result_item_id)
	`).Scan(&stats.Items, &stats.Formulas, &stats.IngredientEdges, &stats.AvgIngredients, &stats.Replenishing)
	if err != nil {
		return nil, fmt.Errorf("querying catalog totals: %w", err)
	}

	if err := s.groupCounts(ctx, `SELECT type, COUNT(*) FROM formulas GROUP BY type`, func(key string, n int) error {
		typ, err := craft.ParseFormulaType(key)
		if err != nil {
			return err
		}
		stats.ByType[typ] = n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("grouping formulas by type: %w", err)
	}

	if err := s.groupCounts(ctx, `SELECT class, COUNT(*) FROM items GROUP BY class`, func(key string, n int) error {
		stats.ByClass[craft.ParseClass(key)] += n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("grouping items by class: %w", err)
	}

	if err := s.groupCounts(ctx, `SELECT rarity, COUNT(*) FROM items GROUP BY rarity`, func(key string, n int) error {
		stats.ByRarity[craft.ParseRarity(key)] += n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("grouping items by rarity: %w", err)
	}

	if topUsed > 0 {
		used, err := s.mostUsedItems(ctx, topUsed)
		if err != nil {
			return nil, err
		}
		stats.MostUsed = used
	}

	return stats, nil
}

// groupCounts runs a two-column (key, count) aggregate query.
func (s *StatsStore) groupCounts(ctx context.Context, query string, accept func(key string, n int) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		if err := accept(key, n); err != nil {
			return err
		}
	}
	return rows.Err()
}

// mostUsedItems ranks items by how many distinct formulas consume them.
func (s *StatsStore) mostUsedItems(ctx context.Context, limit int) ([]ItemUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, COUNT(DISTINCT formula_id) AS uses
		FROM formula_ingredients
		GROUP BY item_id
		ORDER BY uses DESC, item_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking item usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var used []ItemUsage
	for rows.Next() {
		var u ItemUsage
		if err := rows.Scan(&u.ItemID, &u.Uses); err != nil {
			return nil, fmt.Errorf("scanning item usage: %w", err)
		}
		used = append(used, u)
	}

	return used, rows.Err()
}
