package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/atlasforge/craftchain/pkg/craft"
)

// DefaultCacheSize bounds the item cache when no size is configured.
const DefaultCacheSize = 512

// itemFetchers caps the concurrent item loads in a batched fetch.
const itemFetchers = 8

// Catalog serves model objects from the stores. Items come back with their
// producing and consuming formulas attached and are cached in an LRU.
// Formulas are canonicalized through an arena keyed by structural digest, so
// two loads of the same formula yield the same pointer and graph traversals
// can use pointer identity.
type Catalog struct {
	items    *ItemStore
	formulas *FormulaStore
	stats    *StatsStore
	logger   *slog.Logger

	cache *lru.Cache[string, *craft.Item]

	mu    sync.Mutex
	arena map[string]*craft.Formula
}

// NewCatalog builds a catalog over the database. A non-positive cacheSize
// falls back to DefaultCacheSize.
func NewCatalog(database *DB, cacheSize int, logger *slog.Logger) (*Catalog, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *craft.Item](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating item cache: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		items:    NewItemStore(database),
		formulas: NewFormulaStore(database),
		stats:    NewStatsStore(database),
		logger:   logger,
		cache:    cache,
		arena:    make(map[string]*craft.Formula),
	}, nil
}

// canonical returns the arena pointer for the formula, registering it on
// first sight.
func (c *Catalog) canonical(f *craft.Formula) *craft.Formula {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.arena[f.ID]; ok {
		return cur
	}
	c.arena[f.ID] = f
	return f
}

func (c *Catalog) canonicalAll(formulas []*craft.Formula) []*craft.Formula {
	out := make([]*craft.Formula, len(formulas))
	for i, f := range formulas {
		out[i] = c.canonical(f)
	}
	return out
}

// Item loads one item with its formulas attached. Returns nil when the item
// is not in the catalog.
func (c *Catalog) Item(ctx context.Context, id string) (*craft.Item, error) {
	if it, ok := c.cache.Get(id); ok {
		return it, nil
	}

	it, err := c.items.GetItem(ctx, id)
	if err != nil || it == nil {
		return nil, err
	}

	producing, err := c.formulas.FindFormulasByResult(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading formulas for %s: %w", id, err)
	}
	it.SourceFormulas = c.canonicalAll(producing)

	using, err := c.formulas.FindFormulasUsing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading uses for %s: %w", id, err)
	}
	it.Formulas = c.canonicalAll(using)

	c.cache.Add(id, it)
	return it, nil
}

// Items loads a batch of items concurrently, preserving the order of ids.
// Unknown ids are dropped from the result.
func (c *Catalog) Items(ctx context.Context, ids []string) ([]*craft.Item, error) {
	loaded := make([]*craft.Item, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(itemFetchers)
	for i, id := range ids {
		g.Go(func() error {
			it, err := c.Item(gctx, id)
			if err != nil {
				return err
			}
			loaded[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]*craft.Item, 0, len(ids))
	for i, it := range loaded {
		if it == nil {
			c.logger.DebugContext(ctx, "item not in catalog", "id", ids[i])
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// Formula loads one formula by digest. Returns nil when absent.
func (c *Catalog) Formula(ctx context.Context, id string) (*craft.Formula, error) {
	c.mu.Lock()
	if f, ok := c.arena[id]; ok {
		c.mu.Unlock()
		return f, nil
	}
	c.mu.Unlock()

	f, err := c.formulas.GetFormula(ctx, id)
	if err != nil || f == nil {
		return nil, err
	}
	return c.canonical(f), nil
}

// FormulasProducing returns the formulas whose result is itemID.
func (c *Catalog) FormulasProducing(ctx context.Context, itemID string) ([]*craft.Formula, error) {
	if it, ok := c.cache.Get(itemID); ok {
		return it.SourceFormulas, nil
	}
	formulas, err := c.formulas.FindFormulasByResult(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return c.canonicalAll(formulas), nil
}

// FormulasUsing returns the formulas consuming itemID as an ingredient.
func (c *Catalog) FormulasUsing(ctx context.Context, itemID string) ([]*craft.Formula, error) {
	if it, ok := c.cache.Get(itemID); ok {
		return it.Formulas, nil
	}
	formulas, err := c.formulas.FindFormulasUsing(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return c.canonicalAll(formulas), nil
}

// ItemIDs returns every item id in the catalog.
func (c *Catalog) ItemIDs(ctx context.Context) ([]string, error) {
	return c.items.GetAllItemIDs(ctx)
}

// ResultItemIDs returns the ids of items producible by at least one formula.
func (c *Catalog) ResultItemIDs(ctx context.Context) ([]string, error) {
	return c.formulas.GetResultItemIDs(ctx)
}

// ItemValues returns base values keyed by item id.
func (c *Catalog) ItemValues(ctx context.Context) (map[string]float64, error) {
	return c.items.GetItemValues(ctx)
}

// BatchCaps returns refiner output capacities keyed by item id.
func (c *Catalog) BatchCaps(ctx context.Context) (map[string]int, error) {
	return c.items.GetBatchCaps(ctx)
}

// SearchItems finds items matching the term.
func (c *Catalog) SearchItems(ctx context.Context, term string, limit int) ([]*craft.Item, error) {
	return c.items.SearchItems(ctx, term, limit)
}

// Stats aggregates catalog statistics.
func (c *Catalog) Stats(ctx context.Context, topUsed int) (*CatalogStats, error) {
	return c.stats.GetCatalogStats(ctx, topUsed)
}

// Reset drops the item cache and the formula arena. Called after an import
// rewrites the underlying tables.
func (c *Catalog) Reset() {
	c.cache.Purge()
	c.mu.Lock()
	c.arena = make(map[string]*craft.Formula)
	c.mu.Unlock()
}
