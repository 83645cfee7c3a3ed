// Package engine contains the formula analysis business logic: bill of
// materials synthesis, production cycle detection, item lookups and their
// valuations.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/atlasforge/craftchain/internal/craft/db"
	"github.com/atlasforge/craftchain/pkg/craft"
)

// Catalog is the data access surface the engine runs against. *db.Catalog
// implements it; tests substitute an in-memory fake.
type Catalog interface {
	Item(ctx context.Context, id string) (*craft.Item, error)
	Items(ctx context.Context, ids []string) ([]*craft.Item, error)
	SearchItems(ctx context.Context, term string, limit int) ([]*craft.Item, error)
	ResultItemIDs(ctx context.Context) ([]string, error)
	ItemValues(ctx context.Context) (map[string]float64, error)
	BatchCaps(ctx context.Context) (map[string]int, error)
	Stats(ctx context.Context, topUsed int) (*db.CatalogStats, error)
}

// Options carries the engine's tuning knobs. The zero value is usable;
// every field falls back to its default.
type Options struct {
	// CraftTime is the serial time to craft one unit.
	CraftTime time.Duration
	// CycleLimits bound the refinery pools when estimating a production
	// cycle: one medium and one big station unless configured otherwise.
	CycleLimits craft.RefineryLimits
	// MaxDepth caps walk depth when a request does not set its own.
	// Zero means unlimited.
	MaxDepth int
	// SearchLimit caps lookup search results.
	SearchLimit int
}

func (o Options) withDefaults() Options {
	if o.CraftTime <= 0 {
		o.CraftTime = 500 * time.Millisecond
	}
	if o.CycleLimits == nil {
		o.CycleLimits = craft.RefineryLimits{craft.SizeMedium: 1, craft.SizeBig: 1}
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = 10
	}
	return o
}

// Engine is the query engine over the formula catalog.
type Engine struct {
	catalog Catalog
	opts    Options
	logger  *slog.Logger
}

// New creates an Engine over the catalog.
func New(catalog Catalog, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog: catalog,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// Stats returns aggregate catalog statistics.
func (e *Engine) Stats(ctx context.Context, topUsed int) (*db.CatalogStats, error) {
	return e.catalog.Stats(ctx, topUsed)
}

// estimateConfig resolves per-item batch caps once and pairs them with the
// engine's timing knobs.
func (e *Engine) estimateConfig(ctx context.Context) (craft.EstimateConfig, error) {
	caps, err := e.catalog.BatchCaps(ctx)
	if err != nil {
		return craft.EstimateConfig{}, err
	}
	return craft.EstimateConfig{
		CraftTime: e.opts.CraftTime,
		BatchCaps: caps,
		Limits:    e.opts.CycleLimits,
	}, nil
}
