// Package graph implements an iterative colored walk over directed graphs
// whose structure is supplied by the visitor itself. Nodes are any
// comparable type; the walker never materializes the graph, it only asks
// the visitor for adjacent nodes as it goes.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Color is the visitation state of a node.
type Color int

const (
	// White nodes are discovered but not yet examined.
	White Color = iota
	// Gray nodes are examined with unfinished descendants. On a DFS the
	// gray nodes are exactly the current traversal path.
	Gray
	// Black nodes are finished.
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Gray:
		return "gray"
	case Black:
		return "black"
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// Order selects the traversal discipline.
type Order int

const (
	// DFS explores depth-first. Finish callbacks fire in true post-order:
	// a node finishes only after every descendant has finished.
	DFS Order = iota
	// BFS explores breadth-first. Finish order is only non-decreasing by
	// distance from the start set, not a post-order.
	BFS
)

func (o Order) String() string {
	if o == BFS {
		return "BFS"
	}
	return "DFS"
}

// ParseOrder maps a name to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "DFS":
		return DFS, nil
	case "BFS":
		return BFS, nil
	}
	return DFS, fmt.Errorf("unknown walk order %q", s)
}

// Direction tells the visitor which way to expand a node.
type Direction int

const (
	// ToSources walks toward the inputs a node is produced from.
	ToSources Direction = iota
	// ToTargets walks toward the outputs a node is consumed by.
	ToTargets
)

func (d Direction) String() string {
	if d == ToTargets {
		return "to-targets"
	}
	return "to-sources"
}

// Visitor receives traversal events. Adjacent supplies the graph structure;
// the remaining callbacks observe it. Any error aborts the walk.
type Visitor[N comparable] interface {
	// Adjacent returns the neighbors of node in the given direction.
	Adjacent(ctx context.Context, node N, dir Direction) ([]N, error)
	// Discover fires once per node, when it is first seen. The
	// discovering edge fires no edge callback.
	Discover(ctx context.Context, node N, depth int) error
	// Examine fires when the node is popped from the frontier.
	Examine(ctx context.Context, node N) error
	// Finish fires when the node turns black.
	Finish(ctx context.Context, node N) error
	// TreeEdge fires for a repeat edge to a white node: discovered on
	// another path but not yet examined.
	TreeEdge(ctx context.Context, from, to N) error
	// BackEdge fires for an edge leading to a gray node. On a DFS these
	// are exactly the cycle-closing edges.
	BackEdge(ctx context.Context, from, to N) error
	// ForwardOrCrossEdge fires for an edge leading to a black node.
	ForwardOrCrossEdge(ctx context.Context, from, to N) error
}

// NopVisitor implements every Visitor callback as a no-op. Embed it and
// override the events you care about.
type NopVisitor[N comparable] struct{}

func (NopVisitor[N]) Adjacent(context.Context, N, Direction) ([]N, error) { return nil, nil }
func (NopVisitor[N]) Discover(context.Context, N, int) error              { return nil }
func (NopVisitor[N]) Examine(context.Context, N) error                    { return nil }
func (NopVisitor[N]) Finish(context.Context, N) error                     { return nil }
func (NopVisitor[N]) TreeEdge(context.Context, N, N) error                { return nil }
func (NopVisitor[N]) BackEdge(context.Context, N, N) error                { return nil }
func (NopVisitor[N]) ForwardOrCrossEdge(context.Context, N, N) error      { return nil }

// Option configures a walk.
type Option func(*options)

type options struct {
	order    Order
	dir      Direction
	logger   *slog.Logger
	maxDepth int
}

// WithOrder selects DFS or BFS. The default is DFS.
func WithOrder(o Order) Option {
	return func(opts *options) { opts.order = o }
}

// WithDirection selects the expansion direction passed to Adjacent. The
// default is ToSources.
func WithDirection(d Direction) Option {
	return func(opts *options) { opts.dir = d }
}

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		if l != nil {
			opts.logger = l
		}
	}
}

// WithMaxDepth stops expanding nodes at the given depth; they are still
// examined and finished. Zero or negative means unlimited.
func WithMaxDepth(depth int) Option {
	return func(opts *options) { opts.maxDepth = depth }
}

// entry is one frontier slot. finish entries mark the point at which the
// node turns black.
type entry[N comparable] struct {
	node   N
	depth  int
	finish bool
}

// Walk traverses from the start nodes, invoking the visitor's callbacks.
// Each node is discovered and examined at most once; repeat sightings at
// the frontier are logged at debug level and dropped. The walk stops on
// the first callback error or when ctx is done.
func Walk[N comparable](ctx context.Context, starts []N, v Visitor[N], opts ...Option) error {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	colors := make(map[N]Color)
	frontier := make([]entry[N], 0, len(starts)*2)

	push := func(e entry[N]) {
		frontier = append(frontier, e)
	}
	pop := func() entry[N] {
		if o.order == BFS {
			e := frontier[0]
			frontier = frontier[1:]
			return e
		}
		e := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		return e
	}

	for _, start := range starts {
		if _, seen := colors[start]; seen {
			o.logger.DebugContext(ctx, "skipping duplicate start node", "color", colors[start])
			continue
		}
		colors[start] = White
		if err := v.Discover(ctx, start, 0); err != nil {
			return fmt.Errorf("discovering start: %w", err)
		}
		push(entry[N]{node: start})
	}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := pop()

		if e.finish {
			colors[e.node] = Black
			if err := v.Finish(ctx, e.node); err != nil {
				return fmt.Errorf("finishing node: %w", err)
			}
			continue
		}

		if colors[e.node] != White {
			o.logger.DebugContext(ctx, "skipping revisited node", "color", colors[e.node], "depth", e.depth)
			continue
		}
		colors[e.node] = Gray
		if err := v.Examine(ctx, e.node); err != nil {
			return fmt.Errorf("examining node: %w", err)
		}

		// DFS pushes the finish marker under the children so it pops only
		// after every descendant is done. BFS appends it behind them, which
		// is as strong as a queue can promise.
		if o.order == DFS {
			push(entry[N]{node: e.node, depth: e.depth, finish: true})
		}

		if o.maxDepth <= 0 || e.depth < o.maxDepth {
			adjacent, err := v.Adjacent(ctx, e.node, o.dir)
			if err != nil {
				return fmt.Errorf("expanding node: %w", err)
			}
			for _, next := range adjacent {
				color, seen := colors[next]
				if !seen {
					colors[next] = White
					if err := v.Discover(ctx, next, e.depth+1); err != nil {
						return fmt.Errorf("discovering node: %w", err)
					}
					push(entry[N]{node: next, depth: e.depth + 1})
					continue
				}
				switch color {
				case White:
					if err := v.TreeEdge(ctx, e.node, next); err != nil {
						return fmt.Errorf("tree edge: %w", err)
					}
				case Gray:
					if err := v.BackEdge(ctx, e.node, next); err != nil {
						return fmt.Errorf("back edge: %w", err)
					}
				case Black:
					if err := v.ForwardOrCrossEdge(ctx, e.node, next); err != nil {
						return fmt.Errorf("forward or cross edge: %w", err)
					}
				}
			}
		}

		if o.order == BFS {
			push(entry[N]{node: e.node, depth: e.depth, finish: true})
		}
	}
	return nil
}
