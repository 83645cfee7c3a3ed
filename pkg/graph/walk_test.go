package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder drives the walk from a static adjacency map and records every
// callback as a flat event string.
type recorder struct {
	NopVisitor[string]
	adj    map[string][]string
	dirs   []Direction
	events []string
	failOn string
}

func (r *recorder) record(ev string) error {
	r.events = append(r.events, ev)
	if r.failOn != "" && ev == r.failOn {
		return errors.New("visitor refused")
	}
	return nil
}

func (r *recorder) Adjacent(_ context.Context, node string, dir Direction) ([]string, error) {
	r.dirs = append(r.dirs, dir)
	return r.adj[node], nil
}

func (r *recorder) Discover(_ context.Context, node string, depth int) error {
	return r.record(fmt.Sprintf("discover:%s:%d", node, depth))
}

func (r *recorder) Examine(_ context.Context, node string) error {
	return r.record("examine:" + node)
}

func (r *recorder) Finish(_ context.Context, node string) error {
	return r.record("finish:" + node)
}

func (r *recorder) TreeEdge(_ context.Context, from, to string) error {
	return r.record("tree:" + from + ">" + to)
}

func (r *recorder) BackEdge(_ context.Context, from, to string) error {
	return r.record("back:" + from + ">" + to)
}

func (r *recorder) ForwardOrCrossEdge(_ context.Context, from, to string) error {
	return r.record("cross:" + from + ">" + to)
}

func (r *recorder) only(prefix string) []string {
	var out []string
	for _, ev := range r.events {
		if len(ev) >= len(prefix) && ev[:len(prefix)] == prefix {
			out = append(out, ev)
		}
	}
	return out
}

func TestWalkDFSPostOrder(t *testing.T) {
	r := &recorder{adj: map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
	}}
	require.NoError(t, Walk(context.Background(), []string{"a"}, r))

	// Diamond: c is explored first (last pushed), claims d, and b sees d
	// already black.
	assert.Equal(t, []string{"finish:d", "finish:c", "finish:b", "finish:a"}, r.only("finish:"))
	assert.Equal(t, []string{"cross:b>d"}, r.only("cross:"))
	assert.Empty(t, r.only("back:"))

	// Every node passes through discover and examine exactly once.
	for _, node := range []string{"a", "b", "c", "d"} {
		assert.Len(t, r.only("examine:"+node), 1, node)
	}
	assert.Len(t, r.only("discover:"), 4)
}

func TestWalkDFSFinishAfterDescendants(t *testing.T) {
	r := &recorder{adj: map[string][]string{
		"root": {"mid"},
		"mid":  {"leaf1", "leaf2"},
	}}
	require.NoError(t, Walk(context.Background(), []string{"root"}, r))

	finishes := r.only("finish:")
	rootAt := slices.Index(finishes, "finish:root")
	require.NotEqual(t, -1, rootAt)
	for _, child := range []string{"mid", "leaf1", "leaf2"} {
		assert.Less(t, slices.Index(finishes, "finish:"+child), rootAt, child)
	}
}

func TestWalkTreeEdges(t *testing.T) {
	r := &recorder{adj: map[string][]string{
		"a": {"b", "c"},
		"c": {"b"},
	}}
	require.NoError(t, Walk(context.Background(), []string{"a"}, r))

	// Discovery itself fires no edge event. b is discovered by a and
	// still queued when c reaches it again, which is the tree edge.
	assert.Equal(t, []string{"tree:c>b"}, r.only("tree:"))
	assert.Empty(t, r.only("back:"))
	assert.Len(t, r.only("discover:"), 3)
}

func TestWalkBackEdges(t *testing.T) {
	t.Run("two node cycle closes with one back edge", func(t *testing.T) {
		r := &recorder{adj: map[string][]string{
			"a": {"b"},
			"b": {"a"},
		}}
		require.NoError(t, Walk(context.Background(), []string{"a"}, r))

		assert.Equal(t, []string{"back:b>a"}, r.only("back:"))
		assert.Empty(t, r.only("cross:"))

		// The back edge fires while the target is still gray: discovered,
		// not yet finished.
		backAt := slices.Index(r.events, "back:b>a")
		assert.Less(t, slices.Index(r.events, "discover:a:0"), backAt)
		assert.Greater(t, slices.Index(r.events, "finish:a"), backAt)
	})

	t.Run("self loop is a back edge", func(t *testing.T) {
		r := &recorder{adj: map[string][]string{"x": {"x"}}}
		require.NoError(t, Walk(context.Background(), []string{"x"}, r))
		assert.Equal(t, []string{"back:x>x"}, r.only("back:"))
	})
}

func TestWalkBFS(t *testing.T) {
	r := &recorder{adj: map[string][]string{
		"a": {"b"},
		"b": {"c"},
	}}
	require.NoError(t, Walk(context.Background(), []string{"a"}, r, WithOrder(BFS)))

	assert.Equal(t, []string{"examine:a", "examine:b", "examine:c"}, r.only("examine:"))
	// BFS finishes shallow nodes first; unlike DFS there is no post-order.
	assert.Equal(t, []string{"finish:a", "finish:b", "finish:c"}, r.only("finish:"))
	assert.Equal(t, []string{"discover:a:0", "discover:b:1", "discover:c:2"}, r.only("discover:"))
}

func TestWalkMaxDepth(t *testing.T) {
	r := &recorder{adj: map[string][]string{
		"a": {"b"},
		"b": {"c"},
	}}
	require.NoError(t, Walk(context.Background(), []string{"a"}, r, WithMaxDepth(1)))

	assert.Empty(t, r.only("discover:c"))
	// The depth-limited node still runs its lifecycle.
	assert.Len(t, r.only("finish:b"), 1)
}

func TestWalkDirection(t *testing.T) {
	r := &recorder{adj: map[string][]string{"a": {"b"}}}
	require.NoError(t, Walk(context.Background(), []string{"a"}, r, WithDirection(ToTargets)))
	require.NotEmpty(t, r.dirs)
	for _, d := range r.dirs {
		assert.Equal(t, ToTargets, d)
	}
}

func TestWalkDuplicateStarts(t *testing.T) {
	r := &recorder{adj: map[string][]string{}}
	require.NoError(t, Walk(context.Background(), []string{"a", "a", "a"}, r))
	assert.Len(t, r.only("discover:"), 1)
	assert.Len(t, r.only("finish:"), 1)
}

func TestWalkVisitorError(t *testing.T) {
	r := &recorder{
		adj:    map[string][]string{"a": {"b"}, "b": {"c"}},
		failOn: "examine:b",
	}
	err := Walk(context.Background(), []string{"a"}, r)
	require.Error(t, err)
	assert.ErrorContains(t, err, "examining node")
	assert.Empty(t, r.only("discover:c"))
}

func TestWalkContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &recorder{adj: map[string][]string{"a": {"b"}}}
	err := Walk(ctx, []string{"a"}, r)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalkMultipleStarts(t *testing.T) {
	r := &recorder{adj: map[string][]string{
		"a": {"shared"},
		"b": {"shared"},
	}}
	require.NoError(t, Walk(context.Background(), []string{"a", "b"}, r))
	assert.Len(t, r.only("discover:shared"), 1)
	assert.Len(t, r.only("finish:"), 3)
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"": DFS, "dfs": DFS, "BFS": BFS, " bfs ": BFS} {
		got, err := ParseOrder(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}
	_, err := ParseOrder("sideways")
	assert.ErrorContains(t, err, "unknown walk order")
}
