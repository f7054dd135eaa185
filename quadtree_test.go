package thicket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPlaced creates a rect drawable whose global bounds equal bounds and
// registers it at the root of tree.
func newPlaced(t *testing.T, tree *QuadTree, name string, bounds Rect, layer int) *Node {
	t.Helper()
	n := NewRect(name, bounds, ColorWhite)
	n.drawable.layer = layer
	n.drawable.global = bounds
	tree.AddDrawChild(tree.Root(), n)
	return n
}

func TestQuadTreeStructure(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 100, Height: 100}, 2)
	require.Equal(t, 1+4+16, tree.Len())
	assert.Equal(t, NoQuad, tree.Parent(tree.Root()))

	children := tree.Children(tree.Root())
	want := []Rect{
		{X: 0, Y: 0, Width: 50, Height: 50},
		{X: 50, Y: 0, Width: 50, Height: 50},
		{X: 0, Y: 50, Width: 50, Height: 50},
		{X: 50, Y: 50, Width: 50, Height: 50},
	}
	for i, c := range children {
		assert.Equal(t, want[i], tree.Area(c), "child %d", i)
		assert.Equal(t, tree.Root(), tree.Parent(c))
		for _, gc := range tree.Children(c) {
			assert.Equal(t, 25.0, tree.Area(gc).Width)
			assert.Equal(t, [quadCount]QuadID{NoQuad, NoQuad, NoQuad, NoQuad}, tree.Children(gc))
		}
	}
}

func TestQuadTreeDepthZero(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 10, Height: 10}, 0)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, tree.Root(), tree.Fix(tree.Root(), Rect{X: 1, Y: 1, Width: 1, Height: 1}))
}

func TestQuadTreeGridDepth(t *testing.T) {
	area := Rect{Width: 1024, Height: 512}
	tests := []struct {
		cell  float64
		depth int
	}{
		{1024, 0},
		{512, 1},
		{100, 4}, // 1024/100 = 10.24 -> 2^4 = 16 cells per side
		{0, 0},
	}
	for _, tt := range tests {
		tree := NewQuadTreeGrid(area, tt.cell, tt.cell)
		quads := 0
		for d, n := 0, 1; d <= tt.depth; d, n = d+1, n*4 {
			quads += n
		}
		assert.Equal(t, quads, tree.Len(), "cell %v", tt.cell)
	}
}

func TestQuadTreeFixScenario(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 100, Height: 100}, 2)
	n := newPlaced(t, tree, "d", Rect{X: 10, Y: 10, Width: 5, Height: 5}, 0)

	q := tree.Fix(tree.Locate(n), n.drawable.global)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 25, Height: 25}, tree.Area(q))
	tree.DeleteDrawChild(tree.Root(), n)
	tree.AddDrawChild(q, n)
	assert.Equal(t, 1, tree.Count(q))
	assert.Equal(t, 0, tree.Count(tree.Root()))

	old := q
	n.drawable.global = Rect{X: 60, Y: 60, Width: 5, Height: 5}
	q = tree.Fix(old, n.drawable.global)
	assert.Equal(t, Rect{X: 50, Y: 50, Width: 25, Height: 25}, tree.Area(q))
	tree.DeleteDrawChild(old, n)
	tree.AddDrawChild(q, n)
	assert.Equal(t, 0, tree.Count(old), "old bucket must be empty")
	assert.Equal(t, 1, tree.Count(q))
	assert.Equal(t, 1, tree.Total())
}

func TestQuadTreeFixStraddlingStaysHigh(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 100, Height: 100}, 2)
	// Crosses both midlines, so only the root contains it.
	assert.Equal(t, tree.Root(), tree.Fix(tree.Root(), Rect{X: 45, Y: 45, Width: 10, Height: 10}))
	// Crosses the 25 line inside the top-left child.
	q := tree.Fix(tree.Root(), Rect{X: 20, Y: 5, Width: 10, Height: 5})
	assert.Equal(t, Rect{Width: 50, Height: 50}, tree.Area(q))
}

func TestQuadTreeFixOutsideRootParks(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 100, Height: 100}, 2)
	leaf := tree.Fix(tree.Root(), Rect{X: 1, Y: 1, Width: 1, Height: 1})
	assert.Equal(t, tree.Root(), tree.Fix(leaf, Rect{X: -10, Y: 10, Width: 5, Height: 5}))
	assert.Equal(t, tree.Root(), tree.Fix(leaf, Rect{X: 90, Y: 90, Width: 50, Height: 5}))
}

func TestQuadTreeFixSharedEdgeFits(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 100, Height: 100}, 1)
	q := tree.Fix(tree.Root(), Rect{X: 0, Y: 0, Width: 50, Height: 50})
	assert.Equal(t, Rect{Width: 50, Height: 50}, tree.Area(q))
}

func TestQuadTreeFindObjectsCompleteness(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 100, Height: 100}, 2)
	place := func(name string, b Rect, layer int) *Node {
		n := newPlaced(t, tree, name, b, layer)
		q := tree.Fix(tree.Root(), b)
		tree.DeleteDrawChild(tree.Root(), n)
		tree.AddDrawChild(q, n)
		return n
	}
	tl := place("tl", Rect{X: 5, Y: 5, Width: 5, Height: 5}, 0)
	br := place("br", Rect{X: 80, Y: 80, Width: 5, Height: 5}, 1)
	mid := place("mid", Rect{X: 45, Y: 45, Width: 10, Height: 10}, 0)

	collect := func(q Rect) map[*Node]int {
		out := make(LayerMap)
		tree.FindObjects(q, out)
		got := make(map[*Node]int)
		for layer, nodes := range out {
			for _, n := range nodes {
				got[n] = layer
			}
		}
		return got
	}

	got := collect(Rect{X: 0, Y: 0, Width: 10, Height: 10})
	assert.Contains(t, got, tl)
	assert.Contains(t, got, mid, "root drawables intersect every query inside the root")
	assert.NotContains(t, got, br)

	got = collect(Rect{X: 76, Y: 76, Width: 2, Height: 2})
	assert.Equal(t, 1, got[br])
	assert.NotContains(t, got, tl)

	got = collect(Rect{X: 200, Y: 200, Width: 5, Height: 5})
	assert.Empty(t, got)
}

func TestQuadTreeLayerBuckets(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 100, Height: 100}, 0)
	a := newPlaced(t, tree, "a", Rect{Width: 1, Height: 1}, 2)
	newPlaced(t, tree, "b", Rect{Width: 1, Height: 1}, 2)
	newPlaced(t, tree, "c", Rect{Width: 1, Height: 1}, -1)

	out := make(LayerMap)
	tree.FindObjects(tree.Area(tree.Root()), out)
	assert.Len(t, out[2], 2)
	assert.Len(t, out[-1], 1)

	tree.DeleteDrawChild(tree.Root(), a)
	assert.Equal(t, NoQuad, a.Quadrant())
	assert.Equal(t, 2, tree.Count(tree.Root()))
}

func TestQuadTreeClear(t *testing.T) {
	tree := NewQuadTree(Rect{Width: 100, Height: 100}, 1)
	a := newPlaced(t, tree, "a", Rect{Width: 1, Height: 1}, 0)
	tree.Clear()
	assert.Equal(t, 0, tree.Total())
	assert.Equal(t, NoQuad, a.Quadrant())
}
