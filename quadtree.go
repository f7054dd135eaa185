package thicket

import "math"

// QuadID indexes a quadrant inside its QuadTree. Quadrants refer to each
// other (and drawables refer to their quadrant) by index, never by pointer.
type QuadID int32

// NoQuad is the invalid QuadID.
const NoQuad QuadID = -1

// quadCount is the number of children of a subdivided quadrant.
const quadCount = 4

// maxQuadDepth bounds NewQuadTreeGrid so a tiny cell size cannot explode
// the arena.
const maxQuadDepth = 12

type quadrant struct {
	area     Rect
	parent   QuadID
	children [quadCount]QuadID
	layers   map[int]map[uint32]*Node
}

// LayerMap accumulates drawables by render layer.
type LayerMap map[int][]*Node

// QuadTree is a recursive rectangular partition of world space. Each
// quadrant buckets the drawables whose global bounds it is the smallest
// container of, keyed by render layer. A drawable is registered in at most
// one quadrant at a time.
type QuadTree struct {
	quads []quadrant
}

// NewQuadTree builds a complete quadtree over area, subdivided depth times.
// Depth 0 yields a lone root.
func NewQuadTree(area Rect, depth int) *QuadTree {
	if depth < 0 {
		depth = 0
	}
	t := &QuadTree{}
	t.build(area, NoQuad, depth)
	return t
}

// NewQuadTreeGrid builds a quadtree whose leaf quadrants are no larger than
// cellW x cellH.
func NewQuadTreeGrid(area Rect, cellW, cellH float64) *QuadTree {
	depth := 0
	if cellW > 0 && cellH > 0 {
		n := math.Max(area.Width/cellW, area.Height/cellH)
		if n > 1 {
			depth = int(math.Ceil(math.Log2(n)))
		}
	}
	return NewQuadTree(area, min(depth, maxQuadDepth))
}

func (t *QuadTree) build(area Rect, parent QuadID, depth int) QuadID {
	id := QuadID(len(t.quads))
	t.quads = append(t.quads, quadrant{
		area:     area,
		parent:   parent,
		children: [quadCount]QuadID{NoQuad, NoQuad, NoQuad, NoQuad},
	})
	if depth == 0 {
		return id
	}
	hw, hh := area.Width/2, area.Height/2
	cells := [quadCount]Rect{
		{X: area.X, Y: area.Y, Width: hw, Height: hh},
		{X: area.X + hw, Y: area.Y, Width: hw, Height: hh},
		{X: area.X, Y: area.Y + hh, Width: hw, Height: hh},
		{X: area.X + hw, Y: area.Y + hh, Width: hw, Height: hh},
	}
	for i, cell := range cells {
		child := t.build(cell, id, depth-1)
		t.quads[id].children[i] = child
	}
	return id
}

// Root returns the root quadrant.
func (t *QuadTree) Root() QuadID {
	return 0
}

// Len returns the number of quadrants.
func (t *QuadTree) Len() int {
	return len(t.quads)
}

// Area returns the rectangle covered by q.
func (t *QuadTree) Area(q QuadID) Rect {
	return t.quads[q].area
}

// Parent returns the parent of q, or NoQuad for the root.
func (t *QuadTree) Parent(q QuadID) QuadID {
	return t.quads[q].parent
}

// Children returns the children of q. Missing children are NoQuad.
func (t *QuadTree) Children(q QuadID) [quadCount]QuadID {
	return t.quads[q].children
}

// Count returns the number of drawables registered directly at q.
func (t *QuadTree) Count(q QuadID) int {
	n := 0
	for _, bucket := range t.quads[q].layers {
		n += len(bucket)
	}
	return n
}

// Total returns the number of drawables registered anywhere in the tree.
func (t *QuadTree) Total() int {
	n := 0
	for i := range t.quads {
		n += t.Count(QuadID(i))
	}
	return n
}

// Locate returns the quadrant n is registered at, or NoQuad.
func (t *QuadTree) Locate(n *Node) QuadID {
	if n == nil || n.drawable == nil {
		return NoQuad
	}
	return n.drawable.quad
}

// AddDrawChild registers n in q's bucket for n's current layer.
func (t *QuadTree) AddDrawChild(q QuadID, n *Node) {
	d := n.drawable
	if d == nil {
		return
	}
	quad := &t.quads[q]
	if quad.layers == nil {
		quad.layers = make(map[int]map[uint32]*Node)
	}
	bucket := quad.layers[d.layer]
	if bucket == nil {
		bucket = make(map[uint32]*Node)
		quad.layers[d.layer] = bucket
	}
	bucket[n.ID] = n
	d.quad = q
	d.bucketLayer = d.layer
}

// DeleteDrawChild removes n from q. Empty layer buckets are dropped.
func (t *QuadTree) DeleteDrawChild(q QuadID, n *Node) {
	d := n.drawable
	if d == nil || q == NoQuad {
		return
	}
	quad := &t.quads[q]
	bucket := quad.layers[d.bucketLayer]
	delete(bucket, n.ID)
	if len(bucket) == 0 {
		delete(quad.layers, d.bucketLayer)
	}
	if d.quad == q {
		d.quad = NoQuad
	}
}

// FindObjects appends to out every drawable stored in a quadrant whose area
// intersects query, grouped by layer. Order within a layer is unspecified.
func (t *QuadTree) FindObjects(query Rect, out LayerMap) {
	if len(t.quads) == 0 {
		return
	}
	t.find(t.Root(), query, out)
}

func (t *QuadTree) find(q QuadID, query Rect, out LayerMap) {
	quad := &t.quads[q]
	if !quad.area.Intersects(query) {
		return
	}
	for layer, bucket := range quad.layers {
		for _, n := range bucket {
			out[layer] = append(out[layer], n)
		}
	}
	for _, child := range quad.children {
		if child != NoQuad {
			t.find(child, query, out)
		}
	}
}

// Fix returns the smallest quadrant that fully contains bounds, searching
// from the quadrant from: first up towards the root until bounds fit, then
// down through whichever child fits. Bounds that exceed the root stay at the
// root.
func (t *QuadTree) Fix(from QuadID, bounds Rect) QuadID {
	cur := from
	if cur == NoQuad {
		cur = t.Root()
	}
	for t.quads[cur].parent != NoQuad && !t.quads[cur].area.ContainsRect(bounds) {
		cur = t.quads[cur].parent
	}
	for {
		next := NoQuad
		for _, child := range t.quads[cur].children {
			if child != NoQuad && t.quads[child].area.ContainsRect(bounds) {
				next = child
				break
			}
		}
		if next == NoQuad {
			return cur
		}
		cur = next
	}
}

// Clear unregisters every drawable.
func (t *QuadTree) Clear() {
	for i := range t.quads {
		for _, bucket := range t.quads[i].layers {
			for _, n := range bucket {
				n.drawable.quad = NoQuad
			}
		}
		t.quads[i].layers = nil
	}
}
