package thicket

import (
	"time"

	"github.com/pkg/errors"
)

// RenderSystem owns the spatial index of a scene state and turns it into
// device submissions. Scene states register drawables on attach, unregister
// them on detach or destroy, and report every drawable whose global bounds
// were recomputed through HandleChange.
type RenderSystem interface {
	AddDrawChild(n *Node)
	DeleteDrawChild(n *Node)
	HandleChange(n *Node)
	SetCamera(c *Camera)
	Render(dev RenderDevice) error
}

// QuadTreeRenderSystem is the quadtree backed RenderSystem. It keeps every
// registered drawable in the smallest quadrant containing its global bounds
// and renders by querying the quadrants that intersect the camera view.
type QuadTreeRenderSystem struct {
	tree   *QuadTree
	camera *Camera

	// OnQuadrantChanged is called after a drawable moves between quadrants.
	OnQuadrantChanged func(n *Node, from, to QuadID)

	layers   LayerMap
	picks    LayerMap
	commands []RenderParams
	sortBuf  []RenderParams
	stats    RenderStats
}

// RenderStats describes the last Render call.
type RenderStats struct {
	Queried   int
	Culled    int
	Invisible int
	Submitted int
	Layers    int
	QueryTime time.Duration
}

// NewQuadTreeRenderSystem wraps tree.
func NewQuadTreeRenderSystem(tree *QuadTree) *QuadTreeRenderSystem {
	return &QuadTreeRenderSystem{
		tree:   tree,
		layers: make(LayerMap),
	}
}

// Tree returns the underlying quadtree.
func (r *QuadTreeRenderSystem) Tree() *QuadTree {
	return r.tree
}

// Camera returns the camera used for rendering, or nil.
func (r *QuadTreeRenderSystem) Camera() *Camera {
	return r.camera
}

// Stats returns statistics about the last Render call.
func (r *QuadTreeRenderSystem) Stats() RenderStats {
	return r.stats
}

// AddDrawChild registers n at the root and immediately fixes its placement.
func (r *QuadTreeRenderSystem) AddDrawChild(n *Node) {
	if n == nil || n.drawable == nil {
		return
	}
	if n.drawable.quad != NoQuad {
		r.tree.DeleteDrawChild(n.drawable.quad, n)
	}
	r.tree.AddDrawChild(r.tree.Root(), n)
	r.HandleChange(n)
}

// DeleteDrawChild removes n from its quadrant.
func (r *QuadTreeRenderSystem) DeleteDrawChild(n *Node) {
	if n == nil || n.drawable == nil {
		return
	}
	r.tree.DeleteDrawChild(n.drawable.quad, n)
}

// HandleChange moves n to the smallest quadrant containing its global
// bounds, climbing from its current quadrant and then descending. A layer
// change without a move still rebuckets the node. Unregistered nodes are
// ignored.
func (r *QuadTreeRenderSystem) HandleChange(n *Node) {
	if n == nil || n.drawable == nil {
		return
	}
	d := n.drawable
	from := d.quad
	if from == NoQuad {
		return
	}
	to := r.tree.Fix(from, d.global)
	if to == from && d.bucketLayer == d.layer {
		return
	}
	r.tree.DeleteDrawChild(from, n)
	r.tree.AddDrawChild(to, n)
	if to != from && r.OnQuadrantChanged != nil {
		r.OnQuadrantChanged(n, from, to)
	}
}

// SetCamera sets the camera used by Render.
func (r *QuadTreeRenderSystem) SetCamera(c *Camera) {
	r.camera = c
}

// Render queries the quadrants intersecting the camera's visible bounds and
// submits their visible drawables to dev, lowest layer first. Within a layer
// drawables are submitted in creation order (ascending node ID). Each
// drawable is submitted at most once.
func (r *QuadTreeRenderSystem) Render(dev RenderDevice) error {
	if r.camera == nil {
		return ErrNoCamera
	}
	view := r.camera.View()
	dev.SetView(view)

	start := time.Now()
	for k := range r.layers {
		delete(r.layers, k)
	}
	r.tree.FindObjects(view.Visible, r.layers)

	r.stats = RenderStats{Layers: len(r.layers)}
	r.commands = r.commands[:0]
	for _, bucket := range r.layers {
		r.stats.Queried += len(bucket)
		for _, n := range bucket {
			d := n.drawable
			if !d.visible {
				r.stats.Invisible++
				continue
			}
			if r.camera.CullEnabled && !d.global.Intersects(view.Visible) {
				r.stats.Culled++
				continue
			}
			r.commands = append(r.commands, n.renderParams())
		}
	}
	r.mergeSort()
	r.stats.QueryTime = time.Since(start)

	for i := range r.commands {
		if err := dev.Render(r.commands[i]); err != nil {
			return errors.Wrapf(err, "render node %d (layer %d)", r.commands[i].NodeID, r.commands[i].Layer)
		}
		r.stats.Submitted++
	}
	return nil
}

// --- Merge sort ---

// commandLessOrEqual returns true if a should sort before or at the same position as b.
func commandLessOrEqual(a, b RenderParams) bool {
	if a.Layer != b.Layer {
		return a.Layer < b.Layer
	}
	return a.NodeID <= b.NodeID
}

// mergeSort sorts r.commands in-place using r.sortBuf as scratch space.
// Bottom-up merge sort: zero allocations after the sort buffer reaches high-water mark.
func (r *QuadTreeRenderSystem) mergeSort() {
	n := len(r.commands)
	if n <= 1 {
		return
	}
	if cap(r.sortBuf) < n {
		r.sortBuf = make([]RenderParams, n)
	}
	r.sortBuf = r.sortBuf[:n]

	a := r.commands
	b := r.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(r.commands, r.sortBuf)
	}
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []RenderParams, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(src[i], src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}
