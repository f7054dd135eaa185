package thicket

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// HitShape is a hit area in node-local coordinates. Drawables without one
// are hit-tested against their local bounds.
type HitShape interface {
	Contains(x, y float64) bool
}

// HitRect is an axis-aligned rectangular hit area.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle, edges included.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// HitPolygon is a convex polygon hit area, in either winding order.
type HitPolygon struct {
	Points []Vec2
}

// Contains reports whether (x, y) is on the same side of every edge.
func (p HitPolygon) Contains(x, y float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	var positive, negative bool
	for i := 0; i < n; i++ {
		a, b := p.Points[i], p.Points[(i+1)%n]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if cross > 0 {
			positive = true
		} else if cross < 0 {
			negative = true
		}
		if positive && negative {
			return false
		}
	}
	return true
}

// SetHitShape replaces the drawable's hit area. nil restores the local bounds.
// No-op for non-drawable nodes.
func (n *Node) SetHitShape(s HitShape) {
	if n.drawable != nil {
		n.drawable.hit = s
	}
}

// HitShape returns the drawable's custom hit area, or nil.
func (n *Node) HitShape() HitShape {
	if n.drawable == nil {
		return nil
	}
	return n.drawable.hit
}

// containsWorld tests a world-space point against the node's hit area, using
// the global matrix of the last loop that updated it.
func (n *Node) containsWorld(x, y float64) bool {
	d := n.drawable
	if !d.global.Contains(x, y) {
		return false
	}
	inv := n.world.Inv()
	if inv == (mgl64.Mat3{}) {
		return false
	}
	p := TransformPoint(inv, Vec2{x, y})
	if d.hit != nil {
		return d.hit.Contains(p.X, p.Y)
	}
	return d.local.Contains(p.X, p.Y)
}

// Pick returns the topmost visible drawable whose hit area contains the
// world-space point (x, y), or nil. Topmost is the last one Render would
// submit: highest layer, then most recently created. Only the quadrants
// containing the point are visited, so custom hit shapes must lie within
// the drawable's bounds. A hit on a tile returns its tilemap; use CellAt to
// find the cell.
func (r *QuadTreeRenderSystem) Pick(x, y float64) *Node {
	if r.picks == nil {
		r.picks = make(LayerMap)
	}
	for k := range r.picks {
		delete(r.picks, k)
	}
	r.tree.FindObjects(Rect{X: x, Y: y}, r.picks)

	layers := make([]int, 0, len(r.picks))
	for l := range r.picks {
		layers = append(layers, l)
	}
	slices.Sort(layers)
	for i := len(layers) - 1; i >= 0; i-- {
		bucket := r.picks[layers[i]]
		slices.SortFunc(bucket, func(a, b *Node) int { return cmp.Compare(b.ID, a.ID) })
		for _, n := range bucket {
			if n.drawable.visible && n.containsWorld(x, y) {
				if n.Type == NodeTypeTile {
					return n.parent
				}
				return n
			}
		}
	}
	return nil
}

// Pick converts the screen point through the state's camera and returns the
// topmost drawable under it, or nil. Only states using a QuadTreeRenderSystem
// support picking.
func (s *SceneState) Pick(screenX, screenY float64) *Node {
	qs, ok := s.system.(*QuadTreeRenderSystem)
	if !ok || s.camera == nil {
		return nil
	}
	wx, wy := s.camera.ScreenToWorld(screenX, screenY)
	return qs.Pick(wx, wy)
}
