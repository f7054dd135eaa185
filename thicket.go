package thicket

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Vec2 is a 2D vector used for positions, offsets, sizes, and scale factors
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// ContainsRect reports whether other lies entirely inside r.
// Shared edges count as inside.
func (r Rect) ContainsRect(other Rect) bool {
	return r.Contains(other.X, other.Y) &&
		r.Contains(other.X+other.Width, other.Y+other.Height)
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Min returns the top-left corner.
func (r Rect) Min() Vec2 {
	return Vec2{r.X, r.Y}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Vec2 {
	return Vec2{r.X + r.Width, r.Y + r.Height}
}

// rectFromPoints returns the smallest Rect enclosing the given corners.
func rectFromPoints(pts [4]Vec2) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// BlendMode selects a compositing operation. Each maps to a specific ebiten.Blend value.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendScreen                    // screen (1 - (1-src)*(1-dst); only brightens)
	BlendErase                     // destination-out (punch transparent holes)
	BlendMask                      // clip destination to source alpha
	BlendBelow                     // destination-over (draw behind existing content)
	BlendNone                      // opaque copy (skip blending)
)

// NodeType distinguishes rendering behavior for a Node.
type NodeType uint8

const (
	NodeTypeContainer NodeType = iota // group node with no visual output
	NodeTypeSprite                    // renders a texture over its local bounds
	NodeTypeRect                      // renders a solid color rectangle
	NodeTypeTilemap                   // owns a grid of tiles sharing one appearance
	NodeTypeTile                      // one cell of a tilemap, drawn from a texture region
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeContainer:
		return "container"
	case NodeTypeSprite:
		return "sprite"
	case NodeTypeRect:
		return "rect"
	case NodeTypeTilemap:
		return "tilemap"
	case NodeTypeTile:
		return "tile"
	default:
		return "unknown"
	}
}

// EventType identifies the kind of an Event.
type EventType uint8

const (
	EventNodeAttached    EventType = iota // node joined a scene state
	EventNodeDetached                     // node left a scene state without being destroyed
	EventNodeDestroyed                    // node was destroyed
	EventQuadrantChanged                  // drawable moved to another quadrant
	EventStateRegistered                  // scene state registered with a world
	EventStateRemoved                     // scene state removed from a world
	EventCustom                           // user-defined signal, see Event.Payload
)

func (t EventType) String() string {
	switch t {
	case EventNodeAttached:
		return "node-attached"
	case EventNodeDetached:
		return "node-detached"
	case EventNodeDestroyed:
		return "node-destroyed"
	case EventQuadrantChanged:
		return "quadrant-changed"
	case EventStateRegistered:
		return "state-registered"
	case EventStateRemoved:
		return "state-removed"
	case EventCustom:
		return "custom"
	default:
		return "unknown"
	}
}
