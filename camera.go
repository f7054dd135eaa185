package thicket

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// camParams is the subset of camera state the view matrix depends on.
type camParams struct {
	x, y, zoom, rotation float64
	viewport             Rect
}

// Camera controls the view into a scene state: position, zoom, rotation, and viewport.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	// CullEnabled skips drawables whose global bounds don't intersect the
	// camera's visible bounds, on top of the quadrant query.
	CullEnabled bool

	followTarget  *Node
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	// Bounds is the world-space rectangle the camera is clamped to when
	// BoundsEnabled is true.
	Bounds Rect

	viewMatrix    mgl64.Mat3
	invViewMatrix mgl64.Mat3
	cached        camParams
	valid         bool

	scrollTween *scrollAnim
}

// NewCamera creates a Camera with default values and the given viewport.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		Zoom:        1.0,
		Viewport:    viewport,
		CullEnabled: true,
	}
}

// Follow makes the camera track a target node with the given offset and lerp factor.
// A lerp of 1.0 snaps immediately; lower values give smoother following.
func (c *Camera) Follow(node *Node, offsetX, offsetY, lerp float64) {
	c.followTarget = node
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) Scrolling() bool {
	return c.scrollTween != nil
}

// SetBounds enables camera bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables camera bounds clamping.
func (c *Camera) ClearBounds() {
	c.BoundsEnabled = false
}

// ClampToBounds immediately clamps the camera position so the visible area
// stays within Bounds. No-op if BoundsEnabled is false.
func (c *Camera) ClampToBounds() {
	if c.BoundsEnabled {
		c.clampToBounds()
	}
}

// update advances follow, scroll, and bounds clamping. Called from SceneState.Loop.
func (c *Camera) update(dt float64) {
	if c.followTarget != nil && !c.followTarget.IsDestroyed() {
		p := c.followTarget.GlobalPosition()
		targetX := p.X + c.followOffsetX
		targetY := p.Y + c.followOffsetY
		c.X += (targetX - c.X) * c.followLerp
		c.Y += (targetY - c.Y) * c.followLerp
	}

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(float32(dt))
			c.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(float32(dt))
			c.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.BoundsEnabled {
		c.clampToBounds()
	}
}

// clampToBounds restricts camera position so the visible area stays within Bounds.
func (c *Camera) clampToBounds() {
	halfW := c.Viewport.Width / (2 * c.Zoom)
	halfH := c.Viewport.Height / (2 * c.Zoom)

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	// If bounds are smaller than visible area, center the camera.
	if minX > maxX {
		c.X = c.Bounds.X + c.Bounds.Width/2
	} else {
		c.X = math.Max(minX, math.Min(c.X, maxX))
	}
	if minY > maxY {
		c.Y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		c.Y = math.Max(minY, math.Min(c.Y, maxY))
	}
}

// computeViewMatrix recomputes the cached view matrix when any parameter
// it depends on changed since the last call.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) computeViewMatrix() mgl64.Mat3 {
	p := camParams{x: c.X, y: c.Y, zoom: c.Zoom, rotation: c.Rotation, viewport: c.Viewport}
	if c.valid && p == c.cached {
		return c.viewMatrix
	}
	c.cached = p
	c.valid = true

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2

	c.viewMatrix = mgl64.Translate2D(cx, cy).
		Mul3(mgl64.Scale2D(c.Zoom, c.Zoom)).
		Mul3(mgl64.HomogRotate2D(-c.Rotation)).
		Mul3(mgl64.Translate2D(-c.X, -c.Y))
	c.invViewMatrix = c.viewMatrix.Inv()
	return c.viewMatrix
}

// ViewMatrix returns the world-to-screen matrix.
func (c *Camera) ViewMatrix() mgl64.Mat3 {
	return c.computeViewMatrix()
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	p := TransformPoint(c.computeViewMatrix(), Vec2{wx, wy})
	return p.X, p.Y
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.computeViewMatrix()
	p := TransformPoint(c.invViewMatrix, Vec2{sx, sy})
	return p.X, p.Y
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's visible
// area in world space.
func (c *Camera) VisibleBounds() Rect {
	c.computeViewMatrix()
	return TransformRect(c.invViewMatrix, c.Viewport)
}

// View snapshots the camera for a render device.
func (c *Camera) View() View {
	return View{
		Matrix:   c.computeViewMatrix(),
		Viewport: c.Viewport,
		Visible:  c.VisibleBounds(),
	}
}
