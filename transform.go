package thicket

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// identityMatrix is the identity affine matrix.
var identityMatrix = mgl64.Ident3()

// Transform holds the local 2D affine state of a node: position, rotation
// (radians), scale and origin. The origin is the pivot for rotation and
// scale, expressed in local coordinates.
//
// Composition order:
//
//	Translate(-Origin) -> Scale -> Rotate -> Translate(Position)
//
// The matrix is cached and rebuilt lazily after any setter, so callers never
// observe a stale value. Every setter also raises the transformed flag that
// the update loop consumes.
type Transform struct {
	position Vec2
	rotation float64
	scale    Vec2
	origin   Vec2

	matrix      mgl64.Mat3
	inverse     mgl64.Mat3
	matrixDirty bool
	transformed bool
}

func newTransform() Transform {
	return Transform{
		scale:       Vec2{1, 1},
		matrixDirty: true,
		transformed: true,
	}
}

func (t *Transform) touch() {
	t.matrixDirty = true
	t.transformed = true
}

// Position returns the local position.
func (t *Transform) Position() Vec2 { return t.position }

// Rotation returns the local rotation in radians, in [0, 2π).
func (t *Transform) Rotation() float64 { return t.rotation }

// Scale returns the local scale factors.
func (t *Transform) Scale() Vec2 { return t.scale }

// Origin returns the local pivot point.
func (t *Transform) Origin() Vec2 { return t.origin }

// SetPosition sets the local position.
func (t *Transform) SetPosition(x, y float64) {
	t.position = Vec2{x, y}
	t.touch()
}

// SetRotation sets the rotation in radians. The value is normalized to [0, 2π).
func (t *Transform) SetRotation(r float64) {
	t.rotation = normalizeAngle(r)
	t.touch()
}

// SetScale sets the scale factors. Zero is allowed and yields a singular matrix.
func (t *Transform) SetScale(sx, sy float64) {
	t.scale = Vec2{sx, sy}
	t.touch()
}

// SetOrigin sets the pivot point.
func (t *Transform) SetOrigin(x, y float64) {
	t.origin = Vec2{x, y}
	t.touch()
}

// Move offsets the position by (dx, dy).
func (t *Transform) Move(dx, dy float64) {
	t.position = t.position.Add(Vec2{dx, dy})
	t.touch()
}

// Rotate adds r radians to the rotation.
func (t *Transform) Rotate(r float64) {
	t.SetRotation(t.rotation + r)
}

// ScaleBy multiplies the scale factors by (fx, fy).
func (t *Transform) ScaleBy(fx, fy float64) {
	t.scale = Vec2{t.scale.X * fx, t.scale.Y * fy}
	t.touch()
}

// Matrix returns the local transform matrix.
func (t *Transform) Matrix() mgl64.Mat3 {
	t.refresh()
	return t.matrix
}

// InverseMatrix returns the inverse of Matrix. When the scale has a zero
// component the matrix is singular and the zero matrix is returned; callers
// must not rely on it in that case.
func (t *Transform) InverseMatrix() mgl64.Mat3 {
	t.refresh()
	return t.inverse
}

func (t *Transform) refresh() {
	if !t.matrixDirty {
		return
	}
	t.matrix = composeMatrix(t.position, t.rotation, t.scale, t.origin)
	t.inverse = t.matrix.Inv()
	t.matrixDirty = false
}

// composeMatrix builds Translate(pos) * Rotate(rot) * Scale(scale) * Translate(-origin).
func composeMatrix(pos Vec2, rot float64, scale Vec2, origin Vec2) mgl64.Mat3 {
	sin, cos := math.Sincos(rot)

	a := cos * scale.X
	b := sin * scale.X
	c := -sin * scale.Y
	d := cos * scale.Y

	tx := pos.X - (a*origin.X + c*origin.Y)
	ty := pos.Y - (b*origin.X + d*origin.Y)

	// Column-major.
	return mgl64.Mat3{
		a, b, 0,
		c, d, 0,
		tx, ty, 1,
	}
}

func normalizeAngle(r float64) float64 {
	r = math.Mod(r, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	// Tiny negative angles round up to exactly 2π.
	if r >= 2*math.Pi {
		r = 0
	}
	return r
}

// TransformPoint applies m to the point p.
func TransformPoint(m mgl64.Mat3, p Vec2) Vec2 {
	v := m.Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
	return Vec2{v[0], v[1]}
}

// TransformRect returns the axis-aligned bounding box of r after applying m.
func TransformRect(m mgl64.Mat3, r Rect) Rect {
	return rectFromPoints([4]Vec2{
		TransformPoint(m, Vec2{r.X, r.Y}),
		TransformPoint(m, Vec2{r.X + r.Width, r.Y}),
		TransformPoint(m, Vec2{r.X + r.Width, r.Y + r.Height}),
		TransformPoint(m, Vec2{r.X, r.Y + r.Height}),
	})
}
