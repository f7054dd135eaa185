package thicket

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	assert.InDelta(t, want, got, epsilon, name)
}

func assertVec(t *testing.T, name string, got, want Vec2) {
	t.Helper()
	if math.Abs(got.X-want.X) > epsilon || math.Abs(got.Y-want.Y) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertRect(t *testing.T, name string, got, want Rect) {
	t.Helper()
	if math.Abs(got.X-want.X) > epsilon || math.Abs(got.Y-want.Y) > epsilon ||
		math.Abs(got.Width-want.Width) > epsilon || math.Abs(got.Height-want.Height) > epsilon {
		t.Errorf("%s = %+v, want %+v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want mgl64.Mat3) {
	t.Helper()
	if !got.ApproxEqualThreshold(want, epsilon) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// recordingDevice captures every call a render system or loop makes.
type recordingDevice struct {
	views     []View
	submitted []RenderParams
	processed int
	frames    int
	failOn    uint32 // node ID whose submission fails
}

var errRecordingFail = testError("recording device failure")

type testError string

func (e testError) Error() string { return string(e) }

func (d *recordingDevice) SetView(v View) { d.views = append(d.views, v) }

func (d *recordingDevice) Render(p RenderParams) error {
	if d.failOn != 0 && p.NodeID == d.failOn {
		return errRecordingFail
	}
	d.submitted = append(d.submitted, p)
	return nil
}

func (d *recordingDevice) ProcessRenderQueue(context.Context) error {
	d.processed++
	return nil
}

func (d *recordingDevice) EndFrame() { d.frames++ }

func (d *recordingDevice) ids() []uint32 {
	out := make([]uint32, len(d.submitted))
	for i, p := range d.submitted {
		out[i] = p.NodeID
	}
	return out
}

func (d *recordingDevice) reset() {
	d.views = nil
	d.submitted = nil
}

// recordingSystem counts the calls a scene state makes into its render system.
type recordingSystem struct {
	added   []*Node
	deleted []*Node
	changes map[uint32]int
	camera  *Camera
	renders int
}

func newRecordingSystem() *recordingSystem {
	return &recordingSystem{changes: make(map[uint32]int)}
}

func (r *recordingSystem) AddDrawChild(n *Node)    { r.added = append(r.added, n) }
func (r *recordingSystem) DeleteDrawChild(n *Node) { r.deleted = append(r.deleted, n) }
func (r *recordingSystem) HandleChange(n *Node)    { r.changes[n.ID]++ }
func (r *recordingSystem) SetCamera(c *Camera)     { r.camera = c }
func (r *recordingSystem) Render(RenderDevice) error {
	r.renders++
	return nil
}

// newTestState returns a rendering, updating quadtree state over
// (0,0,100,100) with depth 2 and a camera showing the whole area.
func newTestState() *SceneState {
	area := Rect{Width: 100, Height: 100}
	s := NewQuadSceneState(area, 2, area, true, true)
	s.Camera().X, s.Camera().Y = 50, 50
	return s
}
