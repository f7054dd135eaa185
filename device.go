package thicket

import (
	"context"
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// View is the camera state a device renders with.
type View struct {
	// Matrix maps world space to screen space.
	Matrix   mgl64.Mat3
	Viewport Rect
	// Visible is the world-space AABB of the viewport.
	Visible Rect
}

// RenderParams describes a single drawable submission.
type RenderParams struct {
	NodeID  uint32
	Type    NodeType
	Texture TextureID
	// Region is the source rectangle within the texture; empty means all of it.
	Region image.Rectangle
	Shader ShaderID
	Blend  BlendMode
	Color  Color
	Layer  int
	// Bounds is the drawable area in node-local space.
	Bounds Rect
	// Transform is the node's global matrix.
	Transform mgl64.Mat3
}

// RenderDevice is the boundary between the scene graph and a graphics
// backend. A render system calls SetView once per state and Render once per
// visible drawable; the frame loop then calls ProcessRenderQueue and EndFrame.
// Immediate devices draw inside Render and treat ProcessRenderQueue as a
// no-op. Queued devices record in Render and replay in ProcessRenderQueue,
// possibly on another goroutine.
type RenderDevice interface {
	SetView(v View)
	Render(p RenderParams) error
	ProcessRenderQueue(ctx context.Context) error
	EndFrame()
}
