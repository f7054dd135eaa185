package thicket

import "image"

// TextureID identifies a texture owned by a TextureManager. Zero means none.
type TextureID ResourceID

// ShaderID identifies a shader owned by a ShaderManager. Zero means the
// device's default pipeline.
type ShaderID ResourceID

// drawSettings is the appearance of a drawable. Tiles share their tilemap's
// block, so editing it applies to every tile at once.
type drawSettings struct {
	visible bool
	layer   int
	shader  ShaderID
	texture TextureID
	blend   BlendMode
	color   Color
}

func newDrawSettings() *drawSettings {
	return &drawSettings{visible: true, color: ColorWhite}
}

// drawable is the optional visual capability of a Node. Nodes that carry one
// are registered with their scene state's render system and are kept in
// exactly one quadrant while attached.
type drawable struct {
	*drawSettings

	// textureRect is the source region within the texture. The empty
	// rectangle selects the whole texture.
	textureRect image.Rectangle

	// local bounds in node space, global bounds is their world AABB as of
	// the last loop in which the node was updated.
	local  Rect
	global Rect
	hit    HitShape

	// Quadtree bookkeeping. bucketLayer is the layer the node is stored
	// under, which lags layer until the render system rebuckets it.
	quad        QuadID
	bucketLayer int

	// system is set while the node is registered with a render system.
	system RenderSystem
}

func newDrawable(bounds Rect, settings *drawSettings) *drawable {
	return &drawable{
		drawSettings: settings,
		local:        bounds,
		quad:         NoQuad,
	}
}

// NewSprite creates a drawable node that renders texture stretched over
// bounds (in local space).
func NewSprite(name string, texture TextureID, bounds Rect) *Node {
	n := newNode(name, NodeTypeSprite)
	n.drawable = newDrawable(bounds, newDrawSettings())
	n.drawable.texture = texture
	return n
}

// NewRect creates a drawable node that fills bounds with a solid color.
func NewRect(name string, bounds Rect, c Color) *Node {
	n := newNode(name, NodeTypeRect)
	n.drawable = newDrawable(bounds, newDrawSettings())
	n.drawable.color = c
	return n
}

// IsDrawable reports whether the node has the drawing capability.
func (n *Node) IsDrawable() bool {
	return n.drawable != nil
}

// settings returns the appearance block of a drawable or tilemap node, or nil.
func (n *Node) settings() *drawSettings {
	switch {
	case n.drawable != nil:
		return n.drawable.drawSettings
	case n.tilemap != nil:
		return n.tilemap.settings
	}
	return nil
}

// Visible reports whether the node is submitted for rendering. Nodes with
// nothing to draw always report false.
func (n *Node) Visible() bool {
	ds := n.settings()
	return ds != nil && ds.visible
}

// SetVisible toggles rendering. No-op for container nodes.
func (n *Node) SetVisible(v bool) {
	if ds := n.settings(); ds != nil {
		ds.visible = v
	}
}

// Layer returns the render layer. Lower layers draw first.
func (n *Node) Layer() int {
	if ds := n.settings(); ds != nil {
		return ds.layer
	}
	return 0
}

// SetLayer moves the node to another render layer. The node (or every tile
// of a tilemap) is rebucketed in its quadrant right away so the next render
// honors the new layer even if nothing moves.
func (n *Node) SetLayer(layer int) {
	ds := n.settings()
	if ds == nil || ds.layer == layer {
		return
	}
	ds.layer = layer
	if d := n.drawable; d != nil && d.system != nil {
		d.system.HandleChange(n)
	}
	if n.tilemap != nil {
		n.tilemap.fixTiles()
	}
}

// Shader returns the shader handle.
func (n *Node) Shader() ShaderID {
	if ds := n.settings(); ds != nil {
		return ds.shader
	}
	return 0
}

// SetShader sets the shader handle.
func (n *Node) SetShader(id ShaderID) {
	if ds := n.settings(); ds != nil {
		ds.shader = id
	}
}

// Texture returns the texture handle.
func (n *Node) Texture() TextureID {
	if ds := n.settings(); ds != nil {
		return ds.texture
	}
	return 0
}

// SetTexture sets the texture handle.
func (n *Node) SetTexture(id TextureID) {
	if ds := n.settings(); ds != nil {
		ds.texture = id
	}
}

// TextureRect returns the source region within the texture. The empty
// rectangle means the whole texture.
func (n *Node) TextureRect() image.Rectangle {
	if n.drawable == nil {
		return image.Rectangle{}
	}
	return n.drawable.textureRect
}

// SetTextureRect selects the region of the texture drawn over the local
// bounds. No-op for non-drawable nodes.
func (n *Node) SetTextureRect(r image.Rectangle) {
	if n.drawable != nil {
		n.drawable.textureRect = r.Canon()
	}
}

// Blend returns the blend mode.
func (n *Node) Blend() BlendMode {
	if ds := n.settings(); ds != nil {
		return ds.blend
	}
	return BlendNormal
}

// SetBlend sets the blend mode.
func (n *Node) SetBlend(b BlendMode) {
	if ds := n.settings(); ds != nil {
		ds.blend = b
	}
}

// Color returns the tint (sprites, tiles) or fill color (rects).
func (n *Node) Color() Color {
	if ds := n.settings(); ds != nil {
		return ds.color
	}
	return ColorWhite
}

// SetColor sets the tint or fill color.
func (n *Node) SetColor(c Color) {
	if ds := n.settings(); ds != nil {
		ds.color = c
	}
}

// LocalBounds returns the drawable area in local space.
func (n *Node) LocalBounds() Rect {
	if n.drawable == nil {
		return Rect{}
	}
	return n.drawable.local
}

// SetLocalBounds replaces the drawable area. The node is treated as
// transformed so global bounds and quadrant placement refresh next loop.
func (n *Node) SetLocalBounds(r Rect) {
	if n.drawable == nil {
		return
	}
	n.drawable.local = r
	n.transformed = true
}

// GlobalBounds returns the world-space AABB of the drawable as of the last
// loop that updated it.
func (n *Node) GlobalBounds() Rect {
	if n.drawable == nil {
		return Rect{}
	}
	return n.drawable.global
}

// Quadrant returns the quadrant the node is registered at, or NoQuad.
func (n *Node) Quadrant() QuadID {
	if n.drawable == nil {
		return NoQuad
	}
	return n.drawable.quad
}

// renderParams snapshots the drawable state for submission to a device.
func (n *Node) renderParams() RenderParams {
	d := n.drawable
	return RenderParams{
		NodeID:    n.ID,
		Type:      n.Type,
		Texture:   d.texture,
		Region:    d.textureRect,
		Shader:    d.shader,
		Blend:     d.blend,
		Color:     d.color,
		Layer:     d.layer,
		Bounds:    d.local,
		Transform: n.world,
	}
}
