package thicket

import (
	"context"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendNormal:
		return ebiten.BlendSourceOver
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendErase:
		return ebiten.BlendDestinationOut
	case BlendMask:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorZero,
			BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
			BlendFactorDestinationRGB:   ebiten.BlendFactorSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendBelow:
		return ebiten.BlendDestinationOver
	case BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// whitePixel is the source image for solid rects. Lazily created because
// ebiten images cannot be allocated before the game loop starts in some
// backends.
var whitePixel *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(color.White)
	}
	return whitePixel
}

// EbitenDevice draws submissions immediately onto an ebiten target image.
type EbitenDevice struct {
	textures *TextureManager
	shaders  *ShaderManager

	target *ebiten.Image
	view   View

	op  ebiten.DrawImageOptions
	sop ebiten.DrawRectShaderOptions

	drawCalls int
	lastCalls int
}

// NewEbitenDevice creates a device resolving handles through the given
// managers. Either may be nil when the scene uses no textures or shaders.
func NewEbitenDevice(textures *TextureManager, shaders *ShaderManager) *EbitenDevice {
	return &EbitenDevice{
		textures: textures,
		shaders:  shaders,
		view:     View{Matrix: identityMatrix},
	}
}

// SetTarget sets the image subsequent submissions draw onto.
func (d *EbitenDevice) SetTarget(target *ebiten.Image) {
	d.target = target
}

func (d *EbitenDevice) SetView(v View) {
	d.view = v
}

// Render draws p. Sprites and tiles with an unknown texture return the
// manager's ResourceError. A region outside the texture draws nothing.
func (d *EbitenDevice) Render(p RenderParams) error {
	if d.target == nil {
		return ErrNoTarget
	}

	var src *ebiten.Image
	switch p.Type {
	case NodeTypeRect:
		src = ensureWhitePixel()
	case NodeTypeSprite, NodeTypeTile:
		if d.textures == nil {
			return &ResourceError{ID: ResourceID(p.Texture), Op: "get texture", Err: ErrUnknownResource}
		}
		img, err := d.textures.Image(p.Texture)
		if err != nil {
			return err
		}
		src = img
		if !p.Region.Empty() {
			r := p.Region.Intersect(img.Bounds())
			if r.Empty() {
				return nil
			}
			src = img.SubImage(r).(*ebiten.Image)
		}
	default:
		return nil
	}

	geo := d.geoM(p, src)
	cs := colorScale(p.Color)

	if p.Shader != 0 {
		if d.shaders == nil {
			return &ResourceError{ID: ResourceID(p.Shader), Op: "get shader", Err: ErrUnknownResource}
		}
		shader, err := d.shaders.Shader(p.Shader)
		if err != nil {
			return err
		}
		b := src.Bounds()
		d.sop.GeoM = geo
		d.sop.ColorScale = cs
		d.sop.Blend = p.Blend.EbitenBlend()
		d.sop.Images[0] = src
		d.target.DrawRectShader(b.Dx(), b.Dy(), shader, &d.sop)
		d.sop.Images[0] = nil
		d.drawCalls++
		return nil
	}

	d.op.GeoM = geo
	d.op.ColorScale = cs
	d.op.Blend = p.Blend.EbitenBlend()
	d.target.DrawImage(src, &d.op)
	d.drawCalls++
	return nil
}

// geoM maps the source image onto the local bounds, then through the node's
// global matrix and the view.
func (d *EbitenDevice) geoM(p RenderParams, src *ebiten.Image) ebiten.GeoM {
	var g ebiten.GeoM
	b := src.Bounds()
	if w, h := b.Dx(), b.Dy(); w > 0 && h > 0 {
		g.Scale(p.Bounds.Width/float64(w), p.Bounds.Height/float64(h))
	}
	g.Translate(p.Bounds.X, p.Bounds.Y)
	g.Concat(matrixGeoM(d.view.Matrix.Mul3(p.Transform)))
	return g
}

// ProcessRenderQueue is a no-op: EbitenDevice draws in Render.
func (d *EbitenDevice) ProcessRenderQueue(context.Context) error {
	return nil
}

// EndFrame resets the per-frame draw counter.
func (d *EbitenDevice) EndFrame() {
	d.lastCalls = d.drawCalls
	d.drawCalls = 0
}

// DrawCalls returns the number of draw calls issued in the last completed frame.
func (d *EbitenDevice) DrawCalls() int {
	return d.lastCalls
}

// matrixGeoM converts a column-major affine matrix into an ebiten.GeoM.
func matrixGeoM(m mgl64.Mat3) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[3])
	g.SetElement(1, 1, m[4])
	g.SetElement(0, 2, m[6])
	g.SetElement(1, 2, m[7])
	return g
}

// colorScale converts a straight-alpha color into ebiten's premultiplied scale.
func colorScale(c Color) ebiten.ColorScale {
	var cs ebiten.ColorScale
	a := float32(c.A)
	cs.Scale(float32(c.R)*a, float32(c.G)*a, float32(c.B)*a, a)
	return cs
}

var (
	_ RenderDevice = (*EbitenDevice)(nil)
	_ RenderDevice = (*QueuedDevice)(nil)
)

// errDeviceTarget wraps a draw failure with the target size, used by Game.
func errDeviceTarget(err error, target *ebiten.Image) error {
	if target == nil {
		return err
	}
	b := target.Bounds()
	return errors.Wrapf(err, "draw onto %dx%d target", b.Dx(), b.Dy())
}
