package thicket

import (
	"image"
	"image/color"
	_ "image/png" // register PNG decoding for TextureParams.Path
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
)

// TextureParams describes a texture to load. Exactly one source is used, in
// order of precedence: Image, Path, then a blank Width x Height image filled
// with Fill.
type TextureParams struct {
	Image  image.Image
	Path   string
	Width  int
	Height int
	Fill   Color
}

func validateTextureParams(params any) error {
	p, ok := params.(TextureParams)
	if !ok {
		return errors.Errorf("texture params: unexpected type %T", params)
	}
	if p.Image == nil && p.Path == "" && (p.Width <= 0 || p.Height <= 0) {
		return errors.New("texture params: no image, path or size")
	}
	return nil
}

func createTexture(params any) (*ebiten.Image, error) {
	p := params.(TextureParams)
	switch {
	case p.Image != nil:
		return ebiten.NewImageFromImage(p.Image), nil
	case p.Path != "":
		f, err := os.Open(p.Path)
		if err != nil {
			return nil, errors.Wrap(err, "open texture")
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decode texture %s", p.Path)
		}
		return ebiten.NewImageFromImage(img), nil
	default:
		img := ebiten.NewImage(p.Width, p.Height)
		if p.Fill != (Color{}) {
			img.Fill(toRGBA(p.Fill))
		}
		return img, nil
	}
}

// TextureManager owns ebiten images addressed by TextureID.
type TextureManager struct {
	*resourceTable[*ebiten.Image]
}

// NewTextureManager creates an empty texture manager.
func NewTextureManager() *TextureManager {
	return &TextureManager{
		resourceTable: newResourceTable("texture", validateTextureParams, createTexture,
			func(img *ebiten.Image) { img.Deallocate() }),
	}
}

// Image returns the image for id.
func (m *TextureManager) Image(id TextureID) (*ebiten.Image, error) {
	return m.Get(ResourceID(id))
}

// ShaderParams holds Kage source for a shader.
type ShaderParams struct {
	Source []byte
}

func validateShaderParams(params any) error {
	p, ok := params.(ShaderParams)
	if !ok {
		return errors.Errorf("shader params: unexpected type %T", params)
	}
	if len(p.Source) == 0 {
		return errors.New("shader params: empty source")
	}
	return nil
}

func createShader(params any) (*ebiten.Shader, error) {
	s, err := ebiten.NewShader(params.(ShaderParams).Source)
	if err != nil {
		return nil, errors.Wrap(err, "compile shader")
	}
	return s, nil
}

// ShaderManager owns compiled Kage shaders addressed by ShaderID.
type ShaderManager struct {
	*resourceTable[*ebiten.Shader]
}

// NewShaderManager creates an empty shader manager.
func NewShaderManager() *ShaderManager {
	return &ShaderManager{
		resourceTable: newResourceTable("shader", validateShaderParams, createShader,
			func(s *ebiten.Shader) { s.Deallocate() }),
	}
}

// Shader returns the shader for id.
func (m *ShaderManager) Shader(id ShaderID) (*ebiten.Shader, error) {
	return m.Get(ResourceID(id))
}

func toRGBA(c Color) color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R) * c.A * 255),
		G: uint8(clamp01(c.G) * c.A * 255),
		B: uint8(clamp01(c.B) * c.A * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

var (
	_ ResourceManager = (*TextureManager)(nil)
	_ ResourceManager = (*ShaderManager)(nil)
)
