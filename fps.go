package thicket

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// NewFPSWidget creates a sprite node that displays the current FPS and TPS.
// Its texture is allocated through textures and redrawn every ~0.5 seconds
// while the owning state is updating. The node renders on the topmost layer.
func NewFPSWidget(textures *TextureManager) (*Node, error) {
	// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
	id, err := textures.LoadNow(TextureParams{Width: 100, Height: 32})
	if err != nil {
		return nil, err
	}
	img, err := textures.Image(TextureID(id))
	if err != nil {
		return nil, err
	}

	node := NewSprite("fps_widget", TextureID(id), Rect{Width: 100, Height: 32})
	node.SetLayer(math.MaxInt32)

	var lastUpdate float64
	node.OnLoop = func(_ *Node, _ *SceneState, dt float64) {
		lastUpdate += dt
		if lastUpdate < 0.5 {
			return
		}
		lastUpdate = 0

		img.Clear()
		// Semi-transparent background for readability
		img.Fill(color.RGBA{0, 0, 0, 128})

		fps := ebiten.ActualFPS()
		tps := ebiten.ActualTPS()
		ebitenutil.DebugPrint(img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", fps, tps))
	}

	return node, nil
}
