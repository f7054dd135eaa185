package thicket

import (
	"context"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
)

// RunConfig configures the window and game loop created by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// TPS is the fixed update rate. Zero uses ebiten's default (60).
	TPS        int
	Background Color
	// ShowFPS adds an FPS/TPS overlay in its own scene state on top of the world.
	ShowFPS bool

	// Textures and Shaders are created when nil.
	Textures *TextureManager
	Shaders  *ShaderManager
}

// fpsOverlayOrder is the state order used by the ShowFPS overlay.
const fpsOverlayOrder = math.MaxInt32

// Game adapts a World to ebiten.Game. Update runs one fixed tick; Draw
// renders every rendering state onto the screen.
type Game struct {
	world    *World
	device   *EbitenDevice
	textures *TextureManager
	shaders  *ShaderManager
	cfg      RunConfig

	setup bool
	err   error
}

// NewGame creates a Game for world. Resource managers missing from cfg are created.
func NewGame(world *World, cfg RunConfig) *Game {
	if cfg.Textures == nil {
		cfg.Textures = NewTextureManager()
	}
	if cfg.Shaders == nil {
		cfg.Shaders = NewShaderManager()
	}
	if cfg.TPS <= 0 {
		cfg.TPS = ebiten.DefaultTPS
	}
	return &Game{
		world:    world,
		device:   NewEbitenDevice(cfg.Textures, cfg.Shaders),
		textures: cfg.Textures,
		shaders:  cfg.Shaders,
		cfg:      cfg,
	}
}

// Device returns the ebiten device the game renders through.
func (g *Game) Device() *EbitenDevice {
	return g.device
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if !g.setup {
		g.setup = true
		if g.cfg.ShowFPS {
			if err := g.addFPSOverlay(); err != nil {
				return err
			}
		}
		g.world.Setup()
	}
	for _, m := range []ResourceManager{g.textures, g.shaders} {
		m.EndFrame()
		if err := m.ProcessLoadQueue(); err != nil {
			logf(g.world.Logger(), LevelError, "%v", err)
		}
		if err := m.ProcessUnloadQueue(); err != nil {
			logf(g.world.Logger(), LevelError, "%v", err)
		}
	}
	g.world.Loop(1 / float64(g.cfg.TPS))
	return nil
}

// Draw implements ebiten.Game. A render failure stops the game on the next Update.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.cfg.Background != (Color{}) {
		screen.Fill(toRGBA(g.cfg.Background))
	}
	g.device.SetTarget(screen)
	if err := g.world.Render(g.device); err != nil && g.err == nil {
		g.err = errDeviceTarget(err, screen)
	}
	_ = g.device.ProcessRenderQueue(context.Background())
	g.device.EndFrame()
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

func (g *Game) addFPSOverlay() error {
	if _, taken := g.world.State(fpsOverlayOrder); taken {
		return nil
	}
	viewport := Rect{Width: float64(g.cfg.Width), Height: float64(g.cfg.Height)}
	overlay := NewQuadSceneState(viewport, 0, viewport, true, true)
	c := overlay.Camera()
	c.X, c.Y = viewport.Width/2, viewport.Height/2
	widget, err := NewFPSWidget(g.textures)
	if err != nil {
		return errors.Wrap(err, "fps overlay")
	}
	if err := overlay.AddNode(widget); err != nil {
		return errors.Wrap(err, "fps overlay")
	}
	return g.world.RegisterState(fpsOverlayOrder, overlay)
}

// Run opens a window and drives world until the window closes or a state
// fails to render.
func Run(world *World, cfg RunConfig) error {
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	g := NewGame(world, cfg)
	ebiten.SetTPS(g.cfg.TPS)
	return ebiten.RunGame(g)
}
