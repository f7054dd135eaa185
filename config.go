package thicket

import (
	"io"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration, usually loaded from YAML:
//
//	app_name: demo
//	profile: multi_threaded
//	time_per_frame: 16ms
//	log_level: debug
//	frame_buffers: 3
//	window: {title: Demo, width: 800, height: 600}
//	world: {bounds: {x: 0, y: 0, width: 4096, height: 4096}, quad_depth: 5}
//	camera: {x: 400, y: 300, zoom: 1, rotation_degrees: 0}
type Config struct {
	AppName      string        `yaml:"app_name"`
	Profile      string        `yaml:"profile"`
	TimePerFrame time.Duration `yaml:"time_per_frame"`
	LogLevel     string        `yaml:"log_level"`
	FrameBuffers int           `yaml:"frame_buffers"`
	Debug        bool          `yaml:"debug"`
	Window       WindowConfig  `yaml:"window"`
	World        WorldConfig   `yaml:"world"`
	Camera       CameraConfig  `yaml:"camera"`
}

// WindowConfig is the window section of Config.
type WindowConfig struct {
	Title   string `yaml:"title"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	ShowFPS bool   `yaml:"show_fps"`
}

// WorldConfig sizes the spatial index of states built from the config.
type WorldConfig struct {
	Bounds    RectConfig `yaml:"bounds"`
	QuadDepth int        `yaml:"quad_depth"`
}

// RectConfig is a Rect as written in YAML.
type RectConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Rect converts to a Rect.
func (r RectConfig) Rect() Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// CameraConfig is the initial camera. Rotation is written in degrees.
type CameraConfig struct {
	X               float64 `yaml:"x"`
	Y               float64 `yaml:"y"`
	Zoom            float64 `yaml:"zoom"`
	RotationDegrees float64 `yaml:"rotation_degrees"`
}

// Rotation returns the camera rotation in radians.
func (c CameraConfig) Rotation() float64 {
	return normalizeAngle(c.RotationDegrees * math.Pi / 180)
}

// DefaultConfig returns the configuration used for absent keys.
func DefaultConfig() Config {
	return Config{
		AppName:      "thicket",
		Profile:      ProfileSingleThreaded.String(),
		TimePerFrame: time.Second / 60,
		LogLevel:     LevelInfo.String(),
		FrameBuffers: DefaultFrameBuffers,
		Window:       WindowConfig{Title: "thicket", Width: 640, Height: 480},
		World: WorldConfig{
			Bounds:    RectConfig{Width: 4096, Height: 4096},
			QuadDepth: 4,
		},
		Camera: CameraConfig{X: 320, Y: 240, Zoom: 1},
	}
}

// LoadConfig decodes YAML from r over DefaultConfig and validates the
// result. Unknown keys are rejected. An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads and decodes the YAML file at path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "open config")
	}
	defer f.Close()
	cfg, err := LoadConfig(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate reports the first invalid setting, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if _, ok := ParseProfile(c.Profile); !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown profile %q", c.Profile)
	}
	if _, ok := ParseLogLevel(c.LogLevel); !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown log level %q", c.LogLevel)
	}
	if c.TimePerFrame <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "time_per_frame must be positive, got %v", c.TimePerFrame)
	}
	if c.FrameBuffers < 2 {
		return errors.Wrapf(ErrInvalidConfig, "frame_buffers must be at least 2, got %d", c.FrameBuffers)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if b := c.World.Bounds; b.Width <= 0 || b.Height <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "world bounds %vx%v", b.Width, b.Height)
	}
	if c.World.QuadDepth < 0 || c.World.QuadDepth > maxQuadDepth {
		return errors.Wrapf(ErrInvalidConfig, "quad_depth must be in [0, %d], got %d", maxQuadDepth, c.World.QuadDepth)
	}
	if c.Camera.Zoom <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "camera zoom must be positive, got %v", c.Camera.Zoom)
	}
	return nil
}

// ProfileKind returns the parsed profile.
func (c Config) ProfileKind() Profile {
	p, _ := ParseProfile(c.Profile)
	return p
}

// Level returns the parsed log level.
func (c Config) Level() LogLevel {
	l, _ := ParseLogLevel(c.LogLevel)
	return l
}

// TPS returns the update rate implied by TimePerFrame.
func (c Config) TPS() int {
	return max(1, int(math.Round(float64(time.Second)/float64(c.TimePerFrame))))
}

// NewLogger builds a logrus backed Logger at the configured level, tagged
// with the application name.
func (c Config) NewLogger() Logger {
	l := logrus.New()
	l.SetLevel(logrusLevel(c.Level()))
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusLogger{entry: l.WithFields(logrus.Fields{"component": "thicket", "app": c.AppName})}
}

// NewWorld builds an empty world wired with the configured logger and debug flag.
func (c Config) NewWorld() *World {
	w := NewWorld()
	w.SetLogger(c.NewLogger())
	w.SetDebug(c.Debug)
	return w
}

// NewSceneState builds a quadtree backed state over the configured world
// bounds, with a camera placed as configured and covering the window.
func (c Config) NewSceneState(updating, rendering bool) *SceneState {
	viewport := Rect{Width: float64(c.Window.Width), Height: float64(c.Window.Height)}
	s := NewQuadSceneState(c.World.Bounds.Rect(), c.World.QuadDepth, viewport, updating, rendering)
	cam := s.Camera()
	cam.X, cam.Y = c.Camera.X, c.Camera.Y
	cam.Zoom = c.Camera.Zoom
	cam.Rotation = c.Camera.Rotation()
	return s
}

// RunConfig converts the window section for Run.
func (c Config) RunConfig() RunConfig {
	return RunConfig{
		Title:   c.Window.Title,
		Width:   c.Window.Width,
		Height:  c.Window.Height,
		TPS:     c.TPS(),
		ShowFPS: c.Window.ShowFPS,
	}
}

// NewFrameLoop builds a headless loop for world rendering into dev.
func (c Config) NewFrameLoop(world *World, dev RenderDevice) *FrameLoop {
	l := NewFrameLoop(world, dev, c.TPS())
	l.TimePerFrame = c.TimePerFrame
	l.Profile = c.ProfileKind()
	l.FrameBuffers = c.FrameBuffers
	return l
}
