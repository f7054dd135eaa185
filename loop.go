package thicket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Profile selects how FrameLoop splits update and render work.
type Profile uint8

const (
	// ProfileSingleThreaded updates, renders and presents on one goroutine.
	ProfileSingleThreaded Profile = iota
	// ProfileMultiThreaded records frames through a QueuedDevice on the
	// update goroutine and replays them on a dedicated render goroutine.
	ProfileMultiThreaded
)

func (p Profile) String() string {
	switch p {
	case ProfileSingleThreaded:
		return "single_threaded"
	case ProfileMultiThreaded:
		return "multi_threaded"
	default:
		return "unknown"
	}
}

// ParseProfile converts a profile name as written in configuration files.
func ParseProfile(s string) (Profile, bool) {
	switch s {
	case "single_threaded", "single", "":
		return ProfileSingleThreaded, true
	case "multi_threaded", "multi":
		return ProfileMultiThreaded, true
	}
	return ProfileSingleThreaded, false
}

// FrameLoop drives a World with a fixed timestep outside of ebiten: each
// iteration runs as many fixed ticks as the elapsed time allows, then
// renders once. Useful for servers, tools and tests.
type FrameLoop struct {
	World  *World
	Device RenderDevice

	TimePerFrame time.Duration
	Profile      Profile
	// FrameBuffers is the number of frame slots in the multi-threaded profile.
	FrameBuffers int
	// MaxStepsPerFrame caps catch-up ticks after a stall. Zero means unlimited.
	MaxStepsPerFrame int
	// OnFrame runs on the update goroutine after every rendered frame.
	OnFrame func(frame uint64)

	now   func() time.Time
	sleep func(time.Duration)

	stopped atomic.Bool
	frames  atomic.Uint64
	ticks   atomic.Uint64
}

// NewFrameLoop creates a loop ticking at tps updates per second.
func NewFrameLoop(world *World, dev RenderDevice, tps int) *FrameLoop {
	if tps <= 0 {
		tps = 60
	}
	return &FrameLoop{
		World:        world,
		Device:       dev,
		TimePerFrame: time.Second / time.Duration(tps),
		FrameBuffers: DefaultFrameBuffers,
		now:          time.Now,
		sleep:        time.Sleep,
	}
}

// Stop asks Run to return after the current iteration. Safe to call from any goroutine.
func (l *FrameLoop) Stop() {
	l.stopped.Store(true)
}

// Frames returns the number of frames rendered so far.
func (l *FrameLoop) Frames() uint64 {
	return l.frames.Load()
}

// Ticks returns the number of fixed updates run so far.
func (l *FrameLoop) Ticks() uint64 {
	return l.ticks.Load()
}

// Run sets up the world and loops until Stop is called, ctx is done, or a
// state fails to render.
func (l *FrameLoop) Run(ctx context.Context) error {
	if l.World == nil {
		return errors.New("frame loop: nil world")
	}
	if l.Device == nil {
		return errors.New("frame loop: nil device")
	}
	if l.TimePerFrame <= 0 {
		return errors.Wrap(ErrInvalidConfig, "frame loop: time per frame must be positive")
	}
	l.stopped.Store(false)
	logf(l.World.Logger(), LevelInfo, "frame loop starting (%s, %v per tick)", l.Profile, l.TimePerFrame)

	switch l.Profile {
	case ProfileMultiThreaded:
		return l.runMulti(ctx)
	default:
		return l.run(ctx, l.Device, func(ctx context.Context) error {
			if err := l.Device.ProcessRenderQueue(ctx); err != nil {
				return err
			}
			l.Device.EndFrame()
			return nil
		})
	}
}

func (l *FrameLoop) runMulti(ctx context.Context) error {
	q := NewQueuedDevice(l.Device, l.FrameBuffers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			err := q.ProcessRenderQueue(gctx)
			if errors.Is(err, ErrDeviceClosed) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		defer q.Close()
		return l.run(gctx, q, q.EndFrameContext)
	})

	return g.Wait()
}

// run is the fixed-step loop shared by both profiles. present hands the
// rendered frame to the backend.
func (l *FrameLoop) run(ctx context.Context, dev RenderDevice, present func(context.Context) error) error {
	l.World.Setup()

	step := l.TimePerFrame
	prev := l.now()
	var acc time.Duration

	for !l.stopped.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := l.now()
		acc += now.Sub(prev)
		prev = now

		steps := 0
		for acc >= step && !l.stopped.Load() {
			l.World.Loop(step.Seconds())
			l.ticks.Add(1)
			acc -= step
			steps++
			if l.MaxStepsPerFrame > 0 && steps >= l.MaxStepsPerFrame {
				acc = 0
				break
			}
		}

		if err := l.World.Render(dev); err != nil {
			return err
		}
		if err := present(ctx); err != nil {
			return err
		}
		frame := l.frames.Add(1)
		if l.OnFrame != nil {
			l.OnFrame(frame)
		}

		if steps == 0 && !l.stopped.Load() {
			l.sleep(step - acc)
		}
	}
	logf(l.World.Logger(), LevelInfo, "frame loop stopped after %d frames", l.frames.Load())
	return nil
}
