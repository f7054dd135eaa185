package thicket

import (
	"math"
	"sort"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Animator is anything a Node can drive each tick. Nodes start their
// animators during setup and advance them right after OnLoop.
type Animator interface {
	// Start (re)winds the animation to its beginning.
	Start()
	// Advance moves the animation forward by dt seconds and reports whether
	// it is still playing.
	Advance(dt float64) bool
	// Playing reports whether the animation has started and not yet ended.
	Playing() bool
}

// AnimationCallback is invoked when an Animation's cursor passes its time point.
type AnimationCallback func(n *Node)

type keyframe struct {
	at float64
	fn AnimationCallback
}

// Animation is a timeline of callbacks over a fixed duration. Every callback
// whose time point the cursor passes during an Advance fires in that Advance,
// in time order, even when a large dt skips several of them.
type Animation struct {
	node     *Node
	duration float64
	keys     []keyframe
	next     int
	cursor   float64
	started  bool
	paused   bool
	replay   bool
}

// NewAnimation creates an animation lasting duration seconds.
func NewAnimation(duration float64) *Animation {
	return &Animation{duration: duration}
}

func (a *Animation) bind(n *Node) {
	a.node = n
}

// AddCallback schedules fn at time point at (seconds from start). A second
// callback at the same time point replaces the first.
func (a *Animation) AddCallback(at float64, fn AnimationCallback) *Animation {
	i := sort.Search(len(a.keys), func(i int) bool { return a.keys[i].at >= at })
	if i < len(a.keys) && a.keys[i].at == at {
		a.keys[i].fn = fn
		return a
	}
	a.keys = append(a.keys, keyframe{})
	copy(a.keys[i+1:], a.keys[i:])
	a.keys[i] = keyframe{at: at, fn: fn}
	// A key the cursor already passed waits for the next pass.
	if a.started && (i < a.next || at <= a.cursor) {
		a.next++
	}
	return a
}

// SetReplay makes the animation start over once it reaches the end. Time
// past the end carries into the next pass.
func (a *Animation) SetReplay(replay bool) {
	a.replay = replay
}

// SetPaused freezes or resumes the cursor.
func (a *Animation) SetPaused(paused bool) {
	a.paused = paused
}

// Paused reports whether the animation is paused.
func (a *Animation) Paused() bool {
	return a.paused
}

// Duration returns the animation length in seconds.
func (a *Animation) Duration() float64 {
	return a.duration
}

// Cursor returns the elapsed time since the last Start.
func (a *Animation) Cursor() float64 {
	return a.cursor
}

func (a *Animation) Start() {
	a.started = true
	a.cursor = 0
	a.next = 0
}

// rewind starts the next pass, keeping the time the cursor ran past the end.
func (a *Animation) rewind() {
	if a.duration > 0 {
		a.cursor = math.Mod(a.cursor, a.duration)
	} else {
		a.cursor = 0
	}
	a.next = 0
}

func (a *Animation) Playing() bool {
	return a.started && a.cursor < a.duration
}

func (a *Animation) Advance(dt float64) bool {
	if !a.started || a.paused {
		return a.Playing()
	}
	if a.cursor >= a.duration {
		if !a.replay {
			return false
		}
		a.rewind()
	}
	a.cursor += dt
	for a.next < len(a.keys) && a.keys[a.next].at <= a.cursor {
		k := a.keys[a.next]
		a.next++
		if k.fn != nil {
			k.fn(a.node)
		}
	}
	return a.Playing()
}

// --- Tweens ---

type tweenTarget uint8

const (
	tweenPosition tweenTarget = iota
	tweenScale
	tweenRotation
	tweenColor
)

// TweenGroup animates up to 4 properties of a Node simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenScale,
// TweenRotation, TweenColor) and attach it with Node.AddAnimation, or call
// Advance yourself. Values are applied through the node's setters so the
// node is marked transformed. If the target node is destroyed, the group
// stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	kind   tweenTarget
	target *Node
	Done   bool
}

func (g *TweenGroup) Start() {
	for i := 0; i < g.count; i++ {
		g.tweens[i].Reset()
	}
	g.Done = false
}

func (g *TweenGroup) Playing() bool {
	return !g.Done
}

// Advance moves all tweens forward by dt seconds and applies the values.
func (g *TweenGroup) Advance(dt float64) bool {
	if g.Done {
		return false
	}
	if g.target == nil || g.target.IsDestroyed() {
		g.Done = true
		return false
	}

	var vals [4]float64
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(float32(dt))
		vals[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	switch g.kind {
	case tweenPosition:
		g.target.SetPosition(vals[0], vals[1])
	case tweenScale:
		g.target.SetScale(vals[0], vals[1])
	case tweenRotation:
		g.target.SetRotation(vals[0])
	case tweenColor:
		g.target.SetColor(Color{R: vals[0], G: vals[1], B: vals[2], A: vals[3]})
	}
	return !g.Done
}

// TweenPosition creates a TweenGroup that moves node to (toX, toY) over
// duration seconds using the easing function.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	p := node.Position()
	g := &TweenGroup{count: 2, kind: tweenPosition, target: node}
	g.tweens[0] = gween.New(float32(p.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(p.Y), float32(toY), duration, fn)
	return g
}

// TweenScale creates a TweenGroup that scales node to (toSX, toSY).
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	s := node.Scale()
	g := &TweenGroup{count: 2, kind: tweenScale, target: node}
	g.tweens[0] = gween.New(float32(s.X), float32(toSX), duration, fn)
	g.tweens[1] = gween.New(float32(s.Y), float32(toSY), duration, fn)
	return g
}

// TweenRotation creates a TweenGroup that rotates node to the target angle
// in radians. The tween runs over the raw values, so going from 0 to 3π
// spins one and a half turns.
func TweenRotation(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, kind: tweenRotation, target: node}
	g.tweens[0] = gween.New(float32(node.Rotation()), float32(to), duration, fn)
	return g
}

// TweenColor creates a TweenGroup that animates all four components of the
// node's color. Has no visible effect on non-drawable nodes.
func TweenColor(node *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	c := node.Color()
	g := &TweenGroup{count: 4, kind: tweenColor, target: node}
	g.tweens[0] = gween.New(float32(c.R), float32(to.R), duration, fn)
	g.tweens[1] = gween.New(float32(c.G), float32(to.G), duration, fn)
	g.tweens[2] = gween.New(float32(c.B), float32(to.B), duration, fn)
	g.tweens[3] = gween.New(float32(c.A), float32(to.A), duration, fn)
	return g
}
