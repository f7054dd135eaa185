package thicket

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

// --- Animation timeline ---

func TestAnimationNotPlayingBeforeStart(t *testing.T) {
	a := NewAnimation(1)
	fired := 0
	a.AddCallback(0, func(*Node) { fired++ })
	assert.False(t, a.Playing())
	assert.False(t, a.Advance(0.5))
	assert.Equal(t, 0, fired)
}

func TestAnimationFiresEveryPassedCallback(t *testing.T) {
	a := NewAnimation(1)
	var got []float64
	for _, at := range []float64{0.1, 0.2, 0.3, 0.9} {
		at := at
		a.AddCallback(at, func(*Node) { got = append(got, at) })
	}
	a.Start()

	// A single large step passes three time points; all fire, in order.
	assert.True(t, a.Advance(0.35))
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, got)

	assert.True(t, a.Advance(0.1))
	assert.Len(t, got, 3)

	assert.False(t, a.Advance(1))
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.9}, got)
}

func TestAnimationCallbackOrderIndependentOfInsertion(t *testing.T) {
	a := NewAnimation(1)
	var got []string
	a.AddCallback(0.5, func(*Node) { got = append(got, "late") })
	a.AddCallback(0.1, func(*Node) { got = append(got, "early") })
	a.Start()
	a.Advance(1)
	assert.Equal(t, []string{"early", "late"}, got)
}

func TestAnimationSameTimePointReplaces(t *testing.T) {
	a := NewAnimation(1)
	var got []string
	a.AddCallback(0.5, func(*Node) { got = append(got, "first") })
	a.AddCallback(0.5, func(*Node) { got = append(got, "second") })
	a.Start()
	a.Advance(1)
	assert.Equal(t, []string{"second"}, got)
}

func TestAnimationHaltsAtEndWithoutReplay(t *testing.T) {
	a := NewAnimation(0.5)
	fired := 0
	a.AddCallback(0.25, func(*Node) { fired++ })
	a.Start()
	a.Advance(0.6)
	assert.False(t, a.Playing())
	for i := 0; i < 5; i++ {
		assert.False(t, a.Advance(0.5))
	}
	assert.Equal(t, 1, fired)
}

func TestAnimationReplay(t *testing.T) {
	a := NewAnimation(0.5)
	a.SetReplay(true)
	fired := 0
	a.AddCallback(0.25, func(*Node) { fired++ })
	a.Start()

	a.Advance(0.5)
	assert.Equal(t, 1, fired)
	// The next advance restarts from zero.
	assert.True(t, a.Advance(0.3))
	assert.Equal(t, 2, fired)
	assertNear(t, "cursor", a.Cursor(), 0.3)
}

func TestAnimationReplayCarriesOvershoot(t *testing.T) {
	a := NewAnimation(0.5)
	a.SetReplay(true)
	fired := 0
	a.AddCallback(0.25, func(*Node) { fired++ })
	a.Start()

	a.Advance(0.6)
	assert.Equal(t, 1, fired)
	// 0.1 past the end carries into the second pass.
	assert.True(t, a.Advance(0.3))
	assert.Equal(t, 2, fired)
	assertNear(t, "cursor", a.Cursor(), 0.4)
}

func TestAnimationCallbackAddedBehindCursorWaitsForNextPass(t *testing.T) {
	a := NewAnimation(1)
	a.SetReplay(true)
	fired := 0
	a.Start()
	a.Advance(0.5)

	a.AddCallback(0.3, func(*Node) { fired++ })
	a.Advance(0.1)
	assert.Equal(t, 0, fired, "already passed in this pass")

	a.Advance(0.5)
	assert.Equal(t, 0, fired)
	a.Advance(0.3)
	assert.Equal(t, 1, fired, "fires in the next pass")
}

func TestAnimationCallbackAddedAheadOfCursorFires(t *testing.T) {
	a := NewAnimation(1)
	var got []float64
	a.AddCallback(0.2, func(*Node) { got = append(got, 0.2) })
	a.Start()
	a.Advance(0.3)

	a.AddCallback(0.6, func(*Node) { got = append(got, 0.6) })
	a.Advance(0.4)
	assert.Equal(t, []float64{0.2, 0.6}, got)
}

func TestAnimationPause(t *testing.T) {
	a := NewAnimation(1)
	fired := 0
	a.AddCallback(0.1, func(*Node) { fired++ })
	a.Start()
	a.SetPaused(true)
	assert.True(t, a.Paused())
	a.Advance(0.5)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 0.0, a.Cursor())
	a.SetPaused(false)
	a.Advance(0.5)
	assert.Equal(t, 1, fired)
}

func TestAnimationCallbackReceivesNode(t *testing.T) {
	s := newTestState()
	n := NewNode("spinner")
	var got *Node
	n.AddAnimation("spin", NewAnimation(1).AddCallback(0, func(node *Node) { got = node }))
	require.NoError(t, s.AddNode(n))
	s.Setup()
	s.Loop(0.1)
	assert.Equal(t, n, got)
}

func TestNodeAnimationsStartAtSetup(t *testing.T) {
	s := newTestState()
	n := NewNode("n")
	a := NewAnimation(1)
	n.AddAnimation("a", a)
	require.NoError(t, s.AddNode(n))
	assert.False(t, a.Playing())
	s.Setup()
	assert.True(t, a.Playing())
}

func TestNodeAnimationsAdvanceAfterLoopCallback(t *testing.T) {
	s := newTestState()
	n := NewNode("n")
	var order []string
	n.OnLoop = func(*Node, *SceneState, float64) { order = append(order, "loop") }
	n.AddAnimation("a", NewAnimation(1).AddCallback(0, func(*Node) { order = append(order, "anim") }))
	require.NoError(t, s.AddNode(n))
	s.Loop(0.1)
	assert.Equal(t, []string{"loop", "anim"}, order)
}

func TestNodeAnimationRegistry(t *testing.T) {
	n := NewNode("n")
	a := NewAnimation(1)
	b := NewAnimation(2)
	n.AddAnimation("x", a)
	assert.Equal(t, Animator(a), n.Animation("x"))
	n.AddAnimation("x", b)
	assert.Equal(t, Animator(b), n.Animation("x"))
	assert.Len(t, n.animationOrder, 1)
	n.RemoveAnimation("x")
	assert.Nil(t, n.Animation("x"))
	n.RemoveAnimation("x") // absent: no-op
}

func TestAddAnimationAfterSetupStarts(t *testing.T) {
	s := newTestState()
	n := NewNode("n")
	require.NoError(t, s.AddNode(n))
	s.Setup()
	a := NewAnimation(1)
	n.AddAnimation("late", a)
	assert.True(t, a.Playing())
}

// --- Tweens ---

func TestTweenPositionReachesTarget(t *testing.T) {
	node := NewNode("pos")
	node.SetPosition(10, 20)

	g := TweenPosition(node, 100, 200, 1.0, ease.Linear)

	// Run for full duration using exact halves to avoid float32 accumulation drift.
	g.Advance(0.5)
	g.Advance(0.5)

	require.True(t, g.Done)
	assert.InDelta(t, 100, node.Position().X, 0.5)
	assert.InDelta(t, 200, node.Position().Y, 0.5)
}

func TestTweenScaleReachesTarget(t *testing.T) {
	node := NewNode("scale")
	g := TweenScale(node, 2.0, 3.0, 0.5, ease.Linear)
	g.Advance(0.25)
	g.Advance(0.25)
	require.True(t, g.Done)
	assert.InDelta(t, 2.0, node.Scale().X, 0.01)
	assert.InDelta(t, 3.0, node.Scale().Y, 0.01)
}

func TestTweenRotationReachesTarget(t *testing.T) {
	node := NewNode("rot")
	tw := TweenRotation(node, math.Pi, 1.0, ease.Linear)
	tw.Advance(0.5)
	tw.Advance(0.5)
	require.True(t, tw.Done)
	assert.InDelta(t, math.Pi, node.Rotation(), 0.05)
}

func TestTweenColorAllComponents(t *testing.T) {
	node := NewRect("color", Rect{Width: 1, Height: 1}, Color{R: 1, G: 0, B: 0, A: 1})
	target := Color{R: 0, G: 1, B: 0.5, A: 0.5}

	g := TweenColor(node, target, 1.0, ease.Linear)
	g.Advance(0.5)
	assert.InDelta(t, 0.5, node.Color().R, 0.05, "halfway")
	g.Advance(0.5)

	require.True(t, g.Done)
	c := node.Color()
	assert.InDelta(t, target.R, c.R, 0.01)
	assert.InDelta(t, target.G, c.G, 0.01)
	assert.InDelta(t, target.B, c.B, 0.01)
	assert.InDelta(t, target.A, c.A, 0.01)
}

func TestTweenGroupDoneFlagTransition(t *testing.T) {
	node := NewNode("done")
	g := TweenPosition(node, 50, 50, 0.5, ease.Linear)
	require.False(t, g.Done)

	assert.True(t, g.Advance(0.25))
	assert.False(t, g.Done)
	assert.False(t, g.Advance(0.25))
	assert.True(t, g.Done)

	// Advance after done is a no-op.
	assert.False(t, g.Advance(0.1))
	assert.True(t, g.Done)

	// Start rewinds.
	g.Start()
	assert.True(t, g.Playing())
}

func TestTweenGroupMarksTransformed(t *testing.T) {
	node := NewNode("dirty")
	node.transformed = false
	g := TweenPosition(node, 100, 100, 1.0, ease.Linear)
	g.Advance(0.1)
	assert.True(t, node.transformed)
}

func TestTweenGroupStopsOnDestroyedTarget(t *testing.T) {
	node := NewNode("gone")
	g := TweenPosition(node, 100, 100, 1.0, ease.Linear)
	node.Destroy()
	assert.False(t, g.Advance(0.1))
	assert.True(t, g.Done)
}

func TestTweenDrivenByNode(t *testing.T) {
	s := newTestState()
	n := NewRect("mover", Rect{Width: 2, Height: 2}, ColorWhite)
	require.NoError(t, s.AddNode(n))
	n.AddAnimation("move", TweenPosition(n, 40, 0, 1.0, ease.Linear))
	s.Setup()
	s.Loop(0.5)
	s.Loop(0.5)
	assert.InDelta(t, 40, n.GlobalBounds().X, 0.5)
}
