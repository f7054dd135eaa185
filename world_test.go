package thicket

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	events []Event
}

func (s *recordingStore) EmitEvent(ev Event) { s.events = append(s.events, ev) }

func (s *recordingStore) types() []EventType {
	out := make([]EventType, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func TestWorldRegisterStateOrder(t *testing.T) {
	w := NewWorld()
	s5, s0, s2 := newTestState(), newTestState(), newTestState()
	require.NoError(t, w.RegisterState(5, s5))
	require.NoError(t, w.RegisterState(0, s0))
	require.NoError(t, w.RegisterState(2, s2))

	assert.Equal(t, []*SceneState{s0, s2, s5}, w.States())
	got, ok := w.State(2)
	assert.True(t, ok)
	assert.Equal(t, s2, got)
	assert.Equal(t, 5, s5.Order())
	assert.Equal(t, w, s5.World())
}

func TestWorldRegisterStateErrors(t *testing.T) {
	w := NewWorld()
	s := newTestState()
	require.NoError(t, w.RegisterState(1, s))

	assert.True(t, errors.Is(w.RegisterState(1, newTestState()), ErrDuplicateOrder))
	assert.True(t, errors.Is(w.RegisterState(2, s), ErrStateOwned))
	assert.True(t, errors.Is(w.RegisterState(3, nil), ErrNilState))

	other := NewWorld()
	assert.True(t, errors.Is(other.RegisterState(0, s), ErrStateOwned))
	assert.Len(t, w.States(), 1)
}

func TestWorldRegisterStateDuplicateNames(t *testing.T) {
	w := NewWorld()
	a := newTestState()
	require.NoError(t, a.AddNode(NewNode("hero")))
	require.NoError(t, w.RegisterState(0, a))

	b := newTestState()
	dup := NewNode("hero")
	require.NoError(t, b.AddNode(dup), "detached states don't check names")
	err := w.RegisterState(1, b)
	assert.True(t, errors.Is(err, ErrDuplicateName))
	_, ok := w.State(1)
	assert.False(t, ok)
	assert.Nil(t, b.World())
	assert.NotEqual(t, dup, w.Node("hero"))

	// Collisions inside the incoming state are caught too.
	c := newTestState()
	require.NoError(t, c.AddNode(NewNode("twin")))
	require.NoError(t, c.AddNode(NewNode("twin")))
	assert.True(t, errors.Is(w.RegisterState(2, c), ErrDuplicateName))
	assert.Nil(t, w.Node("twin"))
}

func TestWorldLoopsAndRendersInOrder(t *testing.T) {
	w := NewWorld()
	var order []string
	mkState := func(o int, name string) *SceneState {
		s := newTestState()
		n := NewRect(name, Rect{X: 10, Y: 10, Width: 5, Height: 5}, ColorWhite)
		n.OnLoop = func(n *Node, _ *SceneState, _ float64) { order = append(order, n.Name()) }
		require.NoError(t, s.AddNode(n))
		require.NoError(t, w.RegisterState(o, s))
		return s
	}
	hud := mkState(1, "hud")
	game := mkState(0, "game")

	var worldLoops int
	w.OnLoop = func(*World, float64) {
		worldLoops++
		order = append(order, "world")
	}
	w.Setup()
	w.Loop(0.016)
	assert.Equal(t, []string{"world", "game", "hud"}, order)
	assert.Equal(t, 1, worldLoops)

	dev := &recordingDevice{}
	require.NoError(t, w.Render(dev))
	require.Len(t, dev.submitted, 2)
	assert.Equal(t, game.Nodes()[0].ID, dev.submitted[0].NodeID, "order 0 is submitted first")
	assert.Equal(t, hud.Nodes()[0].ID, dev.submitted[1].NodeID)
	assert.Len(t, dev.views, 2)
}

func TestWorldPausedStateStillRenders(t *testing.T) {
	w := NewWorld()
	bg := newTestState()
	bgNode := NewRect("bg", Rect{Width: 5, Height: 5}, ColorWhite)
	looped := false
	bgNode.OnLoop = func(*Node, *SceneState, float64) { looped = true }
	require.NoError(t, bg.AddNode(bgNode))
	bg.SetUpdating(false)
	require.NoError(t, w.RegisterState(0, bg))

	hidden := newTestState()
	require.NoError(t, hidden.AddNode(NewRect("hidden", Rect{Width: 5, Height: 5}, ColorWhite)))
	hidden.SetRendering(false)
	require.NoError(t, w.RegisterState(1, hidden))

	w.Setup()
	w.Loop(0.016)
	assert.False(t, looped)

	dev := &recordingDevice{}
	require.NoError(t, w.Render(dev))
	assert.Equal(t, []uint32{bgNode.ID}, dev.ids())
}

func TestWorldRenderStopsAtFailingState(t *testing.T) {
	w := NewWorld()
	require.NoError(t, w.RegisterState(0, NewSceneState(nil, true, true)))
	later := newTestState()
	require.NoError(t, later.AddNode(NewRect("later", Rect{Width: 5, Height: 5}, ColorWhite)))
	require.NoError(t, w.RegisterState(1, later))

	dev := &recordingDevice{}
	err := w.Render(dev)
	assert.True(t, errors.Is(err, ErrNoRenderSystem))
	assert.Empty(t, dev.submitted)
}

func TestWorldNamesUnique(t *testing.T) {
	w := NewWorld()
	s := newTestState()
	require.NoError(t, w.RegisterState(0, s))
	hero := NewNode("hero")
	require.NoError(t, s.AddNode(hero))
	assert.Equal(t, hero, w.Node("hero"))

	// AddNode with a taken name fails without side effects.
	dup := NewNode("hero")
	assert.True(t, errors.Is(s.AddNode(dup), ErrDuplicateName))
	assert.Nil(t, dup.State())
	assert.Len(t, s.Nodes(), 1)

	// So does AddChild, even for a name deep in the incoming subtree.
	sub := NewNode("sub")
	require.NoError(t, sub.AddChild(NewNode("hero")))
	assert.True(t, errors.Is(hero.AddChild(sub), ErrDuplicateName))
	assert.Equal(t, 0, hero.NumChildren())
	assert.Nil(t, w.Node("sub"))

	// SetName.
	other := NewNode("other")
	require.NoError(t, s.AddNode(other))
	assert.True(t, errors.Is(other.SetName("hero"), ErrDuplicateName))
	assert.Equal(t, "other", other.Name())
	require.NoError(t, other.SetName("villain"))
	assert.Nil(t, w.Node("other"))
	assert.Equal(t, other, w.Node("villain"))
}

func TestWorldNamesReleased(t *testing.T) {
	w := NewWorld()
	s := newTestState()
	require.NoError(t, w.RegisterState(0, s))

	a := NewNode("a")
	require.NoError(t, s.AddNode(a))
	a.Destroy()
	assert.Nil(t, w.Node("a"))
	require.NoError(t, s.AddNode(NewNode("a")), "names of destroyed nodes are free again")

	b := NewNode("b")
	require.NoError(t, s.AddNode(b))
	require.NoError(t, s.RemoveNode(b))
	assert.Nil(t, w.Node("b"))
	require.NoError(t, s.AddNode(b))
	assert.Equal(t, b, w.Node("b"), "reattaching reclaims the name")
}

func TestWorldNamesAcrossStates(t *testing.T) {
	w := NewWorld()
	s0, s1 := newTestState(), newTestState()
	require.NoError(t, w.RegisterState(0, s0))
	require.NoError(t, w.RegisterState(1, s1))

	require.NoError(t, s0.AddNode(NewNode("shared")))
	assert.True(t, errors.Is(s1.AddNode(NewNode("shared")), ErrDuplicateName))

	// Empty names are never registered.
	require.NoError(t, s0.AddNode(NewNode("")))
	require.NoError(t, s1.AddNode(NewNode("")))
}

func TestWorldReparent(t *testing.T) {
	w := NewWorld()
	s := newTestState()
	require.NoError(t, w.RegisterState(0, s))
	parent := NewNode("parent")
	child := NewNode("child")
	require.NoError(t, s.AddNode(parent))
	require.NoError(t, s.AddNode(child))

	assert.True(t, errors.Is(w.Reparent(child, nil), ErrNilParent))
	assert.True(t, errors.Is(w.Reparent(nil, parent), ErrNilNode))

	require.NoError(t, w.Reparent(child, parent))
	assert.Equal(t, parent, child.Parent())
	assert.Equal(t, []*Node{parent}, s.Nodes())
	require.NoError(t, w.Reparent(child, parent), "same parent is a no-op")
	assert.Equal(t, 1, parent.NumChildren())

	assert.True(t, errors.Is(w.Reparent(parent, child), ErrCycle))
}

func TestWorldReparentToState(t *testing.T) {
	w := NewWorld()
	s0, s1 := newTestState(), newTestState()
	require.NoError(t, w.RegisterState(0, s0))
	require.NoError(t, w.RegisterState(1, s1))

	n := NewRect("n", Rect{X: 10, Y: 10, Width: 5, Height: 5}, ColorWhite)
	require.NoError(t, s0.AddNode(n))

	assert.True(t, errors.Is(w.ReparentToState(n, 7), ErrUnknownState))
	assert.True(t, errors.Is(w.ReparentToState(nil, 1), ErrNilNode))
	assert.Equal(t, s0, n.State())

	require.NoError(t, w.ReparentToState(n, 1))
	assert.Equal(t, s1, n.State())
	assert.Equal(t, 0, s0.QuadTree().Total())
	assert.Equal(t, 1, s1.QuadTree().Total())
	assert.Equal(t, n, w.Node("n"), "the name moves with the node")
}

func TestWorldRemoveState(t *testing.T) {
	w := NewWorld()
	s := newTestState()
	n := NewRect("n", Rect{Width: 5, Height: 5}, ColorWhite)
	require.NoError(t, s.AddNode(n))
	require.NoError(t, w.RegisterState(0, s))

	assert.True(t, errors.Is(w.RemoveState(9), ErrUnknownState))
	require.NoError(t, w.RemoveState(0))
	assert.Empty(t, w.States())
	assert.Nil(t, s.World())
	assert.True(t, n.IsDestroyed())
	assert.Nil(t, w.Node("n"))

	require.NoError(t, w.RegisterState(0, newTestState()), "the order is free again")
}

func TestWorldDestroy(t *testing.T) {
	w := NewWorld()
	for i := 0; i < 3; i++ {
		require.NoError(t, w.RegisterState(i, newTestState()))
	}
	w.Destroy()
	assert.Empty(t, w.States())
}

func TestWorldSetupOrder(t *testing.T) {
	w := NewWorld()
	var order []string
	w.OnSetup = func(*World) { order = append(order, "world") }
	for i, name := range []string{"first", "second"} {
		s := newTestState()
		n := NewNode(name)
		n.OnSetup = func(n *Node, _ *SceneState) { order = append(order, n.Name()) }
		require.NoError(t, s.AddNode(n))
		require.NoError(t, w.RegisterState(i, s))
	}
	w.Setup()
	assert.Equal(t, []string{"world", "first", "second"}, order)
}

func TestWorldEntityStoreEvents(t *testing.T) {
	w := NewWorld()
	store := &recordingStore{}
	w.SetEntityStore(store)
	s := newTestState()
	require.NoError(t, w.RegisterState(4, s))

	n := NewRect("n", Rect{X: 10, Y: 10, Width: 5, Height: 5}, ColorWhite)
	require.NoError(t, s.AddNode(n))
	n.SetPosition(50, 50)
	s.Loop(0.016)
	require.NoError(t, s.RemoveNode(n))
	require.NoError(t, s.AddNode(n))
	n.Destroy()
	require.NoError(t, w.RemoveState(4))

	assert.Equal(t, []EventType{
		EventStateRegistered,
		EventQuadrantChanged, // placed on attach
		EventNodeAttached,
		EventQuadrantChanged, // moved by the loop
		EventNodeDetached,
		EventQuadrantChanged,
		EventNodeAttached,
		EventNodeDestroyed,
		EventStateRemoved,
	}, store.types())
	for _, ev := range store.events {
		assert.Equal(t, 4, ev.StateOrder)
	}
	moved := store.events[3]
	assert.Equal(t, n.ID, moved.NodeID)
	assert.Equal(t, "n", moved.Name)
	assertRect(t, "bounds", moved.Bounds, Rect{X: 60, Y: 60, Width: 5, Height: 5})
	assert.NotEqual(t, moved.From, moved.To)

	w.SetEntityStore(nil)
	require.NoError(t, w.RegisterState(0, newTestState()))
	assert.Len(t, store.events, 9)
}

func TestWorldLogger(t *testing.T) {
	w := NewWorld()
	assert.IsType(t, NopLogger{}, w.Logger())
	w.SetLogger(nil)
	assert.IsType(t, NopLogger{}, w.Logger())
}
