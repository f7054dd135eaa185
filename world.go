package thicket

import (
	"slices"

	"github.com/pkg/errors"
)

// World is the top-level container: an ordered collection of scene states
// plus a registry of node names that is unique across all of them. States
// with a lower order are looped and rendered first.
type World struct {
	states map[int]*SceneState
	orders []int
	names  map[string]*Node

	store EntityStore
	log   Logger
	debug bool

	// OnSetup runs at the start of Setup, before any state.
	OnSetup func(w *World)
	// OnLoop runs at the start of every Loop, before any state.
	OnLoop func(w *World, dt float64)
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		states: make(map[int]*SceneState),
		names:  make(map[string]*Node),
		log:    NopLogger{},
	}
}

// SetLogger sets the diagnostics sink. nil restores the no-op logger.
func (w *World) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	w.log = l
}

// Logger returns the diagnostics sink.
func (w *World) Logger() Logger {
	return w.log
}

// SetDebug enables runtime checks (tree depth, child counts) and per-frame
// render statistics at debug level.
func (w *World) SetDebug(enabled bool) {
	w.debug = enabled
}

// SetEntityStore sets the store that receives engine events. nil disables forwarding.
func (w *World) SetEntityStore(store EntityStore) {
	w.store = store
}

// RegisterState adds s at the given order. Fails without side effects when s
// is nil, the order is taken, s already belongs to a world, or a node name in
// s collides with one already registered.
func (w *World) RegisterState(order int, s *SceneState) error {
	if s == nil {
		return ErrNilState
	}
	if _, taken := w.states[order]; taken {
		return errors.Wrapf(ErrDuplicateOrder, "order %d", order)
	}
	if s.world != nil {
		return errors.Wrapf(ErrStateOwned, "order %d", s.order)
	}
	seen := make(map[string]*Node)
	for _, root := range s.nodes {
		if err := w.checkNamesInto(root, seen); err != nil {
			return err
		}
	}

	w.states[order] = s
	i, _ := slices.BinarySearch(w.orders, order)
	w.orders = slices.Insert(w.orders, i, order)
	s.world = w
	s.order = order
	for _, root := range s.nodes {
		root.walk(w.claimName)
	}
	logf(w.log, LevelDebug, "registered scene state %d (%d roots)", order, len(s.nodes))
	s.emit(Event{Type: EventStateRegistered})
	return nil
}

// State returns the state registered at order.
func (w *World) State(order int) (*SceneState, bool) {
	s, ok := w.states[order]
	return s, ok
}

// States returns the registered states in ascending order.
func (w *World) States() []*SceneState {
	out := make([]*SceneState, 0, len(w.orders))
	for _, o := range w.orders {
		out = append(out, w.states[o])
	}
	return out
}

// RemoveState destroys the state registered at order and removes it.
func (w *World) RemoveState(order int) error {
	s, ok := w.states[order]
	if !ok {
		return errors.Wrapf(ErrUnknownState, "order %d", order)
	}
	s.Destroy()
	s.emit(Event{Type: EventStateRemoved})
	delete(w.states, order)
	w.orders = slices.DeleteFunc(w.orders, func(o int) bool { return o == order })
	s.world = nil
	logf(w.log, LevelDebug, "removed scene state %d", order)
	return nil
}

// Setup runs OnSetup, then Setup on every state in ascending order.
func (w *World) Setup() {
	if w.OnSetup != nil {
		w.OnSetup(w)
	}
	for _, s := range w.States() {
		s.Setup()
	}
}

// Loop runs OnLoop, then Loop on every updating state in ascending order.
func (w *World) Loop(dt float64) {
	if w.OnLoop != nil {
		w.OnLoop(w, dt)
	}
	for _, s := range w.States() {
		if s.world == w && s.updating {
			s.Loop(dt)
		}
	}
}

// Render renders every rendering state in ascending order. Stops at the
// first failing state.
func (w *World) Render(dev RenderDevice) error {
	for _, o := range w.orders {
		s := w.states[o]
		if !s.rendering {
			continue
		}
		if err := s.Render(dev); err != nil {
			return err
		}
	}
	return nil
}

// Node returns the node registered under name, or nil.
func (w *World) Node(name string) *Node {
	return w.names[name]
}

// Reparent moves node under parent, detaching it from wherever it was.
func (w *World) Reparent(node, parent *Node) error {
	if parent == nil {
		return ErrNilParent
	}
	if node == nil {
		return ErrNilNode
	}
	if node.parent == parent {
		return nil
	}
	return parent.AddChild(node)
}

// ReparentToState makes node a root of the state registered at order.
func (w *World) ReparentToState(node *Node, order int) error {
	if node == nil {
		return ErrNilNode
	}
	s, ok := w.states[order]
	if !ok {
		return errors.Wrapf(ErrUnknownState, "order %d", order)
	}
	return s.AddNode(node)
}

// Destroy removes and destroys every state.
func (w *World) Destroy() {
	for _, o := range slices.Clone(w.orders) {
		_ = w.RemoveState(o)
	}
}

// --- Name registry ---

// checkNames reports whether n's subtree can join this world without a name collision.
func (w *World) checkNames(n *Node) error {
	return w.checkNamesInto(n, make(map[string]*Node))
}

func (w *World) checkNamesInto(n *Node, seen map[string]*Node) error {
	var err error
	n.walk(func(node *Node) {
		if err != nil || node.name == "" {
			return
		}
		if owner, ok := w.names[node.name]; ok && owner != node {
			err = nodeErr(ErrDuplicateName, node)
			return
		}
		if other, ok := seen[node.name]; ok && other != node {
			err = nodeErr(ErrDuplicateName, node)
			return
		}
		seen[node.name] = node
	})
	return err
}

func (w *World) claimName(n *Node) {
	if n.name != "" {
		w.names[n.name] = n
	}
}

func (w *World) releaseName(n *Node) {
	if n.name != "" && w.names[n.name] == n {
		delete(w.names, n.name)
	}
}

func (w *World) rename(n *Node, name string) error {
	if name != "" {
		if owner, ok := w.names[name]; ok && owner != n {
			return errors.Wrapf(ErrDuplicateName, "rename %q to %q", n.label(), name)
		}
	}
	w.releaseName(n)
	if name != "" {
		w.names[name] = n
	}
	return nil
}
