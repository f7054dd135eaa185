package thicket

import (
	"slices"

	"github.com/pkg/errors"
)

// SceneState is an independently updatable and renderable layer of a World:
// a set of root nodes, the render system indexing their drawables, and an
// optional camera. States are driven by their world in ascending order.
type SceneState struct {
	system RenderSystem
	camera *Camera
	nodes  []*Node

	updating  bool
	rendering bool

	world *World
	order int

	setupDone bool
}

// NewSceneState creates a state around system. system may be nil for states
// that never render.
func NewSceneState(system RenderSystem, updating, rendering bool) *SceneState {
	s := &SceneState{
		system:    system,
		updating:  updating,
		rendering: rendering,
	}
	if qs, ok := system.(*QuadTreeRenderSystem); ok && qs.OnQuadrantChanged == nil {
		qs.OnQuadrantChanged = s.quadrantChanged
	}
	return s
}

// NewQuadSceneState creates a state with a quadtree render system covering
// area subdivided depth times, and a camera rendering into viewport.
func NewQuadSceneState(area Rect, depth int, viewport Rect, updating, rendering bool) *SceneState {
	s := NewSceneState(NewQuadTreeRenderSystem(NewQuadTree(area, depth)), updating, rendering)
	s.SetCamera(NewCamera(viewport))
	return s
}

// RenderSystem returns the state's render system, or nil.
func (s *SceneState) RenderSystem() RenderSystem {
	return s.system
}

// QuadTree returns the spatial index when the state uses a
// QuadTreeRenderSystem, or nil.
func (s *SceneState) QuadTree() *QuadTree {
	if qs, ok := s.system.(*QuadTreeRenderSystem); ok {
		return qs.Tree()
	}
	return nil
}

// Camera returns the state's camera, or nil.
func (s *SceneState) Camera() *Camera {
	return s.camera
}

// SetCamera sets the camera and hands it to the render system.
func (s *SceneState) SetCamera(c *Camera) {
	s.camera = c
	if s.system != nil {
		s.system.SetCamera(c)
	}
}

// Updating reports whether Loop advances the state.
func (s *SceneState) Updating() bool { return s.updating }

// SetUpdating pauses or resumes the state.
func (s *SceneState) SetUpdating(v bool) { s.updating = v }

// Rendering reports whether Render submits the state.
func (s *SceneState) Rendering() bool { return s.rendering }

// SetRendering hides or shows the state.
func (s *SceneState) SetRendering(v bool) { s.rendering = v }

// World returns the owning world, or nil.
func (s *SceneState) World() *World { return s.world }

// Order returns the state's order in its world.
func (s *SceneState) Order() int { return s.order }

// Nodes returns the root nodes. The returned slice MUST NOT be mutated by the caller.
func (s *SceneState) Nodes() []*Node {
	return s.nodes
}

// AddNode makes n a root of this state. A node that already has a parent or
// belongs to another state is moved. Fails without side effects when n is
// nil, destroyed, or carries a name already taken in the state's world.
func (s *SceneState) AddNode(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.disposed {
		return nodeErr(ErrDisposed, n)
	}
	if n.state == s && n.parent == nil {
		return nil
	}
	if s.world != nil {
		if err := s.world.checkNames(n); err != nil {
			return err
		}
	}
	n.detach()
	s.nodes = append(s.nodes, n)
	markSubtreeDirty(n)
	s.attach(n)
	if s.debug() {
		debugCheckTreeDepth(s.logger(), n)
	}
	return nil
}

// RemoveNode detaches the root n from this state without destroying it.
func (s *SceneState) RemoveNode(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.state != s || n.parent != nil {
		return nodeErr(ErrNotInState, n)
	}
	n.detach()
	return nil
}

// Setup runs node setup for every root that has not been set up yet.
func (s *SceneState) Setup() {
	s.setupDone = true
	for _, n := range slices.Clone(s.nodes) {
		if n.state == s && n.parent == nil {
			n.setupCall(s)
		}
	}
}

// Loop advances every root by dt seconds, then the camera. No-op while the
// state is not updating.
func (s *SceneState) Loop(dt float64) {
	if !s.updating {
		return
	}
	for _, n := range slices.Clone(s.nodes) {
		if n.state == s && n.parent == nil {
			n.loopCall(s, dt, identityMatrix, false)
		}
	}
	if s.camera != nil {
		s.camera.update(dt)
	}
}

// Render submits the state's drawables to dev. No-op while the state is not
// rendering.
func (s *SceneState) Render(dev RenderDevice) error {
	if !s.rendering {
		return nil
	}
	if s.system == nil {
		return errors.Wrapf(ErrNoRenderSystem, "state %d", s.order)
	}
	if err := s.system.Render(dev); err != nil {
		return errors.Wrapf(err, "state %d", s.order)
	}
	if s.debug() {
		if qs, ok := s.system.(*QuadTreeRenderSystem); ok {
			debugLogRenderStats(s.logger(), s.order, qs.Stats())
		}
	}
	return nil
}

// Destroy destroys every root node.
func (s *SceneState) Destroy() {
	nodes := s.nodes
	s.nodes = nil
	for _, n := range nodes {
		n.dispose()
	}
}

// --- Attachment bookkeeping ---

// attach binds n's subtree to s: registers names with the world and
// drawables with the render system. Callers have already linked n into the
// hierarchy and validated names.
func (s *SceneState) attach(n *Node) {
	n.walk(func(node *Node) {
		node.state = s
		if s.world != nil {
			s.world.claimName(node)
		}
		s.register(node)
	})
	if s.setupDone {
		n.setupCall(s)
	}
	s.emit(Event{Type: EventNodeAttached, Node: n, NodeID: n.ID, Name: n.name})
}

// detachSubtree unbinds n's subtree from s. The hierarchy links are left to the caller.
func (s *SceneState) detachSubtree(n *Node) {
	n.walk(func(node *Node) {
		s.unregister(node)
		if s.world != nil {
			s.world.releaseName(node)
		}
		node.state = nil
	})
	s.emit(Event{Type: EventNodeDetached, Node: n, NodeID: n.ID, Name: n.name})
}

// register hands a drawable, or every tile of a tilemap, to the render
// system with up to date global bounds.
func (s *SceneState) register(n *Node) {
	if n.tilemap != nil {
		n.tilemap.attach(s)
	}
	d := n.drawable
	if d == nil || s.system == nil || d.system != nil {
		return
	}
	n.world = n.GlobalMatrix()
	d.global = TransformRect(n.world, d.local)
	d.system = s.system
	s.system.AddDrawChild(n)
}

func (s *SceneState) unregister(n *Node) {
	if n.tilemap != nil {
		n.tilemap.detach(s)
	}
	d := n.drawable
	if d == nil || d.system == nil {
		return
	}
	d.system.DeleteDrawChild(n)
	d.system = nil
}

func (s *SceneState) removeRoot(n *Node) {
	if i := slices.Index(s.nodes, n); i >= 0 {
		s.nodes = slices.Delete(s.nodes, i, i+1)
	}
}

func (s *SceneState) quadrantChanged(n *Node, from, to QuadID) {
	s.emit(Event{
		Type:   EventQuadrantChanged,
		Node:   n,
		NodeID: n.ID,
		Name:   n.name,
		From:   from,
		To:     to,
		Bounds: n.GlobalBounds(),
	})
}

// emit forwards ev to the world's entity store, if any.
func (s *SceneState) emit(ev Event) {
	if s.world == nil || s.world.store == nil {
		return
	}
	ev.StateOrder = s.order
	s.world.store.EmitEvent(ev)
}

func (s *SceneState) logger() Logger {
	if s.world == nil {
		return NopLogger{}
	}
	return s.world.log
}

func (s *SceneState) debug() bool {
	return s.world != nil && s.world.debug
}
