package thicket

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// nodeIDCounter is a plain counter. The scene graph is single-threaded.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the fundamental scene graph element. A node exclusively owns its
// children; destroying a node destroys its whole subtree. Drawing is an
// optional capability (see NewSprite and NewRect) rather than a subtype.
type Node struct {
	Transform

	// Identity
	ID   uint32
	Type NodeType
	name string

	// Hierarchy
	parent   *Node
	children []*Node
	state    *SceneState

	// Global matrix, refreshed by the update loop when the node or an
	// ancestor was transformed.
	world mgl64.Mat3

	drawable *drawable
	tilemap  *tilemap

	animations     map[string]Animator
	animationOrder []string

	signals signalTable

	// OnSetup runs once, before the node's first loop.
	OnSetup func(n *Node, s *SceneState)
	// OnLoop runs every tick while the owning state is updating.
	OnLoop func(n *Node, s *SceneState, dt float64)

	UserData any

	setupDone bool
	disposed  bool
}

func newNode(name string, typ NodeType) *Node {
	return &Node{
		Transform: newTransform(),
		ID:        nextNodeID(),
		Type:      typ,
		name:      name,
		world:     identityMatrix,
	}
}

// NewNode creates a container node with no visual representation.
func NewNode(name string) *Node {
	return newNode(name, NodeTypeContainer)
}

// Name returns the node's name. Names are unique within a World.
func (n *Node) Name() string {
	return n.name
}

// label is the name used in diagnostics.
func (n *Node) label() string {
	if n.name == "" {
		return "<unnamed>"
	}
	return n.name
}

// SetName renames the node. If the node belongs to a World, the new name is
// registered there and the old one released; ErrDuplicateName is returned
// (and nothing changes) when another node already holds the name.
func (n *Node) SetName(name string) error {
	if n.disposed {
		return nodeErr(ErrDisposed, n)
	}
	if name == n.name {
		return nil
	}
	if w := n.World(); w != nil {
		if err := w.rename(n, name); err != nil {
			return err
		}
	}
	n.name = name
	return nil
}

// Parent returns the parent node, or nil for roots and detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// State returns the scene state the node belongs to, or nil.
func (n *Node) State() *SceneState {
	return n.state
}

// World returns the world the node belongs to, or nil.
func (n *Node) World() *World {
	if n.state == nil {
		return nil
	}
	return n.state.world
}

// --- Tree manipulation ---

// AddChild appends child to this node's children. If child already has a
// parent (or is a scene state root) it is detached from there first.
// Fails without side effects when child is nil, destroyed, an ancestor of n,
// or carries a name already taken in n's world.
func (n *Node) AddChild(child *Node) error {
	return n.AddChildAt(child, len(n.children))
}

// AddChildAt inserts child at the given index among n's children.
// Same reparenting and validation behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) error {
	if child == nil {
		return nodeErr(ErrNilNode, n)
	}
	if n.disposed {
		return nodeErr(ErrDisposed, n)
	}
	if child.disposed {
		return nodeErr(ErrDisposed, child)
	}
	if isAncestor(child, n) {
		return nodeErr(ErrCycle, child)
	}
	if w := n.World(); w != nil {
		if err := w.checkNames(child); err != nil {
			return err
		}
	}
	child.detach()
	if index < 0 || index > len(n.children) {
		index = len(n.children)
	}
	child.parent = n
	n.children = slices.Insert(n.children, index, child)
	markSubtreeDirty(child)
	if n.state != nil {
		n.state.attach(child)
	}
	if n.state != nil && n.state.debug() {
		debugCheckTreeDepth(n.state.logger(), child)
		debugCheckChildCount(n.state.logger(), n)
	}
	return nil
}

// RemoveChild detaches child from this node and from the scene state. The
// child is not destroyed; its name is released from the world until it is
// attached again.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil {
		return nodeErr(ErrNilNode, n)
	}
	if child.parent != n {
		return nodeErr(ErrNotChild, child)
	}
	child.detach()
	return nil
}

// RemoveFromParent detaches this node from its parent or scene state.
// No-op for a detached node.
func (n *Node) RemoveFromParent() {
	n.detach()
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Find returns the first node named name in n's subtree (n included),
// depth-first, or nil.
func (n *Node) Find(name string) *Node {
	if n.name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// detach unlinks n from its parent (or state root list) and takes the whole
// subtree out of its scene state.
func (n *Node) detach() {
	if n.parent != nil {
		n.parent.removeChildByPtr(n)
		n.parent = nil
	} else if n.state != nil {
		n.state.removeRoot(n)
	}
	if n.state != nil {
		n.state.detachSubtree(n)
	}
}

// --- Global transform ---

// GlobalMatrix composes every ancestor's local matrix with this node's,
// root to leaf. Unlike the cached matrix used by the update loop, it is
// always computed from the current local transforms.
func (n *Node) GlobalMatrix() mgl64.Mat3 {
	m := n.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Matrix().Mul3(m)
	}
	return m
}

// GlobalPosition returns the world-space position of the node's local origin.
func (n *Node) GlobalPosition() Vec2 {
	return TransformPoint(n.world, Vec2{})
}

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(p Vec2) Vec2 {
	return TransformPoint(n.GlobalMatrix().Inv(), p)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(p Vec2) Vec2 {
	return TransformPoint(n.GlobalMatrix(), p)
}

// MarkDirty forces the node (and so its subtree) to be treated as
// transformed on the next loop.
func (n *Node) MarkDirty() {
	n.transformed = true
}

// --- Update protocol ---

// setupCall runs OnSetup and starts animations for n and every descendant
// that has not been set up yet.
func (n *Node) setupCall(s *SceneState) {
	if !n.setupDone {
		n.setupDone = true
		if n.OnSetup != nil {
			n.OnSetup(n, s)
		}
		for _, name := range n.animationOrder {
			n.animations[name].Start()
		}
	}
	for _, child := range slices.Clone(n.children) {
		if child.parent == n {
			child.setupCall(s)
		}
	}
}

// loopCall runs one tick for n and its subtree, parent before children.
// updated carries the sticky-downward dirty flag: once an ancestor moved,
// every descendant recomputes its global state this tick.
func (n *Node) loopCall(s *SceneState, dt float64, parentWorld mgl64.Mat3, updated bool) {
	if !n.setupDone {
		n.setupCall(s)
	}
	if n.OnLoop != nil {
		n.OnLoop(n, s, dt)
	}
	n.advanceAnimations(dt)
	if n.disposed || n.state != s {
		return
	}

	updated = updated || n.transformed
	n.transformed = false
	if updated {
		n.world = parentWorld.Mul3(n.Matrix())
		if d := n.drawable; d != nil {
			d.global = TransformRect(n.world, d.local)
			if d.system != nil {
				d.system.HandleChange(n)
			}
		}
		if n.tilemap != nil {
			n.tilemap.refresh(n.world)
		}
	}

	for _, child := range slices.Clone(n.children) {
		if child.parent == n {
			child.loopCall(s, dt, n.world, updated)
		}
	}
}

func (n *Node) advanceAnimations(dt float64) {
	for _, name := range slices.Clone(n.animationOrder) {
		if a, ok := n.animations[name]; ok {
			a.Advance(dt)
		}
	}
}

// --- Animations ---

// AddAnimation attaches a under name, replacing any animation already
// registered with that name. Animations added after setup start immediately.
func (n *Node) AddAnimation(name string, a Animator) {
	if a == nil {
		return
	}
	if n.animations == nil {
		n.animations = make(map[string]Animator)
	}
	if _, exists := n.animations[name]; !exists {
		n.animationOrder = append(n.animationOrder, name)
	}
	if b, ok := a.(interface{ bind(*Node) }); ok {
		b.bind(n)
	}
	n.animations[name] = a
	if n.setupDone {
		a.Start()
	}
}

// Animation returns the animation registered under name, or nil.
func (n *Node) Animation(name string) Animator {
	return n.animations[name]
}

// RemoveAnimation detaches the named animation.
func (n *Node) RemoveAnimation(name string) {
	if _, ok := n.animations[name]; !ok {
		return
	}
	delete(n.animations, name)
	n.animationOrder = slices.DeleteFunc(n.animationOrder, func(s string) bool { return s == name })
}

// --- Destruction ---

// Destroy removes this node from its parent and destroys its subtree:
// children first, then the node leaves its quadrant, releases its name and
// drops every signal connection. Destroying twice is a no-op.
func (n *Node) Destroy() {
	if n.disposed {
		return
	}
	if n.parent != nil {
		n.parent.removeChildByPtr(n)
		n.parent = nil
	} else if n.state != nil {
		n.state.removeRoot(n)
	}
	n.dispose()
}

func (n *Node) dispose() {
	for _, child := range n.children {
		child.parent = nil
		child.dispose()
	}
	n.children = nil
	if s := n.state; s != nil {
		s.unregister(n)
		if w := s.world; w != nil {
			w.releaseName(n)
		}
		s.emit(Event{Type: EventNodeDestroyed, Node: n, NodeID: n.ID, Name: n.name})
		n.state = nil
	}
	if n.tilemap != nil {
		n.tilemap.reset()
	}
	n.disconnectAll()
	n.animations = nil
	n.animationOrder = nil
	n.OnSetup = nil
	n.OnLoop = nil
	n.UserData = nil
	n.disposed = true
}

// IsDestroyed reports whether Destroy has been called on this node or an ancestor.
func (n *Node) IsDestroyed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets the transformed flag on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformed = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}

// walk visits n and every descendant, parent first.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}
