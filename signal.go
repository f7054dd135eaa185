package thicket

import "slices"

// Event is a notification about something that happened in the scene graph.
// Engine events (attach, detach, destroy, quadrant moves, state changes) are
// forwarded to the world's EntityStore; node signals carry EventCustom or
// any other type between connected nodes.
type Event struct {
	Type EventType
	// Node is the subject of the event. For signals it is the sender.
	Node *Node
	// NodeID and Name snapshot the subject's identity at emission time, so
	// stores can keep them after the node is gone.
	NodeID     uint32
	Name       string
	StateOrder int
	// Quadrant moves only.
	From, To QuadID
	Bounds   Rect
	Payload  any
}

// EntityStore receives engine events. Implementations bridge them into an
// ECS or any other external system; see the ecs subpackage.
type EntityStore interface {
	EmitEvent(Event)
}

// SignalHandler receives a signal emitted by a connected sender.
type SignalHandler func(Event)

type connection struct {
	sender   *Node
	receiver *Node
	typ      EventType
	fn       SignalHandler
	dead     bool
}

// signalTable is the per-node bookkeeping for signal connections: out holds
// connections where the node is the sender, in those where it receives.
type signalTable struct {
	out map[EventType][]*connection
	in  []*connection
}

// Connect subscribes n to signals of type typ emitted by sender. A receiver
// is connected at most once per sender and type; connecting again replaces
// the handler. Both ends are disconnected automatically when either is
// destroyed.
func (n *Node) Connect(sender *Node, typ EventType, fn SignalHandler) error {
	if sender == nil {
		return nodeErr(ErrNilNode, n)
	}
	if n.disposed {
		return nodeErr(ErrDisposed, n)
	}
	if sender.disposed {
		return nodeErr(ErrDisposed, sender)
	}
	for _, c := range sender.signals.out[typ] {
		if c.receiver == n {
			c.fn = fn
			return nil
		}
	}
	c := &connection{sender: sender, receiver: n, typ: typ, fn: fn}
	if sender.signals.out == nil {
		sender.signals.out = make(map[EventType][]*connection)
	}
	sender.signals.out[typ] = append(sender.signals.out[typ], c)
	n.signals.in = append(n.signals.in, c)
	return nil
}

// Disconnect removes n's subscription to sender's typ signals. Reports
// whether a connection existed.
func (n *Node) Disconnect(sender *Node, typ EventType) bool {
	if sender == nil {
		return false
	}
	for _, c := range sender.signals.out[typ] {
		if c.receiver == n {
			c.sever()
			return true
		}
	}
	return false
}

// Emit delivers ev to every receiver connected for ev.Type, in connection
// order. ev.Node is set to n. Handlers may connect, disconnect or destroy
// nodes; receivers disconnected during delivery are skipped.
func (n *Node) Emit(ev Event) int {
	if n.disposed {
		return 0
	}
	ev.Node = n
	ev.NodeID = n.ID
	ev.Name = n.name
	if n.state != nil {
		ev.StateOrder = n.state.order
	}
	delivered := 0
	for _, c := range slices.Clone(n.signals.out[ev.Type]) {
		if c.dead || c.fn == nil {
			continue
		}
		c.fn(ev)
		delivered++
	}
	return delivered
}

// NumConnections returns how many receivers are connected to n for typ.
func (n *Node) NumConnections(typ EventType) int {
	return len(n.signals.out[typ])
}

func (c *connection) sever() {
	if c.dead {
		return
	}
	c.dead = true
	s := &c.sender.signals
	s.out[c.typ] = slices.DeleteFunc(s.out[c.typ], func(o *connection) bool { return o == c })
	if len(s.out[c.typ]) == 0 {
		delete(s.out, c.typ)
	}
	r := &c.receiver.signals
	r.in = slices.DeleteFunc(r.in, func(o *connection) bool { return o == c })
}

// disconnectAll severs every connection n takes part in.
func (n *Node) disconnectAll() {
	for _, conns := range n.signals.out {
		for _, c := range slices.Clone(conns) {
			c.sever()
		}
	}
	for _, c := range slices.Clone(n.signals.in) {
		c.sever()
	}
	n.signals = signalTable{}
}
