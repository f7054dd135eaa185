package thicket

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// debugLogRenderStats writes one state's render statistics at debug level.
// Only called when the world is in debug mode.
func debugLogRenderStats(l Logger, order int, stats RenderStats) {
	logf(l, LevelDebug,
		"state %d: queried %d | culled %d | invisible %d | submitted %d | layers %d | query: %v",
		order, stats.Queried, stats.Culled, stats.Invisible, stats.Submitted, stats.Layers, stats.QueryTime)
}

// debugMaxTreeDepth is the depth above which attaching a node logs a warning.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(l Logger, n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logf(l, LevelWarn, "tree depth %d exceeds %d (node %q)", depth, debugMaxTreeDepth, n.label())
	}
}

// debugMaxChildCount is the child count above which attaching logs a warning.
const debugMaxChildCount = 1000

func debugCheckChildCount(l Logger, n *Node) {
	if len(n.children) > debugMaxChildCount {
		logf(l, LevelWarn, "node %q has %d children (threshold %d)", n.label(), len(n.children), debugMaxChildCount)
	}
}

// nodeDump is the flattened view of a node written by DebugDump.
type nodeDump struct {
	ID       uint32
	Name     string
	Type     string
	Position Vec2
	Rotation float64
	Scale    Vec2
	Layer    int
	Quadrant QuadID
	Bounds   Rect
	Visible  bool
	Tiles    int
	Children []nodeDump
}

func dumpNode(n *Node) nodeDump {
	d := nodeDump{
		ID:       n.ID,
		Name:     n.name,
		Type:     n.Type.String(),
		Position: n.Position(),
		Rotation: n.Rotation(),
		Scale:    n.Scale(),
		Layer:    n.Layer(),
		Quadrant: n.Quadrant(),
		Bounds:   n.GlobalBounds(),
		Visible:  n.Visible(),
		Tiles:    n.NumTiles(),
	}
	for _, c := range n.children {
		d.Children = append(d.Children, dumpNode(c))
	}
	return d
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// DebugDump writes a readable tree of the state's nodes to w.
func (s *SceneState) DebugDump(w io.Writer) {
	_, _ = fmt.Fprintf(w, "scene state %d: %d roots, updating=%t rendering=%t\n",
		s.order, len(s.nodes), s.updating, s.rendering)
	if t := s.QuadTree(); t != nil {
		_, _ = fmt.Fprintf(w, "quadtree: %d quadrants, %d drawables\n", t.Len(), t.Total())
	}
	for _, n := range s.nodes {
		dumpConfig.Fdump(w, dumpNode(n))
	}
}
