package thicket

import (
	"fmt"

	"github.com/pkg/errors"
)

// Configuration errors. Operations returning one of these leave the scene
// graph exactly as it was before the call. Match with errors.Is; the
// returned value usually wraps the sentinel with the offending node or state.
var (
	ErrNilNode        = errors.New("thicket: nil node")
	ErrNilParent      = errors.New("thicket: nil parent")
	ErrCycle          = errors.New("thicket: operation would create a cycle")
	ErrDisposed       = errors.New("thicket: node is destroyed")
	ErrNotChild       = errors.New("thicket: node is not a child of this parent")
	ErrDuplicateName  = errors.New("thicket: node name already registered")
	ErrDuplicateOrder = errors.New("thicket: scene state order already registered")
	ErrUnknownState   = errors.New("thicket: no scene state with this order")
	ErrStateOwned     = errors.New("thicket: scene state already belongs to a world")
	ErrNotInState     = errors.New("thicket: node is not a root of this scene state")
	ErrNoRenderSystem = errors.New("thicket: scene state has no render system")
	ErrNoCamera       = errors.New("thicket: render system has no camera")
	ErrInvalidConfig  = errors.New("thicket: invalid configuration")
	ErrNilState       = errors.New("thicket: nil scene state")
	ErrExceededIDs    = errors.New("thicket: resource ids exhausted")
	ErrNotTilemap     = errors.New("thicket: node is not a tilemap")
	ErrUnknownTile    = errors.New("thicket: tile id has no texture region")
)

// Runtime errors returned by devices and resource managers.
var (
	ErrUnknownResource = errors.New("thicket: unknown resource")
	ErrDeviceClosed    = errors.New("thicket: render device closed")
	ErrNoTarget        = errors.New("thicket: render device has no target")
)

// ResourceID identifies a backend resource (texture, shader, ...).
// Zero is never a valid ID.
type ResourceID uint32

// ResourceError reports a load or unload failure from a ResourceManager.
// The scene graph never retries; retry policy belongs to the manager.
type ResourceError struct {
	ID  ResourceID
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("thicket: resource %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("thicket: resource %s (id %d): %v", e.Op, e.ID, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// nodeErr wraps err with the node's identity for diagnostics.
func nodeErr(err error, n *Node) error {
	if n == nil {
		return err
	}
	return errors.Wrapf(err, "node %q (id %d)", n.label(), n.ID)
}
