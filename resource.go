package thicket

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

// ResourceManager owns backend resources referenced by drawables through
// handles. Load and Unload only queue requests; the frame loop calls
// EndFrame on the update side to publish the requests made during the frame
// and the Process methods on the render side to execute them. Handles
// returned by Load are valid immediately as identifiers; a device may see
// ErrUnknownResource until the load has been processed.
type ResourceManager interface {
	Load(params any) (ResourceID, error)
	Unload(id ResourceID) error
	Clear()
	ProcessLoadQueue() error
	ProcessUnloadQueue() error
	EndFrame()
}

type loadRequest struct {
	id     ResourceID
	params any
}

// resourceTable is the handle table and request queues shared by the
// concrete managers. Requests recorded during a frame are moved to the
// active queues by endFrame, so the render side never processes a request
// recorded after the frame it is working on.
type resourceTable[T any] struct {
	kind string

	mu      sync.Mutex
	next    ResourceID
	items   map[ResourceID]T
	pending map[ResourceID]struct{}

	incomingLoads   []loadRequest
	incomingUnloads []ResourceID
	activeLoads     []loadRequest
	activeUnloads   []ResourceID

	validate func(params any) error
	create   func(params any) (T, error)
	release  func(T)
}

func newResourceTable[T any](kind string, validate func(any) error, create func(any) (T, error), release func(T)) *resourceTable[T] {
	return &resourceTable[T]{
		kind:     kind,
		items:    make(map[ResourceID]T),
		pending:  make(map[ResourceID]struct{}),
		validate: validate,
		create:   create,
		release:  release,
	}
}

func (t *resourceTable[T]) reserve() (ResourceID, error) {
	if t.next == math.MaxUint32 {
		return 0, errors.Wrap(ErrExceededIDs, t.kind)
	}
	t.next++
	return t.next, nil
}

func (t *resourceTable[T]) Load(params any) (ResourceID, error) {
	if t.validate != nil {
		if err := t.validate(params); err != nil {
			return 0, &ResourceError{Op: "load " + t.kind, Err: err}
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	id, err := t.reserve()
	if err != nil {
		return 0, &ResourceError{Op: "load " + t.kind, Err: err}
	}
	t.pending[id] = struct{}{}
	t.incomingLoads = append(t.incomingLoads, loadRequest{id: id, params: params})
	return id, nil
}

// LoadNow creates the resource synchronously. Only safe on the goroutine that
// owns the backend (the render goroutine, or the only one in single-threaded runs).
func (t *resourceTable[T]) LoadNow(params any) (ResourceID, error) {
	if t.validate != nil {
		if err := t.validate(params); err != nil {
			return 0, &ResourceError{Op: "load " + t.kind, Err: err}
		}
	}
	t.mu.Lock()
	id, err := t.reserve()
	t.mu.Unlock()
	if err != nil {
		return 0, &ResourceError{Op: "load " + t.kind, Err: err}
	}
	v, err := t.create(params)
	if err != nil {
		return 0, &ResourceError{ID: id, Op: "load " + t.kind, Err: err}
	}
	t.mu.Lock()
	t.items[id] = v
	t.mu.Unlock()
	return id, nil
}

func (t *resourceTable[T]) Unload(id ResourceID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, live := t.items[id]
	_, queued := t.pending[id]
	if !live && !queued {
		return &ResourceError{ID: id, Op: "unload " + t.kind, Err: ErrUnknownResource}
	}
	t.incomingUnloads = append(t.incomingUnloads, id)
	return nil
}

func (t *resourceTable[T]) Get(id ResourceID) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[id]
	if !ok {
		var zero T
		return zero, &ResourceError{ID: id, Op: "get " + t.kind, Err: ErrUnknownResource}
	}
	return v, nil
}

func (t *resourceTable[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

func (t *resourceTable[T]) EndFrame() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activeLoads = append(t.activeLoads, t.incomingLoads...)
	t.activeUnloads = append(t.activeUnloads, t.incomingUnloads...)
	t.incomingLoads = t.incomingLoads[:0]
	t.incomingUnloads = t.incomingUnloads[:0]
}

// ProcessLoadQueue creates every published resource. A failed load drops its
// handle; the first failure is returned after the whole queue ran.
func (t *resourceTable[T]) ProcessLoadQueue() error {
	t.mu.Lock()
	reqs := t.activeLoads
	t.activeLoads = nil
	t.mu.Unlock()

	var first error
	for _, req := range reqs {
		t.mu.Lock()
		_, stillPending := t.pending[req.id]
		t.mu.Unlock()
		if !stillPending {
			continue
		}
		v, err := t.create(req.params)
		t.mu.Lock()
		delete(t.pending, req.id)
		if err == nil {
			t.items[req.id] = v
		}
		t.mu.Unlock()
		if err != nil && first == nil {
			first = &ResourceError{ID: req.id, Op: "load " + t.kind, Err: err}
		}
	}
	return first
}

// ProcessUnloadQueue releases every published unload. Unloading a handle
// whose load is still queued cancels the load.
func (t *resourceTable[T]) ProcessUnloadQueue() error {
	t.mu.Lock()
	ids := t.activeUnloads
	t.activeUnloads = nil
	var released []T
	for _, id := range ids {
		if v, ok := t.items[id]; ok {
			released = append(released, v)
			delete(t.items, id)
			continue
		}
		delete(t.pending, id)
	}
	t.mu.Unlock()

	if t.release != nil {
		for _, v := range released {
			t.release(v)
		}
	}
	return nil
}

// Clear releases every resource and drops all queued requests.
func (t *resourceTable[T]) Clear() {
	t.mu.Lock()
	items := t.items
	t.items = make(map[ResourceID]T)
	t.pending = make(map[ResourceID]struct{})
	t.incomingLoads, t.incomingUnloads = nil, nil
	t.activeLoads, t.activeUnloads = nil, nil
	t.mu.Unlock()

	if t.release != nil {
		for _, v := range items {
			t.release(v)
		}
	}
}
