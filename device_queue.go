package thicket

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// DefaultFrameBuffers is the number of frame slots a QueuedDevice uses when
// none is configured.
const DefaultFrameBuffers = 3

type frameCommand struct {
	setView bool
	view    View
	params  RenderParams
}

type frameSlot struct {
	index int
	frame uint64
	cmds  []frameCommand
}

// QueuedDevice records submissions from the update goroutine into frame
// slots and replays them on a render goroutine against the wrapped device.
// Frames are replayed strictly in submission order, and a slot is only
// recorded into again after the consumer has replayed and cleared it, so the
// producer can run at most FrameBuffers-1 frames ahead.
type QueuedDevice struct {
	inner RenderDevice

	slots []*frameSlot
	free  chan *frameSlot
	ready chan *frameSlot

	cur    *frameSlot // owned by the producer
	frames uint64

	closeOnce sync.Once
}

// NewQueuedDevice wraps inner with buffers frame slots (at least 2).
func NewQueuedDevice(inner RenderDevice, buffers int) *QueuedDevice {
	if buffers < 2 {
		buffers = 2
	}
	d := &QueuedDevice{
		inner: inner,
		free:  make(chan *frameSlot, buffers),
		ready: make(chan *frameSlot, buffers),
	}
	for i := 0; i < buffers; i++ {
		slot := &frameSlot{index: i}
		d.slots = append(d.slots, slot)
		if i > 0 {
			d.free <- slot
		}
	}
	d.cur = d.slots[0]
	return d
}

// Buffers returns the number of frame slots.
func (d *QueuedDevice) Buffers() int {
	return len(d.slots)
}

// SetView records a view change into the current frame.
func (d *QueuedDevice) SetView(v View) {
	d.cur.cmds = append(d.cur.cmds, frameCommand{setView: true, view: v})
}

// Render records p into the current frame. Backend errors surface from
// ProcessRenderQueue on the consumer side.
func (d *QueuedDevice) Render(p RenderParams) error {
	d.cur.cmds = append(d.cur.cmds, frameCommand{params: p})
	return nil
}

// EndFrame publishes the current frame and blocks until a free slot is
// available for the next one.
func (d *QueuedDevice) EndFrame() {
	_ = d.EndFrameContext(context.Background())
}

// EndFrameContext is EndFrame with cancellation. On cancellation the frame
// being recorded is discarded.
func (d *QueuedDevice) EndFrameContext(ctx context.Context) error {
	d.frames++
	d.cur.frame = d.frames
	select {
	case d.ready <- d.cur:
	case <-ctx.Done():
		d.cur.cmds = d.cur.cmds[:0]
		return ctx.Err()
	}
	select {
	case d.cur = <-d.free:
		return nil
	case <-ctx.Done():
		// Nothing left to record into; the producer is shutting down.
		d.cur = &frameSlot{index: -1}
		return ctx.Err()
	}
}

// ProcessRenderQueue waits for the next published frame and replays it on
// the wrapped device, then calls its ProcessRenderQueue and EndFrame. The
// slot is cleared and released even when replay fails. Returns
// ErrDeviceClosed once Close was called and every published frame has been
// replayed.
func (d *QueuedDevice) ProcessRenderQueue(ctx context.Context) error {
	var slot *frameSlot
	select {
	case s, ok := <-d.ready:
		if !ok {
			return ErrDeviceClosed
		}
		slot = s
	case <-ctx.Done():
		return ctx.Err()
	}

	err := d.replay(ctx, slot)
	slot.cmds = slot.cmds[:0]
	if slot.index >= 0 {
		d.free <- slot
	}
	return err
}

func (d *QueuedDevice) replay(ctx context.Context, slot *frameSlot) error {
	for i := range slot.cmds {
		c := &slot.cmds[i]
		if c.setView {
			d.inner.SetView(c.view)
			continue
		}
		if err := d.inner.Render(c.params); err != nil {
			d.inner.EndFrame()
			return errors.Wrapf(err, "replay frame %d", slot.frame)
		}
	}
	if err := d.inner.ProcessRenderQueue(ctx); err != nil {
		return err
	}
	d.inner.EndFrame()
	return nil
}

// Close stops accepting frames. It must be called from the producer
// goroutine after its last EndFrame.
func (d *QueuedDevice) Close() {
	d.closeOnce.Do(func() {
		close(d.ready)
	})
}
