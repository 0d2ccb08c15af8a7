package input

import (
	"math"
	"sync"
)

// DefaultClickSlop is how far in pixels a press may wander and still count as a click.
const DefaultClickSlop = 4.0

// pointerTouchID is the touch id a mouse drag claims on a TouchLookPad.
const pointerTouchID = 0

// PointerDrag turns a left-button drag of the free (unlocked) cursor into look events, the
// same way a finger drives a TouchLookPad. A press released without leaving the click slop is
// reported as a click so the caller can request pointer lock.
type PointerDrag struct {
	mu     *sync.Mutex
	pad    *TouchLookPad
	events chan<- MobileEvent
	slop   float64

	pressed        bool
	startX, startY float64
	travel         float64
	dropped        uint64
}

// NewPointerDrag creates a drag tracker that publishes look events on events.
//
// Parameters:
//   - pad: the look pad the cursor drives as touch 0
//   - events: the aggregator's mobile event channel
//   - slop: click tolerance in pixels, non-positive uses DefaultClickSlop
//
// Returns:
//   - *PointerDrag: the tracker
func NewPointerDrag(pad *TouchLookPad, events chan<- MobileEvent, slop float64) *PointerDrag {
	if slop <= 0 {
		slop = DefaultClickSlop
	}
	return &PointerDrag{
		mu:     &sync.Mutex{},
		pad:    pad,
		events: events,
		slop:   slop,
	}
}

// Press starts a drag at the cursor position. A press while a touch already owns the pad is
// ignored.
func (d *PointerDrag) Press(x, y float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pressed || !d.pad.Start(pointerTouchID, x, y) {
		return
	}
	d.pressed = true
	d.startX, d.startY = x, y
	d.travel = 0
}

// Move publishes the look delta of a drag step. Motion without a press is ignored.
func (d *PointerDrag) Move(x, y float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.move(x, y)
}

// Release ends the drag.
//
// Returns:
//   - bool: true when the press never left the click slop
func (d *PointerDrag) Release(x, y float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pressed {
		return false
	}
	d.move(x, y)
	d.pad.End(pointerTouchID)
	d.pressed = false
	return d.travel <= d.slop
}

// Cancel ends the drag without reporting a click, e.g. when the window loses focus.
func (d *PointerDrag) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pressed {
		d.pad.End(pointerTouchID)
		d.pressed = false
	}
}

// Dragging reports whether a press is in progress.
func (d *PointerDrag) Dragging() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pressed
}

// Dropped returns how many look events were discarded because the channel was full.
func (d *PointerDrag) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// move must be called with the mutex held.
func (d *PointerDrag) move(x, y float64) {
	if !d.pressed {
		return
	}
	d.travel = math.Max(d.travel, math.Hypot(x-d.startX, y-d.startY))
	ev, ok := d.pad.Move(pointerTouchID, x, y)
	if !ok || (ev.DYaw == 0 && ev.DPitch == 0) {
		return
	}
	if !publish(d.events, ev) {
		d.dropped++
	}
}

// publish hands ev to a producer channel without blocking the window thread.
//
// Returns:
//   - bool: false if the channel was full and ev was dropped
func publish(events chan<- MobileEvent, ev MobileEvent) bool {
	select {
	case events <- ev:
		return true
	default:
		return false
	}
}
