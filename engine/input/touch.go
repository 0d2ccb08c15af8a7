package input

import "sync"

// DefaultTouchLookSensitivity scales touch drag pixels to radians.
const DefaultTouchLookSensitivity = 0.009

// TouchLookPad tracks the single finger that drives look on a touch surface. The first
// touch to start owns the pad until it ends; other touches are ignored.
type TouchLookPad struct {
	mu          *sync.Mutex
	sensitivity float64
	active      bool
	id          int
	lastX       float64
	lastY       float64
}

// NewTouchLookPad creates a pad. A non-positive sensitivity uses DefaultTouchLookSensitivity.
func NewTouchLookPad(sensitivity float64) *TouchLookPad {
	if sensitivity <= 0 {
		sensitivity = DefaultTouchLookSensitivity
	}
	return &TouchLookPad{mu: &sync.Mutex{}, sensitivity: sensitivity}
}

// Start claims the pad for touch id unless another touch already owns it.
//
// Returns:
//   - bool: true if id now owns the pad
func (p *TouchLookPad) Start(id int, x, y float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return false
	}
	p.active, p.id, p.lastX, p.lastY = true, id, x, y
	return true
}

// Move converts a drag of the owning touch into look deltas. Dragging right or down turns
// left or up respectively.
//
// Returns:
//   - LookEvent: the scaled, negated deltas
//   - bool: false if id does not own the pad
func (p *TouchLookPad) Move(id int, x, y float64) (LookEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || id != p.id {
		return LookEvent{}, false
	}
	dx, dy := x-p.lastX, y-p.lastY
	p.lastX, p.lastY = x, y
	return LookEvent{DYaw: -dx * p.sensitivity, DPitch: -dy * p.sensitivity}, true
}

// End releases the pad if id owns it.
func (p *TouchLookPad) End(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active && id == p.id {
		p.active = false
	}
}

// Active reports whether a touch currently owns the pad.
func (p *TouchLookPad) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}
