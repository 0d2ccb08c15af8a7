package input

import (
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-walk/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultLookSensitivity scales pointer-lock mouse deltas to radians.
const DefaultLookSensitivity = 0.002

// Frame is the navigation input of one rendered frame.
type Frame struct {
	// Yaw and Pitch are the accumulated orientation in radians; Pitch is clamped.
	Yaw   float64
	Pitch float64

	// Direction is the normalized ground-plane movement direction, or zero when idle.
	Direction mgl32.Vec3

	// Moving reports whether any movement input is held.
	Moving bool
}

// aggregator is the implementation of the Aggregator interface.
type aggregator struct {
	mu *sync.Mutex

	keys          map[int]bool
	yaw           float64
	pitch         float64
	pointerLocked bool

	stickX float64
	stickZ float64

	pendingYaw   float64
	pendingPitch float64

	lookSensitivity  float64
	joystickExponent float64

	mobile             <-chan MobileEvent
	requestPointerLock func()
	logger             *slog.Logger
}

// Aggregator collects input events from any goroutine and turns them into one Frame per
// rendered frame. Keyboard state and the stick are held until changed; pointer-look is
// integrated as events arrive; touch look deltas are held until the next Snapshot.
type Aggregator interface {
	// KeyDown marks a key as held. Codes use the common.Key* values.
	//
	// Parameters:
	//   - code: the key code
	KeyDown(code int)

	// KeyUp marks a key as released.
	//
	// Parameters:
	//   - code: the key code
	KeyUp(code int)

	// ReleaseAll clears every held key and centres the stick, e.g. when the window loses focus.
	ReleaseAll()

	// MouseMove applies a relative mouse motion while pointer lock is engaged.
	// Motion while unlocked is ignored.
	//
	// Parameters:
	//   - dx: horizontal motion in pixels, positive right
	//   - dy: vertical motion in pixels, positive down
	MouseMove(dx, dy float64)

	// Click requests pointer lock through the configured requester when not already locked.
	Click()

	// SetPointerLocked records a pointer-lock change reported by the window.
	//
	// Parameters:
	//   - locked: true when the pointer is captured
	SetPointerLocked(locked bool)

	// PointerLocked reports whether pointer lock is engaged.
	//
	// Returns:
	//   - bool: true when the pointer is captured
	PointerLocked() bool

	// Send applies a mobile event immediately, bypassing the event channel.
	//
	// Parameters:
	//   - ev: a JoystickEvent or LookEvent
	Send(ev MobileEvent)

	// Orientation returns the current yaw and pitch.
	//
	// Returns:
	//   - yaw, pitch: radians
	Orientation() (yaw, pitch float64)

	// SetOrientation overwrites yaw and pitch, clamping pitch.
	//
	// Parameters:
	//   - yaw: radians
	//   - pitch: radians
	SetOrientation(yaw, pitch float64)

	// Discard drains pending mobile events but drops their look deltas, for frames in which
	// navigation does not run. Stick state is kept.
	Discard()

	// Snapshot drains pending mobile events, folds the touch look deltas into the orientation
	// and resets them, re-clamps pitch, and combines keys and stick into a direction derived
	// from yaw only.
	//
	// Returns:
	//   - Frame: the frame input
	Snapshot() Frame
}

var _ Aggregator = &aggregator{}

// NewAggregator creates an aggregator facing +Z with no input held.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Aggregator: the aggregator
func NewAggregator(options ...AggregatorOption) Aggregator {
	a := &aggregator{
		mu:               &sync.Mutex{},
		keys:             make(map[int]bool),
		lookSensitivity:  DefaultLookSensitivity,
		joystickExponent: DefaultJoystickExponent,
		logger:           slog.Default(),
	}
	for _, option := range options {
		option(a)
	}
	a.pitch = common.ClampPitch(a.pitch)
	return a
}

func (a *aggregator) KeyDown(code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[code] = true
}

func (a *aggregator) KeyUp(code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.keys, code)
}

func (a *aggregator) ReleaseAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.keys)
	a.stickX, a.stickZ = 0, 0
}

func (a *aggregator) MouseMove(dx, dy float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.pointerLocked {
		return
	}
	a.yaw -= dx * a.lookSensitivity
	a.pitch = common.ClampPitch(a.pitch - dy*a.lookSensitivity)
}

func (a *aggregator) Click() {
	a.mu.Lock()
	locked, request := a.pointerLocked, a.requestPointerLock
	a.mu.Unlock()

	if !locked && request != nil {
		request()
	}
}

func (a *aggregator) SetPointerLocked(locked bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pointerLocked != locked {
		a.logger.Debug("pointer lock changed", "locked", locked)
	}
	a.pointerLocked = locked
}

func (a *aggregator) PointerLocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pointerLocked
}

func (a *aggregator) Send(ev MobileEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apply(ev)
}

func (a *aggregator) Orientation() (yaw, pitch float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.yaw, a.pitch
}

func (a *aggregator) SetOrientation(yaw, pitch float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.yaw = yaw
	a.pitch = common.ClampPitch(pitch)
}

func (a *aggregator) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drain()
	a.pendingYaw, a.pendingPitch = 0, 0
}

func (a *aggregator) Snapshot() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.drain()

	a.yaw += a.pendingYaw
	a.pitch += a.pendingPitch
	a.pendingYaw, a.pendingPitch = 0, 0
	a.pitch = common.ClampPitch(a.pitch)

	forward := common.GroundForward(a.yaw)
	right := common.GroundRight(a.yaw)

	var dir mgl32.Vec3
	if a.keys[common.KeyW] {
		dir = dir.Add(forward)
	}
	if a.keys[common.KeyS] {
		dir = dir.Sub(forward)
	}
	if a.keys[common.KeyA] {
		dir = dir.Sub(right)
	}
	if a.keys[common.KeyD] {
		dir = dir.Add(right)
	}
	if a.stickX != 0 || a.stickZ != 0 {
		dir = dir.Add(forward.Mul(float32(-a.stickZ)))
		dir = dir.Add(right.Mul(float32(a.stickX)))
	}

	moving := dir.Dot(dir) > 0
	if moving {
		dir = dir.Normalize()
	}
	return Frame{Yaw: a.yaw, Pitch: a.pitch, Direction: dir, Moving: moving}
}

// drain applies every event already queued on the mobile channel without blocking.
// Caller must hold the mutex.
func (a *aggregator) drain() {
	for a.mobile != nil {
		select {
		case ev, ok := <-a.mobile:
			if !ok {
				a.mobile = nil
				return
			}
			a.apply(ev)
		default:
			return
		}
	}
}

// apply folds one mobile event into the state. Caller must hold the mutex.
func (a *aggregator) apply(ev MobileEvent) {
	switch e := ev.(type) {
	case JoystickEvent:
		a.stickX, a.stickZ = JoystickVector(e.Angle, e.Force, a.joystickExponent)
	case LookEvent:
		a.pendingYaw += e.DYaw
		a.pendingPitch += e.DPitch
	}
}
