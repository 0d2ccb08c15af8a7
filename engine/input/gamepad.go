package input

import "sync"

// GamepadAxes is one reading of a gamepad's analog sticks, GLFW convention: axes in [−1, 1]
// with +X right and +Y down.
type GamepadAxes struct {
	LeftX  float64
	LeftY  float64
	RightX float64
	RightY float64
}

// GamepadFeed publishes a polled gamepad as mobile events: the left stick as a virtual
// joystick and the right stick as look deltas.
type GamepadFeed struct {
	mu *sync.Mutex

	events    chan<- MobileEvent
	deadzone  float64
	lookSpeed float64
	connected bool
	dropped   uint64
}

// NewGamepadFeed creates a feed publishing on events.
//
// Parameters:
//   - events: the aggregator's mobile event channel
//   - deadzone: radial stick deadzone in [0, 1)
//   - lookSpeed: radians per second at full right-stick deflection
//
// Returns:
//   - *GamepadFeed: the feed
func NewGamepadFeed(events chan<- MobileEvent, deadzone, lookSpeed float64) *GamepadFeed {
	return &GamepadFeed{mu: &sync.Mutex{}, events: events, deadzone: deadzone, lookSpeed: lookSpeed}
}

// Update publishes one poll. A pad unplugged mid-move releases the stick once so it is not
// left held; nothing is sent while no pad is connected.
//
// Parameters:
//   - axes: the stick reading, ignored when connected is false
//   - connected: whether a gamepad was found
//   - dt: frame time in seconds
func (g *GamepadFeed) Update(axes GamepadAxes, connected bool, dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !connected {
		if g.connected {
			g.send(Released())
			g.connected = false
		}
		return
	}
	g.connected = true

	g.send(GamepadToJoystick(axes.LeftX, axes.LeftY, g.deadzone))
	if look, ok := GamepadLook(axes.RightX, axes.RightY, g.deadzone, g.lookSpeed, dt); ok {
		g.send(look)
	}
}

// Connected reports whether the last Update saw a gamepad.
func (g *GamepadFeed) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

// Dropped returns how many events were discarded because the channel was full.
func (g *GamepadFeed) Dropped() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dropped
}

func (g *GamepadFeed) send(ev MobileEvent) {
	if !publish(g.events, ev) {
		g.dropped++
	}
}
