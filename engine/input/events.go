// Package input merges keyboard, pointer-look and touch/gamepad input into one per-frame
// navigation snapshot.
package input

// MobileEvent is a typed message from a touch or gamepad producer. The set of events is closed:
// JoystickEvent and LookEvent.
type MobileEvent interface {
	mobileEvent()
}

// JoystickEvent reports the current stick state. Angle follows the polar convention (0 is
// right, π/2 is forward); a nil Angle or zero Force releases the stick. Force is the raw
// deflection in [0, 1] before shaping.
type JoystickEvent struct {
	Angle *float64
	Force float64
}

// LookEvent carries yaw/pitch deltas in radians, already scaled by the producer's sensitivity.
type LookEvent struct {
	DYaw   float64
	DPitch float64
}

func (JoystickEvent) mobileEvent() {}
func (LookEvent) mobileEvent()     {}

// Released returns the event that centres the stick.
func Released() JoystickEvent {
	return JoystickEvent{}
}
