package input

import (
	"math"

	"github.com/samber/lo"
)

// DefaultJoystickExponent shapes stick force so small deflections move disproportionately less.
const DefaultJoystickExponent = 1.5

// JoystickVector maps a stick angle and force to a ground-plane vector. Force is clamped to
// at most 1 and raised to exponent before mapping x = cos(angle)·f, z = −sin(angle)·f.
// A nil angle or non-positive force yields the zero vector.
//
// Parameters:
//   - angle: stick angle in radians, or nil when released
//   - force: raw deflection
//   - exponent: response curve exponent, values <= 0 disable shaping
//
// Returns:
//   - x, z: the ground-plane vector; −z points along the view's forward axis
func JoystickVector(angle *float64, force, exponent float64) (x, z float64) {
	if angle == nil || force <= 0 {
		return 0, 0
	}
	f := math.Min(force, 1)
	if exponent > 0 {
		f = math.Pow(f, exponent)
	}
	return math.Cos(*angle) * f, -math.Sin(*angle) * f
}

// GamepadToJoystick converts an analog stick (GLFW axes, +Y down) into the angle/force form
// of a touch joystick. Deflection inside the deadzone releases the stick; the rest of the
// range is rescaled to [0, 1].
//
// Parameters:
//   - axisX: horizontal axis in [−1, 1], +1 right
//   - axisY: vertical axis in [−1, 1], +1 down
//   - deadzone: radial deadzone in [0, 1)
//
// Returns:
//   - JoystickEvent: the equivalent joystick state
func GamepadToJoystick(axisX, axisY, deadzone float64) JoystickEvent {
	mag := math.Hypot(axisX, axisY)
	deadzone = lo.Clamp(deadzone, 0, 0.99)
	if mag <= deadzone {
		return Released()
	}
	angle := math.Atan2(-axisY, axisX)
	force := lo.Clamp((mag-deadzone)/(1-deadzone), 0, 1)
	return JoystickEvent{Angle: &angle, Force: force}
}

// GamepadLook turns a right-stick deflection into a look delta for one frame. Right turns
// the view right (yaw decreases) and up raises it, matching mouse look.
//
// Parameters:
//   - axisX: horizontal axis in [−1, 1], +1 right
//   - axisY: vertical axis in [−1, 1], +1 down
//   - deadzone: radial deadzone in [0, 1)
//   - speed: radians per second at full deflection
//   - dt: frame time in seconds
//
// Returns:
//   - LookEvent: the look delta
//   - bool: false when the stick rests inside the deadzone
func GamepadLook(axisX, axisY, deadzone, speed, dt float64) (LookEvent, bool) {
	ev := GamepadToJoystick(axisX, axisY, deadzone)
	if ev.Angle == nil {
		return LookEvent{}, false
	}
	x := math.Cos(*ev.Angle) * ev.Force
	down := -math.Sin(*ev.Angle) * ev.Force
	return LookEvent{DYaw: -x * speed * dt, DPitch: -down * speed * dt}, true
}
