package input

import "log/slog"

// AggregatorOption is a functional option for NewAggregator.
type AggregatorOption func(*aggregator)

// WithLookSensitivity sets radians per pixel of pointer-lock mouse motion.
func WithLookSensitivity(s float64) AggregatorOption {
	return func(a *aggregator) {
		if s > 0 {
			a.lookSensitivity = s
		}
	}
}

// WithJoystickExponent sets the stick response curve exponent.
func WithJoystickExponent(exp float64) AggregatorOption {
	return func(a *aggregator) {
		if exp > 0 {
			a.joystickExponent = exp
		}
	}
}

// WithMobileEvents connects the channel touch and gamepad producers send on. The channel is
// drained without blocking at each Snapshot; closing it detaches the producer.
func WithMobileEvents(ch <-chan MobileEvent) AggregatorOption {
	return func(a *aggregator) {
		a.mobile = ch
	}
}

// WithPointerLockRequester sets the function Click calls to ask the window for pointer lock.
// The window reports the outcome through SetPointerLocked.
func WithPointerLockRequester(fn func()) AggregatorOption {
	return func(a *aggregator) {
		a.requestPointerLock = fn
	}
}

// WithInitialOrientation sets the starting yaw and pitch in radians.
func WithInitialOrientation(yaw, pitch float64) AggregatorOption {
	return func(a *aggregator) {
		a.yaw, a.pitch = yaw, pitch
	}
}

// WithLogger sets the logger used for pointer-lock changes.
func WithLogger(logger *slog.Logger) AggregatorOption {
	return func(a *aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}
