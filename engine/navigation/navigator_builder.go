package navigation

import "log/slog"

// NavigatorOption is a functional option for NewNavigator.
type NavigatorOption func(*navigator)

// WithSpeed sets the movement speed in world units per second.
func WithSpeed(speed float32) NavigatorOption {
	return func(n *navigator) {
		if speed > 0 {
			n.speed = speed
		}
	}
}

// WithEyeHeight sets the height the camera is pinned to every frame.
func WithEyeHeight(h float32) NavigatorOption {
	return func(n *navigator) {
		n.eyeHeight = h
	}
}

// WithSmoothing selects per-frame or time-scaled smoothing.
func WithSmoothing(mode SmoothingMode) NavigatorOption {
	return func(n *navigator) {
		n.smoothing = mode
	}
}

// WithSmoothingFactor sets the per-frame lerp factor toward the input direction, in (0, 1].
func WithSmoothingFactor(f float32) NavigatorOption {
	return func(n *navigator) {
		if f > 0 && f <= 1 {
			n.smoothFactor = f
		}
	}
}

// WithDampingFactor sets the per-frame velocity multiplier while coasting, in (0, 1).
func WithDampingFactor(f float32) NavigatorOption {
	return func(n *navigator) {
		if f > 0 && f < 1 {
			n.dampFactor = f
		}
	}
}

// WithReferenceFrameRate sets the frame rate at which time-scaled smoothing equals per-frame smoothing.
func WithReferenceFrameRate(hz float32) NavigatorOption {
	return func(n *navigator) {
		if hz > 0 {
			n.referenceFrame = hz
		}
	}
}

// WithLogger sets the logger for readiness and rejected moves.
func WithLogger(logger *slog.Logger) NavigatorOption {
	return func(n *navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}
