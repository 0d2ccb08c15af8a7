package camera

import "log/slog"

// SafeControllerOption is a functional option for NewSafeController.
type SafeControllerOption func(*safeController)

// WithLogger sets the logger used to report rejected moves at debug level.
func WithLogger(logger *slog.Logger) SafeControllerOption {
	return func(sc *safeController) {
		if logger != nil {
			sc.logger = logger
		}
	}
}
