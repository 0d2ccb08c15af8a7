package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithStartPosition sets the initial world-space position.
//
// Parameters:
//   - p: the starting position
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithStartPosition(p mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = p
	}
}

// WithOrientation sets the initial yaw and pitch in radians.
//
// Parameters:
//   - yaw: rotation about +Y, 0 facing +Z
//   - pitch: elevation above the horizon, clamped after all options apply
//
// Returns:
//   - CameraControllerOption: functional option to set the orientation
func WithOrientation(yaw, pitch float64) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
		cc.pitch = pitch
	}
}

// WithLookAt faces the controller toward a point, relative to the position set so far.
//
// Parameters:
//   - target: the point to face
//
// Returns:
//   - CameraControllerOption: functional option to aim the controller
func WithLookAt(target mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.lookAt(target)
	}
}
