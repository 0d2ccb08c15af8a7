package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CameraController owns the first-person pose of a camera: a world-space position and a
// yaw/pitch orientation. Yaw rotates about +Y with 0 facing +Z; pitch is elevation above the
// horizon and is always kept within ±common.PitchLimit. The look target is derived as one
// unit ahead of the position.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - p: world-space coordinates
	SetPosition(p mgl32.Vec3)

	// Target returns the look-at point one unit along the view direction.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// LookAt turns the camera toward a world-space point. Pitch is clamped, so a target
	// straight above or below is approached but never reached. A target equal to the
	// position leaves the orientation unchanged.
	//
	// Parameters:
	//   - target: the point to face
	LookAt(target mgl32.Vec3)

	// Yaw returns the rotation about +Y in radians.
	//
	// Returns:
	//   - float64: yaw in radians
	Yaw() float64

	// Pitch returns the elevation above the horizon in radians.
	//
	// Returns:
	//   - float64: pitch in radians
	Pitch() float64

	// SetOrientation sets yaw and pitch, clamping pitch.
	//
	// Parameters:
	//   - yaw: rotation about +Y in radians
	//   - pitch: elevation in radians
	SetOrientation(yaw, pitch float64)

	// Forward returns the unit view direction.
	//
	// Returns:
	//   - mgl32.Vec3: the view direction
	Forward() mgl32.Vec3
}
