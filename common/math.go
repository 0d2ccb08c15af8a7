package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// PitchLimit is the largest absolute pitch (radians) a first-person camera may reach.
// Staying 0.1 rad short of straight up/down keeps the look-at basis from flipping.
const PitchLimit = math.Pi/2 - 0.1

// WorldUp is the +Y up axis shared by the camera and movement basis.
var WorldUp = mgl32.Vec3{0, 1, 0}

// ClampPitch limits a pitch angle to [-PitchLimit, PitchLimit].
//
// Parameters:
//   - pitch: the pitch angle in radians
//
// Returns:
//   - float64: the clamped pitch
func ClampPitch(pitch float64) float64 {
	return lo.Clamp(pitch, -PitchLimit, PitchLimit)
}

// GroundForward returns the horizontal forward axis for a yaw angle.
// Pitch never contributes, so the result always lies in the XZ plane.
//
// Parameters:
//   - yaw: rotation about +Y in radians, 0 facing +Z
//
// Returns:
//   - mgl32.Vec3: unit forward vector (sin yaw, 0, cos yaw)
func GroundForward(yaw float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(math.Sin(yaw)), 0, float32(math.Cos(yaw))}
}

// GroundRight returns the horizontal right axis for a yaw angle, computed as
// normalize(forward x up).
//
// Parameters:
//   - yaw: rotation about +Y in radians
//
// Returns:
//   - mgl32.Vec3: unit right vector (-cos yaw, 0, sin yaw)
func GroundRight(yaw float64) mgl32.Vec3 {
	return GroundForward(yaw).Cross(WorldUp).Normalize()
}

// LookDirection maps yaw/pitch to a unit view direction using the standard
// spherical-to-Cartesian conversion.
//
// Parameters:
//   - yaw: rotation about +Y in radians
//   - pitch: elevation above the horizon in radians
//
// Returns:
//   - mgl32.Vec3: (sin yaw cos pitch, sin pitch, cos yaw cos pitch)
func LookDirection(yaw, pitch float64) mgl32.Vec3 {
	cp := math.Cos(pitch)
	return mgl32.Vec3{
		float32(math.Sin(yaw) * cp),
		float32(math.Sin(pitch)),
		float32(math.Cos(yaw) * cp),
	}
}

// YawPitchFromDirection inverts LookDirection for a non-zero direction vector.
//
// Parameters:
//   - dir: any non-zero direction
//
// Returns:
//   - yaw, pitch: angles in radians
func YawPitchFromDirection(dir mgl32.Vec3) (yaw, pitch float64) {
	l := dir.Len()
	if l == 0 {
		return 0, 0
	}
	d := dir.Mul(1 / l)
	yaw = math.Atan2(float64(d.X()), float64(d.Z()))
	pitch = math.Asin(float64(lo.Clamp(d.Y(), -1, 1)))
	return yaw, pitch
}

// Lerp3 linearly interpolates from a toward b by t.
//
// Parameters:
//   - a: start vector
//   - b: end vector
//   - t: blend factor, 0 returns a and 1 returns b
//
// Returns:
//   - mgl32.Vec3: a + (b - a) * t
func Lerp3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// PerspectiveZO builds a right-handed perspective projection that maps depth
// into WebGPU's [0, 1] clip range. mgl32.Perspective targets OpenGL's [-1, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix (column-major)
func PerspectiveZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1.0 / math.Tan(float64(fovY)/2.0))
	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}
