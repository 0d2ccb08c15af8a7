package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-walk/common"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraControllerImpl is the first-person implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	yaw      float64
	pitch    float64
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a first-person controller at the origin facing +Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu: &sync.Mutex{},
	}
	for _, option := range options {
		option(cc)
	}
	cc.pitch = common.ClampPitch(cc.pitch)
	return cc
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(p mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = p
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position.Add(common.LookDirection(cc.yaw, cc.pitch))
}

func (cc *cameraControllerImpl) LookAt(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.lookAt(target)
}

func (cc *cameraControllerImpl) Yaw() float64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetOrientation(yaw, pitch float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = yaw
	cc.pitch = common.ClampPitch(pitch)
}

func (cc *cameraControllerImpl) Forward() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return common.LookDirection(cc.yaw, cc.pitch)
}

// lookAt derives yaw/pitch from the direction to target. Caller must hold the mutex.
func (cc *cameraControllerImpl) lookAt(target mgl32.Vec3) {
	dir := target.Sub(cc.position)
	if dir.Len() == 0 {
		return
	}
	yaw, pitch := common.YawPitchFromDirection(dir)
	cc.yaw = yaw
	cc.pitch = common.ClampPitch(pitch)
}
