package camera

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-walk/engine/collision"
	"github.com/go-gl/mathgl/mgl32"
)

// MoveResult reports how a requested move was resolved.
type MoveResult int

const (
	// MoveDirect means the full move was clear and applied.
	MoveDirect MoveResult = iota
	// MoveSlideX means only the X component of the move was applied.
	MoveSlideX
	// MoveSlideZ means only the Z component of the move was applied.
	MoveSlideZ
	// MoveRejected means every candidate collided and the pose was reset to the last safe position.
	MoveRejected
)

// String returns a short name for the result.
func (r MoveResult) String() string {
	switch r {
	case MoveDirect:
		return "direct"
	case MoveSlideX:
		return "slide_x"
	case MoveSlideZ:
		return "slide_z"
	case MoveRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MoveStats counts resolved moves by outcome.
type MoveStats struct {
	Direct   uint64
	SlideX   uint64
	SlideZ   uint64
	Rejected uint64
}

// safeController is the implementation of SafeController.
type safeController struct {
	mu *sync.Mutex

	pose     CameraController
	detector collision.Detector
	logger   *slog.Logger

	lastSafe mgl32.Vec3

	direct   atomic.Uint64
	slideX   atomic.Uint64
	slideZ   atomic.Uint64
	rejected atomic.Uint64
}

// SafeController moves a camera pose without letting it pass through obstacles. A blocked
// move is retried as an X-only and then a Z-only move, which lets the camera slide along
// walls; if all three are blocked the pose snaps back to the last position that was accepted.
type SafeController interface {
	// CheckMultipleDirections resolves a proposed position against the current one without
	// moving the camera. Candidates are tried in a fixed order: direct, X only, Z only. An
	// axis candidate that would not change the position is skipped, so a blocked move along a
	// single axis ends in MoveRejected rather than a zero-length slide.
	//
	// Parameters:
	//   - next: the proposed world-space position
	//
	// Returns:
	//   - mgl32.Vec3: the position to move to
	//   - MoveResult: which candidate succeeded, or MoveRejected
	CheckMultipleDirections(next mgl32.Vec3) (mgl32.Vec3, MoveResult)

	// MoveCameraSafely applies CheckMultipleDirections to the camera. Accepted moves update
	// the last safe position; rejected moves reset the camera to it.
	//
	// Parameters:
	//   - next: the proposed world-space position
	//
	// Returns:
	//   - MoveResult: how the move was resolved
	MoveCameraSafely(next mgl32.Vec3) MoveResult

	// LastSafePosition returns the position of the most recent accepted move.
	//
	// Returns:
	//   - mgl32.Vec3: the last safe position
	LastSafePosition() mgl32.Vec3

	// Detector returns the collision detector used to test moves.
	//
	// Returns:
	//   - collision.Detector: the detector
	Detector() collision.Detector

	// Stats returns move counters since construction.
	//
	// Returns:
	//   - MoveStats: counts per outcome
	Stats() MoveStats
}

var _ SafeController = &safeController{}

// NewSafeController wraps a pose with collision-aware movement. The last safe position starts
// at the pose's current position.
//
// Parameters:
//   - pose: the camera or controller to move
//   - detector: the collision detector to test moves with
//   - options: functional options
//
// Returns:
//   - SafeController: the controller
func NewSafeController(pose CameraController, detector collision.Detector, options ...SafeControllerOption) SafeController {
	sc := &safeController{
		mu:       &sync.Mutex{},
		pose:     pose,
		detector: detector,
		logger:   slog.Default(),
		lastSafe: pose.Position(),
	}
	for _, option := range options {
		option(sc)
	}
	return sc
}

func (sc *safeController) CheckMultipleDirections(next mgl32.Vec3) (mgl32.Vec3, MoveResult) {
	return sc.resolve(sc.pose.Position(), next)
}

func (sc *safeController) MoveCameraSafely(next mgl32.Vec3) MoveResult {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	current := sc.pose.Position()
	pos, result := sc.resolve(current, next)

	switch result {
	case MoveDirect:
		sc.direct.Add(1)
	case MoveSlideX:
		sc.slideX.Add(1)
	case MoveSlideZ:
		sc.slideZ.Add(1)
	case MoveRejected:
		sc.rejected.Add(1)
		sc.logger.Debug("move rejected", "from", current, "to", next, "reset", sc.lastSafe)
		sc.pose.SetPosition(sc.lastSafe)
		return result
	}

	sc.pose.SetPosition(pos)
	sc.lastSafe = pos
	return result
}

func (sc *safeController) LastSafePosition() mgl32.Vec3 {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.lastSafe
}

func (sc *safeController) Detector() collision.Detector {
	return sc.detector
}

func (sc *safeController) Stats() MoveStats {
	return MoveStats{
		Direct:   sc.direct.Load(),
		SlideX:   sc.slideX.Load(),
		SlideZ:   sc.slideZ.Load(),
		Rejected: sc.rejected.Load(),
	}
}

// resolve tries direct, X-only, then Z-only moves from current toward next. A zero-length
// axis move is skipped, never accepted as a no-move success, so it falls through to MoveRejected.
func (sc *safeController) resolve(current, next mgl32.Vec3) (mgl32.Vec3, MoveResult) {
	if !sc.detector.WillCollide(current, next) {
		return next, MoveDirect
	}

	slideX := mgl32.Vec3{next.X(), current.Y(), current.Z()}
	if slideX != current && !sc.detector.WillCollide(current, slideX) {
		return slideX, MoveSlideX
	}

	slideZ := mgl32.Vec3{current.X(), current.Y(), next.Z()}
	if slideZ != current && !sc.detector.WillCollide(current, slideZ) {
		return slideZ, MoveSlideZ
	}

	return current, MoveRejected
}
