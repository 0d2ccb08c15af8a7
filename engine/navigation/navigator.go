// Package navigation runs the per-frame walkthrough loop: it turns input snapshots into
// smoothed, collision-checked camera moves at a fixed eye height.
package navigation

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-walk/common"
	"github.com/Carmen-Shannon/oxy-walk/engine/camera"
	"github.com/Carmen-Shannon/oxy-walk/engine/collision"
	"github.com/Carmen-Shannon/oxy-walk/engine/input"
	"github.com/go-gl/mathgl/mgl32"
)

// Defaults of the navigation loop.
const (
	DefaultSpeed              float32 = 16
	DefaultEyeHeight          float32 = 6
	DefaultSmoothingFactor    float32 = 0.15
	DefaultDampingFactor      float32 = 0.9
	DefaultReferenceFrameRate float32 = 60
)

const (
	// idleThreshold is the squared speed below which coasting stops.
	idleThreshold = 0.001
	// moveEpsilon is the squared displacement below which a moving frame requests nothing.
	moveEpsilon = 1e-6
)

// SmoothingMode selects how the smoothing and damping factors relate to frame time.
type SmoothingMode int

const (
	// SmoothingPerFrame applies the factors once per frame regardless of frame time, so the
	// wall-clock response depends on frame rate.
	SmoothingPerFrame SmoothingMode = iota
	// SmoothingTimeScaled scales the factors by dt relative to the reference frame rate,
	// matching SmoothingPerFrame exactly when frames arrive at that rate.
	SmoothingTimeScaled
)

// ErrUnknownSmoothingMode is returned by ParseSmoothingMode for unrecognised names.
var ErrUnknownSmoothingMode = errors.New("unknown smoothing mode")

// String returns the config spelling of the mode.
func (m SmoothingMode) String() string {
	switch m {
	case SmoothingPerFrame:
		return "frame"
	case SmoothingTimeScaled:
		return "time"
	default:
		return "unknown"
	}
}

// ParseSmoothingMode parses the config spelling of a smoothing mode ("frame" or "time").
//
// Parameters:
//   - s: the mode name
//
// Returns:
//   - SmoothingMode: the parsed mode, SmoothingPerFrame on error
//   - error: ErrUnknownSmoothingMode wrapped with the input
func ParseSmoothingMode(s string) (SmoothingMode, error) {
	switch s {
	case "frame", "":
		return SmoothingPerFrame, nil
	case "time":
		return SmoothingTimeScaled, nil
	default:
		return SmoothingPerFrame, fmt.Errorf("%w: %q", ErrUnknownSmoothingMode, s)
	}
}

// readyState is published once obstacles are available.
type readyState struct {
	set        *collision.ObstacleSet
	controller camera.SafeController
}

// navigator is the implementation of Navigator.
type navigator struct {
	mu *sync.Mutex

	pose  camera.CameraController
	input input.Aggregator
	ready atomic.Pointer[readyState]

	speed          float32
	eyeHeight      float32
	smoothing      SmoothingMode
	smoothFactor   float32
	dampFactor     float32
	referenceFrame float32

	velocity mgl32.Vec3

	logger *slog.Logger
}

// Navigator drives a camera pose from an input aggregator once per rendered frame.
type Navigator interface {
	// SetObstacles makes the navigator ready by building a collision detector over set and a
	// safe controller around the pose. It may be called from any goroutine; calling it again
	// replaces the obstacles and restarts the last safe position at the current pose.
	//
	// Parameters:
	//   - set: the collected obstacles
	//   - options: collision detector options
	SetObstacles(set *collision.ObstacleSet, options ...collision.DetectorOption)

	// Ready reports whether obstacles have been set.
	//
	// Returns:
	//   - bool: true once SetObstacles has been called
	Ready() bool

	// Tick advances navigation by one frame. Before the navigator is ready it only discards
	// pending touch look input. Once ready it integrates yaw/pitch, blends the movement
	// direction, requests the resulting displacement from the safe controller, pins the
	// camera height and aims the camera.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous frame
	Tick(dt float32)

	// Velocity returns the smoothed direction vector (unit speed, before scaling by speed).
	//
	// Returns:
	//   - mgl32.Vec3: the smoothed direction
	Velocity() mgl32.Vec3

	// Controller returns the safe controller, or nil before the navigator is ready.
	//
	// Returns:
	//   - camera.SafeController: the controller
	Controller() camera.SafeController

	// Stats returns the safe controller's move counters.
	//
	// Returns:
	//   - camera.MoveStats: counts per outcome, zero before ready
	Stats() camera.MoveStats
}

var _ Navigator = &navigator{}

// NewNavigator creates a navigator that is not yet ready.
//
// Parameters:
//   - pose: the camera (or controller) to move
//   - agg: the input aggregator to snapshot each frame
//   - options: functional options
//
// Returns:
//   - Navigator: the navigator
func NewNavigator(pose camera.CameraController, agg input.Aggregator, options ...NavigatorOption) Navigator {
	n := &navigator{
		mu:             &sync.Mutex{},
		pose:           pose,
		input:          agg,
		speed:          DefaultSpeed,
		eyeHeight:      DefaultEyeHeight,
		smoothing:      SmoothingPerFrame,
		smoothFactor:   DefaultSmoothingFactor,
		dampFactor:     DefaultDampingFactor,
		referenceFrame: DefaultReferenceFrameRate,
		logger:         slog.Default(),
	}
	for _, option := range options {
		option(n)
	}
	return n
}

func (n *navigator) SetObstacles(set *collision.ObstacleSet, options ...collision.DetectorOption) {
	detector := collision.NewDetector(set, options...)
	controller := camera.NewSafeController(n.pose, detector, camera.WithLogger(n.logger))
	n.ready.Store(&readyState{set: set, controller: controller})

	n.logger.Info("navigation ready",
		"obstacles", set.Len(),
		"triangles", set.Triangles(),
		"margin", detector.Margin(),
		"smoothing", n.smoothing.String(),
	)
}

func (n *navigator) Ready() bool {
	return n.ready.Load() != nil
}

func (n *navigator) Tick(dt float32) {
	state := n.ready.Load()
	if state == nil {
		n.input.Discard()
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	frame := n.input.Snapshot()

	if frame.Moving {
		n.velocity = common.Lerp3(n.velocity, frame.Direction, n.blend(dt))
		move := n.velocity.Mul(n.speed * dt)
		if move.Dot(move) > moveEpsilon {
			state.controller.MoveCameraSafely(n.pose.Position().Add(move))
		}
	} else if n.velocity.Dot(n.velocity) > idleThreshold {
		n.velocity = n.velocity.Mul(n.decay(dt))
		move := n.velocity.Mul(n.speed * dt)
		state.controller.MoveCameraSafely(n.pose.Position().Add(move))
	} else {
		n.velocity = mgl32.Vec3{}
	}

	pos := n.pose.Position()
	pos[1] = n.eyeHeight
	n.pose.SetPosition(pos)
	n.pose.SetOrientation(frame.Yaw, frame.Pitch)
}

func (n *navigator) Velocity() mgl32.Vec3 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.velocity
}

func (n *navigator) Controller() camera.SafeController {
	if state := n.ready.Load(); state != nil {
		return state.controller
	}
	return nil
}

func (n *navigator) Stats() camera.MoveStats {
	if state := n.ready.Load(); state != nil {
		return state.controller.Stats()
	}
	return camera.MoveStats{}
}

// blend returns the lerp factor toward the target direction for a frame of length dt.
func (n *navigator) blend(dt float32) float32 {
	if n.smoothing != SmoothingTimeScaled {
		return n.smoothFactor
	}
	return 1 - float32(math.Pow(float64(1-n.smoothFactor), n.frames(dt)))
}

// decay returns the idle damping multiplier for a frame of length dt.
func (n *navigator) decay(dt float32) float32 {
	if n.smoothing != SmoothingTimeScaled {
		return n.dampFactor
	}
	return float32(math.Pow(float64(n.dampFactor), n.frames(dt)))
}

// frames expresses dt in reference frames.
func (n *navigator) frames(dt float32) float64 {
	return float64(dt) * float64(n.referenceFrame)
}
