package collision

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultMargin is the stand-off distance added to every tested move.
	DefaultMargin float32 = 1.0

	// DefaultMinDistance is the move length below which a tested move is treated as no movement.
	DefaultMinDistance float32 = 0.01
)

// detector is the implementation of the Detector interface.
type detector struct {
	set         *ObstacleSet
	margin      float32
	minDistance float32
	cullBack    bool
}

// Detector answers whether a straight move would run into the obstacle set.
// It keeps no state between calls and may be shared between goroutines.
type Detector interface {
	// WillCollide reports whether moving from one point to another hits an obstacle within the
	// move distance plus the collision margin. Moves shorter than the minimum distance never collide.
	//
	// Parameters:
	//   - from: the start point in world space
	//   - to: the proposed end point in world space
	//
	// Returns:
	//   - bool: true if at least one obstacle triangle lies within range
	WillCollide(from, to mgl32.Vec3) bool

	// Margin returns the stand-off distance added to each tested move.
	Margin() float32

	// Obstacles returns the set the detector queries.
	Obstacles() *ObstacleSet
}

var _ Detector = &detector{}

// NewDetector creates a detector over an obstacle set. A nil set behaves as an empty one.
//
// Parameters:
//   - set: the collected obstacles
//   - options: detector options (margin, minimum distance, back-face culling)
//
// Returns:
//   - Detector: the detector
func NewDetector(set *ObstacleSet, options ...DetectorOption) Detector {
	d := &detector{
		set:         set,
		margin:      DefaultMargin,
		minDistance: DefaultMinDistance,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

func (d *detector) WillCollide(from, to mgl32.Vec3) bool {
	delta := to.Sub(from)
	dist := delta.Len()
	if !(dist >= d.minDistance) {
		return false
	}

	ray := delta.Mul((dist + d.margin) / dist)
	for _, o := range d.set.list() {
		if o.intersects(from, ray, d.cullBack) {
			return true
		}
	}
	return false
}

func (d *detector) Margin() float32 {
	return d.margin
}

func (d *detector) Obstacles() *ObstacleSet {
	return d.set
}
