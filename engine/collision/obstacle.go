// Package collision gathers static scene geometry into an obstacle set and answers
// segment queries against it for the walkthrough camera.
package collision

import (
	"github.com/Carmen-Shannon/oxy-walk/engine/geometry"
	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Obstacle is one mesh node captured at collection time. The world transform and bounds are
// snapshots; later edits to the scene graph are not observed.
type Obstacle struct {
	node    scene.Node
	world   mgl32.Mat4
	inverse mgl32.Mat4
	bounds  geometry.AABB
	tree    *geometry.BVH
}

// Node returns the scene node the obstacle was built from.
func (o *Obstacle) Node() scene.Node {
	return o.node
}

// World returns the world transform captured at collection time.
func (o *Obstacle) World() mgl32.Mat4 {
	return o.world
}

// Bounds returns the world-space bounding box.
func (o *Obstacle) Bounds() geometry.AABB {
	return o.bounds
}

// Tree returns the local-space hierarchy attached to the node's geometry.
func (o *Obstacle) Tree() *geometry.BVH {
	return o.tree
}

// intersects tests the world-space segment origin→origin+delta. The segment is moved into the
// obstacle's local space so the hierarchy never has to be rebuilt for its transform; affine maps
// preserve the segment parameter, so the [0,1] range stays valid.
func (o *Obstacle) intersects(origin, delta mgl32.Vec3, cullBack bool) bool {
	if !o.bounds.IntersectSegment(origin, delta) {
		return false
	}
	localOrigin := mgl32.TransformCoordinate(origin, o.inverse)
	localEnd := mgl32.TransformCoordinate(origin.Add(delta), o.inverse)
	return o.tree.IntersectSegment(localOrigin, localEnd.Sub(localOrigin), cullBack)
}

// ObstacleSet is the read-only result of a collection pass, ordered by scene traversal.
type ObstacleSet struct {
	obstacles []*Obstacle
	triangles int
}

// Len returns the number of obstacles.
func (s *ObstacleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.obstacles)
}

// Triangles returns the total triangle count across all obstacles.
func (s *ObstacleSet) Triangles() int {
	if s == nil {
		return 0
	}
	return s.triangles
}

// Obstacles returns a copy of the obstacle list.
func (s *ObstacleSet) Obstacles() []*Obstacle {
	if s == nil {
		return nil
	}
	out := make([]*Obstacle, len(s.obstacles))
	copy(out, s.obstacles)
	return out
}

// list returns the backing slice without copying; nil-safe.
func (s *ObstacleSet) list() []*Obstacle {
	if s == nil {
		return nil
	}
	return s.obstacles
}
