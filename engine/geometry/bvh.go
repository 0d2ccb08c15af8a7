package geometry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultLeafSize is the maximum number of triangles stored in a BVH leaf.
const DefaultLeafSize = 4

// ErrInvalidIndices is returned when an index buffer does not describe a triangle list over the given positions.
var ErrInvalidIndices = errors.New("index buffer does not describe a triangle list")

// bvhNode is either an internal node with two children or a leaf with a run of triangles.
type bvhNode struct {
	bounds    AABB
	left      *bvhNode
	right     *bvhNode
	triangles []Triangle
}

// BVH is a bounding volume hierarchy over a triangle soup, built once and queried read-only.
// Queries never allocate, so a single BVH may be shared between goroutines.
type BVH struct {
	root      *bvhNode
	count     int
	leafSize  int
	nodeCount int
}

// BuildBVH builds a hierarchy over an indexed triangle list by recursively splitting on the
// longest axis of the node bounds at the median triangle centroid.
//
// Parameters:
//   - positions: vertex positions
//   - indices: triangle list indices into positions (length must be a multiple of 3)
//   - leafSize: maximum triangles per leaf, values < 1 use DefaultLeafSize
//
// Returns:
//   - *BVH: the hierarchy, with a nil root when there are no triangles
//   - error: ErrInvalidIndices when the index buffer is malformed
func BuildBVH(positions []mgl32.Vec3, indices []uint32, leafSize int) (*BVH, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrInvalidIndices, len(indices))
	}
	if leafSize < 1 {
		leafSize = DefaultLeafSize
	}

	tris := make([]Triangle, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(positions) || int(b) >= len(positions) || int(c) >= len(positions) {
			return nil, fmt.Errorf("%w: triangle %d references vertex past %d", ErrInvalidIndices, i/3, len(positions))
		}
		tris = append(tris, Triangle{A: positions[a], B: positions[b], C: positions[c]})
	}

	return NewBVH(tris, leafSize), nil
}

// NewBVH builds a hierarchy directly over triangles. The slice is reordered in place and retained.
//
// Parameters:
//   - triangles: the faces to index
//   - leafSize: maximum triangles per leaf, values < 1 use DefaultLeafSize
//
// Returns:
//   - *BVH: the hierarchy
func NewBVH(triangles []Triangle, leafSize int) *BVH {
	if leafSize < 1 {
		leafSize = DefaultLeafSize
	}
	b := &BVH{count: len(triangles), leafSize: leafSize}
	if len(triangles) > 0 {
		b.root = b.build(triangles)
	}
	return b
}

func (b *BVH) build(triangles []Triangle) *bvhNode {
	b.nodeCount++
	node := &bvhNode{bounds: EmptyAABB()}
	for _, t := range triangles {
		node.bounds = node.bounds.Union(t.Bounds())
	}

	if len(triangles) <= b.leafSize {
		node.triangles = triangles
		return node
	}

	extent := node.bounds.Size()
	axis := 0
	if extent.Y() > extent.X() && extent.Y() > extent.Z() {
		axis = 1
	} else if extent.Z() > extent.X() && extent.Z() > extent.Y() {
		axis = 2
	}

	slices.SortFunc(triangles, func(p, q Triangle) int {
		cp, cq := p.Centroid()[axis], q.Centroid()[axis]
		switch {
		case cp < cq:
			return -1
		case cp > cq:
			return 1
		}
		return 0
	})

	mid := len(triangles) / 2
	node.left = b.build(triangles[:mid])
	node.right = b.build(triangles[mid:])
	return node
}

// Bounds returns the box enclosing every triangle, or an empty box for an empty hierarchy.
func (b *BVH) Bounds() AABB {
	if b == nil || b.root == nil {
		return EmptyAABB()
	}
	return b.root.bounds
}

// TriangleCount returns the number of indexed triangles.
func (b *BVH) TriangleCount() int {
	if b == nil {
		return 0
	}
	return b.count
}

// NodeCount returns the number of nodes in the hierarchy.
func (b *BVH) NodeCount() int {
	if b == nil {
		return 0
	}
	return b.nodeCount
}

// IntersectSegment reports whether the segment origin + t*delta, t in [0, 1], hits any triangle.
// Traversal stops at the first hit found.
//
// Parameters:
//   - origin: segment start in the hierarchy's space
//   - delta: segment end minus start
//   - cullBack: ignore back-facing triangles
//
// Returns:
//   - bool: true if any triangle is hit
func (b *BVH) IntersectSegment(origin, delta mgl32.Vec3, cullBack bool) bool {
	if b == nil || b.root == nil {
		return false
	}
	return anyHit(b.root, origin, delta, cullBack)
}

// FirstHit returns the smallest segment parameter at which the segment hits a triangle.
//
// Parameters:
//   - origin: segment start in the hierarchy's space
//   - delta: segment end minus start
//   - cullBack: ignore back-facing triangles
//
// Returns:
//   - float32: the hit parameter in [0, 1]
//   - bool: false when nothing is hit
func (b *BVH) FirstHit(origin, delta mgl32.Vec3, cullBack bool) (float32, bool) {
	if b == nil || b.root == nil {
		return 0, false
	}
	best := float32(2)
	closestHit(b.root, origin, delta, cullBack, &best)
	return best, best <= 1
}

func anyHit(n *bvhNode, origin, delta mgl32.Vec3, cullBack bool) bool {
	if !n.bounds.IntersectSegment(origin, delta) {
		return false
	}
	if n.triangles != nil {
		for _, t := range n.triangles {
			if _, ok := t.IntersectSegment(origin, delta, cullBack); ok {
				return true
			}
		}
		return false
	}
	return anyHit(n.left, origin, delta, cullBack) || anyHit(n.right, origin, delta, cullBack)
}

func closestHit(n *bvhNode, origin, delta mgl32.Vec3, cullBack bool, best *float32) {
	if !n.bounds.IntersectSegment(origin, delta) {
		return
	}
	if n.triangles != nil {
		for _, t := range n.triangles {
			if hit, ok := t.IntersectSegment(origin, delta, cullBack); ok && hit < *best {
				*best = hit
			}
		}
		return
	}
	closestHit(n.left, origin, delta, cullBack, best)
	closestHit(n.right, origin, delta, cullBack, best)
}
