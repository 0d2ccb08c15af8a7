package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-walk/engine/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry is the CPU-side triangle data of a mesh node in the node's local space.
// The bounding box and bounds tree are auxiliary collision data attached lazily;
// they never affect how the mesh is drawn.
type Geometry struct {
	// Positions holds one entry per vertex.
	Positions []mgl32.Vec3

	// Indices is a triangle list into Positions.
	Indices []uint32

	// DoubleSided marks geometry whose back faces are visible (glTF material doubleSided).
	DoubleSided bool

	// Color is the linear RGBA base color used when drawing the mesh.
	Color mgl32.Vec4

	// LightmapUVs holds one baked-lightmap texture coordinate per position, or nil when the
	// mesh was not unwrapped for a lightmap.
	LightmapUVs []mgl32.Vec2

	mu          *sync.Mutex
	boundingBox *geometry.AABB
	boundsTree  *geometry.BVH
}

// NewGeometry creates geometry from positions and a triangle-list index buffer.
// A nil index buffer is treated as a non-indexed triangle list.
//
// Parameters:
//   - positions: vertex positions in local space
//   - indices: triangle list indices, or nil
//
// Returns:
//   - *Geometry: the geometry
func NewGeometry(positions []mgl32.Vec3, indices []uint32) *Geometry {
	if indices == nil {
		indices = make([]uint32, len(positions)-len(positions)%3)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	return &Geometry{
		Positions: positions,
		Indices:   indices,
		Color:     mgl32.Vec4{1, 1, 1, 1},
		mu:        &sync.Mutex{},
	}
}

// TriangleCount returns the number of triangles described by the index buffer.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// BoundingBox returns the attached local-space bounding box, if one has been computed.
func (g *Geometry) BoundingBox() (geometry.AABB, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.boundingBox == nil {
		return geometry.AABB{}, false
	}
	return *g.boundingBox, true
}

// ComputeBoundingBox computes and attaches the local-space bounding box over all positions.
//
// Returns:
//   - geometry.AABB: the computed box
func (g *Geometry) ComputeBoundingBox() geometry.AABB {
	g.mu.Lock()
	defer g.mu.Unlock()
	box := geometry.EmptyAABB()
	for _, p := range g.Positions {
		box = box.ExpandPoint(p)
	}
	g.boundingBox = &box
	return box
}

// BoundsTree returns the attached bounding volume hierarchy, or nil.
func (g *Geometry) BoundsTree() *geometry.BVH {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boundsTree
}

// SetBoundsTree attaches a prebuilt hierarchy.
func (g *Geometry) SetBoundsTree(tree *geometry.BVH) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.boundsTree = tree
}

// ComputeBoundsTree builds and attaches a hierarchy over the triangles, reusing an existing one.
//
// Parameters:
//   - leafSize: maximum triangles per leaf
//
// Returns:
//   - *geometry.BVH: the attached hierarchy
//   - bool: true if a new hierarchy was built, false if one was reused
//   - error: error if the index buffer is malformed
func (g *Geometry) ComputeBoundsTree(leafSize int) (*geometry.BVH, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.boundsTree != nil {
		return g.boundsTree, false, nil
	}
	tree, err := geometry.BuildBVH(g.Positions, g.Indices, leafSize)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build bounds tree: %w", err)
	}
	g.boundsTree = tree
	return tree, true, nil
}

// HasLightmapUVs reports whether every position has a lightmap coordinate.
func (g *Geometry) HasLightmapUVs() bool {
	return len(g.Positions) > 0 && len(g.LightmapUVs) == len(g.Positions)
}
