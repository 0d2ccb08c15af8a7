// Package model bakes a scene graph into a single world-space, flat-shaded triangle list
// that the renderer can upload as one vertex buffer.
package model

import (
	"math"

	"github.com/Carmen-Shannon/oxy-walk/engine/geometry"
	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

const (
	// DefaultAmbient is the shade applied to faces pointing away from the light.
	DefaultAmbient float32 = 0.35
)

// DefaultLightDirection points from the surface toward the light.
var DefaultLightDirection = mgl32.Vec3{0.4, 1, 0.3}

// model is the implementation of the Model interface.
type model struct {
	name      string
	vertices  []GPUVertex
	bounds    geometry.AABB
	meshes    int
	lightDir  mgl32.Vec3
	ambient   float32
	skipped   int
	triangles int
	unwrapped int
}

// Model is a scene graph flattened for drawing: every mesh node's triangles transformed to
// world space with one color per triangle.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Vertices returns the baked vertices, three per triangle.
	//
	// Returns:
	//   - []GPUVertex: the vertex list
	Vertices() []GPUVertex

	// VertexData returns the vertices packed for a vertex buffer.
	//
	// Returns:
	//   - []byte: the packed vertex data
	VertexData() []byte

	// VertexCount returns the number of baked vertices.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// TriangleCount returns the number of baked triangles.
	//
	// Returns:
	//   - int: the triangle count
	TriangleCount() int

	// MeshCount returns how many mesh nodes contributed triangles.
	//
	// Returns:
	//   - int: the mesh count
	MeshCount() int

	// LightmapMeshCount returns how many contributing meshes carried lightmap coordinates.
	// Vertices of the others have a zero UV.
	//
	// Returns:
	//   - int: the mesh count
	LightmapMeshCount() int

	// Bounds returns the world-space bounding box of the baked vertices.
	// The box is empty when the model has no triangles.
	//
	// Returns:
	//   - geometry.AABB: the bounds
	Bounds() geometry.AABB
}

var _ Model = &model{}

// Bake walks the graph under root and produces a Model. Triangles referencing out-of-range
// indices or collapsing to zero area are skipped.
//
// Parameters:
//   - name: identifier of the model, usually the source path
//   - root: the graph root; nil yields an empty model
//   - options: functional options for shading
//
// Returns:
//   - Model: the baked model
func Bake(name string, root scene.Node, options ...ModelBuilderOption) Model {
	m := &model{
		name:     name,
		lightDir: DefaultLightDirection.Normalize(),
		ambient:  DefaultAmbient,
		bounds:   geometry.EmptyAABB(),
	}
	for _, opt := range options {
		opt(m)
	}
	if root == nil {
		return m
	}

	root.Traverse(func(n scene.Node) {
		g := n.Geometry()
		if n.Kind() != scene.NodeKindMesh || g == nil || g.TriangleCount() == 0 {
			return
		}
		before := len(m.vertices)
		m.bakeGeometry(g, n.WorldTransform())
		if len(m.vertices) > before {
			m.meshes++
			if g.HasLightmapUVs() {
				m.unwrapped++
			}
		}
	})
	m.triangles = len(m.vertices) / 3
	return m
}

func (m *model) bakeGeometry(g *scene.Geometry, world mgl32.Mat4) {
	base := g.Color.Vec3()
	n := uint32(len(g.Positions))
	uv := func(i uint32) [2]float32 { return [2]float32{} }
	if g.HasLightmapUVs() {
		uv = func(i uint32) [2]float32 { return g.LightmapUVs[i] }
	}
	for t := 0; t+2 < len(g.Indices); t += 3 {
		i0, i1, i2 := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
		if i0 >= n || i1 >= n || i2 >= n {
			m.skipped++
			continue
		}
		a := mgl32.TransformCoordinate(g.Positions[i0], world)
		b := mgl32.TransformCoordinate(g.Positions[i1], world)
		c := mgl32.TransformCoordinate(g.Positions[i2], world)

		normal := b.Sub(a).Cross(c.Sub(a))
		if normal.Len() == 0 || math.IsNaN(float64(normal.Len())) {
			m.skipped++
			continue
		}
		color := base.Mul(m.shade(normal.Normalize(), g.DoubleSided))

		for k, p := range [3]mgl32.Vec3{a, b, c} {
			m.vertices = append(m.vertices, GPUVertex{
				Position: p,
				Color:    color,
				Albedo:   base,
				UV:       uv(g.Indices[t+k]),
			})
			m.bounds = m.bounds.ExpandPoint(p)
		}
	}
}

// shade is a Lambert term over an ambient floor. Double-sided faces are lit from either side.
func (m *model) shade(normal mgl32.Vec3, doubleSided bool) float32 {
	d := normal.Dot(m.lightDir)
	if doubleSided {
		d = float32(math.Abs(float64(d)))
	}
	d = lo.Clamp(d, 0, 1)
	return m.ambient + (1-m.ambient)*d
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []GPUVertex {
	return m.vertices
}

func (m *model) VertexData() []byte {
	return MarshalVertices(m.vertices)
}

func (m *model) VertexCount() int {
	return len(m.vertices)
}

func (m *model) TriangleCount() int {
	return m.triangles
}

func (m *model) MeshCount() int {
	return m.meshes
}

func (m *model) LightmapMeshCount() int {
	return m.unwrapped
}

func (m *model) Bounds() geometry.AABB {
	return m.bounds
}
