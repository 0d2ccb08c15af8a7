package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// floor is a 2x2 quad in the XZ plane facing +Y.
func floor(color mgl32.Vec4) *scene.Geometry {
	g := scene.NewGeometry([]mgl32.Vec3{
		{-1, 0, -1}, {-1, 0, 1}, {1, 0, 1}, {1, 0, -1},
	}, []uint32{0, 1, 2, 0, 2, 3})
	g.Color = color
	return g
}

func TestBakeTransformsToWorld(t *testing.T) {
	root := scene.NewGroup("root", scene.WithChildren(
		scene.NewMesh("floor", floor(mgl32.Vec4{1, 1, 1, 1}), scene.WithTranslation(0, -2, 10)),
	))

	m := Bake("floor.gltf", root, WithLightDirection(mgl32.Vec3{0, 1, 0}))

	assert.Equal(t, "floor.gltf", m.Name())
	assert.Equal(t, 1, m.MeshCount())
	assert.Equal(t, 2, m.TriangleCount())
	require.Equal(t, 6, m.VertexCount())

	b := m.Bounds()
	assert.InDelta(t, -1, b.Min.X(), 1e-6)
	assert.InDelta(t, -2, b.Min.Y(), 1e-6)
	assert.InDelta(t, 9, b.Min.Z(), 1e-6)
	assert.InDelta(t, 11, b.Max.Z(), 1e-6)

	// facing the light head on
	for _, v := range m.Vertices() {
		assert.InDelta(t, 1, v.Color[0], 1e-6)
	}
}

func TestBakeShading(t *testing.T) {
	// reversed winding faces -Y, away from a light straight above
	down := scene.NewGeometry([]mgl32.Vec3{{-1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}, nil)
	down.Color = mgl32.Vec4{0.5, 0.5, 0.5, 1}

	single := Bake("single", scene.NewMesh("down", down), WithLightDirection(mgl32.Vec3{0, 1, 0}), WithAmbient(0.2))
	require.Equal(t, 3, single.VertexCount())
	assert.InDelta(t, 0.1, single.Vertices()[0].Color[0], 1e-6)

	down.DoubleSided = true
	double := Bake("double", scene.NewMesh("down", down), WithLightDirection(mgl32.Vec3{0, 1, 0}), WithAmbient(0.2))
	assert.InDelta(t, 0.5, double.Vertices()[0].Color[0], 1e-6)
}

func TestBakeSkipsDegenerateTriangles(t *testing.T) {
	g := scene.NewGeometry([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 0, 1}}, []uint32{
		0, 1, 2, // collinear
		0, 1, 9, // out of range
		0, 3, 1,
	})
	m := Bake("mixed", scene.NewMesh("mixed", g))
	assert.Equal(t, 1, m.TriangleCount())
	assert.Equal(t, 2, m.(*model).skipped)
}

func TestBakeEmpty(t *testing.T) {
	m := Bake("nil", nil)
	assert.Zero(t, m.VertexCount())
	assert.Zero(t, m.MeshCount())
	assert.True(t, m.Bounds().Empty())
	assert.Empty(t, m.VertexData())

	group := Bake("group", scene.NewGroup("only"))
	assert.Zero(t, group.TriangleCount())
}

func TestBakeLightmapCoordinates(t *testing.T) {
	lit := floor(mgl32.Vec4{0.8, 0.6, 0.4, 1})
	lit.LightmapUVs = []mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	plain := floor(mgl32.Vec4{1, 1, 1, 1})

	m := Bake("lit", scene.NewGroup("root", scene.WithChildren(
		scene.NewMesh("lit", lit),
		scene.NewMesh("plain", plain, scene.WithTranslation(5, 0, 0)),
	)), WithLightDirection(mgl32.Vec3{0, 1, 0}))

	assert.Equal(t, 2, m.MeshCount())
	assert.Equal(t, 1, m.LightmapMeshCount())
	require.Equal(t, 12, m.VertexCount())

	v := m.Vertices()
	// second triangle of the lit floor is indices 0, 2, 3
	assert.Equal(t, [2]float32{0, 0}, v[3].UV)
	assert.Equal(t, [2]float32{1, 1}, v[4].UV)
	assert.Equal(t, [2]float32{1, 0}, v[5].UV)
	assert.InDelta(t, 0.6, v[4].Albedo[1], 1e-6)

	for _, pv := range v[6:] {
		assert.Equal(t, [2]float32{}, pv.UV)
		assert.Equal(t, [3]float32{1, 1, 1}, pv.Albedo)
	}

	// a coordinate set that does not cover every position is ignored
	lit.LightmapUVs = lit.LightmapUVs[:2]
	assert.Zero(t, Bake("short", scene.NewMesh("lit", lit)).LightmapMeshCount())
}

func TestMarshalVertices(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Color:    [3]float32{0.25, 0.5, 0.75},
		Albedo:   [3]float32{0.9, 0.8, 0.7},
		UV:       [2]float32{0.125, 0.625},
	}
	assert.Equal(t, GPUVertexStride, v.Size())

	buf := MarshalVertices([]GPUVertex{{}, v})
	require.Len(t, buf, 2*GPUVertexStride)
	assert.Equal(t, v.Marshal(), buf[GPUVertexStride:])

	at := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[GPUVertexStride+off:]))
	}
	assert.Equal(t, float32(3), at(8))
	assert.Equal(t, float32(0.75), at(20))
	assert.Equal(t, float32(0.9), at(24))
	assert.Equal(t, float32(0.125), at(36))
	assert.Equal(t, float32(0.625), at(40))
}
