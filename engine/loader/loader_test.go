package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadBuffer returns a unit quad in the XY plane: 4 float32 positions followed by 6 uint16 indices.
func quadBuffer(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	positions := []float32{
		-1, -1, 0,
		1, -1, 0,
		1, 1, 0,
		-1, 1, 0,
	}
	indices := []uint16{0, 1, 2, 0, 2, 3}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, positions))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, indices))
	return buf.Bytes()
}

// quadDocument builds a two-node glTF document: a scaled group containing a translated quad.
func quadDocument(bufferLen int, uri string) map[string]any {
	buffer := map[string]any{"byteLength": bufferLen}
	if uri != "" {
		buffer["uri"] = uri
	}
	return map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"name": "Walkthrough", "nodes": []int{1}}},
		"nodes": []any{
			map[string]any{"name": "floor", "mesh": 0, "translation": []float32{0, 0, -5}},
			map[string]any{"name": "building", "children": []int{0}, "scale": []float32{2, 2, 2}},
		},
		"meshes": []any{map[string]any{
			"name": "floor",
			"primitives": []any{map[string]any{
				"attributes": map[string]int{"POSITION": 0},
				"indices":    1,
				"material":   0,
			}},
		}},
		"materials": []any{map[string]any{
			"name":        "concrete",
			"doubleSided": true,
			"pbrMetallicRoughness": map[string]any{
				"baseColorFactor": []float32{0.5, 0.5, 0.5, 1},
			},
		}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": gltfFloat, "count": 4, "type": "VEC3"},
			map[string]any{"bufferView": 1, "componentType": gltfUnsignedShort, "count": 6, "type": "SCALAR"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 48},
			map[string]any{"buffer": 0, "byteOffset": 48, "byteLength": 12},
		},
		"buffers": []any{buffer},
	}
}

func writeGLTF(t *testing.T) string {
	t.Helper()
	data := quadBuffer(t)
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
	doc, err := json.Marshal(quadDocument(len(data), uri))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "room.gltf")
	require.NoError(t, os.WriteFile(path, doc, 0o644))
	return path
}

func buildGLB(t *testing.T) []byte {
	t.Helper()
	bin := quadBuffer(t)
	jsonData, err := json.Marshal(quadDocument(len(bin), ""))
	require.NoError(t, err)
	for len(jsonData)%4 != 0 {
		jsonData = append(jsonData, ' ')
	}
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + len(bin)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, []uint32{glbMagic, glbVersion, uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, []uint32{uint32(len(jsonData)), glbChunkJSON}))
	out.Write(jsonData)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, []uint32{uint32(len(bin)), glbChunkBIN}))
	out.Write(bin)
	return out.Bytes()
}

func findMesh(t *testing.T, root scene.Node) scene.Node {
	t.Helper()
	var mesh scene.Node
	root.Traverse(func(n scene.Node) {
		if n.Kind() == scene.NodeKindMesh && mesh == nil {
			mesh = n
		}
	})
	require.NotNil(t, mesh)
	return mesh
}

func TestLoader_LoadGLTFFile(t *testing.T) {
	path := writeGLTF(t)
	l := NewLoader(BackendTypeGLTF)

	root, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Walkthrough", root.Name())

	stats := scene.Summarize(root)
	assert.Equal(t, 1, stats.Meshes)
	assert.Equal(t, 2, stats.Triangles)

	mesh := findMesh(t, root)
	geom := mesh.Geometry()
	require.NotNil(t, geom)
	assert.True(t, geom.DoubleSided)
	assert.InDelta(t, 0.5, geom.Color.X(), 1e-6)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, geom.Indices)
	assert.False(t, geom.HasLightmapUVs())

	// building scale 2 applied over floor translation (0,0,-5)
	p := mgl32.TransformCoordinate(geom.Positions[1], mesh.WorldTransform())
	assert.InDelta(t, 2, p.X(), 1e-5)
	assert.InDelta(t, -2, p.Y(), 1e-5)
	assert.InDelta(t, -10, p.Z(), 1e-5)

	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, root, again)
	assert.Len(t, l.Models(), 1)
}

func TestLoader_LoadAsync(t *testing.T) {
	path := writeGLTF(t)
	l := NewLoader(BackendTypeGLTF)

	first := l.LoadAsync(path)
	second := l.LoadAsync(path)
	assert.Equal(t, path, first.Path())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, err := first.Wait(ctx)
	require.NoError(t, err)
	b, err := second.Wait(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)

	select {
	case <-first.Done():
	default:
		t.Fatal("done channel should be closed after Wait returns")
	}

	cached := l.LoadAsync(path)
	node, err := cached.Result()
	require.NoError(t, err)
	assert.Same(t, a, node)
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	_, err := l.Load("level.obj")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.LoadAsync("level.fbx").Result()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Error(t, err)
	assert.Empty(t, l.Models())
}

func TestLoader_LoadReaderGLB(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	root, err := l.LoadReader("embedded", bytes.NewReader(buildGLB(t)), true)
	require.NoError(t, err)
	assert.Equal(t, 2, scene.Summarize(root).Triangles)
	assert.Same(t, root, l.Get("embedded"))
	assert.Nil(t, l.Get("other"))
}

func TestLoader_WithModel(t *testing.T) {
	preloaded := scene.NewGroup("preloaded")
	l := NewLoader(BackendTypeGLTF, WithModel("lobby.glb", preloaded))

	root, err := l.Load("lobby.glb")
	require.NoError(t, err)
	assert.Same(t, preloaded, root)
}

// texcoordDocument extends the quad with a FLOAT TEXCOORD_0 set (accessor 2) and a normalized
// UNSIGNED_SHORT set (accessor 3), wiring the attributes named in attrs.
func texcoordDocument(t *testing.T, attrs map[string]int, normalized bool) []byte {
	t.Helper()
	buf := bytes.NewBuffer(quadBuffer(t))
	require.NoError(t, binary.Write(buf, binary.LittleEndian, []float32{0, 0, 0.25, 0, 0.25, 0.5, 0, 0.5}))
	require.NoError(t, binary.Write(buf, binary.LittleEndian, []uint16{0, 0, 65535, 0, 65535, 65535, 0, 65535}))
	data := buf.Bytes()

	doc := quadDocument(len(data), "data:application/gltf-buffer;base64,"+base64.StdEncoding.EncodeToString(data))
	attrs["POSITION"] = 0
	doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)["attributes"] = attrs
	doc["accessors"] = append(doc["accessors"].([]any),
		map[string]any{"bufferView": 2, "componentType": gltfFloat, "count": 4, "type": "VEC2"},
		map[string]any{"bufferView": 3, "componentType": gltfUnsignedShort, "normalized": normalized, "count": 4, "type": "VEC2"},
	)
	doc["bufferViews"] = append(doc["bufferViews"].([]any),
		map[string]any{"buffer": 0, "byteOffset": 60, "byteLength": 32},
		map[string]any{"buffer": 0, "byteOffset": 92, "byteLength": 16},
	)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func TestLoader_LightmapCoordinates(t *testing.T) {
	t.Run("second set preferred", func(t *testing.T) {
		l := NewLoader(BackendTypeGLTF)
		root, err := l.LoadReader("uv", bytes.NewReader(texcoordDocument(t, map[string]int{"TEXCOORD_0": 2, "TEXCOORD_1": 3}, true)), false)
		require.NoError(t, err)

		geom := findMesh(t, root).Geometry()
		require.True(t, geom.HasLightmapUVs())
		assert.Equal(t, []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, geom.LightmapUVs)
	})

	t.Run("first set as fallback", func(t *testing.T) {
		l := NewLoader(BackendTypeGLTF)
		root, err := l.LoadReader("uv", bytes.NewReader(texcoordDocument(t, map[string]int{"TEXCOORD_0": 2}, true)), false)
		require.NoError(t, err)

		geom := findMesh(t, root).Geometry()
		assert.Equal(t, []mgl32.Vec2{{0, 0}, {0.25, 0}, {0.25, 0.5}, {0, 0.5}}, geom.LightmapUVs)
	})

	t.Run("integer coordinates must be normalized", func(t *testing.T) {
		l := NewLoader(BackendTypeGLTF)
		_, err := l.LoadReader("uv", bytes.NewReader(texcoordDocument(t, map[string]int{"TEXCOORD_1": 3}, false)), false)
		assert.ErrorContains(t, err, "texture coordinate")
	})
}

func TestGLTFParser_Errors(t *testing.T) {
	p := newGLTFParser()
	_, err := p.ReadVec3Accessor(0)
	assert.ErrorIs(t, err, errNoDocument)

	assert.ErrorIs(t, p.ParseReader(bytes.NewReader([]byte(`{"asset":{"version":"1.0"}}`)), false), errBadGLTFVersion)

	glb := buildGLB(t)
	assert.ErrorIs(t, p.ParseReader(bytes.NewReader(glb[:len(glb)-4]), true), errBadGLB)

	require.NoError(t, p.ParseReader(bytes.NewReader(glb), false), "GLB detected by magic")
	_, err = p.ReadVec2Accessor(0)
	assert.ErrorContains(t, err, "is VEC3, want VEC2")
	_, err = p.ReadIndicesAccessor(7)
	assert.ErrorContains(t, err, "out of range")

	indices, err := p.ReadIndicesAccessor(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, indices)
}

func TestGLTFIndexConversion(t *testing.T) {
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, gltfStripToList([]uint32{0, 1, 2, 3}))
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, gltfFanToList([]uint32{0, 1, 2, 3}))
	assert.Empty(t, gltfStripToList([]uint32{0, 1}))
	assert.NotNil(t, gltfFanToList(nil))
}

func TestGLTFNodeMatrix(t *testing.T) {
	s := float32(math.Sin(math.Pi / 4))
	node := &gltfNode{
		Translation: &[3]float32{0, 1, 0},
		Rotation:    &[4]float32{0, s, 0, s},
	}
	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, gltfNodeMatrix(node))
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, 1, p.Y(), 1e-5)
	assert.InDelta(t, -1, p.Z(), 1e-5)

	assert.Equal(t, mgl32.Ident4(), gltfNodeMatrix(&gltfNode{}))
}
