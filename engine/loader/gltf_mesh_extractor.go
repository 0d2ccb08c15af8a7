package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfPrimitiveGeometry is one triangle primitive of a glTF mesh converted to scene geometry.
type gltfPrimitiveGeometry struct {
	Name     string
	Geometry *scene.Geometry
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser    gltfParser
	materials gltfMaterialExtractor
	cache     map[int][]gltfPrimitiveGeometry
	skipped   int
}

// gltfMeshExtractor converts glTF meshes into scene geometry.
// Meshes referenced by several nodes are extracted once and the geometry is shared,
// so auxiliary data such as bounds trees is built once per mesh.
type gltfMeshExtractor interface {
	// ExtractMesh extracts every triangle primitive of a mesh.
	// Point and line primitives are skipped.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//
	// Returns:
	//   - []gltfPrimitiveGeometry: one entry per triangle primitive
	//   - error: error if extraction fails
	ExtractMesh(meshIndex int) ([]gltfPrimitiveGeometry, error)

	// Skipped returns the number of non-triangle primitives ignored so far.
	//
	// Returns:
	//   - int: the skipped primitive count
	Skipped() int
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - materials: resolves the material referenced by each primitive
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser, materials gltfMaterialExtractor) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{
		parser:    parser,
		materials: materials,
		cache:     make(map[int][]gltfPrimitiveGeometry),
	}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) ([]gltfPrimitiveGeometry, error) {
	if cached, ok := e.cache[meshIndex]; ok {
		return cached, nil
	}

	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	var result []gltfPrimitiveGeometry
	for primIdx := range mesh.Primitives {
		geom, err := e.extractPrimitive(&mesh.Primitives[primIdx])
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
		if geom == nil {
			e.skipped++
			continue
		}

		name := mesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", meshIndex)
		}
		if primIdx > 0 {
			name = fmt.Sprintf("%s_prim%d", name, primIdx)
		}
		result = append(result, gltfPrimitiveGeometry{Name: name, Geometry: geom})
	}

	e.cache[meshIndex] = result
	return result, nil
}

func (e *gltfMeshExtractorImpl) Skipped() int {
	return e.skipped
}

// extractPrimitive reads positions, lightmap coordinates and a triangle-list index buffer for
// one primitive. Returns nil geometry for non-triangle topologies.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive) (*scene.Geometry, error) {
	mode := gltfModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	if mode != gltfModeTriangles && mode != gltfModeTriangleStrip && mode != gltfModeTriangleFan {
		return nil, nil
	}

	posAccessor, ok := prim.Attributes[gltfAttrPosition]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}
	raw, err := e.parser.ReadVec3Accessor(posAccessor)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	positions := make([]mgl32.Vec3, len(raw))
	for i, p := range raw {
		positions[i] = mgl32.Vec3(p)
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = e.parser.ReadIndicesAccessor(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	switch mode {
	case gltfModeTriangleStrip:
		indices = gltfStripToList(indices)
	case gltfModeTriangleFan:
		indices = gltfFanToList(indices)
	default:
		indices = indices[:len(indices)-len(indices)%3]
	}

	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range for %d vertices", idx, len(positions))
		}
	}

	mat, err := e.materials.ExtractMaterial(prim.Material)
	if err != nil {
		return nil, err
	}

	uvs, err := e.lightmapUVs(prim, len(positions))
	if err != nil {
		return nil, err
	}

	geom := scene.NewGeometry(positions, indices)
	geom.DoubleSided = mat.DoubleSided
	geom.Color = mat.BaseColor
	geom.LightmapUVs = uvs
	return geom, nil
}

// lightmapUVs reads the coordinates a baked lightmap is addressed with: TEXCOORD_1 when the
// mesh has a dedicated lightmap unwrap, otherwise TEXCOORD_0. A set whose length does not
// match the positions is dropped.
func (e *gltfMeshExtractorImpl) lightmapUVs(prim *gltfPrimitive, vertices int) ([]mgl32.Vec2, error) {
	index, ok := prim.Attributes[gltfAttrTexcoord1]
	if !ok {
		if index, ok = prim.Attributes[gltfAttrTexcoord0]; !ok {
			return nil, nil
		}
	}
	raw, err := e.parser.ReadVec2Accessor(index)
	if err != nil {
		return nil, fmt.Errorf("failed to read lightmap coordinates: %w", err)
	}
	if len(raw) != vertices {
		return nil, nil
	}
	uvs := make([]mgl32.Vec2, len(raw))
	for i, uv := range raw {
		uvs[i] = mgl32.Vec2(uv)
	}
	return uvs, nil
}

// gltfStripToList converts triangle-strip indices to a triangle list, flipping every other
// triangle to keep a consistent winding.
func gltfStripToList(strip []uint32) []uint32 {
	if len(strip) < 3 {
		return []uint32{}
	}
	out := make([]uint32, 0, (len(strip)-2)*3)
	for i := 0; i+2 < len(strip); i++ {
		if i%2 == 0 {
			out = append(out, strip[i], strip[i+1], strip[i+2])
		} else {
			out = append(out, strip[i+1], strip[i], strip[i+2])
		}
	}
	return out
}

// gltfFanToList converts triangle-fan indices to a triangle list.
func gltfFanToList(fan []uint32) []uint32 {
	if len(fan) < 3 {
		return []uint32{}
	}
	out := make([]uint32, 0, (len(fan)-2)*3)
	for i := 1; i+1 < len(fan); i++ {
		out = append(out, fan[0], fan[i], fan[i+1])
	}
	return out
}
