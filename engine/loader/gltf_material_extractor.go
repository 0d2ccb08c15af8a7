package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// gltfMaterialInfo is the part of a glTF material that survives import: the flat base color
// used for shading and whether back faces count as surfaces.
type gltfMaterialInfo struct {
	Name        string
	BaseColor   mgl32.Vec4
	DoubleSided bool
}

// defaultGLTFMaterial is the glTF default material (white, single-sided).
var defaultGLTFMaterial = gltfMaterialInfo{Name: "default", BaseColor: mgl32.Vec4{1, 1, 1, 1}}

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser gltfParser
	cache  map[int]gltfMaterialInfo
}

// gltfMaterialExtractor resolves material indices referenced by primitives.
type gltfMaterialExtractor interface {
	// ExtractMaterial resolves a material by index. A nil index yields the glTF default material.
	//
	// Parameters:
	//   - materialIndex: the primitive's material index, or nil
	//
	// Returns:
	//   - gltfMaterialInfo: the resolved material
	//   - error: error if the index is out of range
	ExtractMaterial(materialIndex *int) (gltfMaterialInfo, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for a parsed document.
func newGLTFMaterialExtractor(parser gltfParser) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{parser: parser, cache: make(map[int]gltfMaterialInfo)}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex *int) (gltfMaterialInfo, error) {
	if materialIndex == nil {
		return defaultGLTFMaterial, nil
	}
	if cached, ok := e.cache[*materialIndex]; ok {
		return cached, nil
	}

	doc := e.parser.Document()
	if doc == nil {
		return gltfMaterialInfo{}, fmt.Errorf("no document loaded")
	}
	if *materialIndex < 0 || *materialIndex >= len(doc.Materials) {
		return gltfMaterialInfo{}, fmt.Errorf("material index %d out of range", *materialIndex)
	}

	mat := &doc.Materials[*materialIndex]
	info := gltfMaterialInfo{
		Name:        mat.Name,
		BaseColor:   defaultGLTFMaterial.BaseColor,
		DoubleSided: mat.DoubleSided,
	}
	if mat.PbrMetallicRoughness != nil && mat.PbrMetallicRoughness.BaseColorFactor != nil {
		info.BaseColor = mgl32.Vec4(*mat.PbrMetallicRoughness.BaseColorFactor)
	}

	e.cache[*materialIndex] = info
	return info, nil
}
