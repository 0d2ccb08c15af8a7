// The JSON side of glTF 2.0 that a walkthrough needs: nodes and their transforms, triangle
// primitives with positions and lightmap coordinates, and the material flags that matter for
// collision sidedness and flat shading. Everything else in a document is ignored on decode.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

type gltfDocument struct {
	Asset       struct{ Version string } `json:"asset"`
	Scene       *int                     `json:"scene,omitempty"`
	Scenes      []gltfScene              `json:"scenes,omitempty"`
	Nodes       []gltfNode               `json:"nodes,omitempty"`
	Meshes      []gltfMesh               `json:"meshes,omitempty"`
	Materials   []gltfMaterial           `json:"materials,omitempty"`
	Accessors   []gltfAccessor           `json:"accessors,omitempty"`
	BufferViews []gltfBufferView         `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer             `json:"buffers,omitempty"`
}

type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode places a mesh and its children. Matrix, when present, wins over the TRS triple;
// rotation is a quaternion in x, y, z, w order.
type gltfNode struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"`
	Scale       *[3]float32  `json:"scale,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

// gltfPrimitive maps attribute semantics (POSITION, TEXCOORD_1, ...) to accessor indices.
// A nil Mode means triangles.
type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       *int           `json:"mode,omitempty"`
}

// attribute semantics
const (
	gltfAttrPosition  = "POSITION"
	gltfAttrTexcoord0 = "TEXCOORD_0"
	gltfAttrTexcoord1 = "TEXCOORD_1"
)

// topologies that produce triangles; points and lines are skipped
const (
	gltfModeTriangles     = 4
	gltfModeTriangleStrip = 5
	gltfModeTriangleFan   = 6
)

// gltfAccessor is a typed, optionally strided view into a buffer view. Sparse accessors are
// only decoded far enough to be refused.
type gltfAccessor struct {
	BufferView    *int      `json:"bufferView,omitempty"`
	ByteOffset    int       `json:"byteOffset,omitempty"`
	ComponentType int       `json:"componentType"`
	Normalized    bool      `json:"normalized,omitempty"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Sparse        *struct{} `json:"sparse,omitempty"`
}

// component types, named after their GL enums
const (
	gltfByte          = 5120
	gltfUnsignedByte  = 5121
	gltfShort         = 5122
	gltfUnsignedShort = 5123
	gltfUnsignedInt   = 5125
	gltfFloat         = 5126
)

// gltfComponentBytes is the size of each component type.
var gltfComponentBytes = map[int]int{
	gltfByte:          1,
	gltfUnsignedByte:  1,
	gltfShort:         2,
	gltfUnsignedShort: 2,
	gltfUnsignedInt:   4,
	gltfFloat:         4,
}

// gltfTypeWidth is the number of components of each element type.
var gltfTypeWidth = map[string]int{
	"SCALAR": 1,
	"VEC2":   2,
	"VEC3":   3,
	"VEC4":   4,
	"MAT2":   4,
	"MAT3":   9,
	"MAT4":   16,
}

type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

// gltfBuffer is filled from its URI, or from the GLB BIN chunk when it has none.
type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
	data       []byte
}

type gltfMaterial struct {
	Name                 string `json:"name,omitempty"`
	DoubleSided          bool   `json:"doubleSided,omitempty"`
	PbrMetallicRoughness *struct {
		BaseColorFactor *[4]float32 `json:"baseColorFactor,omitempty"`
	} `json:"pbrMetallicRoughness,omitempty"`
}

// GLB container framing: a 12-byte header, then length/type prefixed chunks.
const (
	glbMagic      = 0x46546C67 // "glTF"
	glbVersion    = 2
	glbHeaderSize = 12
	glbChunkJSON  = 0x4E4F534A // "JSON"
	glbChunkBIN   = 0x004E4942 // "BIN\0"
)
