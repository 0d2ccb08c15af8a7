package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for the walkthrough pipeline.
// Matches GPUVertex layout exactly (44 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertexStride is the byte stride of one GPUVertex in a vertex buffer.
const GPUVertexStride = 44

// GPUVertex is one world-space vertex of a baked model. Direct light is resolved on the CPU
// into Color; a baked lightmap, when bound, adds Albedo times the texel at UV on the GPU.
// Size: 44 bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0: world-space position (12 bytes)
	Color    [3]float32 // offset 12: shaded linear RGB (12 bytes)
	Albedo   [3]float32 // offset 24: unshaded base color (12 bytes)
	UV       [2]float32 // offset 36: lightmap coordinate (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 44-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexStride)
	g.put(buf)
	return buf
}

func (g *GPUVertex) put(buf []byte) {
	fields := [...]float32{
		g.Position[0], g.Position[1], g.Position[2],
		g.Color[0], g.Color[1], g.Color[2],
		g.Albedo[0], g.Albedo[1], g.Albedo[2],
		g.UV[0], g.UV[1],
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

// MarshalVertices packs vertices back to back into one buffer.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*GPUVertexStride bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*GPUVertexStride)
	for i := range vertices {
		vertices[i].put(buf[i*GPUVertexStride:])
	}
	return buf
}
