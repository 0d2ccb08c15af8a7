package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSurfaceParamsSource is the canonical WGSL definition of the SurfaceParams struct.
// Matches GPUSurfaceParams layout exactly (16 bytes).
//
//go:embed assets/surface_params.wgsl
var GPUSurfaceParamsSource string

// GPUSurfaceParams is the uniform the walkthrough fragment shader reads next to the lightmap.
// Size: 16 bytes.
type GPUSurfaceParams struct {
	LightmapIntensity float32 // offset  0: scale of the baked lightmap term
	FogDistance       float32 // offset  4: distance at which fog reaches FogMax
	FogMax            float32 // offset  8: fog blend cap in [0, 1]
	Exposure          float32 // offset 12: multiplier on the final color before clamping
}

// Size returns the size of the GPUSurfaceParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSurfaceParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSurfaceParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUSurfaceParams) Marshal() []byte {
	buf := make([]byte, 16)
	for i, f := range [...]float32{g.LightmapIntensity, g.FogDistance, g.FogMax, g.Exposure} {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
