// Package material describes how the walkthrough surface is lit on the GPU: the baked
// lightmap bound next to the vertex buffer and the uniform parameters that blend it with the
// CPU-shaded vertex color and distance fog.
package material

import (
	"github.com/Carmen-Shannon/oxy-walk/engine/lightmap"
)

const (
	// DefaultLightmapIntensity scales lightmap texels one to one.
	DefaultLightmapIntensity float32 = 1

	// DefaultFogDistance and DefaultFogMax fade far geometry toward the clear color.
	DefaultFogDistance float32 = 600
	DefaultFogMax      float32 = 0.6
)

// material is the implementation of the Material interface.
type material struct {
	name      string
	lightmap  *lightmap.Image
	intensity float32
	fogDist   float32
	fogMax    float32
	exposure  float32
}

// Material is the surface state a renderer binds for the walkthrough pipeline. It is
// immutable once built; swap it by building another.
type Material interface {
	// Name retrieves the material identifier, usually the lightmap path.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Lightmap retrieves the decoded lightmap, or nil when the surface has none.
	//
	// Returns:
	//   - *lightmap.Image: the lightmap or nil
	Lightmap() *lightmap.Image

	// Params retrieves the uniform block for the fragment shader.
	//
	// Returns:
	//   - GPUSurfaceParams: the parameters
	Params() GPUSurfaceParams

	// Texels returns the lightmap packed as RGBA16Float rows. Without a lightmap it is a single
	// black texel so the lightmap term vanishes without a shader variant.
	//
	// Returns:
	//   - width, height: texture size in texels
	//   - data: width*height*lightmap.BytesPerTexel bytes
	Texels() (width, height uint32, data []byte)
}

var _ Material = &material{}

// NewMaterial creates a material with default fog, unit exposure and no lightmap.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Material: the material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		name:      "walkthrough",
		intensity: DefaultLightmapIntensity,
		fogDist:   DefaultFogDistance,
		fogMax:    DefaultFogMax,
		exposure:  1,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Lightmap() *lightmap.Image {
	return m.lightmap
}

func (m *material) Params() GPUSurfaceParams {
	intensity := m.intensity
	if m.lightmap == nil {
		intensity = 0
	}
	return GPUSurfaceParams{
		LightmapIntensity: intensity,
		FogDistance:       m.fogDist,
		FogMax:            m.fogMax,
		Exposure:          m.exposure,
	}
}

func (m *material) Texels() (uint32, uint32, []byte) {
	if m.lightmap == nil {
		return 1, 1, make([]byte, lightmap.BytesPerTexel)
	}
	return uint32(m.lightmap.Width), uint32(m.lightmap.Height), m.lightmap.RGBA16F()
}
