package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-walk/engine/lightmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMaterial_Defaults(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, "walkthrough", m.Name())
	assert.Nil(t, m.Lightmap())
	assert.Equal(t, GPUSurfaceParams{FogDistance: 600, FogMax: 0.6, Exposure: 1}, m.Params())

	w, h, data := m.Texels()
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
	assert.Equal(t, make([]byte, lightmap.BytesPerTexel), data)
}

func TestNewMaterial_Lightmap(t *testing.T) {
	img := lightmap.NewImage(3, 2)
	img.Set(2, 1, [4]float32{4, 2, 1, 1})

	m := NewMaterial(
		WithName("lightmap2048.hdr"),
		WithLightmap(img),
		WithLightmapIntensity(0.5),
		WithFog(250, 2),
		WithExposure(-1),
	)
	assert.Equal(t, "lightmap2048.hdr", m.Name())
	assert.Same(t, img, m.Lightmap())
	assert.Equal(t, GPUSurfaceParams{LightmapIntensity: 0.5, FogDistance: 250, FogMax: 1, Exposure: 1}, m.Params())

	w, h, data := m.Texels()
	assert.Equal(t, uint32(3), w)
	assert.Equal(t, uint32(2), h)
	require.Len(t, data, 3*2*lightmap.BytesPerTexel)
	assert.Equal(t, img.RGBA16F(), data)
}

func TestNewMaterial_IgnoresInvalidOptions(t *testing.T) {
	m := NewMaterial(WithLightmap(&lightmap.Image{}), WithLightmapIntensity(-2), WithFog(0, -1))
	assert.Nil(t, m.Lightmap())
	p := m.Params()
	assert.Zero(t, p.LightmapIntensity, "no lightmap, no lightmap term")
	assert.Equal(t, DefaultFogDistance, p.FogDistance)
	assert.Zero(t, p.FogMax)
}

func TestGPUSurfaceParams_Marshal(t *testing.T) {
	p := GPUSurfaceParams{LightmapIntensity: 1.5, FogDistance: 600, FogMax: 0.6, Exposure: 2}
	buf := p.Marshal()
	require.Len(t, buf, p.Size())
	assert.Equal(t, 16, p.Size())

	at := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(1.5), at(0))
	assert.Equal(t, float32(600), at(4))
	assert.Equal(t, float32(0.6), at(8))
	assert.Equal(t, float32(2), at(12))
	assert.Contains(t, GPUSurfaceParamsSource, "struct SurfaceParams")
}
