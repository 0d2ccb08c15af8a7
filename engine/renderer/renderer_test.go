package renderer

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-walk/engine/lightmap"
	"github.com/Carmen-Shannon/oxy-walk/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBackend stands in for the GPU and records surface uploads.
type recordingBackend struct {
	RendererBackend

	params        []byte
	width, height uint32
	texels        []byte
	uploads       int
	fail          error
}

func (b *recordingBackend) UploadSurface(params []byte, width, height uint32, texels []byte) error {
	if b.fail != nil {
		return b.fail
	}
	b.params, b.width, b.height, b.texels = params, width, height, texels
	b.uploads++
	return nil
}

func newTestRenderer(backend RendererBackend) *renderer {
	return &renderer{
		mu:       &sync.Mutex{},
		backend:  backend,
		logger:   slog.Default(),
		material: material.NewMaterial(),
	}
}

func TestRenderer_SetMaterialUploadsLightmap(t *testing.T) {
	backend := &recordingBackend{}
	r := newTestRenderer(backend)

	img := lightmap.NewImage(4, 2)
	m := material.NewMaterial(material.WithName("lightmap.exr"), material.WithLightmap(img), material.WithLightmapIntensity(2))
	require.NoError(t, r.SetMaterial(m))

	assert.Equal(t, 1, backend.uploads)
	assert.Equal(t, uint32(4), backend.width)
	assert.Equal(t, uint32(2), backend.height)
	assert.Len(t, backend.texels, 4*2*lightmap.BytesPerTexel)
	params := m.Params()
	assert.Equal(t, params.Marshal(), backend.params)
	assert.Same(t, m, r.Material())
}

func TestRenderer_SetMaterialKeepsPreviousOnFailure(t *testing.T) {
	backend := &recordingBackend{fail: errors.New("out of memory")}
	r := newTestRenderer(backend)
	before := r.Material()

	m := material.NewMaterial(material.WithName("huge.hdr"), material.WithLightmap(lightmap.NewImage(2, 2)))
	err := r.SetMaterial(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "huge.hdr")
	assert.Same(t, before, r.Material())
}

func TestWalkthroughShader_BindsSurfaceGroup(t *testing.T) {
	src := walkthroughShader()
	for _, want := range []string{
		"struct CameraUniform",
		"struct SurfaceParams",
		"struct VertexInput",
		"@group(1) @binding(1) var lightmap_texture: texture_2d<f32>;",
		"@group(1) @binding(2) var lightmap_sampler: sampler;",
		"@location(3) uv: vec2<f32>",
	} {
		assert.True(t, strings.Contains(src, want), "shader missing %q", want)
	}
	assert.Less(t, strings.Index(src, "struct SurfaceParams"), strings.Index(src, "var<uniform> params: SurfaceParams"))
}
