// Package renderer draws a baked walkthrough model through WebGPU with a single pipeline,
// a camera bind group and a surface bind group carrying the lightmap.
package renderer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-walk/engine/camera"
	"github.com/Carmen-Shannon/oxy-walk/engine/model"
	"github.com/Carmen-Shannon/oxy-walk/engine/renderer/material"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	logger      *slog.Logger

	model    model.Model
	material material.Material

	// pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	sampleCount          MSAASampleCount
}

// Renderer is the high-level drawing API used by the frame loop.
type Renderer interface {
	// Upload replaces the drawn model. Passing a model with no vertices clears the scene.
	//
	// Parameters:
	//   - m: the baked model
	//
	// Returns:
	//   - error: an error if GPU buffers could not be created
	Upload(m model.Model) error

	// Model returns the model currently drawn, or nil.
	//
	// Returns:
	//   - model.Model: the uploaded model
	Model() model.Model

	// SetMaterial uploads a material's surface parameters and lightmap. The previous
	// material stays bound when the upload fails.
	//
	// Parameters:
	//   - m: the material to apply
	//
	// Returns:
	//   - error: an error if the lightmap texture could not be created
	SetMaterial(m material.Material) error

	// Material returns the material currently bound.
	//
	// Returns:
	//   - material.Material: the bound material
	Material() material.Material

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	//   - width: the current surface width in pixels
	//   - height: the current surface height in pixels
	SetPresentMode(mode PresentMode, width, height int)

	// Render draws one frame from the camera's point of view and presents it.
	//
	// Parameters:
	//   - uniform: the camera uniform for this frame
	//
	// Returns:
	//   - error: an error if the frame could not be acquired
	Render(uniform camera.GPUCameraUniform) error

	// Release frees GPU resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer presenting to the given surface.
// Panics if no adapter or device is available.
//
// Parameters:
//   - backendType: the type of backend to use for rendering (e.g., BackendTypeWGPU)
//   - surface: the surface source, typically the window
//   - options: optional configuration functions to customize the renderer
//
// Returns:
//   - Renderer: a new instance of the Renderer interface
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		logger:      slog.Default(),
		presentMode: PresentModeVSync,
		sampleCount: MSAA4x,
		material:    material.NewMaterial(),
	}

	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.sampleCount)
	}

	r.backend.SetPresentMode(r.presentMode)
	r.backend.ConfigureSurface(surface.Width(), surface.Height())
	r.logger.Info("renderer initialized", "width", surface.Width(), "height", surface.Height(), "msaa", uint32(r.sampleCount))
	return r
}

func (r *renderer) Upload(m model.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backend.UploadVertices(m.VertexData(), m.VertexCount()); err != nil {
		return fmt.Errorf("upload %q: %w", m.Name(), err)
	}
	r.model = m
	r.logger.Info("model uploaded", "model", m.Name(), "meshes", m.MeshCount(), "triangles", m.TriangleCount())
	return nil
}

func (r *renderer) Model() model.Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

func (r *renderer) SetMaterial(m material.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	params := m.Params()
	width, height, texels := m.Texels()
	if err := r.backend.UploadSurface(params.Marshal(), width, height, texels); err != nil {
		return fmt.Errorf("material %q: %w", m.Name(), err)
	}
	r.material = m
	if m.Lightmap() != nil {
		r.logger.Info("lightmap applied", "material", m.Name(), "width", width, "height", height, "intensity", params.LightmapIntensity)
	}
	return nil
}

func (r *renderer) Material() material.Material {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.material
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode, width, height int) {
	r.backend.SetPresentMode(mode)
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Render(uniform camera.GPUCameraUniform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backend.WriteUniform(uniform.Marshal())
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.backend.Draw()
	r.backend.EndFrame()
	r.backend.Present()
	return nil
}

func (r *renderer) Release() {
	r.backend.Release()
}
