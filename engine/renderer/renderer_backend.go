package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// SurfaceSource supplies the native surface a backend presents to. window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// RendererBackend is the GPU API the Renderer drives each frame.
type RendererBackend interface {
	// ConfigureSurface (re)creates the swapchain, MSAA and depth targets for a surface size.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// UploadVertices replaces the vertex buffer drawn each frame.
	//
	// Parameters:
	//   - data: packed vertex data
	//   - vertexCount: the number of vertices in data
	//
	// Returns:
	//   - error: an error if the buffer could not be created
	UploadVertices(data []byte, vertexCount int) error

	// UploadSurface replaces the surface parameters and the lightmap texture bound in group 1.
	//
	// Parameters:
	//   - params: the marshalled surface parameters
	//   - width: the lightmap width in texels
	//   - height: the lightmap height in texels
	//   - texels: RGBA16F texel data, top row first
	//
	// Returns:
	//   - error: an error if the size is out of range or the texture could not be created
	UploadSurface(params []byte, width, height uint32, texels []byte) error

	// WriteUniform writes the camera uniform for the next frame.
	//
	// Parameters:
	//   - data: the marshalled uniform
	WriteUniform(data []byte)

	// BeginFrame acquires the next surface texture and opens the render pass.
	//
	// Returns:
	//   - error: an error if no surface texture is available
	BeginFrame() error

	// Draw records the walkthrough draw into the open pass. A no-op without uploaded vertices.
	Draw()

	// EndFrame closes the pass and submits the frame's commands.
	EndFrame()

	// Present shows the acquired surface texture.
	Present()

	// Release frees GPU resources.
	Release()
}
