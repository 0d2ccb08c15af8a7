package bind_group_provider

import (
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	label string

	// GPU resources owned by the provider and freed by Release
	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	buffers         map[int]*wgpu.Buffer
	textures        map[int]*wgpu.Texture
	textureViews    map[int]*wgpu.TextureView
	samplers        map[int]*wgpu.Sampler
}

// BindGroupProvider owns the resources behind one bind group slot of the walkthrough
// pipeline, keyed by binding index. The renderer backend fills it, rebuilds the bind group
// from Entries when a resource is swapped, and releases everything through Release.
type BindGroupProvider interface {
	// Label returns the debug label used for every GPU object the provider creates.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group to set before drawing, or nil before it is built.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group is built against.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at binding, or nil.
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the texture view at binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler at binding, or nil.
	Sampler(binding int) *wgpu.Sampler

	// Entries lists every held resource as bind group entries in binding order.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: the entries, buffers bound whole
	Entries() []wgpu.BindGroupEntry

	// SetBindGroup replaces the bind group, releasing the previous one.
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer stores a buffer at binding, releasing the one it replaces.
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTexture stores a texture and the view bound at binding, releasing the pair it
	// replaces. The texture may be nil when the view's texture is owned elsewhere.
	SetTexture(binding int, tex *wgpu.Texture, view *wgpu.TextureView)

	// SetSampler stores a sampler at binding, releasing the one it replaces.
	SetSampler(binding int, s *wgpu.Sampler)

	// Release frees the bind group, every held resource and the layout.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: debug label for the GPU objects built from it
//   - options: functional options
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textures:     make(map[int]*wgpu.Texture),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupEntry {
	var entries []wgpu.BindGroupEntry
	for binding, buf := range p.buffers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding), Buffer: buf, Size: wgpu.WholeSize})
	}
	for binding, view := range p.textureViews {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding), TextureView: view})
	}
	for binding, s := range p.samplers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding), Sampler: s})
	}
	slices.SortFunc(entries, func(a, b wgpu.BindGroupEntry) int { return int(a.Binding) - int(b.Binding) })
	return entries
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture, view *wgpu.TextureView) {
	if old := p.textureViews[binding]; old != nil && old != view {
		old.Release()
	}
	if old := p.textures[binding]; old != nil && old != tex {
		old.Release()
	}
	p.textureViews[binding] = view
	if tex != nil {
		p.textures[binding] = tex
	} else {
		delete(p.textures, binding)
	}
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	if old := p.samplers[binding]; old != nil && old != s {
		old.Release()
	}
	p.samplers[binding] = s
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for binding, buf := range p.buffers {
		buf.Release()
		delete(p.buffers, binding)
	}
	for binding, view := range p.textureViews {
		view.Release()
		delete(p.textureViews, binding)
	}
	for binding, tex := range p.textures {
		tex.Release()
		delete(p.textures, binding)
	}
	for binding, s := range p.samplers {
		s.Release()
		delete(p.samplers, binding)
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}
