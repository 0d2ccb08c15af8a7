package material

import (
	"github.com/Carmen-Shannon/oxy-walk/engine/lightmap"
	"github.com/samber/lo"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName sets the material identifier.
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithLightmap binds a decoded lightmap. A nil or empty image leaves the surface unlit by it.
func WithLightmap(img *lightmap.Image) MaterialBuilderOption {
	return func(m *material) {
		if img != nil && img.Width > 0 && img.Height > 0 {
			m.lightmap = img
		}
	}
}

// WithLightmapIntensity scales the lightmap term. Negative values are ignored.
func WithLightmapIntensity(intensity float32) MaterialBuilderOption {
	return func(m *material) {
		if intensity >= 0 {
			m.intensity = intensity
		}
	}
}

// WithFog sets the distance at which fog reaches its cap, and the cap in [0, 1].
// Non-positive distances are ignored.
func WithFog(distance, maxBlend float32) MaterialBuilderOption {
	return func(m *material) {
		if distance > 0 {
			m.fogDist = distance
		}
		m.fogMax = lo.Clamp(maxBlend, 0, 1)
	}
}

// WithExposure multiplies the final color. Non-positive values are ignored.
func WithExposure(exposure float32) MaterialBuilderOption {
	return func(m *material) {
		if exposure > 0 {
			m.exposure = exposure
		}
	}
}
