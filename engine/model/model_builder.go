package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// ModelBuilderOption is a functional option for configuring a baked Model.
type ModelBuilderOption func(*model)

// WithLightDirection sets the direction toward the light used for flat shading.
// A zero vector is ignored.
//
// Parameters:
//   - dir: the light direction
//
// Returns:
//   - ModelBuilderOption: a function that applies the light direction
func WithLightDirection(dir mgl32.Vec3) ModelBuilderOption {
	return func(m *model) {
		if dir.Len() > 0 {
			m.lightDir = dir.Normalize()
		}
	}
}

// WithAmbient sets the minimum shade in [0, 1].
//
// Parameters:
//   - ambient: the ambient floor
//
// Returns:
//   - ModelBuilderOption: a function that applies the ambient floor
func WithAmbient(ambient float32) ModelBuilderOption {
	return func(m *model) {
		m.ambient = lo.Clamp(ambient, 0, 1)
	}
}
