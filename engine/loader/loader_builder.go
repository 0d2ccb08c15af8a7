package loader

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLogger sets the logger used for load progress and failures.
//
// Parameters:
//   - logger: the structured logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithModel is an option builder that pre-populates the cache with a scene graph.
//
// Parameters:
//   - key: the cache key for the model
//   - root: the graph to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, root scene.Node) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = root
	}
}
