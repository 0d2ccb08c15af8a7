package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
)

// loaderBackend defines the generic interface for loading models from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports the model at path into a scene graph.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - scene.Node: the root of the imported graph
	//   - error: error if loading fails
	Load(path string) (scene.Node, error)

	// LoadReader imports a model from a reader stream.
	//
	// Parameters:
	//   - name: the name given to the root node
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - scene.Node: the root of the imported graph
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (scene.Node, error)
}
