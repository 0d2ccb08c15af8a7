// Package loader imports glTF/GLB models into scene graphs and caches them by path.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
)

// ErrUnsupportedFormat is returned for paths whose extension has no backend.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache   map[string]scene.Node
	pending map[string]*Pending

	backend loaderBackend
	logger  *slog.Logger
}

// Loader defines the public-facing interface for loading and caching models.
// It abstracts the file format (glTF, GLB) behind a backend and deduplicates
// loads by path: concurrent requests for one path share a single import.
type Loader interface {
	// Load imports a model file synchronously and caches the result.
	// If the model is already cached (by file path), the cached graph is returned.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - scene.Node: the root of the loaded scene graph
	//   - error: error if loading fails
	Load(path string) (scene.Node, error)

	// LoadAsync starts importing a model in the background and returns a handle whose
	// Done channel closes once the graph is complete. Requests for a path that is
	// already loading return the in-flight handle; cached paths resolve immediately.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *Pending: the completion handle
	LoadAsync(path string) *Pending

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - scene.Node: the root of the loaded scene graph
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (scene.Node, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - scene.Node: the cached graph or nil
	Get(name string) scene.Node

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]scene.Node: all cached graphs keyed by name
	Models() map[string]scene.Node
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache:   make(map[string]scene.Node),
		pending: make(map[string]*Pending),
		logger:  slog.Default(),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (scene.Node, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	l.logger.Info("loading model", "path", path)
	root, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	stats := scene.Summarize(root)
	l.logger.Info("model loaded",
		"path", path,
		"nodes", stats.Nodes,
		"meshes", stats.Meshes,
		"triangles", stats.Triangles,
		"duration", time.Since(start),
	)

	return l.store(path, root), nil
}

func (l *loader) LoadAsync(path string) *Pending {
	l.mu.Lock()
	if cached, ok := l.cache[path]; ok {
		l.mu.Unlock()
		return resolvedPending(path, cached, nil)
	}
	if p, ok := l.pending[path]; ok {
		l.mu.Unlock()
		return p
	}
	p := newPending(path)
	l.pending[path] = p
	l.mu.Unlock()

	go func() {
		root, err := l.Load(path)
		if err != nil {
			l.logger.Error("async model load failed", "path", path, "error", err)
		}

		l.mu.Lock()
		delete(l.pending, path)
		l.mu.Unlock()

		p.complete(root, err)
	}()
	return p
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (scene.Node, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	root, err := l.backend.LoadReader(name, r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.store(name, root), nil
}

func (l *loader) Get(name string) scene.Node {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Models() map[string]scene.Node {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]scene.Node, len(l.cache))
	for k, v := range l.cache {
		result[k] = v
	}
	return result
}

// store caches root under key unless another load won the race, in which case the
// earlier graph is kept and returned.
func (l *loader) store(key string, root scene.Node) scene.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.cache[key]; ok {
		return existing
	}
	l.cache[key] = root
	return root
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
