package loader

import (
	"context"

	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
)

// Pending is the handle for an asynchronous load. Done is closed once the scene graph
// is fully populated (or the load failed); only then is Result meaningful.
type Pending struct {
	path string
	done chan struct{}
	node scene.Node
	err  error
}

func newPending(path string) *Pending {
	return &Pending{path: path, done: make(chan struct{})}
}

// resolvedPending returns a handle that is already complete.
func resolvedPending(path string, node scene.Node, err error) *Pending {
	p := newPending(path)
	p.complete(node, err)
	return p
}

func (p *Pending) complete(node scene.Node, err error) {
	p.node, p.err = node, err
	close(p.done)
}

// Path returns the cache key the load was requested with.
func (p *Pending) Path() string {
	return p.path
}

// Done returns a channel closed when the load has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result blocks until the load finishes and returns its outcome.
//
// Returns:
//   - scene.Node: the loaded graph root, or nil on failure
//   - error: the load error, if any
func (p *Pending) Result() (scene.Node, error) {
	<-p.done
	return p.node, p.err
}

// Wait is Result bounded by ctx.
//
// Parameters:
//   - ctx: cancels the wait (not the load)
//
// Returns:
//   - scene.Node: the loaded graph root
//   - error: the load error or ctx.Err()
func (p *Pending) Wait(ctx context.Context) (scene.Node, error) {
	select {
	case <-p.done:
		return p.node, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
