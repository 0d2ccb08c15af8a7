package collision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// ErrNilScene is returned when collection is asked to scan a nil root.
var ErrNilScene = errors.New("scene root is nil")

// singularRatio bounds |det| of a world transform relative to the cube of its largest axis
// scale. Below it the transform is flattened along some axis and cannot be inverted.
const singularRatio = 1e-6

// Source is a pending scene that signals when its graph is fully populated.
// *loader.Pending satisfies it.
type Source interface {
	// Done returns a channel closed once the scene is complete or has failed.
	Done() <-chan struct{}

	// Result returns the completed scene or its load error.
	Result() (scene.Node, error)
}

// collector holds the options of a single collection pass.
type collector struct {
	leafSize  int
	workers   int
	scanDelay time.Duration
	logger    *slog.Logger
}

func newCollector(options ...CollectorOption) *collector {
	c := &collector{
		workers: max(runtime.NumCPU()-1, 1),
		logger:  slog.Default(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Collect walks every node reachable from root, selects mesh nodes with triangles, attaches a
// bounding box and a bounds tree to each geometry (reusing trees already present) and returns
// the resulting set. Trees are built in parallel; geometry shared between nodes is built once.
//
// Parameters:
//   - root: the scene root to scan
//   - options: collector options (leaf size, workers, logger)
//
// Returns:
//   - *ObstacleSet: the obstacles in traversal order
//   - error: ErrNilScene for a nil root, or the joined geometry errors
func Collect(root scene.Node, options ...CollectorOption) (*ObstacleSet, error) {
	return newCollector(options...).collect(root)
}

// Await blocks until src completes, waits the optional scan delay, then collects its scene.
//
// Parameters:
//   - ctx: cancels the wait
//   - src: the pending scene, typically a loader handle
//   - options: collector options
//
// Returns:
//   - *ObstacleSet: the collected obstacles
//   - error: ctx.Err(), the load error, or a collection error
func Await(ctx context.Context, src Source, options ...CollectorOption) (*ObstacleSet, error) {
	c := newCollector(options...)

	select {
	case <-src.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	root, err := src.Result()
	if err != nil {
		return nil, fmt.Errorf("scene did not load: %w", err)
	}

	if c.scanDelay > 0 {
		timer := time.NewTimer(c.scanDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return c.collect(root)
}

func (c *collector) collect(root scene.Node) (*ObstacleSet, error) {
	if root == nil {
		return nil, ErrNilScene
	}
	start := time.Now()

	var meshes []scene.Node
	root.Traverse(func(n scene.Node) {
		if n.Kind() == scene.NodeKindMesh && n.Geometry() != nil && n.Geometry().TriangleCount() > 0 {
			meshes = append(meshes, n)
		}
	})

	obstacles := make([]*Obstacle, len(meshes))
	errs := make([]error, len(meshes))
	var built atomic.Int32

	if len(meshes) > 0 {
		pool := worker.NewDynamicWorkerPool(min(c.workers, len(meshes)), 256, 1*time.Second)
		defer pool.Stop()

		var wg sync.WaitGroup
		for i, n := range meshes {
			wg.Add(1)
			pool.SubmitTask(worker.Task{
				ID: i,
				Do: func() (any, error) {
					defer wg.Done()
					o, fresh, err := c.buildObstacle(n)
					if fresh {
						built.Add(1)
					}
					obstacles[i], errs[i] = o, err
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	obstacles = lo.Compact(obstacles)
	set := &ObstacleSet{
		obstacles: obstacles,
		triangles: lo.SumBy(obstacles, func(o *Obstacle) int { return o.tree.TriangleCount() }),
	}

	c.logger.Info("obstacles collected",
		"obstacles", set.Len(),
		"triangles", set.triangles,
		"trees_built", built.Load(),
		"duration", time.Since(start),
	)
	return set, nil
}

// buildObstacle prepares one mesh node. A nil obstacle with a nil error means the node was
// skipped because its world transform cannot be inverted.
func (c *collector) buildObstacle(n scene.Node) (*Obstacle, bool, error) {
	geom := n.Geometry()

	local, ok := geom.BoundingBox()
	if !ok {
		local = geom.ComputeBoundingBox()
	}
	tree, fresh, err := geom.ComputeBoundsTree(c.leafSize)
	if err != nil {
		return nil, false, fmt.Errorf("mesh %q: %w", n.Name(), err)
	}

	world := n.WorldTransform()
	if !invertible(world) {
		c.logger.Warn("skipping obstacle with degenerate transform", "mesh", n.Name())
		return nil, fresh, nil
	}

	return &Obstacle{
		node:    n,
		world:   world,
		inverse: world.Inv(),
		bounds:  local.Transform(world),
		tree:    tree,
	}, fresh, nil
}

// invertible reports whether a world transform keeps volume in proportion to its scale.
// A uniformly tiny transform stays invertible; only a collapsed axis fails.
func invertible(m mgl32.Mat4) bool {
	scale := max(m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len())
	if scale == 0 {
		return false
	}
	det := float64(m.Det())
	s := float64(scale)
	return math.Abs(det) > singularRatio*s*s*s
}
