package collision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-walk/engine/geometry"
	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = WithCollectorLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

// wallGeometry is a square in the local XY plane facing +Z.
func wallGeometry(half float32) *scene.Geometry {
	return scene.NewGeometry([]mgl32.Vec3{
		{-half, -half, 0},
		{half, -half, 0},
		{half, half, 0},
		{-half, half, 0},
	}, []uint32{0, 1, 2, 0, 2, 3})
}

func wallAt(z float32) scene.Node {
	return scene.NewMesh("wall", wallGeometry(1000), scene.WithTranslation(0, 0, z))
}

func detectorFor(t *testing.T, root scene.Node, options ...DetectorOption) Detector {
	t.Helper()
	set, err := Collect(root, quiet)
	require.NoError(t, err)
	return NewDetector(set, options...)
}

func TestDetector_ZeroLengthMoveNeverCollides(t *testing.T) {
	d := detectorFor(t, scene.NewGroup("room", scene.WithChildren(wallAt(-1))))

	for _, p := range []mgl32.Vec3{{0, 0, 0}, {0, 0, -0.5}, {3, 6, -1}} {
		assert.False(t, d.WillCollide(p, p), "point %v", p)
	}
	// below the minimum distance even though the margin would reach the wall
	assert.False(t, d.WillCollide(mgl32.Vec3{}, mgl32.Vec3{0, 0, -0.005}))
}

func TestDetector_WallAhead(t *testing.T) {
	d := detectorFor(t, scene.NewGroup("room", scene.WithChildren(wallAt(-1))))

	tests := []struct {
		name string
		to   mgl32.Vec3
		want bool
	}{
		{"forward through wall", mgl32.Vec3{0, 0, -2}, true},
		{"forward within margin", mgl32.Vec3{0, 0, -0.5}, true},
		{"sideways", mgl32.Vec3{2, 0, 0}, false},
		{"backwards", mgl32.Vec3{0, 0, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.WillCollide(mgl32.Vec3{}, tt.to))
		})
	}
}

func TestDetector_Margin(t *testing.T) {
	root := scene.NewGroup("room", scene.WithChildren(wallAt(-1)))

	d := detectorFor(t, root, WithMargin(0.25))
	assert.Equal(t, float32(0.25), d.Margin())
	assert.False(t, d.WillCollide(mgl32.Vec3{}, mgl32.Vec3{0, 0, -0.5}))
	assert.True(t, d.WillCollide(mgl32.Vec3{}, mgl32.Vec3{0, 0, -0.8}))
}

func TestDetector_BackfaceCulling(t *testing.T) {
	root := scene.NewGroup("room", scene.WithChildren(wallAt(-1)))
	from, to := mgl32.Vec3{0, 0, -3}, mgl32.Vec3{0, 0, -1.5}

	assert.True(t, detectorFor(t, root).WillCollide(from, to))
	assert.False(t, detectorFor(t, root, WithBackfaceCulling(true)).WillCollide(from, to))
}

func TestDetector_TransformedObstacle(t *testing.T) {
	wall := scene.NewMesh("panel", wallGeometry(1), scene.WithTransform(mgl32.Scale3D(5, 5, 5)))
	root := scene.NewGroup("room", scene.WithChildren(
		scene.NewGroup("wing", scene.WithTranslation(0, 0, -10), scene.WithChildren(wall)),
	))
	d := detectorFor(t, root)

	assert.False(t, d.WillCollide(mgl32.Vec3{}, mgl32.Vec3{0, 0, -8}))
	assert.True(t, d.WillCollide(mgl32.Vec3{}, mgl32.Vec3{0, 0, -9.5}))
	assert.True(t, d.WillCollide(mgl32.Vec3{3, 0, 0}, mgl32.Vec3{3, 0, -9.5}))
	assert.False(t, d.WillCollide(mgl32.Vec3{6, 0, 0}, mgl32.Vec3{6, 0, -9.5}))
}

func TestDetector_EmptySet(t *testing.T) {
	set, err := Collect(scene.NewGroup("empty"), quiet)
	require.NoError(t, err)
	assert.Zero(t, set.Len())

	for _, d := range []Detector{NewDetector(set), NewDetector(nil)} {
		assert.False(t, d.WillCollide(mgl32.Vec3{0, 6, 0}, mgl32.Vec3{10, 6, 10}))
	}
}

func TestCollect_SharedGeometryAndReuse(t *testing.T) {
	geom := wallGeometry(1)
	root := scene.NewGroup("room", scene.WithChildren(
		scene.NewMesh("left", geom, scene.WithTranslation(-5, 0, 0)),
		scene.NewGroup("empty"),
		scene.NewMesh("hollow", scene.NewGeometry(nil, []uint32{})),
		scene.NewMesh("right", geom, scene.WithTranslation(5, 0, 0)),
	))

	set, err := Collect(root, quiet, WithWorkers(4), WithLeafSize(1))
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, 4, set.Triangles())

	obstacles := set.Obstacles()
	assert.Equal(t, "left", obstacles[0].Node().Name())
	assert.Equal(t, "right", obstacles[1].Node().Name())
	assert.Same(t, obstacles[0].Tree(), obstacles[1].Tree())
	assert.InDelta(t, -6, obstacles[0].Bounds().Min.X(), 1e-5)

	tree := geom.BoundsTree()
	require.NotNil(t, tree)
	_, ok := geom.BoundingBox()
	assert.True(t, ok)

	again, err := Collect(root, quiet)
	require.NoError(t, err)
	assert.Same(t, tree, again.Obstacles()[0].Tree())
}

func TestCollect_UsesAttachedTree(t *testing.T) {
	geom := wallGeometry(1)
	prebuilt, err := geometry.BuildBVH(geom.Positions, geom.Indices, 8)
	require.NoError(t, err)
	geom.SetBoundsTree(prebuilt)

	set, err := Collect(scene.NewMesh("wall", geom), quiet)
	require.NoError(t, err)
	assert.Same(t, prebuilt, set.Obstacles()[0].Tree())
}

func TestCollect_Errors(t *testing.T) {
	_, err := Collect(nil, quiet)
	assert.ErrorIs(t, err, ErrNilScene)

	bad := scene.NewGeometry([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []uint32{0, 1, 5})
	_, err = Collect(scene.NewMesh("bad", bad), quiet)
	assert.ErrorIs(t, err, geometry.ErrInvalidIndices)

	flat := scene.NewMesh("flat", wallGeometry(1), scene.WithTransform(mgl32.Scale3D(0, 1, 1)))
	set, err := Collect(flat, quiet)
	require.NoError(t, err)
	assert.Zero(t, set.Len())
}

func TestCollect_TinyUniformScaleKept(t *testing.T) {
	// a centimetre-unit export scaled down to metres and then some
	tiny := scene.NewMesh("tiny", wallGeometry(1e5), scene.WithTransform(mgl32.Scale3D(1e-5, 1e-5, 1e-5)))
	set, err := Collect(tiny, quiet)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	d := NewDetector(set)
	assert.True(t, d.WillCollide(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, -1}))
	assert.False(t, d.WillCollide(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 0.5}))
}

func TestInvertible(t *testing.T) {
	assert.True(t, invertible(mgl32.Ident4()))
	assert.True(t, invertible(mgl32.Scale3D(1e-5, 1e-5, 1e-5)))
	assert.True(t, invertible(mgl32.Translate3D(1e4, 0, 0).Mul4(mgl32.Scale3D(2, 3, 4))))
	assert.False(t, invertible(mgl32.Scale3D(0, 0, 0)))
	assert.False(t, invertible(mgl32.Scale3D(1, 1e-9, 1)))
	assert.False(t, invertible(mgl32.Scale3D(0, 1, 1)))
}

type fakeSource struct {
	done chan struct{}
	root scene.Node
	err  error
}

func (f *fakeSource) Done() <-chan struct{}       { return f.done }
func (f *fakeSource) Result() (scene.Node, error) { return f.root, f.err }

func TestAwait(t *testing.T) {
	t.Run("collects after completion", func(t *testing.T) {
		src := &fakeSource{done: make(chan struct{}), root: wallAt(-1)}
		go close(src.done)

		set, err := Await(context.Background(), src, quiet, WithScanDelay(time.Millisecond))
		require.NoError(t, err)
		assert.Equal(t, 1, set.Len())
	})

	t.Run("cancelled before completion", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Await(ctx, &fakeSource{done: make(chan struct{})}, quiet)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("cancelled during scan delay", func(t *testing.T) {
		src := &fakeSource{done: make(chan struct{}), root: wallAt(-1)}
		close(src.done)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := Await(ctx, src, quiet, WithScanDelay(time.Hour))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("load failure", func(t *testing.T) {
		loadErr := errors.New("boom")
		src := &fakeSource{done: make(chan struct{}), err: loadErr}
		close(src.done)

		_, err := Await(context.Background(), src, quiet)
		assert.ErrorIs(t, err, loadErr)
	})
}
