package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-walk/engine/collision"
	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plane is a large square in the local XY plane.
func plane(name string, transform mgl32.Mat4) scene.Node {
	const h = 1000
	geom := scene.NewGeometry([]mgl32.Vec3{{-h, -h, 0}, {h, -h, 0}, {h, h, 0}, {-h, h, 0}}, []uint32{0, 1, 2, 0, 2, 3})
	return scene.NewMesh(name, geom, scene.WithTransform(transform))
}

// frontWall blocks movement toward -Z at z = -1.
func frontWall() scene.Node {
	return plane("front", mgl32.Translate3D(0, 0, -1))
}

// sideWall blocks movement toward +X at x = 1.
func sideWall() scene.Node {
	return plane("side", mgl32.Translate3D(1, 0, 0).Mul4(mgl32.HomogRotate3DY(math.Pi/2)))
}

func newSafe(t *testing.T, start mgl32.Vec3, walls ...scene.Node) (Camera, SafeController) {
	t.Helper()
	set, err := collision.Collect(scene.NewGroup("room", scene.WithChildren(walls...)))
	require.NoError(t, err)
	cam := NewCamera(WithPosition(start))
	return cam, NewSafeController(cam, collision.NewDetector(set))
}

func TestSafeController_OpenSpace(t *testing.T) {
	cam, sc := newSafe(t, mgl32.Vec3{0, 6, 0})

	next := mgl32.Vec3{10, 6, 10}
	assert.Equal(t, MoveDirect, sc.MoveCameraSafely(next))
	assert.Equal(t, next, cam.Position())
	assert.Equal(t, next, sc.LastSafePosition())
}

func TestSafeController_WallAhead(t *testing.T) {
	start := mgl32.Vec3{0, 6, 0}
	cam, sc := newSafe(t, start, frontWall())

	assert.Equal(t, MoveRejected, sc.MoveCameraSafely(mgl32.Vec3{0, 6, -2}))
	assert.Equal(t, start, cam.Position())
	assert.Equal(t, start, sc.LastSafePosition())

	sideways := mgl32.Vec3{2, 6, 0}
	assert.Equal(t, MoveDirect, sc.MoveCameraSafely(sideways))
	assert.Equal(t, sideways, cam.Position())
	assert.Equal(t, sideways, sc.LastSafePosition())
}

func TestSafeController_Slides(t *testing.T) {
	t.Run("along front wall", func(t *testing.T) {
		cam, sc := newSafe(t, mgl32.Vec3{0, 6, 0}, frontWall())

		assert.Equal(t, MoveSlideX, sc.MoveCameraSafely(mgl32.Vec3{1, 6, -1.5}))
		assert.Equal(t, mgl32.Vec3{1, 6, 0}, cam.Position())
		assert.Equal(t, cam.Position(), sc.LastSafePosition())
	})

	t.Run("along side wall", func(t *testing.T) {
		cam, sc := newSafe(t, mgl32.Vec3{0, 6, 0}, sideWall())

		assert.Equal(t, MoveSlideZ, sc.MoveCameraSafely(mgl32.Vec3{1.5, 6, -1}))
		assert.Equal(t, mgl32.Vec3{0, 6, -1}, cam.Position())
		assert.Equal(t, cam.Position(), sc.LastSafePosition())
	})
}

func TestSafeController_CornerRollsBack(t *testing.T) {
	cam, sc := newSafe(t, mgl32.Vec3{0, 6, 0}, frontWall(), sideWall())
	safe := sc.LastSafePosition()

	// the camera drifted without going through the controller
	cam.SetPosition(mgl32.Vec3{0, 6, 0.3})

	assert.Equal(t, MoveRejected, sc.MoveCameraSafely(mgl32.Vec3{1.5, 6, -1.5}))
	assert.Equal(t, safe, cam.Position())
	assert.Equal(t, safe, sc.LastSafePosition())
}

func TestSafeController_ZeroDisplacement(t *testing.T) {
	cam, sc := newSafe(t, mgl32.Vec3{0, 6, -0.5}, frontWall(), sideWall())

	for range 3 {
		here := cam.Position()
		assert.Equal(t, MoveDirect, sc.MoveCameraSafely(here))
		assert.Equal(t, here, cam.Position())
	}
}

func TestSafeController_SingleAxisIntoWallRejected(t *testing.T) {
	cam, sc := newSafe(t, mgl32.Vec3{0, 6, 0}, frontWall())

	// the X-only candidate equals the current position and must not count as a slide
	pos, result := sc.CheckMultipleDirections(mgl32.Vec3{0, 6, -2})
	assert.Equal(t, MoveRejected, result)
	assert.Equal(t, mgl32.Vec3{0, 6, 0}, pos)

	assert.Equal(t, MoveRejected, sc.MoveCameraSafely(mgl32.Vec3{0, 6, -2}))
	assert.Equal(t, mgl32.Vec3{0, 6, 0}, cam.Position())
	assert.Equal(t, MoveStats{Rejected: 1}, sc.Stats())
}

func TestSafeController_CheckDoesNotMove(t *testing.T) {
	cam, sc := newSafe(t, mgl32.Vec3{0, 6, 0}, frontWall())

	pos, result := sc.CheckMultipleDirections(mgl32.Vec3{1, 6, -1.5})
	assert.Equal(t, MoveSlideX, result)
	assert.Equal(t, mgl32.Vec3{1, 6, 0}, pos)
	assert.Equal(t, mgl32.Vec3{0, 6, 0}, cam.Position())
}

func TestSafeController_Stats(t *testing.T) {
	_, sc := newSafe(t, mgl32.Vec3{0, 6, 0}, frontWall())

	sc.MoveCameraSafely(mgl32.Vec3{0, 6, 1})
	sc.MoveCameraSafely(mgl32.Vec3{0, 6, -2})
	sc.MoveCameraSafely(mgl32.Vec3{1, 6, -2})

	assert.Equal(t, MoveStats{Direct: 1, SlideX: 1, Rejected: 1}, sc.Stats())
	assert.Equal(t, "slide_x", MoveSlideX.String())
}
