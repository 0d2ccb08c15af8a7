package geometry

import "github.com/go-gl/mathgl/mgl32"

// parallelEpsilon rejects segments lying in (or parallel to) the triangle plane.
const parallelEpsilon = 1e-12

// Triangle is a single face given by its three corners in counter-clockwise front-face order.
type Triangle struct {
	A, B, C mgl32.Vec3
}

// Centroid returns the average of the three corners.
func (t Triangle) Centroid() mgl32.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// Bounds returns the box enclosing the triangle.
func (t Triangle) Bounds() AABB {
	return EmptyAABB().ExpandPoint(t.A).ExpandPoint(t.B).ExpandPoint(t.C)
}

// IntersectSegment runs a Möller–Trumbore test of the segment origin + t*delta against the triangle.
// When cullBack is set, hits on the back face (counter-clockwise winding seen from behind) are ignored.
//
// Parameters:
//   - origin: segment start
//   - delta: segment end minus start
//   - cullBack: skip back-facing hits
//
// Returns:
//   - float32: the segment parameter of the hit in [0, 1]
//   - bool: true if the segment hits the triangle
func (t Triangle) IntersectSegment(origin, delta mgl32.Vec3, cullBack bool) (float32, bool) {
	e1 := t.B.Sub(t.A)
	e2 := t.C.Sub(t.A)
	p := delta.Cross(e2)
	det := e1.Dot(p)
	if cullBack {
		if det < parallelEpsilon {
			return 0, false
		}
	} else if det > -parallelEpsilon && det < parallelEpsilon {
		return 0, false
	}
	inv := 1 / det

	s := origin.Sub(t.A)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := delta.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	hit := e2.Dot(q) * inv
	if hit < 0 || hit > 1 {
		return 0, false
	}
	return hit, true
}
