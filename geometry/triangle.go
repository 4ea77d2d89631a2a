package geometry

import "github.com/achilleasa/soundzone/types"

// Returns the area of triangle abc.
func TriangleArea(a, b, c types.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Len() * 0.5
}

// Returns true if the triangle has (near) zero area.
func IsDegenerateTriangle(a, b, c types.Vec3) bool {
	return b.Sub(a).Cross(c.Sub(a)).SqrLen() < Epsilon*Epsilon
}

// Find the closest point to p on triangle abc.
//
// The query point is projected onto the triangle plane; if its barycentric
// coordinates fall inside the triangle the projection is returned, otherwise
// the closest of the three edge projections. Zero-area triangles are rejected
// with ok = false and must be skipped by the caller.
func ClosestPointOnTriangle(a, b, c, p types.Vec3) (closest types.Vec3, ok bool) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	normal := v0.Cross(v1)
	if normal.SqrLen() < Epsilon*Epsilon {
		return types.Vec3{}, false
	}
	normal = normal.Normalize()

	projected := p.Sub(normal.Mul(p.Sub(a).Dot(normal)))

	v2 := projected.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if denom > -Epsilon*Epsilon && denom < Epsilon*Epsilon {
		return types.Vec3{}, false
	}

	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	u := 1 - v - w
	if u >= 0 && v >= 0 && w >= 0 {
		return projected, true
	}

	// Outside; pick the nearest edge projection
	closest = ProjectOnSegment(a, b, p)
	bestDist := closest.SqrDistance(p)
	if q := ProjectOnSegment(b, c, p); q.SqrDistance(p) < bestDist {
		closest, bestDist = q, q.SqrDistance(p)
	}
	if q := ProjectOnSegment(c, a, p); q.SqrDistance(p) < bestDist {
		closest = q
	}
	return closest, true
}

// Intersect a ray with triangle v0v1v2 using the Möller–Trumbore algorithm.
// Both triangle faces are considered. Rays that are (nearly) parallel to the
// triangle plane, miss the triangle or hit it at a non-positive distance are
// rejected.
func RayTriangleIntersect(ray Ray, v0, v1, v2 types.Vec3) (t float32, hit bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	pvec := ray.Dir.Cross(e2)
	det := e1.Dot(pvec)
	if det > -Epsilon && det < Epsilon {
		return 0, false
	}
	invDet := 1.0 / det

	tvec := ray.Origin.Sub(v0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	qvec := tvec.Cross(e1)
	v := ray.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = e2.Dot(qvec) * invDet
	if t <= Epsilon {
		return 0, false
	}
	return t, true
}
