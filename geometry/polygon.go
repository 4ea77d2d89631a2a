package geometry

import (
	"errors"

	"github.com/achilleasa/soundzone/types"
)

var (
	ErrDegeneratePolygon   = errors.New("geometry: polygon needs at least 3 points")
	ErrTriangulationFailed = errors.New("geometry: no ear found; polygon is self-intersecting or degenerate")
)

// Test whether p lies inside the polygon using the even-odd crossing rule.
// Both p and the polygon are projected onto the horizontal (XZ) plane.
// Polygons with fewer than 3 points contain nothing.
func PointInPolygon(p types.Vec3, polygon []types.Vec3) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	px, pz := p[0], p[2]
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, zi := polygon[i][0], polygon[i][2]
		xj, zj := polygon[j][0], polygon[j][2]
		if (zi > pz) != (zj > pz) && px < (xj-xi)*(pz-zi)/(zj-zi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Returns the signed area of a planar polygon. Counter-clockwise polygons
// have a positive area.
func SignedArea(polygon []types.Vec2) float32 {
	var area float32
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		area += polygon[j].Cross(polygon[i])
	}
	return area * 0.5
}

// Triangulate a simple (possibly concave) planar polygon by ear clipping.
// Either winding is accepted. The result contains index triples into
// polygon, each wound counter-clockwise.
//
// ErrTriangulationFailed is returned when a full pass over the remaining
// vertices finds no ear; callers should treat this as non-fatal.
func Triangulate(polygon []types.Vec2) ([]int, error) {
	n := len(polygon)
	if n < 3 {
		return nil, ErrDegeneratePolygon
	}

	// Work on a counter-clockwise index list
	remaining := make([]int, n)
	ccw := SignedArea(polygon) >= 0
	for i := range remaining {
		if ccw {
			remaining[i] = i
		} else {
			remaining[i] = n - 1 - i
		}
	}

	tris := make([]int, 0, (n-2)*3)
	for len(remaining) > 3 {
		ear := -1
		count := len(remaining)
		for i := 0; i < count; i++ {
			prev := remaining[(i+count-1)%count]
			cur := remaining[i]
			next := remaining[(i+1)%count]
			if isEar(polygon, remaining, prev, cur, next) {
				ear = i
				tris = append(tris, prev, cur, next)
				break
			}
		}

		if ear == -1 {
			return nil, ErrTriangulationFailed
		}
		remaining = append(remaining[:ear], remaining[ear+1:]...)
	}

	tris = append(tris, remaining[0], remaining[1], remaining[2])
	return tris, nil
}

// A vertex is an ear if it is convex and no other remaining vertex lies
// inside the triangle it forms with its neighbors.
func isEar(polygon []types.Vec2, remaining []int, prev, cur, next int) bool {
	a, b, c := polygon[prev], polygon[cur], polygon[next]
	if b.Sub(a).Cross(c.Sub(b)) <= Epsilon {
		return false
	}

	for _, idx := range remaining {
		if idx == prev || idx == cur || idx == next {
			continue
		}
		if pointInTriangle2D(polygon[idx], a, b, c) {
			return false
		}
	}
	return true
}

// Inclusive point-in-triangle test for a counter-clockwise triangle.
func pointInTriangle2D(p, a, b, c types.Vec2) bool {
	return b.Sub(a).Cross(p.Sub(a)) >= 0 &&
		c.Sub(b).Cross(p.Sub(b)) >= 0 &&
		a.Sub(c).Cross(p.Sub(c)) >= 0
}

// Generate offset outlines for a polyline lying on the horizontal plane.
//
// Closed shapes (3+ points) produce a single ring where each vertex is moved
// along the normal of its averaged tangent. Open shapes produce two parallel
// rails, one on each side. Setting flip mirrors the offset direction. No
// miter handling is applied at sharp corners so the output is only suitable
// for previews.
func OffsetPerimeter(points []types.Vec3, closed bool, distance float32, flip bool) [][]types.Vec3 {
	n := len(points)
	if n < 2 {
		return nil
	}
	if flip {
		distance = -distance
	}

	isRing := closed && n >= 3
	normals := make([]types.Vec3, n)
	for i := range points {
		var in, out types.Vec3
		switch {
		case isRing:
			in = points[i].Sub(points[(i+n-1)%n]).Normalize()
			out = points[(i+1)%n].Sub(points[i]).Normalize()
		case i == 0:
			out = points[1].Sub(points[0]).Normalize()
			in = out
		case i == n-1:
			in = points[i].Sub(points[i-1]).Normalize()
			out = in
		default:
			in = points[i].Sub(points[i-1]).Normalize()
			out = points[i+1].Sub(points[i]).Normalize()
		}

		tangent := in.Add(out)
		tangent[1] = 0
		if tangent.SqrLen() < Epsilon {
			tangent = in
			tangent[1] = 0
		}
		tangent = tangent.Normalize()

		// up x tangent
		normals[i] = types.Vec3{tangent[2], 0, -tangent[0]}
	}

	if isRing {
		ring := make([]types.Vec3, n)
		for i, p := range points {
			ring[i] = p.Add(normals[i].Mul(distance))
		}
		return [][]types.Vec3{ring}
	}

	left := make([]types.Vec3, n)
	right := make([]types.Vec3, n)
	for i, p := range points {
		left[i] = p.Add(normals[i].Mul(distance))
		right[i] = p.Sub(normals[i].Mul(distance))
	}
	return [][]types.Vec3{left, right}
}

// Project a polyline onto the horizontal plane for triangulation.
func ProjectXZ(points []types.Vec3) []types.Vec2 {
	out := make([]types.Vec2, len(points))
	for i, p := range points {
		out[i] = p.XZ()
	}
	return out
}
