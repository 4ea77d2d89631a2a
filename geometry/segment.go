package geometry

import (
	"math"

	"github.com/achilleasa/soundzone/types"
)

// Return the closest point to p on the segment [a, b]. The projection
// parameter is clamped to [0, 1]; a zero-length segment yields a.
func ProjectOnSegment(a, b, p types.Vec3) types.Vec3 {
	ab := b.Sub(a)
	denom := ab.SqrLen()
	if denom < Epsilon*Epsilon {
		return a
	}
	t := types.Clamp(p.Sub(a).Dot(ab)/denom, 0, 1)
	return a.Add(ab.Mul(t))
}

// Find the closest point to target on the polyline defined by points. When
// closed is true the segment from the last point back to the first is also
// considered.
//
// Returns the closest point, its squared distance to target and the index of
// the segment start point. The last return value is false if points is empty.
func ClosestPointOnPerimeter(target types.Vec3, points []types.Vec3, closed bool) (types.Vec3, float32, int, bool) {
	switch len(points) {
	case 0:
		return types.Vec3{}, 0, -1, false
	case 1:
		return points[0], points[0].SqrDistance(target), 0, true
	}

	var best types.Vec3
	bestDist := float32(math.MaxFloat32)
	bestSeg := -1

	segCount := len(points) - 1
	if closed {
		segCount = len(points)
	}
	for seg := 0; seg < segCount; seg++ {
		a := points[seg]
		b := points[(seg+1)%len(points)]
		p := ProjectOnSegment(a, b, target)
		if d := p.SqrDistance(target); d < bestDist {
			best, bestDist, bestSeg = p, d, seg
		}
	}

	return best, bestDist, bestSeg, true
}

// Return the number of segments in a polyline with n points.
func SegmentCount(n int, closed bool) int {
	switch {
	case n < 2:
		return 0
	case closed && n >= 3:
		return n
	}
	return n - 1
}
