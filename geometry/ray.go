package geometry

import (
	"math"

	"github.com/achilleasa/soundzone/types"
)

// Tolerance used by the intersection and degeneracy tests.
const Epsilon float32 = 1e-6

// A ray with a normalized direction.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// Create a ray from origin towards dir. The direction is normalized.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// Create a ray from a to b and return it together with the segment length.
func RayBetween(a, b types.Vec3) (Ray, float32) {
	delta := b.Sub(a)
	return NewRay(a, delta), delta.Len()
}

// Get the point at parameter t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Transform the ray by m. The returned ray direction is not re-normalized so
// that hit parameters remain comparable across spaces.
func (r Ray) Transform(m types.Mat4) Ray {
	return Ray{
		Origin: m.MulPoint(r.Origin),
		Dir:    m.MulDir(r.Dir),
	}
}

// An axis-aligned bounding box stored as [min, max].
type AABB [2]types.Vec3

// Create an inverted AABB that can be grown with Union/Extend.
func EmptyAABB() AABB {
	return AABB{
		{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Grow the box to include p.
func (b AABB) Extend(p types.Vec3) AABB {
	return AABB{types.MinVec3(b[0], p), types.MaxVec3(b[1], p)}
}

// Grow the box to include other.
func (b AABB) Union(other AABB) AABB {
	return AABB{types.MinVec3(b[0], other[0]), types.MaxVec3(b[1], other[1])}
}

// Get the box center.
func (b AABB) Center() types.Vec3 {
	return b[0].Add(b[1]).Mul(0.5)
}

// Get the box extents along each axis.
func (b AABB) Size() types.Vec3 {
	return b[1].Sub(b[0])
}

// Returns true if the box has not been extended or if min > max on any axis.
func (b AABB) IsEmpty() bool {
	return b[0][0] > b[1][0] || b[0][1] > b[1][1] || b[0][2] > b[1][2]
}

// Returns true if the box encloses b2.
func (b AABB) Contains(b2 AABB) bool {
	return b[0][0] <= b2[0][0] && b[0][1] <= b2[0][1] && b[0][2] <= b2[0][2] &&
		b[1][0] >= b2[1][0] && b[1][1] >= b2[1][1] && b[1][2] >= b2[1][2]
}

// Slab test between a ray and an AABB. On a hit it returns the entry and exit
// ray parameters; the entry parameter is clamped to 0 when the ray starts
// inside the box.
func RayAABB(ray Ray, box AABB) (tEntry, tExit float32, hit bool) {
	tEntry = 0
	tExit = math.MaxFloat32
	for axis := 0; axis < 3; axis++ {
		d := ray.Dir[axis]
		o := ray.Origin[axis]
		if d > -Epsilon && d < Epsilon {
			// Parallel to the slab; reject if outside it
			if o < box[0][axis] || o > box[1][axis] {
				return 0, 0, false
			}
			continue
		}

		inv := 1.0 / d
		t0 := (box[0][axis] - o) * inv
		t1 := (box[1][axis] - o) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tEntry {
			tEntry = t0
		}
		if t1 < tExit {
			tExit = t1
		}
		if tEntry > tExit {
			return 0, 0, false
		}
	}
	return tEntry, tExit, true
}
