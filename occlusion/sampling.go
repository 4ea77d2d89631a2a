package occlusion

import (
	"math"

	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
)

// The Raycaster interface is implemented by worlds that can test a segment
// for obstructions. Occluders rejected by exclude must be ignored.
type Raycaster interface {
	Linecast(from, to types.Vec3, mask scene.LayerMask, exclude func(*scene.Occluder) bool) (scene.Hit, bool)
}

// A sightline between a listener and an emission anchor.
type Segment struct {
	From, To types.Vec3
}

// Generate the sampled sightlines between listener and anchor: the direct
// line followed by resolution lines offset by radius on a circle
// perpendicular to the listener-anchor direction.
func Samples(listener, anchor types.Vec3, resolution int, radius float32) []Segment {
	if resolution < 0 {
		resolution = 0
	}

	out := make([]Segment, 0, resolution+1)
	out = append(out, Segment{From: listener, To: anchor})
	if resolution == 0 {
		return out
	}

	u, v := perpendicularBasis(anchor.Sub(listener))
	step := 2 * math.Pi / float64(resolution)
	for i := 0; i < resolution; i++ {
		sin, cos := math.Sincos(step * float64(i))
		offset := u.Mul(float32(cos) * radius).Add(v.Mul(float32(sin) * radius))
		out = append(out, Segment{From: listener.Add(offset), To: anchor.Add(offset)})
	}
	return out
}

// Build an orthonormal basis for the plane perpendicular to dir. The helper
// axis switches away from up when dir is near vertical so the basis stays
// stable.
func perpendicularBasis(dir types.Vec3) (u, v types.Vec3) {
	dir = dir.Normalize()
	if dir.SqrLen() == 0 {
		return types.Vec3{1, 0, 0}, types.Vec3{0, 0, 1}
	}

	helper := types.Vec3{0, 1, 0}
	if d := dir.Dot(helper); d > 0.99 || d < -0.99 {
		helper = types.Vec3{1, 0, 0}
	}

	u = helper.Cross(dir).Normalize()
	v = dir.Cross(u)
	return u, v
}

// Returns the fraction of samples that are obstructed.
func Ratio(rc Raycaster, samples []Segment, mask scene.LayerMask, exclude func(*scene.Occluder) bool) float32 {
	if len(samples) == 0 {
		return 0
	}

	occluded := 0
	for _, s := range samples {
		if _, blocked := rc.Linecast(s.From, s.To, mask, exclude); blocked {
			occluded++
		}
	}
	return float32(occluded) / float32(len(samples))
}
