package zone

import (
	"sort"

	"github.com/achilleasa/soundzone/types"
)

// A candidate emission anchor produced by a single segment or triangle.
type Candidate struct {
	Position types.Vec3
	SqrDist  float32

	// Index of the segment or triangle that produced the candidate.
	Source int
}

// Pick two anchors that surround listener. Candidates are sorted by distance
// and the first ordered pair whose angle seen from listener exceeds minAngle
// degrees and whose separation exceeds minSeparation is returned.
func SelectDualAnchors(listener types.Vec3, candidates []Candidate, minAngle, minSeparation float32) (Candidate, Candidate, bool) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SqrDist < candidates[j].SqrDist
	})

	minSepSqr := minSeparation * minSeparation
	for i := 0; i < len(candidates); i++ {
		toA := candidates[i].Position.Sub(listener)
		if toA.SqrLen() == 0 {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			toB := candidates[j].Position.Sub(listener)
			if toB.SqrLen() == 0 {
				continue
			}
			if toA.Angle(toB) > minAngle && candidates[i].Position.SqrDistance(candidates[j].Position) > minSepSqr {
				return candidates[i], candidates[j], true
			}
		}
	}

	return Candidate{}, Candidate{}, false
}
