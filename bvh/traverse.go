package bvh

import (
	"sort"

	"github.com/achilleasa/soundzone/geometry"
	"github.com/achilleasa/soundzone/scene"
)

// A leaf visited by a ray.
type LeafHit struct {
	// Index of the leaf node in the arena.
	Node int32

	Occluders []*scene.Occluder

	// Ray parameters where the ray enters and leaves the leaf bounds.
	TEntry, TExit float32
}

// Collect the leaves whose bounds are intersected by ray, ordered by
// ascending entry distance. Subtrees the ray misses are pruned.
func (t *Tree) Traverse(ray geometry.Ray) []LeafHit {
	if t.Empty() {
		return nil
	}

	var out []LeafHit
	t.traverse(0, ray, &out)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TEntry < out[j].TEntry
	})
	return out
}

func (t *Tree) traverse(nodeIndex int32, ray geometry.Ray, out *[]LeafHit) {
	node := &t.nodes[nodeIndex]
	tEntry, tExit, hit := geometry.RayAABB(ray, node.BBox)
	if !hit {
		return
	}

	if node.IsLeaf() {
		*out = append(*out, LeafHit{
			Node:      nodeIndex,
			Occluders: t.LeafOccluders(node),
			TEntry:    tEntry,
			TExit:     tExit,
		})
		return
	}

	// Visit the nearer child first
	first, second := node.Left, node.Right
	lEntry, _, lHit := geometry.RayAABB(ray, t.nodes[first].BBox)
	rEntry, _, rHit := geometry.RayAABB(ray, t.nodes[second].BBox)
	if rHit && (!lHit || rEntry < lEntry) {
		first, second = second, first
	}
	t.traverse(first, ray, out)
	t.traverse(second, ray, out)
}

// A predicate for excluding occluders from ray tests.
type Filter func(occ *scene.Occluder) bool

// Cast a ray against the indexed occluders and return the nearest hit within
// maxDist. Only occluders whose layer is in mask and that are not rejected by
// exclude (which may be nil) are tested.
func (t *Tree) Raycast(ray geometry.Ray, maxDist float32, mask scene.LayerMask, exclude Filter) (scene.Hit, bool) {
	var best scene.Hit
	found := false
	bestDist := maxDist

	for _, leaf := range t.Traverse(ray) {
		// Leaves are sorted by entry distance so nothing beyond this point
		// can beat the current best hit.
		if leaf.TEntry > bestDist {
			break
		}

		for _, occ := range leaf.Occluders {
			if !mask.Has(occ.Layer) || (exclude != nil && exclude(occ)) {
				continue
			}
			for _, hit := range occ.Raycast(ray, bestDist) {
				if !found || hit.Distance < best.Distance {
					best = hit
					bestDist = hit.Distance
					found = true
				}
			}
		}
	}

	return best, found
}
