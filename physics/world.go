package physics

import (
	"github.com/achilleasa/soundzone/bvh"
	"github.com/achilleasa/soundzone/geometry"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
)

// A World holds the occluders of a scene and answers ray queries against
// them. The acceleration index is rebuilt lazily whenever the occluder set
// changes.
type World struct {
	logger log.Logger

	occluders []*scene.Occluder
	index     *bvh.Tree
	dirty     bool
}

// Create an empty world.
func NewWorld() *World {
	return &World{
		logger: log.New("world"),
		index:  bvh.New(),
	}
}

// Add occluders to the world.
func (w *World) Add(occluders ...*scene.Occluder) {
	w.occluders = append(w.occluders, occluders...)
	w.dirty = true
}

// Remove an occluder. Returns false if the occluder is not part of the world.
func (w *World) Remove(occ *scene.Occluder) bool {
	for i, o := range w.occluders {
		if o == occ {
			w.occluders = append(w.occluders[:i], w.occluders[i+1:]...)
			w.dirty = true
			return true
		}
	}
	return false
}

func (w *World) Occluders() []*scene.Occluder {
	return w.occluders
}

// Flag the index as stale. Must be called after moving an occluder or
// re-baking a skinned pose.
func (w *World) Invalidate() {
	w.dirty = true
}

// Rebuild the acceleration index and return it.
func (w *World) BuildIndex() *bvh.Tree {
	w.index.Build(w.occluders)
	w.dirty = false
	return w.index
}

// Drop the acceleration index. It is rebuilt on the next query.
func (w *World) ClearIndex() {
	w.index.Clear()
	w.dirty = true
}

// The acceleration index, rebuilt if stale.
func (w *World) Index() *bvh.Tree {
	if w.dirty {
		w.BuildIndex()
	}
	return w.index
}

// Cast a ray and return the nearest hit within maxDist.
func (w *World) Raycast(ray geometry.Ray, maxDist float32, mask scene.LayerMask, exclude func(*scene.Occluder) bool) (scene.Hit, bool) {
	return w.Index().Raycast(ray, maxDist, mask, exclude)
}

// Test the segment from -> to for obstructions. Occluders rejected by exclude
// (which may be nil) are ignored.
func (w *World) Linecast(from, to types.Vec3, mask scene.LayerMask, exclude func(*scene.Occluder) bool) (scene.Hit, bool) {
	ray, dist := geometry.RayBetween(from, to)
	if dist <= geometry.Epsilon {
		return scene.Hit{}, false
	}
	return w.Raycast(ray, dist, mask, exclude)
}

// Drop point onto the nearest surface below it within maxDrop. Returns the
// original point and false if there is no surface.
func (w *World) SnapToSurface(point types.Vec3, maxDrop float32, mask scene.LayerMask) (types.Vec3, bool) {
	hit, ok := w.Raycast(geometry.NewRay(point, types.Vec3{0, -1, 0}), maxDrop, mask, nil)
	if !ok {
		return point, false
	}
	return hit.Point, true
}
