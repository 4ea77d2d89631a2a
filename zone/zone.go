package zone

import (
	"math"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/emitter"
	"github.com/achilleasa/soundzone/geometry"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/occlusion"
	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
)

// The outcome of evaluating a zone for a listener position.
type Result struct {
	Primary   types.Vec3
	Secondary types.Vec3

	HasPrimary   bool
	HasSecondary bool

	// InRange is set when the listener is inside the zone or within its
	// trigger distance.
	InRange bool
	Inside  bool

	// Distance between the listener and the closest zone point.
	Distance float32

	// Number of live emission point channels (point-set mode).
	Emitters int
}

// A Zone positions one or more audio channels relative to a listener using
// its shape, assigned meshes or emission points.
type Zone struct {
	Config

	logger log.Logger

	primary   audio.Channel
	secondary *emitter.Secondary
	pool      *emitter.Pool
	sampler   *occlusion.Sampler
	cache     *scene.MeshCache
}

// Create a zone that drives primary. Additional channels are created through
// factory and occlusion is tested against rc, which may be nil.
func New(cfg Config, primary audio.Channel, factory audio.Factory, rc occlusion.Raycaster) (*Zone, error) {
	if primary == nil {
		return nil, ErrNoPrimaryChannel
	}
	if factory == nil {
		return nil, ErrNoChannelFactory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	z := &Zone{
		Config:    cfg,
		logger:    log.NewScoped("zone", cfg.Name),
		primary:   primary,
		secondary: emitter.NewSecondary(factory, cfg.Name, cfg.FadeIn, cfg.FadeOut),
		pool:      emitter.NewPool(factory, cfg.Name),
		cache:     scene.NewMeshCache(),
	}
	z.sampler = occlusion.NewSampler(cfg.Name, rc, z.isOwnSurface)
	z.pool.OnRelease = z.sampler.Forget
	return z, nil
}

// Sightlines that hit one of the zone's own mesh surfaces are not occluded.
func (z *Zone) isOwnSurface(occ *scene.Occluder) bool {
	if z.Mode != MeshMode {
		return false
	}
	for _, own := range z.Meshes {
		if own == occ {
			return true
		}
	}
	return false
}

func (z *Zone) Primary() audio.Channel {
	return z.primary
}

func (z *Zone) Secondary() *emitter.Secondary {
	return z.secondary
}

func (z *Zone) Pool() *emitter.Pool {
	return z.pool
}

func (z *Zone) Sampler() *occlusion.Sampler {
	return z.sampler
}

func (z *Zone) MeshCache() *scene.MeshCache {
	return z.cache
}

// Get the effective trigger distance: the override when set, otherwise the
// primary channel's max distance. The value is negated when FlipTrigger is
// set; range tests use its magnitude.
func (z *Zone) TriggerDistance() float32 {
	dist := z.TriggerOverride
	if dist <= 0 {
		dist = z.primary.Props().MaxDistance
	}
	if z.FlipTrigger {
		dist = -dist
	}
	return dist
}

func (z *Zone) triggerSqrDist() float32 {
	dist := z.TriggerDistance()
	return dist * dist
}

// Get the shape points in world space.
func (z *Zone) WorldPoints() []types.Vec3 {
	return z.toWorld(z.Shape.Points)
}

// Get the emission points in world space.
func (z *Zone) WorldEmissionPoints() []types.Vec3 {
	return z.toWorld(z.EmissionPoints)
}

func (z *Zone) toWorld(points []types.Vec3) []types.Vec3 {
	out := make([]types.Vec3, len(points))
	for i, p := range points {
		out[i] = z.Transform.MulPoint(p)
	}
	return out
}

func (z *Zone) closed() bool {
	return z.Shape.Closed && len(z.Shape.Points) >= 3
}

// Snapshot the geometry of every assigned mesh into the zone's cache and
// return the number of cached meshes.
func (z *Zone) GenerateCachedMeshGeometry() int {
	meshes := make([]*scene.Mesh, 0, len(z.Meshes))
	for _, occ := range z.Meshes {
		if occ != nil {
			meshes = append(meshes, occ.Mesh)
		}
	}
	n := z.cache.Generate(meshes)
	z.logger.Debugf("cached geometry for %d mesh(es)", n)
	return n
}

// Evaluate the zone for the listener in ctx without touching any channel.
func (z *Zone) Evaluate(ctx TickContext) Result {
	if !ctx.HasListener || z.primary == nil {
		return Result{}
	}

	switch z.Mode {
	case MeshMode:
		return z.evaluateMesh(ctx.Listener)
	case PointSetMode:
		return z.evaluatePoints(ctx.Listener)
	}
	return z.evaluatePolyline(ctx.Listener)
}

func (z *Zone) evaluatePolyline(listener types.Vec3) Result {
	points := z.WorldPoints()
	if len(points) == 0 {
		return Result{}
	}

	closed := z.closed()
	if closed && geometry.PointInPolygon(listener, points) {
		var height float32
		for _, p := range points {
			height += p[1]
		}
		return Result{
			Primary:    types.Vec3{listener[0], height / float32(len(points)), listener[2]},
			HasPrimary: true,
			InRange:    true,
			Inside:     true,
		}
	}

	closest, sqrDist, _, _ := geometry.ClosestPointOnPerimeter(listener, points, closed)
	maxSqrDist := z.triggerSqrDist()
	res := Result{
		Primary:    closest,
		HasPrimary: true,
		InRange:    sqrDist <= maxSqrDist,
		Distance:   float32(math.Sqrt(float64(sqrDist))),
	}
	if !res.InRange || !z.DualAudio {
		return res
	}

	var candidates []Candidate
	for seg := 0; seg < geometry.SegmentCount(len(points), closed); seg++ {
		p := geometry.ProjectOnSegment(points[seg], points[(seg+1)%len(points)], listener)
		if d := p.SqrDistance(listener); d <= maxSqrDist {
			candidates = append(candidates, Candidate{Position: p, SqrDist: d, Source: seg})
		}
	}
	return z.applyDual(listener, res, candidates)
}

func (z *Zone) evaluateMesh(listener types.Vec3) Result {
	maxSqrDist := z.triggerSqrDist()
	bestDist := float32(math.MaxFloat32)
	var (
		best       types.Vec3
		found      bool
		candidates []Candidate
		source     int
	)

	for _, occ := range z.Meshes {
		if occ == nil || occ.Mesh == nil {
			continue
		}
		geom, cached := z.cache.Get(occ.Mesh)
		if !cached {
			z.logger.Debugf("no cached geometry for mesh %q; rebuilding", occ.Mesh.Name)
			geom = z.cache.Put(occ.Mesh)
		}

		transform := occ.Transform()
		for tri := 0; tri < geom.TriangleCount(); tri, source = tri+1, source+1 {
			a, b, c, ok := geom.Triangle(tri)
			if !ok {
				continue
			}
			p, ok := geometry.ClosestPointOnTriangle(transform.MulPoint(a), transform.MulPoint(b), transform.MulPoint(c), listener)
			if !ok {
				continue
			}

			d := p.SqrDistance(listener)
			if d < bestDist {
				best, bestDist, found = p, d, true
			}
			if z.DualAudio && d <= maxSqrDist {
				candidates = append(candidates, Candidate{Position: p.Add(z.MeshOffset), SqrDist: d, Source: source})
			}
		}
	}

	if !found {
		return Result{}
	}

	res := Result{
		Primary:    best.Add(z.MeshOffset),
		HasPrimary: true,
		InRange:    bestDist <= maxSqrDist,
		Distance:   float32(math.Sqrt(float64(bestDist))),
	}
	if !res.InRange || !z.DualAudio {
		return res
	}
	return z.applyDual(listener, res, candidates)
}

func (z *Zone) applyDual(listener types.Vec3, res Result, candidates []Candidate) Result {
	a, b, ok := SelectDualAnchors(listener, candidates, z.DualMinAngle, z.DualMinSeparation)
	if !ok {
		return res
	}
	res.Primary, res.Secondary, res.HasSecondary = a.Position, b.Position, true
	return res
}

func (z *Zone) evaluatePoints(listener types.Vec3) Result {
	points := z.WorldEmissionPoints()
	maxSqrDist := z.triggerSqrDist()
	res := Result{Distance: float32(math.MaxFloat32)}

	for _, p := range points {
		d := p.SqrDistance(listener)
		if d <= maxSqrDist {
			res.InRange = true
		}
		if dist := float32(math.Sqrt(float64(d))); dist < res.Distance {
			res.Distance = dist
		}
	}
	if len(points) == 0 {
		res.Distance = 0
	}
	res.Emitters = z.pool.Len()
	return res
}

// Preview the trigger boundary by offsetting the world-space shape by the
// trigger distance. The result is meant for visualization only.
func (z *Zone) Preview() [][]types.Vec3 {
	dist := z.TriggerDistance()
	if dist < 0 {
		dist = -dist
	}
	return geometry.OffsetPerimeter(z.WorldPoints(), z.closed(), dist, z.FlipTrigger)
}

// Triangulate the fill of a closed zone on the XZ plane. The returned indices
// refer to Shape.Points.
func (z *Zone) Fill() ([]int, error) {
	if !z.closed() {
		return nil, geometry.ErrDegeneratePolygon
	}
	return geometry.Triangulate(geometry.ProjectXZ(z.WorldPoints()))
}
