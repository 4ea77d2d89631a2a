package scene

import (
	"github.com/achilleasa/soundzone/geometry"
	"github.com/achilleasa/soundzone/types"
)

type OccluderKind uint8

const (
	// A flat rectangle on the occluder's local XY plane.
	Collider2DOccluder OccluderKind = iota
	// A static triangle mesh.
	MeshOccluder
	// A deformable mesh tested against its last baked pose.
	SkinnedMeshOccluder
)

func (k OccluderKind) String() string {
	switch k {
	case Collider2DOccluder:
		return "collider2d"
	case MeshOccluder:
		return "mesh"
	case SkinnedMeshOccluder:
		return "skinned"
	}
	return "unknown"
}

// A bit set of occlusion layers.
type LayerMask uint32

// Mask matching every layer.
const AllLayers LayerMask = ^LayerMask(0)

// Create a mask containing the given layers.
func Layers(layers ...uint8) LayerMask {
	var mask LayerMask
	for _, l := range layers {
		mask |= 1 << (l & 31)
	}
	return mask
}

// Returns true if the mask includes layer.
func (m LayerMask) Has(layer uint8) bool {
	return m&(1<<(layer&31)) != 0
}

// A ray hit against an occluder.
type Hit struct {
	Occluder *Occluder
	Distance float32
	Point    types.Vec3
}

// An Occluder is a piece of scene geometry that can block sightlines. Each
// occluder kind exposes the same Raycast capability; the ray is tested in the
// occluder's local space using the inverse of its world transform.
type Occluder struct {
	Name  string
	Kind  OccluderKind
	Layer uint8

	// Mesh for mesh and skinned occluders.
	Mesh *Mesh

	// Rectangle extents for 2D colliders, centered at the local origin.
	Size types.Vec2

	transform    types.Mat4
	invTransform types.Mat4
	invertible   bool

	// Baked pose for skinned occluders.
	pose MeshGeometry

	bbox geometry.AABB
}

// Create an occluder backed by a static mesh.
func NewMeshOccluder(name string, mesh *Mesh, transform types.Mat4, layer uint8) *Occluder {
	o := &Occluder{Name: name, Kind: MeshOccluder, Mesh: mesh, Layer: layer}
	o.SetTransform(transform)
	return o
}

// Create an occluder backed by a deformable mesh. The current mesh state is
// baked immediately; call BakePose after deforming the mesh.
func NewSkinnedMeshOccluder(name string, mesh *Mesh, transform types.Mat4, layer uint8) *Occluder {
	o := &Occluder{Name: name, Kind: SkinnedMeshOccluder, Mesh: mesh, Layer: layer}
	o.BakePose()
	o.SetTransform(transform)
	return o
}

// Create a 2D rectangle collider.
func NewCollider2D(name string, size types.Vec2, transform types.Mat4, layer uint8) *Occluder {
	o := &Occluder{Name: name, Kind: Collider2DOccluder, Size: size, Layer: layer}
	o.SetTransform(transform)
	return o
}

// Get the local to world transform.
func (o *Occluder) Transform() types.Mat4 {
	return o.transform
}

// Update the local to world transform and refresh the world bounds.
func (o *Occluder) SetTransform(m types.Mat4) {
	o.transform = m
	o.invTransform, o.invertible = m.Inv()
	o.refreshBBox()
}

// Snapshot the current mesh state as the pose used for ray tests.
func (o *Occluder) BakePose() {
	if o.Kind != SkinnedMeshOccluder || o.Mesh == nil {
		return
	}
	o.pose = o.Mesh.Snapshot()
	o.refreshBBox()
}

func (o *Occluder) refreshBBox() {
	local := geometry.EmptyAABB()
	switch o.Kind {
	case Collider2DOccluder:
		half := types.Vec3{o.Size[0] * 0.5, o.Size[1] * 0.5, 0}
		local = geometry.AABB{half.Mul(-1), half}
	case MeshOccluder:
		if o.Mesh != nil {
			local = o.Mesh.BBox()
		}
	case SkinnedMeshOccluder:
		for _, v := range o.pose.Vertices {
			local = local.Extend(v)
		}
	}

	if local.IsEmpty() {
		o.bbox = local
		return
	}
	o.bbox = geometry.AABB(o.transform.TransformBBox([2]types.Vec3(local)))
}

// Get the world-space bounds.
func (o *Occluder) BBox() geometry.AABB {
	return o.bbox
}

// Get the world-space bounds center.
func (o *Occluder) Center() types.Vec3 {
	return o.bbox.Center()
}

// Returns false if the occluder has no geometry that can be ray tested:
// missing mesh, empty or zero-size bounds or a singular transform.
func (o *Occluder) Usable() bool {
	if o == nil || !o.invertible || o.bbox.IsEmpty() {
		return false
	}
	if o.bbox.Size().SqrLen() < geometry.Epsilon {
		return false
	}
	switch o.Kind {
	case MeshOccluder:
		return o.Mesh != nil && o.Mesh.TriangleCount() > 0
	case SkinnedMeshOccluder:
		return o.pose.TriangleCount() > 0
	}
	return true
}

// Raycast the occluder and return all hits closer than maxDist.
func (o *Occluder) Raycast(ray geometry.Ray, maxDist float32) []Hit {
	if !o.Usable() {
		return nil
	}

	// Distances along the local ray match world distances because the
	// local direction is not re-normalized.
	local := ray.Transform(o.invTransform)

	var hits []Hit
	addHit := func(t float32) {
		if t > maxDist {
			return
		}
		hits = append(hits, Hit{Occluder: o, Distance: t, Point: ray.At(t)})
	}

	switch o.Kind {
	case Collider2DOccluder:
		if t, hit := o.raycastRect(local); hit {
			addHit(t)
		}
	case MeshOccluder:
		raycastGeometry(local, MeshGeometry{Vertices: o.Mesh.Vertices, Indices: o.Mesh.Indices}, addHit)
	case SkinnedMeshOccluder:
		raycastGeometry(local, o.pose, addHit)
	}
	return hits
}

func (o *Occluder) raycastRect(local geometry.Ray) (float32, bool) {
	dz := local.Dir[2]
	if dz > -geometry.Epsilon && dz < geometry.Epsilon {
		return 0, false
	}
	t := -local.Origin[2] / dz
	if t <= geometry.Epsilon {
		return 0, false
	}
	p := local.At(t)
	halfW, halfH := o.Size[0]*0.5, o.Size[1]*0.5
	if p[0] < -halfW || p[0] > halfW || p[1] < -halfH || p[1] > halfH {
		return 0, false
	}
	return t, true
}

func raycastGeometry(local geometry.Ray, geom MeshGeometry, onHit func(t float32)) {
	for tri := 0; tri < geom.TriangleCount(); tri++ {
		v0, v1, v2, ok := geom.Triangle(tri)
		if !ok || geometry.IsDegenerateTriangle(v0, v1, v2) {
			continue
		}
		if t, hit := geometry.RayTriangleIntersect(local, v0, v1, v2); hit {
			onHit(t)
		}
	}
}
