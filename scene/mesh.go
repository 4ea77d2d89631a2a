package scene

import (
	"github.com/achilleasa/soundzone/geometry"
	"github.com/achilleasa/soundzone/types"
)

// A triangle mesh defined in its own local space.
type Mesh struct {
	Name     string
	Vertices []types.Vec3

	// Triangle vertex indices; 3 per triangle.
	Indices []uint32

	bbox            geometry.AABB
	bboxNeedsUpdate bool
}

// Create a new empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:            name,
		Vertices:        make([]types.Vec3, 0),
		Indices:         make([]uint32, 0),
		bboxNeedsUpdate: true,
	}
}

// Append a triangle to the mesh.
func (m *Mesh) AddTriangle(v0, v1, v2 types.Vec3) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, v0, v1, v2)
	m.Indices = append(m.Indices, base, base+1, base+2)
	m.bboxNeedsUpdate = true
}

// Get the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Mark the bbox of this mesh as dirty.
func (m *Mesh) MarkBBoxDirty() {
	m.bboxNeedsUpdate = true
}

// Get mesh bounding box in local space.
func (m *Mesh) BBox() geometry.AABB {
	if m.bboxNeedsUpdate {
		m.bbox = geometry.EmptyAABB()
		for _, v := range m.Vertices {
			m.bbox = m.bbox.Extend(v)
		}
		m.bboxNeedsUpdate = false
	}

	return m.bbox
}

// Take a snapshot of the mesh vertices and indices.
func (m *Mesh) Snapshot() MeshGeometry {
	geom := MeshGeometry{
		Vertices: make([]types.Vec3, len(m.Vertices)),
		Indices:  make([]uint32, len(m.Indices)),
	}
	copy(geom.Vertices, m.Vertices)
	copy(geom.Indices, m.Indices)
	return geom
}

// A snapshot of mesh geometry.
type MeshGeometry struct {
	Vertices []types.Vec3
	Indices  []uint32
}

// Get the number of triangles.
func (g MeshGeometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Get the vertices of triangle i. The last return value is false if the
// triangle references out-of-range vertices.
func (g MeshGeometry) Triangle(i int) (a, b, c types.Vec3, ok bool) {
	i0, i1, i2 := int(g.Indices[i*3]), int(g.Indices[i*3+1]), int(g.Indices[i*3+2])
	if i0 >= len(g.Vertices) || i1 >= len(g.Vertices) || i2 >= len(g.Vertices) {
		return a, b, c, false
	}
	return g.Vertices[i0], g.Vertices[i1], g.Vertices[i2], true
}
