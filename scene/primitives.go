package scene

import "github.com/achilleasa/soundzone/types"

// Create an axis-aligned box mesh centered at the origin.
func NewBoxMesh(name string, size types.Vec3) *Mesh {
	h := size.Mul(0.5)
	c := [8]types.Vec3{
		{-h[0], -h[1], -h[2]}, {h[0], -h[1], -h[2]}, {h[0], h[1], -h[2]}, {-h[0], h[1], -h[2]},
		{-h[0], -h[1], h[2]}, {h[0], -h[1], h[2]}, {h[0], h[1], h[2]}, {-h[0], h[1], h[2]},
	}
	faces := [6][4]int{
		{0, 3, 2, 1}, // -z
		{4, 5, 6, 7}, // +z
		{0, 4, 7, 3}, // -x
		{1, 2, 6, 5}, // +x
		{0, 1, 5, 4}, // -y
		{3, 7, 6, 2}, // +y
	}

	mesh := NewMesh(name)
	for _, f := range faces {
		mesh.AddTriangle(c[f[0]], c[f[1]], c[f[2]])
		mesh.AddTriangle(c[f[0]], c[f[2]], c[f[3]])
	}
	return mesh
}

// Create a flat quad on the local XZ plane centered at the origin.
func NewQuadMesh(name string, size types.Vec2) *Mesh {
	hx, hz := size[0]*0.5, size[1]*0.5
	mesh := NewMesh(name)
	mesh.AddTriangle(types.Vec3{-hx, 0, -hz}, types.Vec3{-hx, 0, hz}, types.Vec3{hx, 0, hz})
	mesh.AddTriangle(types.Vec3{-hx, 0, -hz}, types.Vec3{hx, 0, hz}, types.Vec3{hx, 0, -hz})
	return mesh
}
