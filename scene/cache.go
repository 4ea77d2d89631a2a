package scene

// MeshCache keeps geometry snapshots keyed by mesh identity so that hot
// paths never read mesh data directly. Entries only change when Generate or
// Put is called; callers must regenerate after changing mesh topology.
type MeshCache struct {
	entries map[*Mesh]MeshGeometry
}

// Create an empty mesh cache.
func NewMeshCache() *MeshCache {
	return &MeshCache{
		entries: make(map[*Mesh]MeshGeometry),
	}
}

// Replace the cache contents with snapshots of the given meshes. Nil meshes
// are ignored. Returns the number of cached meshes.
func (c *MeshCache) Generate(meshes []*Mesh) int {
	c.entries = make(map[*Mesh]MeshGeometry, len(meshes))
	for _, mesh := range meshes {
		if mesh == nil {
			continue
		}
		c.entries[mesh] = mesh.Snapshot()
	}
	return len(c.entries)
}

// Snapshot a single mesh and store it, returning the stored geometry.
func (c *MeshCache) Put(mesh *Mesh) MeshGeometry {
	geom := mesh.Snapshot()
	c.entries[mesh] = geom
	return geom
}

// Lookup the cached geometry for mesh.
func (c *MeshCache) Get(mesh *Mesh) (MeshGeometry, bool) {
	geom, exists := c.entries[mesh]
	return geom, exists
}

// Drop all cached entries.
func (c *MeshCache) Invalidate() {
	c.entries = make(map[*Mesh]MeshGeometry)
}

// Get the number of cached meshes.
func (c *MeshCache) Len() int {
	return len(c.entries)
}
