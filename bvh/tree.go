package bvh

import (
	"sort"
	"time"

	"github.com/achilleasa/soundzone/geometry"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/scene"
)

// Sentinel child index for leaf nodes.
const noChild int32 = -1

// A BVH node. Nodes live in a flat arena owned by the Tree; inner nodes
// reference their children by arena index while leaves reference a
// contiguous range of the tree's occluder list.
type Node struct {
	BBox geometry.AABB

	// Child node indices; both are -1 for leaves.
	Left, Right int32

	// Occluder range for leaves.
	First, Count int32
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Left == noChild
}

// Build statistics.
type Stats struct {
	Items     int
	Skipped   int
	Nodes     int
	Leaves    int
	MaxDepth  int
	BuildTime time.Duration
}

// Tree is a bounding volume hierarchy over scene occluders. It is built
// wholesale by Build and must be rebuilt after occluders move; there is no
// incremental update. A Tree is not safe for concurrent use.
type Tree struct {
	logger log.Logger

	// The maximum number of occluders stored in a leaf.
	MaxLeafItems int

	nodes []Node
	items []*scene.Occluder
	stats Stats
}

// Create an empty tree.
func New() *Tree {
	return &Tree{
		logger:       log.New("bvh"),
		MaxLeafItems: 1,
	}
}

// Build the tree from a list of occluders, replacing any previous contents.
//
// Occluders without usable geometry are skipped. Inner nodes split their
// work list at the midpoint index after sorting the occluders by bbox center
// along the axis of largest extent. The output only depends on the input
// order.
func (t *Tree) Build(occluders []*scene.Occluder) {
	start := time.Now()
	t.Clear()

	for _, occ := range occluders {
		if !occ.Usable() {
			name := "<nil>"
			if occ != nil {
				name = occ.Name
			}
			t.logger.Warningf("skipping occluder %q without usable geometry", name)
			t.stats.Skipped++
			continue
		}
		t.items = append(t.items, occ)
	}
	t.stats.Items = len(t.items)

	if len(t.items) != 0 {
		t.partition(0, len(t.items), 0)
	}

	t.stats.BuildTime = time.Since(start)
	t.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, skipped: %d",
		t.stats.BuildTime.Nanoseconds()/1e6,
		t.stats.MaxDepth, t.stats.Nodes, t.stats.Leaves, t.stats.Skipped,
	)
}

// Partition items[first:first+count] and return the node index.
func (t *Tree) partition(first, count, depth int) int32 {
	if depth > t.stats.MaxDepth {
		t.stats.MaxDepth = depth
	}

	workList := t.items[first : first+count]
	node := Node{
		BBox:  geometry.EmptyAABB(),
		Left:  noChild,
		Right: noChild,
	}
	for _, item := range workList {
		node.BBox = node.BBox.Union(item.BBox())
	}

	maxLeafItems := t.MaxLeafItems
	if maxLeafItems < 1 {
		maxLeafItems = 1
	}
	if count <= maxLeafItems {
		node.First = int32(first)
		node.Count = int32(count)
		return t.appendNode(node, true)
	}

	axis := node.BBox.Size().MaxAxis()
	sort.SliceStable(workList, func(i, j int) bool {
		return workList[i].Center()[axis] < workList[j].Center()[axis]
	})

	nodeIndex := t.appendNode(node, false)
	mid := count / 2
	left := t.partition(first, mid, depth+1)
	right := t.partition(first+mid, count-mid, depth+1)

	t.nodes[nodeIndex].Left = left
	t.nodes[nodeIndex].Right = right
	t.nodes[nodeIndex].BBox = t.nodes[left].BBox.Union(t.nodes[right].BBox)
	return nodeIndex
}

func (t *Tree) appendNode(node Node, isLeaf bool) int32 {
	t.nodes = append(t.nodes, node)
	t.stats.Nodes++
	if isLeaf {
		t.stats.Leaves++
	}
	return int32(len(t.nodes) - 1)
}

// Release all nodes and occluder references. The backing arenas are kept
// for the next build.
func (t *Tree) Clear() {
	for i := range t.items {
		t.items[i] = nil
	}
	t.nodes = t.nodes[:0]
	t.items = t.items[:0]
	t.stats = Stats{}
}

// Returns true if the tree contains no nodes.
func (t *Tree) Empty() bool {
	return len(t.nodes) == 0
}

// Get the stats collected by the last build.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Get the node arena. The root, if any, is at index 0.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// Get the occluders referenced by a leaf node.
func (t *Tree) LeafOccluders(node *Node) []*scene.Occluder {
	if !node.IsLeaf() {
		return nil
	}
	return t.items[node.First : node.First+node.Count]
}
