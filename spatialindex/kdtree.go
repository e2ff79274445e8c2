package spatialindex

import (
	"math"

	"github.com/viam-labs/treeplan/spatial"
)

type kdNode struct {
	c           spatial.Configuration
	id          int
	left, right *kdNode
}

// KDTree is an incrementally built k-d tree. Inserts and queries are
// O(log n) on average; because nodes arrive in random sample order the tree
// stays reasonably balanced without rebalancing, but adversarial insertion
// orders can degrade it to O(n). The planners insert uniformly random
// samples, which is the favorable case.
type KDTree struct {
	root *kdNode
	dim  int
	size int
}

// NewKDTree creates a k-d tree over configurations of the given dimension.
func NewKDTree(dim int) *KDTree {
	return &KDTree{dim: dim}
}

// Insert adds a configuration by descending to a leaf, cycling the split axis
// with depth.
func (t *KDTree) Insert(c spatial.Configuration, id int) {
	n := &kdNode{c: c, id: id}
	t.size++
	if t.root == nil {
		t.root = n
		return
	}
	cur := t.root
	for axis := 0; ; axis = (axis + 1) % t.dim {
		if c[axis] < cur.c[axis] {
			if cur.left == nil {
				cur.left = n
				return
			}
			cur = cur.left
		} else {
			if cur.right == nil {
				cur.right = n
				return
			}
			cur = cur.right
		}
	}
}

// Len returns the number of stored configurations.
func (t *KDTree) Len() int {
	return t.size
}

// Nearest descends the tree toward the query, then unwinds, exploring the far
// side of a split only when the splitting plane is closer than the best
// distance found so far.
func (t *KDTree) Nearest(q spatial.Configuration) (int, bool) {
	if t.root == nil {
		return 0, false
	}
	best := t.root
	bestDist := math.Inf(1)
	t.nearest(t.root, q, 0, &best, &bestDist)
	return best.id, true
}

func (t *KDTree) nearest(n *kdNode, q spatial.Configuration, axis int, best **kdNode, bestDist *float64) {
	if n == nil {
		return
	}
	if d := spatial.Dist(n.c, q); d < *bestDist {
		*bestDist = d
		*best = n
	}
	nextAxis := (axis + 1) % t.dim
	diff := q[axis] - n.c[axis]
	near, far := n.left, n.right
	if diff >= 0 {
		near, far = n.right, n.left
	}
	t.nearest(near, q, nextAxis, best, bestDist)
	if math.Abs(diff) < *bestDist {
		t.nearest(far, q, nextAxis, best, bestDist)
	}
}

// Near collects all stored configurations within radius of the query,
// pruning subtrees whose splitting plane lies beyond the radius.
func (t *KDTree) Near(q spatial.Configuration, radius float64) []int {
	var ids []int
	t.near(t.root, q, radius, 0, &ids)
	return ids
}

func (t *KDTree) near(n *kdNode, q spatial.Configuration, radius float64, axis int, ids *[]int) {
	if n == nil {
		return
	}
	if spatial.Dist(n.c, q) <= radius {
		*ids = append(*ids, n.id)
	}
	nextAxis := (axis + 1) % t.dim
	diff := q[axis] - n.c[axis]
	if diff < radius {
		t.near(n.left, q, radius, nextAxis, ids)
	}
	if -diff <= radius {
		t.near(n.right, q, radius, nextAxis, ids)
	}
}
