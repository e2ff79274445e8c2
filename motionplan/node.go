package motionplan

import "github.com/viam-labs/treeplan/spatial"

// Node is a single vertex of a planning tree. Nodes live in the tree's arena
// and are identified by a stable integer id; the parent link is stored as an
// id rather than a pointer so that rewiring is a plain index write and the
// structure has no ownership cycles.
type Node struct {
	id       int
	parent   int // id of the parent node, or rootParent for the root
	children []int
	cost     float64
	q        spatial.Configuration
}

const rootParent = -1

// ID returns the node's stable index within its tree.
func (n *Node) ID() int {
	return n.id
}

// Q returns the configuration wrapped by this node.
func (n *Node) Q() spatial.Configuration {
	return n.q
}

// Cost returns the accumulated cost from the root to this node.
func (n *Node) Cost() float64 {
	return n.cost
}

// IsRoot reports whether this node is the tree's root.
func (n *Node) IsRoot() bool {
	return n.parent == rootParent
}
