package motionplan

import (
	"math"

	"github.com/pkg/errors"

	"github.com/viam-labs/treeplan/spatial"
	"github.com/viam-labs/treeplan/spatialindex"
)

// Tree is the planning tree: an arena of nodes rooted at the start
// configuration, paired with the spatial index used to answer nearest and
// radius queries over its nodes. Nodes are only ever appended; rewiring
// reassigns parent links but never removes anything. A Tree is owned
// exclusively by the planner running a query and is not safe for concurrent
// mutation.
type Tree struct {
	nodes []*Node
	index spatialindex.Index
}

// NewTree creates a tree whose root wraps the given configuration with cost 0.
func NewTree(root spatial.Configuration, index spatialindex.Index) *Tree {
	t := &Tree{index: index}
	rootNode := &Node{id: 0, parent: rootParent, cost: 0, q: root}
	t.nodes = append(t.nodes, rootNode)
	t.index.Insert(root, rootNode.id)
	return t
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node {
	return t.nodes[0]
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id, or nil if out of range.
func (t *Tree) Node(id int) *Node {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

func (t *Tree) contains(n *Node) bool {
	return n != nil && n.id >= 0 && n.id < len(t.nodes) && t.nodes[n.id] == n
}

// AddNode creates a node wrapping config as a child of parent, with
// cost = parent.Cost() + edgeCost, and registers it in the spatial index.
func (t *Tree) AddNode(parent *Node, config spatial.Configuration, edgeCost float64) (*Node, error) {
	if !t.contains(parent) {
		return nil, errors.Wrap(ErrForeignNode, "AddNode parent")
	}
	if edgeCost <= 0 || math.IsNaN(edgeCost) || math.IsInf(edgeCost, 0) {
		return nil, errors.Wrapf(ErrInvalidEdgeCost, "got %f", edgeCost)
	}
	n := &Node{
		id:     len(t.nodes),
		parent: parent.id,
		cost:   parent.cost + edgeCost,
		q:      config,
	}
	t.nodes = append(t.nodes, n)
	parent.children = append(parent.children, n.id)
	t.index.Insert(config, n.id)
	return n, nil
}

// Rewire reassigns child's parent to newParent and shifts the costs of child
// and all of its descendants by the resulting delta. The cycle check runs
// before any mutation so a failed rewire leaves the tree untouched.
func (t *Tree) Rewire(child, newParent *Node, newEdgeCost float64) error {
	if !t.contains(child) || !t.contains(newParent) {
		return errors.Wrap(ErrForeignNode, "Rewire")
	}
	if child.IsRoot() {
		return ErrRewireRoot
	}
	if newEdgeCost <= 0 || math.IsNaN(newEdgeCost) || math.IsInf(newEdgeCost, 0) {
		return errors.Wrapf(ErrInvalidEdgeCost, "got %f", newEdgeCost)
	}
	for anc := newParent; ; anc = t.nodes[anc.parent] {
		if anc == child {
			return errors.Wrapf(ErrRewireCycle, "node %d is an ancestor of node %d", newParent.id, child.id)
		}
		if anc.IsRoot() {
			break
		}
	}

	oldParent := t.nodes[child.parent]
	for i, id := range oldParent.children {
		if id == child.id {
			oldParent.children = append(oldParent.children[:i], oldParent.children[i+1:]...)
			break
		}
	}
	child.parent = newParent.id
	newParent.children = append(newParent.children, child.id)

	delta := newParent.cost + newEdgeCost - child.cost
	t.shiftCost(child, delta)
	return nil
}

// shiftCost applies a cost delta to n and its whole subtree. Descendant costs
// are defined relative to their ancestor chain, so they all move by the same
// amount.
func (t *Tree) shiftCost(n *Node, delta float64) {
	n.cost += delta
	for _, id := range n.children {
		t.shiftCost(t.nodes[id], delta)
	}
}

// Nearest returns the tree node closest to the query configuration.
func (t *Tree) Nearest(q spatial.Configuration) *Node {
	// the index always holds at least the root
	id, _ := t.index.Nearest(q)
	return t.nodes[id]
}

// Near returns all tree nodes within radius of the query configuration.
func (t *Tree) Near(q spatial.Configuration, radius float64) []*Node {
	ids := t.index.Near(q, radius)
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, t.nodes[id])
	}
	return nodes
}

// PathTo walks parent links from n back to the root and returns the
// configurations in root-to-n order.
func (t *Tree) PathTo(n *Node) ([]spatial.Configuration, error) {
	if !t.contains(n) {
		return nil, errors.Wrap(ErrForeignNode, "PathTo")
	}
	var path []spatial.Configuration
	for {
		path = append(path, n.q)
		if n.IsRoot() {
			break
		}
		n = t.nodes[n.parent]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
