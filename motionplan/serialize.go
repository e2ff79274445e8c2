package motionplan

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/viam-labs/treeplan/spatial"
	"github.com/viam-labs/treeplan/spatialindex"
)

// TreeRecord is the wire form of a single tree node: one JSON object per
// line, root first, with every parent index referring to an earlier record so
// a reader can reconstruct the tree in a single streaming pass.
type TreeRecord struct {
	Index         int                   `json:"index"`
	Configuration spatial.Configuration `json:"configuration"`
	// Parent is nil for the root.
	Parent *int    `json:"parent"`
	Cost   float64 `json:"cost"`
}

// WriteRecords serializes the tree as newline-delimited JSON records.
// Rewiring can leave arena ids out of topological order, so nodes are
// re-indexed breadth-first from the root before writing; the emitted indices
// are therefore not the in-memory ids.
func (t *Tree) WriteRecords(w io.Writer) error {
	enc := json.NewEncoder(w)
	serial := make(map[int]int, len(t.nodes)) // arena id -> record index
	queue := []*Node{t.Root()}
	next := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		serial[n.id] = next
		rec := TreeRecord{
			Index:         next,
			Configuration: n.q,
			Cost:          n.cost,
		}
		if !n.IsRoot() {
			parent := serial[n.parent]
			rec.Parent = &parent
		}
		if err := enc.Encode(&rec); err != nil {
			return errors.Wrapf(err, "encoding tree record %d", next)
		}
		next++
		for _, id := range n.children {
			queue = append(queue, t.nodes[id])
		}
	}
	return nil
}

// ReadTree reconstructs a tree from newline-delimited JSON records produced
// by WriteRecords, inserting each configuration into a fresh index from
// newIndex. Records must arrive root first with parents preceding children.
func ReadTree(r io.Reader, newIndex func() spatialindex.Index) (*Tree, error) {
	dec := json.NewDecoder(r)
	var tree *Tree
	nodes := []*Node{}
	for i := 0; ; i++ {
		var rec TreeRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "decoding tree record %d", i)
		}
		if rec.Index != i {
			return nil, errors.Errorf("tree record %d has out-of-order index %d", i, rec.Index)
		}
		if i == 0 {
			if rec.Parent != nil {
				return nil, errors.New("first tree record must be the parentless root")
			}
			tree = NewTree(rec.Configuration, newIndex())
			nodes = append(nodes, tree.Root())
			continue
		}
		if rec.Parent == nil {
			return nil, errors.Errorf("tree record %d is a second root", i)
		}
		if *rec.Parent < 0 || *rec.Parent >= i {
			return nil, errors.Errorf("tree record %d references parent %d not yet written", i, *rec.Parent)
		}
		parent := nodes[*rec.Parent]
		n, err := tree.AddNode(parent, rec.Configuration, rec.Cost-parent.Cost())
		if err != nil {
			return nil, errors.Wrapf(err, "reconstructing tree record %d", i)
		}
		nodes = append(nodes, n)
	}
	if tree == nil {
		return nil, errors.New("no tree records found")
	}
	return tree, nil
}
