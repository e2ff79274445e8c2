package motionplan

import "errors"

// Errors returned by Tree mutation and the planners. Configuration problems
// (bad options, dimension mismatches, invalid start states) are returned
// directly from Plan; the invariant errors below indicate a logic bug and
// abort the query rather than leaving a partially consistent tree behind.
var (
	// ErrInvalidEdgeCost is returned when an edge with non-positive or
	// non-finite cost would be added to the tree.
	ErrInvalidEdgeCost = errors.New("edge cost must be positive and finite")

	// ErrForeignNode is returned when a node passed to a Tree operation does
	// not belong to that tree.
	ErrForeignNode = errors.New("node does not belong to this tree")

	// ErrRewireCycle is returned when a rewire would make a node its own
	// ancestor. The check happens before any mutation.
	ErrRewireCycle = errors.New("rewire would create a cycle")

	// ErrRewireRoot is returned when a rewire targets the root, which has no
	// parent link to reassign.
	ErrRewireRoot = errors.New("cannot rewire the root node")
)
