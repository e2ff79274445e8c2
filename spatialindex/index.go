// Package spatialindex stores planned configurations keyed by integer node id
// and answers the nearest-neighbor and radius-neighbor queries the planners
// issue on every iteration.
package spatialindex

import "github.com/viam-labs/treeplan/spatial"

// Index is a purely additive spatial store. Insert registers a configuration
// under a caller-chosen id; Nearest and Near query by distance under the L2
// metric. No removal is supported, matching how planning trees only grow.
type Index interface {
	// Insert adds a configuration under the given id. Ids are chosen by the
	// caller and are expected to be unique.
	Insert(c spatial.Configuration, id int)

	// Nearest returns the id of the stored configuration closest to the query,
	// or ok=false if the index is empty.
	Nearest(q spatial.Configuration) (id int, ok bool)

	// Near returns the ids of all stored configurations within radius of the
	// query, in unspecified order.
	Near(q spatial.Configuration, radius float64) []int

	// Len returns the number of stored configurations.
	Len() int
}
