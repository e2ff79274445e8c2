package spatialindex

import (
	"math"
	"runtime"
	"sync"

	goutils "go.viam.com/utils"

	"github.com/viam-labs/treeplan/spatial"
)

// Number of stored entries above which nearest-neighbor scans are split
// across goroutines.
const defaultParallelThreshold = 1000

type entry struct {
	c  spatial.Configuration
	id int
}

// Linear is the brute-force index: an append-only slice scanned on every
// query. Insertion is O(1) and queries are O(n), which beats the k-d tree for
// small trees and is immune to the degenerate splits incremental k-d trees
// can develop. Above parallelThreshold entries, scans fan out across nCPU
// goroutines.
type Linear struct {
	entries           []entry
	parallelThreshold int
	nCPU              int
}

// NewLinear creates a linear index with default parallelization settings.
func NewLinear() *Linear {
	return NewLinearParallel(defaultParallelThreshold, int(math.Max(1, float64(runtime.NumCPU()/2))))
}

// NewLinearParallel creates a linear index which parallelizes nearest-neighbor
// scans across nCPU goroutines once more than parallelThreshold entries are stored.
func NewLinearParallel(parallelThreshold, nCPU int) *Linear {
	if nCPU < 1 {
		nCPU = 1
	}
	return &Linear{parallelThreshold: parallelThreshold, nCPU: nCPU}
}

// Insert appends the configuration to the scan list.
func (l *Linear) Insert(c spatial.Configuration, id int) {
	l.entries = append(l.entries, entry{c: c, id: id})
}

// Len returns the number of stored configurations.
func (l *Linear) Len() int {
	return len(l.entries)
}

// Nearest scans for the closest stored configuration.
func (l *Linear) Nearest(q spatial.Configuration) (int, bool) {
	if len(l.entries) == 0 {
		return 0, false
	}
	if len(l.entries) > l.parallelThreshold {
		return l.parallelNearest(q), true
	}
	best, _ := nearestInSlice(l.entries, q)
	return best, true
}

// parallelNearest splits the scan into nCPU chunks, reduces each chunk to its
// local best in a worker goroutine, then reduces the workers' results.
func (l *Linear) parallelNearest(q spatial.Configuration) int {
	type result struct {
		id   int
		dist float64
	}
	results := make(chan result, l.nCPU)
	chunk := (len(l.entries) + l.nCPU - 1) / l.nCPU

	var wg sync.WaitGroup
	for start := 0; start < len(l.entries); start += chunk {
		end := start + chunk
		if end > len(l.entries) {
			end = len(l.entries)
		}
		part := l.entries[start:end]
		wg.Add(1)
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			id, dist := nearestInSlice(part, q)
			results <- result{id: id, dist: dist}
		})
	}
	goutils.PanicCapturingGo(func() {
		wg.Wait()
		close(results)
	})

	best := 0
	bestDist := math.Inf(1)
	for r := range results {
		if r.dist < bestDist {
			bestDist = r.dist
			best = r.id
		}
	}
	return best
}

func nearestInSlice(entries []entry, q spatial.Configuration) (int, float64) {
	best := 0
	bestDist := math.Inf(1)
	for _, e := range entries {
		if d := spatial.Dist(e.c, q); d < bestDist {
			bestDist = d
			best = e.id
		}
	}
	return best, bestDist
}

// Near scans for all stored configurations within radius of the query.
func (l *Linear) Near(q spatial.Configuration, radius float64) []int {
	var ids []int
	for _, e := range l.entries {
		if spatial.Dist(e.c, q) <= radius {
			ids = append(ids, e.id)
		}
	}
	return ids
}
