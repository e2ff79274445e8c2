// Package spatial provides the configuration-space primitives used by the planners:
// configurations, per-dimension bounds, samplers, and goal regions.
package spatial

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Configuration is a point in configuration space, one value per dimension.
// Configurations are treated as immutable once created; code that needs a
// modified copy should Clone first.
type Configuration []float64

// Clone returns a copy of the configuration.
func (c Configuration) Clone() Configuration {
	out := make(Configuration, len(c))
	copy(out, c)
	return out
}

// Dist returns the L2 distance between two configurations. This is the metric
// used for nearest-neighbor queries and for edge costs, so the two always agree.
func Dist(a, b Configuration) float64 {
	return floats.Distance(a, b, 2)
}

// AlmostEqual reports whether two configurations are within tol of each other
// in every dimension. Used for goal and duplicate checks only, never for
// structural identity.
func AlmostEqual(a, b Configuration, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	return floats.EqualApprox(a, b, tol)
}

// Limit describes the minimum and maximum allowable values for a single dimension.
type Limit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Bounds is the per-dimension extent of a configuration space.
type Bounds []Limit

// NewBoundsFromExtents builds Bounds spanning [0, extent] in each dimension.
func NewBoundsFromExtents(extents ...float64) Bounds {
	bounds := make(Bounds, 0, len(extents))
	for _, e := range extents {
		bounds = append(bounds, Limit{Min: 0, Max: e})
	}
	return bounds
}

// Validate returns an error if any limit is inverted or non-finite, or if the
// bounds are empty.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return errors.New("bounds must have at least one dimension")
	}
	for i, lim := range b {
		if math.IsNaN(lim.Min) || math.IsNaN(lim.Max) || math.IsInf(lim.Min, 0) || math.IsInf(lim.Max, 0) {
			return errors.Errorf("dimension %d has non-finite limits", i)
		}
		if lim.Min >= lim.Max {
			return errors.Errorf("dimension %d has min %f >= max %f", i, lim.Min, lim.Max)
		}
	}
	return nil
}

// Contains reports whether the configuration lies within the bounds, inclusive.
func (b Bounds) Contains(c Configuration) bool {
	if len(c) != len(b) {
		return false
	}
	for i, lim := range b {
		if c[i] < lim.Min || c[i] > lim.Max {
			return false
		}
	}
	return true
}

// Diagonal returns the length of the bounds' main diagonal, the largest
// distance representable in the space.
func (b Bounds) Diagonal() float64 {
	sum := 0.
	for _, lim := range b {
		d := lim.Max - lim.Min
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Measure returns the Lebesgue measure (volume) of the bounded region.
func (b Bounds) Measure() float64 {
	m := 1.
	for _, lim := range b {
		m *= lim.Max - lim.Min
	}
	return m
}

// MinExtent returns the smallest per-dimension extent. Used to derive the
// duplicate-detection tolerance.
func (b Bounds) MinExtent() float64 {
	m := math.Inf(1)
	for _, lim := range b {
		if e := lim.Max - lim.Min; e < m {
			m = e
		}
	}
	return m
}
