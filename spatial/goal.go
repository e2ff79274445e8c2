package spatial

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// GoalRegion is the membership test and sampling surface for a planning goal.
// Contains is used to detect that a tree node satisfies the query; Sample is
// used for goal-biased sampling.
type GoalRegion interface {
	Contains(c Configuration) bool
	Sample(r *rand.Rand) Configuration
}

// BallGoal is a goal region defined by a center configuration and a radius.
type BallGoal struct {
	Center Configuration
	Radius float64
}

// NewBallGoal creates a ball-shaped goal region.
func NewBallGoal(center Configuration, radius float64) *BallGoal {
	return &BallGoal{Center: center, Radius: radius}
}

// Contains reports whether c is within Radius of the center. Configurations
// of a different dimension are never contained.
func (g *BallGoal) Contains(c Configuration) bool {
	if len(c) != len(g.Center) {
		return false
	}
	return Dist(g.Center, c) <= g.Radius
}

// Sample returns the center of the region. Sampling the center rather than a
// random interior point keeps goal-biased extensions marching toward the same
// target, which converges faster for small regions.
func (g *BallGoal) Sample(r *rand.Rand) Configuration {
	return g.Center.Clone()
}

// Centroid returns the ball center. Planners use this, when available, to
// compute a straight-line lower bound on solution cost.
func (g *BallGoal) Centroid() Configuration {
	return g.Center.Clone()
}

// BoxGoal is a goal region defined by opposite corners, after the rectangular
// goals used in tabletop planning problems.
type BoxGoal struct {
	Min Configuration
	Max Configuration
}

// NewBoxGoal creates a box-shaped goal region from its minimum and maximum corners.
func NewBoxGoal(min, max Configuration) *BoxGoal {
	return &BoxGoal{Min: min, Max: max}
}

// Contains reports whether c lies inside the box, inclusive of its faces.
func (g *BoxGoal) Contains(c Configuration) bool {
	if len(c) != len(g.Min) {
		return false
	}
	for i := range c {
		if c[i] < g.Min[i] || c[i] > g.Max[i] {
			return false
		}
	}
	return true
}

// Sample returns a uniformly random configuration inside the box.
func (g *BoxGoal) Sample(r *rand.Rand) Configuration {
	c := make(Configuration, len(g.Min))
	for i := range g.Min {
		c[i] = g.Min[i] + r.Float64()*(g.Max[i]-g.Min[i])
	}
	return c
}

// Centroid returns the box centroid. Planners use this, when available, to
// compute a straight-line lower bound on solution cost.
func (g *BoxGoal) Centroid() Configuration {
	c := make(Configuration, len(g.Min))
	floats.AddScaledTo(c, g.Min, 1, g.Max)
	floats.Scale(0.5, c)
	return c
}
