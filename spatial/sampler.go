package spatial

import "math/rand"

// Sampler produces candidate configurations for tree growth. Implementations
// must draw all randomness from the provided source so that planning runs are
// reproducible under a fixed seed.
type Sampler interface {
	Sample(r *rand.Rand) Configuration
}

// UniformSampler samples uniformly at random within its bounds.
type UniformSampler struct {
	Bounds Bounds
}

// NewUniformSampler creates a sampler over the given bounds.
func NewUniformSampler(bounds Bounds) *UniformSampler {
	return &UniformSampler{Bounds: bounds}
}

// Sample returns a uniformly random configuration within the bounds.
func (s *UniformSampler) Sample(r *rand.Rand) Configuration {
	c := make(Configuration, 0, len(s.Bounds))
	for _, lim := range s.Bounds {
		c = append(c, lim.Min+r.Float64()*(lim.Max-lim.Min))
	}
	return c
}

// BiasedSampler samples the goal region with probability Bias and otherwise
// defers to its base sampler. This is the default goal-biased strategy used
// by the planners; alternative heuristics can be substituted by providing a
// different Sampler in the planner options.
type BiasedSampler struct {
	Base Sampler
	Goal GoalRegion
	Bias float64
}

// Sample returns either a configuration inside the goal region or a sample
// from the base sampler.
func (s *BiasedSampler) Sample(r *rand.Rand) Configuration {
	if r.Float64() < s.Bias {
		return s.Goal.Sample(r)
	}
	return s.Base.Sample(r)
}
