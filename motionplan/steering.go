package motionplan

import "github.com/viam-labs/treeplan/spatial"

// Steering produces a configuration reachable from `from` within maxStep,
// moving toward `toward`, along with the cost of that motion. Implementations
// must be deterministic; all randomness in planning belongs to the sampler.
// The returned cost must agree with the metric used by the spatial index so
// tree costs and nearest-neighbor distances stay consistent.
type Steering interface {
	Steer(from, toward spatial.Configuration, maxStep float64) (spatial.Configuration, float64)
}

type linearSteering struct{}

// NewLinearSteering returns the default straight-line steering function: it
// interpolates from `from` toward `toward`, truncating at maxStep.
func NewLinearSteering() Steering {
	return linearSteering{}
}

func (linearSteering) Steer(from, toward spatial.Configuration, maxStep float64) (spatial.Configuration, float64) {
	dist := spatial.Dist(from, toward)
	if dist <= maxStep {
		return toward, dist
	}
	scale := maxStep / dist
	out := make(spatial.Configuration, len(from))
	for i := range from {
		out[i] = from[i] + (toward[i]-from[i])*scale
	}
	return out, spatial.Dist(from, out)
}
