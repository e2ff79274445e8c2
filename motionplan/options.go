package motionplan

import (
	"encoding/json"
	"math"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/viam-labs/treeplan/spatial"
	"github.com/viam-labs/treeplan/spatialindex"
)

// default values for planning options.
const (
	// Number of planner iterations before giving up.
	defaultPlanIter = 20000

	// Probability of sampling the goal region instead of a uniform point.
	defaultGoalBias = 0.05

	// Default max extension step, as a fraction of the bounds diagonal.
	defaultStepFraction = 0.05

	// Rewire radii are capped at this multiple of the max step.
	defaultRewireStepMultiple = 3.0

	// If a solution is found whose cost is within this fraction of the
	// straight-line lower bound, the optimal planner exits early.
	defaultOptimalityThreshold = 0.95

	// Default number of seconds to try to solve before returning.
	defaultTimeout = 300.
)

// RadiusSchedule maps the current tree size to the radius used to collect
// rewiring candidates. Shrinking the radius as the tree grows is what
// preserves the asymptotic-optimality guarantee.
type RadiusSchedule func(nNodes int) float64

// PlannerOptions specifies how a single planning query is run. JSON-tagged
// fields can additionally be overridden through an "extra" map, mirroring how
// callers pass algorithm-specific tuning through generic planning APIs.
type PlannerOptions struct {
	// Bounds declares the per-dimension extent of the configuration space.
	Bounds spatial.Bounds `json:"bounds"`

	// MaxStep bounds the distance covered by a single extension.
	MaxStep float64 `json:"max_step"`

	// GoalBias is the probability in [0,1] of sampling the goal region
	// directly instead of uniformly at random.
	GoalBias float64 `json:"goal_bias"`

	// PlanIter is the number of extension attempts before giving up.
	PlanIter int `json:"plan_iter"`

	// Timeout is the time budget in seconds. Zero or negative disables it.
	Timeout float64 `json:"timeout"`

	// OptimalityThreshold controls the optimal planner's early exit: once a
	// solution is within this fraction of the straight-line lower bound,
	// further refinement is skipped. Set to 0 to always spend the full budget.
	OptimalityThreshold float64 `json:"optimality_threshold"`

	// Sampler overrides the default goal-biased uniform sampler.
	Sampler spatial.Sampler `json:"-"`

	// Steering overrides the default straight-line steering function.
	Steering Steering `json:"-"`

	// RewireRadius overrides the default shrinking rewire-radius schedule.
	RewireRadius RadiusSchedule `json:"-"`

	// NewIndex selects the spatial index implementation; the default is the
	// linear scan, which is the right call for small-to-medium trees.
	NewIndex func() spatialindex.Index `json:"-"`

	// Clock drives the time budget; swap in a mock for deterministic tests.
	Clock clock.Clock `json:"-"`
}

// NewPlannerOptions creates options for planning over the given bounds, with
// all values pre-set to reasonable defaults.
func NewPlannerOptions(bounds spatial.Bounds) *PlannerOptions {
	return &PlannerOptions{
		Bounds:              bounds,
		MaxStep:             bounds.Diagonal() * defaultStepFraction,
		GoalBias:            defaultGoalBias,
		PlanIter:            defaultPlanIter,
		Timeout:             defaultTimeout,
		OptimalityThreshold: defaultOptimalityThreshold,
		Steering:            NewLinearSteering(),
		NewIndex:            func() spatialindex.Index { return spatialindex.NewLinear() },
		Clock:               clock.New(),
	}
}

// NewPlannerOptionsFromExtra creates default options and then overlays the
// JSON-compatible fields found in extra.
func NewPlannerOptionsFromExtra(bounds spatial.Bounds, extra map[string]interface{}) (*PlannerOptions, error) {
	opts := NewPlannerOptions(bounds)
	jsonString, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonString, opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// validate reports every configuration problem at once rather than the first
// one encountered.
func (opts *PlannerOptions) validate() error {
	var err error
	err = multierr.Append(err, opts.Bounds.Validate())
	if opts.MaxStep <= 0 || math.IsNaN(opts.MaxStep) {
		err = multierr.Append(err, errors.Errorf("max step must be positive, got %f", opts.MaxStep))
	}
	if opts.GoalBias < 0 || opts.GoalBias > 1 || math.IsNaN(opts.GoalBias) {
		err = multierr.Append(err, errors.Errorf("goal bias must be in [0,1], got %f", opts.GoalBias))
	}
	if opts.PlanIter <= 0 {
		err = multierr.Append(err, errors.Errorf("plan iterations must be positive, got %d", opts.PlanIter))
	}
	if opts.OptimalityThreshold < 0 || opts.OptimalityThreshold > 1 {
		err = multierr.Append(err, errors.Errorf("optimality threshold must be in [0,1], got %f", opts.OptimalityThreshold))
	}
	return err
}

// DefaultRewireRadius returns the Karaman-Frazzoli shrinking schedule
// gamma * (log n / n)^(1/d), capped at a multiple of maxStep. The gamma here
// satisfies the lower bound required for asymptotic optimality:
// gamma > 2*(1+1/d)^(1/d) * (mu(Xfree)/zeta_d)^(1/d), taking the full bounded
// region as the free-space measure.
func DefaultRewireRadius(bounds spatial.Bounds, maxStep float64) RadiusSchedule {
	d := float64(len(bounds))
	// volume of the d-dimensional unit ball
	zeta := math.Pow(math.Pi, d/2) / math.Gamma(d/2+1)
	gamma := 2 * math.Pow(1+1/d, 1/d) * math.Pow(bounds.Measure()/zeta, 1/d)
	maxRadius := maxStep * defaultRewireStepMultiple
	return func(nNodes int) float64 {
		if nNodes < 2 {
			return maxRadius
		}
		n := float64(nNodes)
		return math.Min(gamma*math.Pow(math.Log(n)/n, 1/d), maxRadius)
	}
}
