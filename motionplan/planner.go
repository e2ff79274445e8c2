// Package motionplan is a single-query sampling-based motion planning core.
// It grows a tree from a start configuration toward a goal region using RRT
// or RRT*, consuming collision and kinematic validity through the Checker
// interface so it stays independent of any particular geometry or robot.
package motionplan

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/treeplan/spatial"
	"github.com/viam-labs/treeplan/spatialindex"
)

// Checker is the validity oracle consumed by the planners. Implementations
// must be deterministic and side-effect free; they are called once per
// candidate configuration or motion segment and may be called from multiple
// goroutines at once.
type Checker interface {
	// ValidConfiguration reports whether a single configuration is
	// obstacle-free and within the space.
	ValidConfiguration(c spatial.Configuration) bool

	// ValidMotion reports whether the motion segment between two
	// configurations is traversable.
	ValidMotion(from, to spatial.Configuration) bool
}

// Status is the terminal state of a planning query.
type Status int

// The three ways a query can end. Exhausted covers both the iteration and the
// time budget running out; Cancelled is reserved for context cancellation.
const (
	Succeeded Status = iota + 1
	Exhausted
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "Succeeded"
	case Exhausted:
		return "Exhausted"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Plan is the result of a planning query. Path is nil unless a
// goal-satisfying node was found; Cancelled plans carry the best solution
// discovered before cancellation, if any. Tree is retained for inspection,
// export, and visualization by external components.
type Plan struct {
	Status Status
	Path   []spatial.Configuration
	Cost   float64
	Tree   *Tree
}

// MotionPlanner is a single-query planner. Plan blocks until the query
// reaches a terminal state and returns a non-nil error only for fatal
// configuration problems or invariant violations; budget exhaustion and
// cancellation are reported through Plan.Status.
type MotionPlanner interface {
	Plan(ctx context.Context, goal spatial.GoalRegion, start spatial.Configuration, opts *PlannerOptions) (*Plan, error)

	// Phase reports where the planner is in its lifecycle. It may be read
	// from another goroutine while Plan is blocked.
	Phase() Phase
}

// Phase is the planner's position in its lifecycle: Initialized until a query
// starts, Running while the loop executes, then the phase matching the
// query's terminal status.
type Phase int32

// Planner lifecycle phases.
const (
	PhaseInitialized Phase = iota
	PhaseRunning
	PhaseSucceeded
	PhaseExhausted
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialized:
		return "Initialized"
	case PhaseRunning:
		return "Running"
	case PhaseSucceeded:
		return "Succeeded"
	case PhaseExhausted:
		return "Exhausted"
	case PhaseCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// planner carries the state shared by the RRT variants. A planner instance
// runs one query at a time.
type planner struct {
	checker  Checker
	logger   golog.Logger
	randseed *rand.Rand
	phase    atomic.Int32
}

func newPlanner(checker Checker, seed *rand.Rand, logger golog.Logger) *planner {
	return &planner{checker: checker, randseed: seed, logger: logger}
}

// Phase reports the planner's current lifecycle phase.
func (mp *planner) Phase() Phase {
	return Phase(mp.phase.Load())
}

func (mp *planner) setPhase(p Phase) {
	mp.phase.Store(int32(p))
}

type planReturn struct {
	plan *Plan
	err  error
}

// planContext is the per-query state assembled by setup and consumed by the
// variant's run loop.
type planContext struct {
	opts     *PlannerOptions
	goal     spatial.GoalRegion
	start    spatial.Configuration
	tree     *Tree
	sampler  spatial.Sampler
	steering Steering
	clk      clock.Clock
	deadline time.Time
	// tol is the distance below which a steering result is considered a
	// duplicate of its origin and discarded.
	tol float64
}

func (mp *planner) setup(goal spatial.GoalRegion, start spatial.Configuration, opts *PlannerOptions) (*planContext, error) {
	if opts == nil {
		return nil, errors.New("planner options are required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, errors.New("a goal region is required")
	}
	// sample the goal once with a throwaway source to learn its
	// dimensionality; a mismatched goal would otherwise panic deep inside the
	// distance metric instead of failing fast here
	//nolint:gosec
	if g := goal.Sample(rand.New(rand.NewSource(1))); len(g) != len(opts.Bounds) {
		return nil, errors.Errorf("goal region has dimension %d, bounds have dimension %d", len(g), len(opts.Bounds))
	}
	if len(start) != len(opts.Bounds) {
		return nil, errors.Errorf("start configuration has dimension %d, bounds have dimension %d", len(start), len(opts.Bounds))
	}
	if !mp.checker.ValidConfiguration(start) {
		return nil, errors.New("start configuration is not valid")
	}

	newIndex := opts.NewIndex
	if newIndex == nil {
		newIndex = func() spatialindex.Index { return spatialindex.NewLinear() }
	}
	pc := &planContext{
		opts:     opts,
		goal:     goal,
		start:    start,
		tree:     NewTree(start, newIndex()),
		steering: opts.Steering,
		clk:      opts.Clock,
		tol:      opts.Bounds.MinExtent() * 1e-6,
	}
	if pc.steering == nil {
		pc.steering = NewLinearSteering()
	}
	if pc.clk == nil {
		pc.clk = clock.New()
	}
	pc.sampler = opts.Sampler
	if pc.sampler == nil {
		pc.sampler = &spatial.BiasedSampler{
			Base: spatial.NewUniformSampler(opts.Bounds),
			Goal: goal,
			Bias: opts.GoalBias,
		}
	}
	if opts.Timeout > 0 {
		pc.deadline = pc.clk.Now().Add(time.Duration(opts.Timeout * float64(time.Second)))
	}
	return pc, nil
}

// overBudget reports whether the time budget, if any, has been spent.
func (pc *planContext) overBudget() bool {
	return !pc.deadline.IsZero() && pc.clk.Now().After(pc.deadline)
}

// extend runs the shared sample/nearest/steer/validate/add protocol once.
// It returns the added node, or nil if the iteration was discarded.
func (mp *planner) extend(pc *planContext, target spatial.Configuration) (*Node, error) {
	nearest := pc.tree.Nearest(target)
	q, edgeCost := pc.steering.Steer(nearest.Q(), target, pc.opts.MaxStep)
	if edgeCost <= pc.tol {
		// steering made no progress; treat as a duplicate sample
		return nil, nil
	}
	if !mp.checker.ValidConfiguration(q) || !mp.checker.ValidMotion(nearest.Q(), q) {
		return nil, nil
	}
	n, err := pc.tree.AddNode(nearest, q, edgeCost)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Number of motion segments above which validity checks are fanned out
// across goroutines.
const parallelValidityThreshold = 16

type motionSegment struct {
	from, to spatial.Configuration
}

// checkMotions evaluates validity for a batch of motion segments, in
// parallel when the batch is large. Results are index-aligned with the input.
// Only the checks run concurrently; callers still serialize tree mutation.
func (mp *planner) checkMotions(segments []motionSegment) []bool {
	valid := make([]bool, len(segments))
	if len(segments) < parallelValidityThreshold {
		for i, seg := range segments {
			valid[i] = mp.checker.ValidMotion(seg.from, seg.to)
		}
		return valid
	}
	var wg sync.WaitGroup
	for i, seg := range segments {
		wg.Add(1)
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			valid[i] = mp.checker.ValidMotion(seg.from, seg.to)
		})
	}
	wg.Wait()
	return valid
}
