package motionplan

import (
	"context"
	"math"
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/treeplan/spatial"
)

// rrtStarMotionPlanner implements RRT*: after each extension it reconnects
// the new node to the lowest-cost valid parent within a shrinking radius,
// then reroutes neighbors through the new node wherever that lowers their
// cost. It keeps refining until the iteration or time budget is spent, so
// solution cost converges toward the optimum as the budget grows.
type rrtStarMotionPlanner struct {
	*planner
}

// centered is implemented by goal regions that can report a representative
// center, enabling a straight-line lower bound on solution cost.
type centered interface {
	Centroid() spatial.Configuration
}

// NewRRTStarMotionPlanner creates an RRT* planner with a fixed random seed.
func NewRRTStarMotionPlanner(checker Checker, logger golog.Logger) (MotionPlanner, error) {
	//nolint:gosec
	return NewRRTStarMotionPlannerWithSeed(checker, rand.New(rand.NewSource(1)), logger)
}

// NewRRTStarMotionPlannerWithSeed creates an RRT* planner with a user
// specified random seed. Identical seeds and inputs produce identical trees
// and paths.
func NewRRTStarMotionPlannerWithSeed(checker Checker, seed *rand.Rand, logger golog.Logger) (MotionPlanner, error) {
	if checker == nil {
		return nil, errors.New("a validity checker is required")
	}
	return &rrtStarMotionPlanner{newPlanner(checker, seed, logger)}, nil
}

func (mp *rrtStarMotionPlanner) Plan(
	ctx context.Context,
	goal spatial.GoalRegion,
	start spatial.Configuration,
	opts *PlannerOptions,
) (*Plan, error) {
	solutionChan := make(chan *planReturn, 1)
	goutils.PanicCapturingGo(func() {
		mp.planRunner(ctx, goal, start, opts, solutionChan)
	})
	// the runner observes cancellation at the top of each iteration, so a
	// cancelled context still yields a terminal result promptly
	ret, ok := <-solutionChan
	if !ok {
		return nil, errors.New("planner terminated without producing a result")
	}
	return ret.plan, ret.err
}

// planRunner executes the query and delivers exactly one result on
// solutionChan.
func (mp *rrtStarMotionPlanner) planRunner(
	ctx context.Context,
	goal spatial.GoalRegion,
	start spatial.Configuration,
	opts *PlannerOptions,
	solutionChan chan *planReturn,
) {
	defer close(solutionChan)

	pc, err := mp.setup(goal, start, opts)
	if err != nil {
		solutionChan <- &planReturn{err: err}
		return
	}
	mp.setPhase(PhaseRunning)

	// trivial query: the start already satisfies the goal
	if goal.Contains(start) {
		mp.setPhase(PhaseSucceeded)
		solutionChan <- &planReturn{plan: &Plan{
			Status: Succeeded,
			Path:   []spatial.Configuration{start},
			Cost:   0,
			Tree:   pc.tree,
		}}
		return
	}

	radius := opts.RewireRadius
	if radius == nil {
		radius = DefaultRewireRadius(opts.Bounds, opts.MaxStep)
	}

	// straight-line lower bound on solution cost, when the goal can provide
	// a representative point
	lowerBound := 0.
	if c, ok := goal.(centered); ok {
		lowerBound = spatial.Dist(start, c.Centroid())
	}

	var goalNodes []*Node
	logIteration := opts.PlanIter / 10
	cancelled := false
	for i := 1; i <= opts.PlanIter; i++ {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled || pc.overBudget() {
			break
		}

		target := pc.sampler.Sample(mp.randseed)
		n, err := mp.extend(pc, target)
		if err != nil {
			solutionChan <- &planReturn{err: err}
			return
		}
		if n == nil {
			continue
		}

		neighbors := pc.tree.Near(n.Q(), radius(pc.tree.Len()))
		if err := mp.chooseParent(pc, n, neighbors); err != nil {
			solutionChan <- &planReturn{err: err}
			return
		}
		if err := mp.rewireNeighbors(pc, n, neighbors); err != nil {
			solutionChan <- &planReturn{err: err}
			return
		}

		if goal.Contains(n.Q()) {
			goalNodes = append(goalNodes, n)
			if len(goalNodes) == 1 {
				mp.logger.Debugf("RRT* first solution after %d iterations with cost %.3f", i, n.Cost())
			}
		}

		// exit early once a solution is close enough to the lower bound
		if opts.OptimalityThreshold > 0 && lowerBound > 0 {
			if best := bestNode(goalNodes); best != nil && best.Cost()*opts.OptimalityThreshold <= lowerBound {
				break
			}
		}

		if logIteration > 0 && i%logIteration == 0 {
			mp.logger.Debugf("RRT* progress: %d%%\ttree size: %d\tbest cost: %.3f",
				100*i/opts.PlanIter, pc.tree.Len(), bestCost(goalNodes))
		}
	}

	best := bestNode(goalNodes)
	if best == nil {
		if cancelled {
			mp.setPhase(PhaseCancelled)
			solutionChan <- &planReturn{plan: &Plan{Status: Cancelled, Tree: pc.tree}}
			return
		}
		mp.setPhase(PhaseExhausted)
		solutionChan <- &planReturn{plan: &Plan{Status: Exhausted, Tree: pc.tree}}
		return
	}
	path, err := pc.tree.PathTo(best)
	if err != nil {
		solutionChan <- &planReturn{err: err}
		return
	}
	status := Succeeded
	phase := PhaseSucceeded
	if cancelled {
		// best-effort result found before cancellation
		status = Cancelled
		phase = PhaseCancelled
	}
	mp.setPhase(phase)
	solutionChan <- &planReturn{plan: &Plan{
		Status: status,
		Path:   path,
		Cost:   best.Cost(),
		Tree:   pc.tree,
	}}
}

// chooseParent reconnects n to the neighbor minimizing cost-through-neighbor,
// when that neighbor beats the parent n was added with and the connecting
// motion is valid. Validity checks for the candidate set run in a batch.
func (mp *rrtStarMotionPlanner) chooseParent(pc *planContext, n *Node, neighbors []*Node) error {
	candidates := make([]*Node, 0, len(neighbors))
	segments := make([]motionSegment, 0, len(neighbors))
	for _, nb := range neighbors {
		if nb == n || nb.id == n.parent {
			continue
		}
		candidates = append(candidates, nb)
		segments = append(segments, motionSegment{from: nb.Q(), to: n.Q()})
	}
	if len(candidates) == 0 {
		return nil
	}
	valid := mp.checkMotions(segments)

	bestCost := n.Cost()
	var bestParent *Node
	bestEdge := 0.
	for i, nb := range candidates {
		if !valid[i] {
			continue
		}
		edge := spatial.Dist(nb.Q(), n.Q())
		if edge <= pc.tol {
			continue
		}
		if c := nb.Cost() + edge; c < bestCost {
			bestCost = c
			bestParent = nb
			bestEdge = edge
		}
	}
	if bestParent == nil {
		return nil
	}
	return pc.tree.Rewire(n, bestParent, bestEdge)
}

// rewireNeighbors reroutes each neighbor through n when that lowers the
// neighbor's cost and the connecting motion is valid, propagating the saved
// cost to the neighbor's descendants.
func (mp *rrtStarMotionPlanner) rewireNeighbors(pc *planContext, n *Node, neighbors []*Node) error {
	for _, nb := range neighbors {
		if nb == n || nb.IsRoot() || nb.id == n.parent {
			continue
		}
		edge := spatial.Dist(n.Q(), nb.Q())
		if edge <= pc.tol {
			continue
		}
		if n.Cost()+edge >= nb.Cost() {
			continue
		}
		if !mp.checker.ValidMotion(n.Q(), nb.Q()) {
			continue
		}
		if err := pc.tree.Rewire(nb, n, edge); err != nil {
			return err
		}
	}
	return nil
}

func bestNode(goalNodes []*Node) *Node {
	var best *Node
	for _, n := range goalNodes {
		if best == nil || n.Cost() < best.Cost() {
			best = n
		}
	}
	return best
}

func bestCost(goalNodes []*Node) float64 {
	if best := bestNode(goalNodes); best != nil {
		return best.Cost()
	}
	return math.Inf(1)
}
