package motionplan

import (
	"context"
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/treeplan/spatial"
)

// rrtMotionPlanner implements plain RRT: it returns the first path that
// reaches the goal region, with no cost refinement.
type rrtMotionPlanner struct {
	*planner
}

// NewRRTMotionPlanner creates an RRT planner with a fixed random seed.
func NewRRTMotionPlanner(checker Checker, logger golog.Logger) (MotionPlanner, error) {
	//nolint:gosec
	return NewRRTMotionPlannerWithSeed(checker, rand.New(rand.NewSource(1)), logger)
}

// NewRRTMotionPlannerWithSeed creates an RRT planner with a user specified
// random seed. Identical seeds and inputs produce identical trees and paths.
func NewRRTMotionPlannerWithSeed(checker Checker, seed *rand.Rand, logger golog.Logger) (MotionPlanner, error) {
	if checker == nil {
		return nil, errors.New("a validity checker is required")
	}
	return &rrtMotionPlanner{newPlanner(checker, seed, logger)}, nil
}

func (mp *rrtMotionPlanner) Plan(
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
func (mp *rrtMotionPlanner) planRunner(
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

	logIteration := opts.PlanIter / 10
	for i := 1; i <= opts.PlanIter; i++ {
		select {
		case <-ctx.Done():
			mp.setPhase(PhaseCancelled)
			solutionChan <- &planReturn{plan: &Plan{Status: Cancelled, Tree: pc.tree}}
			return
		default:
		}
		if pc.overBudget() {
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
		if goal.Contains(n.Q()) {
			path, err := pc.tree.PathTo(n)
			if err != nil {
				solutionChan <- &planReturn{err: err}
				return
			}
			mp.setPhase(PhaseSucceeded)
			mp.logger.Debugf("RRT solved after %d iterations with cost %.3f", i, n.Cost())
			solutionChan <- &planReturn{plan: &Plan{
				Status: Succeeded,
				Path:   path,
				Cost:   n.Cost(),
				Tree:   pc.tree,
			}}
			return
		}

		if logIteration > 0 && i%logIteration == 0 {
			mp.logger.Debugf("RRT progress: %d%%\ttree size: %d", 100*i/opts.PlanIter, pc.tree.Len())
		}
	}

	mp.setPhase(PhaseExhausted)
	solutionChan <- &planReturn{plan: &Plan{Status: Exhausted, Tree: pc.tree}}
}
