package motionplan

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/viam-labs/treeplan/space"
	"github.com/viam-labs/treeplan/spatial"
)

// verifyPath checks that every consecutive pair of an extracted path passes
// the motion validity check.
func verifyPath(t *testing.T, checker Checker, path []spatial.Configuration) {
	t.Helper()
	test.That(t, path, test.ShouldNotBeEmpty)
	for i := 0; i+1 < len(path); i++ {
		test.That(t, checker.ValidMotion(path[i], path[i+1]), test.ShouldBeTrue)
	}
}

func pathCost(path []spatial.Configuration) float64 {
	cost := 0.
	for i := 0; i+1 < len(path); i++ {
		cost += spatial.Dist(path[i], path[i+1])
	}
	return cost
}

// enclosedSpace returns a workspace whose start chamber around (50,50) is
// walled in on all four sides, making anything outside it unreachable.
func enclosedSpace(t *testing.T) *space.WallSpace {
	t.Helper()
	ws, err := space.NewWallSpace(spatial.NewBoundsFromExtents(100, 100),
		[2]spatial.Configuration{{40, 40}, {60, 42}},
		[2]spatial.Configuration{{40, 58}, {60, 60}},
		[2]spatial.Configuration{{40, 40}, {42, 60}},
		[2]spatial.Configuration{{58, 40}, {60, 60}},
	)
	test.That(t, err, test.ShouldBeNil)
	return ws
}

func TestPlanOpenSpace(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := spatial.NewBoundsFromExtents(100, 100)
	ws, err := space.NewEmptySpace(bounds)
	test.That(t, err, test.ShouldBeNil)

	//nolint:gosec
	mp, err := NewRRTMotionPlannerWithSeed(ws, rand.New(rand.NewSource(1)), logger)
	test.That(t, err, test.ShouldBeNil)

	opts := NewPlannerOptions(bounds)
	opts.MaxStep = 5
	opts.GoalBias = 0.1
	opts.PlanIter = 5000

	start := spatial.Configuration{0, 0}
	goal := spatial.NewBallGoal(spatial.Configuration{100, 100}, 5)
	plan, err := mp.Plan(context.Background(), goal, start, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Status, test.ShouldEqual, Succeeded)
	test.That(t, plan.Path[0], test.ShouldResemble, start)
	test.That(t, goal.Contains(plan.Path[len(plan.Path)-1]), test.ShouldBeTrue)

	// the solution should be within a small factor of the ~141.4 straight line
	test.That(t, plan.Cost, test.ShouldBeGreaterThan, 130.)
	test.That(t, plan.Cost, test.ShouldBeLessThan, 350.)
	test.That(t, plan.Cost, test.ShouldAlmostEqual, pathCost(plan.Path), 1e-6)

	verifyPath(t, ws, plan.Path)
	verifyTree(t, plan.Tree)
}

func TestPlanStartInGoal(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := spatial.NewBoundsFromExtents(100, 100)
	ws, err := space.NewEmptySpace(bounds)
	test.That(t, err, test.ShouldBeNil)

	start := spatial.Configuration{50, 50}
	goal := spatial.NewBallGoal(spatial.Configuration{51, 51}, 5)
	opts := NewPlannerOptions(bounds)

	for _, newPlanner := range []func(Checker, golog.Logger) (MotionPlanner, error){
		NewRRTMotionPlanner,
		NewRRTStarMotionPlanner,
	} {
		mp, err := newPlanner(ws, logger)
		test.That(t, err, test.ShouldBeNil)
		plan, err := mp.Plan(context.Background(), goal, start, opts)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, plan.Status, test.ShouldEqual, Succeeded)
		test.That(t, plan.Path, test.ShouldResemble, []spatial.Configuration{start})
		test.That(t, plan.Cost, test.ShouldEqual, 0)
	}
}

func TestPlanBlockedExhausted(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ws := enclosedSpace(t)

	//nolint:gosec
	mp, err := NewRRTMotionPlannerWithSeed(ws, rand.New(rand.NewSource(2)), logger)
	test.That(t, err, test.ShouldBeNil)

	opts := NewPlannerOptions(ws.Bounds())
	opts.MaxStep = 5
	opts.PlanIter = 10

	plan, err := mp.Plan(context.Background(), spatial.NewBallGoal(spatial.Configuration{90, 90}, 3), spatial.Configuration{50, 50}, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Status, test.ShouldEqual, Exhausted)
	test.That(t, plan.Path, test.ShouldBeNil)
	test.That(t, plan.Tree, test.ShouldNotBeNil)
}

func TestPlanDeterminism(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := spatial.NewBoundsFromExtents(50, 50)
	ws, err := space.NewEmptySpace(bounds)
	test.That(t, err, test.ShouldBeNil)

	goal := spatial.NewBallGoal(spatial.Configuration{45, 45}, 2)
	start := spatial.Configuration{5, 5}

	runOnce := func() *Plan {
		//nolint:gosec
		mp, err := NewRRTMotionPlannerWithSeed(ws, rand.New(rand.NewSource(99)), logger)
		test.That(t, err, test.ShouldBeNil)
		opts := NewPlannerOptions(bounds)
		opts.MaxStep = 5
		opts.GoalBias = 0.1
		opts.PlanIter = 4000
		plan, err := mp.Plan(context.Background(), goal, start, opts)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, plan.Status, test.ShouldEqual, Succeeded)
		return plan
	}

	plan1 := runOnce()
	plan2 := runOnce()
	test.That(t, plan1.Path, test.ShouldResemble, plan2.Path)
	test.That(t, plan1.Cost, test.ShouldEqual, plan2.Cost)
	test.That(t, plan1.Tree.Len(), test.ShouldEqual, plan2.Tree.Len())
}

type countingSampler struct {
	base    spatial.Sampler
	samples int
}

func (s *countingSampler) Sample(r *rand.Rand) spatial.Configuration {
	s.samples++
	return s.base.Sample(r)
}

func TestPlanIterationBudget(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ws := enclosedSpace(t)

	//nolint:gosec
	mp, err := NewRRTMotionPlannerWithSeed(ws, rand.New(rand.NewSource(3)), logger)
	test.That(t, err, test.ShouldBeNil)

	opts := NewPlannerOptions(ws.Bounds())
	opts.MaxStep = 5
	opts.PlanIter = 25
	sampler := &countingSampler{base: spatial.NewUniformSampler(ws.Bounds())}
	opts.Sampler = sampler

	plan, err := mp.Plan(context.Background(), spatial.NewBallGoal(spatial.Configuration{90, 90}, 3), spatial.Configuration{50, 50}, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Status, test.ShouldEqual, Exhausted)
	// one extension attempt per iteration, never more than the budget
	test.That(t, sampler.samples, test.ShouldEqual, 25)
}

func TestPlannerPhases(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := spatial.NewBoundsFromExtents(100, 100)
	ws, err := space.NewEmptySpace(bounds)
	test.That(t, err, test.ShouldBeNil)

	mp, err := NewRRTMotionPlanner(ws, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.Phase(), test.ShouldEqual, PhaseInitialized)

	opts := NewPlannerOptions(bounds)
	opts.MaxStep = 5
	opts.GoalBias = 0.1
	plan, err := mp.Plan(context.Background(), spatial.NewBallGoal(spatial.Configuration{90, 90}, 5), spatial.Configuration{0, 0}, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Status, test.ShouldEqual, Succeeded)
	test.That(t, mp.Phase(), test.ShouldEqual, PhaseSucceeded)
	test.That(t, mp.Phase().String(), test.ShouldEqual, "Succeeded")

	blocked := enclosedSpace(t)
	bp, err := NewRRTMotionPlanner(blocked, logger)
	test.That(t, err, test.ShouldBeNil)
	blockedOpts := NewPlannerOptions(blocked.Bounds())
	blockedOpts.MaxStep = 5
	blockedOpts.PlanIter = 10
	plan, err = bp.Plan(context.Background(), spatial.NewBallGoal(spatial.Configuration{90, 90}, 3), spatial.Configuration{50, 50}, blockedOpts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Status, test.ShouldEqual, Exhausted)
	test.That(t, bp.Phase(), test.ShouldEqual, PhaseExhausted)

	cp, err := NewRRTStarMotionPlanner(ws, logger)
	test.That(t, err, test.ShouldBeNil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan, err = cp.Plan(ctx, spatial.NewBallGoal(spatial.Configuration{90, 90}, 5), spatial.Configuration{0, 0}, NewPlannerOptions(bounds))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Status, test.ShouldEqual, Cancelled)
	test.That(t, cp.Phase(), test.ShouldEqual, PhaseCancelled)
}

func TestPlanCancelled(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := spatial.NewBoundsFromExtents(100, 100)
	ws, err := space.NewEmptySpace(bounds)
	test.That(t, err, test.ShouldBeNil)

	mp, err := NewRRTMotionPlanner(ws, logger)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := NewPlannerOptions(bounds)
	plan, err := mp.Plan(ctx, spatial.NewBallGoal(spatial.Configuration{90, 90}, 5), spatial.Configuration{0, 0}, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Status, test.ShouldEqual, Cancelled)
	test.That(t, plan.Path, test.ShouldBeNil)
}

func TestPlanTimeBudget(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ws := enclosedSpace(t)

	//nolint:gosec
	mp, err := NewRRTMotionPlannerWithSeed(ws, rand.New(rand.NewSource(4)), logger)
	test.That(t, err, test.ShouldBeNil)

	mock := clock.NewMock()
	opts := NewPlannerOptions(ws.Bounds())
	opts.MaxStep = 5
	opts.PlanIter = 500000
	opts.Timeout = 1.0
	opts.Clock = mock

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(5 * time.Millisecond)
		mock.Add(2 * time.Second)
	}()

	plan, err := mp.Plan(context.Background(), spatial.NewBallGoal(spatial.Configuration{90, 90}, 3), spatial.Configuration{50, 50}, opts)
	<-done
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Status, test.ShouldEqual, Exhausted)
}

func TestPlanConfigurationErrors(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := spatial.NewBoundsFromExtents(100, 100)
	ws, err := space.NewEmptySpace(bounds)
	test.That(t, err, test.ShouldBeNil)

	_, err = NewRRTMotionPlanner(nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRRTStarMotionPlanner(nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	mp, err := NewRRTMotionPlanner(ws, logger)
	test.That(t, err, test.ShouldBeNil)
	goal := spatial.NewBallGoal(spatial.Configuration{90, 90}, 5)

	// missing options
	plan, err := mp.Plan(context.Background(), goal, spatial.Configuration{0, 0}, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, plan, test.ShouldBeNil)

	// dimension mismatch
	plan, err = mp.Plan(context.Background(), goal, spatial.Configuration{0, 0, 0}, NewPlannerOptions(bounds))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, plan, test.ShouldBeNil)

	// missing goal
	plan, err = mp.Plan(context.Background(), nil, spatial.Configuration{0, 0}, NewPlannerOptions(bounds))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, plan, test.ShouldBeNil)

	// goal region dimension mismatch
	badGoal := spatial.NewBallGoal(spatial.Configuration{90, 90, 90}, 5)
	plan, err = mp.Plan(context.Background(), badGoal, spatial.Configuration{0, 0}, NewPlannerOptions(bounds))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, plan, test.ShouldBeNil)

	smp, err := NewRRTStarMotionPlanner(ws, logger)
	test.That(t, err, test.ShouldBeNil)
	plan, err = smp.Plan(context.Background(), badGoal, spatial.Configuration{0, 0}, NewPlannerOptions(bounds))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, plan, test.ShouldBeNil)

	// invalid start state
	plan, err = mp.Plan(context.Background(), goal, spatial.Configuration{-5, -5}, NewPlannerOptions(bounds))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, plan, test.ShouldBeNil)

	// rejected options
	opts := NewPlannerOptions(bounds)
	opts.GoalBias = 2
	plan, err = mp.Plan(context.Background(), goal, spatial.Configuration{0, 0}, opts)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, plan, test.ShouldBeNil)
}
