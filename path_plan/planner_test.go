package path_plan

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func plannerTestConfig() PlannerConfig {
	cfg := DefaultPlannerConfig()
	cfg.Radii = testRadii()
	return cfg
}

func newTestPlanner(t *testing.T, cfg PlannerConfig) *Planner {
	t.Helper()
	require.NoError(t, cfg.Validate())
	return NewPlanner(cfg, zaptest.NewLogger(t))
}

func snapshotTo(x, y float64, robots ...RobotPercept) Snapshot {
	return Snapshot{
		Pose:      NewPose2D(0, 0, 0),
		PoseValid: true,
		Robots:    robots,
		Request:   MotionRequest{Destination: NewPose2D(x, y, 0)},
	}
}

func opponent(x, y float64) RobotPercept {
	return RobotPercept{Position: r2.Point{X: x, Y: y}}
}

func TestPlannerDirectPathFarState(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	out := p.Step(snapshotTo(2000, 0))

	assert.Equal(t, StateFar, out.State)
	assert.True(t, out.Path.Clear)
	assert.False(t, out.Stabilized)
	assert.Empty(t, cmp.Diff(
		[]Pose2D{NewPose2D(0, 0, 0), NewPose2D(2000, 0, 0)},
		out.Path.WayPoints,
		cmpopts.EquateApprox(0, 1e-9),
	))
}

func TestPlannerDetourAroundOpponent(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	out := p.Step(snapshotTo(2000, 0, opponent(1000, 0)))

	assert.Equal(t, StateFar, out.State)
	require.Len(t, out.Path.WayPoints, 3)
	assert.True(t, out.Path.Clear)
	requireClear(t, out.Path.WayPoints, out.Obstacles)
	assert.Greater(t, out.Path.WayPoints[1].Translation.Y, 0.0)
	assert.InDelta(t, 700, out.ClosestObstacle, 1e-9)
}

func TestPlannerTargetStateSequence(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())

	steps := []struct {
		dest float64
		want State
	}{
		{1500, StateFar},
		{1200, StateFar},
		{999, StateTarget},
		{900, StateTarget},
		{1100, StateTarget},
		{1150, StateFar},
	}
	for _, step := range steps {
		out := p.Step(snapshotTo(step.dest, 0))
		assert.Equal(t, step.want, out.State, "dest=%v", step.dest)
		assert.Equal(t, step.want, p.State())
	}
}

func TestPlannerTargetKeepsDestinationRotation(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	in := snapshotTo(800, 0)
	in.Request.Destination.Rotation = math.Pi / 2

	out := p.Step(in)
	require.Equal(t, StateTarget, out.State)
	require.Len(t, out.Path.WayPoints, 2)
	assert.InDelta(t, 0, out.Path.WayPoints[0].Rotation, 1e-9)
	assert.InDelta(t, math.Pi/2, out.Path.WayPoints[1].Rotation, 1e-9)
}

func TestPlannerOmniLooksAtBall(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	in := snapshotTo(2000, 0, RobotPercept{Position: r2.Point{X: -400, Y: 0}, Teammate: true})
	ball := r2.Point{X: 0, Y: 1000}
	in.Request.LookAt = &ball

	out := p.Step(in)
	require.Equal(t, StateOmni, out.State)
	require.Len(t, out.Path.WayPoints, 2)
	assert.InDelta(t, math.Pi/2, out.Path.WayPoints[0].Rotation, 1e-9)
	assert.InDelta(t, math.Atan2(1000, -2000), out.Path.WayPoints[1].Rotation, 1e-9)
}

func TestPlannerIgnoresBallWhenNotObstacle(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	in := snapshotTo(2000, 0)
	in.Ball = BallEstimate{Position: r2.Point{X: 1000, Y: 0}, Valid: true}

	out := p.Step(in)
	assert.Empty(t, out.Obstacles)
	assert.Len(t, out.Path.WayPoints, 2)

	in.BallIsObstacle = true
	p.Reset()
	out = p.Step(in)
	require.Len(t, out.Obstacles, 1)
	assert.Len(t, out.Path.WayPoints, 3)
}

func TestPlannerStableForUnchangedInput(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	in := snapshotTo(2000, 0, opponent(1000, 0))

	first := p.Step(in)
	second := p.Step(in)

	assert.True(t, second.Stabilized)
	assert.Equal(t, first.Path.ID, second.Path.ID)
	assert.Empty(t, cmp.Diff(first.Path, second.Path))
}

func TestPlannerOutputDoesNotAliasRetainedPath(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	in := snapshotTo(2000, 0, opponent(1000, 0))

	first := p.Step(in)
	want := first.Path.WayPoints[1]
	first.Path.WayPoints[1] = NewPose2D(-1, -1, 0)

	second := p.Step(in)
	require.True(t, second.Stabilized)
	assert.Equal(t, want, second.Path.WayPoints[1])

	second.Path.WayPoints[1] = NewPose2D(-1, -1, 0)
	third := p.Step(in)
	require.True(t, third.Stabilized)
	assert.Equal(t, want, third.Path.WayPoints[1])
}

func TestPlannerDampsObstacleJitter(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	first := p.Step(snapshotTo(2000, 0, opponent(1000, 0)))
	require.Greater(t, first.Path.WayPoints[1].Translation.Y, 0.0)

	// a 5mm shift would flip a fresh path to the right side
	second := p.Step(snapshotTo(2000, 0, opponent(1000, 5)))
	assert.True(t, second.Stabilized)
	assert.Equal(t, first.Path.ID, second.Path.ID)
	assert.Greater(t, second.Path.WayPoints[1].Translation.Y, 0.0)
}

func TestPlannerReplacesPathCutByObstacle(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	first := p.Step(snapshotTo(2000, 0, opponent(1000, 0)))

	second := p.Step(snapshotTo(2000, 0, opponent(1000, 40)))
	assert.False(t, second.Stabilized)
	assert.NotEqual(t, first.Path.ID, second.Path.ID)
	assert.Less(t, second.Path.WayPoints[1].Translation.Y, 0.0)
	requireClear(t, second.Path.WayPoints, second.Obstacles)
}

func TestPlannerReplacesPathForNewDestination(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	first := p.Step(snapshotTo(2000, 0))
	second := p.Step(snapshotTo(2000, 300))

	assert.False(t, second.Stabilized)
	assert.NotEqual(t, first.Path.ID, second.Path.ID)
}

func TestPlannerWithoutStabilization(t *testing.T) {
	cfg := plannerTestConfig()
	cfg.StabilizePath = false
	p := newTestPlanner(t, cfg)

	first := p.Step(snapshotTo(2000, 0, opponent(1000, 0)))
	second := p.Step(snapshotTo(2000, 0, opponent(1000, 0)))
	assert.False(t, second.Stabilized)
	assert.NotEqual(t, first.Path.ID, second.Path.ID)
	assert.Empty(t, cmp.Diff(first.Path.WayPoints, second.Path.WayPoints))

	third := p.Step(snapshotTo(2000, 0, opponent(1000, 5)))
	assert.Less(t, third.Path.WayPoints[1].Translation.Y, 0.0)
}

func TestPlannerInvalidInputEmitsIdlePath(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())

	first := p.Step(snapshotTo(800, 0))
	require.Equal(t, StateTarget, first.State)

	in := snapshotTo(800, 0)
	in.PoseValid = false
	out := p.Step(in)
	assert.True(t, out.Path.Empty())
	assert.Equal(t, StateTarget, out.State)

	in = snapshotTo(math.NaN(), 0)
	out = p.Step(in)
	assert.True(t, out.Path.Empty())

	again := p.Step(snapshotTo(800, 0))
	assert.False(t, again.Stabilized)
	assert.NotEqual(t, first.Path.ID, again.Path.ID)
}

func TestPlannerIgnoresNonFinitePercepts(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	in := snapshotTo(2000, 0, opponent(math.NaN(), 0), opponent(0, 350), opponent(math.Inf(1), 100))
	in.Ball = BallEstimate{Position: r2.Point{X: 500, Y: math.NaN()}, Valid: true}
	in.BallIsObstacle = true

	out := p.Step(in)
	require.Len(t, out.Obstacles, 1)
	assert.InDelta(t, 50, out.ClosestObstacle, 1e-9)
	assert.Equal(t, StateOmni, out.State)
	assert.True(t, out.Path.Clear)
}

func goalAreaField() FieldGeometry {
	return FieldGeometry{
		OwnGoalArea: []r2.Point{
			{X: -4500, Y: -1100}, {X: -3900, Y: -1100},
			{X: -3900, Y: 1100}, {X: -4500, Y: 1100},
		},
	}
}

func TestPlannerKeeperInGoalAreaIsOmni(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	in := Snapshot{
		Pose:      NewPose2D(-4200, 0, 0),
		PoseValid: true,
		Field:     goalAreaField(),
		Request:   MotionRequest{Destination: NewPose2D(-4200, 500, 0), IsKeeper: true},
	}
	assert.Equal(t, StateOmni, p.Step(in).State)

	in.Request.IsKeeper = false
	assert.Equal(t, StateTarget, p.Step(in).State)

	cfg := plannerTestConfig()
	cfg.KeeperInGoalAreaOmniOnly = false
	p = newTestPlanner(t, cfg)
	in.Request.IsKeeper = true
	assert.Equal(t, StateTarget, p.Step(in).State)
}

func TestPlannerDetourAvoidsOwnGoalArea(t *testing.T) {
	p := newTestPlanner(t, plannerTestConfig())
	in := snapshotTo(2000, 0, opponent(1000, 0))
	in.Field = FieldGeometry{
		OwnGoalArea: []r2.Point{{X: 800, Y: 200}, {X: 1200, Y: 600}},
	}
	in.Request.AvoidOwnGoalArea = true

	out := p.Step(in)
	require.Len(t, out.Path.WayPoints, 3)
	assert.Less(t, out.Path.WayPoints[1].Translation.Y, 0.0)
	area, ok := in.Field.ownGoalArea()
	require.True(t, ok)
	requireOutsideArea(t, out.Path.WayPoints, area)

	// the keeper may enter its own goal area
	p.Reset()
	in.Request.IsKeeper = true
	out = p.Step(in)
	require.Len(t, out.Path.WayPoints, 3)
	assert.Greater(t, out.Path.WayPoints[1].Translation.Y, 0.0)
}
