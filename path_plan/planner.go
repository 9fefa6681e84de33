package path_plan

import (
	"go.uber.org/zap"
)

// Planner is the local path planner. It is stepped once per control cycle
// and owns the previous path and state between cycles. It is not safe for
// concurrent use.
type Planner struct {
	Cfg    PlannerConfig
	logger *zap.Logger

	selector   *stateSelector
	stabilizer *stabilizer
	state      State
}

// NewPlanner constructs a planner with the given configuration. A nil logger
// disables logging.
func NewPlanner(cfg PlannerConfig, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		Cfg:        cfg,
		logger:     logger,
		selector:   newStateSelector(),
		stabilizer: &stabilizer{cfg: cfg.Stabilizer, enabled: cfg.StabilizePath},
		state:      StateFar,
	}
}

// State returns the state committed by the last Step.
func (p *Planner) State() State {
	return p.state
}

// Step plans one cycle.
func (p *Planner) Step(in Snapshot) Output {
	if !validSnapshot(in) {
		p.logger.Warn("invalid planner input, emitting idle path",
			zap.Float64("t", in.T),
			zap.Bool("pose_valid", in.PoseValid),
		)
		p.stabilizer.reset()
		return Output{T: in.T, Path: Path{State: p.state}, State: p.state}
	}

	if n := nonFinitePercepts(in); n > 0 {
		p.logger.Debug("dropping non-finite percepts", zap.Int("count", n))
	}
	obstacles := collectObstacles(in, p.Cfg.Radii)
	predicted := in.predictedPose().Translation
	closest := closestObstacleDistance(obstacles, predicted)
	destDist := in.Request.Destination.Translation.Sub(predicted).Norm()

	state := p.selector.update(destDist, closest, p.keeperOmniOnly(in), p.Cfg)
	if state != p.state {
		p.logger.Debug("planner state change",
			zap.Stringer("from", p.state),
			zap.Stringer("to", state),
			zap.Float64("dest_dist", destDist),
			zap.Float64("closest_obstacle", closest),
		)
		p.state = state
	}

	builder := &pathBuilder{cfg: p.Cfg, obstacles: obstacles}
	if p.notAllowedInGoalArea(in) {
		builder.forbidden, builder.hasForbidden = in.Field.ownGoalArea()
	}
	wayPoints, clearPath := buildPath(builder, in.Pose.Translation, in.Request.Destination, state, in.Request.LookAt)
	if !clearPath {
		p.logger.Debug("no obstacle-free path, using best effort",
			zap.Int("waypoints", len(wayPoints)),
			zap.Int("obstacles", len(obstacles)),
		)
	}

	previous := p.stabilizer.last
	path, kept := p.stabilizer.commit(Path{WayPoints: wayPoints, State: state, Clear: clearPath}, in.Pose.Translation, obstacles)
	if !kept && !previous.Empty() {
		p.logger.Debug("path replaced",
			zap.Stringer("id", path.ID),
			zap.Float64("deviation", pathDeviation(previous, path)),
		)
	}

	return Output{
		T:               in.T,
		Path:            path,
		State:           state,
		Stabilized:      kept,
		Obstacles:       obstacles,
		ClosestObstacle: closest,
	}
}

// Reset drops the previous path and returns to the far state.
func (p *Planner) Reset() {
	p.selector.reset()
	p.stabilizer.reset()
	p.state = StateFar
}

// keeperOmniOnly reports whether the keeper rule pins the state to omni.
func (p *Planner) keeperOmniOnly(in Snapshot) bool {
	if !p.Cfg.KeeperInGoalAreaOmniOnly || !in.Request.IsKeeper {
		return false
	}
	area, ok := in.Field.ownGoalArea()
	return ok && area.ContainsPoint(in.Pose.Translation)
}

// notAllowedInGoalArea reports whether detours must stay out of the own goal area.
func (p *Planner) notAllowedInGoalArea(in Snapshot) bool {
	return in.Request.AvoidOwnGoalArea && !in.Request.IsKeeper
}

func validSnapshot(in Snapshot) bool {
	return in.PoseValid &&
		in.Pose.finite() &&
		in.predictedPose().finite() &&
		in.Request.Destination.finite()
}
