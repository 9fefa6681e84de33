package path_plan

import (
	"cmp"
	"math"
	"slices"

	"github.com/golang/geo/r2"
)

// collectObstacles builds this cycle's obstacle set from robots, ball and
// static field features, sorted by clearance from the predicted robot position.
func collectObstacles(in Snapshot, radii InfluenceRadii) []Obstacle {
	obstacles := make([]Obstacle, 0, len(in.Robots)+len(in.Field.GoalPosts)+2)
	obstacles = appendRobots(obstacles, in.Robots, radii)
	obstacles = appendBall(obstacles, in, radii)
	obstacles = appendStatic(obstacles, in, radii)
	slices.SortStableFunc(obstacles, byClearance(in.predictedPose().Translation))
	return obstacles
}

func appendRobots(obstacles []Obstacle, robots []RobotPercept, radii InfluenceRadii) []Obstacle {
	for _, r := range robots {
		if !finitePoint(r.Position) {
			continue
		}
		obstacles = append(obstacles, Obstacle{
			Position:   r.Position,
			Radius:     radii.radius(ObstacleRobot, r.Teammate),
			Type:       ObstacleRobot,
			IsTeammate: r.Teammate,
		})
	}
	return obstacles
}

// appendBall adds the ball only while game rules make it an obstacle.
func appendBall(obstacles []Obstacle, in Snapshot, radii InfluenceRadii) []Obstacle {
	if !in.BallIsObstacle || !in.Ball.Valid || !finitePoint(in.Ball.Position) {
		return obstacles
	}
	return append(obstacles, Obstacle{
		Position: in.Ball.Position,
		Radius:   radii.radius(ObstacleBall, false),
		Type:     ObstacleBall,
	})
}

func appendStatic(obstacles []Obstacle, in Snapshot, radii InfluenceRadii) []Obstacle {
	for _, post := range in.Field.GoalPosts {
		if !finitePoint(post) {
			continue
		}
		obstacles = append(obstacles, Obstacle{
			Position: post,
			Radius:   radii.radius(ObstacleGoalPost, false),
			Type:     ObstacleGoalPost,
		})
	}
	if in.CenterCircleIsObstacle && finitePoint(in.Field.CenterCircle) && finite(in.Field.CenterCircleRadius) {
		obstacles = append(obstacles, Obstacle{
			Position: in.Field.CenterCircle,
			Radius:   in.Field.CenterCircleRadius + radii.radius(ObstacleCenterCircle, false),
			Type:     ObstacleCenterCircle,
		})
	}
	return obstacles
}

// nonFinitePercepts counts the percepts collectObstacles had to drop because
// a coordinate was NaN or infinite.
func nonFinitePercepts(in Snapshot) int {
	n := 0
	for _, r := range in.Robots {
		if !finitePoint(r.Position) {
			n++
		}
	}
	for _, post := range in.Field.GoalPosts {
		if !finitePoint(post) {
			n++
		}
	}
	if in.BallIsObstacle && in.Ball.Valid && !finitePoint(in.Ball.Position) {
		n++
	}
	if in.CenterCircleIsObstacle && !(finitePoint(in.Field.CenterCircle) && finite(in.Field.CenterCircleRadius)) {
		n++
	}
	return n
}

// byClearance orders obstacles by distance from ref minus radius.
func byClearance(ref r2.Point) func(a, b Obstacle) int {
	return func(a, b Obstacle) int {
		return cmp.Compare(a.clearance(ref), b.clearance(ref))
	}
}

// closestObstacleDistance is the clearance of the nearest obstacle, +Inf if none.
func closestObstacleDistance(sorted []Obstacle, ref r2.Point) float64 {
	if len(sorted) == 0 {
		return math.Inf(1)
	}
	return sorted[0].clearance(ref)
}
