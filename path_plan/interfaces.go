package path_plan

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
)

// Pose2D is a field position in millimeters plus a rotation in radians.
type Pose2D struct {
	Translation r2.Point `json:"translation" yaml:"translation"`
	Rotation    float64  `json:"rotation" yaml:"rotation"`
}

// NewPose2D builds a pose from raw coordinates.
func NewPose2D(x, y, rot float64) Pose2D {
	return Pose2D{Translation: r2.Point{X: x, Y: y}, Rotation: rot}
}

// finite reports whether every component is a real number.
func (p Pose2D) finite() bool {
	return finite(p.Translation.X) && finite(p.Translation.Y) && finite(p.Rotation)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ObstacleType is the closed set of obstacle kinds the planner avoids.
type ObstacleType int

const (
	ObstacleBall ObstacleType = iota + 1
	ObstacleGoalPost
	ObstacleRobot
	ObstacleCenterCircle
)

func (t ObstacleType) String() string {
	switch t {
	case ObstacleBall:
		return "BALL"
	case ObstacleGoalPost:
		return "GOAL_POST"
	case ObstacleRobot:
		return "ROBOT"
	case ObstacleCenterCircle:
		return "CENTER_CIRCLE"
	default:
		return fmt.Sprintf("ObstacleType(%d)", int(t))
	}
}

// Obstacle is a circular exclusion zone. Radius is the clearance a path must
// keep from Position, not the physical size of the object.
type Obstacle struct {
	Position   r2.Point
	Radius     float64
	Type       ObstacleType
	IsTeammate bool
}

// clearance is the distance from p to the edge of the exclusion zone.
// Negative when p lies inside it.
func (o Obstacle) clearance(p r2.Point) float64 {
	return p.Sub(o.Position).Norm() - o.Radius
}

// contains reports whether p lies strictly inside the exclusion zone.
func (o Obstacle) contains(p r2.Point) bool {
	return p.Sub(o.Position).Norm() < o.Radius
}

// State selects the locomotion regime the path is shaped for.
type State int

const (
	StateFar State = iota + 1
	StateTarget
	StateOmni
)

func (s State) String() string {
	switch s {
	case StateFar:
		return "FAR"
	case StateTarget:
		return "TARGET"
	case StateOmni:
		return "OMNI"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState converts a state name into a State enum.
func ParseState(value string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "FAR":
		return StateFar, nil
	case "TARGET":
		return StateTarget, nil
	case "OMNI":
		return StateOmni, nil
	default:
		return StateFar, fmt.Errorf("unknown state %q", value)
	}
}

// MarshalJSON writes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts state names.
func (s *State) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	parsed, err := ParseState(*raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Path is a committed waypoint sequence. It is replaced wholesale, never
// edited after it has been returned from Step.
type Path struct {
	ID        uuid.UUID
	WayPoints []Pose2D
	State     State
	// Clear is false when at least one segment still cuts an exclusion zone.
	Clear bool
}

// Empty reports whether the path carries no waypoints.
func (p Path) Empty() bool {
	return len(p.WayPoints) == 0
}

// Destination returns the last waypoint.
func (p Path) Destination() (Pose2D, bool) {
	if p.Empty() {
		return Pose2D{}, false
	}
	return p.WayPoints[len(p.WayPoints)-1], true
}

// points returns the waypoint translations.
func (p Path) points() []r2.Point {
	pts := make([]r2.Point, len(p.WayPoints))
	for i, wp := range p.WayPoints {
		pts[i] = wp.Translation
	}
	return pts
}

// RobotPercept is another robot seen by the world model.
type RobotPercept struct {
	Position r2.Point `json:"position"`
	Teammate bool     `json:"teammate"`
}

// BallEstimate is the latency-compensated ball position.
type BallEstimate struct {
	Position r2.Point `json:"position"`
	Valid    bool     `json:"valid"`
}

// FieldGeometry holds the static obstacles and zones of the field.
type FieldGeometry struct {
	GoalPosts          []r2.Point `json:"goal_posts" yaml:"goal_posts"`
	CenterCircle       r2.Point   `json:"center_circle" yaml:"center_circle"`
	CenterCircleRadius float64    `json:"center_circle_radius" yaml:"center_circle_radius"`
	// OwnGoalArea holds the four corners of the own goal area.
	OwnGoalArea []r2.Point `json:"own_goal_area" yaml:"own_goal_area"`
}

// ownGoalArea returns the own goal area as a rectangle. ok is false when the
// field geometry does not describe one.
func (f FieldGeometry) ownGoalArea() (r2.Rect, bool) {
	if len(f.OwnGoalArea) == 0 {
		return r2.EmptyRect(), false
	}
	return r2.RectFromPoints(f.OwnGoalArea...), true
}

// MotionRequest is what behavior control asks the planner for.
type MotionRequest struct {
	Destination      Pose2D `json:"destination"`
	AvoidOwnGoalArea bool   `json:"avoid_own_goal_area"`
	IsKeeper         bool   `json:"is_keeper"`
	// LookAt, when set, is the point the robot faces while moving omnidirectionally.
	LookAt *r2.Point `json:"look_at,omitempty"`
}

// Snapshot is every input one planning cycle needs. It is treated as
// immutable while Step runs.
type Snapshot struct {
	T                      float64        `json:"t"`
	Pose                   Pose2D         `json:"pose"`
	PoseAfterPreview       *Pose2D        `json:"pose_after_preview,omitempty"`
	PoseValid              bool           `json:"pose_valid"`
	Ball                   BallEstimate   `json:"ball"`
	BallIsObstacle         bool           `json:"ball_is_obstacle"`
	Robots                 []RobotPercept `json:"robots"`
	Field                  FieldGeometry  `json:"field"`
	CenterCircleIsObstacle bool           `json:"center_circle_is_obstacle"`
	Request                MotionRequest  `json:"request"`
}

// predictedPose is the latency-compensated pose, falling back to the
// measured pose when no preview was supplied.
func (in Snapshot) predictedPose() Pose2D {
	if in.PoseAfterPreview != nil {
		return *in.PoseAfterPreview
	}
	return in.Pose
}

// Output is the planner result for one cycle.
type Output struct {
	T     float64
	Path  Path
	State State
	// Stabilized is true when the previous path was kept.
	Stabilized      bool
	Obstacles       []Obstacle
	ClosestObstacle float64
}
