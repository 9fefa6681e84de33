package path_plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// InfluenceRadii are the exclusion radii per obstacle type, in millimeters.
type InfluenceRadii struct {
	Ball         float64 `json:"ball" yaml:"ball"`
	GoalPost     float64 `json:"goal_post" yaml:"goal_post"`
	Robot        float64 `json:"robot" yaml:"robot"`
	TeamRobot    float64 `json:"team_robot" yaml:"team_robot"`
	CenterCircle float64 `json:"center_circle" yaml:"center_circle"`
}

// radius looks up the configured radius for an obstacle type.
func (r InfluenceRadii) radius(t ObstacleType, teammate bool) float64 {
	switch t {
	case ObstacleBall:
		return r.Ball
	case ObstacleGoalPost:
		return r.GoalPost
	case ObstacleRobot:
		if teammate {
			return r.TeamRobot
		}
		return r.Robot
	case ObstacleCenterCircle:
		return r.CenterCircle
	default:
		return 0
	}
}

// StabilizerConfig bounds how far the previous path may drift before it is replaced.
type StabilizerConfig struct {
	DestinationTolerance float64 `json:"destination_tolerance" yaml:"destination_tolerance"`
	AngleTolerance       float64 `json:"angle_tolerance" yaml:"angle_tolerance"`
	PoseTolerance        float64 `json:"pose_tolerance" yaml:"pose_tolerance"`
	LengthSlack          float64 `json:"length_slack" yaml:"length_slack"`
	LengthSlackAbs       float64 `json:"length_slack_abs" yaml:"length_slack_abs"`
}

// PlannerConfig bundles the planner parameters.
type PlannerConfig struct {
	Radii InfluenceRadii `json:"influence_radii" yaml:"influence_radii"`

	TargetSwitchDistance   float64 `json:"target_switch_distance" yaml:"target_switch_distance"`
	TargetSwitchHysteresis float64 `json:"target_switch_hysteresis" yaml:"target_switch_hysteresis"`
	OmniSwitchDistance     float64 `json:"omni_switch_distance" yaml:"omni_switch_distance"`
	OmniSwitchHysteresis   float64 `json:"omni_switch_hysteresis" yaml:"omni_switch_hysteresis"`

	KeeperInGoalAreaOmniOnly bool `json:"keeper_in_goal_area_omni_only" yaml:"keeper_in_goal_area_omni_only"`
	StabilizePath            bool `json:"stabilize_path" yaml:"stabilize_path"`

	DetourMargin    float64 `json:"detour_margin" yaml:"detour_margin"`
	MaxDetourFactor float64 `json:"max_detour_factor" yaml:"max_detour_factor"`
	MaxIterations   int     `json:"max_iterations" yaml:"max_iterations"`
	MaxWaypoints    int     `json:"max_waypoints" yaml:"max_waypoints"`

	Stabilizer StabilizerConfig `json:"stabilizer" yaml:"stabilizer"`
}

// DefaultPlannerConfig returns values suited to a standard-platform field.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		Radii: InfluenceRadii{
			Ball:         200,
			GoalPost:     250,
			Robot:        400,
			TeamRobot:    350,
			CenterCircle: 200,
		},
		TargetSwitchDistance:     1000,
		TargetSwitchHysteresis:   100,
		OmniSwitchDistance:       200,
		OmniSwitchHysteresis:     100,
		KeeperInGoalAreaOmniOnly: true,
		StabilizePath:            true,
		DetourMargin:             20,
		MaxDetourFactor:          4,
		MaxIterations:            16,
		MaxWaypoints:             8,
		Stabilizer: StabilizerConfig{
			DestinationTolerance: 50,
			AngleTolerance:       0.1,
			PoseTolerance:        150,
			LengthSlack:          0.15,
			LengthSlackAbs:       100,
		},
	}
}

// Validate reports every out-of-range parameter at once.
func (c PlannerConfig) Validate() error {
	var err error
	radii := map[string]float64{
		"ball":          c.Radii.Ball,
		"goal_post":     c.Radii.GoalPost,
		"robot":         c.Radii.Robot,
		"team_robot":    c.Radii.TeamRobot,
		"center_circle": c.Radii.CenterCircle,
	}
	for _, name := range []string{"ball", "goal_post", "robot", "team_robot", "center_circle"} {
		if radii[name] < 0 {
			err = multierr.Append(err, fmt.Errorf("influence_radii.%s must be >= 0, got %v", name, radii[name]))
		}
	}
	if c.TargetSwitchDistance < 0 {
		err = multierr.Append(err, fmt.Errorf("target_switch_distance must be >= 0, got %v", c.TargetSwitchDistance))
	}
	if c.TargetSwitchHysteresis <= 0 {
		err = multierr.Append(err, fmt.Errorf("target_switch_hysteresis must be > 0, got %v", c.TargetSwitchHysteresis))
	}
	if c.OmniSwitchDistance < 0 {
		err = multierr.Append(err, fmt.Errorf("omni_switch_distance must be >= 0, got %v", c.OmniSwitchDistance))
	}
	if c.OmniSwitchHysteresis <= 0 {
		err = multierr.Append(err, fmt.Errorf("omni_switch_hysteresis must be > 0, got %v", c.OmniSwitchHysteresis))
	}
	if c.DetourMargin < 0 {
		err = multierr.Append(err, fmt.Errorf("detour_margin must be >= 0, got %v", c.DetourMargin))
	}
	if c.MaxDetourFactor < 1 {
		err = multierr.Append(err, fmt.Errorf("max_detour_factor must be >= 1, got %v", c.MaxDetourFactor))
	}
	if c.MaxIterations < 1 {
		err = multierr.Append(err, fmt.Errorf("max_iterations must be >= 1, got %d", c.MaxIterations))
	}
	if c.MaxWaypoints < 2 {
		err = multierr.Append(err, fmt.Errorf("max_waypoints must be >= 2, got %d", c.MaxWaypoints))
	}
	s := c.Stabilizer
	if s.DestinationTolerance < 0 || s.AngleTolerance < 0 || s.PoseTolerance < 0 || s.LengthSlack < 0 || s.LengthSlackAbs < 0 {
		err = multierr.Append(err, errors.New("stabilizer tolerances must be >= 0"))
	}
	return err
}

// LiveConfig controls UDP input settings for world snapshots.
type LiveConfig struct {
	UDPAddr    string `json:"udp_addr" yaml:"udp_addr"`
	ReadBuffer int    `json:"read_buffer" yaml:"read_buffer"`
	// HoldSeconds is how long a snapshot is planned on before it counts as missing.
	HoldSeconds float64 `json:"hold_seconds" yaml:"hold_seconds"`
}

// OutputConfig controls UDP output settings for committed paths.
type OutputConfig struct {
	UDPAddr string `json:"udp_addr" yaml:"udp_addr"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	// Cycles logs one line per planning cycle at debug level.
	Cycles bool `json:"cycles" yaml:"cycles"`
}

// AppConfig aggregates all configuration sections.
type AppConfig struct {
	Hz      float64       `json:"hz" yaml:"hz"`
	Planner PlannerConfig `json:"planner" yaml:"planner"`
	Live    LiveConfig    `json:"live" yaml:"live"`
	Output  OutputConfig  `json:"output" yaml:"output"`
	Viz     VizConfig     `json:"viz" yaml:"viz"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// DefaultAppConfig returns a config that runs with no file at all.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Hz:      60,
		Planner: DefaultPlannerConfig(),
		Live:    LiveConfig{UDPAddr: "127.0.0.1:7400", ReadBuffer: 65536, HoldSeconds: 0.25},
		Log:     LogConfig{Level: "info"},
	}
}

// Validate checks the sections the runner depends on.
func (c AppConfig) Validate() error {
	var err error
	if c.Hz <= 0 {
		err = multierr.Append(err, fmt.Errorf("hz must be > 0, got %v", c.Hz))
	}
	if c.Live.UDPAddr == "" {
		err = multierr.Append(err, errors.New("live.udp_addr must be set"))
	}
	if c.Live.HoldSeconds <= 0 {
		err = multierr.Append(err, fmt.Errorf("live.hold_seconds must be > 0, got %v", c.Live.HoldSeconds))
	}
	return multierr.Append(err, c.Planner.Validate())
}

// LoadConfig reads a JSON or YAML config from disk on top of the defaults.
func LoadConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension %q", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
