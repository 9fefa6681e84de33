package path_plan

import (
	"expvar"
	"math"
	"net/http"

	"go.uber.org/zap"
)

// VizConfig controls the optional expvar endpoint.
type VizConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

// VizMetrics exposes live input/output values via expvar.
type VizMetrics struct {
	input  *expvar.Map
	output *expvar.Map
	cycles *expvar.Int
	kept   *expvar.Int
	idle   *expvar.Int
}

// StartViz starts an HTTP server exposing /debug/vars. Server failures are
// reported through logger.
func StartViz(cfg VizConfig, logger *zap.Logger) (*VizMetrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:7070"
	}

	metrics := &VizMetrics{
		input:  expvar.NewMap("planner_input"),
		output: expvar.NewMap("planner_output"),
		cycles: expvar.NewInt("planner_cycles"),
		kept:   expvar.NewInt("planner_paths_kept"),
		idle:   expvar.NewInt("planner_idle_cycles"),
	}

	server := &http.Server{Addr: cfg.Addr, Handler: http.DefaultServeMux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("viz server error", zap.String("addr", cfg.Addr), zap.Error(err))
		}
	}()

	return metrics, nil
}

// UpdateInput publishes the latest snapshot summary.
func (v *VizMetrics) UpdateInput(in Snapshot) {
	if v == nil {
		return
	}
	setFloat(v.input, "robots", float64(len(in.Robots)))
	setFloat(v.input, "dest_x", in.Request.Destination.Translation.X)
	setFloat(v.input, "dest_y", in.Request.Destination.Translation.Y)
	setFloat(v.input, "ball_is_obstacle", boolFloat(in.BallIsObstacle))
	setFloat(v.input, "pose_valid", boolFloat(in.PoseValid))
}

// UpdateOutput publishes the latest planner output.
func (v *VizMetrics) UpdateOutput(out Output) {
	if v == nil {
		return
	}
	v.cycles.Add(1)
	if out.Stabilized {
		v.kept.Add(1)
	}
	if out.Path.Empty() {
		v.idle.Add(1)
	}
	setFloat(v.output, "state", float64(out.State))
	setFloat(v.output, "waypoints", float64(len(out.Path.WayPoints)))
	setFloat(v.output, "clear", boolFloat(out.Path.Clear))
	setFloat(v.output, "obstacles", float64(len(out.Obstacles)))
	closest := out.ClosestObstacle
	if math.IsInf(closest, 0) {
		closest = -1
	}
	setFloat(v.output, "closest_obstacle", closest)
}

// setFloat updates an expvar.Float stored inside a map.
func setFloat(m *expvar.Map, key string, value float64) {
	if v := m.Get(key); v != nil {
		if f, ok := v.(*expvar.Float); ok {
			f.Set(value)
			return
		}
	}
	f := new(expvar.Float)
	f.Set(value)
	m.Set(key, f)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
