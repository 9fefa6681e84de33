package path_plan

import (
	"math"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats/scalar"
)

// stabilizer holds the last committed path and decides whether it survives
// the next cycle.
type stabilizer struct {
	cfg     StabilizerConfig
	enabled bool
	last    Path
}

// commit returns the path to publish this cycle and whether it is the kept
// previous one. The returned waypoints never alias the retained path.
func (s *stabilizer) commit(fresh Path, robot r2.Point, obstacles []Obstacle) (Path, bool) {
	if s.enabled && s.oldPathFine(fresh, robot, obstacles) {
		return s.last.clone(), true
	}
	fresh.ID = uuid.New()
	s.last = fresh.clone()
	return fresh, false
}

// oldPathFine reports whether the previous path is still valid and not
// meaningfully worse than the fresh one.
func (s *stabilizer) oldPathFine(fresh Path, robot r2.Point, obstacles []Obstacle) bool {
	if s.last.Empty() || fresh.Empty() || s.last.State != fresh.State {
		return false
	}
	oldDest, _ := s.last.Destination()
	newDest, _ := fresh.Destination()
	if oldDest.Translation.Sub(newDest.Translation).Norm() > s.cfg.DestinationTolerance {
		return false
	}
	if !scalar.EqualWithinAbs(normalizeAngle(oldDest.Rotation-newDest.Rotation), 0, s.cfg.AngleTolerance) {
		return false
	}

	old := s.last.points()
	if crossesObstacle(old, obstacles, robot) {
		return false
	}
	seg, offPath := closestOnPolyline(robot, old)
	if offPath > s.cfg.PoseTolerance {
		return false
	}

	remaining := polylineLength(append([]r2.Point{robot}, old[min(seg+1, len(old)-1):]...))
	budget := polylineLength(fresh.points())*(1+s.cfg.LengthSlack) + s.cfg.LengthSlackAbs
	return remaining <= budget || scalar.EqualWithinAbsOrRel(remaining, budget, 1e-9, 1e-9)
}

// crossesObstacle reports whether any segment of pts cuts an exclusion zone.
// Zones enclosing the robot or the destination are ignored: no path can
// clear them.
func crossesObstacle(pts []r2.Point, obstacles []Obstacle, robot r2.Point) bool {
	dest := pts[len(pts)-1]
	for _, o := range obstacles {
		if o.contains(robot) || o.contains(dest) {
			continue
		}
		for i := 0; i+1 < len(pts); i++ {
			if segmentDistance(o.Position, pts[i], pts[i+1]) < o.Radius {
				return true
			}
		}
	}
	return false
}

// reset forgets the previous path.
func (s *stabilizer) reset() {
	s.last = Path{}
}

// pathDeviation is the largest distance from a waypoint of b to the polyline
// of a. It is reported in cycle logs.
func pathDeviation(a, b Path) float64 {
	if a.Empty() || b.Empty() {
		return math.Inf(1)
	}
	pts := a.points()
	worst := 0.0
	for _, wp := range b.WayPoints {
		_, d := closestOnPolyline(wp.Translation, pts)
		worst = math.Max(worst, d)
	}
	return worst
}

func (p Path) clone() Path {
	p.WayPoints = slices.Clone(p.WayPoints)
	return p
}
