package path_plan

import (
	"math"
	"slices"

	"github.com/golang/geo/r2"
)

const (
	// sideTieTolerance is how close two detour lengths must be to count as equal, in mm.
	sideTieTolerance = 1.0
	goalAreaGrowth   = 1.5
	goalAreaRetries  = 4
)

type side float64

const (
	sideLeft  side = 1
	sideRight side = -1
)

// pathBuilder shapes one candidate path for a single cycle.
type pathBuilder struct {
	cfg       PlannerConfig
	obstacles []Obstacle
	// forbidden is the zone detour waypoints must stay out of, if hasForbidden.
	forbidden    r2.Rect
	hasForbidden bool
}

// buildPath produces the waypoint sequence from start to dest. clearPath is
// false when the iteration cap or an unavoidable obstacle left a segment
// inside an exclusion zone.
func buildPath(b *pathBuilder, start r2.Point, dest Pose2D, state State, lookAt *r2.Point) (wayPoints []Pose2D, clearPath bool) {
	points := []r2.Point{start, dest.Translation}
	for iter := 0; iter < b.cfg.MaxIterations && len(points) < b.cfg.MaxWaypoints; iter++ {
		idx, obstacle, blocked := firstBlocked(points, b.obstacles)
		if !blocked {
			break
		}
		detour := b.detour(points[idx], points[idx+1], obstacle)
		points = slices.Insert(points, idx+1, detour)
	}
	return assignHeadings(points, state, dest, lookAt), pathClears(points, b.obstacles)
}

// firstBlocked finds the first segment, in path order, that cuts an
// exclusion zone. Obstacles are checked nearest first. An obstacle enclosing
// either end of a segment cannot be detoured and is skipped.
func firstBlocked(points []r2.Point, obstacles []Obstacle) (int, Obstacle, bool) {
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		for _, o := range obstacles {
			if o.contains(a) || o.contains(b) {
				continue
			}
			if segmentDistance(o.Position, a, b) < o.Radius {
				return i, o, true
			}
		}
	}
	return 0, Obstacle{}, false
}

// pathClears reports whether every segment keeps strictly outside every
// exclusion zone.
func pathClears(points []r2.Point, obstacles []Obstacle) bool {
	for _, o := range obstacles {
		if len(points) == 1 && !(o.clearance(points[0]) > 0) {
			return false
		}
		for i := 0; i+1 < len(points); i++ {
			if !(segmentDistance(o.Position, points[i], points[i+1]) > o.Radius) {
				return false
			}
		}
	}
	return true
}

type candidate struct {
	point     r2.Point
	side      side
	length    float64
	forbidden bool
	occupied  bool
}

func (c candidate) penalty() int {
	p := 0
	if c.forbidden {
		p += 2
	}
	if c.occupied {
		p++
	}
	return p
}

// preferred picks between the two detour sides. Legal beats illegal, then
// shorter wins; equal lengths go to the waypoint nearer the field's long
// axis, and after that to the left side.
func preferred(left, right candidate) candidate {
	if lp, rp := left.penalty(), right.penalty(); lp != rp {
		if lp < rp {
			return left
		}
		return right
	}
	if math.Abs(left.length-right.length) > sideTieTolerance {
		if left.length < right.length {
			return left
		}
		return right
	}
	if ly, ry := math.Abs(left.point.Y), math.Abs(right.point.Y); math.Abs(ly-ry) > sideTieTolerance {
		if ly < ry {
			return left
		}
		return right
	}
	return left
}

// detour returns the waypoint that takes a-b around obstacle o.
func (b *pathBuilder) detour(from, to r2.Point, o Obstacle) r2.Point {
	radius := o.Radius + b.cfg.DetourMargin
	best := preferred(
		b.candidate(from, to, o, radius, sideLeft),
		b.candidate(from, to, o, radius, sideRight),
	)
	if !best.forbidden {
		return best.point
	}
	for i := 0; i < goalAreaRetries && best.forbidden; i++ {
		radius *= goalAreaGrowth
		best = b.candidate(from, to, o, radius, best.side)
	}
	return best.point
}

func (b *pathBuilder) candidate(from, to r2.Point, o Obstacle, radius float64, s side) candidate {
	p := b.tangentPoint(from, to, o.Position, radius, s)
	c := candidate{
		point:  p,
		side:   s,
		length: p.Sub(from).Norm() + to.Sub(p).Norm(),
	}
	c.forbidden = b.entersForbidden(from, p, to)
	for _, other := range b.obstacles {
		if other != o && other.contains(p) {
			c.occupied = true
			break
		}
	}
	return c
}

// entersForbidden reports whether the detour from-p-to touches the forbidden
// zone. A leg starting or ending at a point already inside the zone is not
// held against the detour, since the path has to cross the boundary there
// anyway.
func (b *pathBuilder) entersForbidden(from, p, to r2.Point) bool {
	if !b.hasForbidden {
		return false
	}
	zone := b.forbidden
	if zone.ContainsPoint(p) {
		return true
	}
	if !zone.ContainsPoint(from) && segmentIntersectsRect(from, p, zone) {
		return true
	}
	return !zone.ContainsPoint(to) && segmentIntersectsRect(p, to, zone)
}

// tangentPoint intersects the tangents from both segment ends to the circle
// (center, radius) on side s. When the construction degenerates it falls back
// to the point on the side normal at radius from the center.
func (b *pathBuilder) tangentPoint(from, to, center r2.Point, radius float64, s side) r2.Point {
	fallback := center.Add(rotateRight(to.Sub(from)).Normalize().Mul(-float64(s) * radius))

	toCenterA := center.Sub(from)
	toCenterB := center.Sub(to)
	distA, distB := toCenterA.Norm(), toCenterB.Norm()
	if distA <= radius || distB <= radius {
		return fallback
	}
	u := rotate(toCenterA.Normalize(), float64(s)*math.Asin(radius/distA))
	v := rotate(toCenterB.Normalize(), -float64(s)*math.Asin(radius/distB))
	p, ok := rayIntersection(from, u, to, v)
	if !ok || p.Sub(center).Norm() > b.cfg.MaxDetourFactor*radius {
		return fallback
	}
	return p
}

// assignHeadings turns path points into poses for the given state.
func assignHeadings(points []r2.Point, state State, dest Pose2D, lookAt *r2.Point) []Pose2D {
	poses := make([]Pose2D, len(points))
	last := len(points) - 1
	for i, p := range points {
		rot := dest.Rotation
		switch state {
		case StateOmni:
			if lookAt != nil && lookAt.Sub(p).Norm() > 0 {
				rot = heading(lookAt.Sub(p))
			}
		default:
			if travel, ok := travelDirection(points, i); ok {
				rot = travel
			}
			if state == StateTarget && i == last {
				rot = dest.Rotation
			}
		}
		poses[i] = Pose2D{Translation: p, Rotation: normalizeAngle(rot)}
	}
	return poses
}

// travelDirection is the heading of the segment leaving point i, or arriving
// at it for the last point.
func travelDirection(points []r2.Point, i int) (float64, bool) {
	var d r2.Point
	switch {
	case i+1 < len(points):
		d = points[i+1].Sub(points[i])
	case i > 0:
		d = points[i].Sub(points[i-1])
	default:
		return 0, false
	}
	if d.Norm() == 0 {
		return 0, false
	}
	return heading(d), true
}
