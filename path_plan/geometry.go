package path_plan

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"
)

// rotateRight turns v by -90 degrees.
func rotateRight(v r2.Point) r2.Point {
	return r2.Point{X: v.Y, Y: -v.X}
}

// rotate turns v counter-clockwise by angle radians.
func rotate(v r2.Point, angle float64) r2.Point {
	sin, cos := math.Sincos(angle)
	return r2.Point{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// distancePointToLine is the perpendicular distance from point to the
// infinite line through base along vector.
func distancePointToLine(point, vector, base r2.Point) float64 {
	normal := rotateRight(vector).Normalize()
	return math.Abs(point.Sub(base).Dot(normal))
}

// segmentDistance is the distance from point to the segment a-b. The foot of
// the perpendicular is clipped to the segment ends.
func segmentDistance(point, a, b r2.Point) float64 {
	ab := b.Sub(a)
	length := ab.Norm()
	if length == 0 {
		return point.Sub(a).Norm()
	}
	t := point.Sub(a).Dot(ab) / length
	switch {
	case t <= 0:
		return point.Sub(a).Norm()
	case t >= length:
		return point.Sub(b).Norm()
	default:
		return distancePointToLine(point, ab, a)
	}
}

// heading is the direction of v in radians.
func heading(v r2.Point) float64 {
	return math.Atan2(v.Y, v.X)
}

// normalizeAngle maps a to (-pi, pi].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// polylineLength sums the segment lengths of pts.
func polylineLength(pts []r2.Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	lengths := make([]float64, len(pts)-1)
	for i := range lengths {
		lengths[i] = pts[i+1].Sub(pts[i]).Norm()
	}
	return floats.Sum(lengths)
}

// closestOnPolyline finds the segment of pts nearest to p. It returns the
// segment index and the distance.
func closestOnPolyline(p r2.Point, pts []r2.Point) (int, float64) {
	if len(pts) == 1 {
		return 0, p.Sub(pts[0]).Norm()
	}
	best, bestDist := 0, math.Inf(1)
	for i := 0; i+1 < len(pts); i++ {
		if d := segmentDistance(p, pts[i], pts[i+1]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// rayIntersection intersects the rays a+s*u and b+t*v. ok is false for
// parallel rays or an intersection behind either origin.
func rayIntersection(a, u, b, v r2.Point) (r2.Point, bool) {
	denom := u.Cross(v)
	if math.Abs(denom) < 1e-9 {
		return r2.Point{}, false
	}
	ab := b.Sub(a)
	s := ab.Cross(v) / denom
	t := ab.Cross(u) / denom
	if s <= 0 || t <= 0 {
		return r2.Point{}, false
	}
	return a.Add(u.Mul(s)), true
}

// segmentIntersectsRect reports whether segment a-b touches the closed rect,
// clipping the segment against each slab in turn.
func segmentIntersectsRect(a, b r2.Point, rect r2.Rect) bool {
	d := b.Sub(a)
	lo, hi := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > hi {
				return false
			}
			lo = math.Max(lo, t)
		} else {
			if t < lo {
				return false
			}
			hi = math.Min(hi, t)
		}
		return true
	}
	return clip(-d.X, a.X-rect.X.Lo) && clip(d.X, rect.X.Hi-a.X) &&
		clip(-d.Y, a.Y-rect.Y.Lo) && clip(d.Y, rect.Y.Hi-a.Y)
}

// finitePoint reports whether both coordinates are real numbers.
func finitePoint(p r2.Point) bool {
	return finite(p.X) && finite(p.Y)
}
