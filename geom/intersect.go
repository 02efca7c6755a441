package geom

import "math"

// Intersection of the two infinite lines through p1,p2 and p3,p4. Returns false
// when the lines are parallel, or when either pair of points is degenerate.
//
// The parallel check works on the normalized determinant (the sine of the angle
// between the two directions), so that it behaves the same no matter how long
// the input segments are.
func LineLineIntersection(p1, p2, p3, p4 EastNorth) (EastNorth, bool) {
	// Convert the lines to the form a*x + b*y = c
	a1 := p2.North - p1.North
	b1 := p1.East - p2.East

	a2 := p4.North - p3.North
	b2 := p3.East - p4.East

	l1 := math.Hypot(a1, b1)
	l2 := math.Hypot(a2, b2)
	if l1 == 0 || l2 == 0 {
		return EastNorth{}, false
	}

	det := a1*b2 - a2*b1
	if math.Abs(det/(l1*l2)) < ParallelEpsilon {
		return EastNorth{}, false
	}

	// Solve relative to p1 to keep the magnitudes small. Projected coordinates
	// can be in the millions, which costs a lot of precision in c1 and c2.
	c2 := (p4.East-p1.East)*a2 + (p4.North-p1.North)*b2
	result := EastNorth{
		East:  -b1 * c2 / det,
		North: a1 * c2 / det,
	}.Add(p1)
	if !result.IsValid() {
		return EastNorth{}, false
	}
	return result, true
}

// Bounded intersection of segment p1-p2 with segment p3-p4. Returns false when
// the segments do not cross, or when they are parallel (including collinear
// overlap, which has no single intersection point).
//
// Touching at an endpoint counts as an intersection, with a small tolerance so
// that a vertex lying exactly on the other segment is not lost to rounding.
func SegmentSegmentIntersection(p1, p2, p3, p4 EastNorth) (EastNorth, bool) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)

	denom := d1.Cross(d2)
	mag := d1.Length() * d2.Length()
	if mag == 0 || math.Abs(denom) <= 1e-12*mag {
		return EastNorth{}, false
	}

	diff := p3.Sub(p1)
	u := diff.Cross(d2) / denom
	v := diff.Cross(d1) / denom

	if u < -Epsilon || u > 1+Epsilon || v < -Epsilon || v > 1+Epsilon {
		return EastNorth{}, false
	}
	u = math.Max(0, math.Min(1, u))
	return p1.Add(d1.Scale(u)), true
}

// Closest point to p on the infinite line through a and b. A zero length line
// collapses to a.
func ClosestPointToLine(a, b, p EastNorth) EastNorth {
	d := b.Sub(a)
	l2 := d.LengthSq()
	if l2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(d) / l2
	return a.Add(d.Scale(t))
}

// Closest point to p on the segment a-b. Unlike ClosestPointToLine, the result
// never leaves the segment.
func ClosestPointToSegment(a, b, p EastNorth) EastNorth {
	d := b.Sub(a)
	l2 := d.LengthSq()
	if l2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(d) / l2
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a.Add(d.Scale(t))
}

// Same as ClosestPointToSegment, but in screen space.
func ClosestScreenPointToSegment(a, b, p Point) Point {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return Point{a.X + dx*t, a.Y + dy*t}
}

// Whether the direction a->b is parallel to c->d. Zero length input has no
// direction, and counts as parallel to everything.
func SegmentsParallel(a, b, c, d EastNorth) bool {
	d1 := b.Sub(a)
	d2 := d.Sub(c)
	mag := d1.Length() * d2.Length()
	if mag == 0 {
		return true
	}
	return math.Abs(d1.Cross(d2)/mag) < ParallelEpsilon
}

// Signed angle at vertex, in degrees, between the ray towards a and the ray
// towards b. The result is in (-180, 180].
//
//	a
//	 \
//	  vertex ---- b
func CornerAngle(a, vertex, b EastNorth) float64 {
	ha := math.Atan2(a.North-vertex.North, a.East-vertex.East)
	hb := math.Atan2(b.North-vertex.North, b.East-vertex.East)
	angle := ha - hb
	for angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	return ToDegrees(angle)
}

// Whether the turn a -> b -> c is clockwise.
func AngleIsClockwise(a, b, c EastNorth) bool {
	return b.Sub(a).Cross(c.Sub(b)) < 0
}

// Whether p is on the right side of the directed line a->b.
func IsToTheRightSideOfLine(a, b, p EastNorth) bool {
	return b.Sub(a).Cross(p.Sub(a)) < 0
}

// Length of the projection of v onto the direction of axis. The axis does not
// need to be normalized, but must not be zero.
func ProjectedDistance(v, axis EastNorth) float64 {
	l := axis.Length()
	if l == 0 {
		return 0
	}
	return v.Dot(axis) / l
}

// Perpendicular distance from p to the infinite line through a and b.
func DistanceToLine(a, b, p EastNorth) float64 {
	return p.Distance(ClosestPointToLine(a, b, p))
}

// Distance from p to the segment a-b.
func DistanceToSegment(a, b, p EastNorth) float64 {
	return p.Distance(ClosestPointToSegment(a, b, p))
}
