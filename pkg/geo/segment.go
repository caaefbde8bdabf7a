package geo

import "math"

// Segment is a directed line segment from A to B.
type Segment struct {
	A Point2D `json:"a"`
	B Point2D `json:"b"`
}

// Seg is a shorthand constructor for Segment.
func Seg(a, b Point2D) Segment {
	return Segment{A: a, B: b}
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// XDominant reports whether the segment runs at least as far in X as in Z.
func (s Segment) XDominant() bool {
	return math.Abs(s.B.X-s.A.X) >= math.Abs(s.B.Z-s.A.Z)
}

// Projection describes the closest point on a segment to some query point.
type Projection struct {
	T        float64 // clamped parameter along the segment, 0 at A and 1 at B
	Distance float64 // distance from the query point to the closest point
	Closest  Point2D
}

// Project returns the projection of p onto s. ok is false for a degenerate
// segment.
func (s Segment) Project(p Point2D) (Projection, bool) {
	v := s.B.Sub(s.A)
	l2 := v.Dot(v)
	if l2 < 1e-9 {
		return Projection{}, false
	}
	t := p.Sub(s.A).Dot(v) / l2
	t = math.Max(0, math.Min(1, t))
	q := s.A.Lerp(s.B, t)
	return Projection{T: t, Distance: p.Distance(q), Closest: q}, true
}

// orientation returns the sign of the turn r makes relative to p→q:
// 1 for left, -1 for right, 0 for collinear.
func orientation(p, q, r Point2D) int {
	v := (q.X-p.X)*(r.Z-p.Z) - (q.Z-p.Z)*(r.X-p.X)
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// onSegment reports whether r lies inside the bounding box of p→q, assuming
// the three points are collinear.
func onSegment(p, q, r Point2D) bool {
	const eps = 1e-9
	return math.Min(p.X, q.X)-eps <= r.X && r.X <= math.Max(p.X, q.X)+eps &&
		math.Min(p.Z, q.Z)-eps <= r.Z && r.Z <= math.Max(p.Z, q.Z)+eps
}

// Intersects reports whether s and o share at least one point, including
// touching endpoints and collinear overlap.
func (s Segment) Intersects(o Segment) bool {
	o1 := orientation(s.A, s.B, o.A)
	o2 := orientation(s.A, s.B, o.B)
	o3 := orientation(o.A, o.B, s.A)
	o4 := orientation(o.A, o.B, s.B)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(s.A, s.B, o.A) {
		return true
	}
	if o2 == 0 && onSegment(s.A, s.B, o.B) {
		return true
	}
	if o3 == 0 && onSegment(o.A, o.B, s.A) {
		return true
	}
	if o4 == 0 && onSegment(o.A, o.B, s.B) {
		return true
	}
	return false
}
