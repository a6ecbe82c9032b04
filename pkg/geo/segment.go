package geo

import "math"

// Segment is a straight line between two points.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Seg is a shorthand constructor for Segment.
func Seg(a, b Point) Segment {
	return Segment{A: a, B: b}
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// Direction returns the unit vector from A to B.
func (s Segment) Direction() Point {
	return s.B.Sub(s.A).Normalize()
}

// Midpoint returns the point halfway between A and B.
func (s Segment) Midpoint() Point {
	return MidPoint(s.A, s.B)
}

// Reverse returns the segment with swapped endpoints.
func (s Segment) Reverse() Segment {
	return Segment{A: s.B, B: s.A}
}

// Bounds returns the axis-aligned bounding box of the segment.
func (s Segment) Bounds() Rect {
	return Rect{
		Min: Pt(math.Min(s.A.X, s.B.X), math.Min(s.A.Y, s.B.Y)),
		Max: Pt(math.Max(s.A.X, s.B.X), math.Max(s.A.Y, s.B.Y)),
	}
}

// ClosestPoint returns the point on the segment nearest to p.
func (s Segment) ClosestPoint(p Point) Point {
	pt, _ := nearestPointOnSegment(p, s.A, s.B)
	return pt
}

// DistanceTo returns the shortest distance from p to the segment.
func (s Segment) DistanceTo(p Point) float64 {
	_, d := nearestPointOnSegment(p, s.A, s.B)
	return d
}

// Project returns the parameter t of p projected onto the infinite line AB,
// where t=0 is A and t=1 is B.
func (s Segment) Project(p Point) float64 {
	ab := s.B.Sub(s.A)
	l2 := ab.Dot(ab)
	if l2 < 1e-12 {
		return 0
	}
	return p.Sub(s.A).Dot(ab) / l2
}

// Intersection returns the crossing point of two segments, if any.
// Collinear overlapping segments report no single intersection.
func (s Segment) Intersection(o Segment) (Point, bool) {
	r := s.B.Sub(s.A)
	q := o.B.Sub(o.A)
	denom := r.Cross(q)
	if math.Abs(denom) < 1e-12 {
		return Point{}, false
	}
	d := o.A.Sub(s.A)
	t := d.Cross(q) / denom
	u := d.Cross(r) / denom
	const e = 1e-9
	if t < -e || t > 1+e || u < -e || u > 1+e {
		return Point{}, false
	}
	return s.A.Add(r.Scale(t)), true
}

// Intersects reports whether the segments touch or cross, including
// collinear overlap.
func (s Segment) Intersects(o Segment) bool {
	d1 := orient(o.A, o.B, s.A)
	d2 := orient(o.A, o.B, s.B)
	d3 := orient(s.A, s.B, o.A)
	d4 := orient(s.A, s.B, o.B)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(o.A, o.B, s.A)) ||
		(d2 == 0 && onSegment(o.A, o.B, s.B)) ||
		(d3 == 0 && onSegment(s.A, s.B, o.A)) ||
		(d4 == 0 && onSegment(s.A, s.B, o.B))
}

// SegmentDistance returns the minimum distance between two segments.
func SegmentDistance(a, b Segment) float64 {
	if a.Intersects(b) {
		return 0
	}
	return math.Min(
		math.Min(b.DistanceTo(a.A), b.DistanceTo(a.B)),
		math.Min(a.DistanceTo(b.A), a.DistanceTo(b.B)),
	)
}

// IsParallel reports whether the segments are parallel within angTol radians.
func (s Segment) IsParallel(o Segment, angTol float64) bool {
	c := math.Abs(s.Direction().Cross(o.Direction()))
	return c <= math.Sin(angTol)
}

// orient returns the sign of the turn a->b->c with a small dead band.
func orient(a, b, c Point) int {
	v := b.Sub(a).Cross(c.Sub(a))
	switch {
	case v > Epsilon:
		return 1
	case v < -Epsilon:
		return -1
	}
	return 0
}

func onSegment(a, b, p Point) bool {
	return p.X >= math.Min(a.X, b.X)-Epsilon && p.X <= math.Max(a.X, b.X)+Epsilon &&
		p.Y >= math.Min(a.Y, b.Y)-Epsilon && p.Y <= math.Max(a.Y, b.Y)+Epsilon
}
