package geo

import "math"

// Polygon is a closed ring defined by its vertices in order. The closing
// edge from the last vertex back to the first is implicit.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// NewPolygon creates a polygon from a list of vertices.
func NewPolygon(pts ...Point) Polygon {
	return Polygon{Vertices: pts}
}

// Len returns the number of vertices.
func (p Polygon) Len() int {
	return len(p.Vertices)
}

// IsEmpty returns true if the polygon has fewer than 3 vertices.
func (p Polygon) IsEmpty() bool {
	return len(p.Vertices) < 3
}

// Edge returns the i-th edge. Wraps around.
func (p Polygon) Edge(i int) Segment {
	n := len(p.Vertices)
	return Segment{A: p.Vertices[i%n], B: p.Vertices[(i+1)%n]}
}

// Edges returns all edges of the ring.
func (p Polygon) Edges() []Segment {
	n := len(p.Vertices)
	if n < 2 {
		return nil
	}
	out := make([]Segment, n)
	for i := 0; i < n; i++ {
		out[i] = p.Edge(i)
	}
	return out
}

// SignedArea returns the signed area using the shoelace formula.
// Positive for counterclockwise winding, negative for clockwise.
func (p Polygon) SignedArea() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += p.Vertices[i].X * p.Vertices[j].Y
		area -= p.Vertices[j].X * p.Vertices[i].Y
	}
	return area / 2
}

// Area returns the unsigned area of the polygon.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// IsCounterClockwise returns true if vertices are in CCW order.
func (p Polygon) IsCounterClockwise() bool {
	return p.SignedArea() > 0
}

// EnsureCCW returns the polygon with vertices in counterclockwise order.
func (p Polygon) EnsureCCW() Polygon {
	if p.SignedArea() < 0 {
		return p.Reverse()
	}
	return p
}

// Reverse returns the polygon with reversed vertex order.
func (p Polygon) Reverse() Polygon {
	n := len(p.Vertices)
	rev := make([]Point, n)
	for i, v := range p.Vertices {
		rev[n-1-i] = v
	}
	return Polygon{Vertices: rev}
}

// Centroid returns the area centroid of the polygon.
func (p Polygon) Centroid() Point {
	n := len(p.Vertices)
	if n == 0 {
		return Point{}
	}
	a := p.SignedArea()
	if n < 3 || math.Abs(a) < 1e-12 {
		sum := Point{}
		for _, v := range p.Vertices {
			sum = sum.Add(v)
		}
		return sum.Scale(1.0 / float64(n))
	}
	cx, cy := 0.0, 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := p.Vertices[i].X*p.Vertices[j].Y - p.Vertices[j].X*p.Vertices[i].Y
		cx += (p.Vertices[i].X + p.Vertices[j].X) * cross
		cy += (p.Vertices[i].Y + p.Vertices[j].Y) * cross
	}
	f := 1.0 / (6.0 * a)
	return Point{cx * f, cy * f}
}

// Bounds returns the axis-aligned bounding box.
func (p Polygon) Bounds() Rect {
	if len(p.Vertices) == 0 {
		return Rect{}
	}
	r := Rect{Min: p.Vertices[0], Max: p.Vertices[0]}
	for _, v := range p.Vertices[1:] {
		r = r.ExtendPoint(v)
	}
	return r
}

// Contains returns true if the point is inside the polygon using ray casting.
// Points exactly on an edge may report either way.
func (p Polygon) Contains(pt Point) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi := p.Vertices[i]
		vj := p.Vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Covers reports whether pt is inside the polygon or within tol of its edges.
func (p Polygon) Covers(pt Point, tol float64) bool {
	return p.Contains(pt) || p.DistanceToPoint(pt) <= tol
}

// Perimeter returns the total perimeter length.
func (p Polygon) Perimeter() float64 {
	n := len(p.Vertices)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		total += p.Vertices[i].Distance(p.Vertices[j])
	}
	return total
}

// DistanceToPoint returns the distance from pt to the nearest edge.
func (p Polygon) DistanceToPoint(pt Point) float64 {
	best := math.Inf(1)
	for _, e := range p.Edges() {
		if d := e.DistanceTo(pt); d < best {
			best = d
		}
	}
	return best
}

// DistanceToSegment returns 0 when s touches or lies inside the polygon,
// otherwise the minimum edge distance.
func (p Polygon) DistanceToSegment(s Segment) float64 {
	if p.IsEmpty() {
		return math.Inf(1)
	}
	if p.Contains(s.A) || p.Contains(s.B) {
		return 0
	}
	best := math.Inf(1)
	for _, e := range p.Edges() {
		d := SegmentDistance(e, s)
		if d == 0 {
			return 0
		}
		best = math.Min(best, d)
	}
	return best
}

// Distance returns the minimum distance between two polygons. It is 0 when
// they overlap, touch, or one contains the other.
func (p Polygon) Distance(o Polygon) float64 {
	if len(p.Vertices) == 0 || len(o.Vertices) == 0 {
		return math.Inf(1)
	}
	if !p.Bounds().Intersects(o.Bounds()) {
		// Edge distance is still exact; only the containment checks are skipped.
		return edgeDistance(p, o)
	}
	if p.Contains(o.Vertices[0]) || o.Contains(p.Vertices[0]) {
		return 0
	}
	return edgeDistance(p, o)
}

// Intersects reports whether two polygons share any area or boundary.
func (p Polygon) Intersects(o Polygon) bool {
	return p.Distance(o) <= Epsilon
}

func edgeDistance(p, o Polygon) float64 {
	pe, oe := p.Edges(), o.Edges()
	if len(p.Vertices) == 1 {
		pe = []Segment{{A: p.Vertices[0], B: p.Vertices[0]}}
	}
	if len(o.Vertices) == 1 {
		oe = []Segment{{A: o.Vertices[0], B: o.Vertices[0]}}
	}
	best := math.Inf(1)
	for _, a := range pe {
		for _, b := range oe {
			d := SegmentDistance(a, b)
			if d == 0 {
				return 0
			}
			best = math.Min(best, d)
		}
	}
	return best
}

// Translate returns the polygon shifted by d.
func (p Polygon) Translate(d Point) Polygon {
	out := make([]Point, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = v.Add(d)
	}
	return Polygon{Vertices: out}
}

// IsSimple reports whether no two non-adjacent edges intersect.
func (p Polygon) IsSimple() bool {
	edges := p.Edges()
	n := len(edges)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if edges[i].Intersects(edges[j]) {
				return false
			}
		}
	}
	return true
}
