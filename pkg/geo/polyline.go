package geo

import "math"

// Polyline is an ordered sequence of points forming a path.
type Polyline struct {
	Points []Point `json:"points"`
}

// NewPolyline creates a polyline from a list of points.
func NewPolyline(pts ...Point) Polyline {
	return Polyline{Points: pts}
}

// Length returns the total arc length of the polyline.
func (pl Polyline) Length() float64 {
	total := 0.0
	for i := 1; i < len(pl.Points); i++ {
		total += pl.Points[i-1].Distance(pl.Points[i])
	}
	return total
}

// Segments returns the consecutive straight pieces of the polyline.
func (pl Polyline) Segments() []Segment {
	if len(pl.Points) < 2 {
		return nil
	}
	out := make([]Segment, 0, len(pl.Points)-1)
	for i := 1; i < len(pl.Points); i++ {
		out = append(out, Segment{A: pl.Points[i-1], B: pl.Points[i]})
	}
	return out
}

// Bounds returns the bounding box of all points.
func (pl Polyline) Bounds() Rect {
	return Polygon{Vertices: pl.Points}.Bounds()
}

// PointAt returns the point at fraction t in [0,1] along the polyline length.
func (pl Polyline) PointAt(t float64) Point {
	if len(pl.Points) == 0 {
		return Point{}
	}
	if len(pl.Points) == 1 || t <= 0 {
		return pl.Points[0]
	}
	if t >= 1 {
		return pl.Points[len(pl.Points)-1]
	}

	targetLen := t * pl.Length()
	walked := 0.0
	for i := 1; i < len(pl.Points); i++ {
		segLen := pl.Points[i-1].Distance(pl.Points[i])
		if walked+segLen >= targetLen {
			frac := (targetLen - walked) / segLen
			return pl.Points[i-1].Lerp(pl.Points[i], frac)
		}
		walked += segLen
	}
	return pl.Points[len(pl.Points)-1]
}

// NearestPoint returns the closest point on the polyline to p, and the distance.
func (pl Polyline) NearestPoint(p Point) (Point, float64) {
	if len(pl.Points) == 0 {
		return Point{}, math.MaxFloat64
	}
	if len(pl.Points) == 1 {
		return pl.Points[0], p.Distance(pl.Points[0])
	}

	bestPt := pl.Points[0]
	bestDist := p.Distance(pl.Points[0])
	for i := 1; i < len(pl.Points); i++ {
		pt, dist := nearestPointOnSegment(p, pl.Points[i-1], pl.Points[i])
		if dist < bestDist {
			bestDist = dist
			bestPt = pt
		}
	}
	return bestPt, bestDist
}

// nearestPointOnSegment returns the closest point on segment ab to p.
func nearestPointOnSegment(p, a, b Point) (Point, float64) {
	ab := b.Sub(a)
	abLen2 := ab.Dot(ab)
	if abLen2 < 1e-12 {
		return a, p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / abLen2
	t = math.Max(0, math.Min(1, t))
	closest := a.Add(ab.Scale(t))
	return closest, p.Distance(closest)
}

// Offset returns a polyline offset by distance to the left (positive = left
// when walking along the polyline direction).
func (pl Polyline) Offset(distance float64) Polyline {
	n := len(pl.Points)
	if n < 2 {
		return pl
	}

	result := make([]Point, n)
	for i := 0; i < n; i++ {
		var normal Point
		switch i {
		case 0:
			normal = pl.Points[1].Sub(pl.Points[0]).Normalize().Perp()
		case n - 1:
			normal = pl.Points[n-1].Sub(pl.Points[n-2]).Normalize().Perp()
		default:
			dir1 := pl.Points[i].Sub(pl.Points[i-1]).Normalize()
			dir2 := pl.Points[i+1].Sub(pl.Points[i]).Normalize()
			normal = dir1.Add(dir2).Normalize().Perp()
		}
		result[i] = pl.Points[i].Add(normal.Scale(distance))
	}
	return Polyline{Points: result}
}

// BufferSegment returns the rectangle swept by s with halfWidth on each side.
// Ends are extended by extend to cover joints between consecutive pieces.
func BufferSegment(s Segment, halfWidth, extend float64) Polygon {
	d := s.Direction()
	if d == (Point{}) {
		d = Pt(1, 0)
	}
	n := d.Perp().Scale(halfWidth)
	a := s.A.Sub(d.Scale(extend))
	b := s.B.Add(d.Scale(extend))
	return NewPolygon(a.Sub(n), b.Sub(n), b.Add(n), a.Add(n))
}

// Buffer returns one footprint polygon per piece of the polyline.
func (pl Polyline) Buffer(halfWidth float64) []Polygon {
	segs := pl.Segments()
	out := make([]Polygon, 0, len(segs))
	for _, s := range segs {
		out = append(out, BufferSegment(s, halfWidth, 0))
	}
	return out
}

// CatmullRomSpline evaluates a Catmull-Rom spline through the given control
// points. It generates samplesPerSegment intermediate points per segment.
// Tension controls tightness (0.5 = centripetal, 0.0 = uniform).
func CatmullRomSpline(controlPoints []Point, samplesPerSegment int, tension float64) Polyline {
	n := len(controlPoints)
	if n == 0 {
		return Polyline{}
	}
	if n == 1 {
		return NewPolyline(controlPoints[0])
	}
	if samplesPerSegment < 1 {
		samplesPerSegment = 1
	}
	if n == 2 {
		pts := make([]Point, samplesPerSegment+1)
		for i := 0; i <= samplesPerSegment; i++ {
			t := float64(i) / float64(samplesPerSegment)
			pts[i] = controlPoints[0].Lerp(controlPoints[1], t)
		}
		return Polyline{Points: pts}
	}

	// Phantom endpoints reflect the first and last segments.
	extended := make([]Point, n+2)
	extended[0] = controlPoints[0].Add(controlPoints[0].Sub(controlPoints[1]))
	copy(extended[1:], controlPoints)
	extended[n+1] = controlPoints[n-1].Add(controlPoints[n-1].Sub(controlPoints[n-2]))

	var pts []Point
	for i := 1; i < n; i++ {
		p0, p1, p2, p3 := extended[i-1], extended[i], extended[i+1], extended[i+2]
		for j := 0; j < samplesPerSegment; j++ {
			t := float64(j) / float64(samplesPerSegment)
			pts = append(pts, catmullRomPoint(p0, p1, p2, p3, t, tension))
		}
	}
	pts = append(pts, controlPoints[n-1])
	return Polyline{Points: pts}
}

// CatmullRomSplineClosed evaluates a closed Catmull-Rom loop through the
// given control points. The last point repeats the first.
func CatmullRomSplineClosed(controlPoints []Point, samplesPerSegment int, tension float64) Polyline {
	n := len(controlPoints)
	if n < 3 {
		return CatmullRomSpline(controlPoints, samplesPerSegment, tension)
	}
	if samplesPerSegment < 1 {
		samplesPerSegment = 1
	}

	var pts []Point
	for i := 0; i < n; i++ {
		p0 := controlPoints[(i-1+n)%n]
		p1 := controlPoints[i]
		p2 := controlPoints[(i+1)%n]
		p3 := controlPoints[(i+2)%n]
		for j := 0; j < samplesPerSegment; j++ {
			t := float64(j) / float64(samplesPerSegment)
			pts = append(pts, catmullRomPoint(p0, p1, p2, p3, t, tension))
		}
	}
	pts = append(pts, pts[0])
	return Polyline{Points: pts}
}

func catmullRomPoint(p0, p1, p2, p3 Point, t, s float64) Point {
	t2 := t * t
	t3 := t2 * t

	x := 0.5 * ((-s*p0.X+(2-s)*p1.X+(s-2)*p2.X+s*p3.X)*t3 +
		(2*s*p0.X+(s-3)*p1.X+(3-2*s)*p2.X-s*p3.X)*t2 +
		(-s*p0.X+s*p2.X)*t +
		2*p1.X)

	y := 0.5 * ((-s*p0.Y+(2-s)*p1.Y+(s-2)*p2.Y+s*p3.Y)*t3 +
		(2*s*p0.Y+(s-3)*p1.Y+(3-2*s)*p2.Y-s*p3.Y)*t2 +
		(-s*p0.Y+s*p2.Y)*t +
		2*p1.Y)

	return Point{X: x, Y: y}
}
