package geo

import "math"

// minArcSegments keeps tiny arcs from collapsing to a chord.
const minArcSegments = 2

// ArcSegments returns how many chords are needed to approximate an arc of
// the given radius and sweep so that no chord strays more than tol from the
// true curve.
func ArcSegments(radius, sweep, tol float64) int {
	sweep = math.Abs(sweep)
	if radius <= 0 || sweep == 0 {
		return 0
	}
	if tol <= 0 || tol >= radius {
		return minArcSegments
	}
	step := 2 * math.Acos(1-tol/radius)
	n := int(math.Ceil(sweep / step))
	if n < minArcSegments {
		n = minArcSegments
	}
	return n
}

// ArcPoints samples a counterclockwise arc from startAngle to endAngle
// (radians). Both endpoints are included.
func ArcPoints(center Point, radius, startAngle, endAngle, tol float64) []Point {
	sweep := endAngle - startAngle
	for sweep <= 0 {
		sweep += 2 * math.Pi
	}
	n := ArcSegments(radius, sweep, tol)
	pts := make([]Point, n+1)
	for i := 0; i <= n; i++ {
		a := startAngle + sweep*float64(i)/float64(n)
		pts[i] = Point{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		}
	}
	return pts
}

// ApproximateCircle returns a CCW polygon approximating a circle within tol.
func ApproximateCircle(center Point, radius, tol float64) Polygon {
	n := ArcSegments(radius, 2*math.Pi, tol)
	if n < 3 {
		n = 3
	}
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		}
	}
	return Polygon{Vertices: pts}
}

// ClipToConvex clips the subject polygon to a convex clip polygon using
// the Sutherland-Hodgman algorithm. Returns the intersection polygon.
func ClipToConvex(subject, clipper Polygon) Polygon {
	if subject.IsEmpty() || clipper.IsEmpty() {
		return Polygon{}
	}
	clipper = clipper.EnsureCCW()
	output := make([]Point, len(subject.Vertices))
	copy(output, subject.Vertices)

	clipN := len(clipper.Vertices)
	for i := 0; i < clipN; i++ {
		if len(output) == 0 {
			return Polygon{}
		}
		edgeStart := clipper.Vertices[i]
		edgeEnd := clipper.Vertices[(i+1)%clipN]
		input := output
		output = make([]Point, 0, len(input))

		for j := 0; j < len(input); j++ {
			current := input[j]
			next := input[(j+1)%len(input)]
			curInside := isInsideEdge(current, edgeStart, edgeEnd)
			nextInside := isInsideEdge(next, edgeStart, edgeEnd)

			switch {
			case curInside && nextInside:
				output = append(output, next)
			case curInside && !nextInside:
				if ix, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					output = append(output, ix)
				}
			case !curInside && nextInside:
				if ix, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					output = append(output, ix)
				}
				output = append(output, next)
			}
		}
	}
	if len(output) < 3 {
		return Polygon{}
	}
	return Polygon{Vertices: output}
}

// OverlapArea returns the area shared by a polygon and a convex polygon.
func OverlapArea(subject, convex Polygon) float64 {
	return ClipToConvex(subject, convex).Area()
}

// isInsideEdge returns true if the point is on the inside (left) of the
// directed edge from edgeStart to edgeEnd.
func isInsideEdge(p, edgeStart, edgeEnd Point) bool {
	return (edgeEnd.X-edgeStart.X)*(p.Y-edgeStart.Y)-
		(edgeEnd.Y-edgeStart.Y)*(p.X-edgeStart.X) >= 0
}

// lineIntersection returns the intersection point of lines (p1→p2) and (p3→p4).
func lineIntersection(p1, p2, p3, p4 Point) (Point, bool) {
	d := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	if math.Abs(d) < 1e-12 {
		return Point{}, false
	}
	t := ((p1.X-p3.X)*(p3.Y-p4.Y) - (p1.Y-p3.Y)*(p3.X-p4.X)) / d
	return Point{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
	}, true
}
