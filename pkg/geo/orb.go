package geo

import "github.com/paulmach/orb"

// OrbPoint converts p to an orb point.
func OrbPoint(p Point) orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromOrbPoint converts an orb point.
func FromOrbPoint(p orb.Point) Point {
	return Point{X: p[0], Y: p[1]}
}

// OrbRing converts p to a closed orb ring (first point repeated at the end).
func (p Polygon) OrbRing() orb.Ring {
	if len(p.Vertices) == 0 {
		return nil
	}
	ring := make(orb.Ring, 0, len(p.Vertices)+1)
	for _, v := range p.Vertices {
		ring = append(ring, OrbPoint(v))
	}
	return append(ring, ring[0])
}

// OrbPolygon converts p to a single-ring orb polygon.
func (p Polygon) OrbPolygon() orb.Polygon {
	return orb.Polygon{p.OrbRing()}
}

// FromOrbRing converts an orb ring, dropping the closing point.
func FromOrbRing(r orb.Ring) Polygon {
	n := len(r)
	if n > 1 && r[0].Equal(r[n-1]) {
		n--
	}
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = FromOrbPoint(r[i])
	}
	return Polygon{Vertices: pts}
}

// OrbLineString converts a polyline.
func (pl Polyline) OrbLineString() orb.LineString {
	ls := make(orb.LineString, len(pl.Points))
	for i, p := range pl.Points {
		ls[i] = OrbPoint(p)
	}
	return ls
}

// OrbBound converts r to an orb bound.
func (r Rect) OrbBound() orb.Bound {
	return orb.Bound{Min: OrbPoint(r.Min), Max: OrbPoint(r.Max)}
}
