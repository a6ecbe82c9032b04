package corridor

import (
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
)

// areaEps is the overlap area below which two shapes only touch.
const areaEps = 1e-6

// blocking are the kinds a corridor may touch but never enter. Doors and
// entrances are openings, so corridors pass through them.
var blocking = []spatial.Kind{spatial.KindWall, spatial.KindRestricted, spatial.KindIlot}

// Checker tests corridor clearance against a boundary and an index.
type Checker struct {
	boundary geo.Polygon
	index    *spatial.Index
}

// NewChecker returns a checker over boundary and the items in index.
func NewChecker(boundary geo.Polygon, index *spatial.Index) *Checker {
	return &Checker{boundary: boundary, index: index}
}

// Clear reports whether a corridor of the given width can follow pl: each
// piece, swept width/2 to either side, stays inside the boundary and shares
// no area with a wall footprint, restricted zone or îlot.
func (c *Checker) Clear(pl geo.Polyline, width float64) bool {
	for _, s := range pl.Segments() {
		if s.Length() <= geo.Epsilon {
			continue
		}
		if !c.bandClear(geo.BufferSegment(s, width/2, 0)) {
			return false
		}
	}
	return true
}

// Blockers returns the ids of the items a corridor along pl would enter.
func (c *Checker) Blockers(pl geo.Polyline, width float64) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range pl.Segments() {
		if s.Length() <= geo.Epsilon {
			continue
		}
		band := geo.BufferSegment(s, width/2, 0)
		for _, id := range c.index.QueryOverlapping(band, blocking...) {
			it, _ := c.index.Get(id)
			if !seen[id] && geo.OverlapArea(it.Polygon, band) > areaEps {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func (c *Checker) bandClear(band geo.Polygon) bool {
	if geo.OverlapArea(c.boundary, band) < band.Area()-areaEps {
		return false
	}
	for _, id := range c.index.QueryOverlapping(band, blocking...) {
		it, _ := c.index.Get(id)
		if geo.OverlapArea(it.Polygon, band) > areaEps {
			return false
		}
	}
	return true
}

// reroute returns pl when clear, otherwise the first clear copy shifted by
// ±k·step along dir for k up to tries, nearest shift first. A non-negative
// limit caps the shift.
func (c *Checker) reroute(pl geo.Polyline, width float64, dir geo.Point, step float64, tries int, limit float64) (geo.Polyline, bool) {
	if c.Clear(pl, width) {
		return pl, true
	}
	for k := 1; k <= tries; k++ {
		off := float64(k) * step
		if limit >= 0 && off > limit+geo.Epsilon {
			break
		}
		for _, sign := range []float64{1, -1} {
			moved := translate(pl, dir.Scale(sign*off))
			if c.Clear(moved, width) {
				return moved, true
			}
		}
	}
	return pl, false
}

func translate(pl geo.Polyline, d geo.Point) geo.Polyline {
	pts := make([]geo.Point, len(pl.Points))
	for i, p := range pl.Points {
		pts[i] = p.Add(d)
	}
	return geo.Polyline{Points: pts}
}
