// Package freespace computes where îlots may go: the floor boundary minus
// walls, restricted zones, door swings and their clearance buffers, with an
// aisle kept open from every entrance.
//
// Two views are kept. Admits is the exact predicate, evaluated through the
// spatial index, that every placement must pass. Regions is an occupancy
// raster of the same predicate, grouped into connected areas and traced to
// polygons, used to seed the placement scan and to report usable area.
package freespace

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/plan"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// eps absorbs rounding when comparing clearances.
const eps = 1e-9

// Region is one connected area of free space.
type Region struct {
	ID      string      `json:"id"`
	Polygon orb.Polygon `json:"polygon"`
	Area    float64     `json:"area"`
	Bounds  geo.Rect    `json:"bounds"`
	Cells   int         `json:"cells"`
}

// Aisle is a corridor-wide strip kept clear of îlots from an entrance
// straight into the plan until it meets the boundary again. It guarantees
// the corridor network a way in from every entrance.
type Aisle struct {
	Entrance string      `json:"entrance"`
	Path     geo.Segment `json:"path"`
	Polygon  geo.Polygon `json:"polygon"`
}

// FreeSpace is the placeable area of one floor plan.
type FreeSpace struct {
	Plan       *plan.FloorPlan
	Regions    []Region
	Aisles     []Aisle
	Resolution float64

	clearance config.Clearance
	aisle     float64
	index     *spatial.Index

	obstacleReach float64
}

// Area returns the summed area of all regions.
func (fs *FreeSpace) Area() float64 {
	total := 0.0
	for _, r := range fs.Regions {
		total += r.Area
	}
	return total
}

// Bounds returns the box covering every region, empty when there are none.
func (fs *FreeSpace) Bounds() geo.Rect {
	if len(fs.Regions) == 0 {
		return geo.Rect{}
	}
	b := fs.Regions[0].Bounds
	for _, r := range fs.Regions[1:] {
		b = b.Union(r.Bounds)
	}
	return b
}

// RegionAt returns the region containing p.
func (fs *FreeSpace) RegionAt(p geo.Point) (Region, bool) {
	op := geo.OrbPoint(p)
	for _, r := range fs.Regions {
		if r.Bounds.ContainsPoint(p) && planar.PolygonContains(r.Polygon, op) {
			return r, true
		}
	}
	return Region{}, false
}

// Admits reports whether rect may be occupied: it lies inside the boundary
// at least WallBuffer from its edges, keeps every static obstacle at its
// kind's buffer, stays out of every entrance aisle, and keeps IlotSpacing
// sideways and AisleWidth vertically from every placed îlot. Items named in
// exclude are not checked.
func (fs *FreeSpace) Admits(rect geo.Rect, exclude ...string) bool {
	return fs.admits(rect, true, exclude)
}

func (fs *FreeSpace) admits(rect geo.Rect, withIlots bool, exclude []string) bool {
	b := fs.Plan.Boundary
	if rect.IsEmpty() || !b.Contains(rect.Center()) {
		return false
	}
	poly := rect.Polygon()
	for _, a := range fs.Aisles {
		if geo.OverlapArea(poly, a.Polygon) > eps {
			return false
		}
	}
	for _, e := range b.Edges() {
		if poly.DistanceToSegment(e) < fs.clearance.WallBuffer-eps {
			return false
		}
	}
	if fs.clearance.WallBuffer <= eps {
		for _, v := range poly.Vertices {
			if !b.Covers(v, eps) {
				return false
			}
		}
	}

	cl := fs.clearance
	reach := fs.obstacleReach
	kinds := spatial.Obstacles
	if withIlots {
		reach = math.Max(reach, math.Max(cl.IlotSpacing, fs.aisle))
		kinds = append(append([]spatial.Kind(nil), spatial.Obstacles...), spatial.KindIlot)
	}

	for _, id := range fs.index.QueryWithin(poly, reach+eps, kinds...) {
		if contains(exclude, id) {
			continue
		}
		it, _ := fs.index.Get(id)
		if fs.conflicts(it, rect, poly) {
			return false
		}
	}
	return true
}

func (fs *FreeSpace) conflicts(it spatial.Item, rect geo.Rect, poly geo.Polygon) bool {
	var buffer float64
	switch it.Kind {
	case spatial.KindIlot:
		dx, dy := rect.Gaps(it.Polygon.Bounds())
		return dx < fs.clearance.IlotSpacing-eps && dy < fs.aisle-eps
	case spatial.KindWall:
		buffer = fs.clearance.WallBuffer
	case spatial.KindRestricted:
		buffer = fs.clearance.RestrictedBuffer
	default:
		buffer = fs.clearance.DoorClearance
	}
	if buffer <= eps {
		return geo.OverlapArea(it.Polygon, poly) > eps
	}
	return it.Polygon.Distance(poly) < buffer-eps
}

// entranceAisles casts a ray from each entrance opening towards its anchor
// and keeps the stretch up to the first boundary edge it crosses.
func entranceAisles(fp *plan.FloorPlan, width float64) []Aisle {
	b := fp.Boundary.Bounds()
	reach := 2 * math.Hypot(b.Width(), b.Height())
	var out []Aisle
	for _, e := range fp.Entrances {
		from := e.Opening.Midpoint()
		dir := e.Anchor.Sub(from)
		if dir.Length() <= geo.Epsilon {
			continue
		}
		ray := geo.Seg(from, from.Add(dir.Normalize().Scale(reach)))
		far, best := ray.B, math.Inf(1)
		for _, edge := range fp.Boundary.Edges() {
			p, ok := ray.Intersection(edge)
			if !ok {
				continue
			}
			// The opening's own edge is crossed at the start of the ray.
			if d := p.Distance(from); d > width/2 && d < best {
				far, best = p, d
			}
		}
		path := geo.Seg(from, far)
		out = append(out, Aisle{Entrance: e.ID, Path: path, Polygon: geo.BufferSegment(path, width/2, 0)})
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// Resolve rasterizes the free space of fp at the configured resolution. The
// index must already hold the plan's fixed elements. An empty result is
// reported as an INSUFFICIENT_FREE_SPACE warning, not an error.
func Resolve(ctx context.Context, fp *plan.FloorPlan, index *spatial.Index, cfg *config.Config) (*FreeSpace, *validation.Report, error) {
	report := validation.NewReport()
	fs := &FreeSpace{
		Plan:       fp,
		Resolution: cfg.FreeSpace.Resolution,
		clearance:  cfg.Clearance,
		aisle:      cfg.AisleWidth(),
		index:      index,

		obstacleReach: cfg.MaxObstacleBuffer(),
	}
	fs.Aisles = entranceAisles(fp, cfg.Corridor.MinWidth)

	g, err := fs.rasterize(ctx)
	if err != nil {
		return nil, report, err
	}
	labels, sizes := g.components()

	cellArea := g.res * g.res
	for label, n := range sizes {
		area := float64(n) * cellArea
		if area < cfg.FreeSpace.MinRegionArea {
			continue
		}
		poly := g.trace(labels, label)
		fs.Regions = append(fs.Regions, Region{
			ID:      fmt.Sprintf("f%d", len(fs.Regions)+1),
			Polygon: poly,
			Area:    math.Abs(planar.Area(poly)),
			Bounds:  geo.Rect{Min: geo.FromOrbPoint(poly.Bound().Min), Max: geo.FromOrbPoint(poly.Bound().Max)},
			Cells:   n,
		})
	}

	if len(fs.Regions) == 0 {
		report.Warn(validation.LevelFreeSpace, errors.ErrCodeInsufficientSpace,
			"no free region of at least %.2f m² inside a %.1f m² boundary", cfg.FreeSpace.MinRegionArea, fp.Area())
	}
	return fs, report, nil
}
