package extract

import (
	"fmt"
	"math"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/plan"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// anchorMargin keeps entrance anchors strictly inside the corridor clearance.
const anchorMargin = 0.01

// Build assembles a floor plan from the primitives of one view. The
// boundary is the outer silhouette of the wall network after door openings
// and small gaps are closed. It fails with NO_BOUNDARY_FOUND when no
// closed outline of at least MinBoundaryArea exists.
func Build(prims []Primitive, cfg *config.Config) (*plan.FloorPlan, *validation.Report, error) {
	report := validation.NewReport()
	ex := cfg.Extraction

	fp := &plan.FloorPlan{}
	var wallEnds []geo.Point
	for _, p := range prims {
		if p.Category != CategoryWall {
			continue
		}
		for _, s := range p.Segments {
			fp.Walls = append(fp.Walls, plan.WallSegment{
				ID:        fmt.Sprintf("w%d", len(fp.Walls)+1),
				Segment:   s,
				Thickness: p.Thickness,
				Layer:     p.Layer,
			})
			wallEnds = append(wallEnds, s.A, s.B)
		}
	}
	if len(fp.Walls) == 0 {
		return nil, report, errors.New(errors.ErrCodeNoBoundary, "no wall geometry among %d primitives", len(prims))
	}

	edges := make([]inputEdge, 0, len(fp.Walls))
	for _, w := range fp.Walls {
		edges = append(edges, inputEdge{seg: w.Segment, kind: edgeWall})
	}

	var explicit []plan.Entrance
	for _, p := range prims {
		switch p.Category {
		case CategoryDoor:
			open, ok := openingOf(p, wallEnds)
			if !ok {
				report.Warn(validation.LevelExtraction, errors.ErrCodeParse, "door %s has no usable opening", p.ID)
				continue
			}
			fp.Doors = append(fp.Doors, plan.Door{
				ID:      fmt.Sprintf("d%d", len(fp.Doors)+1),
				Opening: open,
				Swing:   p.Polygon,
				Width:   open.Length(),
			})
			edges = append(edges, inputEdge{seg: open, kind: edgeOpening})
		case CategoryEntrance:
			open, ok := openingOf(p, wallEnds)
			if !ok {
				report.Warn(validation.LevelExtraction, errors.ErrCodeParse, "entrance %s has no usable opening", p.ID)
				continue
			}
			explicit = append(explicit, plan.Entrance{Opening: open, Width: open.Length()})
			edges = append(edges, inputEdge{seg: open, kind: edgeOpening})
		case CategoryRestricted:
			fp.RestrictedZones = append(fp.RestrictedZones, plan.RestrictedZone{
				ID:      fmt.Sprintf("r%d", len(fp.RestrictedZones)+1),
				Polygon: p.Polygon.EnsureCCW(),
				Label:   p.Text,
			})
		}
	}

	g := buildGraph(edges, ex.SnapTolerance)
	bridges := g.bridgeGaps(ex.MaxGapClose)
	g.prune()
	boundary, cycle, ok := pickBoundary(g.faces(), g.pts)
	if !ok || boundary.Area() < ex.MinBoundaryArea {
		area := 0.0
		if ok {
			area = boundary.Area()
		}
		return nil, report, errors.New(errors.ErrCodeNoBoundary,
			"largest closed outline encloses %.2f m², need %.2f", area, ex.MinBoundaryArea).
			WithDetails(fmt.Sprintf("%d walls, %d gaps bridged", len(fp.Walls), bridges))
	}
	fp.Boundary = boundary
	if bridges > 0 {
		report.AddInfo(validation.Result{
			Level:   validation.LevelExtraction,
			Message: fmt.Sprintf("%d wall gaps closed to form the outline", bridges),
		})
	}

	onTol := math.Max(ex.MaxWallThickness, ex.SnapTolerance)
	dropOutside(fp, onTol, report)
	fp.Entrances = deriveEntrances(fp, explicit, boundaryBridges(g, cycle), cfg, onTol)
	if len(fp.Entrances) == 0 {
		report.AddWarning(validation.Result{
			Level:   validation.LevelExtraction,
			Code:    errors.ErrCodeCorridorUnreachable,
			Message: "no entrance found on the boundary; corridors cannot be anchored",
		})
	}
	return fp, report, nil
}

// pickBoundary returns the largest outer face, counterclockwise. When that
// ring is not simple it falls back to the largest simple bounded face.
func pickBoundary(faces []face, pts []geo.Point) (geo.Polygon, []int, bool) {
	var outer, inner *face
	for i := range faces {
		f := &faces[i]
		if f.area < 0 && (outer == nil || -f.area > -outer.area) {
			outer = f
		}
	}
	if outer != nil {
		ring := cleanRing(outer.verts, pts)
		if poly := ringPolygon(ring, pts).EnsureCCW(); poly.IsSimple() {
			return poly, outer.verts, true
		}
	}
	for i := range faces {
		f := &faces[i]
		if f.area <= 0 {
			continue
		}
		ring := cleanRing(f.verts, pts)
		if !ringPolygon(ring, pts).IsSimple() {
			continue
		}
		if inner == nil || f.area > inner.area {
			inner = f
		}
	}
	if inner == nil {
		return geo.Polygon{}, nil, false
	}
	return ringPolygon(cleanRing(inner.verts, pts), pts).EnsureCCW(), inner.verts, true
}

// boundaryBridges returns the bridged gaps that lie on the boundary cycle.
func boundaryBridges(g *planarGraph, cycle []int) []geo.Segment {
	var out []geo.Segment
	for i, a := range cycle {
		b := cycle[(i+1)%len(cycle)]
		if g.kinds[edgeKey(a, b)] == edgeBridge {
			out = append(out, geo.Seg(g.pts[a], g.pts[b]))
		}
	}
	return out
}

// openingOf resolves the traversable segment of a door or entrance. A swing
// opens from the hinge to whichever arc end sits against a wall; the other
// end marks the open leaf.
func openingOf(p Primitive, wallEnds []geo.Point) (geo.Segment, bool) {
	switch {
	case p.Swing != nil:
		s := p.Swing
		if nearestDist(s.Ends[1], wallEnds) < nearestDist(s.Ends[0], wallEnds) {
			return geo.Seg(s.Hinge, s.Ends[1]), true
		}
		return geo.Seg(s.Hinge, s.Ends[0]), true
	case !p.Polygon.IsEmpty():
		long := longest(p.Polygon.Edges())
		half := long.Direction().Scale(long.Length() / 2)
		c := p.Polygon.Centroid()
		return geo.Seg(c.Sub(half), c.Add(half)), true
	case len(p.Segments) > 0:
		return longest(p.Segments), true
	}
	return geo.Segment{}, false
}

func longest(segs []geo.Segment) geo.Segment {
	best := segs[0]
	for _, s := range segs[1:] {
		if s.Length() > best.Length() {
			best = s
		}
	}
	return best
}

func nearestDist(p geo.Point, pts []geo.Point) float64 {
	best := math.Inf(1)
	for _, q := range pts {
		best = math.Min(best, p.Distance(q))
	}
	return best
}

// dropOutside removes elements that are neither inside nor on the boundary.
func dropOutside(fp *plan.FloorPlan, tol float64, report *validation.Report) {
	var dropped []string
	inside := func(pts ...geo.Point) bool {
		for _, p := range pts {
			if !fp.Boundary.Covers(p, tol) {
				return false
			}
		}
		return true
	}

	walls := fp.Walls[:0]
	for _, w := range fp.Walls {
		if inside(w.Segment.A, w.Segment.B, w.Segment.Midpoint()) {
			walls = append(walls, w)
		} else {
			dropped = append(dropped, w.ID)
		}
	}
	fp.Walls = walls

	doors := fp.Doors[:0]
	for _, d := range fp.Doors {
		if inside(d.Opening.A, d.Opening.B) {
			doors = append(doors, d)
		} else {
			dropped = append(dropped, d.ID)
		}
	}
	fp.Doors = doors

	zones := fp.RestrictedZones[:0]
	for _, z := range fp.RestrictedZones {
		if inside(z.Polygon.Centroid()) {
			zones = append(zones, z)
		} else {
			dropped = append(dropped, z.ID)
		}
	}
	fp.RestrictedZones = zones

	if len(dropped) > 0 {
		report.AddWarning(validation.Result{
			Level:    validation.LevelExtraction,
			Code:     errors.ErrCodeOutsideBoundary,
			Message:  fmt.Sprintf("%d elements lie outside the boundary and were dropped", len(dropped)),
			Subjects: dropped,
		})
	}
}

// deriveEntrances prefers explicit entrances, then doors on the boundary,
// then bridged boundary gaps at least a door wide.
func deriveEntrances(fp *plan.FloorPlan, explicit []plan.Entrance, gaps []geo.Segment, cfg *config.Config, tol float64) []plan.Entrance {
	onBoundary := func(s geo.Segment) bool {
		return fp.Boundary.DistanceToPoint(s.A) <= tol && fp.Boundary.DistanceToPoint(s.B) <= tol
	}

	var openings []geo.Segment
	for _, e := range explicit {
		if fp.Boundary.Covers(e.Opening.Midpoint(), tol) {
			openings = append(openings, e.Opening)
		}
	}
	if len(openings) == 0 {
		for _, d := range fp.Doors {
			if onBoundary(d.Opening) {
				openings = append(openings, d.Opening)
			}
		}
	}
	if len(openings) == 0 {
		for _, s := range gaps {
			if s.Length() >= cfg.Extraction.DoorMinRadius {
				openings = append(openings, s)
			}
		}
	}

	depth := cfg.Corridor.MinWidth/2 + anchorMargin
	out := make([]plan.Entrance, 0, len(openings))
	for _, s := range openings {
		out = append(out, plan.Entrance{
			ID:      fmt.Sprintf("e%d", len(out)+1),
			Opening: s,
			Anchor:  inwardPoint(s, fp.Boundary, depth),
			Width:   s.Length(),
		})
	}
	return out
}

// inwardPoint returns the point depth away from the opening's midpoint on
// the boundary's interior side.
func inwardPoint(s geo.Segment, boundary geo.Polygon, depth float64) geo.Point {
	mid := s.Midpoint()
	n := s.Direction().Perp()
	probe := math.Min(depth, 0.05)
	if !boundary.Contains(mid.Add(n.Scale(probe))) {
		n = n.Scale(-1)
	}
	return mid.Add(n.Scale(depth))
}
