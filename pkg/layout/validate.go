package layout

import (
	"fmt"
	"math"

	"github.com/paulmach/orb/planar"

	"github.com/ChicagoDave/ilotplanner/pkg/corridor"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// overlapEps is the shared area below which two shapes only touch.
const overlapEps = 1e-6

// Validate re-checks a finished result independently of the stages that
// built it: îlot identity, pairwise overlap, containment, obstacle overlap,
// corridor clearance and metric consistency.
func Validate(r *Result) *validation.Report {
	rep := validation.NewReport()

	if r == nil {
		rep.AddError(validation.Result{
			Level:   validation.LevelLayout,
			Code:    errors.ErrCodeInvalidInput,
			Message: "layout result is nil",
		})
		return rep
	}
	if r.Plan.Boundary.IsEmpty() {
		rep.AddError(validation.Result{
			Level:   validation.LevelLayout,
			Code:    errors.ErrCodeNoBoundary,
			Message: "layout has no boundary",
			Path:    "plan.boundary",
		})
		return rep
	}

	idx, err := spatial.FromPlan(&r.Plan)
	if err != nil {
		rep.AddError(validation.Result{
			Level:   validation.LevelLayout,
			Code:    errors.ErrCodeInvalidInput,
			Message: fmt.Sprintf("plan elements cannot be indexed: %v", err),
			Path:    "plan",
		})
		return rep
	}

	validateIlotIDs(r, rep)
	validateIlotOverlap(r, idx, rep)
	validateContainment(r, rep)
	validateObstacles(r, idx, rep)
	validateCorridors(r, idx, rep)
	validateMetrics(r, rep)

	return rep
}

func validateIlotIDs(r *Result, rep *validation.Report) {
	seen := make(map[string]int, len(r.Ilots))
	for i, il := range r.Ilots {
		if il.ID == "" {
			rep.AddError(validation.Result{
				Level:    validation.LevelLayout,
				Code:     errors.ErrCodeInvalidInput,
				Message:  fmt.Sprintf("îlot at index %d has empty ID", i),
				Path:     fmt.Sprintf("ilots[%d].id", i),
				Expected: "non-empty string",
			})
			continue
		}
		if prev, exists := seen[il.ID]; exists {
			rep.AddError(validation.Result{
				Level:       validation.LevelLayout,
				Code:        errors.ErrCodeInvalidInput,
				Message:     fmt.Sprintf("duplicate îlot ID %q at indices %d and %d", il.ID, prev, i),
				Path:        fmt.Sprintf("ilots[%d].id", i),
				ActualValue: il.ID,
			})
		}
		seen[il.ID] = i
		if il.Rect.IsEmpty() {
			rep.AddError(validation.Result{
				Level:       validation.LevelLayout,
				Code:        errors.ErrCodeInvalidInput,
				Message:     fmt.Sprintf("îlot %s has an empty footprint", il.ID),
				Path:        fmt.Sprintf("ilots[%d].rect", i),
				ActualValue: il.Rect,
			})
		}
	}
}

// validateIlotOverlap indexes the îlots one by one and asks the index for
// earlier îlots sharing area with each new one.
func validateIlotOverlap(r *Result, idx *spatial.Index, rep *validation.Report) {
	for i, il := range r.Ilots {
		poly := il.Rect.Polygon()
		for _, other := range idx.QueryOverlapping(poly, spatial.KindIlot) {
			it, _ := idx.Get(other)
			if a := geo.OverlapArea(it.Polygon, poly); a > overlapEps {
				rep.AddError(validation.Result{
					Level:        validation.LevelLayout,
					Code:         errors.ErrCodeInvalidInput,
					Message:      fmt.Sprintf("îlots %s and %s overlap by %.4f m²", other, il.ID, a),
					Path:         fmt.Sprintf("ilots[%d]", i),
					ConflictWith: other,
					Subjects:     []string{other, il.ID},
				})
			}
		}
		// Duplicates were already reported.
		_ = idx.Insert(il.ID, spatial.KindIlot, poly)
	}
}

func validateContainment(r *Result, rep *validation.Report) {
	b := r.Plan.Boundary
	for i, il := range r.Ilots {
		inside := true
		for _, v := range il.Rect.Polygon().Vertices {
			if !b.Covers(v, geo.Epsilon) {
				inside = false
				break
			}
		}
		if !inside || geo.OverlapArea(b, il.Rect.Polygon()) < il.Area()-overlapEps {
			rep.AddError(validation.Result{
				Level:    validation.LevelLayout,
				Code:     errors.ErrCodeOutsideBoundary,
				Message:  fmt.Sprintf("îlot %s leaves the boundary", il.ID),
				Path:     fmt.Sprintf("ilots[%d].rect", i),
				Subjects: []string{il.ID},
			})
			continue
		}
		if len(r.FreeSpace) > 0 && !inFreeSpace(r, il.Center()) {
			rep.AddError(validation.Result{
				Level:    validation.LevelLayout,
				Code:     errors.ErrCodeOutsideBoundary,
				Message:  fmt.Sprintf("îlot %s is not centred in free space", il.ID),
				Path:     fmt.Sprintf("ilots[%d].rect", i),
				Subjects: []string{il.ID},
			})
		}
	}
}

func inFreeSpace(r *Result, p geo.Point) bool {
	op := geo.OrbPoint(p)
	for _, reg := range r.FreeSpace {
		if planar.PolygonContains(reg.Polygon, op) {
			return true
		}
	}
	return false
}

func validateObstacles(r *Result, idx *spatial.Index, rep *validation.Report) {
	for i, il := range r.Ilots {
		poly := il.Rect.Polygon()
		for _, id := range idx.QueryOverlapping(poly, spatial.KindWall, spatial.KindRestricted, spatial.KindDoor) {
			it, _ := idx.Get(id)
			if geo.OverlapArea(it.Polygon, poly) > overlapEps {
				rep.AddError(validation.Result{
					Level:        validation.LevelLayout,
					Code:         errors.ErrCodeInvalidInput,
					Message:      fmt.Sprintf("îlot %s overlaps %s %s", il.ID, it.Kind, id),
					Path:         fmt.Sprintf("ilots[%d].rect", i),
					ConflictWith: id,
					Subjects:     []string{il.ID},
				})
			}
		}
	}
}

func validateCorridors(r *Result, idx *spatial.Index, rep *validation.Report) {
	known := make(map[string]bool, len(r.Ilots)+len(r.Corridors)+len(r.Plan.Entrances)+len(r.Rows))
	for _, il := range r.Ilots {
		known[il.ID] = true
	}
	for _, e := range r.Plan.Entrances {
		known[e.ID] = true
	}
	for _, row := range r.Rows {
		known[row.ID] = true
	}
	for _, c := range r.Corridors {
		if c.Kind == corridor.KindSpine {
			known[c.ID] = true
		}
	}

	check := corridor.NewChecker(r.Plan.Boundary, idx)
	for i, c := range r.Corridors {
		path := fmt.Sprintf("corridors[%d]", i)
		if len(c.Path.Points) < 2 || c.Width <= 0 {
			rep.AddError(validation.Result{
				Level:       validation.LevelLayout,
				Code:        errors.ErrCodeInvalidInput,
				Message:     fmt.Sprintf("corridor %s is degenerate", c.ID),
				Path:        path,
				ActualValue: c.Width,
			})
			continue
		}
		for _, end := range []string{c.From, c.To} {
			if end != "" && !known[end] {
				rep.AddError(validation.Result{
					Level:       validation.LevelLayout,
					Code:        errors.ErrCodeInvalidInput,
					Message:     fmt.Sprintf("corridor %s references unknown element %q", c.ID, end),
					Path:        path,
					ActualValue: end,
					Expected:    "îlot, row, spine or entrance ID",
				})
			}
		}
		if !check.Clear(c.Path, c.Width) {
			blockers := check.Blockers(c.Path, c.Width)
			msg := fmt.Sprintf("corridor %s leaves the boundary", c.ID)
			if len(blockers) > 0 {
				msg = fmt.Sprintf("corridor %s crosses %v", c.ID, blockers)
			}
			rep.AddError(validation.Result{
				Level:    validation.LevelLayout,
				Code:     errors.ErrCodeCorridorUnreachable,
				Message:  msg,
				Path:     path,
				Subjects: append([]string{c.ID}, blockers...),
			})
		}
	}

	for _, id := range r.Metrics.Unreachable {
		if !known[id] {
			rep.AddWarning(validation.Result{
				Level:   validation.LevelLayout,
				Code:    errors.ErrCodeCorridorUnreachable,
				Message: fmt.Sprintf("unreachable îlot %q is not part of the layout", id),
				Path:    "metrics.unreachable",
			})
		}
	}
}

func validateMetrics(r *Result, rep *validation.Report) {
	m := r.Metrics
	if m.IlotCount != len(r.Ilots) {
		rep.AddError(validation.Result{
			Level:       validation.LevelLayout,
			Code:        errors.ErrCodeInvalidInput,
			Message:     "îlot count does not match the îlot list",
			Path:        "metrics.ilot_count",
			ActualValue: m.IlotCount,
			Expected:    fmt.Sprintf("%d", len(r.Ilots)),
		})
	}
	total := 0
	for _, n := range m.ClassCounts {
		total += n
	}
	if total != len(r.Ilots) {
		rep.AddError(validation.Result{
			Level:       validation.LevelLayout,
			Code:        errors.ErrCodeInvalidInput,
			Message:     "class counts do not add up to the îlot count",
			Path:        "metrics.class_counts",
			ActualValue: total,
			Expected:    fmt.Sprintf("%d", len(r.Ilots)),
		})
	}
	if m.FreeArea > 0 && m.IlotArea > m.FreeArea*(1+1e-9)+overlapEps {
		rep.AddWarning(validation.Result{
			Level:       validation.LevelLayout,
			Message:     "îlot area exceeds the free area",
			Path:        "metrics.ilot_area",
			ActualValue: m.IlotArea,
			Expected:    fmt.Sprintf("<= %.3f", m.FreeArea),
		})
	}
	if math.IsNaN(m.Coverage) || m.Coverage < 0 {
		rep.AddError(validation.Result{
			Level:       validation.LevelLayout,
			Code:        errors.ErrCodeInvalidInput,
			Message:     "coverage is not a valid ratio",
			Path:        "metrics.coverage",
			ActualValue: m.Coverage,
		})
	}
}
