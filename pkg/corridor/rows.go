package corridor

import (
	"fmt"
	"math"
	"sort"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/placement"
)

// Row is a run of îlots whose centres share a horizontal band and whose
// orientation matches.
type Row struct {
	ID          string   `json:"id"`
	Ilots       []string `json:"ilots"`
	Bounds      geo.Rect `json:"bounds"`
	Orientation int      `json:"orientation"`
	Spine       string   `json:"spine,omitempty"`

	members []placement.Ilot
}

func (r *Row) add(il placement.Ilot) {
	if len(r.members) == 0 {
		r.Bounds = il.Rect
	} else {
		r.Bounds = r.Bounds.Union(il.Rect)
	}
	r.members = append(r.members, il)
	r.Ilots = append(r.Ilots, il.ID)
}

// Rows groups îlots into rows ordered top to bottom, then left to right.
// Two îlots are neighbours when their orientations match, their centres lie
// within tol vertically and less than maxGap separates them sideways, since
// a corridor could pass through a wider gap. A row is a connected run of
// neighbours.
func Rows(ilots []placement.Ilot, tol, maxGap float64) []*Row {
	order := append([]placement.Ilot(nil), ilots...)
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := order[a].Center(), order[b].Center()
		if ca.Y != cb.Y {
			return ca.Y > cb.Y
		}
		return ca.X < cb.X
	})

	parent := make([]int, len(order))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i, a := range order {
		for j := i + 1; j < len(order); j++ {
			b := order[j]
			if a.Center().Y-b.Center().Y > tol+geo.Epsilon {
				break
			}
			if a.Orientation != b.Orientation {
				continue
			}
			if dx, _ := a.Rect.Gaps(b.Rect); dx >= maxGap-geo.Epsilon {
				continue
			}
			// The smaller root wins so rows keep the order of their first îlot.
			if ra, rb := find(i), find(j); ra != rb {
				parent[max(ra, rb)] = min(ra, rb)
			}
		}
	}

	byRoot := make(map[int]*Row)
	var rows []*Row
	for i, il := range order {
		root := find(i)
		r, ok := byRoot[root]
		if !ok {
			r = &Row{ID: fmt.Sprintf("row%d", len(rows)+1), Orientation: il.Orientation}
			byRoot[root] = r
			rows = append(rows, r)
		}
		r.members = append(r.members, il)
	}
	for _, r := range rows {
		members := r.members
		r.members = nil
		sort.SliceStable(members, func(i, j int) bool { return members[i].Rect.Min.X < members[j].Rect.Min.X })
		for _, il := range members {
			r.add(il)
		}
	}
	return rows
}

// spine is a corridor between or beside rows.
type spine struct {
	Segment
	y, x0, x1 float64
	rows      []*Row
}

// spines pairs each row with the nearest row below it when they overlap
// horizontally and leave at least a corridor width between them. Rows left
// unpaired, or whose shared spine is blocked, get a spine along their lower
// side, or their upper side when only that one is clear.
func (g *generator) spines(rows []*Row) []*spine {
	var out []*spine
	done := make(map[*Row]bool)
	for _, a := range rows {
		if done[a] {
			continue
		}
		done[a] = true
		if b := partner(rows, a, g.width); b != nil && !done[b] {
			y := (a.Bounds.Min.Y + b.Bounds.Max.Y) / 2
			if s := g.spine(len(out), y, math.Min(a.Bounds.Min.X, b.Bounds.Min.X), math.Max(a.Bounds.Max.X, b.Bounds.Max.X), a, b); s != nil {
				done[b] = true
				out = append(out, s)
				continue
			}
		}
		y := a.Bounds.Min.Y - g.width/2
		if !g.check.Clear(horizontal(y, a.Bounds.Min.X, a.Bounds.Max.X), g.width) {
			if above := a.Bounds.Max.Y + g.width/2; g.check.Clear(horizontal(above, a.Bounds.Min.X, a.Bounds.Max.X), g.width) {
				y = above
			}
		}
		if s := g.spine(len(out), y, a.Bounds.Min.X, a.Bounds.Max.X, a); s != nil {
			out = append(out, s)
			continue
		}
		g.lose(fmt.Sprintf("no clear spine beside %s", a.ID), a.Ilots...)
	}
	return out
}

// partner returns the nearest row fully below a that overlaps it
// horizontally, provided the gap between them holds a corridor.
func partner(rows []*Row, a *Row, width float64) *Row {
	var best *Row
	for _, b := range rows {
		if b == a || b.Bounds.Max.Y > a.Bounds.Min.Y+geo.Epsilon {
			continue
		}
		overlap := math.Min(a.Bounds.Max.X, b.Bounds.Max.X) - math.Max(a.Bounds.Min.X, b.Bounds.Min.X)
		if overlap <= geo.Epsilon {
			continue
		}
		if best == nil || b.Bounds.Max.Y > best.Bounds.Max.Y {
			best = b
		}
	}
	if best == nil || a.Bounds.Min.Y-best.Bounds.Max.Y < width-geo.Epsilon {
		return nil
	}
	return best
}

func horizontal(y, x0, x1 float64) geo.Polyline {
	return geo.NewPolyline(geo.Pt(x0, y), geo.Pt(x1, y))
}

// spine returns the n-th spine along y from x0 to x1, rerouted vertically
// when blocked, or nil when no clear position is found.
func (g *generator) spine(n int, y, x0, x1 float64, rows ...*Row) *spine {
	pl, ok := g.check.reroute(horizontal(y, x0, x1), g.width, geo.Pt(0, 1), g.cfg.RerouteStep, g.cfg.MaxReroutes, -1)
	if !ok {
		return nil
	}
	s := &spine{
		Segment: Segment{
			ID:    fmt.Sprintf("s%d", n+1),
			Kind:  KindSpine,
			Path:  pl,
			Width: g.width,
			From:  rows[0].ID,
		},
		y:    pl.Points[0].Y,
		x0:   x0,
		x1:   x1,
		rows: rows,
	}
	if len(rows) > 1 {
		s.To = rows[1].ID
	}
	for _, r := range rows {
		r.Spine = s.ID
	}
	return s
}

// links joins each îlot to its row's spine with a corridor-wide
// perpendicular segment from the midpoint of the facing edge. Îlots whose
// edge already lies on the spine need none. A blocked link may shift along
// the face as long as its centreline stays on it.
func (g *generator) links(rows []*Row, spines []*spine) []Segment {
	byID := make(map[string]*spine, len(spines))
	for _, s := range spines {
		byID[s.ID] = s
	}
	out := []Segment{}
	for _, r := range rows {
		s := byID[r.Spine]
		if s == nil {
			continue
		}
		for _, il := range r.members {
			c := il.Center()
			edge, side := il.Rect.Min.Y, s.y+g.width/2
			if s.y > c.Y {
				edge, side = il.Rect.Max.Y, s.y-g.width/2
			}
			if math.Abs(edge-side) <= 1e-6 {
				continue
			}
			base := geo.NewPolyline(geo.Pt(c.X, edge), geo.Pt(c.X, s.y))
			pl, ok := g.check.reroute(base, g.width, geo.Pt(1, 0), g.cfg.RerouteStep, g.cfg.MaxReroutes, il.Rect.Width()/2)
			if !ok {
				g.lose(fmt.Sprintf("link to %s blocked", s.ID), il.ID)
				continue
			}
			out = append(out, Segment{
				ID:    fmt.Sprintf("l%d", len(out)+1),
				Kind:  KindLink,
				Path:  pl,
				Width: g.width,
				From:  il.ID,
				To:    s.ID,
			})
		}
	}
	return out
}
