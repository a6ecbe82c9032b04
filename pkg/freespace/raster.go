package freespace

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// grid is the occupancy raster. Cell (i, j) covers
// [ox+i*res, ox+(i+1)*res] x [oy+j*res, oy+(j+1)*res].
type grid struct {
	ox, oy float64
	res    float64
	nx, ny int
	free   []bool
}

func (g *grid) at(i, j int) int { return j*g.nx + i }

func (g *grid) cell(i, j int) geo.Rect {
	x, y := g.ox+float64(i)*g.res, g.oy+float64(j)*g.res
	return geo.R(x, y, x+g.res, y+g.res)
}

// rasterize marks a cell free when the whole cell passes the static
// obstacle test. Placed îlots are ignored.
func (fs *FreeSpace) rasterize(ctx context.Context) (*grid, error) {
	b := fs.Plan.Boundary.Bounds()
	res := fs.Resolution
	if res <= 0 {
		res = 0.25
	}
	g := &grid{
		ox:  b.Min.X,
		oy:  b.Min.Y,
		res: res,
		nx:  int(math.Ceil(b.Width()/res - eps)),
		ny:  int(math.Ceil(b.Height()/res - eps)),
	}
	if g.nx <= 0 || g.ny <= 0 {
		return g, nil
	}
	g.free = make([]bool, g.nx*g.ny)
	for j := 0; j < g.ny; j++ {
		if err := errors.FromContext(ctx, "free space resolution"); err != nil {
			return nil, err
		}
		for i := 0; i < g.nx; i++ {
			g.free[g.at(i, j)] = fs.admits(g.cell(i, j), false, nil)
		}
	}
	return g, nil
}

// components labels 4-connected free cells. Labels are assigned in scan
// order from the top row down, so region numbering runs top to bottom.
// Blocked cells carry -1.
func (g *grid) components() (labels []int, sizes []int) {
	labels = make([]int, len(g.free))
	for k := range labels {
		labels[k] = -1
	}
	var stack [][2]int
	for j := g.ny - 1; j >= 0; j-- {
		for i := 0; i < g.nx; i++ {
			k := g.at(i, j)
			if !g.free[k] || labels[k] >= 0 {
				continue
			}
			label := len(sizes)
			sizes = append(sizes, 0)
			labels[k] = label
			stack = append(stack[:0], [2]int{i, j})
			for len(stack) > 0 {
				c := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				sizes[label]++
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					ni, nj := c[0]+d[0], c[1]+d[1]
					if ni < 0 || nj < 0 || ni >= g.nx || nj >= g.ny {
						continue
					}
					nk := g.at(ni, nj)
					if g.free[nk] && labels[nk] < 0 {
						labels[nk] = label
						stack = append(stack, [2]int{ni, nj})
					}
				}
			}
		}
	}
	return labels, sizes
}

type lattice [2]int

type edge struct{ from, to lattice }

func (e edge) dir() lattice { return lattice{e.to[0] - e.from[0], e.to[1] - e.from[1]} }

// trace returns the outline of one labelled region. Every cell side that
// borders a cell outside the region becomes a directed edge with the region
// on its left; chaining them with a left-turn preference yields a CCW outer
// ring and CW holes, and keeps diagonal pinches apart.
func (g *grid) trace(labels []int, label int) orb.Polygon {
	in := func(i, j int) bool {
		return i >= 0 && j >= 0 && i < g.nx && j < g.ny && labels[g.at(i, j)] == label
	}

	out := make(map[lattice][]edge)
	var order []edge
	add := func(a, b lattice) {
		e := edge{a, b}
		out[a] = append(out[a], e)
		order = append(order, e)
	}
	for j := 0; j < g.ny; j++ {
		for i := 0; i < g.nx; i++ {
			if !in(i, j) {
				continue
			}
			if !in(i, j-1) {
				add(lattice{i, j}, lattice{i + 1, j})
			}
			if !in(i+1, j) {
				add(lattice{i + 1, j}, lattice{i + 1, j + 1})
			}
			if !in(i, j+1) {
				add(lattice{i + 1, j + 1}, lattice{i, j + 1})
			}
			if !in(i-1, j) {
				add(lattice{i, j + 1}, lattice{i, j})
			}
		}
	}

	used := make(map[edge]bool, len(order))
	var rings [][]lattice
	for _, start := range order {
		if used[start] {
			continue
		}
		used[start] = true
		ring := []lattice{start.from}
		cur := start
		for {
			next, ok := pickTurn(cur, out[cur.to], used, start)
			if !ok || next == start {
				break
			}
			used[next] = true
			ring = append(ring, next.from)
			cur = next
		}
		rings = append(rings, ring)
	}

	var outer orb.Ring
	var holes []orb.Ring
	bestArea := 0.0
	for _, r := range rings {
		a := latticeArea(r)
		world := g.world(r)
		switch {
		case a > bestArea:
			outer, bestArea = world, a
		case a < 0:
			holes = append(holes, world)
		}
	}
	poly := orb.Polygon{outer}
	return append(poly, holes...)
}

// pickTurn chooses the continuation at the end of cur: left, then straight,
// then right. The start edge is a valid continuation so the ring can close.
func pickTurn(cur edge, cands []edge, used map[edge]bool, start edge) (edge, bool) {
	d := cur.dir()
	prefs := []lattice{{-d[1], d[0]}, d, {d[1], -d[0]}}
	for _, want := range prefs {
		for _, c := range cands {
			if c.dir() == want && (!used[c] || c == start) {
				return c, true
			}
		}
	}
	return edge{}, false
}

func latticeArea(r []lattice) float64 {
	s := 0
	for k := range r {
		a, b := r[k], r[(k+1)%len(r)]
		s += a[0]*b[1] - b[0]*a[1]
	}
	return float64(s) / 2
}

// world converts a lattice ring to a closed ring in drawing units, with
// collinear runs merged.
func (g *grid) world(r []lattice) orb.Ring {
	ls := make(orb.LineString, 0, len(r)+1)
	for _, p := range r {
		ls = append(ls, orb.Point{g.ox + float64(p[0])*g.res, g.oy + float64(p[1])*g.res})
	}
	ls = append(ls, ls[0])
	if s, ok := simplify.DouglasPeucker(1e-9).Simplify(ls.Clone()).(orb.LineString); ok && len(s) >= 4 {
		ls = s
	}
	return orb.Ring(ls)
}
