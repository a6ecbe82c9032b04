package extract

import (
	"math"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// snapper merges points closer than tol into shared vertex ids. Points are
// bucketed into grid cells of size 2*tol and each lookup scans the 3x3
// neighborhood, so the first point seen in a cluster becomes its
// representative.
type snapper struct {
	tol   float64
	cell  float64
	cells map[[2]int][]int
	pts   []geo.Point
}

func newSnapper(tol float64) *snapper {
	if tol <= 0 {
		tol = geo.Epsilon
	}
	return &snapper{tol: tol, cell: tol * 2, cells: make(map[[2]int][]int)}
}

func (s *snapper) key(p geo.Point) [2]int {
	return [2]int{int(math.Floor(p.X / s.cell)), int(math.Floor(p.Y / s.cell))}
}

// id returns the vertex id for p, creating one when nothing is within tol.
func (s *snapper) id(p geo.Point) int {
	k := s.key(p)
	best, bestDist := -1, math.Inf(1)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, id := range s.cells[[2]int{k[0] + dx, k[1] + dy}] {
				if d := s.pts[id].Distance(p); d <= s.tol && d < bestDist {
					best, bestDist = id, d
				}
			}
		}
	}
	if best >= 0 {
		return best
	}
	id := len(s.pts)
	s.pts = append(s.pts, p)
	s.cells[k] = append(s.cells[k], id)
	return id
}

// danglingEnds returns segment endpoints that no other segment shares.
func danglingEnds(segs []geo.Segment, tol float64) []geo.Point {
	sn := newSnapper(tol)
	degree := make(map[int]int)
	for _, s := range segs {
		degree[sn.id(s.A)]++
		degree[sn.id(s.B)]++
	}
	var out []geo.Point
	for id, p := range sn.pts {
		if degree[id] == 1 {
			out = append(out, p)
		}
	}
	return out
}
