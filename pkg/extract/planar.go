package extract

import (
	"math"
	"sort"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

type edgeKind uint8

const (
	edgeWall edgeKind = iota
	edgeOpening
	edgeBridge
)

type inputEdge struct {
	seg  geo.Segment
	kind edgeKind
}

// planarGraph is the noded wall network: every crossing and T-junction is a
// vertex and no two edges cross.
type planarGraph struct {
	pts   []geo.Point
	nbrs  map[int][]int
	kinds map[[2]int]edgeKind
}

type face struct {
	verts []int
	poly  geo.Polygon
	area  float64 // signed; bounded faces are positive
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// buildGraph nodes the edges at intersections and snaps endpoints within
// tol into shared vertices.
func buildGraph(edges []inputEdge, tol float64) *planarGraph {
	g := &planarGraph{nbrs: make(map[int][]int), kinds: make(map[[2]int]edgeKind)}
	sn := newSnapper(tol)
	for _, e := range splitEdges(edges, tol) {
		a, b := sn.id(e.seg.A), sn.id(e.seg.B)
		g.addEdge(a, b, e.kind)
	}
	g.pts = sn.pts
	return g
}

func (g *planarGraph) addEdge(a, b int, kind edgeKind) bool {
	if a == b {
		return false
	}
	k := edgeKey(a, b)
	if prev, ok := g.kinds[k]; ok {
		if kind < prev {
			g.kinds[k] = kind
		}
		return false
	}
	g.kinds[k] = kind
	g.nbrs[a] = append(g.nbrs[a], b)
	g.nbrs[b] = append(g.nbrs[b], a)
	return true
}

func (g *planarGraph) removeEdge(a, b int) {
	delete(g.kinds, edgeKey(a, b))
	g.nbrs[a] = without(g.nbrs[a], b)
	g.nbrs[b] = without(g.nbrs[b], a)
}

func without(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// splitEdges cuts every edge at the points where other edges cross it or
// end on it. Candidate pairs come from a sweep over x.
func splitEdges(edges []inputEdge, tol float64) []inputEdge {
	n := len(edges)
	order := make([]int, n)
	boxes := make([]geo.Rect, n)
	for i, e := range edges {
		order[i] = i
		boxes[i] = e.seg.Bounds().Expand(tol)
	}
	sort.SliceStable(order, func(a, b int) bool { return boxes[order[a]].Min.X < boxes[order[b]].Min.X })

	cuts := make([][]float64, n)
	addCut := func(i int, p geo.Point) {
		s := edges[i].seg
		if s.DistanceTo(p) > tol {
			return
		}
		cuts[i] = append(cuts[i], s.Project(p))
	}
	for oi, i := range order {
		for _, j := range order[oi+1:] {
			if boxes[j].Min.X > boxes[i].Max.X {
				break
			}
			if !boxes[i].Intersects(boxes[j]) {
				continue
			}
			si, sj := edges[i].seg, edges[j].seg
			if p, ok := si.Intersection(sj); ok {
				addCut(i, p)
				addCut(j, p)
			}
			addCut(i, sj.A)
			addCut(i, sj.B)
			addCut(j, si.A)
			addCut(j, si.B)
		}
	}

	out := make([]inputEdge, 0, n)
	for i, e := range edges {
		l := e.seg.Length()
		if l < geo.Epsilon {
			continue
		}
		minT := tol / l
		ts := []float64{0}
		sort.Float64s(cuts[i])
		for _, t := range cuts[i] {
			if t > minT && t < 1-minT && t-ts[len(ts)-1] > minT {
				ts = append(ts, t)
			}
		}
		ts = append(ts, 1)
		for k := 1; k < len(ts); k++ {
			out = append(out, inputEdge{
				seg:  geo.Seg(e.seg.A.Lerp(e.seg.B, ts[k-1]), e.seg.A.Lerp(e.seg.B, ts[k])),
				kind: e.kind,
			})
		}
	}
	return out
}

func (g *planarGraph) degree(v int) int { return len(g.nbrs[v]) }

func (g *planarGraph) vertices() []int {
	vs := make([]int, 0, len(g.nbrs))
	for v, ns := range g.nbrs {
		if len(ns) > 0 {
			vs = append(vs, v)
		}
	}
	sort.Ints(vs)
	return vs
}

// bridgeGaps joins mutually nearest dangling vertices no more than maxGap
// apart, provided the bridge crosses no existing edge. It returns the
// number of bridges added.
func (g *planarGraph) bridgeGaps(maxGap float64) int {
	var dangling []int
	for _, v := range g.vertices() {
		if g.degree(v) == 1 {
			dangling = append(dangling, v)
		}
	}
	nearest := func(u int) int {
		best, bestDist := -1, maxGap
		for _, v := range dangling {
			if v == u || g.nbrs[u][0] == v {
				continue
			}
			if d := g.pts[u].Distance(g.pts[v]); d <= bestDist {
				if d < bestDist || best < 0 {
					best, bestDist = v, d
				}
			}
		}
		return best
	}

	added := 0
	for _, u := range dangling {
		v := nearest(u)
		if v < u || nearest(v) != u {
			continue
		}
		bridge := geo.Seg(g.pts[u], g.pts[v])
		if g.crosses(bridge, u, v) {
			continue
		}
		if g.addEdge(u, v, edgeBridge) {
			added++
		}
	}
	return added
}

func (g *planarGraph) crosses(s geo.Segment, u, v int) bool {
	for k := range g.kinds {
		if k[0] == u || k[1] == u || k[0] == v || k[1] == v {
			continue
		}
		if s.Intersects(geo.Seg(g.pts[k[0]], g.pts[k[1]])) {
			return true
		}
	}
	return false
}

// prune removes dangling edges until every vertex closes a cycle.
func (g *planarGraph) prune() {
	var queue []int
	for _, v := range g.vertices() {
		if g.degree(v) == 1 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if g.degree(v) != 1 {
			continue
		}
		w := g.nbrs[v][0]
		g.removeEdge(v, w)
		if g.degree(w) == 1 {
			queue = append(queue, w)
		}
	}
}

// faces walks every half-edge once. Leaving each vertex by the edge just
// clockwise of the one arrived on keeps the face on the left, so bounded
// faces come out counterclockwise and each component's outer face
// clockwise.
func (g *planarGraph) faces() []face {
	sorted := make(map[int][]int, len(g.nbrs))
	pos := make(map[[2]int]int)
	for _, v := range g.vertices() {
		ns := append([]int(nil), g.nbrs[v]...)
		sort.Slice(ns, func(a, b int) bool {
			return g.pts[ns[a]].Sub(g.pts[v]).Angle() < g.pts[ns[b]].Sub(g.pts[v]).Angle()
		})
		sorted[v] = ns
		for i, w := range ns {
			pos[[2]int{v, w}] = i
		}
	}

	visited := make(map[[2]int]bool)
	limit := 2*len(g.kinds) + 2
	var out []face
	for _, u := range g.vertices() {
		for _, v := range sorted[u] {
			if visited[[2]int{u, v}] {
				continue
			}
			var cycle []int
			a, b := u, v
			for steps := 0; steps < limit; steps++ {
				visited[[2]int{a, b}] = true
				cycle = append(cycle, a)
				ns := sorted[b]
				i := pos[[2]int{b, a}]
				a, b = b, ns[(i-1+len(ns))%len(ns)]
				if a == u && b == v {
					break
				}
			}
			pts := make([]geo.Point, len(cycle))
			for i, id := range cycle {
				pts[i] = g.pts[id]
			}
			poly := geo.NewPolygon(pts...)
			out = append(out, face{verts: cycle, poly: poly, area: poly.SignedArea()})
		}
	}
	return out
}

// cleanRing drops zero-width spikes and collinear vertices.
func cleanRing(verts []int, pts []geo.Point) []int {
	ring := append([]int(nil), verts...)
	for changed := true; changed && len(ring) >= 3; {
		changed = false
		for i := 0; i < len(ring) && len(ring) >= 3; i++ {
			n := len(ring)
			prev, cur, next := ring[(i-1+n)%n], ring[i], ring[(i+1)%n]
			if prev == next {
				ring = removeAt(ring, i, (i+1)%n)
				changed = true
				break
			}
			d1 := pts[cur].Sub(pts[prev])
			d2 := pts[next].Sub(pts[cur])
			if math.Abs(d1.Cross(d2)) <= geo.Epsilon*math.Max(1, d1.Length()*d2.Length()) && d1.Dot(d2) > 0 {
				ring = append(ring[:i], ring[i+1:]...)
				changed = true
				break
			}
		}
	}
	return ring
}

// removeAt deletes indices i and j from s.
func removeAt(s []int, i, j int) []int {
	out := make([]int, 0, len(s)-2)
	for k, v := range s {
		if k != i && k != j {
			out = append(out, v)
		}
	}
	return out
}

func ringPolygon(verts []int, pts []geo.Point) geo.Polygon {
	out := make([]geo.Point, len(verts))
	for i, id := range verts {
		out[i] = pts[id]
	}
	return geo.NewPolygon(out...)
}
