package corridor

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// joinTolerance is how close a segment end must come to another segment's
// centreline for the two to count as joined.
const joinTolerance = 1e-6

// joinCell is the bucket size of the endpoint grid (metres).
const joinCell = 2.0

// Connectivity returns, for every segment that joins another, the sorted
// IDs of the segments it joins. Two segments join when an end of one lies
// on the centreline of the other, which covers both shared ends and the
// T-junctions where links and connectors meet a spine.
func Connectivity(segments []Segment) map[string][]string {
	cellKey := func(x, y float64) [2]int {
		return [2]int{int(math.Floor(x / joinCell)), int(math.Floor(y / joinCell))}
	}

	// Each segment is filed under every cell its padded bounds touch.
	buckets := make(map[[2]int][]int)
	for i, s := range segments {
		if len(s.Path.Points) == 0 {
			continue
		}
		b := pathBounds(s.Path).Expand(joinTolerance)
		lo, hi := cellKey(b.Min.X, b.Min.Y), cellKey(b.Max.X, b.Max.Y)
		for cx := lo[0]; cx <= hi[0]; cx++ {
			for cy := lo[1]; cy <= hi[1]; cy++ {
				k := [2]int{cx, cy}
				buckets[k] = append(buckets[k], i)
			}
		}
	}

	conn := make(map[string]map[string]bool)
	link := func(a, b string) {
		if conn[a] == nil {
			conn[a] = make(map[string]bool)
		}
		conn[a][b] = true
	}
	for i, s := range segments {
		n := len(s.Path.Points)
		if n == 0 {
			continue
		}
		for _, pt := range []geo.Point{s.Path.Points[0], s.Path.Points[n-1]} {
			for _, j := range buckets[cellKey(pt.X, pt.Y)] {
				if j == i {
					continue
				}
				other := segments[j]
				if distanceToPath(pt, other.Path) <= joinTolerance {
					link(s.ID, other.ID)
					link(other.ID, s.ID)
				}
			}
		}
	}

	result := make(map[string][]string, len(conn))
	for id, neighbours := range conn {
		ids := make([]string, 0, len(neighbours))
		for nid := range neighbours {
			ids = append(ids, nid)
		}
		sort.Strings(ids)
		result[id] = ids
	}
	return result
}

// Components groups segments into connected pieces of the network. Pieces
// are ordered by their first segment, and segments within a piece keep
// their network order.
func Components(segments []Segment) [][]string {
	if len(segments) == 0 {
		return nil
	}
	pos := make(map[string]int64, len(segments))
	g := simple.NewUndirectedGraph()
	for i, s := range segments {
		pos[s.ID] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for id, neighbours := range Connectivity(segments) {
		for _, nid := range neighbours {
			u, v := pos[id], pos[nid]
			if u != v && !g.HasEdgeBetween(u, v) {
				g.SetEdge(g.NewEdge(simple.Node(u), simple.Node(v)))
			}
		}
	}

	var out [][]string
	for _, cc := range topo.ConnectedComponents(g) {
		idx := make([]int, len(cc))
		for k, n := range cc {
			idx[k] = int(n.ID())
		}
		sort.Ints(idx)
		ids := make([]string, len(idx))
		for k, i := range idx {
			ids[k] = segments[i].ID
		}
		out = append(out, ids)
	}
	sort.Slice(out, func(a, b int) bool { return pos[out[a][0]] < pos[out[b][0]] })
	return out
}

func pathBounds(pl geo.Polyline) geo.Rect {
	r := geo.Rect{Min: pl.Points[0], Max: pl.Points[0]}
	for _, p := range pl.Points[1:] {
		r = r.ExtendPoint(p)
	}
	return r
}

func distanceToPath(p geo.Point, pl geo.Polyline) float64 {
	if len(pl.Points) == 1 {
		return p.Distance(pl.Points[0])
	}
	d := math.Inf(1)
	for _, s := range pl.Segments() {
		d = math.Min(d, s.DistanceTo(p))
	}
	return d
}
