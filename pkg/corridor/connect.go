package corridor

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// tieBreak separates equal-length connectors so the spanning tree does not
// depend on edge iteration order.
const tieBreak = 1e-9

// root is the virtual node joined to every entrance at zero cost.
const root = int64(0)

// span is a connector endpoint: a horizontal spine or an entrance anchor,
// the latter with x0 == x1.
type span struct {
	name      string
	x0, x1, y float64
}

// connect joins spines and entrances. Candidate connectors between every
// spine pair and every entrance-spine pair become weighted edges; the
// minimum spanning tree over them plus the root is kept, and spines the
// root cannot reach lose their îlots.
func (g *generator) connect(ctx context.Context, rows []*Row, spines []*spine) ([]Segment, error) {
	var spans []span
	for _, e := range g.fp.Entrances {
		spans = append(spans, span{name: e.ID, x0: e.Anchor.X, x1: e.Anchor.X, y: e.Anchor.Y})
	}
	entrances := len(spans)
	for _, s := range spines {
		spans = append(spans, span{name: s.ID, x0: s.x0, x1: s.x1, y: s.y})
	}

	cand := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	tree := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for id := int64(0); id < int64(len(spans)+1); id++ {
		cand.AddNode(simple.Node(id))
	}
	for i := 0; i < entrances; i++ {
		cand.SetWeightedEdge(cand.NewWeightedEdge(simple.Node(root), simple.Node(int64(i+1)), 0))
	}

	paths := make(map[[2]int64]geo.Polyline)
	seq := 0
	for i := range spans {
		if err := errors.FromContext(ctx, "corridor generation"); err != nil {
			return nil, err
		}
		for j := max(i+1, entrances); j < len(spans); j++ {
			pl, ok := g.connector(spans[i], spans[j], rows)
			if !ok {
				continue
			}
			seq++
			u, v := int64(i+1), int64(j+1)
			cand.SetWeightedEdge(cand.NewWeightedEdge(simple.Node(u), simple.Node(v), pl.Length()+float64(seq)*tieBreak))
			paths[[2]int64{u, v}] = pl
		}
	}

	// Kruskal copies every node of cand into tree.
	path.Kruskal(tree, cand)
	reach := path.DijkstraFrom(simple.Node(root), tree)

	var edges [][2]int64
	it := tree.WeightedEdges()
	for it.Next() {
		e := it.WeightedEdge()
		u, v := e.From().ID(), e.To().ID()
		if u > v {
			u, v = v, u
		}
		if u == root || math.IsInf(reach.WeightTo(u), 1) {
			continue
		}
		edges = append(edges, [2]int64{u, v})
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})

	out := []Segment{}
	for _, e := range edges {
		pl := paths[e]
		if len(pl.Points) < 2 {
			continue
		}
		out = append(out, Segment{
			ID:    fmt.Sprintf("c%d", len(out)+1),
			Kind:  KindConnector,
			Path:  pl,
			Width: g.width,
			From:  spans[e[0]-1].name,
			To:    spans[e[1]-1].name,
		})
	}

	for k, s := range spines {
		if !math.IsInf(reach.WeightTo(int64(entrances+k+1)), 1) {
			continue
		}
		reason := fmt.Sprintf("%s has no clear connection to an entrance", s.ID)
		if entrances == 0 {
			reason = "the plan has no entrance"
		}
		for _, r := range s.rows {
			g.lose(reason, r.Ilots...)
		}
	}
	return out, nil
}

// connector returns the shortest clear orthogonal path from a to b. Paths
// leave a horizontally, run vertically along a channel x, and join b
// horizontally. Channels are tried at the ends and overlap of both spans
// and just past the ends of rows lying between them, each shifted by up to
// MaxReroutes steps.
func (g *generator) connector(a, b span, rows []*Row) (geo.Polyline, bool) {
	var xs []float64
	if lo, hi := math.Max(a.x0, b.x0), math.Min(a.x1, b.x1); lo <= hi {
		xs = append(xs, (lo+hi)/2, lo, hi)
	}
	xs = append(xs, a.x0, a.x1, b.x0, b.x1)
	yLo, yHi := math.Min(a.y, b.y), math.Max(a.y, b.y)
	for _, r := range rows {
		if r.Bounds.Max.Y > yLo && r.Bounds.Min.Y < yHi {
			xs = append(xs, r.Bounds.Min.X-g.width/2, r.Bounds.Max.X+g.width/2)
		}
	}

	type candidate struct {
		pl  geo.Polyline
		len float64
	}
	var cands []candidate
	seen := make(map[int64]bool)
	for _, x := range xs {
		for k := 0; k <= g.cfg.MaxReroutes; k++ {
			for _, sign := range []float64{1, -1} {
				if k == 0 && sign < 0 {
					continue
				}
				xc := x + sign*float64(k)*g.cfg.RerouteStep
				key := int64(math.Round(xc * 1e6))
				if seen[key] {
					continue
				}
				seen[key] = true
				if pl, ok := orthogonal(a, b, xc); ok {
					cands = append(cands, candidate{pl, pl.Length()})
				}
			}
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].len < cands[j].len })
	for _, c := range cands {
		if g.check.Clear(c.pl, g.width) {
			return c.pl, true
		}
	}
	return geo.Polyline{}, false
}

// orthogonal builds the path a → (xc, a.y) → (xc, b.y) → b with repeated
// and collinear points removed. Paths that double back are rejected.
func orthogonal(a, b span, xc float64) (geo.Polyline, bool) {
	raw := []geo.Point{
		geo.Pt(clamp(xc, a.x0, a.x1), a.y),
		geo.Pt(xc, a.y),
		geo.Pt(xc, b.y),
		geo.Pt(clamp(xc, b.x0, b.x1), b.y),
	}
	pts := []geo.Point{raw[0]}
	for _, p := range raw[1:] {
		if !p.Near(pts[len(pts)-1], geo.Epsilon) {
			pts = append(pts, p)
		}
	}
	out := []geo.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		if i+1 < len(pts) {
			d1, d2 := pts[i].Sub(out[len(out)-1]), pts[i+1].Sub(pts[i])
			if math.Abs(d1.Cross(d2)) <= geo.Epsilon {
				if d1.Dot(d2) < 0 {
					return geo.Polyline{}, false
				}
				continue
			}
		}
		out = append(out, pts[i])
	}
	return geo.Polyline{Points: out}, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
