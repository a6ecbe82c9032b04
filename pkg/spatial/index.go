// Package spatial provides the R-tree index that every placement and
// corridor check goes through.
//
// Queries are two-phase: a padded bounding-box search in the tree, then an
// exact polygon test on each candidate. The box phase may return extra
// candidates but never misses one, so the exact phase sees every real hit.
//
// An Index belongs to a single analysis task and is not safe for concurrent
// use.
package spatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// Kind tags what an indexed item represents.
type Kind string

const (
	KindWall       Kind = "wall"
	KindRestricted Kind = "restricted"
	KindDoor       Kind = "door"
	KindEntrance   Kind = "entrance"
	KindIlot       Kind = "ilot"
)

// Obstacles are the kinds fixed by the floor plan.
var Obstacles = []Kind{KindWall, KindRestricted, KindDoor, KindEntrance}

const (
	// pad keeps degenerate boxes valid and absorbs rounding at box edges.
	pad = 1e-6

	minBranch = 25
	maxBranch = 50
)

// Item is one indexed polygon.
type Item struct {
	ID      string
	Kind    Kind
	Polygon geo.Polygon
	seq     int
	box     rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (it *Item) Bounds() rtreego.Rect {
	return it.box
}

// Index is an R-tree over polygons keyed by id.
type Index struct {
	tree  *rtreego.Rtree
	items map[string]*Item
	seq   int
}

// New returns an empty index.
func New() *Index {
	return &Index{
		tree:  rtreego.NewTree(2, minBranch, maxBranch),
		items: make(map[string]*Item),
	}
}

// toRect converts r to an rtreego rectangle grown by margin on every side.
func toRect(r geo.Rect, margin float64) rtreego.Rect {
	r = r.Expand(margin + pad)
	rect, _ := rtreego.NewRect(
		rtreego.Point{r.Min.X, r.Min.Y},
		[]float64{r.Width(), r.Height()},
	)
	return rect
}

// Insert adds a polygon under id. Ids must be unique.
func (x *Index) Insert(id string, kind Kind, poly geo.Polygon) error {
	if _, dup := x.items[id]; dup {
		return fmt.Errorf("spatial: duplicate id %q", id)
	}
	if poly.Len() == 0 {
		return fmt.Errorf("spatial: item %q has no vertices", id)
	}
	x.seq++
	it := &Item{ID: id, Kind: kind, Polygon: poly, seq: x.seq, box: toRect(poly.Bounds(), 0)}
	x.items[id] = it
	x.tree.Insert(it)
	return nil
}

// Remove deletes id from the index and reports whether it was present.
func (x *Index) Remove(id string) bool {
	it, ok := x.items[id]
	if !ok {
		return false
	}
	delete(x.items, id)
	return x.tree.Delete(it)
}

// Get returns the item stored under id.
func (x *Index) Get(id string) (Item, bool) {
	it, ok := x.items[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// Len returns the number of indexed items.
func (x *Index) Len() int {
	return len(x.items)
}

func kindFilter(kinds []Kind) []rtreego.Filter {
	if len(kinds) == 0 {
		return nil
	}
	return []rtreego.Filter{func(_ []rtreego.Spatial, obj rtreego.Spatial) (refuse, abort bool) {
		k := obj.(*Item).Kind
		for _, want := range kinds {
			if k == want {
				return false, false
			}
		}
		return true, false
	}}
}

// candidates returns the items whose boxes come within margin of region's
// box, in insertion order.
func (x *Index) candidates(region geo.Rect, margin float64, kinds []Kind) []*Item {
	hits := x.tree.SearchIntersect(toRect(region, margin), kindFilter(kinds)...)
	out := make([]*Item, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*Item))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].seq < out[b].seq })
	return out
}

// QueryOverlapping returns the ids of items that touch or overlap region,
// optionally restricted to kinds.
func (x *Index) QueryOverlapping(region geo.Polygon, kinds ...Kind) []string {
	var ids []string
	for _, it := range x.candidates(region.Bounds(), 0, kinds) {
		if it.Polygon.Intersects(region) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// QueryWithin returns the ids of items no farther than dist from region.
func (x *Index) QueryWithin(region geo.Polygon, dist float64, kinds ...Kind) []string {
	var ids []string
	for _, it := range x.candidates(region.Bounds(), dist, kinds) {
		if it.Polygon.Distance(region) <= dist {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Nearest returns up to k ids ordered by exact distance from p, ties in
// insertion order.
func (x *Index) Nearest(p geo.Point, k int, kinds ...Kind) []string {
	if k <= 0 || len(x.items) == 0 {
		return nil
	}
	type hit struct {
		it   *Item
		dist float64
	}
	pt := geo.NewPolygon(p)
	filters := kindFilter(kinds)

	// Box distance never exceeds exact distance, so once the farthest box
	// fetched is beyond the k-th exact distance no unfetched item can win.
	for fetch := k; ; fetch *= 2 {
		found := x.tree.NearestNeighbors(fetch, rtreego.Point{p.X, p.Y}, filters...)
		var hits []hit
		farBox := 0.0
		for _, s := range found {
			if s == nil {
				continue
			}
			it := s.(*Item)
			hits = append(hits, hit{it: it, dist: it.Polygon.Distance(pt)})
			farBox = math.Max(farBox, boxDistance(it.Polygon.Bounds().Expand(pad), p))
		}
		sort.Slice(hits, func(a, b int) bool {
			if hits[a].dist != hits[b].dist {
				return hits[a].dist < hits[b].dist
			}
			return hits[a].it.seq < hits[b].it.seq
		})
		exhausted := len(hits) < fetch || fetch >= len(x.items)
		if exhausted || (len(hits) >= k && farBox >= hits[k-1].dist) {
			n := min(k, len(hits))
			ids := make([]string, n)
			for i := 0; i < n; i++ {
				ids[i] = hits[i].it.ID
			}
			return ids
		}
	}
}

func boxDistance(r geo.Rect, p geo.Point) float64 {
	dx := math.Max(0, math.Max(r.Min.X-p.X, p.X-r.Max.X))
	dy := math.Max(0, math.Max(r.Min.Y-p.Y, p.Y-r.Max.Y))
	return math.Hypot(dx, dy)
}
