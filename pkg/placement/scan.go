package placement

import (
	"context"
	"fmt"
	"math"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/freespace"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
)

// cancelCheckInterval is how many candidates are tried between context
// checks.
const cancelCheckInterval = 256

// shelfEps absorbs grid rounding when comparing shelf edges.
const shelfEps = 1e-6

// shelf is a run of îlots of one orientation sharing their top and bottom
// edges, each within an aisle of the next. Band covers the whole run.
type shelf struct {
	band   geo.Rect
	orient int
}

// scanner walks the candidate grid. Cell k is the top-left corner
// (x0 + col*step, y0 - row*step) with k = row*cols + col.
//
// Îlots are kept on shelves so that corridors can run straight along them:
// an îlot either extends a shelf it is level with or stays a full aisle
// above or below every shelf it comes within an aisle of sideways.
type scanner struct {
	fs      *freespace.FreeSpace
	index   *spatial.Index
	step    float64
	aisle   float64
	x0, y0  float64
	cols    int
	cells   int
	placed  []string
	shelves []shelf
	tried   int
}

func newScanner(fs *freespace.FreeSpace, index *spatial.Index, step, aisle float64) *scanner {
	b := fs.Bounds()
	s := &scanner{fs: fs, index: index, step: step, aisle: aisle, x0: b.Min.X, y0: b.Max.Y}
	if step <= 0 || b.IsEmpty() {
		return s
	}
	s.cols = int(math.Floor(b.Width()/step+1e-9)) + 1
	rows := int(math.Floor(b.Height()/step+1e-9)) + 1
	s.cells = s.cols * rows
	return s
}

func (s *scanner) corner(k int) geo.Point {
	row, col := k/s.cols, k%s.cols
	return geo.Pt(s.x0+float64(col)*s.step, s.y0-float64(row)*s.step)
}

// clear removes every îlot the scanner inserted.
func (s *scanner) clear() {
	for _, id := range s.placed {
		s.index.Remove(id)
	}
	s.placed = s.placed[:0]
	s.shelves = s.shelves[:0]
}

// shelve returns the shelves rect would merge with and the band they would
// form, or false when rect would sit ragged against a neighbouring shelf.
func (s *scanner) shelve(rect geo.Rect, orient int) (geo.Rect, []int, bool) {
	band := rect
	var join []int
	joined := func(i int) bool {
		for _, j := range join {
			if j == i {
				return true
			}
		}
		return false
	}
	// Joining one shelf can bring the band within reach of another.
	for grown := true; grown; {
		grown = false
		for i, sh := range s.shelves {
			if joined(i) || sh.orient != orient || !level(sh.band, band) {
				continue
			}
			if dx, _ := band.Gaps(sh.band); dx < s.aisle-shelfEps {
				band = band.Union(sh.band)
				join = append(join, i)
				grown = true
			}
		}
	}
	for i, sh := range s.shelves {
		if joined(i) {
			continue
		}
		if dx, dy := band.Gaps(sh.band); dx < s.aisle-shelfEps && dy < s.aisle-shelfEps {
			return geo.Rect{}, nil, false
		}
	}
	return band, join, true
}

// commit merges the joined shelves into band.
func (s *scanner) commit(band geo.Rect, join []int, orient int) {
	kept := s.shelves[:0]
	for i, sh := range s.shelves {
		drop := false
		for _, j := range join {
			drop = drop || i == j
		}
		if !drop {
			kept = append(kept, sh)
		}
	}
	s.shelves = append(kept, shelf{band: band, orient: orient})
}

func level(a, b geo.Rect) bool {
	return math.Abs(a.Min.Y-b.Min.Y) <= shelfEps && math.Abs(a.Max.Y-b.Max.Y) <= shelfEps
}

// run places each class up to its target and reports whether every target
// was met.
func (s *scanner) run(ctx context.Context, classes []config.SizeClass, targets []int) ([]Ilot, bool, error) {
	var out []Ilot
	met := true
	for ci, sc := range classes {
		n, cursor := 0, 0
		for n < targets[ci] {
			il, k, ok, err := s.next(ctx, sc, cursor)
			if err != nil {
				s.clear()
				return nil, false, err
			}
			if !ok {
				break
			}
			il.ID = fmt.Sprintf("i%d", len(out)+1)
			if err := s.index.Insert(il.ID, spatial.KindIlot, il.Rect.Polygon()); err != nil {
				s.clear()
				return nil, false, err
			}
			s.placed = append(s.placed, il.ID)
			out = append(out, il)
			n++
			cursor = k
		}
		if n < targets[ci] {
			met = false
		}
	}
	return out, met, nil
}

// next returns the first admissible îlot of class sc at or after cell
// cursor that fits the shelves, with the cell it was found at. The îlot's
// shelf is recorded before returning.
func (s *scanner) next(ctx context.Context, sc config.SizeClass, cursor int) (Ilot, int, bool, error) {
	for k := cursor; k < s.cells; k++ {
		s.tried++
		if s.tried%cancelCheckInterval == 0 {
			if err := errors.FromContext(ctx, "îlot placement"); err != nil {
				return Ilot{}, 0, false, err
			}
		}
		tl := s.corner(k)
		for _, fp := range sc.Footprints() {
			for _, orient := range []int{0, 90} {
				w, h := fp[0], fp[1]
				if orient == 90 {
					if w == h {
						continue
					}
					w, h = h, w
				}
				rect := geo.R(tl.X, tl.Y-h, tl.X+w, tl.Y)
				region, ok := s.fs.RegionAt(rect.Center())
				if !ok || !s.fs.Admits(rect) {
					continue
				}
				band, join, ok := s.shelve(rect, orient)
				if !ok {
					continue
				}
				s.commit(band, join, orient)
				return Ilot{
					Class:       sc.Name,
					Rect:        rect,
					Orientation: orient,
					Width:       w,
					Height:      h,
					Region:      region.ID,
				}, k, true, nil
			}
		}
	}
	return Ilot{}, 0, false, nil
}
