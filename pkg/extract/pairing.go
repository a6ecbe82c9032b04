package extract

import (
	"math"
	"sort"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

const (
	// Two lines count as parallel within this angle (radians).
	pairAngleTol = 2 * math.Pi / 180
	// The shorter line of a pair must overlap the longer by this fraction.
	pairMinOverlap = 0.5
)

type wallPiece struct {
	seg    geo.Segment
	prim   int
	minX   float64
	maxX   float64
	paired bool
}

// pairWalls replaces parallel double lines closer than maxThickness with a
// single centerline wall whose thickness is the measured separation. The
// centerline spans the union of both lines so corners still meet.
func pairWalls(prims []Primitive, snapTol, maxThickness float64) []Primitive {
	var pieces []*wallPiece
	for i, p := range prims {
		if p.Category != CategoryWall {
			continue
		}
		for _, s := range p.Segments {
			b := s.Bounds()
			pieces = append(pieces, &wallPiece{seg: s, prim: i, minX: b.Min.X, maxX: b.Max.X})
		}
	}
	sort.SliceStable(pieces, func(a, b int) bool { return pieces[a].minX < pieces[b].minX })

	var merged []Primitive
	for i, a := range pieces {
		if a.paired {
			continue
		}
		best, bestSep := -1, math.Inf(1)
		var bestLo, bestHi float64
		for j := i + 1; j < len(pieces) && pieces[j].minX <= a.maxX+maxThickness; j++ {
			b := pieces[j]
			if b.paired || !a.seg.IsParallel(b.seg, pairAngleTol) {
				continue
			}
			sep, lo, hi, ok := pairFit(a.seg, b.seg)
			if !ok || sep <= snapTol || sep > maxThickness || sep >= bestSep {
				continue
			}
			best, bestSep, bestLo, bestHi = j, sep, lo, hi
		}
		if best < 0 {
			continue
		}
		b := pieces[best]
		a.paired, b.paired = true, true

		dir := a.seg.Direction()
		side := 1.0
		if dir.Cross(b.seg.Midpoint().Sub(a.seg.A)) < 0 {
			side = -1
		}
		offset := dir.Perp().Scale(side * bestSep / 2)
		center := geo.Seg(
			a.seg.A.Add(dir.Scale(bestLo)).Add(offset),
			a.seg.A.Add(dir.Scale(bestHi)).Add(offset),
		)
		src := prims[a.prim]
		merged = append(merged, Primitive{
			Category:  CategoryWall,
			Layer:     src.Layer,
			Source:    src.Source,
			Segments:  []geo.Segment{center},
			Thickness: bestSep,
		})
	}
	if len(merged) == 0 {
		return prims
	}

	// Rebuild each wall primitive from its unpaired pieces.
	remaining := make(map[int][]geo.Segment)
	for _, pc := range pieces {
		if !pc.paired {
			remaining[pc.prim] = append(remaining[pc.prim], pc.seg)
		}
	}
	out := make([]Primitive, 0, len(prims)+len(merged))
	for i, p := range prims {
		if p.Category != CategoryWall {
			out = append(out, p)
			continue
		}
		if segs := remaining[i]; len(segs) > 0 {
			p.Segments = segs
			p.Polygon = geo.Polygon{}
			out = append(out, p)
		}
	}
	return append(out, merged...)
}

// pairFit measures b against the line through a. It returns the
// perpendicular separation and the union of both projections as distances
// along a. ok is false when the overlap is too small to be one wall.
func pairFit(a, b geo.Segment) (sep, lo, hi float64, ok bool) {
	la, lb := a.Length(), b.Length()
	if la < geo.Epsilon || lb < geo.Epsilon {
		return 0, 0, 0, false
	}
	dir := a.Direction()
	sep = math.Abs(dir.Cross(b.Midpoint().Sub(a.A)))

	t0 := b.A.Sub(a.A).Dot(dir)
	t1 := b.B.Sub(a.A).Dot(dir)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	overlap := math.Min(la, t1) - math.Max(0, t0)
	if overlap < pairMinOverlap*math.Min(la, lb) {
		return 0, 0, 0, false
	}
	return sep, math.Min(0, t0), math.Max(la, t1), true
}
