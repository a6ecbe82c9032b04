package corridor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/placement"
	"github.com/ChicagoDave/ilotplanner/pkg/plan"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
)

// hall is a 20 x 10 room with an entrance in the middle of the bottom wall.
func hall(zones ...geo.Rect) *plan.FloorPlan {
	b := geo.R(0, 0, 20, 10).Polygon()
	fp := &plan.FloorPlan{Boundary: b}
	for i, e := range b.Edges() {
		fp.Walls = append(fp.Walls, plan.WallSegment{ID: fmt.Sprintf("w%d", i+1), Segment: e, Thickness: 0.15})
	}
	fp.Entrances = []plan.Entrance{{ID: "e1", Opening: geo.Seg(geo.Pt(9.5, 0), geo.Pt(10.5, 0)), Anchor: geo.Pt(10, 0.61), Width: 1}}
	for i, z := range zones {
		fp.RestrictedZones = append(fp.RestrictedZones, plan.RestrictedZone{ID: fmt.Sprintf("r%d", i+1), Polygon: z.Polygon()})
	}
	return fp
}

// row lays n îlots of w x h side by side from (x, y) upwards.
func row(first, n int, x, y, w, h float64) []placement.Ilot {
	out := make([]placement.Ilot, n)
	for i := 0; i < n; i++ {
		x0 := x + float64(i)*w
		out[i] = placement.Ilot{
			ID:     fmt.Sprintf("i%d", first+i),
			Class:  "medium",
			Rect:   geo.R(x0, y, x0+w, y+h),
			Width:  w,
			Height: h,
		}
	}
	return out
}

func generate(t *testing.T, fp *plan.FloorPlan, ilots []placement.Ilot) (*Network, *Checker) {
	t.Helper()
	idx, err := spatial.FromPlan(fp)
	require.NoError(t, err)
	for _, il := range ilots {
		require.NoError(t, idx.Insert(il.ID, spatial.KindIlot, il.Rect.Polygon()))
	}
	n, report, err := Generate(context.Background(), fp, ilots, idx, config.Default())
	require.NoError(t, err)
	require.True(t, report.Valid)
	assert.Equal(t, len(n.Unreachable), len(report.Subjects(errors.ErrCodeCorridorUnreachable)))
	return n, NewChecker(fp.Boundary, idx)
}

func threeRows() []placement.Ilot {
	ilots := row(1, 6, 3, 7, 2, 1.5)
	ilots = append(ilots, row(7, 6, 3, 4, 2, 1.5)...)
	return append(ilots, row(13, 6, 3, 1.5, 2, 1)...)
}

func TestGenerateThreeRows(t *testing.T) {
	n, check := generate(t, hall(), threeRows())

	require.Len(t, n.Rows, 3)
	assert.Equal(t, "s1", n.Rows[0].Spine)
	assert.Equal(t, "s1", n.Rows[1].Spine)
	assert.Equal(t, "s2", n.Rows[2].Spine)

	require.Equal(t, 2, n.Count(KindSpine))
	assert.Equal(t, 12, n.Count(KindLink), "the bottom row touches its spine")
	require.Equal(t, 2, n.Count(KindConnector))
	assert.Empty(t, n.Unreachable)

	// Spines first, then links, then connectors.
	assert.Equal(t, KindSpine, n.Segments[0].Kind)
	assert.Equal(t, KindSpine, n.Segments[1].Kind)
	assert.Equal(t, KindLink, n.Segments[2].Kind)
	last := n.Segments[len(n.Segments)-1]
	assert.Equal(t, KindConnector, last.Kind)

	s1 := n.Segments[0]
	assert.InDelta(t, 6.25, s1.Path.Points[0].Y, 1e-9, "midline between the facing rows")
	assert.Equal(t, "row1", s1.From)
	assert.Equal(t, "row2", s1.To)
	assert.InDelta(t, 0.9, n.Segments[1].Path.Points[0].Y, 1e-9, "open side of the bottom row")

	conns := n.Segments[len(n.Segments)-2:]
	assert.Equal(t, "e1", conns[0].From)
	assert.Equal(t, "s2", conns[0].To)
	assert.Equal(t, "s1", conns[1].From)
	assert.Equal(t, "s2", conns[1].To)

	for _, s := range n.Segments {
		assert.True(t, check.Clear(s.Path, s.Width), "%s lacks clearance", s.ID)
		assert.Greater(t, s.Length(), 0.0, s.ID)
	}
}

func TestGenerateUnreachableBehindRestrictedStrip(t *testing.T) {
	n, _ := generate(t, hall(geo.R(0, 4, 20, 5)), row(1, 6, 3, 7, 2, 1.5))

	assert.Equal(t, 1, n.Count(KindSpine))
	assert.Zero(t, n.Count(KindConnector))
	assert.Equal(t, []string{"i1", "i2", "i3", "i4", "i5", "i6"}, n.Unreachable)
}

func TestGenerateNoEntrance(t *testing.T) {
	fp := hall()
	fp.Entrances = nil
	n, _ := generate(t, fp, row(1, 3, 3, 7, 2, 1.5))

	assert.Len(t, n.Unreachable, 3)
	assert.Zero(t, n.Count(KindConnector))
}

func TestSpineUsesOpenSide(t *testing.T) {
	n, _ := generate(t, hall(geo.R(8, 5.9, 9, 6)), row(1, 4, 3, 7, 2, 1.5))

	require.Equal(t, 1, n.Count(KindSpine))
	assert.InDelta(t, 9.1, n.Segments[0].Path.Points[0].Y, 1e-9)
}

func TestSpineReroutedAroundColumn(t *testing.T) {
	ilots := row(1, 4, 3, 7, 2, 1.5)
	ilots = append(ilots, row(5, 4, 3, 3, 2, 1.5)...)
	n, check := generate(t, hall(geo.R(5, 5.2, 6, 5.5)), ilots)

	require.GreaterOrEqual(t, n.Count(KindSpine), 1)
	s1 := n.Segments[0]
	assert.InDelta(t, 6.25, s1.Path.Points[0].Y, 1e-9, "shifted two steps up from the 5.75 midline")
	assert.True(t, check.Clear(s1.Path, s1.Width))
	assert.Equal(t, "row2", s1.To)
}

func TestLinksKeepCorridorWidth(t *testing.T) {
	// One-metre îlots are narrower than a corridor.
	ilots := row(1, 6, 3, 7, 1, 1)
	ilots = append(ilots, row(7, 6, 3, 3, 1, 1)...)
	n, check := generate(t, hall(), ilots)

	assert.Empty(t, n.Unreachable)
	assert.Equal(t, 12, n.Count(KindLink))
	minWidth := config.Default().Corridor.MinWidth
	for _, s := range n.Segments {
		assert.GreaterOrEqual(t, s.Width, minWidth, "%s %s", s.Kind, s.ID)
		assert.True(t, check.Clear(s.Path, s.Width), "%s lacks clearance", s.ID)
	}
}

func TestSpinesFallBackWhenSharedSpineBlocked(t *testing.T) {
	ilots := row(1, 6, 3, 7, 2, 1.5)
	ilots = append(ilots, row(7, 6, 3, 2, 2, 1.5)...)
	// A column fills the gap between the rows too tightly for any shared spine.
	n, _ := generate(t, hall(geo.R(8, 4.4, 9, 6.2)), ilots)

	assert.Empty(t, n.Unreachable)
	require.Equal(t, 2, n.Count(KindSpine))
	assert.InDelta(t, 9.1, n.Segments[0].Path.Points[0].Y, 1e-9, "upper row served from above")
	assert.Equal(t, "row1", n.Segments[0].From)
	assert.Empty(t, n.Segments[0].To)
	assert.InDelta(t, 1.4, n.Segments[1].Path.Points[0].Y, 1e-9, "lower row served from below")
	assert.Len(t, Components(n.Segments), 1)
}

func TestGenerateEmpty(t *testing.T) {
	n, _ := generate(t, hall(), nil)
	assert.Empty(t, n.Segments)
	assert.Zero(t, n.Length())
}

func TestGenerateCancelled(t *testing.T) {
	fp := hall()
	idx, err := spatial.FromPlan(fp)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Generate(ctx, fp, threeRows(), idx, config.Default())
	assert.True(t, errors.Is(err, errors.ErrCodeCancelled))
}

func TestRows(t *testing.T) {
	ilots := []placement.Ilot{
		{ID: "a", Rect: geo.R(0, 8, 2, 10)},
		{ID: "b", Rect: geo.R(2, 9, 3, 10)},
		{ID: "c", Rect: geo.R(6, 8, 8, 10)},
		{ID: "d", Rect: geo.R(8, 8, 10, 10), Orientation: 90},
		{ID: "e", Rect: geo.R(0, 3, 2, 5)},
	}
	rows := Rows(ilots, 0.5, 1.2)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"a", "b"}, rows[0].Ilots, "top-aligned îlots of mixed depth share a row")
	assert.Equal(t, []string{"c"}, rows[1].Ilots, "a corridor-wide gap starts a new row")
	assert.Equal(t, []string{"d"}, rows[2].Ilots)
	assert.Equal(t, 90, rows[2].Orientation)
	assert.Equal(t, []string{"e"}, rows[3].Ilots)
	assert.Equal(t, geo.R(0, 8, 3, 10), rows[0].Bounds)
}

func TestOrthogonal(t *testing.T) {
	a := span{x0: 3, x1: 15, y: 6}
	b := span{x0: 3, x1: 15, y: 1}

	pl, ok := orthogonal(a, b, 9)
	require.True(t, ok)
	assert.Equal(t, []geo.Point{geo.Pt(9, 6), geo.Pt(9, 1)}, pl.Points)

	pl, ok = orthogonal(a, b, 2)
	require.True(t, ok)
	assert.Len(t, pl.Points, 4)
	assert.InDelta(t, 7, pl.Length(), 1e-9)

	_, ok = orthogonal(span{x0: 0, x1: 5, y: 2}, span{x0: 8, x1: 12, y: 2}, 13)
	assert.False(t, ok, "doubling back is rejected")
}

func TestConnectivity(t *testing.T) {
	segs := []Segment{
		{ID: "s1", Path: geo.NewPolyline(geo.Pt(0, 5), geo.Pt(10, 5))},
		{ID: "l1", Path: geo.NewPolyline(geo.Pt(4, 7), geo.Pt(4, 5))},
		{ID: "c1", Path: geo.NewPolyline(geo.Pt(10, 5), geo.Pt(12, 5), geo.Pt(12, 1))},
		{ID: "s2", Path: geo.NewPolyline(geo.Pt(20, 1), geo.Pt(30, 1))},
	}

	conn := Connectivity(segs)
	assert.Equal(t, []string{"c1", "l1"}, conn["s1"], "a T-junction and a shared end")
	assert.Equal(t, []string{"s1"}, conn["l1"])
	assert.Equal(t, []string{"s1"}, conn["c1"])
	assert.NotContains(t, conn, "s2")

	assert.Equal(t, [][]string{{"s1", "l1", "c1"}, {"s2"}}, Components(segs))
	assert.Nil(t, Components(nil))
}

func TestGeneratedNetworkIsConnected(t *testing.T) {
	n, _ := generate(t, hall(), threeRows())
	comps := Components(n.Segments)
	require.Len(t, comps, 1)
	assert.Len(t, comps[0], len(n.Segments))
}
