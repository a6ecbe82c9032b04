package placement

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/freespace"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/plan"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
)

// scenarioConfig holds the three fixed-size classes of the reference room.
func scenarioConfig() *config.Config {
	cfg := config.Default()
	cfg.SizeClasses = []config.SizeClass{
		{Name: "small", Proportion: 0.6, MinWidth: 1, MaxWidth: 1, MinDepth: 1, MaxDepth: 1},
		{Name: "medium", Proportion: 0.3, MinWidth: 2, MaxWidth: 2, MinDepth: 1.5, MaxDepth: 1.5},
		{Name: "large", Proportion: 0.1, MinWidth: 3, MaxWidth: 3, MinDepth: 2, MaxDepth: 2},
	}
	return cfg
}

// roomPlan is a w x h room with a 1 m door in the middle of the bottom wall.
func roomPlan(w, h float64, zones ...geo.Rect) *plan.FloorPlan {
	b := geo.R(0, 0, w, h).Polygon()
	fp := &plan.FloorPlan{Boundary: b}
	for i, e := range b.Edges() {
		fp.Walls = append(fp.Walls, plan.WallSegment{ID: fmt.Sprintf("w%d", i+1), Segment: e, Thickness: 0.15})
	}
	opening := geo.Seg(geo.Pt(w/2-0.5, 0), geo.Pt(w/2+0.5, 0))
	fp.Doors = []plan.Door{{ID: "d1", Opening: opening, Swing: geo.R(w/2-0.5, 0, w/2+0.5, 1).Polygon(), Width: 1}}
	fp.Entrances = []plan.Entrance{{ID: "e1", Opening: opening, Anchor: geo.Pt(w/2, 0.61), Width: 1}}
	for i, z := range zones {
		fp.RestrictedZones = append(fp.RestrictedZones, plan.RestrictedZone{ID: fmt.Sprintf("r%d", i+1), Polygon: z.Polygon()})
	}
	return fp
}

func setup(tb testing.TB, fp *plan.FloorPlan, cfg *config.Config) (*freespace.FreeSpace, *spatial.Index) {
	tb.Helper()
	idx, err := spatial.FromPlan(fp)
	require.NoError(tb, err)
	fs, _, err := freespace.Resolve(context.Background(), fp, idx, cfg)
	require.NoError(tb, err)
	return fs, idx
}

func place(t *testing.T, fp *plan.FloorPlan, cfg *config.Config) (*Placement, *freespace.FreeSpace, *spatial.Index) {
	t.Helper()
	fs, idx := setup(t, fp, cfg)
	p, err := Place(context.Background(), fs, idx, cfg)
	require.NoError(t, err)
	return p, fs, idx
}

func assertNoOverlap(t *testing.T, ilots []Ilot) {
	t.Helper()
	for a := range ilots {
		for b := a + 1; b < len(ilots); b++ {
			assert.Zero(t, ilots[a].Rect.OverlapArea(ilots[b].Rect), "%s overlaps %s", ilots[a].ID, ilots[b].ID)
		}
	}
}

func TestPlaceReferenceRoom(t *testing.T) {
	cfg := scenarioConfig()
	p, fs, idx := place(t, roomPlan(20, 10), cfg)

	require.NotEmpty(t, p.Ilots)
	assertNoOverlap(t, p.Ilots)
	for _, il := range p.Ilots {
		assert.True(t, fs.Admits(il.Rect, il.ID), "%s violates a clearance", il.ID)
		_, ok := fs.RegionAt(il.Center())
		assert.True(t, ok, "%s lies outside free space", il.ID)
	}

	for _, cs := range p.Classes {
		assert.Equal(t, cs.Target, cs.Placed, cs.Name)
		assert.LessOrEqual(t, cs.Divergence, cfg.Placement.ProportionTolerance+1e-9, cs.Name)
	}
	assert.Zero(t, p.Report.Count(errors.ErrCodeProportionDivergence))

	// Largest class first, then by footprint.
	assert.Equal(t, "large", p.Ilots[0].Class)
	assert.Equal(t, "large", p.Classes[0].Name)
	assert.Equal(t, "small", p.Classes[2].Name)

	assert.Equal(t, len(p.Ilots), idx.Len()-4-1-1, "placed îlots stay indexed")
	assert.Greater(t, p.Coverage, 0.0)
	assert.LessOrEqual(t, p.Coverage, 1.0)
}

func TestPlaceKeepsIlotsOnShelves(t *testing.T) {
	cfg := scenarioConfig()
	p, fs, _ := place(t, roomPlan(20, 10), cfg)
	require.NotEmpty(t, p.Ilots)

	aisle := cfg.AisleWidth()
	for i, a := range p.Ilots {
		for _, b := range p.Ilots[i+1:] {
			dx, dy := a.Rect.Gaps(b.Rect)
			if dx >= aisle-1e-6 || dy >= aisle-1e-6 {
				continue
			}
			assert.True(t, level(a.Rect, b.Rect), "%s and %s are neighbours but not level", a.ID, b.ID)
		}
	}

	require.Len(t, fs.Aisles, 1)
	for _, il := range p.Ilots {
		assert.LessOrEqual(t, geo.OverlapArea(il.Rect.Polygon(), fs.Aisles[0].Polygon), 1e-9, "%s blocks the entrance aisle", il.ID)
	}
}

func TestShelve(t *testing.T) {
	fs, idx := setup(t, roomPlan(20, 10), scenarioConfig())
	s := newScanner(fs, idx, 0.5, 1.2)
	band, join, ok := s.shelve(geo.R(1, 7, 4, 9), 0)
	require.True(t, ok)
	assert.Empty(t, join)
	s.commit(band, join, 0)

	tests := []struct {
		name   string
		rect   geo.Rect
		orient int
		want   bool
	}{
		{"level neighbour", geo.R(4, 7, 6, 9), 0, true},
		{"ragged neighbour", geo.R(4, 7.5, 6, 9), 0, false},
		{"level but turned", geo.R(4, 7, 6, 9), 90, false},
		{"an aisle away sideways", geo.R(5.2, 7.5, 6.2, 8.5), 0, true},
		{"an aisle below", geo.R(1, 4.8, 3, 5.8), 0, true},
		{"less than an aisle below", geo.R(1, 5, 3, 6), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := s.shelve(tt.rect, tt.orient)
			assert.Equal(t, tt.want, ok)
		})
	}

	// A gap-filler joins the shelves on both sides into one.
	band, join, ok = s.shelve(geo.R(5.5, 7, 8.5, 9), 0)
	require.True(t, ok)
	s.commit(band, join, 0)
	require.Len(t, s.shelves, 2)
	band, join, ok = s.shelve(geo.R(4, 7, 5.5, 9), 0)
	require.True(t, ok)
	assert.Len(t, join, 2)
	s.commit(band, join, 0)
	require.Len(t, s.shelves, 1)
	assert.Equal(t, geo.R(1, 7, 8.5, 9), s.shelves[0].band)

	s.clear()
	assert.Empty(t, s.shelves)
}

func TestPlaceHalfRestricted(t *testing.T) {
	cfg := scenarioConfig()
	full, _, _ := place(t, roomPlan(20, 10), cfg)
	half, fs, _ := place(t, roomPlan(20, 10, geo.R(10, 0, 20, 10)), cfg)

	require.NotEmpty(t, half.Ilots)
	assertNoOverlap(t, half.Ilots)
	for _, il := range half.Ilots {
		assert.LessOrEqual(t, il.Rect.Max.X, 9.5+1e-9, "%s enters the restricted buffer", il.ID)
		assert.True(t, fs.Admits(il.Rect, il.ID))
	}

	ratio := float64(len(half.Ilots)) / float64(len(full.Ilots))
	assert.InDelta(t, half.FreeArea/full.FreeArea, ratio, 0.25)
}

func TestPlaceNoFreeSpace(t *testing.T) {
	cfg := scenarioConfig()
	p, _, _ := place(t, roomPlan(20, 10, geo.R(0, 0, 20, 10)), cfg)

	assert.Empty(t, p.Ilots)
	assert.Zero(t, p.Estimate)
	require.Len(t, p.Classes, 3)
	for _, cs := range p.Classes {
		assert.Zero(t, cs.Placed)
	}
	assert.Zero(t, p.Report.Count(errors.ErrCodeProportionDivergence))
}

func TestPlaceSingleClass(t *testing.T) {
	cfg := config.Default()
	cfg.SizeClasses = []config.SizeClass{
		{Name: "desk", Proportion: 1, MinWidth: 1.2, MaxWidth: 1.6, MinDepth: 0.8, MaxDepth: 0.8},
	}
	p, _, _ := place(t, roomPlan(12, 8), cfg)

	require.NotEmpty(t, p.Ilots)
	assertNoOverlap(t, p.Ilots)
	require.Len(t, p.Classes, 1)
	assert.Equal(t, len(p.Ilots), p.Classes[0].Placed)
	assert.InDelta(t, 1, p.Classes[0].Achieved, 1e-9)
	for _, il := range p.Ilots {
		assert.Equal(t, "desk", il.Class)
		assert.Contains(t, []int{0, 90}, il.Orientation)
	}
}

func TestPlaceDeterministic(t *testing.T) {
	cfg := scenarioConfig()
	first, _, _ := place(t, roomPlan(20, 10, geo.R(6, 3, 8, 5)), cfg)
	second, _, _ := place(t, roomPlan(20, 10, geo.R(6, 3, 8, 5)), cfg)

	if diff := cmp.Diff(first.Ilots, second.Ilots); diff != "" {
		t.Errorf("placement differs between runs (-first +second):\n%s", diff)
	}
}

func TestPlaceCancelled(t *testing.T) {
	cfg := scenarioConfig()
	fs, idx := setup(t, roomPlan(20, 10), cfg)
	before := idx.Len()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Place(ctx, fs, idx, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCancelled))
	assert.Equal(t, before, idx.Len(), "a cancelled run leaves no îlots behind")
}

func TestEstimateAndTargets(t *testing.T) {
	cfg := scenarioConfig()
	// Mean footprint 0.6*1 + 0.3*3 + 0.1*6 = 2.1 m².
	assert.Equal(t, 81, Estimate(171, cfg))
	assert.Equal(t, []int{49, 24, 8}, Targets(81, cfg.SizeClasses))
	assert.Zero(t, Estimate(0, cfg))

	cfg.Placement.PackingEfficiency = 0.5
	assert.Equal(t, 40, Estimate(171, cfg))
}

func TestSortedClasses(t *testing.T) {
	classes := sortedClasses([]config.SizeClass{
		{Name: "b", MaxWidth: 2, MaxDepth: 2},
		{Name: "c", MaxWidth: 1, MaxDepth: 1},
		{Name: "a", MaxWidth: 4, MaxDepth: 1},
	})
	var names []string
	for _, c := range classes {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}
