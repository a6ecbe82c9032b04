package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/corridor"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/freespace"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/placement"
	"github.com/ChicagoDave/ilotplanner/pkg/plan"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.SizeClasses = []config.SizeClass{
		{Name: "small", Proportion: 0.6, MinWidth: 1, MaxWidth: 1, MinDepth: 1, MaxDepth: 1},
		{Name: "medium", Proportion: 0.3, MinWidth: 2, MaxWidth: 2, MinDepth: 1.5, MaxDepth: 1.5},
		{Name: "large", Proportion: 0.1, MinWidth: 3, MaxWidth: 3, MinDepth: 2, MaxDepth: 2},
	}
	return cfg
}

func testPlan() *plan.FloorPlan {
	b := geo.R(0, 0, 20, 10).Polygon()
	fp := &plan.FloorPlan{Boundary: b}
	for i, e := range b.Edges() {
		fp.Walls = append(fp.Walls, plan.WallSegment{ID: fmt.Sprintf("w%d", i+1), Segment: e, Thickness: 0.15})
	}
	opening := geo.Seg(geo.Pt(9.5, 0), geo.Pt(10.5, 0))
	fp.Doors = []plan.Door{{ID: "d1", Opening: opening, Swing: geo.R(9.5, 0, 10.5, 1).Polygon(), Width: 1}}
	fp.Entrances = []plan.Entrance{{ID: "e1", Opening: opening, Anchor: geo.Pt(10, 0.61), Width: 1}}
	fp.RestrictedZones = []plan.RestrictedZone{{ID: "r1", Polygon: geo.R(16, 7, 19, 9.5).Polygon(), Label: "stairs"}}
	return fp
}

// analyze runs the placement and corridor stages by hand.
func analyze(t *testing.T) (*Result, Input) {
	t.Helper()
	cfg := testConfig()
	fp := testPlan()
	ctx := context.Background()

	idx, err := spatial.FromPlan(fp)
	require.NoError(t, err)
	fs, fsReport, err := freespace.Resolve(ctx, fp, idx, cfg)
	require.NoError(t, err)
	p, err := placement.Place(ctx, fs, idx, cfg)
	require.NoError(t, err)
	n, cReport, err := corridor.Generate(ctx, fp, p.Ilots, idx, cfg)
	require.NoError(t, err)

	report := validation.NewReport()
	report.Merge(fsReport)
	report.Merge(p.Report)
	report.Merge(cReport)

	in := Input{Source: "hall.json", Plan: fp, FreeSpace: fs, Placement: p, Network: n, Report: report}
	return Assemble(in), in
}

func TestAssemble(t *testing.T) {
	r, in := analyze(t)

	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.Equal(t, "hall.json", r.Source)
	assert.NotEmpty(t, r.GeneratedAt)

	m := r.Metrics
	require.NotEmpty(t, r.Ilots)
	assert.Equal(t, len(in.Placement.Ilots), m.IlotCount)
	assert.InDelta(t, 200, m.BoundaryArea, 1e-9)
	assert.InDelta(t, 7.5, m.RestrictedArea, 1e-9)
	assert.InDelta(t, in.FreeSpace.Area(), m.FreeArea, 1e-9)
	assert.InDelta(t, in.Placement.PlacedArea(), m.IlotArea, 1e-9)
	assert.InDelta(t, m.IlotArea/float64(m.IlotCount), m.AverageIlotArea, 1e-9)
	assert.InDelta(t, m.IlotArea/m.FreeArea, m.Coverage, 1e-9)
	assert.InDelta(t, in.Network.Length(), m.CorridorLength, 1e-9)
	assert.Equal(t, in.Network.Count(corridor.KindSpine), m.SpineCount)
	assert.Equal(t, in.Network.Count(corridor.KindLink), m.LinkCount)
	assert.Equal(t, in.Network.Count(corridor.KindConnector), m.ConnectorCount)
	assert.Equal(t, in.Placement.Estimate, m.Estimate)
	assert.Equal(t, len(corridor.Components(r.Corridors)), m.NetworkPieces)

	total := 0
	for _, cs := range m.Classes {
		assert.Equal(t, cs.Placed, m.ClassCounts[cs.Name], cs.Name)
		total += cs.Placed
	}
	assert.Equal(t, m.IlotCount, total)
	assert.Equal(t, len(r.Report.Warnings), m.Warnings)
	assert.Equal(t, r.Report.Warnings, r.Warnings())
}

func TestAssembleCopiesInputs(t *testing.T) {
	r, in := analyze(t)
	first := r.Ilots[0]

	in.Placement.Ilots[0].ID = "changed"
	in.Plan.Walls[0].ID = "changed"
	in.Report.Warn(validation.LevelLayout, errors.ErrCodeParse, "late warning")

	assert.Equal(t, first, r.Ilots[0])
	assert.Equal(t, "w1", r.Plan.Walls[0].ID)
	assert.NotEqual(t, len(in.Report.Warnings), len(r.Report.Warnings))
}

func TestAssembleEmpty(t *testing.T) {
	r := Assemble(Input{Source: "empty"})
	assert.Empty(t, r.Ilots)
	assert.Empty(t, r.Corridors)
	assert.Zero(t, r.Metrics.Coverage)
	assert.True(t, r.Report.Valid)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ilots":[]`)
}

func TestValidateGeneratedLayout(t *testing.T) {
	r, _ := analyze(t)
	rep := Validate(r)
	assert.True(t, rep.Valid, "%v", rep.Errors)
}

func TestValidateNil(t *testing.T) {
	rep := Validate(nil)
	assert.False(t, rep.Valid)
}

func TestValidateDetectsDefects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Result)
		code   errors.Code
	}{
		{
			name: "overlapping îlots",
			mutate: func(r *Result) {
				dup := r.Ilots[0]
				dup.ID = "dup"
				r.Ilots = append(r.Ilots, dup)
				r.Metrics.IlotCount++
				r.Metrics.ClassCounts[dup.Class]++
			},
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "duplicate id",
			mutate: func(r *Result) {
				r.Ilots[1].ID = r.Ilots[0].ID
			},
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "îlot outside the boundary",
			mutate: func(r *Result) {
				r.Ilots[0].Rect = geo.R(19.5, 5, 21.5, 6)
			},
			code: errors.ErrCodeOutsideBoundary,
		},
		{
			name: "îlot on a restricted zone",
			mutate: func(r *Result) {
				r.Ilots[0].Rect = geo.R(16.5, 7.5, 17.5, 8.5)
			},
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "corridor through a restricted zone",
			mutate: func(r *Result) {
				r.Corridors = append(r.Corridors, corridor.Segment{
					ID:    "bad",
					Kind:  corridor.KindConnector,
					Path:  geo.NewPolyline(geo.Pt(17.5, 6), geo.Pt(17.5, 9.8)),
					Width: 0.2,
				})
			},
			code: errors.ErrCodeCorridorUnreachable,
		},
		{
			name: "counts out of step",
			mutate: func(r *Result) {
				r.Metrics.IlotCount += 3
			},
			code: errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := analyze(t)
			require.GreaterOrEqual(t, len(r.Ilots), 2)
			tt.mutate(r)
			rep := Validate(r)
			assert.False(t, rep.Valid)
			assert.Positive(t, rep.Count(tt.code), "%v", rep.Errors)
		})
	}
}

func TestRecord(t *testing.T) {
	r, _ := analyze(t)
	rec := r.Record()

	assert.Equal(t, r.ID, rec["id"])
	assert.Len(t, rec["ilots"], len(r.Ilots))
	assert.Len(t, rec["corridors"], len(r.Corridors))

	metrics, ok := rec["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, len(r.Ilots), metrics["ilot_count"])

	pl, ok := rec["plan"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, pl["walls"], 4)
	assert.Len(t, pl["boundary"], 4)

	first, ok := rec["ilots"].([]any)[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, r.Ilots[0].ID, first["id"])
	assert.Equal(t, r.Ilots[0].Rect.Width(), first["width"])

	_, err := json.Marshal(rec)
	assert.NoError(t, err)
}

func TestMarshalGeoJSON(t *testing.T) {
	r, _ := analyze(t)
	data, err := r.MarshalGeoJSON()
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)

	kinds := make(map[string]int)
	for _, f := range fc.Features {
		kinds[f.Properties.MustString("kind")]++
	}
	assert.Equal(t, 1, kinds["boundary"])
	assert.Equal(t, 4, kinds["wall"])
	assert.Equal(t, 1, kinds["restricted"])
	assert.Equal(t, 1, kinds["door"])
	assert.Equal(t, 1, kinds["entrance"])
	assert.Equal(t, len(r.FreeSpace), kinds["free_space"])
	assert.Equal(t, len(r.Ilots), kinds["ilot"])
	assert.Equal(t, len(r.Corridors), kinds["corridor"])
}
