package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/extract"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

func wall(x0, y0, x1, y1 float64) extract.Primitive {
	return extract.Primitive{
		Category:  extract.CategoryWall,
		Segments:  []geo.Segment{geo.Seg(geo.Pt(x0, y0), geo.Pt(x1, y1))},
		Thickness: 0.15,
	}
}

// roomPrims returns the four walls of a w x h room at (x, y), plus a door
// in the bottom wall when door is set.
func roomPrims(x, y, w, h float64, door bool) []extract.Primitive {
	prims := []extract.Primitive{
		wall(x, y, x+w, y),
		wall(x+w, y, x+w, y+h),
		wall(x+w, y+h, x, y+h),
		wall(x, y+h, x, y),
	}
	if door {
		hinge := geo.Pt(x+1, y)
		prims = append(prims, extract.Primitive{
			Category: extract.CategoryDoor,
			Swing:    &extract.Swing{Hinge: hinge, Radius: 0.9, Ends: [2]geo.Point{hinge.Add(geo.Pt(0.9, 0)), hinge.Add(geo.Pt(0, 0.9))}},
		})
	}
	return prims
}

func TestSelectSkipsTitleBlock(t *testing.T) {
	prims := roomPrims(0, 0, 20, 10, true)
	prims = append(prims, roomPrims(0, -30, 40, 2, false)...)

	sel, err := Select(context.Background(), prims, config.Default())
	require.NoError(t, err)
	require.Len(t, sel.Clusters, 2)
	assert.Equal(t, "c1", sel.Primary.ID)
	assert.Equal(t, 1, sel.Primary.Doors)
	assert.Greater(t, sel.Clusters[0].Score, sel.Clusters[1].Score)
}

func TestSelectAmbiguous(t *testing.T) {
	prims := roomPrims(0, 0, 20, 10, true)
	prims = append(prims, roomPrims(100, 0, 20, 10, true)...)

	_, err := Select(context.Background(), prims, config.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeAmbiguousPlan))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Len(t, e.Details, 2, "both candidates are listed")
}

func TestSelectTieBrokenByArea(t *testing.T) {
	prims := roomPrims(0, 0, 10, 5, true)
	prims = append(prims, roomPrims(100, 0, 20, 10, true)...)

	sel, err := Select(context.Background(), prims, config.Default())
	require.NoError(t, err)
	assert.Equal(t, "c2", sel.Primary.ID)
}

func TestPartitionDropsNoiseAndAttachesLabels(t *testing.T) {
	prims := roomPrims(0, 0, 20, 10, false)
	prims = append(prims,
		wall(200, 200, 201, 200),
		extract.Primitive{Category: extract.CategoryLabel, Text: "Hall", Anchor: geo.Pt(5, 5)},
		extract.Primitive{Category: extract.CategoryLabel, Text: "Legend", Anchor: geo.Pt(500, 500)},
	)

	clusters, report, err := Partition(prims, config.Default())
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 4, clusters[0].Walls)
	assert.Equal(t, 1, clusters[0].Labels)
	assert.Len(t, clusters[0].Primitives, 5)
	assert.Len(t, report.Info, 1)
}

func TestPartitionJoinsWithinGap(t *testing.T) {
	cfg := config.Default()
	prims := roomPrims(0, 0, 10, 10, false)
	// An annex 2 m away joins the main room at the default 3 m gap.
	prims = append(prims, roomPrims(12, 0, 5, 5, false)...)
	clusters, _, err := Partition(prims, cfg)
	require.NoError(t, err)
	assert.Len(t, clusters, 1)

	cfg.Selection.ClusterGap = 1
	clusters, _, err = Partition(prims, cfg)
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
}

func TestPartitionAttachesNearbyLabels(t *testing.T) {
	prims := roomPrims(0, 0, 20, 10, false)
	prims = append(prims,
		// Room tag written just outside the right wall.
		extract.Primitive{Category: extract.CategoryLabel, Text: "Hall", Anchor: geo.Pt(21.5, 5)},
		extract.Primitive{Category: extract.CategoryLabel, Text: "Title", Anchor: geo.Pt(30, 5)},
	)

	clusters, _, err := Partition(prims, config.Default())
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].Labels)
	assert.Equal(t, "Hall", clusters[0].Primitives[len(clusters[0].Primitives)-1].Text)
}

func TestSelectNoClusters(t *testing.T) {
	_, err := Select(context.Background(), []extract.Primitive{wall(0, 0, 1, 0)}, config.Default())
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestSelectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Select(ctx, roomPrims(0, 0, 20, 10, true), config.Default())
	assert.True(t, errors.Is(err, errors.ErrCodeCancelled))
}
