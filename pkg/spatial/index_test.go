package spatial

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

func square(x, y, s float64) geo.Polygon {
	return geo.RectAt(geo.Pt(x, y), s, s).Polygon()
}

func TestInsertDuplicate(t *testing.T) {
	x := New()
	require.NoError(t, x.Insert("a", KindWall, square(0, 0, 1)))
	assert.Error(t, x.Insert("a", KindWall, square(5, 5, 1)))
	assert.Error(t, x.Insert("b", KindWall, geo.Polygon{}))
	assert.Equal(t, 1, x.Len())
}

func TestQueryOverlappingExact(t *testing.T) {
	x := New()
	// A diagonal triangle whose box covers the probe but whose area does not.
	tri := geo.NewPolygon(geo.Pt(0, 0), geo.Pt(4, 0), geo.Pt(0, 4))
	require.NoError(t, x.Insert("tri", KindRestricted, tri))
	require.NoError(t, x.Insert("sq", KindWall, square(10, 10, 2)))

	assert.Empty(t, x.QueryOverlapping(square(3, 3, 0.5)))
	assert.Equal(t, []string{"tri"}, x.QueryOverlapping(square(0.5, 0.5, 0.5)))
	assert.Equal(t, []string{"sq"}, x.QueryOverlapping(square(11, 11, 5)))
	assert.Empty(t, x.QueryOverlapping(square(11, 11, 5), KindIlot))
}

func TestQueryOverlappingTouching(t *testing.T) {
	x := New()
	require.NoError(t, x.Insert("a", KindIlot, square(0, 0, 1)))
	assert.Equal(t, []string{"a"}, x.QueryOverlapping(square(1, 0, 1)), "shared edges count")
}

func TestQueryWithin(t *testing.T) {
	x := New()
	require.NoError(t, x.Insert("wall", KindWall, geo.BufferSegment(geo.Seg(geo.Pt(0, 0), geo.Pt(10, 0)), 0.1, 0)))
	probe := square(2, 0.5, 1)
	assert.Empty(t, x.QueryWithin(probe, 0.3))
	assert.Equal(t, []string{"wall"}, x.QueryWithin(probe, 0.45))
}

func TestRemove(t *testing.T) {
	x := New()
	require.NoError(t, x.Insert("a", KindIlot, square(0, 0, 1)))
	require.NoError(t, x.Insert("b", KindIlot, square(0, 0, 1)))
	assert.True(t, x.Remove("a"))
	assert.False(t, x.Remove("a"))
	assert.Equal(t, []string{"b"}, x.QueryOverlapping(square(0, 0, 1)))
	_, ok := x.Get("a")
	assert.False(t, ok)
	it, ok := x.Get("b")
	require.True(t, ok)
	assert.Equal(t, KindIlot, it.Kind)
}

func TestNearestExactOrder(t *testing.T) {
	x := New()
	// The long diagonal's box contains the probe, but its geometry is far.
	diag := geo.NewPolygon(geo.Pt(0, 0), geo.Pt(20, 20), geo.Pt(20, 20.1))
	require.NoError(t, x.Insert("diag", KindWall, diag))
	require.NoError(t, x.Insert("near", KindWall, square(14, 5, 1)))
	require.NoError(t, x.Insert("far", KindWall, square(30, 5, 1)))

	got := x.Nearest(geo.Pt(15, 4), 2)
	assert.Equal(t, []string{"near", "diag"}, got)
	assert.Len(t, x.Nearest(geo.Pt(15, 4), 10), 3)
	assert.Empty(t, x.Nearest(geo.Pt(15, 4), 1, KindRestricted))
}

func TestNearestManyItems(t *testing.T) {
	x := New()
	for i := 0; i < 200; i++ {
		require.NoError(t, x.Insert(fmt.Sprintf("i%d", i), KindIlot, square(float64(i%20)*2, float64(i/20)*2, 1)))
	}
	got := x.Nearest(geo.Pt(0.5, 0.5), 3)
	require.Len(t, got, 3)
	assert.Equal(t, "i0", got[0])
	assert.ElementsMatch(t, []string{"i1", "i20"}, got[1:])
}
