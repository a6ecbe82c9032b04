package dxf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// dxfText joins group code/value pairs into DXF lines.
func dxfText(pairs ...string) string {
	return strings.Join(pairs, "\n") + "\n"
}

func TestReadEntities(t *testing.T) {
	src := dxfText(
		"0", "SECTION", "2", "HEADER",
		"9", "$INSUNITS", "70", "4",
		"0", "ENDSEC",
		"0", "SECTION", "2", "BLOCKS",
		"0", "BLOCK", "2", "DOOR", "10", "0", "20", "0",
		"0", "ARC", "8", "0", "10", "0", "20", "0", "40", "900", "50", "0", "51", "90",
		"0", "ENDBLK",
		"0", "ENDSEC",
		"0", "SECTION", "2", "ENTITIES",
		"0", "LINE", "8", "A-WALL", "62", "7", "10", "0", "20", "0", "11", "5000", "21", "0",
		"0", "LWPOLYLINE", "8", "A-COLS", "90", "4", "70", "1",
		"10", "1000", "20", "1000", "10", "1400", "20", "1000",
		"10", "1400", "20", "1400", "10", "1000", "20", "1400",
		"0", "POLYLINE", "8", "WALL", "70", "0",
		"0", "VERTEX", "10", "0", "20", "0",
		"0", "VERTEX", "10", "0", "20", "3000",
		"0", "SEQEND",
		"0", "TEXT", "8", "ANNO", "10", "1200", "20", "1200", "1", "ESCALIER",
		"0", "INSERT", "2", "DOOR", "10", "2000", "20", "0", "50", "90",
		"0", "HATCH", "8", "FILL",
		"0", "ENDSEC",
		"0", "EOF",
	)

	d, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, d.Entities, 6)

	line := d.Entities[0]
	assert.Equal(t, drawing.KindLine, line.Kind)
	assert.Equal(t, "A-WALL", line.Layer)
	assert.Equal(t, 7, line.Color)
	assert.Equal(t, geo.Pt(5, 0), line.Points[1], "millimetres convert to metres")

	poly := d.Entities[1]
	assert.Equal(t, drawing.KindPolyline, poly.Kind)
	assert.True(t, poly.Closed)
	require.Len(t, poly.Points, 4)
	assert.InDelta(t, 1.4, poly.Points[2].X, 1e-9)

	old := d.Entities[2]
	assert.Equal(t, drawing.KindPolyline, old.Kind)
	assert.Len(t, old.Points, 2)

	assert.Equal(t, "ESCALIER", d.Entities[3].Text)

	ins := d.Entities[4]
	assert.Equal(t, drawing.KindInsert, ins.Kind)
	assert.Equal(t, "DOOR", ins.Block)
	assert.Equal(t, geo.Pt(2, 0), ins.Points[0])
	assert.InDelta(t, 90, ins.Rotation, 1e-9)

	assert.Equal(t, drawing.Kind("hatch"), d.Entities[5].Kind)
	assert.Error(t, d.Entities[5].Validate())

	require.Contains(t, d.Blocks, "DOOR")
	require.Len(t, d.Blocks["DOOR"], 1)
	assert.InDelta(t, 0.9, d.Blocks["DOOR"][0].Radius, 1e-9)
}

func TestReadMalformedNumber(t *testing.T) {
	src := dxfText(
		"0", "SECTION", "2", "ENTITIES",
		"0", "LINE", "10", "abc", "20", "0", "11", "1", "21", "0",
		"0", "ENDSEC", "0", "EOF",
	)
	d, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, d.Entities, 1)
	assert.Error(t, d.Entities[0].Validate())
}

func TestReadBadGroupCode(t *testing.T) {
	_, err := Read(strings.NewReader("X\nSECTION\n"))
	assert.Error(t, err)
}
