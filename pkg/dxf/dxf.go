// Package dxf reads the geometry of ASCII DXF files into a drawing entity
// stream. Only the HEADER units, BLOCKS and ENTITIES sections are read.
package dxf

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// unitScale maps $INSUNITS codes to metres.
var unitScale = map[int]float64{
	1: 0.0254, // inches
	2: 0.3048, // feet
	4: 0.001,  // millimetres
	5: 0.01,   // centimetres
	6: 1,      // metres
}

type pair struct {
	code  int
	value string
}

type record struct {
	kind  string
	pairs []pair
}

// ReadFile reads a DXF file from disk.
func ReadFile(path string) (*drawing.Drawing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dxf: %w", err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, err
	}
	d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return d, nil
}

// Read parses an ASCII DXF stream. Coordinates are converted to metres using
// $INSUNITS when present.
func Read(r io.Reader) (*drawing.Drawing, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	d := &drawing.Drawing{Blocks: map[string][]drawing.Entity{}}
	scale := 1.0
	section := ""
	block := ""

	for i := 0; i < len(records); i++ {
		rec := records[i]
		switch rec.kind {
		case "SECTION":
			section = rec.str(2)
			if section == "HEADER" {
				scale = headerScale(rec)
			}
			continue
		case "ENDSEC":
			section = ""
			continue
		case "EOF":
			return d, nil
		}

		switch section {
		case "BLOCKS":
			switch rec.kind {
			case "BLOCK":
				block = rec.str(2)
				if _, ok := d.Blocks[block]; !ok {
					d.Blocks[block] = []drawing.Entity{}
				}
			case "ENDBLK":
				block = ""
			default:
				if block == "" {
					continue
				}
				e, skip := convert(records, &i, scale)
				if !skip {
					d.Blocks[block] = append(d.Blocks[block], e)
				}
			}
		case "ENTITIES":
			e, skip := convert(records, &i, scale)
			if !skip {
				d.Entities = append(d.Entities, e)
			}
		}
	}
	return d, nil
}

func readRecords(r io.Reader) ([]record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var records []record
	var cur *record
	line := 0
	for sc.Scan() {
		line++
		codeText := strings.TrimSpace(sc.Text())
		if !sc.Scan() {
			return nil, fmt.Errorf("dxf line %d: group code %q has no value", line, codeText)
		}
		line++
		code, err := strconv.Atoi(codeText)
		if err != nil {
			return nil, fmt.Errorf("dxf line %d: invalid group code %q", line-1, codeText)
		}
		value := strings.TrimSpace(sc.Text())

		if code == 0 {
			records = append(records, record{kind: value})
			cur = &records[len(records)-1]
			continue
		}
		if cur != nil {
			cur.pairs = append(cur.pairs, pair{code: code, value: value})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading dxf: %w", err)
	}
	return records, nil
}

// headerScale reads $INSUNITS from the HEADER section record. Header
// variables are flattened into the SECTION record's pairs.
func headerScale(rec record) float64 {
	for i, p := range rec.pairs {
		if p.code == 9 && p.value == "$INSUNITS" && i+1 < len(rec.pairs) {
			if u, err := strconv.Atoi(rec.pairs[i+1].value); err == nil {
				if s, ok := unitScale[u]; ok {
					return s
				}
			}
		}
	}
	return 1
}

func (r record) str(code int) string {
	for _, p := range r.pairs {
		if p.code == code {
			return p.value
		}
	}
	return ""
}

// num returns the float for code, NaN when it is present but malformed and
// def when it is absent.
func (r record) num(code int, def float64) float64 {
	for _, p := range r.pairs {
		if p.code == code {
			v, err := strconv.ParseFloat(p.value, 64)
			if err != nil {
				return math.NaN()
			}
			return v
		}
	}
	return def
}

func (r record) integer(code int) int {
	v, _ := strconv.Atoi(r.str(code))
	return v
}

// points collects repeated xCode/yCode pairs in order.
func (r record) points(xCode, yCode int) []geo.Point {
	var pts []geo.Point
	for _, p := range r.pairs {
		switch p.code {
		case xCode:
			v, err := strconv.ParseFloat(p.value, 64)
			if err != nil {
				v = math.NaN()
			}
			pts = append(pts, geo.Point{X: v})
		case yCode:
			if len(pts) == 0 {
				continue
			}
			v, err := strconv.ParseFloat(p.value, 64)
			if err != nil {
				v = math.NaN()
			}
			pts[len(pts)-1].Y = v
		}
	}
	return pts
}

func (r record) point(xCode, yCode int) geo.Point {
	return geo.Pt(r.num(xCode, 0), r.num(yCode, 0))
}

// convert turns records[*i] into an entity, consuming trailing VERTEX and
// SEQEND records for old-style polylines. skip is true for records that
// carry no geometry.
func convert(records []record, i *int, scale float64) (drawing.Entity, bool) {
	rec := records[*i]
	e := drawing.Entity{
		Layer:    rec.str(8),
		Color:    rec.integer(62),
		Linetype: rec.str(6),
	}

	switch rec.kind {
	case "LINE":
		e.Kind = drawing.KindLine
		e.Points = []geo.Point{rec.point(10, 20), rec.point(11, 21)}
	case "LWPOLYLINE":
		e.Kind = drawing.KindPolyline
		e.Points = rec.points(10, 20)
		e.Closed = rec.integer(70)&1 == 1
	case "POLYLINE":
		e.Kind = drawing.KindPolyline
		e.Closed = rec.integer(70)&1 == 1
		for *i+1 < len(records) && records[*i+1].kind == "VERTEX" {
			*i++
			e.Points = append(e.Points, records[*i].point(10, 20))
		}
		if *i+1 < len(records) && records[*i+1].kind == "SEQEND" {
			*i++
		}
	case "VERTEX", "SEQEND", "ATTRIB", "ATTDEF":
		return e, true
	case "ARC":
		e.Kind = drawing.KindArc
		e.Center = rec.point(10, 20)
		e.Radius = rec.num(40, 0)
		e.StartAngle = rec.num(50, 0)
		e.EndAngle = rec.num(51, 360)
	case "CIRCLE":
		e.Kind = drawing.KindCircle
		e.Center = rec.point(10, 20)
		e.Radius = rec.num(40, 0)
	case "TEXT", "MTEXT":
		e.Kind = drawing.KindText
		e.Points = []geo.Point{rec.point(10, 20)}
		e.Text = textValue(rec)
	case "INSERT":
		e.Kind = drawing.KindInsert
		e.Block = rec.str(2)
		e.Points = []geo.Point{rec.point(10, 20)}
		e.Scale = geo.Pt(rec.num(41, 1), rec.num(42, 1))
		e.Rotation = rec.num(50, 0)
		// Insertion points scale with the drawing; block contents are
		// scaled separately.
		e.Points[0] = e.Points[0].Scale(scale)
		return e, false
	case "SPLINE":
		e.Kind = drawing.KindSpline
		e.Points = rec.points(11, 21)
		if len(e.Points) < 2 {
			e.Points = rec.points(10, 20)
		}
		e.Closed = rec.integer(70)&1 == 1
	default:
		// Unsupported kinds pass through so the extractor can report them.
		e.Kind = drawing.Kind(strings.ToLower(rec.kind))
		return e, false
	}

	if scale != 1 {
		for k := range e.Points {
			e.Points[k] = e.Points[k].Scale(scale)
		}
		e.Center = e.Center.Scale(scale)
		e.Radius *= scale
	}
	return e, false
}

func textValue(rec record) string {
	var b strings.Builder
	for _, p := range rec.pairs {
		if p.code == 3 {
			b.WriteString(p.value)
		}
	}
	b.WriteString(rec.str(1))
	s := strings.ReplaceAll(b.String(), `\P`, " ")
	return strings.TrimSpace(s)
}
