package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

const (
	maxBlockDepth = 8

	// Door leaves are drawn as quarter circles; allow some slack.
	doorMinSweep = 60.0
	doorMaxSweep = 120.0

	maxSplineSamples = 64
)

type flatEntity struct {
	drawing.Entity
	source int
}

// shape is the polygonized geometry of one entity.
type shape struct {
	segs    []geo.Segment
	polygon geo.Polygon
	swing   *Swing
	sweep   float64 // degrees, arcs only
}

type classifier struct {
	cfg     *config.Config
	rules   []Rule
	tol     float64
	report  *validation.Report
	prims   []Primitive
	pending []Primitive
	ignored int
}

// Classify flattens, polygonizes and classifies every entity of d. Entities
// that cannot be interpreted are skipped and reported as PARSE_ERROR
// warnings; Classify itself never fails.
func Classify(d *drawing.Drawing, cfg *config.Config) ([]Primitive, *validation.Report) {
	report := validation.NewReport()
	if d == nil {
		return nil, report
	}

	rules, err := CompileRules(cfg.Extraction.Rules)
	if err != nil {
		report.Warn(validation.LevelExtraction, errors.ErrCodeParse, "ignoring configured rules: %v", err)
		rules = DefaultRules
	}

	c := &classifier{cfg: cfg, rules: rules, tol: cfg.ChordTolerance(), report: report}
	for _, fe := range flatten(d, report) {
		c.add(fe)
	}
	c.resolvePending()
	c.attachLabels()
	if !cfg.Fast() {
		c.prims = pairWalls(c.prims, cfg.Extraction.SnapTolerance, cfg.Extraction.MaxWallThickness)
	}

	for i := range c.prims {
		c.prims[i].ID = fmt.Sprintf("p%d", i+1)
	}
	if c.ignored > 0 {
		report.AddInfo(validation.Result{
			Level:   validation.LevelExtraction,
			Message: fmt.Sprintf("%d entities ignored by rule", c.ignored),
		})
	}
	return c.prims, report
}

// flatten expands block inserts recursively. Entities inside a block on
// layer "0" take the insert's layer, as CAD programs display them.
func flatten(d *drawing.Drawing, report *validation.Report) []flatEntity {
	var out []flatEntity
	var expand func(e drawing.Entity, tr drawing.Transform, source, depth int)
	expand = func(e drawing.Entity, tr drawing.Transform, source, depth int) {
		if e.Kind != drawing.KindInsert {
			out = append(out, flatEntity{Entity: tr.ApplyEntity(e), source: source})
			return
		}
		if err := e.Validate(); err != nil {
			report.Warn(validation.LevelExtraction, errors.ErrCodeParse, "entity %d: %v", source, err)
			return
		}
		if depth >= maxBlockDepth {
			report.Warn(validation.LevelExtraction, errors.ErrCodeParse,
				"entity %d: block %q nested deeper than %d", source, e.Block, maxBlockDepth)
			return
		}
		members, ok := d.Blocks[e.Block]
		if !ok {
			report.Warn(validation.LevelExtraction, errors.ErrCodeParse,
				"entity %d: undefined block %q", source, e.Block)
			return
		}
		inner := drawing.InsertTransform(e).Then(tr)
		for _, m := range members {
			if m.Layer == "" || m.Layer == "0" {
				m.Layer = e.Layer
			}
			if m.Color == 0 || m.Color == drawing.ColorByLayer {
				m.Color = e.Color
			}
			expand(m, inner, source, depth+1)
		}
	}
	for i, e := range d.Entities {
		expand(e, drawing.Identity, i, 0)
	}
	return out
}

func (c *classifier) add(fe flatEntity) {
	if err := fe.Validate(); err != nil {
		c.report.Warn(validation.LevelExtraction, errors.ErrCodeParse,
			"entity %d (%s on %q): %v", fe.source, fe.Kind, fe.Layer, err)
		return
	}
	if fe.Kind == drawing.KindText {
		if strings.TrimSpace(fe.Text) != "" {
			c.prims = append(c.prims, Primitive{
				Category: CategoryLabel, Layer: fe.Layer, Source: fe.source,
				Text: strings.TrimSpace(fe.Text), Anchor: fe.Points[0],
			})
		}
		return
	}

	cat, ruled := Match(c.rules, fe.Entity)
	if ruled && (cat == CategoryIgnore || cat == CategoryLabel) {
		c.ignored++
		return
	}
	sh := c.shape(fe.Entity)

	if ruled {
		c.emit(fe, cat, sh)
		return
	}
	switch {
	case sh.swing != nil && c.doorSized(sh):
		c.emit(fe, CategoryDoor, sh)
	case fe.Kind == drawing.KindCircle:
		c.emit(fe, CategoryRestricted, sh)
	case !sh.polygon.IsEmpty():
		c.pending = append(c.pending, Primitive{
			Layer: fe.Layer, Source: fe.source, Segments: sh.segs, Polygon: sh.polygon,
		})
	default:
		c.emit(fe, CategoryWall, sh)
	}
}

func (c *classifier) shape(e drawing.Entity) shape {
	var sh shape
	switch e.Kind {
	case drawing.KindLine:
		sh.segs = []geo.Segment{geo.Seg(e.Points[0], e.Points[1])}
	case drawing.KindPolyline:
		sh = c.pathShape(e.Points, e.Closed)
	case drawing.KindSpline:
		pl := sampleSpline(e.Points, e.Closed, c.tol)
		sh = c.pathShape(pl.Points, false)
	case drawing.KindArc:
		start, end := e.StartAngle*math.Pi/180, e.EndAngle*math.Pi/180
		pts := geo.ArcPoints(e.Center, e.Radius, start, end, c.tol)
		sh.segs = geo.NewPolyline(pts...).Segments()
		sh.swing = &Swing{Hinge: e.Center, Radius: e.Radius, Ends: [2]geo.Point{pts[0], pts[len(pts)-1]}}
		sh.sweep = math.Mod(e.EndAngle-e.StartAngle+720, 360)
		if sh.sweep == 0 {
			sh.sweep = 360
		}
	case drawing.KindCircle:
		sh.polygon = geo.ApproximateCircle(e.Center, e.Radius, c.tol)
		sh.segs = sh.polygon.Edges()
	}
	return sh
}

// pathShape treats an open path whose ends meet as closed.
func (c *classifier) pathShape(pts []geo.Point, closed bool) shape {
	var sh shape
	n := len(pts)
	if !closed && n >= 4 && pts[0].Near(pts[n-1], c.cfg.Extraction.SnapTolerance) {
		closed = true
		pts = pts[:n-1]
	}
	if closed && n >= 3 {
		sh.polygon = geo.NewPolygon(pts...).EnsureCCW()
		if sh.polygon.Area() > geo.Epsilon {
			sh.segs = sh.polygon.Edges()
			return sh
		}
		sh.polygon = geo.Polygon{}
	}
	sh.segs = geo.NewPolyline(pts...).Segments()
	return sh
}

// sampleSpline interpolates through the fit points with enough samples per
// span to stay within tol of the curve.
func sampleSpline(pts []geo.Point, closed bool, tol float64) geo.Polyline {
	span := geo.NewPolyline(pts...).Length() / float64(len(pts)-1)
	samples := 2
	if tol > 0 {
		samples = int(math.Ceil(math.Sqrt(span / tol)))
	}
	samples = max(2, min(samples, maxSplineSamples))
	if closed {
		return geo.CatmullRomSplineClosed(pts, samples, 0.5)
	}
	return geo.CatmullRomSpline(pts, samples, 0.5)
}

func (c *classifier) doorSized(sh shape) bool {
	ex := c.cfg.Extraction
	r := sh.swing.Radius
	return r >= ex.DoorMinRadius && r <= ex.DoorMaxRadius &&
		sh.sweep >= doorMinSweep && sh.sweep <= doorMaxSweep
}

func (c *classifier) emit(fe flatEntity, cat Category, sh shape) {
	p := Primitive{Category: cat, Layer: fe.Layer, Source: fe.source}
	switch cat {
	case CategoryWall:
		p.Segments = sh.segs
		p.Thickness = c.cfg.Extraction.DefaultWallThickness
	case CategoryDoor:
		if sh.swing != nil {
			p.Swing = sh.swing
			p.Polygon = sh.swing.Polygon(c.tol)
		} else {
			p.Segments = sh.segs
			p.Polygon = sh.polygon
		}
	case CategoryEntrance:
		p.Segments = sh.segs
		p.Polygon = sh.polygon
		p.Swing = sh.swing
	case CategoryRestricted:
		p.Polygon = sh.polygon
		if p.Polygon.IsEmpty() {
			b := geo.NewPolyline(segmentPoints(sh.segs)...).Bounds()
			if b.IsEmpty() {
				c.report.Warn(validation.LevelExtraction, errors.ErrCodeParse,
					"entity %d: restricted %s on %q encloses no area", fe.source, fe.Kind, fe.Layer)
				return
			}
			p.Polygon = b.Polygon()
		}
	}
	c.prims = append(c.prims, p)
}

// resolvePending classifies closed shapes that no rule claimed: a shape
// holding a restricted label is a restricted zone, a small shape at a wall
// gap is a door, anything else is wall.
func (c *classifier) resolvePending() {
	if len(c.pending) == 0 {
		return
	}
	var wallSegs []geo.Segment
	for _, p := range c.prims {
		if p.Category == CategoryWall {
			wallSegs = append(wallSegs, p.Segments...)
		}
	}
	gaps := danglingEnds(wallSegs, c.cfg.Extraction.SnapTolerance)
	ex := c.cfg.Extraction

	for _, p := range c.pending {
		switch {
		case c.labelInside(p.Polygon, true) != "":
			p.Category = CategoryRestricted
			p.Segments = nil
		case p.Polygon.Area() <= ex.MaxDoorArea &&
			math.Max(p.Polygon.Bounds().Width(), p.Polygon.Bounds().Height()) <= ex.DoorMaxRadius &&
			nearAny(p.Polygon, gaps, ex.MaxWallThickness):
			p.Category = CategoryDoor
			p.Segments = nil
		default:
			p.Category = CategoryWall
			p.Polygon = geo.Polygon{}
			p.Thickness = ex.DefaultWallThickness
		}
		c.prims = append(c.prims, p)
	}
	c.pending = nil
}

// attachLabels names restricted zones after the label they contain.
func (c *classifier) attachLabels() {
	for i := range c.prims {
		p := &c.prims[i]
		if p.Category == CategoryRestricted && p.Text == "" {
			p.Text = c.labelInside(p.Polygon, false)
		}
	}
}

func (c *classifier) labelInside(poly geo.Polygon, restrictedOnly bool) string {
	for _, p := range c.prims {
		if p.Category != CategoryLabel || !poly.Contains(p.Anchor) {
			continue
		}
		if restrictedOnly && !restrictedLabel.MatchString(p.Text) {
			continue
		}
		return p.Text
	}
	return ""
}

func nearAny(poly geo.Polygon, pts []geo.Point, reach float64) bool {
	for _, pt := range pts {
		if poly.Covers(pt, reach) {
			return true
		}
	}
	return false
}

func segmentPoints(segs []geo.Segment) []geo.Point {
	pts := make([]geo.Point, 0, 2*len(segs))
	for _, s := range segs {
		pts = append(pts, s.A, s.B)
	}
	return pts
}
