package layout

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// Warnings returns the warnings gathered across all stages.
func (r *Result) Warnings() []validation.Result {
	return r.Report.Warnings
}

// Record returns the result as nested maps and slices of plain values, for
// callers that serialise through their own encoder.
func (r *Result) Record() map[string]any {
	ilots := make([]any, len(r.Ilots))
	for i, il := range r.Ilots {
		ilots[i] = map[string]any{
			"id":          il.ID,
			"class":       il.Class,
			"x":           il.Rect.Min.X,
			"y":           il.Rect.Min.Y,
			"width":       il.Rect.Width(),
			"height":      il.Rect.Height(),
			"orientation": il.Orientation,
			"region":      il.Region,
		}
	}

	corridors := make([]any, len(r.Corridors))
	for i, c := range r.Corridors {
		corridors[i] = map[string]any{
			"id":     c.ID,
			"kind":   string(c.Kind),
			"path":   pointList(c.Path.Points),
			"width":  c.Width,
			"length": c.Length(),
			"from":   c.From,
			"to":     c.To,
		}
	}

	regions := make([]any, len(r.FreeSpace))
	for i, reg := range r.FreeSpace {
		rings := make([]any, len(reg.Polygon))
		for j, ring := range reg.Polygon {
			rings[j] = orbPointList(ring)
		}
		regions[i] = map[string]any{
			"id":    reg.ID,
			"area":  reg.Area,
			"rings": rings,
		}
	}

	classes := make([]any, len(r.Metrics.Classes))
	for i, c := range r.Metrics.Classes {
		classes[i] = map[string]any{
			"name":       c.Name,
			"proportion": c.Proportion,
			"target":     c.Target,
			"placed":     c.Placed,
			"achieved":   c.Achieved,
			"divergence": c.Divergence,
			"area":       c.Area,
		}
	}

	warnings := make([]any, len(r.Report.Warnings))
	for i, w := range r.Report.Warnings {
		warnings[i] = map[string]any{
			"level":    string(w.Level),
			"code":     string(w.Code),
			"message":  w.Message,
			"subjects": append([]string{}, w.Subjects...),
		}
	}

	m := r.Metrics
	return map[string]any{
		"id":           r.ID,
		"source":       r.Source,
		"generated_at": r.GeneratedAt,
		"plan":         r.planRecord(),
		"free_space":   regions,
		"ilots":        ilots,
		"corridors":    corridors,
		"metrics": map[string]any{
			"boundary_area":     m.BoundaryArea,
			"restricted_area":   m.RestrictedArea,
			"free_area":         m.FreeArea,
			"ilot_area":         m.IlotArea,
			"ilot_count":        m.IlotCount,
			"average_ilot_area": m.AverageIlotArea,
			"coverage":          m.Coverage,
			"floor_coverage":    m.FloorCoverage,
			"estimate":          m.Estimate,
			"classes":           classes,
			"corridor_length":   m.CorridorLength,
			"corridor_area":     m.CorridorArea,
			"spines":            m.SpineCount,
			"links":             m.LinkCount,
			"connectors":        m.ConnectorCount,
			"network_pieces":    m.NetworkPieces,
			"unreachable":       append([]string{}, m.Unreachable...),
		},
		"warnings": warnings,
		"valid":    r.Report.Valid,
	}
}

func (r *Result) planRecord() map[string]any {
	walls := make([]any, len(r.Plan.Walls))
	for i, w := range r.Plan.Walls {
		walls[i] = map[string]any{
			"id":        w.ID,
			"start":     pointRecord(w.Segment.A),
			"end":       pointRecord(w.Segment.B),
			"thickness": w.Thickness,
		}
	}
	doors := make([]any, len(r.Plan.Doors))
	for i, d := range r.Plan.Doors {
		doors[i] = map[string]any{
			"id":    d.ID,
			"start": pointRecord(d.Opening.A),
			"end":   pointRecord(d.Opening.B),
			"width": d.Width,
		}
	}
	zones := make([]any, len(r.Plan.RestrictedZones))
	for i, z := range r.Plan.RestrictedZones {
		zones[i] = map[string]any{
			"id":      z.ID,
			"label":   z.Label,
			"polygon": pointList(z.Polygon.Vertices),
		}
	}
	entrances := make([]any, len(r.Plan.Entrances))
	for i, e := range r.Plan.Entrances {
		entrances[i] = map[string]any{
			"id":     e.ID,
			"anchor": pointRecord(e.Anchor),
			"width":  e.Width,
		}
	}
	return map[string]any{
		"boundary":         pointList(r.Plan.Boundary.Vertices),
		"area":             r.Metrics.BoundaryArea,
		"walls":            walls,
		"doors":            doors,
		"restricted_zones": zones,
		"entrances":        entrances,
	}
}

func pointRecord(p geo.Point) []any {
	return []any{p.X, p.Y}
}

func pointList(pts []geo.Point) []any {
	out := make([]any, len(pts))
	for i, p := range pts {
		out[i] = pointRecord(p)
	}
	return out
}

func orbPointList(ring orb.Ring) []any {
	out := make([]any, len(ring))
	for i, p := range ring {
		out[i] = []any{p[0], p[1]}
	}
	return out
}

// FeatureCollection returns the plan and layout as planar GeoJSON features,
// each tagged with a "kind" property.
func (r *Result) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	add := func(g orb.Geometry, kind, id string, props map[string]any) {
		f := geojson.NewFeature(g)
		f.ID = id
		f.Properties["kind"] = kind
		f.Properties["id"] = id
		for k, v := range props {
			f.Properties[k] = v
		}
		fc.Append(f)
	}

	if !r.Plan.Boundary.IsEmpty() {
		add(r.Plan.Boundary.OrbPolygon(), "boundary", "boundary", map[string]any{"area": r.Metrics.BoundaryArea})
	}
	for _, w := range r.Plan.Walls {
		add(orb.LineString{geo.OrbPoint(w.Segment.A), geo.OrbPoint(w.Segment.B)}, "wall", w.ID,
			map[string]any{"thickness": w.Thickness})
	}
	for _, z := range r.Plan.RestrictedZones {
		add(z.Polygon.OrbPolygon(), "restricted", z.ID, map[string]any{"label": z.Label})
	}
	for _, d := range r.Plan.Doors {
		add(orb.LineString{geo.OrbPoint(d.Opening.A), geo.OrbPoint(d.Opening.B)}, "door", d.ID,
			map[string]any{"width": d.Width})
	}
	for _, e := range r.Plan.Entrances {
		add(geo.OrbPoint(e.Anchor), "entrance", e.ID, map[string]any{"width": e.Width})
	}
	for _, reg := range r.FreeSpace {
		add(reg.Polygon, "free_space", reg.ID, map[string]any{"area": reg.Area})
	}
	for _, il := range r.Ilots {
		add(il.Rect.Polygon().OrbPolygon(), "ilot", il.ID, map[string]any{
			"class":       il.Class,
			"orientation": il.Orientation,
			"area":        il.Area(),
		})
	}
	for _, c := range r.Corridors {
		add(c.Path.OrbLineString(), "corridor", c.ID, map[string]any{
			"corridor_kind": string(c.Kind),
			"width":         c.Width,
			"from":          c.From,
			"to":            c.To,
		})
	}
	return fc
}

// MarshalGeoJSON encodes FeatureCollection.
func (r *Result) MarshalGeoJSON() ([]byte, error) {
	return r.FeatureCollection().MarshalJSON()
}
