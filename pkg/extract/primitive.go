// Package extract turns a raw drawing entity stream into classified
// architectural primitives and assembles a floor plan from them.
//
// Extraction runs in two steps. Classify flattens blocks, polygonizes curves
// and assigns every entity a category using the rule table and geometric
// heuristics. Build takes the primitives of one selected view, derives the
// outer boundary from the wall network and resolves doors and entrances.
package extract

import (
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// Category is the architectural role of a primitive.
type Category string

const (
	CategoryWall       Category = "wall"
	CategoryDoor       Category = "door"
	CategoryEntrance   Category = "entrance"
	CategoryRestricted Category = "restricted"
	CategoryLabel      Category = "label"
	CategoryIgnore     Category = "ignore"
)

// ParseCategory returns the category named by s.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryWall, CategoryDoor, CategoryEntrance, CategoryRestricted, CategoryLabel, CategoryIgnore:
		return c, true
	}
	return "", false
}

// Swing describes a door drawn as a quarter-circle leaf.
type Swing struct {
	Hinge  geo.Point    `json:"hinge"`
	Radius float64      `json:"radius"`
	Ends   [2]geo.Point `json:"ends"`
}

// Polygon returns the pie slice swept by the leaf.
func (s Swing) Polygon(tol float64) geo.Polygon {
	a0 := s.Ends[0].Sub(s.Hinge).Angle()
	a1 := s.Ends[1].Sub(s.Hinge).Angle()
	pts := append([]geo.Point{s.Hinge}, geo.ArcPoints(s.Hinge, s.Radius, a0, a1, tol)...)
	return geo.NewPolygon(pts...).EnsureCCW()
}

// Primitive is one classified piece of geometry.
type Primitive struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Layer    string   `json:"layer,omitempty"`
	// Source is the index of the top-level entity this came from.
	Source int `json:"source"`

	Segments  []geo.Segment `json:"segments,omitempty"`
	Polygon   geo.Polygon   `json:"polygon,omitempty"`
	Thickness float64       `json:"thickness,omitempty"`
	Swing     *Swing        `json:"swing,omitempty"`

	Text   string    `json:"text,omitempty"`
	Anchor geo.Point `json:"anchor,omitempty"`
}

// Bounds returns the bounding box of all geometry carried by p.
func (p Primitive) Bounds() geo.Rect {
	r := geo.Rect{Min: p.Anchor, Max: p.Anchor}
	first := true
	add := func(b geo.Rect) {
		if first {
			r = b
			first = false
			return
		}
		r = r.Union(b)
	}
	for _, s := range p.Segments {
		add(s.Bounds())
	}
	if !p.Polygon.IsEmpty() {
		add(p.Polygon.Bounds())
	}
	if p.Swing != nil {
		add(geo.Rect{Min: p.Swing.Hinge, Max: p.Swing.Hinge}.Expand(p.Swing.Radius))
	}
	return r
}

// Length returns the summed length of the primitive's segments.
func (p Primitive) Length() float64 {
	total := 0.0
	for _, s := range p.Segments {
		total += s.Length()
	}
	return total
}
