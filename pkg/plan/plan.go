// Package plan holds the floor plan model shared read-only by every stage
// after extraction.
package plan

import (
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// WallSegment is a wall centerline with its thickness.
type WallSegment struct {
	ID        string      `json:"id"`
	Segment   geo.Segment `json:"segment"`
	Thickness float64     `json:"thickness"`
	Layer     string      `json:"layer,omitempty"`
}

// Footprint returns the wall as a rectangle of its thickness.
func (w WallSegment) Footprint() geo.Polygon {
	return geo.BufferSegment(w.Segment, w.Thickness/2, 0)
}

// Door is a traversable opening. Swing is the area the leaf sweeps, or a
// small closed outline when the door was drawn as a block.
type Door struct {
	ID      string      `json:"id"`
	Opening geo.Segment `json:"opening"`
	Swing   geo.Polygon `json:"swing"`
	Width   float64     `json:"width"`
}

// Clearance returns the area that must stay free in front of the door.
func (d Door) Clearance() geo.Polygon {
	if !d.Swing.IsEmpty() {
		return d.Swing
	}
	return geo.BufferSegment(d.Opening, 0.05, 0)
}

// Entrance is a door on the outer boundary. Every corridor network starts
// from one.
type Entrance struct {
	ID      string      `json:"id"`
	Opening geo.Segment `json:"opening"`
	// Anchor is the interior point corridors connect to.
	Anchor geo.Point `json:"anchor"`
	Width  float64   `json:"width"`
}

// Footprint returns a thin polygon around the opening.
func (e Entrance) Footprint() geo.Polygon {
	return geo.BufferSegment(e.Opening, 0.05, 0)
}

// RestrictedZone is an area no îlot or corridor may enter.
type RestrictedZone struct {
	ID      string      `json:"id"`
	Polygon geo.Polygon `json:"polygon"`
	Label   string      `json:"label,omitempty"`
}

// FloorPlan is one selected view: a simple CCW boundary and the elements
// inside it.
type FloorPlan struct {
	Boundary        geo.Polygon      `json:"boundary"`
	Walls           []WallSegment    `json:"walls"`
	Doors           []Door           `json:"doors"`
	RestrictedZones []RestrictedZone `json:"restricted_zones"`
	Entrances       []Entrance       `json:"entrances"`
}

// Bounds returns the bounding box of the boundary.
func (p *FloorPlan) Bounds() geo.Rect {
	return p.Boundary.Bounds()
}

// Area returns the boundary area.
func (p *FloorPlan) Area() float64 {
	return p.Boundary.Area()
}

// RestrictedArea returns the summed area of restricted zones.
func (p *FloorPlan) RestrictedArea() float64 {
	total := 0.0
	for _, z := range p.RestrictedZones {
		total += z.Polygon.Area()
	}
	return total
}
