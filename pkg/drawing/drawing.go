// Package drawing defines the normalized entity stream that file-format
// adapters produce and the extractor consumes.
package drawing

import (
	"fmt"
	"math"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

// Kind is the geometric type of a raw entity.
type Kind string

const (
	KindLine     Kind = "line"
	KindPolyline Kind = "polyline"
	KindArc      Kind = "arc"
	KindCircle   Kind = "circle"
	KindSpline   Kind = "spline"
	KindText     Kind = "text"
	KindInsert   Kind = "insert"
)

// ColorByLayer is the ACI value meaning "inherit from layer".
const ColorByLayer = 256

// Entity is one primitive from the source drawing. Angles are in degrees,
// counterclockwise from +X, as CAD formats store them.
type Entity struct {
	Kind     Kind        `yaml:"kind" json:"kind"`
	Layer    string      `yaml:"layer,omitempty" json:"layer,omitempty"`
	Color    int         `yaml:"color,omitempty" json:"color,omitempty"`
	Linetype string      `yaml:"linetype,omitempty" json:"linetype,omitempty"`
	Points   []geo.Point `yaml:"points,omitempty" json:"points,omitempty"`
	Closed   bool        `yaml:"closed,omitempty" json:"closed,omitempty"`

	Center     geo.Point `yaml:"center,omitempty" json:"center,omitempty"`
	Radius     float64   `yaml:"radius,omitempty" json:"radius,omitempty"`
	StartAngle float64   `yaml:"start_angle,omitempty" json:"start_angle,omitempty"`
	EndAngle   float64   `yaml:"end_angle,omitempty" json:"end_angle,omitempty"`

	Text string `yaml:"text,omitempty" json:"text,omitempty"`

	Block    string    `yaml:"block,omitempty" json:"block,omitempty"`
	Scale    geo.Point `yaml:"scale,omitempty" json:"scale,omitempty"`
	Rotation float64   `yaml:"rotation,omitempty" json:"rotation,omitempty"`
}

// Drawing is a complete entity stream plus the block definitions that
// insert entities refer to.
type Drawing struct {
	Name     string              `yaml:"name,omitempty" json:"name,omitempty"`
	Entities []Entity            `yaml:"entities" json:"entities"`
	Blocks   map[string][]Entity `yaml:"blocks,omitempty" json:"blocks,omitempty"`
}

// Validate reports why an entity cannot be interpreted, or nil.
func (e Entity) Validate() error {
	for _, p := range e.Points {
		if !finite(p) {
			return fmt.Errorf("non-finite coordinate %v", p)
		}
	}
	switch e.Kind {
	case KindLine:
		if len(e.Points) != 2 {
			return fmt.Errorf("line needs 2 points, has %d", len(e.Points))
		}
		if e.Points[0] == e.Points[1] {
			return fmt.Errorf("zero-length line at %v", e.Points[0])
		}
	case KindPolyline:
		if len(e.Points) < 2 {
			return fmt.Errorf("polyline needs at least 2 points, has %d", len(e.Points))
		}
	case KindSpline:
		if len(e.Points) < 2 {
			return fmt.Errorf("spline needs at least 2 points, has %d", len(e.Points))
		}
	case KindArc, KindCircle:
		if !finite(e.Center) || math.IsNaN(e.Radius) {
			return fmt.Errorf("non-finite %s geometry", e.Kind)
		}
		if e.Radius <= 0 {
			return fmt.Errorf("%s radius must be positive, got %g", e.Kind, e.Radius)
		}
	case KindText:
		if len(e.Points) != 1 {
			return fmt.Errorf("text needs 1 insertion point, has %d", len(e.Points))
		}
	case KindInsert:
		if e.Block == "" {
			return fmt.Errorf("insert has no block name")
		}
		if len(e.Points) != 1 {
			return fmt.Errorf("insert needs 1 insertion point, has %d", len(e.Points))
		}
	default:
		return fmt.Errorf("unsupported entity kind %q", e.Kind)
	}
	return nil
}

// Transform maps block-local coordinates through an insert's placement.
type Transform struct {
	Offset   geo.Point
	ScaleX   float64
	ScaleY   float64
	Rotation float64 // radians
}

// Identity is the no-op transform.
var Identity = Transform{ScaleX: 1, ScaleY: 1}

// InsertTransform returns the transform an insert entity applies.
func InsertTransform(e Entity) Transform {
	sx, sy := e.Scale.X, e.Scale.Y
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return Transform{
		Offset:   e.Points[0],
		ScaleX:   sx,
		ScaleY:   sy,
		Rotation: e.Rotation * math.Pi / 180,
	}
}

// Apply maps p through the transform.
func (t Transform) Apply(p geo.Point) geo.Point {
	return geo.Pt(p.X*t.ScaleX, p.Y*t.ScaleY).Rotate(t.Rotation).Add(t.Offset)
}

// Then returns the transform that applies t first, then outer.
func (t Transform) Then(outer Transform) Transform {
	return Transform{
		Offset:   outer.Apply(t.Offset),
		ScaleX:   t.ScaleX * outer.ScaleX,
		ScaleY:   t.ScaleY * outer.ScaleY,
		Rotation: t.Rotation + outer.Rotation,
	}
}

// Uniform reports whether the transform preserves circles.
func (t Transform) Uniform() bool {
	return math.Abs(math.Abs(t.ScaleX)-math.Abs(t.ScaleY)) < 1e-9
}

// ApplyEntity returns a copy of e expressed in the outer coordinate system.
func (t Transform) ApplyEntity(e Entity) Entity {
	out := e
	out.Points = make([]geo.Point, len(e.Points))
	for i, p := range e.Points {
		out.Points[i] = t.Apply(p)
	}
	if e.Kind == KindArc || e.Kind == KindCircle {
		out.Center = t.Apply(e.Center)
		out.Radius = e.Radius * math.Abs(t.ScaleX)
		deg := t.Rotation * 180 / math.Pi
		out.StartAngle = e.StartAngle + deg
		out.EndAngle = e.EndAngle + deg
	}
	return out
}

func finite(p geo.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
