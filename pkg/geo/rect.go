package geo

import "math"

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// R builds a rectangle from two opposite corners in any order.
func R(x0, y0, x1, y1 float64) Rect {
	return Rect{
		Min: Pt(math.Min(x0, x1), math.Min(y0, y1)),
		Max: Pt(math.Max(x0, x1), math.Max(y0, y1)),
	}
}

// RectAt returns the w x h rectangle whose minimum corner is at p.
func RectAt(p Point, w, h float64) Rect {
	return Rect{Min: p, Max: Pt(p.X+w, p.Y+h)}
}

// Width returns the extent along X.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the extent along Y.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Area returns Width*Height.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Center returns the rectangle centre.
func (r Rect) Center() Point { return MidPoint(r.Min, r.Max) }

// IsEmpty reports a zero or negative extent on either axis.
func (r Rect) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// ContainsPoint reports whether p lies in the closed rectangle.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.Min.X >= r.Min.X && o.Max.X <= r.Max.X && o.Min.Y >= r.Min.Y && o.Max.Y <= r.Max.Y
}

// Intersects reports whether the closed rectangles touch or overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X && r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Intersection returns the overlapping rectangle, empty if none.
func (r Rect) Intersection(o Rect) Rect {
	out := Rect{
		Min: Pt(math.Max(r.Min.X, o.Min.X), math.Max(r.Min.Y, o.Min.Y)),
		Max: Pt(math.Min(r.Max.X, o.Max.X), math.Min(r.Max.Y, o.Max.Y)),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// OverlapArea returns the area shared by r and o.
func (r Rect) OverlapArea(o Rect) float64 {
	return r.Intersection(o).Area()
}

// Gaps returns the horizontal and vertical separation between r and o.
// A negative value means the projections overlap on that axis.
func (r Rect) Gaps(o Rect) (dx, dy float64) {
	dx = math.Max(o.Min.X-r.Max.X, r.Min.X-o.Max.X)
	dy = math.Max(o.Min.Y-r.Max.Y, r.Min.Y-o.Max.Y)
	return dx, dy
}

// Expand grows the rectangle by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{Min: Pt(r.Min.X-d, r.Min.Y-d), Max: Pt(r.Max.X+d, r.Max.Y+d)}
}

// ExtendPoint returns the smallest rectangle covering r and p.
func (r Rect) ExtendPoint(p Point) Rect {
	return Rect{
		Min: Pt(math.Min(r.Min.X, p.X), math.Min(r.Min.Y, p.Y)),
		Max: Pt(math.Max(r.Max.X, p.X), math.Max(r.Max.Y, p.Y)),
	}
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	return r.ExtendPoint(o.Min).ExtendPoint(o.Max)
}

// Translate returns the rectangle shifted by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Polygon returns the rectangle as a CCW ring.
func (r Rect) Polygon() Polygon {
	return NewPolygon(
		r.Min,
		Pt(r.Max.X, r.Min.Y),
		r.Max,
		Pt(r.Min.X, r.Max.Y),
	)
}

// Aspect returns the ratio of the long side to the short side.
func (r Rect) Aspect() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return math.Inf(1)
	}
	return math.Max(w, h) / math.Min(w, h)
}
