package spatial

import (
	"github.com/ChicagoDave/ilotplanner/pkg/plan"
)

// FromPlan builds an index over the fixed elements of fp: wall footprints,
// restricted zones, door swings and entrance openings, keyed by their plan
// ids.
func FromPlan(fp *plan.FloorPlan) (*Index, error) {
	x := New()
	for _, w := range fp.Walls {
		if err := x.Insert(w.ID, KindWall, w.Footprint()); err != nil {
			return nil, err
		}
	}
	for _, z := range fp.RestrictedZones {
		if err := x.Insert(z.ID, KindRestricted, z.Polygon); err != nil {
			return nil, err
		}
	}
	for _, d := range fp.Doors {
		if err := x.Insert(d.ID, KindDoor, d.Clearance()); err != nil {
			return nil, err
		}
	}
	for _, e := range fp.Entrances {
		if err := x.Insert(e.ID, KindEntrance, e.Footprint()); err != nil {
			return nil, err
		}
	}
	return x, nil
}
