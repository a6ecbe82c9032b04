// Package selector picks the primary floor plan out of a drawing sheet that
// may hold several views.
package selector

import (
	"fmt"
	"strconv"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/extract"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// Cluster is a connected group of primitives, one candidate view.
type Cluster struct {
	ID         string              `json:"id"`
	Primitives []extract.Primitive `json:"-"`
	Bounds     geo.Rect            `json:"bounds"`
	Walls      int                 `json:"walls"`
	Doors      int                 `json:"doors"`
	Entrances  int                 `json:"entrances"`
	Restricted int                 `json:"restricted"`
	Labels     int                 `json:"labels"`
	WallLength float64             `json:"wall_length"`
	Score      float64             `json:"score"`
}

// Size returns the number of geometric primitives, labels excluded.
func (c *Cluster) Size() int {
	return c.Walls + c.Doors + c.Entrances + c.Restricted
}

func (c *Cluster) add(p extract.Primitive) {
	switch p.Category {
	case extract.CategoryWall:
		c.Walls++
		c.WallLength += p.Length()
	case extract.CategoryDoor:
		c.Doors++
	case extract.CategoryEntrance:
		c.Entrances++
	case extract.CategoryRestricted:
		c.Restricted++
	case extract.CategoryLabel:
		c.Labels++
	}
	c.Primitives = append(c.Primitives, p)
}

type unionFind []int

func newUnionFind(n int) unionFind {
	uf := make(unionFind, n)
	for i := range uf {
		uf[i] = i
	}
	return uf
}

func (uf unionFind) find(i int) int {
	for uf[i] != i {
		uf[i] = uf[uf[i]]
		i = uf[i]
	}
	return i
}

func (uf unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		uf[rb] = ra
	} else {
		uf[ra] = rb
	}
}

// Partition groups primitives whose boxes come within ClusterGap of each
// other. Containment is covered because a contained box always overlaps.
// Clusters are numbered by their first primitive; clusters smaller than
// MinClusterSize are dropped as noise. Labels join the cluster whose
// bounds contain them, or else the cluster of the nearest primitive when
// that lies within ClusterGap.
func Partition(prims []extract.Primitive, cfg *config.Config) ([]*Cluster, *validation.Report, error) {
	report := validation.NewReport()
	half := cfg.Selection.ClusterGap / 2

	var geom []int
	for i, p := range prims {
		if p.Category != extract.CategoryLabel {
			geom = append(geom, i)
		}
	}

	idx := spatial.New()
	boxes := make(map[int]geo.Polygon, len(geom))
	for _, i := range geom {
		box := prims[i].Bounds().Expand(half).Polygon()
		boxes[i] = box
		if err := idx.Insert(strconv.Itoa(i), spatial.Kind(prims[i].Category), box); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "primitive %d", i)
		}
	}

	uf := newUnionFind(len(prims))
	for _, i := range geom {
		for _, id := range idx.QueryOverlapping(boxes[i]) {
			j, _ := strconv.Atoi(id)
			uf.union(i, j)
		}
	}

	byRoot := make(map[int]*Cluster)
	owner := make(map[int]*Cluster, len(geom))
	var clusters []*Cluster
	for _, i := range geom {
		root := uf.find(i)
		c, ok := byRoot[root]
		if !ok {
			c = &Cluster{Bounds: prims[i].Bounds()}
			byRoot[root] = c
			clusters = append(clusters, c)
		}
		c.Bounds = c.Bounds.Union(prims[i].Bounds())
		c.add(prims[i])
		owner[i] = c
	}

	kept := clusters[:0]
	noise := 0
	for _, c := range clusters {
		if c.Size() < cfg.Selection.MinClusterSize {
			noise++
			continue
		}
		c.ID = fmt.Sprintf("c%d", len(kept)+1)
		kept = append(kept, c)
	}
	if noise > 0 {
		report.AddInfo(validation.Result{
			Level:   validation.LevelSelection,
			Message: fmt.Sprintf("%d clusters below %d primitives ignored", noise, cfg.Selection.MinClusterSize),
		})
	}

	for _, p := range prims {
		if p.Category != extract.CategoryLabel {
			continue
		}
		if c := labelOwner(p.Anchor, kept, owner, idx, prims, cfg.Selection.ClusterGap); c != nil {
			c.add(p)
		}
	}
	return kept, report, nil
}

func labelOwner(at geo.Point, kept []*Cluster, owner map[int]*Cluster, idx *spatial.Index, prims []extract.Primitive, gap float64) *Cluster {
	for _, c := range kept {
		if c.Bounds.ContainsPoint(at) {
			return c
		}
	}
	ids := idx.Nearest(at, 1)
	if len(ids) == 0 {
		return nil
	}
	i, _ := strconv.Atoi(ids[0])
	c := owner[i]
	if c == nil || c.ID == "" {
		return nil
	}
	if prims[i].Bounds().Polygon().Distance(geo.NewPolygon(at)) > gap {
		return nil
	}
	return c
}
