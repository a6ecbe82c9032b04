// Package corridor connects placed îlots and entrances with a network of
// fixed-width corridors.
//
// Îlots are grouped into rows; each pair of facing rows shares one spine
// along the midline of the gap between them, and a row with no partner gets
// a spine along its open side. Îlots not touching their spine get a short
// perpendicular link. Spines and entrances are then joined by a minimum
// spanning tree of straight or orthogonal connectors. Every segment is
// checked against the spatial index and, when blocked, shifted sideways a
// bounded number of times before it is dropped and the îlots it served are
// reported unreachable.
package corridor

import (
	"context"
	"fmt"
	"sort"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/placement"
	"github.com/ChicagoDave/ilotplanner/pkg/plan"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// Kind is the role of a corridor segment.
type Kind string

const (
	KindSpine     Kind = "spine"
	KindLink      Kind = "link"
	KindConnector Kind = "connector"
)

// Segment is one corridor piece. From and To name what it joins: rows for
// a spine, îlot and spine for a link, entrances or spines for a connector.
type Segment struct {
	ID    string       `json:"id"`
	Kind  Kind         `json:"kind"`
	Path  geo.Polyline `json:"path"`
	Width float64      `json:"width"`
	From  string       `json:"from"`
	To    string       `json:"to,omitempty"`
}

// Length returns the centreline length.
func (s Segment) Length() float64 { return s.Path.Length() }

// Network is the generated corridor layout.
type Network struct {
	Segments []Segment `json:"segments"`
	Rows     []Row     `json:"rows"`
	// Unreachable lists îlots with no corridor path to an entrance, in
	// placement order.
	Unreachable []string `json:"unreachable"`
}

// Length returns the total centreline length.
func (n *Network) Length() float64 {
	total := 0.0
	for _, s := range n.Segments {
		total += s.Length()
	}
	return total
}

// Count returns the number of segments of kind k.
func (n *Network) Count(k Kind) int {
	c := 0
	for _, s := range n.Segments {
		if s.Kind == k {
			c++
		}
	}
	return c
}

// Generate builds the corridor network for the placed îlots. The index must
// hold the plan's fixed elements and the îlots. Blocked segments degrade to
// CORRIDOR_UNREACHABLE warnings; only cancellation is an error.
func Generate(ctx context.Context, fp *plan.FloorPlan, ilots []placement.Ilot, index *spatial.Index, cfg *config.Config) (*Network, *validation.Report, error) {
	report := validation.NewReport()
	n := &Network{Segments: []Segment{}, Rows: []Row{}, Unreachable: []string{}}
	if len(ilots) == 0 {
		return n, report, nil
	}

	g := &generator{
		fp:      fp,
		cfg:     cfg.Corridor,
		width:   cfg.Corridor.MinWidth,
		check:   NewChecker(fp.Boundary, index),
		lost:    make(map[string]string),
		report:  report,
		ordered: ilots,
	}

	rows := Rows(ilots, cfg.Corridor.RowTolerance, g.width)
	if err := errors.FromContext(ctx, "corridor generation"); err != nil {
		return nil, nil, err
	}
	spines := g.spines(rows)
	links := g.links(rows, spines)
	if err := errors.FromContext(ctx, "corridor generation"); err != nil {
		return nil, nil, err
	}
	connectors, err := g.connect(ctx, rows, spines)
	if err != nil {
		return nil, nil, err
	}

	for _, s := range spines {
		n.Segments = append(n.Segments, s.Segment)
	}
	n.Segments = append(n.Segments, links...)
	n.Segments = append(n.Segments, connectors...)
	for _, r := range rows {
		n.Rows = append(n.Rows, *r)
	}
	n.Unreachable = g.flag()

	report.AddInfo(validation.Result{
		Level: validation.LevelCorridor,
		Message: fmt.Sprintf("%d rows, %d spines, %d links, %d connectors, %.1f m of corridor",
			len(rows), len(spines), len(links), len(connectors), n.Length()),
	})
	return n, report, nil
}

// generator carries the state of one Generate call.
type generator struct {
	fp     *plan.FloorPlan
	cfg    config.CorridorDef
	width  float64
	check  *Checker
	report *validation.Report

	ordered []placement.Ilot
	// lost maps an unreachable îlot to the reason it was cut off.
	lost map[string]string
}

func (g *generator) lose(reason string, ids ...string) {
	for _, id := range ids {
		if _, ok := g.lost[id]; !ok {
			g.lost[id] = reason
		}
	}
}

// flag emits one warning per cause and returns the unreachable îlots in
// placement order.
func (g *generator) flag() []string {
	out := []string{}
	byReason := make(map[string][]string)
	var reasons []string
	for _, il := range g.ordered {
		reason, ok := g.lost[il.ID]
		if !ok {
			continue
		}
		out = append(out, il.ID)
		if _, seen := byReason[reason]; !seen {
			reasons = append(reasons, reason)
		}
		byReason[reason] = append(byReason[reason], il.ID)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		ids := byReason[reason]
		g.report.AddWarning(validation.Result{
			Level:    validation.LevelCorridor,
			Code:     errors.ErrCodeCorridorUnreachable,
			Message:  fmt.Sprintf("%d îlots unreachable: %s", len(ids), reason),
			Subjects: ids,
		})
	}
	return out
}
