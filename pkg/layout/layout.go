// Package layout assembles the finished analysis of one floor plan: the plan,
// the placed îlots, the corridor network, summary metrics and every warning
// raised on the way. A Result holds no reference into the spatial index and
// is never modified after Assemble returns.
package layout

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/ChicagoDave/ilotplanner/pkg/corridor"
	"github.com/ChicagoDave/ilotplanner/pkg/freespace"
	"github.com/ChicagoDave/ilotplanner/pkg/placement"
	"github.com/ChicagoDave/ilotplanner/pkg/plan"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// Result is the outcome of one analysis.
type Result struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	GeneratedAt string             `json:"generated_at"`
	Plan        plan.FloorPlan     `json:"plan"`
	FreeSpace   []freespace.Region `json:"free_space"`
	Ilots       []placement.Ilot   `json:"ilots"`
	Corridors   []corridor.Segment `json:"corridors"`
	Rows        []corridor.Row     `json:"rows"`
	Metrics     Metrics            `json:"metrics"`
	Report      *validation.Report `json:"report"`
}

// Metrics summarises a result.
type Metrics struct {
	BoundaryArea    float64                `json:"boundary_area"`
	RestrictedArea  float64                `json:"restricted_area"`
	FreeArea        float64                `json:"free_area"`
	IlotArea        float64                `json:"ilot_area"`
	IlotCount       int                    `json:"ilot_count"`
	AverageIlotArea float64                `json:"average_ilot_area"`
	Coverage        float64                `json:"coverage"`
	FloorCoverage   float64                `json:"floor_coverage"`
	ClassCounts     map[string]int         `json:"class_counts"`
	Classes         []placement.ClassStats `json:"classes"`
	Estimate        int                    `json:"estimate"`
	CorridorLength  float64                `json:"corridor_length"`
	CorridorArea    float64                `json:"corridor_area"`
	SpineCount      int                    `json:"spine_count"`
	LinkCount       int                    `json:"link_count"`
	ConnectorCount  int                    `json:"connector_count"`
	NetworkPieces   int                    `json:"network_pieces"`
	Unreachable     []string               `json:"unreachable"`
	Warnings        int                    `json:"warnings"`
}

// Input gathers the stage outputs Assemble combines.
type Input struct {
	Source    string
	Plan      *plan.FloorPlan
	FreeSpace *freespace.FreeSpace
	Placement *placement.Placement
	Network   *corridor.Network
	Report    *validation.Report
}

// Assemble builds a result from the stage outputs. Slices are copied so
// later changes to the inputs do not show through.
func Assemble(in Input) *Result {
	r := &Result{
		ID:          uuid.NewString(),
		Source:      in.Source,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		FreeSpace:   []freespace.Region{},
		Ilots:       []placement.Ilot{},
		Corridors:   []corridor.Segment{},
		Rows:        []corridor.Row{},
		Report:      validation.NewReport(),
	}
	if in.Plan != nil {
		r.Plan = copyPlan(in.Plan)
	}
	if in.FreeSpace != nil {
		r.FreeSpace = append(r.FreeSpace, in.FreeSpace.Regions...)
	}
	if in.Placement != nil {
		r.Ilots = append(r.Ilots, in.Placement.Ilots...)
	}
	if in.Network != nil {
		r.Corridors = append(r.Corridors, in.Network.Segments...)
		r.Rows = append(r.Rows, in.Network.Rows...)
	}
	r.Report.Merge(in.Report)
	r.Metrics = computeMetrics(r, in)
	return r
}

func copyPlan(p *plan.FloorPlan) plan.FloorPlan {
	return plan.FloorPlan{
		Boundary:        p.Boundary,
		Walls:           append([]plan.WallSegment{}, p.Walls...),
		Doors:           append([]plan.Door{}, p.Doors...),
		RestrictedZones: append([]plan.RestrictedZone{}, p.RestrictedZones...),
		Entrances:       append([]plan.Entrance{}, p.Entrances...),
	}
}

func computeMetrics(r *Result, in Input) Metrics {
	m := Metrics{
		BoundaryArea:   r.Plan.Area(),
		RestrictedArea: r.Plan.RestrictedArea(),
		IlotCount:      len(r.Ilots),
		ClassCounts:    make(map[string]int),
		Classes:        []placement.ClassStats{},
		Unreachable:    []string{},
		Warnings:       len(r.Report.Warnings),
	}

	regionAreas := make([]float64, len(r.FreeSpace))
	for i, reg := range r.FreeSpace {
		regionAreas[i] = reg.Area
	}
	m.FreeArea = floats.Sum(regionAreas)

	ilotAreas := make([]float64, len(r.Ilots))
	for i, il := range r.Ilots {
		ilotAreas[i] = il.Area()
		m.ClassCounts[il.Class]++
	}
	m.IlotArea = floats.Sum(ilotAreas)
	if m.IlotCount > 0 {
		m.AverageIlotArea = m.IlotArea / float64(m.IlotCount)
	}
	if m.FreeArea > 0 {
		m.Coverage = m.IlotArea / m.FreeArea
	}
	if m.BoundaryArea > 0 {
		m.FloorCoverage = m.IlotArea / m.BoundaryArea
	}
	if in.Placement != nil {
		m.Classes = append(m.Classes, in.Placement.Classes...)
		m.Estimate = in.Placement.Estimate
	}

	lengths := make([]float64, len(r.Corridors))
	areas := make([]float64, len(r.Corridors))
	for i, c := range r.Corridors {
		lengths[i] = c.Length()
		areas[i] = c.Width
		switch c.Kind {
		case corridor.KindSpine:
			m.SpineCount++
		case corridor.KindLink:
			m.LinkCount++
		case corridor.KindConnector:
			m.ConnectorCount++
		}
	}
	m.CorridorLength = floats.Sum(lengths)
	m.CorridorArea = floats.Dot(lengths, areas)
	m.NetworkPieces = len(corridor.Components(r.Corridors))
	if in.Network != nil {
		m.Unreachable = append(m.Unreachable, in.Network.Unreachable...)
	}
	return m
}
