package config

import (
	"math"
	"time"
)

// Config is the complete set of tunables for one layout analysis.
type Config struct {
	Version     string        `yaml:"version" toml:"version" json:"version"`
	SizeClasses []SizeClass   `yaml:"size_classes" toml:"size_classes" json:"size_classes"`
	Clearance   Clearance     `yaml:"clearance" toml:"clearance" json:"clearance"`
	Corridor    CorridorDef   `yaml:"corridor" toml:"corridor" json:"corridor"`
	Placement   PlacementDef  `yaml:"placement" toml:"placement" json:"placement"`
	FreeSpace   FreeSpaceDef  `yaml:"free_space" toml:"free_space" json:"free_space"`
	Extraction  ExtractionDef `yaml:"extraction" toml:"extraction" json:"extraction"`
	Selection   SelectionDef  `yaml:"selection" toml:"selection" json:"selection"`
	Runtime     RuntimeDef    `yaml:"runtime" toml:"runtime" json:"runtime"`
}

// SizeClass is a named îlot category with a target share of the total count
// and a footprint range. Width runs along X at 0°, Depth along Y.
type SizeClass struct {
	Name       string  `yaml:"name" toml:"name" json:"name"`
	Proportion float64 `yaml:"proportion" toml:"proportion" json:"proportion"`
	MinWidth   float64 `yaml:"min_width" toml:"min_width" json:"min_width"`
	MaxWidth   float64 `yaml:"max_width" toml:"max_width" json:"max_width"`
	MinDepth   float64 `yaml:"min_depth" toml:"min_depth" json:"min_depth"`
	MaxDepth   float64 `yaml:"max_depth" toml:"max_depth" json:"max_depth"`
}

// MaxArea returns the largest footprint area of the class.
func (s SizeClass) MaxArea() float64 { return s.MaxWidth * s.MaxDepth }

// MinArea returns the smallest footprint area of the class.
func (s SizeClass) MinArea() float64 { return s.MinWidth * s.MinDepth }

// MeanArea is the midpoint of the footprint range, used for count estimates.
func (s SizeClass) MeanArea() float64 { return (s.MaxArea() + s.MinArea()) / 2 }

// MinDimension returns the shortest side any footprint of the class can have.
func (s SizeClass) MinDimension() float64 { return math.Min(s.MinWidth, s.MinDepth) }

// Footprints returns the candidate (width, depth) pairs, largest first.
func (s SizeClass) Footprints() [][2]float64 {
	out := [][2]float64{{s.MaxWidth, s.MaxDepth}}
	if s.MinWidth != s.MaxWidth || s.MinDepth != s.MaxDepth {
		out = append(out, [2]float64{s.MinWidth, s.MinDepth})
	}
	return out
}

// Clearance holds the buffer distances kept around obstacles (metres).
type Clearance struct {
	WallBuffer       float64 `yaml:"wall_buffer" toml:"wall_buffer" json:"wall_buffer"`
	RestrictedBuffer float64 `yaml:"restricted_buffer" toml:"restricted_buffer" json:"restricted_buffer"`
	DoorClearance    float64 `yaml:"door_clearance" toml:"door_clearance" json:"door_clearance"`
	IlotSpacing      float64 `yaml:"ilot_spacing" toml:"ilot_spacing" json:"ilot_spacing"`
	// AisleWidth is the vertical gap kept between îlot rows. Zero means the
	// corridor width.
	AisleWidth float64 `yaml:"aisle_width" toml:"aisle_width" json:"aisle_width"`
}

type CorridorDef struct {
	MinWidth     float64 `yaml:"min_width" toml:"min_width" json:"min_width"`
	RowTolerance float64 `yaml:"row_tolerance" toml:"row_tolerance" json:"row_tolerance"`
	MaxReroutes  int     `yaml:"max_reroutes" toml:"max_reroutes" json:"max_reroutes"`
	RerouteStep  float64 `yaml:"reroute_step" toml:"reroute_step" json:"reroute_step"`
}

type PlacementDef struct {
	// GridResolution is the scan step. Zero derives it from GridFactor.
	GridResolution      float64 `yaml:"grid_resolution" toml:"grid_resolution" json:"grid_resolution"`
	GridFactor          float64 `yaml:"grid_factor" toml:"grid_factor" json:"grid_factor"`
	PackingEfficiency   float64 `yaml:"packing_efficiency" toml:"packing_efficiency" json:"packing_efficiency"`
	ProportionTolerance float64 `yaml:"proportion_tolerance" toml:"proportion_tolerance" json:"proportion_tolerance"`
	MaxRefinements      int     `yaml:"max_refinements" toml:"max_refinements" json:"max_refinements"`
}

type FreeSpaceDef struct {
	Resolution    float64 `yaml:"resolution" toml:"resolution" json:"resolution"`
	MinRegionArea float64 `yaml:"min_region_area" toml:"min_region_area" json:"min_region_area"`
}

// Fidelity trades extraction accuracy for speed.
type Fidelity string

const (
	FidelityPrecise Fidelity = "precise"
	FidelityFast    Fidelity = "fast"
)

type ExtractionDef struct {
	Fidelity             Fidelity  `yaml:"fidelity" toml:"fidelity" json:"fidelity"`
	ChordTolerance       float64   `yaml:"chord_tolerance" toml:"chord_tolerance" json:"chord_tolerance"`
	SnapTolerance        float64   `yaml:"snap_tolerance" toml:"snap_tolerance" json:"snap_tolerance"`
	DefaultWallThickness float64   `yaml:"default_wall_thickness" toml:"default_wall_thickness" json:"default_wall_thickness"`
	MaxWallThickness     float64   `yaml:"max_wall_thickness" toml:"max_wall_thickness" json:"max_wall_thickness"`
	MaxGapClose          float64   `yaml:"max_gap_close" toml:"max_gap_close" json:"max_gap_close"`
	MinBoundaryArea      float64   `yaml:"min_boundary_area" toml:"min_boundary_area" json:"min_boundary_area"`
	DoorMinRadius        float64   `yaml:"door_min_radius" toml:"door_min_radius" json:"door_min_radius"`
	DoorMaxRadius        float64   `yaml:"door_max_radius" toml:"door_max_radius" json:"door_max_radius"`
	MaxDoorArea          float64   `yaml:"max_door_area" toml:"max_door_area" json:"max_door_area"`
	Rules                []RuleDef `yaml:"rules" toml:"rules" json:"rules,omitempty"`
}

// RuleDef is a user-supplied classification rule. Rules are evaluated in
// order before the built-in table; the first match wins.
type RuleDef struct {
	Name     string `yaml:"name" toml:"name" json:"name"`
	Layer    string `yaml:"layer" toml:"layer" json:"layer,omitempty"`
	Color    int    `yaml:"color" toml:"color" json:"color,omitempty"`
	Linetype string `yaml:"linetype" toml:"linetype" json:"linetype,omitempty"`
	Category string `yaml:"category" toml:"category" json:"category"`
}

type SelectionDef struct {
	ClusterGap      float64 `yaml:"cluster_gap" toml:"cluster_gap" json:"cluster_gap"`
	MinClusterSize  int     `yaml:"min_cluster_size" toml:"min_cluster_size" json:"min_cluster_size"`
	AmbiguityMargin float64 `yaml:"ambiguity_margin" toml:"ambiguity_margin" json:"ambiguity_margin"`
}

type RuntimeDef struct {
	Timeout Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	Workers int      `yaml:"workers" toml:"workers" json:"workers"`
}

// Duration is a time.Duration that reads and writes as "30s" style text.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}
