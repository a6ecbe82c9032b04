// Package config loads and defaults the tunables of a layout analysis.
//
// A configuration file may be YAML or TOML; any key left out keeps the value
// from Default.
package config

import (
	"math"
	"time"
)

// fastChordFactor widens the chord tolerance in fast fidelity.
const fastChordFactor = 4

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		SizeClasses: []SizeClass{
			{Name: "small", Proportion: 0.10, MinWidth: 0.8, MaxWidth: 1.0, MinDepth: 0.8, MaxDepth: 1.0},
			{Name: "medium", Proportion: 0.25, MinWidth: 1.0, MaxWidth: 1.5, MinDepth: 1.2, MaxDepth: 2.0},
			{Name: "large", Proportion: 0.30, MinWidth: 1.6, MaxWidth: 2.0, MinDepth: 1.8, MaxDepth: 2.5},
			{Name: "xlarge", Proportion: 0.35, MinWidth: 2.0, MaxWidth: 3.0, MinDepth: 2.5, MaxDepth: 3.3},
		},
		Clearance: Clearance{
			WallBuffer:       0.2,
			RestrictedBuffer: 0.5,
			DoorClearance:    0.3,
			IlotSpacing:      0,
		},
		Corridor: CorridorDef{
			MinWidth:     1.2,
			RowTolerance: 0.5,
			MaxReroutes:  4,
			RerouteStep:  0.25,
		},
		Placement: PlacementDef{
			GridFactor:          0.5,
			PackingEfficiency:   1.0,
			ProportionTolerance: 0.05,
			MaxRefinements:      8,
		},
		FreeSpace: FreeSpaceDef{
			Resolution:    0.25,
			MinRegionArea: 1.0,
		},
		Extraction: ExtractionDef{
			Fidelity:             FidelityPrecise,
			ChordTolerance:       0.05,
			SnapTolerance:        0.05,
			DefaultWallThickness: 0.15,
			MaxWallThickness:     0.5,
			MaxGapClose:          2.0,
			MinBoundaryArea:      1.0,
			DoorMinRadius:        0.5,
			DoorMaxRadius:        2.0,
			MaxDoorArea:          4.0,
		},
		Selection: SelectionDef{
			ClusterGap:      3.0,
			MinClusterSize:  3,
			AmbiguityMargin: 0.05,
		},
		Runtime: RuntimeDef{
			Timeout: Duration{30 * time.Second},
			Workers: 4,
		},
	}
}

// AisleWidth returns the vertical gap kept between îlot rows.
func (c *Config) AisleWidth() float64 {
	if c.Clearance.AisleWidth > 0 {
		return c.Clearance.AisleWidth
	}
	return c.Corridor.MinWidth
}

// GridStep returns the placement scan step: the configured resolution, or
// GridFactor times the smallest footprint dimension across all classes.
func (c *Config) GridStep() float64 {
	if c.Placement.GridResolution > 0 {
		return c.Placement.GridResolution
	}
	minDim := math.Inf(1)
	for _, sc := range c.SizeClasses {
		minDim = math.Min(minDim, sc.MinDimension())
	}
	if math.IsInf(minDim, 1) || minDim <= 0 {
		return 0.5
	}
	factor := c.Placement.GridFactor
	if factor <= 0 {
		factor = 0.5
	}
	return factor * minDim
}

// ChordTolerance returns the arc polygonization tolerance for the active
// fidelity.
func (c *Config) ChordTolerance() float64 {
	if c.Extraction.Fidelity == FidelityFast {
		return c.Extraction.ChordTolerance * fastChordFactor
	}
	return c.Extraction.ChordTolerance
}

// Fast reports whether the fast extraction path is selected.
func (c *Config) Fast() bool {
	return c.Extraction.Fidelity == FidelityFast
}

// Timeout returns the per-task wall-clock limit.
func (c *Config) Timeout() time.Duration {
	return c.Runtime.Timeout.Duration
}

// Workers returns the pool size, at least 1.
func (c *Config) Workers() int {
	if c.Runtime.Workers < 1 {
		return 1
	}
	return c.Runtime.Workers
}

// MaxObstacleBuffer returns the largest clearance any static obstacle needs.
func (c *Config) MaxObstacleBuffer() float64 {
	cl := c.Clearance
	return math.Max(cl.WallBuffer, math.Max(cl.RestrictedBuffer, cl.DoorClearance))
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.SizeClasses = append([]SizeClass(nil), c.SizeClasses...)
	out.Extraction.Rules = append([]RuleDef(nil), c.Extraction.Rules...)
	return &out
}
