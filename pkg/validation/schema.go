package validation

import (
	"fmt"
	"math"
	"regexp"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
)

// knownCategories are the categories a user rule may assign.
var knownCategories = map[string]bool{
	"wall": true, "door": true, "entrance": true, "restricted": true, "ignore": true,
}

// ValidateConfig checks a configuration before any computation runs.
func ValidateConfig(c *config.Config) *Report {
	r := NewReport()
	if c == nil {
		r.AddError(Result{Level: LevelConfig, Code: errors.ErrCodeInvalidConfig, Message: "configuration is nil"})
		return r
	}

	validateSizeClasses(c, r)
	validateClearance(c, r)
	validateCorridor(c, r)
	validatePlacement(c, r)
	validateFreeSpace(c, r)
	validateExtraction(c, r)
	validateRuntime(c, r)

	return r
}

func configError(r *Report, path string, actual any, expected, format string, args ...any) {
	r.AddError(Result{
		Level:       LevelConfig,
		Code:        errors.ErrCodeInvalidConfig,
		Message:     fmt.Sprintf(format, args...),
		Path:        path,
		ActualValue: actual,
		Expected:    expected,
	})
}

func validateSizeClasses(c *config.Config, r *Report) {
	if len(c.SizeClasses) == 0 {
		configError(r, "size_classes", 0, "at least 1 class", "size_classes must contain at least one class")
		return
	}

	seen := make(map[string]bool, len(c.SizeClasses))
	sum := 0.0
	for i, sc := range c.SizeClasses {
		path := fmt.Sprintf("size_classes[%d]", i)
		if sc.Name == "" {
			configError(r, path+".name", "", "non-empty string", "size_classes[%d] has no name", i)
		} else if seen[sc.Name] {
			configError(r, path+".name", sc.Name, "unique name", "duplicate size class %q", sc.Name)
		}
		seen[sc.Name] = true

		if sc.Proportion < 0 {
			configError(r, path+".proportion", sc.Proportion, ">= 0", "size class %q proportion must be non-negative", sc.Name)
		}
		sum += sc.Proportion

		if sc.MinWidth <= 0 || sc.MinDepth <= 0 {
			configError(r, path, fmt.Sprintf("%gx%g", sc.MinWidth, sc.MinDepth), "> 0",
				"size class %q minimum footprint must be positive", sc.Name)
		}
		if sc.MaxWidth < sc.MinWidth || sc.MaxDepth < sc.MinDepth {
			configError(r, path, fmt.Sprintf("%g-%g x %g-%g", sc.MinWidth, sc.MaxWidth, sc.MinDepth, sc.MaxDepth),
				"min <= max", "size class %q footprint range is inverted", sc.Name)
		}
	}

	if math.Abs(sum-1.0) > 0.01 {
		r.AddError(Result{
			Level:       LevelConfig,
			Code:        errors.ErrCodeInvalidConfig,
			Message:     fmt.Sprintf("size class proportions must sum to 1.0 (got %.4f)", sum),
			Path:        "size_classes",
			ActualValue: sum,
			Expected:    "1.0 (±0.01)",
			Suggestions: []string{"Adjust class proportions so they sum to 1.0"},
		})
	}
}

func validateClearance(c *config.Config, r *Report) {
	cl := c.Clearance
	for path, v := range map[string]float64{
		"clearance.wall_buffer":       cl.WallBuffer,
		"clearance.restricted_buffer": cl.RestrictedBuffer,
		"clearance.door_clearance":    cl.DoorClearance,
		"clearance.ilot_spacing":      cl.IlotSpacing,
		"clearance.aisle_width":       cl.AisleWidth,
	} {
		if v < 0 {
			configError(r, path, v, ">= 0", "%s must be non-negative", path)
		}
	}
}

func validateCorridor(c *config.Config, r *Report) {
	if c.Corridor.MinWidth <= 0 {
		configError(r, "corridor.min_width", c.Corridor.MinWidth, "> 0", "corridor.min_width must be > 0")
	}
	if c.Corridor.RowTolerance < 0 {
		configError(r, "corridor.row_tolerance", c.Corridor.RowTolerance, ">= 0", "corridor.row_tolerance must be non-negative")
	}
	if c.Corridor.MaxReroutes < 0 {
		configError(r, "corridor.max_reroutes", c.Corridor.MaxReroutes, ">= 0", "corridor.max_reroutes must be non-negative")
	}
	if c.AisleWidth() < c.Corridor.MinWidth {
		r.AddWarning(Result{
			Level:        LevelConfig,
			Message:      "aisle width is narrower than the corridor; spines between rows will be dropped",
			Path:         "clearance.aisle_width",
			ActualValue:  c.AisleWidth(),
			ConflictWith: "corridor.min_width",
		})
	}
}

func validatePlacement(c *config.Config, r *Report) {
	p := c.Placement
	if p.GridResolution < 0 {
		configError(r, "placement.grid_resolution", p.GridResolution, ">= 0", "placement.grid_resolution must be non-negative")
	}
	if p.GridResolution == 0 && (p.GridFactor <= 0 || p.GridFactor > 1) {
		configError(r, "placement.grid_factor", p.GridFactor, "0 < factor <= 1", "placement.grid_factor is outside (0, 1]")
	}
	if p.PackingEfficiency <= 0 || p.PackingEfficiency > 1 {
		configError(r, "placement.packing_efficiency", p.PackingEfficiency, "0 < e <= 1", "placement.packing_efficiency is outside (0, 1]")
	}
	if p.ProportionTolerance < 0 || p.ProportionTolerance >= 1 {
		configError(r, "placement.proportion_tolerance", p.ProportionTolerance, "0 <= t < 1", "placement.proportion_tolerance is outside [0, 1)")
	}
}

func validateFreeSpace(c *config.Config, r *Report) {
	if c.FreeSpace.Resolution <= 0 {
		configError(r, "free_space.resolution", c.FreeSpace.Resolution, "> 0", "free_space.resolution must be > 0")
	}
	if c.FreeSpace.MinRegionArea < 0 {
		configError(r, "free_space.min_region_area", c.FreeSpace.MinRegionArea, ">= 0", "free_space.min_region_area must be non-negative")
	}
}

func validateExtraction(c *config.Config, r *Report) {
	e := c.Extraction
	switch e.Fidelity {
	case config.FidelityPrecise, config.FidelityFast:
	default:
		configError(r, "extraction.fidelity", e.Fidelity, "precise|fast", "unknown fidelity %q", e.Fidelity)
	}
	if e.ChordTolerance <= 0 {
		configError(r, "extraction.chord_tolerance", e.ChordTolerance, "> 0", "extraction.chord_tolerance must be > 0")
	}
	if e.DoorMinRadius > e.DoorMaxRadius {
		configError(r, "extraction.door_min_radius", e.DoorMinRadius, "<= door_max_radius", "door radius range is inverted")
	}
	for i, rule := range e.Rules {
		path := fmt.Sprintf("extraction.rules[%d]", i)
		if !knownCategories[rule.Category] {
			configError(r, path+".category", rule.Category, "wall|door|entrance|restricted|ignore", "rule %q has unknown category", rule.Name)
		}
		for _, pat := range []string{rule.Layer, rule.Linetype} {
			if pat == "" {
				continue
			}
			if _, err := regexp.Compile(pat); err != nil {
				configError(r, path, pat, "valid regular expression", "rule %q: %v", rule.Name, err)
			}
		}
	}
}

func validateRuntime(c *config.Config, r *Report) {
	if c.Timeout() <= 0 {
		configError(r, "runtime.timeout", c.Runtime.Timeout.String(), "> 0", "runtime.timeout must be positive")
	}
	if c.Runtime.Workers < 1 {
		configError(r, "runtime.workers", c.Runtime.Workers, ">= 1", "runtime.workers must be at least 1")
	}
}
