// Package placement packs îlots of the configured size classes into free
// space.
//
// Classes are placed largest first by a deterministic grid scan: row-major,
// top to bottom, left to right, 0° before 90°, larger footprint before
// smaller. The first admissible candidate wins, is inserted into the spatial
// index, and the scan resumes from that cell. Identical inputs always give
// the identical îlot sequence.
package placement

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/freespace"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// Ilot is one placed unit.
type Ilot struct {
	ID    string   `json:"id"`
	Class string   `json:"class"`
	Rect  geo.Rect `json:"rect"`
	// Orientation is 0 or 90; at 90 the class width runs along Y.
	Orientation int     `json:"orientation"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Region      string  `json:"region"`
}

// Area returns the footprint area.
func (i Ilot) Area() float64 { return i.Rect.Area() }

// Center returns the footprint centre.
func (i Ilot) Center() geo.Point { return i.Rect.Center() }

// ClassStats compares what a class was asked for with what it got.
type ClassStats struct {
	Name       string  `json:"name"`
	Proportion float64 `json:"proportion"`
	Target     int     `json:"target"`
	Placed     int     `json:"placed"`
	Achieved   float64 `json:"achieved"`
	Divergence float64 `json:"divergence"`
	Area       float64 `json:"area"`
}

// Placement is the outcome of one Place call.
type Placement struct {
	Ilots    []Ilot       `json:"ilots"`
	Classes  []ClassStats `json:"classes"`
	Estimate int          `json:"estimate"`
	Count    int          `json:"count"`
	Runs     int          `json:"runs"`
	GridStep float64      `json:"grid_step"`
	FreeArea float64      `json:"free_area"`
	Coverage float64      `json:"coverage"`

	Report *validation.Report `json:"-"`
}

// PlacedArea returns the summed footprint area.
func (p *Placement) PlacedArea() float64 {
	total := 0.0
	for _, il := range p.Ilots {
		total += il.Area()
	}
	return total
}

// Estimate returns the total îlot count the free area could hold:
// free area × packing efficiency over the proportion-weighted mean footprint.
func Estimate(freeArea float64, cfg *config.Config) int {
	mean := 0.0
	for _, sc := range cfg.SizeClasses {
		mean += sc.Proportion * sc.MeanArea()
	}
	if mean <= 0 || freeArea <= 0 {
		return 0
	}
	eff := cfg.Placement.PackingEfficiency
	if eff <= 0 {
		eff = 1
	}
	return int(math.Floor(freeArea * eff / mean))
}

// Targets splits a total count over the classes by proportion.
func Targets(total int, classes []config.SizeClass) []int {
	out := make([]int, len(classes))
	for i, sc := range classes {
		out[i] = int(math.Round(float64(total) * sc.Proportion))
	}
	return out
}

// sortedClasses orders classes by largest footprint, then name.
func sortedClasses(classes []config.SizeClass) []config.SizeClass {
	out := append([]config.SizeClass(nil), classes...)
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].MaxArea() != out[b].MaxArea() {
			return out[a].MaxArea() > out[b].MaxArea()
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// Place packs îlots into fs. The first run uses the area estimate as the
// total count. When any class misses its target the count is refined by
// bisection, up to MaxRefinements further runs, keeping the largest count
// whose targets are all met. Proportions that still diverge beyond
// ProportionTolerance are reported, never corrected.
//
// Placed îlots stay in index as KindIlot on return. An empty free space
// yields an empty placement, not an error.
func Place(ctx context.Context, fs *freespace.FreeSpace, index *spatial.Index, cfg *config.Config) (*Placement, error) {
	report := validation.NewReport()
	classes := sortedClasses(cfg.SizeClasses)
	p := &Placement{
		GridStep: cfg.GridStep(),
		FreeArea: fs.Area(),
		Report:   report,
	}
	p.Estimate = Estimate(p.FreeArea, cfg)

	if p.Estimate == 0 || len(fs.Regions) == 0 {
		p.Classes = stats(classes, make([]int, len(classes)), nil)
		report.AddInfo(validation.Result{
			Level:   validation.LevelPlacement,
			Message: fmt.Sprintf("no îlots placed: %.2f m² of free space", p.FreeArea),
		})
		return p, nil
	}

	s := newScanner(fs, index, p.GridStep, cfg.AisleWidth())

	run := func(total int) ([]Ilot, bool, error) {
		p.Runs++
		ilots, met, err := s.run(ctx, classes, Targets(total, classes))
		if err != nil {
			return nil, false, err
		}
		return ilots, met, nil
	}

	best, met, err := run(p.Estimate)
	if err != nil {
		return nil, err
	}
	count := p.Estimate
	if !met {
		fallback := best
		lo, hi := 0, p.Estimate
		best = nil
		for r := 0; r < cfg.Placement.MaxRefinements && hi-lo > 1; r++ {
			s.clear()
			mid := (lo + hi) / 2
			ilots, ok, err := run(mid)
			if err != nil {
				return nil, err
			}
			if ok {
				lo, best, count = mid, ilots, mid
			} else {
				hi = mid
			}
		}
		if best == nil {
			best, count = fallback, p.Estimate
		}
		// The index must hold the îlots that are returned.
		s.clear()
		if best, _, err = run(count); err != nil {
			return nil, err
		}
	}

	p.Ilots = best
	p.Count = count
	targets := Targets(count, classes)
	p.Classes = stats(classes, targets, best)
	if p.FreeArea > 0 {
		p.Coverage = p.PlacedArea() / p.FreeArea
	}

	for _, cs := range p.Classes {
		if len(best) > 0 && cs.Divergence > cfg.Placement.ProportionTolerance+1e-9 {
			report.AddWarning(validation.Result{
				Level:    validation.LevelPlacement,
				Code:     errors.ErrCodeProportionDivergence,
				Message:  fmt.Sprintf("class %s reached %.1f%% of îlots against %.1f%% requested", cs.Name, cs.Achieved*100, cs.Proportion*100),
				Subjects: []string{cs.Name},
			})
		}
	}
	report.AddInfo(validation.Result{
		Level:   validation.LevelPlacement,
		Message: fmt.Sprintf("%d îlots placed (estimate %d, %d runs, %.0f%% coverage)", len(best), p.Estimate, p.Runs, p.Coverage*100),
	})
	return p, nil
}

func stats(classes []config.SizeClass, targets []int, ilots []Ilot) []ClassStats {
	out := make([]ClassStats, len(classes))
	byName := make(map[string]int, len(classes))
	for i, sc := range classes {
		out[i] = ClassStats{Name: sc.Name, Proportion: sc.Proportion, Target: targets[i]}
		byName[sc.Name] = i
	}
	for _, il := range ilots {
		cs := &out[byName[il.Class]]
		cs.Placed++
		cs.Area += il.Area()
	}
	for i := range out {
		if len(ilots) > 0 {
			out[i].Achieved = float64(out[i].Placed) / float64(len(ilots))
		}
		out[i].Divergence = math.Abs(out[i].Achieved - out[i].Proportion)
	}
	return out
}
