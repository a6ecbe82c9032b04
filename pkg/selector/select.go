package selector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/extract"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// Selection is the outcome of choosing a view.
type Selection struct {
	Primary  *Cluster           `json:"primary"`
	Clusters []*Cluster         `json:"clusters"`
	Report   *validation.Report `json:"report"`
}

// Score rates how much a cluster looks like a floor plan. Wall count
// dominates and saturates, doors and restricted zones add fixed bonuses,
// and elongated clusters such as title blocks or sections are penalised.
func Score(c *Cluster) float64 {
	walls := float64(c.Walls)
	s := 5*math.Min(1, walls/10) + math.Min(1, walls/20)
	if c.Doors > 0 {
		s += 3
	}
	if c.Restricted > 0 {
		s += 2
	}

	aspect := c.Bounds.Aspect()
	if aspect <= 3 {
		s += 2
	} else {
		s += 2 * 3 / aspect
	}

	if perim := 2 * (c.Bounds.Width() + c.Bounds.Height()); perim > 0 {
		s += math.Min(1, c.WallLength/perim)
	}

	kinds := 0
	for _, n := range []int{c.Walls, c.Doors, c.Entrances, c.Restricted, c.Labels} {
		if n > 0 {
			kinds++
		}
	}
	return s + math.Min(1, float64(kinds)/4)
}

// Select partitions the primitives, scores every cluster on a bounded
// worker pool and returns the best. Two leaders within AmbiguityMargin of
// each other are separated by bounding area; when that is also within the
// margin the call fails with AMBIGUOUS_FLOOR_PLAN rather than guess.
func Select(ctx context.Context, prims []extract.Primitive, cfg *config.Config) (*Selection, error) {
	clusters, report, err := Partition(prims, cfg)
	if err != nil {
		return nil, err
	}
	if len(clusters) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"no cluster of at least %d primitives among %d", cfg.Selection.MinClusterSize, len(prims))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers())
	for _, c := range clusters {
		c := c
		g.Go(func() error {
			if err := errors.FromContext(gctx, "floor plan selection"); err != nil {
				return err
			}
			c.Score = Score(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := append([]*Cluster(nil), clusters...)
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })

	sel := &Selection{Primary: ranked[0], Clusters: clusters, Report: report}
	if len(ranked) > 1 {
		first, second := ranked[0], ranked[1]
		margin := cfg.Selection.AmbiguityMargin
		if relDiff(first.Score, second.Score) <= margin {
			switch {
			case relDiff(first.Bounds.Area(), second.Bounds.Area()) > margin:
				if second.Bounds.Area() > first.Bounds.Area() {
					sel.Primary = second
				}
			default:
				return nil, errors.New(errors.ErrCodeAmbiguousPlan,
					"clusters %s and %s score within %.0f%% of each other", first.ID, second.ID, margin*100).
					WithDetails(describe(first), describe(second))
			}
		}
	}

	report.AddInfo(validation.Result{
		Level:    validation.LevelSelection,
		Message:  fmt.Sprintf("selected %s of %d clusters", sel.Primary.ID, len(clusters)),
		Subjects: []string{sel.Primary.ID},
	})
	return sel, nil
}

func relDiff(a, b float64) float64 {
	hi := math.Max(math.Abs(a), math.Abs(b))
	if hi == 0 {
		return 0
	}
	return math.Abs(a-b) / hi
}

func describe(c *Cluster) string {
	return fmt.Sprintf("%s: score %.2f, %d walls, %d doors, %d restricted, %.1f m² at (%.1f, %.1f)",
		c.ID, c.Score, c.Walls, c.Doors, c.Restricted, c.Bounds.Area(), c.Bounds.Min.X, c.Bounds.Min.Y)
}
