// Package pipeline runs the analysis stages over one drawing, or over many
// drawings on a bounded worker pool.
//
// Each analysis owns its floor plan, spatial index and placement state; none
// of them outlives the call or is shared between tasks. Stage packages do not
// log; the Runner logs a one-line summary per stage.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/corridor"
	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/extract"
	"github.com/ChicagoDave/ilotplanner/pkg/freespace"
	"github.com/ChicagoDave/ilotplanner/pkg/layout"
	"github.com/ChicagoDave/ilotplanner/pkg/placement"
	"github.com/ChicagoDave/ilotplanner/pkg/selector"
	"github.com/ChicagoDave/ilotplanner/pkg/spatial"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// Runner executes analyses. It holds no per-analysis state, so one Runner
// may serve concurrent calls.
type Runner struct {
	Logger *log.Logger
}

// NewRunner returns a runner logging to logger, or to log.Default when nil.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Stats records how long each stage took.
type Stats struct {
	Extract   time.Duration `json:"extract"`
	Select    time.Duration `json:"select"`
	FreeSpace time.Duration `json:"free_space"`
	Placement time.Duration `json:"placement"`
	Corridors time.Duration `json:"corridors"`
	Total     time.Duration `json:"total"`
}

// Analyze runs every stage over d under cfg.Timeout. Fatal conditions
// return a typed error and no result; warnings travel in the result's
// report. A nil cfg means the defaults.
func (r *Runner) Analyze(ctx context.Context, d *drawing.Drawing, cfg *config.Config) (*layout.Result, error) {
	res, _, err := r.AnalyzeWithStats(ctx, d, cfg)
	return res, err
}

// AnalyzeWithStats is Analyze that also reports stage timings.
func (r *Runner) AnalyzeWithStats(ctx context.Context, d *drawing.Drawing, cfg *config.Config) (*layout.Result, Stats, error) {
	var stats Stats
	if cfg == nil {
		cfg = config.Default()
	}
	if d == nil {
		return nil, stats, errors.New(errors.ErrCodeInvalidInput, "drawing is nil")
	}
	cfgReport := validation.ValidateConfig(cfg)
	if err := cfgReport.Err(); err != nil {
		return nil, stats, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	start := time.Now()
	report := validation.NewReport()
	report.Merge(cfgReport)
	logger := r.Logger.With("drawing", d.Name)

	// Extraction
	t := time.Now()
	prims, classReport := extract.Classify(d, cfg)
	report.Merge(classReport)
	if err := errors.FromContext(ctx, "geometry extraction"); err != nil {
		return nil, stats, err
	}
	stats.Extract = time.Since(t)
	logger.Debug("classified entities", "entities", len(d.Entities), "primitives", len(prims), "duration", stats.Extract)

	// Selection
	t = time.Now()
	sel, err := selector.Select(ctx, prims, cfg)
	if err != nil {
		return nil, stats, r.stageError(ctx, "floor plan selection", err)
	}
	report.Merge(sel.Report)

	fp, buildReport, err := extract.Build(sel.Primary.Primitives, cfg)
	if err != nil {
		return nil, stats, r.stageError(ctx, "boundary extraction", err)
	}
	report.Merge(buildReport)
	stats.Select = time.Since(t)
	logger.Info("selected floor plan",
		"cluster", sel.Primary.ID,
		"candidates", len(sel.Clusters),
		"walls", len(fp.Walls),
		"doors", len(fp.Doors),
		"entrances", len(fp.Entrances),
		"area", fmt.Sprintf("%.1f", fp.Area()),
		"duration", stats.Select)

	// Free space
	t = time.Now()
	idx, err := spatial.FromPlan(fp)
	if err != nil {
		return nil, stats, errors.Wrap(errors.ErrCodeInvalidInput, err, "indexing the floor plan")
	}
	fs, fsReport, err := freespace.Resolve(ctx, fp, idx, cfg)
	if err != nil {
		return nil, stats, r.stageError(ctx, "free space resolution", err)
	}
	report.Merge(fsReport)
	stats.FreeSpace = time.Since(t)
	logger.Info("resolved free space",
		"regions", len(fs.Regions),
		"area", fmt.Sprintf("%.1f", fs.Area()),
		"duration", stats.FreeSpace)

	// Placement
	t = time.Now()
	p, err := placement.Place(ctx, fs, idx, cfg)
	if err != nil {
		return nil, stats, r.stageError(ctx, "îlot placement", err)
	}
	report.Merge(p.Report)
	stats.Placement = time.Since(t)
	logger.Info("placed îlots",
		"count", len(p.Ilots),
		"estimate", p.Estimate,
		"runs", p.Runs,
		"coverage", fmt.Sprintf("%.2f", p.Coverage),
		"duration", stats.Placement)

	// Corridors
	t = time.Now()
	n, netReport, err := corridor.Generate(ctx, fp, p.Ilots, idx, cfg)
	if err != nil {
		return nil, stats, r.stageError(ctx, "corridor generation", err)
	}
	report.Merge(netReport)
	stats.Corridors = time.Since(t)
	logger.Info("generated corridors",
		"segments", len(n.Segments),
		"length", fmt.Sprintf("%.1f", n.Length()),
		"unreachable", len(n.Unreachable),
		"duration", stats.Corridors)

	res := layout.Assemble(layout.Input{
		Source:    d.Name,
		Plan:      fp,
		FreeSpace: fs,
		Placement: p,
		Network:   n,
		Report:    report,
	})
	stats.Total = time.Since(start)
	for _, w := range res.Report.Warnings {
		logger.Warn(w.Message, "code", w.Code, "level", w.Level)
	}
	logger.Info("analysis complete", "id", res.ID, "warnings", len(res.Report.Warnings), "duration", stats.Total)
	return res, stats, nil
}

// stageError gives a failed stage a code. A context failure wins over
// whatever the stage returned, so a deadline always surfaces as
// ANALYSIS_TIMEOUT.
func (r *Runner) stageError(ctx context.Context, stage string, err error) error {
	if ctxErr := errors.FromContext(ctx, stage); ctxErr != nil {
		if errors.GetCode(err) == errors.GetCode(ctxErr) {
			return err
		}
		return ctxErr
	}
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s failed", stage)
}
