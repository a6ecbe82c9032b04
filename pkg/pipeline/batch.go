package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/layout"
)

// Job is one drawing to analyze. A nil Config falls back to config.Default.
type Job struct {
	Name    string
	Drawing *drawing.Drawing
	Config  *config.Config
}

// Outcome is the result of one job: a layout or a typed error, never both.
type Outcome struct {
	Name     string         `json:"name"`
	Result   *layout.Result `json:"result,omitempty"`
	Err      error          `json:"-"`
	Code     errors.Code    `json:"code,omitempty"`
	Message  string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// OK reports whether the job produced a layout.
func (o Outcome) OK() bool { return o.Err == nil }

// Batch analyzes jobs on at most workers goroutines. Outcomes come back in
// job order. A failing job never cancels the others; only ctx does.
func (r *Runner) Batch(ctx context.Context, jobs []Job, workers int) []Outcome {
	if workers < 1 {
		workers = 1
	}
	out := make([]Outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			start := time.Now()
			o := Outcome{Name: job.Name}
			if err := errors.FromContext(ctx, "batch"); err != nil {
				o.Err = err
			} else {
				o.Result, o.Err = r.Analyze(ctx, job.Drawing, job.Config)
			}
			if o.Err != nil {
				o.Code = errors.GetCode(o.Err)
				o.Message = errors.UserMessage(o.Err)
				r.Logger.Error("analysis failed", "job", job.Name, "code", o.Code, "err", o.Message)
			}
			o.Duration = time.Since(start)
			out[i] = o
			return nil
		})
	}
	_ = g.Wait()
	return out
}
