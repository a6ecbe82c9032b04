package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/layout"
	"github.com/ChicagoDave/ilotplanner/pkg/pipeline"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(18)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+styleValue.Render(value))
}

func printSummary(w io.Writer, r *layout.Result) {
	m := r.Metrics
	fmt.Fprintln(w, styleTitle.Render("Layout "+r.Source))
	fmt.Fprintln(w, styleDim.Render(r.ID+" · "+r.GeneratedAt))
	fmt.Fprintln(w)

	printKeyValue(w, "Floor area", fmt.Sprintf("%.1f m²", m.BoundaryArea))
	printKeyValue(w, "Restricted", fmt.Sprintf("%.1f m²", m.RestrictedArea))
	printKeyValue(w, "Free space", fmt.Sprintf("%.1f m² in %d regions", m.FreeArea, len(r.FreeSpace)))
	printKeyValue(w, "Îlots", fmt.Sprintf("%d of %d estimated", m.IlotCount, m.Estimate))
	printKeyValue(w, "Îlot area", fmt.Sprintf("%.1f m² (avg %.2f m²)", m.IlotArea, m.AverageIlotArea))
	printKeyValue(w, "Coverage", fmt.Sprintf("%.1f%% of free space, %.1f%% of floor", m.Coverage*100, m.FloorCoverage*100))
	printKeyValue(w, "Corridors", fmt.Sprintf("%.1f m · %d spines · %d links · %d connectors",
		m.CorridorLength, m.SpineCount, m.LinkCount, m.ConnectorCount))
	fmt.Fprintln(w)

	if len(m.Classes) > 0 {
		diverged := r.Report.Subjects(errors.ErrCodeProportionDivergence)
		fmt.Fprintf(w, "%s\n", styleDim.Render(fmt.Sprintf("%-12s %8s %8s %10s %10s", "Class", "Target", "Placed", "Share", "Diverge")))
		for _, c := range m.Classes {
			div := styleNumber.Render(fmt.Sprintf("%10.3f", c.Divergence))
			if slices.Contains(diverged, c.Name) {
				div = styleWarning.Render(fmt.Sprintf("%10.3f", c.Divergence))
			}
			fmt.Fprintf(w, "%-12s %8d %8d %9.1f%% %s\n", c.Name, c.Target, c.Placed, c.Achieved*100, div)
		}
		fmt.Fprintln(w)
	}

	if len(m.Unreachable) > 0 {
		fmt.Fprintln(w, styleWarning.Render(fmt.Sprintf("%s %d îlots without corridor access: %s",
			iconWarning, len(m.Unreachable), abbreviate(m.Unreachable, 8))))
	}
	printReport(w, r.Report)
}

func abbreviate(ids []string, n int) string {
	if len(ids) <= n {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:n], ", ") + fmt.Sprintf(" … (+%d)", len(ids)-n)
}

func printReport(w io.Writer, r *validation.Report) {
	for _, e := range r.Errors {
		fmt.Fprintf(w, "%s [%s] %s\n", styleError.Render(iconError), e.Level, e.Message)
		if e.Path != "" {
			fmt.Fprintln(w, "    "+styleDim.Render(fmt.Sprintf("-> %s = %v", e.Path, e.ActualValue)))
		}
		if e.Expected != "" {
			fmt.Fprintln(w, "    "+styleDim.Render("expected: "+e.Expected))
		}
		if e.ConflictWith != "" {
			fmt.Fprintln(w, "    "+styleDim.Render("conflicts with: "+e.ConflictWith))
		}
		for _, s := range e.Suggestions {
			fmt.Fprintln(w, "    "+styleDim.Render("* "+s))
		}
	}
	for _, wr := range r.Warnings {
		code := ""
		if wr.Code != "" {
			code = " " + string(wr.Code)
		}
		fmt.Fprintf(w, "%s [%s%s] %s\n", styleWarning.Render(iconWarning), wr.Level, code, styleWarning.Render(wr.Message))
	}
	for _, i := range r.Info {
		fmt.Fprintf(w, "%s %s\n", styleDim.Render(iconInfo), styleDim.Render(i.Message))
	}

	if r.Valid {
		fmt.Fprintf(w, "%s %s\n", styleSuccess.Render(iconSuccess+" VALID"), styleDim.Render("("+r.Summary+")"))
	} else {
		fmt.Fprintf(w, "%s %s\n", styleError.Render(iconError+" INVALID"), styleDim.Render("("+r.Summary+")"))
	}
}

func printFailure(w io.Writer, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = "ERROR"
	}
	fmt.Fprintf(w, "%s %s %s\n", styleError.Render(iconError), styleError.Render(string(code)), errors.UserMessage(err))
	var e *errors.Error
	if stderrors.As(err, &e) {
		for _, d := range e.Details {
			fmt.Fprintln(w, "    "+styleDim.Render(d))
		}
	}
}

func printBatch(w io.Writer, outcomes []pipeline.Outcome) {
	sorted := append([]pipeline.Outcome(nil), outcomes...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Name < sorted[b].Name })

	ok := 0
	for _, o := range sorted {
		if o.OK() {
			ok++
			m := o.Result.Metrics
			fmt.Fprintf(w, "%s %s %s\n", styleSuccess.Render(iconSuccess), styleValue.Render(o.Name),
				styleDim.Render(fmt.Sprintf("%d îlots · %.1f%% coverage · %d warnings · %s",
					m.IlotCount, m.Coverage*100, m.Warnings, o.Duration.Round(1e6))))
			continue
		}
		code := string(o.Code)
		if code == "" {
			code = "ERROR"
		}
		fmt.Fprintf(w, "%s %s %s %s\n", styleError.Render(iconError), styleValue.Render(o.Name),
			styleError.Render(code), o.Message)
	}
	fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("%d/%d drawings analyzed", ok, len(sorted))))
}
