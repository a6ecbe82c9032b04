package validation

import (
	"fmt"

	"github.com/ChicagoDave/ilotplanner/pkg/errors"
)

// Level indicates which analysis stage produced the result.
type Level string

const (
	LevelConfig     Level = "config"
	LevelExtraction Level = "extraction"
	LevelSelection  Level = "selection"
	LevelFreeSpace  Level = "free_space"
	LevelPlacement  Level = "placement"
	LevelCorridor   Level = "corridor"
	LevelLayout     Level = "layout"
)

// Severity indicates how critical a validation result is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Result is a single finding.
type Result struct {
	Level        Level       `json:"level"`
	Severity     Severity    `json:"severity"`
	Code         errors.Code `json:"code,omitempty"`
	Message      string      `json:"message"`
	Path         string      `json:"path,omitempty"`
	ActualValue  any         `json:"actual_value,omitempty"`
	Expected     string      `json:"expected,omitempty"`
	ConflictWith string      `json:"conflict_with,omitempty"`
	Subjects     []string    `json:"subjects,omitempty"`
	Suggestions  []string    `json:"suggestions,omitempty"`
}

// Report is the accumulated output of one or more stages.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []Result `json:"errors"`
	Warnings []Result `json:"warnings"`
	Info     []Result `json:"info"`
	Summary  string   `json:"summary"`
}

// NewReport creates an empty valid report.
func NewReport() *Report {
	r := &Report{
		Valid:    true,
		Errors:   []Result{},
		Warnings: []Result{},
		Info:     []Result{},
	}
	r.updateSummary()
	return r
}

// AddError adds an error result and marks the report invalid.
func (r *Report) AddError(result Result) {
	result.Severity = SeverityError
	r.Errors = append(r.Errors, result)
	r.Valid = false
	r.updateSummary()
}

// AddWarning adds a warning result.
func (r *Report) AddWarning(result Result) {
	result.Severity = SeverityWarning
	r.Warnings = append(r.Warnings, result)
	r.updateSummary()
}

// AddInfo adds an informational result.
func (r *Report) AddInfo(result Result) {
	result.Severity = SeverityInfo
	r.Info = append(r.Info, result)
	r.updateSummary()
}

// Warn records a coded warning with a formatted message.
func (r *Report) Warn(level Level, code errors.Code, format string, args ...any) {
	r.AddWarning(Result{Level: level, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Merge combines another report into this one. A nil report is ignored.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Info = append(r.Info, other.Info...)
	if !other.Valid {
		r.Valid = false
	}
	r.updateSummary()
}

// Count returns how many results of any severity carry code.
func (r *Report) Count(code errors.Code) int {
	n := 0
	for _, set := range [][]Result{r.Errors, r.Warnings, r.Info} {
		for _, res := range set {
			if res.Code == code {
				n++
			}
		}
	}
	return n
}

// Subjects returns every subject named by results carrying code, in order.
func (r *Report) Subjects(code errors.Code) []string {
	var out []string
	for _, set := range [][]Result{r.Errors, r.Warnings, r.Info} {
		for _, res := range set {
			if res.Code == code {
				out = append(out, res.Subjects...)
			}
		}
	}
	return out
}

// Err returns the first error as a typed failure, or nil when valid.
func (r *Report) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	first := r.Errors[0]
	code := first.Code
	if code == "" {
		code = errors.ErrCodeInvalidInput
	}
	return errors.New(code, "%s (%s)", first.Message, r.Summary)
}

func (r *Report) updateSummary() {
	r.Summary = fmt.Sprintf("%d errors, %d warnings, %d info",
		len(r.Errors), len(r.Warnings), len(r.Info))
}
