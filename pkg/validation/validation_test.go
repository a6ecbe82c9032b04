package validation

import (
	"testing"

	"github.com/ChicagoDave/ilotplanner/pkg/errors"
)

func TestNewReport(t *testing.T) {
	r := NewReport()
	if !r.Valid {
		t.Error("new report should be valid")
	}
	if len(r.Errors) != 0 || len(r.Warnings) != 0 || len(r.Info) != 0 {
		t.Error("new report should have empty slices")
	}
	if r.Summary != "0 errors, 0 warnings, 0 info" {
		t.Errorf("unexpected summary: %s", r.Summary)
	}
}

func TestAddError(t *testing.T) {
	r := NewReport()
	r.AddError(Result{Level: LevelConfig, Code: errors.ErrCodeInvalidConfig, Message: "bad value"})
	if r.Valid {
		t.Error("report with error should be invalid")
	}
	if r.Errors[0].Severity != SeverityError {
		t.Error("AddError should set severity to error")
	}
	if r.Summary != "1 errors, 0 warnings, 0 info" {
		t.Errorf("unexpected summary: %s", r.Summary)
	}
	if !errors.Is(r.Err(), errors.ErrCodeInvalidConfig) {
		t.Errorf("Err() = %v, want INVALID_CONFIG", r.Err())
	}
}

func TestWarnDoesNotInvalidate(t *testing.T) {
	r := NewReport()
	r.Warn(LevelExtraction, errors.ErrCodeParse, "entity %d: %s", 7, "arc radius is zero")
	if !r.Valid || r.Err() != nil {
		t.Error("warnings should not invalidate report")
	}
	if r.Warnings[0].Message != "entity 7: arc radius is zero" {
		t.Errorf("message = %q", r.Warnings[0].Message)
	}
	if r.Count(errors.ErrCodeParse) != 1 {
		t.Errorf("Count(PARSE_ERROR) = %d", r.Count(errors.ErrCodeParse))
	}
}

func TestMerge(t *testing.T) {
	r1 := NewReport()
	r1.AddWarning(Result{Level: LevelPlacement, Message: "warn1"})

	r2 := NewReport()
	r2.AddError(Result{Level: LevelCorridor, Message: "err1"})
	r2.AddWarning(Result{Level: LevelCorridor, Code: errors.ErrCodeCorridorUnreachable, Subjects: []string{"ilot-3", "ilot-4"}})
	r2.AddInfo(Result{Level: LevelCorridor, Message: "info1"})

	r1.Merge(r2)
	r1.Merge(nil)

	if r1.Valid {
		t.Error("merged report should be invalid when other has errors")
	}
	if r1.Summary != "1 errors, 2 warnings, 1 info" {
		t.Errorf("unexpected summary: %s", r1.Summary)
	}
	subjects := r1.Subjects(errors.ErrCodeCorridorUnreachable)
	if len(subjects) != 2 || subjects[0] != "ilot-3" {
		t.Errorf("subjects = %v", subjects)
	}
}

func TestMergeValidIntoValid(t *testing.T) {
	r1 := NewReport()
	r2 := NewReport()
	r2.AddInfo(Result{Level: LevelLayout, Message: "note"})

	r1.Merge(r2)

	if !r1.Valid {
		t.Error("merging two valid reports should stay valid")
	}
	if len(r1.Info) != 1 {
		t.Errorf("expected 1 info, got %d", len(r1.Info))
	}
}
