package config

import (
	"math"
	"testing"
	"time"
)

func TestDefaultProportionsSumToOne(t *testing.T) {
	cfg := Default()
	sum := 0.0
	for _, sc := range cfg.SizeClasses {
		sum += sc.Proportion
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("default proportions sum = %v, want 1.0", sum)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.Timeout())
	}
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load("testdata/ilotplanner.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.SizeClasses) != 3 {
		t.Fatalf("size_classes = %d, want 3", len(cfg.SizeClasses))
	}
	if cfg.SizeClasses[1].Name != "medium" || cfg.SizeClasses[1].MaxWidth != 2 {
		t.Errorf("medium class = %+v", cfg.SizeClasses[1])
	}
	if cfg.Clearance.WallBuffer != 0.25 {
		t.Errorf("wall_buffer = %v, want 0.25", cfg.Clearance.WallBuffer)
	}
	// Unset keys keep defaults.
	if cfg.Clearance.RestrictedBuffer != 0.5 {
		t.Errorf("restricted_buffer = %v, want default 0.5", cfg.Clearance.RestrictedBuffer)
	}
	if cfg.AisleWidth() != 1.5 {
		t.Errorf("aisle width = %v, want corridor width 1.5", cfg.AisleWidth())
	}
	if !cfg.Fast() {
		t.Error("fidelity should be fast")
	}
	if got := cfg.ChordTolerance(); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("fast chord tolerance = %v, want 0.2", got)
	}
	if cfg.Timeout() != 5*time.Second || cfg.Workers() != 2 {
		t.Errorf("runtime = %v/%d", cfg.Timeout(), cfg.Workers())
	}
	if len(cfg.Extraction.Rules) != 1 || cfg.Extraction.Rules[0].Category != "restricted" {
		t.Errorf("rules = %+v", cfg.Extraction.Rules)
	}
	// Smallest dimension is 1.0, factor 0.5.
	if cfg.GridStep() != 0.5 {
		t.Errorf("grid step = %v, want 0.5", cfg.GridStep())
	}
}

func TestLoadProjectTOML(t *testing.T) {
	cfg, err := LoadProject("testdata/tomlproject")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if len(cfg.SizeClasses) != 1 || cfg.SizeClasses[0].Name != "desk" {
		t.Fatalf("size_classes = %+v", cfg.SizeClasses)
	}
	if cfg.GridStep() != 0.4 {
		t.Errorf("grid step = %v, want 0.4", cfg.GridStep())
	}
	if cfg.Placement.ProportionTolerance != 0.1 {
		t.Errorf("proportion_tolerance = %v", cfg.Placement.ProportionTolerance)
	}
	if cfg.Timeout() != 2*time.Minute {
		t.Errorf("timeout = %v, want 2m", cfg.Timeout())
	}
}

func TestLoadProjectMissing(t *testing.T) {
	if _, err := LoadProject("/nonexistent/path"); err == nil {
		t.Error("expected error for missing project directory")
	}
}

func TestParseJSONAndUnknownFormat(t *testing.T) {
	cfg, err := Parse([]byte(`{"runtime":{"timeout":"750ms","workers":8}}`), ".json")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Timeout() != 750*time.Millisecond || cfg.Workers() != 8 {
		t.Errorf("runtime = %v/%d", cfg.Timeout(), cfg.Workers())
	}
	if _, err := Parse([]byte("x"), ".ini"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.SizeClasses[0].Proportion = 0.9
	if a.SizeClasses[0].Proportion == 0.9 {
		t.Error("Clone shares size classes")
	}
}

func TestFootprintsLargestFirst(t *testing.T) {
	sc := SizeClass{MinWidth: 1, MaxWidth: 2, MinDepth: 1, MaxDepth: 3}
	fp := sc.Footprints()
	if len(fp) != 2 || fp[0] != [2]float64{2, 3} || fp[1] != [2]float64{1, 1} {
		t.Errorf("footprints = %v", fp)
	}
	fixed := SizeClass{MinWidth: 1, MaxWidth: 1, MinDepth: 1, MaxDepth: 1}
	if len(fixed.Footprints()) != 1 {
		t.Error("fixed class should have one footprint")
	}
}
