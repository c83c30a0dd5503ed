package config

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Physics.FrameDt <= 0 {
		t.Error("frame dt should be positive")
	}
	if cfg.Physics.ForcedBondSpeed <= cfg.Physics.GentleBondSpeed {
		t.Error("forced threshold must sit above gentle threshold")
	}
}

func TestSubstepDt(t *testing.T) {
	p := DefaultPhysics()
	p.Substeps = 4
	p.TimeScale = 2
	want := p.FrameDt * 2 / 4
	if math.Abs(p.SubstepDt()-want) > 1e-15 {
		t.Errorf("SubstepDt = %v, want %v", p.SubstepDt(), want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Physics.FrameDt = 0 }},
		{"no substeps", func(c *Config) { c.Physics.Substeps = 0 }},
		{"inverted bond speeds", func(c *Config) { c.Physics.ForcedBondSpeed = c.Physics.GentleBondSpeed }},
		{"tolerance too wide", func(c *Config) { c.Physics.ResonanceTolerance = 1.5 }},
		{"no scan interval", func(c *Config) { c.Physics.HadronizationInterval = 0 }},
		{"empty world", func(c *Config) { c.World.Width = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Scenario = "water"
	cfg.Physics.Substeps = 12

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Scenario != "water" || loaded.Physics.Substeps != 12 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
}

func TestGetPreset(t *testing.T) {
	p, ok := GetPreset("precise")
	if !ok {
		t.Fatal("expected preset, got none")
	}
	if p.Substeps != 16 {
		t.Errorf("expected 16 substeps, got %d", p.Substeps)
	}
	if p.BondStiffness != DefaultPhysics().BondStiffness {
		t.Error("preset should keep unrelated defaults")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if _, ok := GetPreset("nonexistent"); ok {
		t.Error("expected no preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Errorf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i] < names[i-1] {
			t.Error("presets should be sorted")
		}
	}
}

func TestPhysicsWith(t *testing.T) {
	base := DefaultPhysics()

	p, err := base.With(map[string]float64{"drag": 0.6, "substeps": 16})
	if err != nil {
		t.Fatal(err)
	}
	if p.Drag != 0.6 || p.Substeps != 16 {
		t.Errorf("override not applied: drag=%v substeps=%d", p.Drag, p.Substeps)
	}
	if p.BondStiffness != base.BondStiffness || p.FrameDt != base.FrameDt {
		t.Error("untouched fields should keep their values")
	}
	if base.Drag == 0.6 {
		t.Error("receiver should not change")
	}

	if _, err := base.With(map[string]float64{"warp": 9}); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	for _, k := range []string{"substeps", "hadronization_interval", "assembly_max_frames"} {
		if _, err := base.With(map[string]float64{k: 2.5}); !errors.Is(err, ErrBadParam) {
			t.Errorf("%s: fractional value for an integer field should fail with ErrBadParam, got %v", k, err)
		}
	}
	p, err = base.With(map[string]float64{"substeps": 4.0, "time_scale": 1.5})
	if err != nil || p.Substeps != 4 || p.TimeScale != 1.5 {
		t.Errorf("whole value for an int field and fraction for a float field: %v %d %v", err, p.Substeps, p.TimeScale)
	}
}
