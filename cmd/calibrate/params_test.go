package main

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/turbulence/config"
)

func TestNormalizeDenormalize(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()

	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: round trip %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}

	for i, v := range pv.Normalize(raw) {
		if v < 0 || v > 1 {
			t.Errorf("%s: default normalizes to %v outside [0,1]", pv.Specs[i].Name, v)
		}
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		if i%2 == 0 {
			v[i] = spec.Min - 1
		} else {
			v[i] = spec.Max + 1
		}
	}

	got := pv.Clamp(v)
	for i, spec := range pv.Specs {
		want := spec.Min
		if i%2 == 1 {
			want = spec.Max
		}
		if got[i] != want {
			t.Errorf("%s: clamp = %v, want %v", spec.Name, got[i], want)
		}
	}
}

func TestApplyExtract(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	pv := NewParamVector()
	want := []float64{1.5, 0.7, 2.0}
	pv.ApplyToConfig(cfg, want)

	got := pv.ExtractFromConfig(cfg)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: extracted %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config invalid: %v", err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Points.Count = 12
	cfg.Sampling.EndTime = 1
	cfg.Calibrate.Samples = 64
	return cfg
}

func TestMeasureDeterministic(t *testing.T) {
	cfg := testConfig(t)
	fe := NewFitnessEvaluator(NewParamVector(), []int64{1}, cfg)

	a, err := fe.Measure(cfg)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	b, err := fe.Measure(cfg)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if a != b {
		t.Errorf("measurements differ: %+v vs %+v", a, b)
	}
	if a.Std <= 0 || a.Structure <= 0 || math.IsNaN(a.Std) || math.IsNaN(a.Structure) {
		t.Errorf("degenerate measurement %+v", a)
	}
}

func TestEvaluateZeroAtTargets(t *testing.T) {
	cfg := testConfig(t)
	pv := NewParamVector()
	seeds := []int64{5, 6}

	// Measure the field as configured, then make that the target.
	probe := NewFitnessEvaluator(pv, seeds, cfg)
	probe.Evaluate(pv.ExtractFromConfig(cfg))
	meas := probe.LastMeasurement()

	cfg.Calibrate.TargetStd = meas.Std
	cfg.Calibrate.TargetStructure = meas.Structure
	fe := NewFitnessEvaluator(pv, seeds, cfg)

	if got := fe.Evaluate(pv.ExtractFromConfig(cfg)); got > 1e-18 {
		t.Errorf("fitness at targets = %v, want 0", got)
	}

	// Halving the gain moves std away from the target.
	off := pv.ExtractFromConfig(cfg)
	off[0] *= 0.5
	if got := fe.Evaluate(off); got <= 1e-6 {
		t.Errorf("fitness away from targets = %v, want > 0", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Second, "0m42s"},
		{3*time.Minute + 5*time.Second, "3m05s"},
		{2*time.Hour + 1*time.Minute, "2h01m00s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProbesInsideBounds(t *testing.T) {
	cfg := testConfig(t)
	cfg.Points.BoundsMin = config.Vec3{-4, 2, 1}
	cfg.Points.BoundsMax = config.Vec3{6, 3, 1}
	cfg.Reference.Grid = [3]int{2, 2, 1}
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fe := NewFitnessEvaluator(NewParamVector(), []int64{1}, cfg)
	if len(fe.probes) != cfg.Calibrate.Samples {
		t.Fatalf("%d probes, want %d", len(fe.probes), cfg.Calibrate.Samples)
	}
	for i, p := range fe.probes {
		c := [3]float64{p.X, p.Y, p.Z}
		for axis := range c {
			if c[axis] < cfg.Points.BoundsMin[axis] || c[axis] > cfg.Points.BoundsMax[axis] {
				t.Fatalf("probe %d = %v outside bounds", i, p)
			}
		}
		if d := fe.shifted[i].X - p.X; math.Abs(d-cfg.Calibrate.Lag) > 1e-12 {
			t.Errorf("probe %d shifted by %v, want lag %v", i, d, cfg.Calibrate.Lag)
		}
	}
}
