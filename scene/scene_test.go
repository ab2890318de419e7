package scene

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/config"
	"github.com/pthm-cable/turbulence/turbulence"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Points.Count = 20
	cfg.Reference.Grid = [3]int{3, 2, 1}
	cfg.Reference.Neighbors = 3
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	s, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(s.Points) != 20 {
		t.Errorf("len(Points) = %d, want 20", len(s.Points))
	}
	// 6 Default nodes, plus 4 X-links and 3 Y-links.
	if len(s.References) != 13 {
		t.Errorf("len(References) = %d, want 13", len(s.References))
	}

	for _, mode := range []string{config.ModeScatter, config.ModeReference} {
		f, err := s.Field(mode)
		if err != nil {
			t.Fatalf("Field(%q): %v", mode, err)
		}
		v, err := f.GetVal(r3.Vec{X: 50, Y: 50, Z: 10}, 1.5)
		if err != nil {
			t.Fatalf("%s GetVal: %v", mode, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s GetVal = %v", mode, v)
		}
	}

	if _, err := s.Field("voxel"); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Field(voxel) error = %v", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	cfg := testConfig(t)
	a, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	positions := []r3.Vec{{X: 10, Y: 20, Z: 5}, {X: 80, Y: 40, Z: 15}, {X: 55, Y: 90}}
	for _, pos := range positions {
		va, _ := a.Scatter.GetVal(pos, 3.2)
		vb, _ := b.Scatter.GetVal(pos, 3.2)
		if va != vb {
			t.Errorf("scatter at %v: %v vs %v", pos, va, vb)
		}
		ra, _ := a.Reference.GetVal(pos, 3.2)
		rb, _ := b.Reference.GetVal(pos, 3.2)
		if ra != rb {
			t.Errorf("reference at %v: %v vs %v", pos, ra, rb)
		}
	}
}

func TestAnchors(t *testing.T) {
	cfg := config.PointsConfig{
		Count:     50,
		Seed:      7,
		BoundsMin: config.Vec3{-5, 0, 10},
		BoundsMax: config.Vec3{5, 1, 10},
	}
	got := Anchors(cfg)
	if len(got) != 50 {
		t.Fatalf("len = %d, want 50", len(got))
	}
	for i, a := range got {
		if a.X < -5 || a.X > 5 || a.Y < 0 || a.Y > 1 || a.Z != 10 {
			t.Errorf("anchor %d = %v outside bounds", i, a)
		}
	}

	cfg.Anchors = []config.Vec3{{1, 2, 3}}
	if got := Anchors(cfg); len(got) != 1 || got[0] != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Errorf("explicit anchors = %v", got)
	}
}

func TestReferenceLayout(t *testing.T) {
	anchors := []r3.Vec{{X: 1}, {X: 9}, {X: 5, Y: 5}, {X: 0, Y: 10}}
	bounds := config.PointsConfig{BoundsMax: config.Vec3{10, 10, 0}}

	refs, err := ReferenceLayout(anchors, bounds, config.ReferenceConfig{
		Grid:        [3]int{2, 2, 1},
		Neighbors:   2,
		Interpolate: true,
	})
	if err != nil {
		t.Fatalf("ReferenceLayout: %v", err)
	}
	if len(refs) != 8 {
		t.Fatalf("len(refs) = %d, want 4 default + 4 interpolation", len(refs))
	}

	// First node is the (0,0) cell centre; its nearest anchors are 0 then 2.
	if refs[0].Position != (r3.Vec{X: 2.5, Y: 2.5}) {
		t.Errorf("refs[0] at %v", refs[0].Position)
	}
	if len(refs[0].Refs) != 2 || refs[0].Refs[0] != 0 {
		t.Errorf("refs[0].Refs = %v", refs[0].Refs)
	}

	for i, r := range refs[4:] {
		if r.Category != turbulence.Interpolation {
			t.Fatalf("refs[%d] category %v", i+4, r.Category)
		}
		a, b := refs[r.Refs[0]].Position, refs[r.Refs[1]].Position
		if want := r3.Scale(0.5, r3.Add(a, b)); r.Position != want {
			t.Errorf("refs[%d] at %v, want midpoint %v", i+4, r.Position, want)
		}
	}

	if _, err := turbulence.NewReferenceField(
		[]*turbulence.Point{}, refs, 1,
	); !errors.Is(err, turbulence.ErrNoPoints) {
		t.Errorf("NewReferenceField without points error = %v", err)
	}
}

func TestReferenceLayoutFlatAxis(t *testing.T) {
	anchors := []r3.Vec{{X: 1}, {X: 9}}
	bounds := config.PointsConfig{BoundsMax: config.Vec3{10, 10, 0}}

	_, err := ReferenceLayout(anchors, bounds, config.ReferenceConfig{
		Grid:      [3]int{2, 2, 2},
		Neighbors: 1,
	})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("ReferenceLayout with two nodes on a flat axis error = %v, want ErrInvalidConfig", err)
	}
}

func TestWalkTransform(t *testing.T) {
	if !WalkTransform(config.WalkConfig{Scale: 1}).IsIdentity() {
		t.Error("unit scale without rotation should be the identity")
	}

	tr := WalkTransform(config.WalkConfig{Scale: 2, RotationZ: math.Pi / 2})
	got := tr.ApplyVector(r3.Vec{X: 1})
	if math.Abs(got.X) > 1e-12 || math.Abs(got.Y-2) > 1e-12 {
		t.Errorf("ApplyVector = %v, want (0, 2, 0)", got)
	}
}
